package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/RMahshie/audiogram/internal/export"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Export  ExportConfig
	AWS     AWSConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// SessionConfig holds session lifetime configuration
type SessionConfig struct {
	TTL           time.Duration
	PurgeInterval time.Duration
}

// ExportConfig holds PNG export configuration
type ExportConfig struct {
	FilenamePrefix string
	Scale          float64
	MaxConcurrent  int
}

// AWSConfig holds AWS/S3 configuration for the export archive
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string // empty disables archiving
	S3Endpoint      string
}

var keys = []string{
	"PORT",
	"ENVIRONMENT",
	"LOG_LEVEL",
	"ALLOWED_ORIGINS",
	"SESSION_TTL",
	"SESSION_PURGE_INTERVAL",
	"EXPORT_FILENAME_PREFIX",
	"EXPORT_SCALE",
	"EXPORT_MAX_CONCURRENT",
	"AWS_REGION",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
	"S3_BUCKET",
	"S3_ENDPOINT",
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "dev")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("SESSION_TTL", "12h")
	viper.SetDefault("SESSION_PURGE_INTERVAL", "10m")
	viper.SetDefault("EXPORT_FILENAME_PREFIX", "audio")
	viper.SetDefault("EXPORT_SCALE", 2)
	viper.SetDefault("EXPORT_MAX_CONCURRENT", 2)
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ACCESS_KEY_ID", "")
	viper.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_ENDPOINT", "")

	// Environment variables override .env file values
	viper.AutomaticEnv()
	for _, k := range keys {
		viper.BindEnv(k)
	}

	// Read from .env files based on environment
	env := viper.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev" // Use "dev" to match .env.dev filename
	}
	viper.SetConfigName(".env." + env)
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error - file may not exist

	var config Config
	config.Server.Port = viper.GetString("PORT")
	config.Server.Env = env
	config.Server.LogLevel = viper.GetString("LOG_LEVEL")
	config.Server.AllowedOrigins = splitList(viper.GetString("ALLOWED_ORIGINS"))
	config.Session.TTL = viper.GetDuration("SESSION_TTL")
	config.Session.PurgeInterval = viper.GetDuration("SESSION_PURGE_INTERVAL")
	config.Export.FilenamePrefix = viper.GetString("EXPORT_FILENAME_PREFIX")
	config.Export.Scale = viper.GetFloat64("EXPORT_SCALE")
	config.Export.MaxConcurrent = viper.GetInt("EXPORT_MAX_CONCURRENT")
	config.AWS.Region = viper.GetString("AWS_REGION")
	config.AWS.AccessKeyID = viper.GetString("AWS_ACCESS_KEY_ID")
	config.AWS.SecretAccessKey = viper.GetString("AWS_SECRET_ACCESS_KEY")
	config.AWS.S3Bucket = viper.GetString("S3_BUCKET")
	config.AWS.S3Endpoint = viper.GetString("S3_ENDPOINT")

	switch {
	case config.Export.Scale <= 0:
		log.Warn().Float64("scale", config.Export.Scale).Msg("EXPORT_SCALE must be positive, using 2")
		config.Export.Scale = 2
	case config.Export.Scale > export.MaxScale:
		log.Warn().Float64("scale", config.Export.Scale).Int("max", export.MaxScale).Msg("EXPORT_SCALE too large, clamping")
		config.Export.Scale = export.MaxScale
	}
	if config.Export.MaxConcurrent <= 0 {
		log.Warn().Int("max_concurrent", config.Export.MaxConcurrent).Msg("EXPORT_MAX_CONCURRENT must be positive, using 1")
		config.Export.MaxConcurrent = 1
	}

	log.Debug().
		Strs("allowed_origins", config.Server.AllowedOrigins).
		Dur("session_ttl", config.Session.TTL).
		Bool("archive", config.AWS.S3Bucket != "").
		Msg("Configuration loaded")

	return &config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
