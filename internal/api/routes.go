package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/RMahshie/audiogram/internal/api/handlers"
	"github.com/RMahshie/audiogram/internal/api/ws"
	"github.com/RMahshie/audiogram/internal/chart"
	"github.com/RMahshie/audiogram/internal/processing"
	"github.com/RMahshie/audiogram/internal/repository"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(router chi.Router, api huma.API, sessionRepo repository.SessionRepository, exportSvc processing.ExportService, geom chart.Geometry, allowedOrigins []string) {
	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(sessionRepo, geom, exportSvc)
	exportHandler := handlers.NewExportHandler(exportSvc)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service",
	}, sessionHandler.Health)

	huma.Register(api, huma.Operation{
		OperationID: "getChartGeometry",
		Method:      http.MethodGet,
		Path:        "/api/chart/geometry",
		Summary:     "Get chart geometry",
		Description: "Returns the canvas geometry, frequencies and axis ticks every chart is drawn with",
		Tags:        []string{"Chart"},
	}, sessionHandler.GetGeometry)

	// Register session routes
	huma.Register(api, huma.Operation{
		OperationID:   "createSession",
		Method:        http.MethodPost,
		Path:          "/api/sessions",
		Summary:       "Create a session",
		Description:   "Starts a new audiogram with default thresholds",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusCreated,
	}, sessionHandler.CreateSession)

	huma.Register(api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{id}",
		Summary:     "Get session state",
		Description: "Returns thresholds, editing selectors, patient metadata and theme",
		Tags:        []string{"Session"},
	}, sessionHandler.GetSession)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteSession",
		Method:        http.MethodDelete,
		Path:          "/api/sessions/{id}",
		Summary:       "Delete a session",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusNoContent,
	}, sessionHandler.DeleteSession)

	huma.Register(api, huma.Operation{
		OperationID: "updateThreshold",
		Method:      http.MethodPut,
		Path:        "/api/sessions/{id}/thresholds",
		Summary:     "Update a threshold",
		Description: "Snaps the value to 5 dB, clamps it to [-10, 120] and stores it",
		Tags:        []string{"Session"},
	}, sessionHandler.UpdateThreshold)

	huma.Register(api, huma.Operation{
		OperationID: "setEditingMode",
		Method:      http.MethodPut,
		Path:        "/api/sessions/{id}/editing",
		Summary:     "Set editing mode",
		Description: "Chooses whether an ear's chart edits air or bone conduction",
		Tags:        []string{"Session"},
	}, sessionHandler.SetEditingMode)

	huma.Register(api, huma.Operation{
		OperationID: "resetSession",
		Method:      http.MethodPost,
		Path:        "/api/sessions/{id}/reset",
		Summary:     "Reset thresholds",
		Description: "Restores default thresholds and editing selectors for both ears",
		Tags:        []string{"Session"},
	}, sessionHandler.Reset)

	huma.Register(api, huma.Operation{
		OperationID: "updatePatient",
		Method:      http.MethodPut,
		Path:        "/api/sessions/{id}/patient",
		Summary:     "Update patient metadata",
		Tags:        []string{"Session"},
	}, sessionHandler.UpdatePatient)

	huma.Register(api, huma.Operation{
		OperationID: "setTheme",
		Method:      http.MethodPut,
		Path:        "/api/sessions/{id}/theme",
		Summary:     "Set or toggle the theme",
		Tags:        []string{"Session"},
	}, sessionHandler.SetTheme)

	huma.Register(api, huma.Operation{
		OperationID: "validatePatient",
		Method:      http.MethodPost,
		Path:        "/api/sessions/{id}/validate",
		Summary:     "Validate patient metadata",
		Description: "Lists the required patient fields that are still blank",
		Tags:        []string{"Session"},
	}, sessionHandler.ValidatePatient)

	// Register chart routes
	huma.Register(api, huma.Operation{
		OperationID: "pointerEvent",
		Method:      http.MethodPost,
		Path:        "/api/sessions/{id}/charts/{ear}/events",
		Summary:     "Send a pointer event",
		Description: "Applies one down, move, up, leave or click to an ear's chart",
		Tags:        []string{"Chart"},
	}, sessionHandler.PointerEvent)

	huma.Register(api, huma.Operation{
		OperationID: "chartSVG",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{id}/charts/{ear}/svg",
		Summary:     "Render a chart",
		Description: "Returns an ear's interactive chart as SVG",
		Tags:        []string{"Chart"},
	}, sessionHandler.ChartSVG)

	huma.Register(api, huma.Operation{
		OperationID: "exportPNG",
		Method:      http.MethodPost,
		Path:        "/api/sessions/{id}/export",
		Summary:     "Export PNG",
		Description: "Renders both ears with the patient metadata as a PNG download",
		Tags:        []string{"Export"},
	}, exportHandler.Export)

	// Websocket streams bypass huma
	router.Get("/api/sessions/{id}/charts/{ear}/ws", ws.NewChartHandler(sessionRepo, allowedOrigins).ServeHTTP)
}
