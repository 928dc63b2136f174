// Package chart maps audiogram domain values (frequency in Hz, hearing
// level in dB HL) to plot pixels and back. Both the interactive SVG and the
// PNG export draw through this package so the two never disagree.
package chart

import (
	"fmt"
	"iter"
	"math"
	"strconv"
)

// Hearing level domain in dB HL.
const (
	MinDb = -10
	MaxDb = 120

	// DbRange is derived from the bounds; changing either bound moves the
	// y mapping with it.
	DbRange = MaxDb - MinDb

	// SnapIncrement is the resolution of a stored threshold.
	SnapIncrement = 5

	// TickStep is the spacing of y-axis ticks and horizontal gridlines.
	TickStep = 10
)

var frequencies = [...]int{125, 250, 500, 750, 1000, 1500, 2000, 3000, 4000, 6000, 8000}

// NumFrequencies is the size of the fixed frequency set.
const NumFrequencies = len(frequencies)

// Frequencies returns the audiometric frequencies in x-axis order.
func Frequencies() []int {
	out := make([]int, NumFrequencies)
	copy(out, frequencies[:])
	return out
}

// FrequencyAt returns the frequency at index i of the x axis.
func FrequencyAt(i int) int {
	return frequencies[i]
}

// FrequencyIndex returns the x-axis index of freq, or -1 if freq is not one
// of the fixed frequencies.
func FrequencyIndex(freq int) int {
	for i, f := range frequencies {
		if f == freq {
			return i
		}
	}
	return -1
}

// IsFrequency reports whether freq belongs to the fixed set.
func IsFrequency(freq int) bool {
	return FrequencyIndex(freq) >= 0
}

// Geometry is the chart canvas and the margins around its plot rectangle.
type Geometry struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	MarginLeft   float64 `json:"margin_left"`
	MarginRight  float64 `json:"margin_right"`
	MarginTop    float64 `json:"margin_top"`
	MarginBottom float64 `json:"margin_bottom"`
}

// Default returns the 700x600 interactive chart geometry (plot area 590x480).
func Default() Geometry {
	return Geometry{
		Width:        700,
		Height:       600,
		MarginLeft:   80,
		MarginRight:  30,
		MarginTop:    40,
		MarginBottom: 80,
	}
}

// PlotWidth is the width of the plot rectangle.
func (g Geometry) PlotWidth() float64 {
	return g.Width - g.MarginLeft - g.MarginRight
}

// PlotHeight is the height of the plot rectangle.
func (g Geometry) PlotHeight() float64 {
	return g.Height - g.MarginTop - g.MarginBottom
}

// Step is the horizontal distance between adjacent frequencies.
func (g Geometry) Step() float64 {
	return g.PlotWidth() / float64(NumFrequencies-1)
}

// Scale returns the geometry with every dimension multiplied by f.
func (g Geometry) Scale(f float64) Geometry {
	return Geometry{
		Width:        g.Width * f,
		Height:       g.Height * f,
		MarginLeft:   g.MarginLeft * f,
		MarginRight:  g.MarginRight * f,
		MarginTop:    g.MarginTop * f,
		MarginBottom: g.MarginBottom * f,
	}
}

// Contains reports whether (x, y) lies inside the plot rectangle, edges
// included.
func (g Geometry) Contains(x, y float64) bool {
	return x >= g.MarginLeft &&
		x <= g.MarginLeft+g.PlotWidth() &&
		y >= g.MarginTop &&
		y <= g.MarginTop+g.PlotHeight()
}

// FromViewport converts a position inside a rendered box of size w x h into
// canvas coordinates. A non-positive box size leaves the point unscaled.
func (g Geometry) FromViewport(x, y, w, h float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return x, y
	}
	return x * (g.Width / w), y * (g.Height / h)
}

// XForFrequency returns the x pixel of freq. Frequencies outside the fixed
// set land on the left plot edge.
func (g Geometry) XForFrequency(freq int) float64 {
	idx := FrequencyIndex(freq)
	if idx < 0 {
		return g.MarginLeft
	}
	return g.MarginLeft + float64(idx)*g.Step()
}

// YForDb returns the y pixel of a hearing level. Louder levels are lower on
// the chart.
func (g Geometry) YForDb(db float64) float64 {
	normalized := (db - MinDb) / DbRange
	return g.MarginTop + normalized*g.PlotHeight()
}

// DbForY is the exact inverse of YForDb. The result is not clamped.
func (g Geometry) DbForY(y float64) float64 {
	normalized := (y - g.MarginTop) / g.PlotHeight()
	return MinDb + normalized*DbRange
}

// FrequencyForX returns the frequency whose column is nearest to x.
func (g Geometry) FrequencyForX(x float64) int {
	idx := int(round((x - g.MarginLeft) / g.Step()))
	if idx < 0 {
		idx = 0
	}
	if idx > NumFrequencies-1 {
		idx = NumFrequencies - 1
	}
	return frequencies[idx]
}

// Snap rounds value to the nearest multiple of increment. Halves round
// towards positive infinity.
func Snap(value, increment float64) float64 {
	return round(value/increment) * increment
}

// ClampDb limits value to [MinDb, MaxDb].
func ClampDb(value float64) float64 {
	return math.Max(MinDb, math.Min(MaxDb, value))
}

// Quantize turns a raw hearing level into a storable threshold: snapped to
// SnapIncrement, then clamped.
func Quantize(raw float64) int {
	if math.IsNaN(raw) {
		return MinDb
	}
	return int(ClampDb(Snap(raw, SnapIncrement)))
}

// round matches the browser's Math.round.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Tick is one axis tick: a domain value, its pixel position along the axis
// and its label.
type Tick struct {
	Value    int     `json:"value"`
	Position float64 `json:"position"`
	Label    string  `json:"label"`
}

// YTicks yields one tick every TickStep dB from MinDb to MaxDb.
func (g Geometry) YTicks() iter.Seq[Tick] {
	return func(yield func(Tick) bool) {
		for db := MinDb; db <= MaxDb; db += TickStep {
			t := Tick{Value: db, Position: g.YForDb(float64(db)), Label: strconv.Itoa(db)}
			if !yield(t) {
				return
			}
		}
	}
}

// XTicks yields one tick per frequency.
func (g Geometry) XTicks() iter.Seq[Tick] {
	return func(yield func(Tick) bool) {
		for _, f := range frequencies {
			t := Tick{Value: f, Position: g.XForFrequency(f), Label: FrequencyLabel(f)}
			if !yield(t) {
				return
			}
		}
	}
}

// FrequencyLabel formats an x-axis label: "2k" for 2000 Hz, "1.5k" for
// 1500 Hz, literal below 1000 Hz. 750 Hz is always "750".
func FrequencyLabel(freq int) string {
	if freq == 750 || freq < 1000 {
		return strconv.Itoa(freq)
	}
	return strconv.FormatFloat(float64(freq)/1000, 'f', -1, 64) + "k"
}

// TooltipLabel formats the hover readout for a pointer at (freq, db).
func TooltipLabel(freq int, db float64) string {
	return fmt.Sprintf("%s • %d dB HL", FrequencyLabel(freq), int(round(db)))
}
