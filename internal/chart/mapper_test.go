package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGeometry(t *testing.T) {
	g := Default()

	assert.Equal(t, 590.0, g.PlotWidth())
	assert.Equal(t, 480.0, g.PlotHeight())
	assert.InDelta(t, 59.0, g.Step(), 1e-9)
}

func TestFrequencyRoundTrip(t *testing.T) {
	for _, g := range []Geometry{Default(), Default().Scale(2), Default().Scale(0.5)} {
		for _, f := range Frequencies() {
			assert.Equal(t, f, g.FrequencyForX(g.XForFrequency(f)), "frequency %d", f)
		}
	}
}

func TestDbRoundTrip(t *testing.T) {
	g := Default()
	for db := float64(MinDb); db <= MaxDb; db += 0.5 {
		assert.InDelta(t, db, g.DbForY(g.YForDb(db)), 1e-9)
	}
}

func TestXForFrequency(t *testing.T) {
	g := Default()

	assert.Equal(t, 80.0, g.XForFrequency(125))
	assert.Equal(t, 670.0, g.XForFrequency(8000))
	assert.InDelta(t, 80+3*59.0, g.XForFrequency(750), 1e-9)

	t.Run("unknown frequency falls back to left margin", func(t *testing.T) {
		assert.Equal(t, g.MarginLeft, g.XForFrequency(440))
	})
}

func TestYForDb(t *testing.T) {
	g := Default()

	assert.Equal(t, g.MarginTop, g.YForDb(MinDb))
	assert.Equal(t, g.MarginTop+g.PlotHeight(), g.YForDb(MaxDb))
}

func TestDbForYIsUnclamped(t *testing.T) {
	g := Default()

	assert.Less(t, g.DbForY(0), float64(MinDb))
	assert.Greater(t, g.DbForY(g.Height), float64(MaxDb))
}

// The y mapping must follow the dB bounds; a range literal that drifted
// from MinDb/MaxDb would move the bottom edge.
func TestDbRangeFollowsBounds(t *testing.T) {
	require.Equal(t, MaxDb-MinDb, DbRange)

	g := Default()
	assert.InDelta(t, float64(MaxDb), g.DbForY(g.MarginTop+g.PlotHeight()), 1e-9)
	assert.InDelta(t, float64(MinDb), g.DbForY(g.MarginTop), 1e-9)
}

func TestFrequencyForXClamps(t *testing.T) {
	g := Default()

	assert.Equal(t, 125, g.FrequencyForX(-500))
	assert.Equal(t, 8000, g.FrequencyForX(5000))
	assert.Equal(t, 250, g.FrequencyForX(g.MarginLeft+g.Step()*0.6))
	assert.Equal(t, 125, g.FrequencyForX(g.MarginLeft+g.Step()*0.4))
}

func TestSnap(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"exact", 45, 45},
		{"down", 87, 85},
		{"up", 88, 90},
		{"half rounds up", 2.5, 5},
		{"negative half rounds up", -2.5, 0},
		{"negative", -7.6, -10},
		{"far out of range", 999, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Snap(tt.value, SnapIncrement)
			assert.Equal(t, tt.want, got)
			assert.Zero(t, math.Mod(got, SnapIncrement))
		})
	}
}

func TestClampDb(t *testing.T) {
	for _, v := range []float64{-1e9, -999, -11, -10, 0, 55, 120, 121, 999, 1e9} {
		got := ClampDb(v)
		assert.GreaterOrEqual(t, got, float64(MinDb))
		assert.LessOrEqual(t, got, float64(MaxDb))
	}
	assert.Equal(t, 55.0, ClampDb(55))
}

func TestQuantize(t *testing.T) {
	assert.Equal(t, 120, Quantize(999))
	assert.Equal(t, -10, Quantize(-999))
	assert.Equal(t, 85, Quantize(87))
	assert.Equal(t, -10, Quantize(math.NaN()))
}

func TestYTicks(t *testing.T) {
	g := Default()

	var ticks []Tick
	for tick := range g.YTicks() {
		ticks = append(ticks, tick)
	}

	require.Len(t, ticks, 14)
	assert.Equal(t, -10, ticks[0].Value)
	assert.Equal(t, 120, ticks[13].Value)
	for _, tick := range ticks {
		assert.Equal(t, g.YForDb(float64(tick.Value)), tick.Position)
	}
}

func TestXTicks(t *testing.T) {
	g := Default()

	labels := map[int]string{}
	count := 0
	for tick := range g.XTicks() {
		labels[tick.Value] = tick.Label
		assert.Equal(t, g.XForFrequency(tick.Value), tick.Position)
		count++
	}

	assert.Equal(t, NumFrequencies, count)
	assert.Equal(t, "125", labels[125])
	assert.Equal(t, "750", labels[750])
	assert.Equal(t, "1k", labels[1000])
	assert.Equal(t, "1.5k", labels[1500])
	assert.Equal(t, "8k", labels[8000])
}

func TestTicksStopEarly(t *testing.T) {
	n := 0
	for range Default().XTicks() {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestContains(t *testing.T) {
	g := Default()

	assert.True(t, g.Contains(80, 40))
	assert.True(t, g.Contains(670, 520))
	assert.False(t, g.Contains(79.9, 100))
	assert.False(t, g.Contains(100, 520.1))
}

func TestFromViewport(t *testing.T) {
	g := Default()

	x, y := g.FromViewport(175, 150, 350, 300)
	assert.Equal(t, 350.0, x)
	assert.Equal(t, 300.0, y)

	x, y = g.FromViewport(10, 20, 0, 0)
	assert.Equal(t, 10.0, x)
	assert.Equal(t, 20.0, y)
}

func TestTooltipLabel(t *testing.T) {
	assert.Equal(t, "2k • 45 dB HL", TooltipLabel(2000, 44.6))
	assert.Equal(t, "500 • -10 dB HL", TooltipLabel(500, -10))
}
