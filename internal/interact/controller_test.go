package interact

import (
	"bytes"
	"strings"
	"testing"

	"github.com/RMahshie/audiogram/internal/audiogram"
	"github.com/RMahshie/audiogram/internal/chart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(ear audiogram.Ear) (*Controller, *audiogram.Store) {
	store := audiogram.NewStore()
	return NewController(ear, chart.Default(), store), store
}

func threshold(t *testing.T, s *audiogram.Store, ear audiogram.Ear, c audiogram.Conduction, freq int) int {
	t.Helper()
	db, ok := s.Ear(ear).Get(c).Get(freq)
	require.True(t, ok)
	return db
}

func TestDragScenario(t *testing.T) {
	ctrl, store := newTestController(audiogram.Right)
	g := chart.Default()
	x := g.XForFrequency(1000)

	require.True(t, ctrl.PointerDown(1000, audiogram.Air))
	assert.Equal(t, Dragging, ctrl.Phase())
	target, ok := ctrl.Target()
	require.True(t, ok)
	assert.Equal(t, Target{Frequency: 1000, Conduction: audiogram.Air}, target)

	for _, step := range []struct {
		db   float64
		want int
	}{{0, 0}, {45, 45}, {87, 85}} {
		wrote, err := ctrl.PointerMove(x, g.YForDb(step.db))
		require.NoError(t, err)
		assert.True(t, wrote)
		assert.Equal(t, step.want, threshold(t, store, audiogram.Right, audiogram.Air, 1000))
	}

	assert.True(t, ctrl.PointerUp())
	assert.Equal(t, Idle, ctrl.Phase())

	wrote, err := ctrl.PointerMove(x, g.YForDb(110))
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, 85, threshold(t, store, audiogram.Right, audiogram.Air, 1000))
}

func TestDragOutsidePlotClamps(t *testing.T) {
	ctrl, store := newTestController(audiogram.Left)
	g := chart.Default()

	require.True(t, ctrl.PointerDown(250, audiogram.Air))

	_, err := ctrl.PointerMove(g.XForFrequency(250), g.Height+200)
	require.NoError(t, err)
	assert.Equal(t, 120, threshold(t, store, audiogram.Left, audiogram.Air, 250))

	_, err = ctrl.PointerMove(g.XForFrequency(250), -300)
	require.NoError(t, err)
	assert.Equal(t, -10, threshold(t, store, audiogram.Left, audiogram.Air, 250))
	assert.False(t, ctrl.Tooltip().Visible)
}

func TestPointerDownOnInertMarker(t *testing.T) {
	ctrl, store := newTestController(audiogram.Right)

	assert.False(t, ctrl.PointerDown(1000, audiogram.Bone))
	assert.Equal(t, Idle, ctrl.Phase())

	require.NoError(t, store.SetEditingMode(audiogram.Right, audiogram.Bone))
	assert.True(t, ctrl.PointerDown(1000, audiogram.Bone))
}

func TestPointerDownUnknownFrequency(t *testing.T) {
	ctrl, _ := newTestController(audiogram.Right)
	assert.False(t, ctrl.PointerDown(440, audiogram.Air))
}

func TestPointerDownAtHitTest(t *testing.T) {
	ctrl, store := newTestController(audiogram.Right)
	g := chart.Default()
	require.NoError(t, store.UpdateThreshold(audiogram.Right, audiogram.Air, 2000, 50))

	assert.False(t, ctrl.PointerDownAt(g.XForFrequency(2000), g.YForDb(80)))

	require.True(t, ctrl.PointerDownAt(g.XForFrequency(2000)+3, g.YForDb(50)-4))
	target, _ := ctrl.Target()
	assert.Equal(t, 2000, target.Frequency)
	assert.Equal(t, audiogram.Air, target.Conduction)
}

func TestClickScenario(t *testing.T) {
	ctrl, store := newTestController(audiogram.Left)
	g := chart.Default()
	require.NoError(t, store.SetEditingMode(audiogram.Left, audiogram.Bone))

	wrote, err := ctrl.Click(g.MarginLeft+g.Step()*3, g.YForDb(60))
	require.NoError(t, err)
	assert.True(t, wrote)

	assert.Equal(t, 60, threshold(t, store, audiogram.Left, audiogram.Bone, 750))
	assert.Equal(t, audiogram.DefaultAir, threshold(t, store, audiogram.Left, audiogram.Air, 750))
	assert.Equal(t, Idle, ctrl.Phase())
}

func TestClickOutsidePlotIgnored(t *testing.T) {
	ctrl, store := newTestController(audiogram.Right)
	before := store.Snapshot()

	for _, pt := range [][2]float64{{10, 100}, {300, 10}, {690, 300}, {300, 590}} {
		wrote, err := ctrl.Click(pt[0], pt[1])
		require.NoError(t, err)
		assert.False(t, wrote)
	}
	assert.Equal(t, before, store.Snapshot())
}

func TestClickWhileDraggingIgnored(t *testing.T) {
	ctrl, store := newTestController(audiogram.Right)
	g := chart.Default()

	require.True(t, ctrl.PointerDown(500, audiogram.Air))
	wrote, err := ctrl.Click(g.XForFrequency(4000), g.YForDb(70))
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, audiogram.DefaultAir, threshold(t, store, audiogram.Right, audiogram.Air, 4000))
}

func TestEndDragIsIdempotent(t *testing.T) {
	ctrl, _ := newTestController(audiogram.Right)

	require.True(t, ctrl.PointerDown(125, audiogram.Air))
	assert.True(t, ctrl.PointerLeave())
	assert.False(t, ctrl.PointerUp())
	assert.False(t, ctrl.EndDrag())
	assert.Equal(t, Idle, ctrl.Phase())
}

func TestEarsAreIndependent(t *testing.T) {
	store := audiogram.NewStore()
	right := NewController(audiogram.Right, chart.Default(), store)
	left := NewController(audiogram.Left, chart.Default(), store)
	g := chart.Default()

	require.True(t, right.PointerDown(3000, audiogram.Air))
	assert.Equal(t, Idle, left.Phase())

	_, err := right.PointerMove(g.XForFrequency(3000), g.YForDb(40))
	require.NoError(t, err)

	assert.Equal(t, 40, threshold(t, store, audiogram.Right, audiogram.Air, 3000))
	assert.Equal(t, audiogram.DefaultAir, threshold(t, store, audiogram.Left, audiogram.Air, 3000))
}

func TestTooltip(t *testing.T) {
	ctrl, _ := newTestController(audiogram.Right)
	g := chart.Default()

	_, err := ctrl.PointerMove(g.XForFrequency(2000), g.YForDb(45))
	require.NoError(t, err)
	tip := ctrl.Tooltip()
	assert.True(t, tip.Visible)
	assert.Equal(t, "2k • 45 dB HL", tip.Content)

	_, err = ctrl.PointerMove(5, 5)
	require.NoError(t, err)
	assert.False(t, ctrl.Tooltip().Visible)

	_, err = ctrl.PointerMove(g.XForFrequency(500), g.YForDb(0))
	require.NoError(t, err)
	ctrl.PointerLeave()
	assert.False(t, ctrl.Tooltip().Visible)
}

func TestRenderSVG(t *testing.T) {
	store := audiogram.NewStore()
	require.NoError(t, store.UpdateThreshold(audiogram.Left, audiogram.Bone, 750, 60))

	var buf bytes.Buffer
	err := RenderSVG(&buf, SVGOptions{
		Ear:      audiogram.Left,
		Data:     store.Ear(audiogram.Left),
		Editing:  audiogram.Bone,
		Theme:    audiogram.Light,
		Geometry: chart.Default(),
	})
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<svg"))
	assert.Contains(t, out, `viewBox="0 0 700 600"`)
	assert.Contains(t, out, `data-testid="line-left-air"`)
	assert.Contains(t, out, `stroke-dasharray="5,5" data-testid="line-left-bone"`)
	assert.Contains(t, out, `data-testid="marker-left-bone-750" data-frequency="750" data-conduction="bone" data-editable="true"`)
	assert.Contains(t, out, `data-testid="marker-left-air-750" data-frequency="750" data-conduction="air" data-editable="false"`)
	assert.Contains(t, out, ">750</text>")
	assert.Contains(t, out, ">1.5k</text>")
	assert.Contains(t, out, "dB HL</text>")
	assert.Equal(t, 2*chart.NumFrequencies, strings.Count(out, `class="chart-marker"`))

	// bone marker at 750 Hz sits where the mapper puts 60 dB
	g := chart.Default()
	assert.Contains(t, out, `<circle cx="`+num(g.XForFrequency(750))+`" cy="`+num(g.YForDb(60))+`" r="8"`)
}

func TestNum(t *testing.T) {
	assert.Equal(t, "0", num(0))
	assert.Equal(t, "100", num(100))
	assert.Equal(t, "257", num(257))
	assert.Equal(t, "98.462", num(98.4615384))
}
