// Package interact turns pointer gestures on one ear's chart into threshold
// updates and renders that chart as SVG.
package interact

import (
	"math"

	"github.com/RMahshie/audiogram/internal/audiogram"
	"github.com/RMahshie/audiogram/internal/chart"
)

// Phase is the gesture state of a chart.
type Phase string

const (
	Idle     Phase = "idle"
	Dragging Phase = "dragging"
)

// HitRadius is the radius of a marker's pointer target in canvas pixels.
const HitRadius = 8

// Store is the part of the threshold store a chart writes through.
type Store interface {
	Ear(ear audiogram.Ear) audiogram.EarData
	EditingMode(ear audiogram.Ear) audiogram.Conduction
	UpdateThreshold(ear audiogram.Ear, c audiogram.Conduction, freq int, raw float64) error
}

// Target identifies the marker being dragged.
type Target struct {
	Frequency  int                  `json:"frequency"`
	Conduction audiogram.Conduction `json:"conduction"`
}

// Tooltip is the hover readout. It is a view concern and never touches the
// store.
type Tooltip struct {
	Visible bool    `json:"visible"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Content string  `json:"content,omitempty"`
}

// Controller is the gesture state machine of one ear's chart. Each ear has
// its own controller; they share only the store.
type Controller struct {
	ear     audiogram.Ear
	geom    chart.Geometry
	store   Store
	drag    *Target
	tooltip Tooltip
}

// NewController returns an idle controller for ear drawn with geom.
func NewController(ear audiogram.Ear, geom chart.Geometry, store Store) *Controller {
	return &Controller{ear: ear, geom: geom, store: store}
}

// Ear returns the ear this controller edits.
func (c *Controller) Ear() audiogram.Ear {
	return c.ear
}

// Geometry returns the canvas geometry pointer coordinates refer to.
func (c *Controller) Geometry() chart.Geometry {
	return c.geom
}

// Phase returns the current gesture state.
func (c *Controller) Phase() Phase {
	if c.drag != nil {
		return Dragging
	}
	return Idle
}

// Target returns the dragged marker, if any.
func (c *Controller) Target() (Target, bool) {
	if c.drag == nil {
		return Target{}, false
	}
	return *c.drag, true
}

// Tooltip returns the current hover readout.
func (c *Controller) Tooltip() Tooltip {
	return c.tooltip
}

// PointerDown starts dragging the marker (freq, cond). Markers whose
// conduction is not the ear's current selector are inert. It reports
// whether a drag started.
func (c *Controller) PointerDown(freq int, cond audiogram.Conduction) bool {
	if c.drag != nil || !chart.IsFrequency(freq) {
		return false
	}
	if c.store.EditingMode(c.ear) != cond {
		return false
	}
	c.drag = &Target{Frequency: freq, Conduction: cond}
	return true
}

// PointerDownAt hit-tests the editable markers at (x, y) and starts
// dragging the nearest one within HitRadius.
func (c *Controller) PointerDownAt(x, y float64) bool {
	freq, ok := c.HitTest(x, y)
	if !ok {
		return false
	}
	return c.PointerDown(freq, c.store.EditingMode(c.ear))
}

// HitTest returns the frequency of the editable marker nearest to (x, y)
// within HitRadius.
func (c *Controller) HitTest(x, y float64) (int, bool) {
	th := c.store.Ear(c.ear).Get(c.store.EditingMode(c.ear))
	best, bestDist := 0, math.Inf(1)
	for _, f := range chart.Frequencies() {
		db, _ := th.Get(f)
		d := math.Hypot(x-c.geom.XForFrequency(f), y-c.geom.YForDb(float64(db)))
		if d <= HitRadius && d < bestDist {
			best, bestDist = f, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}

// Click writes the threshold under (x, y) for the ear's current selector.
// Clicks outside the plot rectangle, or while dragging, are ignored. It
// reports whether the store was written.
func (c *Controller) Click(x, y float64) (bool, error) {
	if c.drag != nil || !c.geom.Contains(x, y) {
		return false, nil
	}
	freq := c.geom.FrequencyForX(x)
	db := chart.ClampDb(chart.Snap(c.geom.DbForY(y), chart.SnapIncrement))
	if err := c.store.UpdateThreshold(c.ear, c.store.EditingMode(c.ear), freq, db); err != nil {
		return false, err
	}
	return true, nil
}

// PointerMove updates the hover readout and, while dragging, writes the
// dragged marker's threshold from y. Every move while dragging is a write.
func (c *Controller) PointerMove(x, y float64) (bool, error) {
	c.hover(x, y)
	if c.drag == nil {
		return false, nil
	}
	db := chart.ClampDb(chart.Snap(c.geom.DbForY(y), chart.SnapIncrement))
	if err := c.store.UpdateThreshold(c.ear, c.drag.Conduction, c.drag.Frequency, db); err != nil {
		return false, err
	}
	return true, nil
}

// PointerUp ends a drag. It is wired to release events from anywhere, not
// only from the chart surface.
func (c *Controller) PointerUp() bool {
	return c.EndDrag()
}

// PointerLeave ends a drag and hides the readout when the pointer leaves
// the chart surface.
func (c *Controller) PointerLeave() bool {
	c.tooltip.Visible = false
	return c.EndDrag()
}

// EndDrag returns the controller to Idle. Ending an idle controller is a
// no-op; it reports whether a drag was actually ended.
func (c *Controller) EndDrag() bool {
	if c.drag == nil {
		return false
	}
	c.drag = nil
	return true
}

func (c *Controller) hover(x, y float64) {
	if !c.geom.Contains(x, y) {
		c.tooltip.Visible = false
		return
	}
	c.tooltip = Tooltip{
		Visible: true,
		X:       x,
		Y:       y,
		Content: chart.TooltipLabel(c.geom.FrequencyForX(x), c.geom.DbForY(y)),
	}
}
