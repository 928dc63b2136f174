// Package export renders a session's audiogram to a PNG: a title block
// with the patient metadata above both ears' charts side by side. Chart
// positions come from internal/chart, the same mapper the interactive SVG
// uses, scaled to the export resolution.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"

	"github.com/RMahshie/audiogram/internal/audiogram"
	"github.com/RMahshie/audiogram/internal/chart"
	"github.com/RMahshie/audiogram/internal/interact"
)

// Layout of the export canvas in unscaled pixels. Chart panels use the
// chart geometry itself.
const (
	padding      = 24
	titleBlock   = 110
	panelHeader  = 40
	panelFooter  = 36
	titleSize    = 26
	patientSize  = 15
	headingSize  = 18
	legendSize   = 14
	tickFontSize = 12
	axisFontSize = 14
)

// Document is everything drawn on an export.
type Document struct {
	Patient audiogram.Patient
	Right   audiogram.EarData
	Left    audiogram.EarData
	Theme   audiogram.Theme
}

// DocumentFromState builds a Document from a session snapshot.
func DocumentFromState(s audiogram.State) Document {
	return Document{Patient: s.Patient, Right: s.Right, Left: s.Left, Theme: s.Theme}
}

func (d Document) ear(ear audiogram.Ear) audiogram.EarData {
	if ear == audiogram.Left {
		return d.Left
	}
	return d.Right
}

// Renderer draws Documents. Scale multiplies the chart geometry for
// high-DPI output; Supersample renders larger still and downsamples for
// smoother strokes.
type Renderer struct {
	Geometry    chart.Geometry
	Scale       float64
	Supersample int
}

// MaxScale bounds the scale a renderer draws at, supersampling included.
// At MaxScale the working canvas is about 5900x3200 pixels.
const MaxScale = 4

// NewRenderer returns a renderer over the default chart geometry. Exports
// below scale 2 are drawn at twice the size and downsampled.
func NewRenderer(scale float64) *Renderer {
	ss := 1
	if scale < 2 {
		ss = 2
	}
	return &Renderer{Geometry: chart.Default(), Scale: scale, Supersample: ss}
}

// Size returns the pixel size of a rendered export.
func (r *Renderer) Size() (int, int) {
	g := r.Geometry.Scale(r.Scale)
	w := 2*g.Width + 3*padding*r.Scale
	h := titleBlock*r.Scale + g.Height + (panelHeader+panelFooter)*r.Scale + padding*r.Scale
	return int(math.Ceil(w)), int(math.Ceil(h))
}

// Render draws doc. It fails with a *ValidationError when patient metadata
// is missing, with ErrMissingTarget when the geometry leaves nothing to
// draw on and with ErrCanvasTooLarge above MaxScale. Supersampling is
// reduced as needed to stay within MaxScale.
func (r *Renderer) Render(doc Document) (*image.RGBA, error) {
	if err := ValidatePatient(doc.Patient.Validate()); err != nil {
		return nil, err
	}
	if r.Scale <= 0 || r.Geometry.PlotWidth() <= 0 || r.Geometry.PlotHeight() <= 0 {
		return nil, fmt.Errorf("%w: geometry %+v at scale %v", ErrMissingTarget, r.Geometry, r.Scale)
	}
	if r.Scale > MaxScale {
		return nil, fmt.Errorf("%w: scale %v exceeds %v", ErrCanvasTooLarge, r.Scale, MaxScale)
	}

	ss := r.supersample()
	k := r.Scale * float64(ss)
	big := &Renderer{Geometry: r.Geometry, Scale: k}
	w, h := big.Size()

	p := interact.PaletteFor(doc.Theme)
	bg := hexColor(p.Background)
	cv := &canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
	cv.fill(cv.img.Bounds(), bg)

	if err := drawTitleBlock(cv, doc.Patient, k, float64(w), p); err != nil {
		return nil, err
	}

	g := r.Geometry.Scale(k)
	for i, ear := range audiogram.Ears {
		panel, err := drawPanel(ear, doc.ear(ear), g, k, p)
		if err != nil {
			return nil, err
		}
		x := int(math.Round(padding*k + float64(i)*(g.Width+padding*k)))
		y := int(math.Round(titleBlock * k))
		draw.Draw(cv.img, panel.Bounds().Add(image.Pt(x, y)), panel, image.Point{}, draw.Src)
	}

	if ss == 1 {
		return cv.img, nil
	}
	fw, fh := r.Size()
	out := image.NewRGBA(image.Rect(0, 0, fw, fh))
	draw.CatmullRom.Scale(out, out.Bounds(), cv.img, cv.img.Bounds(), draw.Src, nil)
	return out, nil
}

// supersample returns the working canvas multiplier, capped so that
// Scale times the multiplier stays within MaxScale.
func (r *Renderer) supersample() int {
	if r.Scale <= 0 {
		return 1
	}
	return max(min(r.Supersample, int(MaxScale/r.Scale)), 1)
}

func drawTitleBlock(cv *canvas, p audiogram.Patient, k, width float64, pal interact.Palette) error {
	label := hexColor(pal.Axis)
	if err := cv.text("Audiogram", padding*k, 44*k, titleSize*k, label, anchorStart); err != nil {
		return err
	}
	fields := []string{
		"Patient's Name: " + p.Name,
		"Date of Examination: " + p.ExamDate,
		"Birth Date: " + p.BirthDate,
	}
	col := (width - 2*padding*k) / float64(len(fields))
	for i, f := range fields {
		if err := cv.text(f, padding*k+float64(i)*col, 84*k, patientSize*k, label, anchorStart); err != nil {
			return err
		}
	}
	return nil
}

// drawPanel draws one ear: heading, chart, legend.
func drawPanel(ear audiogram.Ear, data audiogram.EarData, g chart.Geometry, k float64, pal interact.Palette) (*image.RGBA, error) {
	w := int(math.Ceil(g.Width))
	h := int(math.Ceil(g.Height + (panelHeader+panelFooter)*k))
	cv := &canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
	cv.fill(cv.img.Bounds(), hexColor(pal.Background))

	earCol := hexColor(interact.EarColor(ear))
	if err := cv.text(interact.Title(ear), g.Width/2, 28*k, headingSize*k, hexColor(pal.Axis), anchorMiddle); err != nil {
		return nil, err
	}

	plot, err := drawChart(ear, data, g, k, pal)
	if err != nil {
		return nil, err
	}
	top := int(math.Round(panelHeader * k))
	draw.Draw(cv.img, plot.Bounds().Add(image.Pt(0, top)), plot, image.Point{}, draw.Src)

	legendY := float64(top) + g.Height + 24*k
	if err := cv.text(interact.Legend(ear), g.Width/2, legendY, legendSize*k, earCol, anchorMiddle); err != nil {
		return nil, err
	}
	return cv.img, nil
}

// drawChart draws the chart canvas. Every position is taken from g.
func drawChart(ear audiogram.Ear, data audiogram.EarData, g chart.Geometry, k float64, pal interact.Palette) (*image.RGBA, error) {
	cv := &canvas{img: image.NewRGBA(image.Rect(0, 0, int(math.Ceil(g.Width)), int(math.Ceil(g.Height))))}
	bg := hexColor(pal.Background)
	axis := hexColor(pal.Axis)
	tick := hexColor(pal.Tick)
	label := hexColor(pal.Label)
	grid := mix(hexColor(pal.Grid), bg, interact.GridOpacity)
	earCol := hexColor(interact.EarColor(ear))
	bottom := g.MarginTop + g.PlotHeight()
	right := g.MarginLeft + g.PlotWidth()

	cv.fill(cv.img.Bounds(), bg)

	for t := range g.YTicks() {
		cv.line(g.MarginLeft, t.Position, right, t.Position, k, grid)
	}
	for t := range g.XTicks() {
		cv.line(t.Position, g.MarginTop, t.Position, bottom, k, grid)
	}

	cv.line(g.MarginLeft, g.MarginTop, g.MarginLeft, bottom, 2*k, axis)
	for t := range g.YTicks() {
		cv.line(g.MarginLeft-5*k, t.Position, g.MarginLeft+5*k, t.Position, k, tick)
		if err := cv.text(t.Label, g.MarginLeft-15*k, t.Position+4*k, tickFontSize*k, label, anchorEnd); err != nil {
			return nil, err
		}
	}
	if err := cv.verticalText("dB HL", 25*k, g.MarginTop+g.PlotHeight()/2, axisFontSize*k, label, bg); err != nil {
		return nil, err
	}

	cv.line(g.MarginLeft, bottom, right, bottom, 2*k, axis)
	for t := range g.XTicks() {
		cv.line(t.Position, bottom-5*k, t.Position, bottom+5*k, k, tick)
		if err := cv.text(t.Label, t.Position, bottom+20*k, tickFontSize*k, label, anchorMiddle); err != nil {
			return nil, err
		}
	}

	cv.polyline(points(g, data.Air), 2*k, earCol, nil)
	cv.polyline(points(g, data.Bone), 2*k, earCol, []float64{5 * k, 5 * k})

	fill := hexColor(pal.MarkerFill)
	for _, f := range chart.Frequencies() {
		db, _ := data.Air.Get(f)
		drawAirMarker(cv, ear, g.XForFrequency(f), g.YForDb(float64(db)), k, earCol, fill)
	}
	for _, f := range chart.Frequencies() {
		db, _ := data.Bone.Get(f)
		drawBoneMarker(cv, ear, g.XForFrequency(f), g.YForDb(float64(db)), k, earCol)
	}
	return cv.img, nil
}

func points(g chart.Geometry, th audiogram.Thresholds) [][2]float64 {
	pts := make([][2]float64, 0, chart.NumFrequencies)
	for _, f := range chart.Frequencies() {
		db, _ := th.Get(f)
		pts = append(pts, [2]float64{g.XForFrequency(f), g.YForDb(float64(db))})
	}
	return pts
}

// drawAirMarker draws O for the right ear and X for the left.
func drawAirMarker(cv *canvas, ear audiogram.Ear, x, y, k float64, col, fill color.RGBA) {
	if ear == audiogram.Right {
		cv.ring(x, y, 6*k, 2*k, col, fill)
		return
	}
	s := 6 * k
	cv.line(x-s, y-s, x+s, y+s, 2*k, col)
	cv.line(x+s, y-s, x-s, y+s, 2*k, col)
}

// drawBoneMarker draws < for the right ear and > for the left.
func drawBoneMarker(cv *canvas, ear audiogram.Ear, x, y, k float64, col color.RGBA) {
	s := 5 * k
	dir := interact.BoneDirection(ear)
	cv.polyline([][2]float64{{x + dir*s, y - s}, {x - dir*s, y}, {x + dir*s, y + s}}, 2*k, col, nil)
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: no image", ErrEncode)
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

// EncodeBytes encodes img as PNG into memory. Nothing is returned unless
// encoding completed.
func EncodeBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
