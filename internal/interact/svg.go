package interact

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/RMahshie/audiogram/internal/audiogram"
	"github.com/RMahshie/audiogram/internal/chart"
)

// Ear colours shared by the SVG and PNG renderers.
const (
	RightColor = "#dc2626"
	LeftColor  = "#2563eb"
)

// EarColor returns the stroke colour of an ear's lines and markers.
func EarColor(ear audiogram.Ear) string {
	if ear == audiogram.Left {
		return LeftColor
	}
	return RightColor
}

// Title returns the heading of an ear's chart.
func Title(ear audiogram.Ear) string {
	if ear == audiogram.Left {
		return "Left Ear Audiogram"
	}
	return "Right Ear Audiogram"
}

// Legend returns the symbol legend printed under an ear's chart.
func Legend(ear audiogram.Ear) string {
	if ear == audiogram.Left {
		return "Air Conduction (X) — Bone Conduction (>)"
	}
	return "Air Conduction (O) — Bone Conduction (<)"
}

// Palette holds the non-ear colours of a chart as #rrggbb strings.
type Palette struct {
	Background string
	Axis       string
	Tick       string
	Label      string
	Grid       string
	MarkerFill string
}

// GridOpacity is the opacity gridlines are drawn with.
const GridOpacity = 0.3

// PaletteFor returns the chart colours of a theme.
func PaletteFor(theme audiogram.Theme) Palette {
	if theme == audiogram.Dark {
		return Palette{"#1f2937", "#d1d5db", "#9ca3af", "#9ca3af", "#4b5563", "#1f2937"}
	}
	return Palette{"#ffffff", "#374151", "#6b7280", "#4b5563", "#d1d5db", "#ffffff"}
}

// SVGOptions selects what RenderSVG draws.
type SVGOptions struct {
	Ear      audiogram.Ear
	Data     audiogram.EarData
	Editing  audiogram.Conduction
	Theme    audiogram.Theme
	Geometry chart.Geometry
}

// RenderSVG writes one ear's chart as a standalone SVG document.
func RenderSVG(w io.Writer, opts SVGOptions) error {
	g := opts.Geometry
	p := PaletteFor(opts.Theme)
	color := EarColor(opts.Ear)
	bottom := g.MarginTop + g.PlotHeight()
	right := g.MarginLeft + g.PlotWidth()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" data-testid="chart-svg-%s">`+"\n",
		num(g.Width), num(g.Height), opts.Ear)
	fmt.Fprintf(bw, `<rect width="%s" height="%s" fill="%s"/>`+"\n", num(g.Width), num(g.Height), p.Background)

	// y axis
	fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="2"/>`+"\n",
		num(g.MarginLeft), num(g.MarginTop), num(g.MarginLeft), num(bottom), p.Axis)
	for tick := range g.YTicks() {
		fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1"/>`+"\n",
			num(g.MarginLeft-5), num(tick.Position), num(g.MarginLeft+5), num(tick.Position), p.Tick)
		fmt.Fprintf(bw, `<text x="%s" y="%s" text-anchor="end" font-size="12" fill="%s">%s</text>`+"\n",
			num(g.MarginLeft-15), num(tick.Position+4), p.Label, tick.Label)
	}
	midY := g.MarginTop + g.PlotHeight()/2
	fmt.Fprintf(bw, `<text x="25" y="%s" text-anchor="middle" font-size="14" fill="%s" transform="rotate(-90, 25, %s)">dB HL</text>`+"\n",
		num(midY), p.Label, num(midY))

	// x axis
	fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="2"/>`+"\n",
		num(g.MarginLeft), num(bottom), num(right), num(bottom), p.Axis)
	for tick := range g.XTicks() {
		fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1"/>`+"\n",
			num(tick.Position), num(bottom-5), num(tick.Position), num(bottom+5), p.Tick)
		fmt.Fprintf(bw, `<text x="%s" y="%s" text-anchor="middle" font-size="12" fill="%s">%s</text>`+"\n",
			num(tick.Position), num(bottom+20), p.Label, tick.Label)
	}

	// grid
	fmt.Fprintf(bw, `<g opacity="%s" stroke="%s" stroke-width="1">`+"\n", num(GridOpacity), p.Grid)
	for tick := range g.YTicks() {
		fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s"/>`+"\n",
			num(g.MarginLeft), num(tick.Position), num(right), num(tick.Position))
	}
	for tick := range g.XTicks() {
		fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s"/>`+"\n",
			num(tick.Position), num(g.MarginTop), num(tick.Position), num(bottom))
	}
	bw.WriteString("</g>\n")

	fmt.Fprintf(bw, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2" data-testid="line-%s-air"/>`+"\n",
		points(g, opts.Data.Air), color, opts.Ear)
	fmt.Fprintf(bw, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2" stroke-dasharray="5,5" data-testid="line-%s-bone"/>`+"\n",
		points(g, opts.Data.Bone), color, opts.Ear)

	for _, c := range []audiogram.Conduction{audiogram.Air, audiogram.Bone} {
		th := opts.Data.Get(c)
		for _, f := range chart.Frequencies() {
			db, _ := th.Get(f)
			writeMarker(bw, opts.Ear, c, f, g.XForFrequency(f), g.YForDb(float64(db)), color, p.MarkerFill, opts.Editing == c)
		}
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writeMarker(w *bufio.Writer, ear audiogram.Ear, c audiogram.Conduction, freq int, x, y float64, color, fill string, editable bool) {
	cursor := "default"
	if editable {
		cursor = "pointer"
	}
	fmt.Fprintf(w, `<g class="chart-marker" cursor="%s" data-testid="marker-%s-%s-%d" data-frequency="%d" data-conduction="%s" data-editable="%t">`,
		cursor, ear, c, freq, freq, c, editable)

	switch {
	case c == audiogram.Air && ear == audiogram.Right:
		fmt.Fprintf(w, `<circle cx="%s" cy="%s" r="6" fill="%s" stroke="%s" stroke-width="2"/>`, num(x), num(y), fill, color)
	case c == audiogram.Air:
		const size = 6
		fmt.Fprintf(w, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="2"/>`,
			num(x-size), num(y-size), num(x+size), num(y+size), color)
		fmt.Fprintf(w, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="2"/>`,
			num(x+size), num(y-size), num(x-size), num(y+size), color)
	default:
		const size = 5
		dir := BoneDirection(ear)
		fmt.Fprintf(w, `<path d="M %s,%s L %s,%s L %s,%s" fill="none" stroke="%s" stroke-width="2"/>`,
			num(x+dir*size), num(y-size), num(x-dir*size), num(y), num(x+dir*size), num(y+size), color)
	}

	fmt.Fprintf(w, `<circle cx="%s" cy="%s" r="%d" fill="transparent"/></g>`+"\n", num(x), num(y), HitRadius)
}

// BoneDirection is -1 for the right ear's "<" glyph and 1 for the left
// ear's ">".
func BoneDirection(ear audiogram.Ear) float64 {
	if ear == audiogram.Left {
		return 1
	}
	return -1
}

func points(g chart.Geometry, th audiogram.Thresholds) string {
	parts := make([]string, 0, chart.NumFrequencies)
	for _, f := range chart.Frequencies() {
		db, _ := th.Get(f)
		parts = append(parts, num(g.XForFrequency(f))+","+num(g.YForDb(float64(db))))
	}
	return strings.Join(parts, " ")
}

func num(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", v), "0"), ".")
}
