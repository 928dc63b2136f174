package export

import (
	"image"
	"image/color"
	"math"
	"strconv"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	fontOnce sync.Once
	fontErr  error
	regular  *opentype.Font

	faceMu sync.Mutex
	faces  = map[float64]font.Face{}
)

// face returns the Go Regular face at size points (72 DPI, so points are
// pixels).
func face(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		regular, fontErr = opentype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fontErr
	}

	faceMu.Lock()
	defer faceMu.Unlock()
	if f, ok := faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(regular, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	faces[size] = f
	return f, nil
}

func hexColor(s string) color.RGBA {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{A: 255}
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// mix blends fg over bg with opacity a.
func mix(fg, bg color.RGBA, a float64) color.RGBA {
	blend := func(f, b uint8) uint8 {
		return uint8(math.Round(float64(f)*a + float64(b)*(1-a)))
	}
	return color.RGBA{R: blend(fg.R, bg.R), G: blend(fg.G, bg.G), B: blend(fg.B, bg.B), A: 255}
}

// canvas draws strokes, shapes and text onto an RGBA image. Coordinates
// are in image pixels.
type canvas struct {
	img *image.RGBA
}

func (c *canvas) fill(r image.Rectangle, col color.RGBA) {
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// dot paints a filled disk of radius r.
func (c *canvas) dot(cx, cy, r float64, col color.RGBA) {
	minX, maxX := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	minY, maxY := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	b := c.img.Bounds()
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if !(image.Point{X: x, Y: y}).In(b) {
				continue
			}
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r*r {
				c.img.SetRGBA(x, y, col)
			}
		}
	}
}

// line strokes a segment of width w.
func (c *canvas) line(x1, y1, x2, y2, w float64, col color.RGBA) {
	length := math.Hypot(x2-x1, y2-y1)
	r := math.Max(w/2, 0.5)
	steps := int(math.Ceil(length / 0.5))
	if steps == 0 {
		c.dot(x1, y1, r, col)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.dot(x1+(x2-x1)*t, y1+(y2-y1)*t, r, col)
	}
}

// polyline strokes connected segments. A non-empty dash pattern of
// alternating on/off lengths is carried across segment joins.
func (c *canvas) polyline(pts [][2]float64, w float64, col color.RGBA, dash []float64) {
	if len(dash) == 0 {
		for i := 1; i < len(pts); i++ {
			c.line(pts[i-1][0], pts[i-1][1], pts[i][0], pts[i][1], w, col)
		}
		return
	}

	idx, remaining, on := 0, dash[0], true
	for i := 1; i < len(pts); i++ {
		x, y := pts[i-1][0], pts[i-1][1]
		ex, ey := pts[i][0], pts[i][1]
		seg := math.Hypot(ex-x, ey-y)
		if seg == 0 {
			continue
		}
		ux, uy := (ex-x)/seg, (ey-y)/seg
		for seg > 0 {
			step := math.Min(seg, remaining)
			nx, ny := x+ux*step, y+uy*step
			if on {
				c.line(x, y, nx, ny, w, col)
			}
			x, y = nx, ny
			seg -= step
			remaining -= step
			if remaining <= 0 {
				idx = (idx + 1) % len(dash)
				remaining = dash[idx]
				on = !on
			}
		}
	}
}

// ring strokes a circle outline of radius r and width w, filling the
// inside with fill.
func (c *canvas) ring(cx, cy, r, w float64, stroke, fill color.RGBA) {
	outer := r + w/2
	inner := r - w/2
	minX, maxX := int(math.Floor(cx-outer)), int(math.Ceil(cx+outer))
	minY, maxY := int(math.Floor(cy-outer)), int(math.Ceil(cy+outer))
	b := c.img.Bounds()
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if !(image.Point{X: x, Y: y}).In(b) {
				continue
			}
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			d := math.Sqrt(dx*dx + dy*dy)
			switch {
			case d <= inner:
				c.img.SetRGBA(x, y, fill)
			case d <= outer:
				c.img.SetRGBA(x, y, stroke)
			}
		}
	}
}

type anchor int

const (
	anchorStart anchor = iota
	anchorMiddle
	anchorEnd
)

// text draws s with its baseline at y, anchored horizontally at x.
func (c *canvas) text(s string, x, y, size float64, col color.RGBA, a anchor) error {
	f, err := face(size)
	if err != nil {
		return err
	}
	d := &font.Drawer{Dst: c.img, Src: image.NewUniform(col), Face: f}
	width := float64(d.MeasureString(s).Ceil())
	switch a {
	case anchorMiddle:
		x -= width / 2
	case anchorEnd:
		x -= width
	}
	d.Dot = fixed.Point26_6{X: fixed.I(int(math.Round(x))), Y: fixed.I(int(math.Round(y)))}
	d.DrawString(s)
	return nil
}

// verticalText draws s rotated -90 degrees, centred on (cx, cy).
func (c *canvas) verticalText(s string, cx, cy, size float64, col, bg color.RGBA) error {
	f, err := face(size)
	if err != nil {
		return err
	}
	m := f.Metrics()
	d := &font.Drawer{Face: f}
	w := d.MeasureString(s).Ceil()
	h := (m.Ascent + m.Descent).Ceil()

	tmp := &canvas{img: image.NewRGBA(image.Rect(0, 0, w, h))}
	tmp.fill(tmp.img.Bounds(), bg)
	if err := tmp.text(s, 0, float64(m.Ascent.Ceil()), size, col, anchorStart); err != nil {
		return err
	}

	// (x, y) in tmp lands at (y, w-1-x) in the rotated block
	ox := int(math.Round(cx)) - h/2
	oy := int(math.Round(cy)) - w/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := image.Point{X: ox + y, Y: oy + w - 1 - x}
			if p.In(c.img.Bounds()) {
				c.img.SetRGBA(p.X, p.Y, tmp.img.RGBAAt(x, y))
			}
		}
	}
	return nil
}
