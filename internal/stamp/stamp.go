// Package stamp draws the round personal seal pasted into attendance sheets.
package stamp

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Ink is the seal color.
var Ink = color.RGBA{R: 0xd7, G: 0x1a, B: 0x1a, A: 0xff}

const (
	marginRatio = 0.1
	borderRatio = 0.03
	minSize     = 32
)

// Generator renders seals with an optional OpenType font.
type Generator struct {
	font *opentype.Font
}

// NewGenerator loads fontPath. An empty path uses the built-in bitmap face,
// which only covers ASCII.
func NewGenerator(fontPath string) (*Generator, error) {
	if fontPath == "" {
		return &Generator{}, nil
	}
	data, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", fontPath, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		// collections such as msmincho.ttc
		coll, cerr := opentype.ParseCollection(data)
		if cerr != nil {
			return nil, fmt.Errorf("parse font %s: %w", fontPath, err)
		}
		if f, err = coll.Font(0); err != nil {
			return nil, fmt.Errorf("parse font %s: %w", fontPath, err)
		}
	}
	return &Generator{font: f}, nil
}

func (g *Generator) face(size float64) (font.Face, error) {
	if g.font == nil {
		return basicfont.Face7x13, nil
	}
	return opentype.NewFace(g.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// Generate draws a size x size seal: a ring split in three bands by two bars,
// label1 on top, label2 in the middle and label3 at the bottom.
func (g *Generator) Generate(label1, label2, label3 string, size int) (image.Image, error) {
	if size < minSize {
		return nil, fmt.Errorf("stamp size %d is smaller than %d", size, minSize)
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	s := float32(size)
	center := s / 2
	radius := s/2 - s*marginRatio/2
	border := s * borderRatio
	if border < 1 {
		border = 1
	}

	r := vector.NewRasterizer(size, size)
	ring(r, center, radius, radius-border)
	for _, y := range []float32{center - radius/3, center + radius/3} {
		bar(r, center, radius-border/2, y, border)
	}
	r.Draw(img, img.Bounds(), image.NewUniform(Ink), image.Point{})

	labels := []struct {
		text  string
		scale float64
		at    float64
	}{
		{label1, 0.45, 1.0 / 6},
		{label2, 0.30, 0.5},
		{label3, 0.45, 5.0 / 6},
	}
	margin := float64(center - radius)
	for _, l := range labels {
		if l.text == "" {
			continue
		}
		face, err := g.face(float64(radius) * l.scale)
		if err != nil {
			return nil, fmt.Errorf("font face: %w", err)
		}
		yMid := margin + 2*float64(radius)*l.at
		drawCentered(img, face, l.text, size, yMid)
	}
	return img, nil
}

// PNG renders the seal and encodes it.
func (g *Generator) PNG(label1, label2, label3 string, size int) ([]byte, error) {
	img, err := g.Generate(label1, label2, label3, size)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode stamp: %w", err)
	}
	return buf.Bytes(), nil
}

// ring adds an annulus; the inner circle is wound the other way.
func ring(r *vector.Rasterizer, c, outer, inner float32) {
	circle(r, c, outer, false)
	circle(r, c, inner, true)
}

func circle(r *vector.Rasterizer, c, radius float32, reverse bool) {
	const steps = 180
	for i := 0; i <= steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		if reverse {
			a = -a
		}
		x := c + radius*float32(math.Cos(a))
		y := c + radius*float32(math.Sin(a))
		if i == 0 {
			r.MoveTo(x, y)
			continue
		}
		r.LineTo(x, y)
	}
	r.ClosePath()
}

// bar adds a horizontal chord of the circle at height y.
func bar(r *vector.Rasterizer, c, radius, y, width float32) {
	dy := float64(y - c)
	half := float32(math.Sqrt(math.Max(float64(radius*radius)-dy*dy, 0)))
	top, bottom := y-width/2, y+width/2
	r.MoveTo(c-half, top)
	r.LineTo(c+half, top)
	r.LineTo(c+half, bottom)
	r.LineTo(c-half, bottom)
	r.ClosePath()
}

func drawCentered(dst draw.Image, face font.Face, text string, size int, yMid float64) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(Ink), Face: face}
	width := d.MeasureString(text).Ceil()
	m := face.Metrics()
	textHeight := (m.Ascent + m.Descent).Ceil()
	baseline := int(yMid) - textHeight/2 + m.Ascent.Ceil()
	d.Dot = fixed.P((size-width)/2, baseline)
	d.DrawString(text)
}
