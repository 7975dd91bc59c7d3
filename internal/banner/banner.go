// Package banner renders the fallback warning image attached to new decoy channels.
package banner

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

type Options struct {
	Scale      int
	Padding    int
	Background color.Color
	Foreground color.Color
}

func DefaultOptions() Options {
	return Options{
		Scale:      4,
		Padding:    8,
		Background: color.RGBA{R: 0xCC, A: 0xFF},
		Foreground: color.White,
	}
}

// Render draws lines centred on a solid background and returns the PNG encoding.
// basicfont only covers ASCII, so lines should stay ASCII.
func Render(lines []string, opts Options) ([]byte, error) {
	if len(lines) == 0 {
		return nil, errors.New("banner: no text")
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}

	face := basicfont.Face7x13
	lineHeight := face.Metrics().Height.Ceil()
	width := 0
	for _, line := range lines {
		if w := font.MeasureString(face, line).Ceil(); w > width {
			width = w
		}
	}
	width += 2 * opts.Padding
	height := len(lines)*lineHeight + 2*opts.Padding

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	drawer := &font.Drawer{Dst: small, Src: image.NewUniform(opts.Foreground), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	for i, line := range lines {
		w := font.MeasureString(face, line).Ceil()
		x := (width - w) / 2
		y := opts.Padding + i*lineHeight + ascent
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}

	out := image.NewRGBA(image.Rect(0, 0, width*opts.Scale, height*opts.Scale))
	draw.NearestNeighbor.Scale(out, out.Bounds(), small, small.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
