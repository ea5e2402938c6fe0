// Package snapshot rasterises the annotations of one surface to an image,
// for reports and for checking placements without a GPU.
package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/gekko3d/roomview/viewrt/store"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	Background = color.NRGBA{R: 217, G: 230, B: 242, A: 255}
	LabelColor = color.NRGBA{R: 33, G: 33, B: 33, A: 255}
)

// Fill returns the semi-transparent fill of an annotation type.
func Fill(t store.AnnotationType) color.NRGBA {
	switch t {
	case store.SprayArea:
		return color.NRGBA{R: 255, A: 128}
	case store.SandArea:
		return color.NRGBA{R: 255, G: 255, A: 128}
	case store.Obstacle:
		return color.NRGBA{R: 255, G: 128, A: 128}
	}
	return color.NRGBA{R: 128, G: 128, B: 128, A: 128}
}

// TextColor keeps labels readable on their fill.
func TextColor(t store.AnnotationType) color.Color {
	if t == store.SandArea {
		return color.Black
	}
	return color.White
}

type Renderer struct {
	Face font.Face
}

// NewRenderer draws labels with face, or the built-in 7x13 face when nil.
func NewRenderer(face font.Face) *Renderer {
	if face == nil {
		face = basicfont.Face7x13
	}
	return &Renderer{Face: face}
}

// LoadFace reads a TrueType or OpenType font for labels.
func LoadFace(path string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	return face, nil
}

// Render draws the annotations that belong to surface onto a width x height
// image. Normalized y = 0 is the bottom row, matching the surface mapping.
// Annotations on other surfaces are skipped.
func (r *Renderer) Render(surface core.Surface, anns []store.Annotation, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	// Oldest first so newer annotations paint on top.
	for i := len(anns) - 1; i >= 0; i-- {
		a := anns[i]
		if a.Surface != surface {
			continue
		}
		rect := PixelRect(a, width, height)
		if rect.Empty() {
			continue
		}
		draw.Draw(img, rect, image.NewUniform(Fill(a.Type)), image.Point{}, draw.Over)
		r.drawCentered(img, rect, a.Type.Label(), TextColor(a.Type))
	}

	r.drawText(img, image.Pt(4, 4), surface.Label(), LabelColor)
	return img
}

// PixelRect converts an annotation's normalized rectangle to image pixels,
// clipped to the image. Edges round to the nearest pixel.
func PixelRect(a store.Annotation, width, height int) image.Rectangle {
	w, h := float64(width), float64(height)
	px, py := float64(a.Position.X()), float64(a.Position.Y())
	sx, sy := float64(a.Size.X()), float64(a.Size.Y())

	x0 := int(math.Round(px * w))
	x1 := int(math.Round((px + sx) * w))
	y0 := int(math.Round((1 - py - sy) * h))
	y1 := int(math.Round((1 - py) * h))
	return image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, width, height))
}

func (r *Renderer) drawCentered(img draw.Image, rect image.Rectangle, text string, c color.Color) {
	adv := font.MeasureString(r.Face, text).Ceil()
	m := r.Face.Metrics()
	th := (m.Ascent + m.Descent).Ceil()
	if adv > rect.Dx() || th > rect.Dy() {
		return
	}
	at := image.Pt(rect.Min.X+(rect.Dx()-adv)/2, rect.Min.Y+(rect.Dy()-th)/2)
	r.drawText(img, at, text, c)
}

// drawText places the top-left of the text box at p.
func (r *Renderer) drawText(img draw.Image, p image.Point, text string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: r.Face,
		Dot:  fixed.Point26_6{X: fixed.I(p.X), Y: fixed.I(p.Y) + r.Face.Metrics().Ascent},
	}
	d.DrawString(text)
}

func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func WritePNGFile(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
