package snapshot

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/gekko3d/roomview/viewrt/core"
	"github.com/gekko3d/roomview/viewrt/store"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ann(t store.AnnotationType, s core.Surface, pos, size mgl32.Vec2) store.Annotation {
	return store.Annotation{ID: uuid.New(), Type: t, Surface: s, Position: pos, Size: size}
}

func rgba(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestPixelRectFlipsY(t *testing.T) {
	a := ann(store.SprayArea, core.Floor, mgl32.Vec2{0, 0}, mgl32.Vec2{0.5, 0.25})
	assert.Equal(t, image.Rect(0, 150, 100, 200), PixelRect(a, 200, 200))

	// clipped to the image
	a = ann(store.SprayArea, core.Floor, mgl32.Vec2{0.9, 0.9}, mgl32.Vec2{0.5, 0.5})
	assert.Equal(t, image.Rect(180, 0, 200, 20), PixelRect(a, 200, 200))
}

func TestPixelRectRoundsEdges(t *testing.T) {
	tests := []struct {
		pos, size mgl32.Vec2
		w, h      int
		want      image.Rectangle
	}{
		// 1-0.1-0.6 is just under 0.3 in float32
		{mgl32.Vec2{0.3, 0.1}, mgl32.Vec2{0.6, 0.6}, 300, 100, image.Rect(90, 30, 270, 90)},
		{mgl32.Vec2{0.1, 0.2}, mgl32.Vec2{0.7, 0.7}, 10, 10, image.Rect(1, 1, 8, 8)},
		{mgl32.Vec2{0.33, 0.33}, mgl32.Vec2{0.33, 0.33}, 100, 100, image.Rect(33, 34, 66, 67)},
	}

	for _, tc := range tests {
		got := PixelRect(ann(store.SandArea, core.Floor, tc.pos, tc.size), tc.w, tc.h)
		if got != tc.want {
			t.Errorf("pos %v size %v in %dx%d: expected %v, got %v", tc.pos, tc.size, tc.w, tc.h, tc.want, got)
		}
	}
}

func TestRenderFillsSurfaceAnnotations(t *testing.T) {
	r := NewRenderer(nil)
	anns := []store.Annotation{
		ann(store.SprayArea, core.BackWall, mgl32.Vec2{0, 0}, mgl32.Vec2{0.5, 0.5}),
		ann(store.SandArea, core.Floor, mgl32.Vec2{0, 0}, mgl32.Vec2{1, 1}),
	}
	img := r.Render(core.BackWall, anns, 200, 200)

	// bottom-left quadrant, away from the label
	red := rgba(img, 5, 195)
	assert.Greater(t, int(red.R), int(red.G)+50, "spray fill should be red, got %v", red)
	assert.Greater(t, int(red.R), int(red.B)+50, "spray fill should be red, got %v", red)

	// top-right corner is untouched background; the floor annotation is not drawn
	bg := rgba(img, 195, 5)
	assert.Equal(t, color.RGBA{R: 217, G: 230, B: 242, A: 255}, bg)
}

func TestRenderNewestOnTop(t *testing.T) {
	r := NewRenderer(nil)
	full := mgl32.Vec2{1, 1}
	// newest first, as the store returns them
	anns := []store.Annotation{
		ann(store.SandArea, core.Ceiling, mgl32.Vec2{}, full),
		ann(store.SprayArea, core.Ceiling, mgl32.Vec2{}, full),
	}
	img := r.Render(core.Ceiling, anns, 100, 100)

	// yellow over red keeps a strong green channel
	p := rgba(img, 95, 95)
	assert.Greater(t, int(p.G), 150, "got %v", p)
}

func TestRenderDrawsLabels(t *testing.T) {
	r := NewRenderer(nil)
	plain := r.Render(core.LeftWall, nil, 300, 100)

	// the surface label darkens pixels in the top-left
	dark := false
	for y := 0; y < 20 && !dark; y++ {
		for x := 0; x < 100; x++ {
			if plain.RGBAAt(x, y).R < 100 {
				dark = true
				break
			}
		}
	}
	assert.True(t, dark, "surface label not drawn")

	img := r.Render(core.LeftWall, []store.Annotation{
		ann(store.Obstacle, core.LeftWall, mgl32.Vec2{0.3, 0.1}, mgl32.Vec2{0.6, 0.6}),
	}, 300, 100)
	rect := image.Rect(90, 30, 270, 90)
	require.Equal(t, rect, PixelRect(ann(store.Obstacle, core.LeftWall, mgl32.Vec2{0.3, 0.1}, mgl32.Vec2{0.6, 0.6}), 300, 100))

	// orange fill has a low blue channel; white label text does not
	white := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if img.RGBAAt(x, y).B > 200 {
				white++
			}
		}
	}
	assert.Greater(t, white, 0, "annotation label not drawn")
}

func TestWritePNG(t *testing.T) {
	img := NewRenderer(nil).Render(core.Floor, nil, 64, 32)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 32), decoded.Bounds())

	path := filepath.Join(t.TempDir(), "floor.png")
	require.NoError(t, WritePNGFile(path, img))
}

func TestLoadFaceMissingFile(t *testing.T) {
	_, err := LoadFace(filepath.Join(t.TempDir(), "none.ttf"), 12)
	assert.Error(t, err)
}
