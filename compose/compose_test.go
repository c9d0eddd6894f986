package compose

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.NRGBA{R: 0xff, A: 0xff}
	blue = color.NRGBA{B: 0xff, A: 0xff}
)

func solid(w, h int, c color.Color) image.Image {
	return imaging.New(w, h, c)
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff0000")
	require.NoError(t, err)
	assert.Equal(t, red, c)

	c, err = ParseColor("00f")
	require.NoError(t, err)
	assert.Equal(t, blue, c)

	c, err = ParseColor("Transparent")
	require.NoError(t, err)
	assert.Equal(t, color.Transparent, c)

	_, err = ParseColor("#zzz")
	assert.Error(t, err)
	_, err = ParseColor("")
	assert.Error(t, err)
}

func TestParseAlign(t *testing.T) {
	cases := map[string]Align{
		"":       AlignStart,
		"left":   AlignStart,
		"middle": AlignCenter,
		"half":   AlignCenter,
		"Bottom": AlignEnd,
	}
	for in, want := range cases {
		got, err := ParseAlign(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseAlign("diagonal")
	assert.Error(t, err)
}

func TestHStackAlignsAcross(t *testing.T) {
	out := HStack([]image.Image{solid(10, 5, red), solid(4, 8, blue)}, Options{Gap: 2, Align: AlignEnd})
	require.Equal(t, image.Rect(0, 0, 16, 8), out.Bounds())

	assert.Equal(t, uint8(0), nrgbaAt(out, 0, 0).A, "above the shorter image stays transparent")
	assert.Equal(t, red, nrgbaAt(out, 0, 3))
	assert.Equal(t, uint8(0), nrgbaAt(out, 10, 4).A, "gap")
	assert.Equal(t, blue, nrgbaAt(out, 12, 0))
}

func TestVStackCenter(t *testing.T) {
	out := VStack([]image.Image{solid(10, 3, red), solid(4, 2, blue)}, Options{Align: AlignCenter, Background: color.White})
	require.Equal(t, image.Rect(0, 0, 10, 5), out.Bounds())

	assert.Equal(t, red, nrgbaAt(out, 9, 2))
	assert.Equal(t, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, nrgbaAt(out, 0, 4))
	assert.Equal(t, blue, nrgbaAt(out, 3, 4))
	assert.Equal(t, blue, nrgbaAt(out, 6, 3))
}

func TestStackEmpty(t *testing.T) {
	assert.True(t, HStack(nil, Options{}).Bounds().Empty())
}

func TestFrame(t *testing.T) {
	outer := Frame(solid(4, 4, red), 1, blue, false)
	require.Equal(t, image.Rect(0, 0, 6, 6), outer.Bounds())
	assert.Equal(t, blue, nrgbaAt(outer, 0, 0))
	assert.Equal(t, blue, nrgbaAt(outer, 5, 3))
	assert.Equal(t, red, nrgbaAt(outer, 1, 1))
	assert.Equal(t, red, nrgbaAt(outer, 4, 4))

	inner := Frame(solid(4, 4, red), 1, blue, true)
	require.Equal(t, image.Rect(0, 0, 4, 4), inner.Bounds())
	assert.Equal(t, blue, nrgbaAt(inner, 3, 0))
	assert.Equal(t, red, nrgbaAt(inner, 1, 2))
}

func TestResizeKeepsAspect(t *testing.T) {
	out, err := Resize(solid(20, 10, red), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, out.Bounds().Dx())
	assert.Equal(t, 5, out.Bounds().Dy())

	_, err = Resize(solid(20, 10, red), 0, 0)
	assert.Error(t, err)

	scaled, err := Scale(solid(20, 10, red), 0.5)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 5), scaled.Bounds())
}

func TestGridShape(t *testing.T) {
	tests := []struct {
		count, w, h int
		rows, cols  int
	}{
		{4, 10, 10, 2, 2},
		{6, 10, 40, 1, 6},
		{3, 100, 20, 3, 1},
		{7, 10, 10, 1, 7},
		{0, 10, 10, 0, 0},
	}
	for _, tt := range tests {
		rows, cols := GridShape(tt.count, tt.w, tt.h)
		assert.Equal(t, tt.rows, rows, "rows for %+v", tt)
		assert.Equal(t, tt.cols, cols, "cols for %+v", tt)
	}
}

func TestGrid(t *testing.T) {
	imgs := []image.Image{solid(4, 4, red), solid(4, 2, blue), solid(2, 4, red)}
	out, err := Grid(imgs, 2, 2, Options{Gap: 1})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 9, 9), out.Bounds())

	assert.Equal(t, blue, nrgbaAt(out, 5, 0))
	assert.Equal(t, uint8(0), nrgbaAt(out, 5, 3).A, "short cell padding")
	assert.Equal(t, red, nrgbaAt(out, 0, 5))
	assert.Equal(t, uint8(0), nrgbaAt(out, 7, 7).A, "empty cell")

	_, err = Grid(imgs, 1, 2, Options{})
	assert.Error(t, err)
}
