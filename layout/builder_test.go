package layout

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/codestrip/partition"
)

// stripeBlock 构造测试用渲染块：每行一条高度为 lineHeight 的色带，非空行颜色随行号变化。
func stripeBlock(lengths []int, lineHeight, pad int) *Block {
	width := 16
	height := 2*pad + len(lengths)*lineHeight
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	for i, length := range lengths {
		if length == 0 {
			continue
		}
		shade := uint8(20 + (i*37)%200)
		top := pad + i*lineHeight
		for y := top; y < top+lineHeight; y++ {
			for x := 0; x < length && x < width; x++ {
				img.Set(x, y, color.RGBA{R: shade, G: shade / 2, B: 255 - shade, A: 255})
			}
		}
	}
	return &Block{
		Image:       img,
		LineLengths: lengths,
		Geometry:    FixedGeometry{Top: pad, Height: lineHeight},
		Source:      "stripes",
	}
}

// restack 将各段首尾相接，用于验证平铺不变式。RGBA64 可无损容纳任意颜色。
func restack(t *testing.T, segments []Segment, width, height int) *image.RGBA64 {
	t.Helper()
	out := image.NewRGBA64(image.Rect(0, 0, width, height))
	y := 0
	for _, seg := range segments {
		b := seg.Image.Bounds()
		if b.Dx() != width {
			t.Fatalf("segment %d width %d != %d", seg.Index, b.Dx(), width)
		}
		for sy := 0; sy < b.Dy(); sy++ {
			for x := 0; x < width; x++ {
				out.Set(x, y+sy, seg.Image.At(b.Min.X+x, b.Min.Y+sy))
			}
		}
		y += b.Dy()
	}
	if y != height {
		t.Fatalf("segments cover %d rows, want %d", y, height)
	}
	return out
}

func assertSameImage(t *testing.T, want image.Image, got image.Image) {
	t.Helper()
	wb, gb := want.Bounds(), got.Bounds()
	if wb.Dx() != gb.Dx() || wb.Dy() != gb.Dy() {
		t.Fatalf("size mismatch: want %v got %v", wb, gb)
	}
	for y := 0; y < wb.Dy(); y++ {
		for x := 0; x < wb.Dx(); x++ {
			w := color.RGBA64Model.Convert(want.At(wb.Min.X+x, wb.Min.Y+y))
			g := color.RGBA64Model.Convert(got.At(gb.Min.X+x, gb.Min.Y+y))
			if w != g {
				t.Fatalf("pixel (%d,%d) mismatch: want %v got %v", x, y, w, g)
			}
		}
	}
}

func TestBuildTilingLaw(t *testing.T) {
	lengths := []int{5, 0, 0, 3, 4, 0, 0, 0, 2, 1, 7, 0, 3}
	criteria := []partition.Criterion{partition.Auto(), partition.Uniform(), partition.Run(1), partition.Run(2)}
	for _, c := range criteria {
		for n := 1; n <= 3; n++ {
			block := stripeBlock(lengths, 6, 4)
			res, err := Build(block, BuildOptions{Segments: n, Criterion: c})
			if err != nil {
				t.Fatalf("criterion=%s n=%d: %v", c, n, err)
			}
			if len(res.Segments) != n {
				t.Fatalf("criterion=%s n=%d: got %d segments", c, n, len(res.Segments))
			}
			b := block.Image.Bounds()
			assertSameImage(t, block.Image, restack(t, res.Segments, b.Dx(), b.Dy()))
		}
	}
}

func TestSliceKeepsTranslucentPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 10, G: 3, B: 7, A: 20})
		}
	}
	img.SetRGBA(1, 3, color.RGBA{R: 1, G: 0, B: 2, A: 3})

	segments, err := Slice(img, []int{2}, FixedGeometry{Height: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, seg := range segments {
		if _, ok := seg.Image.(*image.RGBA); !ok {
			t.Fatalf("segment %d: got %T, want *image.RGBA", seg.Index, seg.Image)
		}
	}
	assertSameImage(t, img, restack(t, segments, 4, 4))

	nrgba := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := range nrgba.Pix {
		nrgba.Pix[i] = uint8(i * 7)
	}
	segments, err = Slice(nrgba, []int{1, 3}, FixedGeometry{Height: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSameImage(t, nrgba, restack(t, segments, 4, 4))
}

func TestBuildSegmentsTrackLines(t *testing.T) {
	block := stripeBlock([]int{5, 0, 0, 3, 4, 0, 0, 0, 2, 1}, 10, 2)
	res, err := Build(block, BuildOptions{Segments: 2, Criterion: partition.Run(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	type span struct{ First, End, Top, Bottom int }
	var got []span
	for _, seg := range res.Segments {
		got = append(got, span{seg.FirstLine, seg.EndLine, seg.Top, seg.Bottom})
	}
	want := []span{
		{0, 6, 0, 62},
		{6, 10, 62, 104},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}
	if res.Lines != 10 || res.Height != 104 {
		t.Fatalf("unexpected result size: lines=%d height=%d", res.Lines, res.Height)
	}
}

func TestBuildDoesNotMutateSource(t *testing.T) {
	block := stripeBlock([]int{3, 0, 3, 0, 3}, 4, 1)
	before := image.NewRGBA(block.Image.Bounds())
	copy(before.Pix, block.Image.(*image.RGBA).Pix)

	res, err := Build(block, BuildOptions{Segments: 3, Criterion: partition.Run(1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 修改输出段不应影响源图像
	seg := res.Segments[0].Image.(*image.RGBA)
	for i := range seg.Pix {
		seg.Pix[i] = 0
	}
	assertSameImage(t, before, block.Image)
}

func TestBuildPropagatesPartitionErrors(t *testing.T) {
	block := stripeBlock([]int{1, 1, 1}, 4, 0)
	_, err := Build(block, BuildOptions{Segments: 3, Criterion: partition.Run(1)})
	if !errors.Is(err, partition.ErrInsufficientCandidates) {
		t.Fatalf("expected ErrInsufficientCandidates, got %v", err)
	}

	_, err = Build(stripeBlock([]int{1, 1}, 4, 0), BuildOptions{Segments: 5, Criterion: partition.Uniform()})
	if !errors.Is(err, partition.ErrTooFewLines) {
		t.Fatalf("expected ErrTooFewLines, got %v", err)
	}
}

func TestBuildRejectsInconsistentBlock(t *testing.T) {
	block := stripeBlock([]int{1, 0, 1}, 4, 0)
	block.Geometry = FixedGeometry{Top: 0, Height: 40}
	if _, err := Build(block, BuildOptions{Segments: 2}); err == nil {
		t.Fatalf("expected error for geometry outside image")
	}
	block = stripeBlock([]int{1, 0, 1}, 4, 0)
	block.Geometry = FixedGeometry{Top: 0, Height: 5}
	if _, err := Build(block, BuildOptions{Segments: 2}); err == nil {
		t.Fatalf("expected error for last line overflowing the image")
	}
	if _, err := Build(nil, BuildOptions{Segments: 2}); err == nil {
		t.Fatalf("expected error for nil block")
	}
}

func TestSliceRejectsNonIncreasingPivots(t *testing.T) {
	block := stripeBlock([]int{1, 0, 1, 0, 1}, 4, 0)
	if _, err := Slice(block.Image, []int{3, 1}, block.Geometry); !errors.Is(err, ErrInvalidPivots) {
		t.Fatalf("expected ErrInvalidPivots, got %v", err)
	}
	if _, err := Slice(block.Image, []int{9}, block.Geometry); !errors.Is(err, ErrInvalidPivots) {
		t.Fatalf("expected ErrInvalidPivots for out-of-range pivot, got %v", err)
	}
}

func TestSliceHandlesOffsetBounds(t *testing.T) {
	block := stripeBlock([]int{2, 0, 2, 0, 2}, 5, 0)
	sub := block.Image.(*image.RGBA).SubImage(image.Rect(0, 0, 16, 25)).(*image.RGBA)
	shifted := &image.RGBA{Pix: sub.Pix, Stride: sub.Stride, Rect: sub.Rect.Add(image.Pt(3, 7))}

	segments, err := Slice(shifted, []int{1, 3}, block.Geometry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSameImage(t, shifted, restack(t, segments, 16, 25))
}

func TestWriteDebugJSON(t *testing.T) {
	block := stripeBlock([]int{5, 0, 0, 3, 4, 0, 0, 0, 2, 1}, 10, 2)
	res, err := Build(block, BuildOptions{Segments: 2, Criterion: partition.Run(2)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "debug.json")
	if err := WriteDebugJSON(res, path); err != nil {
		t.Fatalf("WriteDebugJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read debug json: %v", err)
	}
	for _, want := range []string{`"pivots": [`, `"strategy": "2"`, `"summary"`, `"lineCount": 6`, `"height": 62`} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("debug json missing %s:\n%s", want, data)
		}
	}
}
