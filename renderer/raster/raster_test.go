package raster

import (
	"image/color"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/codestrip/layout"
	"github.com/ByLCY/codestrip/partition"
)

func TestRasterizeLineLengths(t *testing.T) {
	r, err := New(Options{Padding: 10, LineSpacing: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	block, err := r.Rasterize("ab\n\n\tx \n   \n")
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	// basicfont 7x13：每个字符 7px；制表符展开为 4 个空格，行尾空白不计入
	if diff := cmp.Diff([]int{14, 0, 35, 0}, block.LineLengths); diff != "" {
		t.Fatalf("line lengths mismatch (-want +got):\n%s", diff)
	}
	if got := block.Geometry.LineHeight(); got != 15 {
		t.Fatalf("line height: got %d want 15", got)
	}
	b := block.Image.Bounds()
	if b.Dx() != 55 || b.Dy() != 20+4*15 {
		t.Fatalf("image size: got %dx%d", b.Dx(), b.Dy())
	}
	if got := block.Geometry.LineTop(2); got != 40 {
		t.Fatalf("LineTop(2): got %d want 40", got)
	}
}

func TestRasterizeDrawsText(t *testing.T) {
	r, err := New(Options{Padding: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	block, err := r.Rasterize("MMMM\n\nMMMM")
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	countInk := func(top, bottom int) int {
		n := 0
		for y := top; y < bottom; y++ {
			for x := 0; x < block.Image.Bounds().Dx(); x++ {
				if c := color.GrayModel.Convert(block.Image.At(x, y)).(color.Gray); c.Y < 128 {
					n++
				}
			}
		}
		return n
	}
	g := block.Geometry
	if countInk(g.LineTop(0), g.LineTop(1)) == 0 {
		t.Fatalf("expected ink on first line")
	}
	if countInk(g.LineTop(1), g.LineTop(2)) != 0 {
		t.Fatalf("expected blank second line")
	}
}

func TestRasterizeLineNumbers(t *testing.T) {
	r, err := New(Options{Padding: 10, LineNumbers: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	block, err := r.Rasterize("ab\n\n    x")
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	// 行号栏不计入行长度
	if diff := cmp.Diff([]int{14, 0, 35}, block.LineLengths); diff != "" {
		t.Fatalf("line lengths mismatch (-want +got):\n%s", diff)
	}
	// 10 + (7*1+8) + 4 + 35 + 10
	if w := block.Image.Bounds().Dx(); w != 74 {
		t.Fatalf("width: got %d want 74", w)
	}
}

func TestRasterizeWithBuiltinFont(t *testing.T) {
	r, err := New(Options{FontSrc: "builtin:gomono", FontSize: 12, DPI: 96})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	block, err := r.Rasterize("func main() {\n}\n\nvar x = 1\n")
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	if len(block.LineLengths) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(block.LineLengths))
	}
	if block.LineLengths[0] <= block.LineLengths[1] || block.LineLengths[2] != 0 {
		t.Fatalf("unexpected lengths: %v", block.LineLengths)
	}
}

func TestRasterizeRejectsUnknownFont(t *testing.T) {
	if _, err := New(Options{FontSrc: "builtin:nope"}); err == nil {
		t.Fatalf("expected error for unknown font")
	}
}

func TestRasterizedBlockSplitsOnBlankLines(t *testing.T) {
	src := strings.Join([]string{
		"import os",
		"",
		"",
		"def a():",
		"    return 1",
		"",
		"",
		"def b():",
		"    return 2",
		"",
		"",
		"def c():",
		"    return 3",
	}, "\n")
	r, err := New(Options{Padding: 6})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	block, err := r.Rasterize(src)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	res, err := layout.Build(block, layout.BuildOptions{Segments: 3, Criterion: partition.Auto()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Plan.Strategy != partition.Run(2) {
		t.Fatalf("expected run 2 strategy, got %s", res.Plan.Strategy)
	}
	// 每个切分点落在两个连续空行中的第二行
	if diff := cmp.Diff([]int{6, 10}, res.Plan.Pivots); diff != "" {
		t.Fatalf("pivots mismatch (-want +got):\n%s", diff)
	}
}

func TestTransparentBackgroundSegmentsTileExactly(t *testing.T) {
	r, err := New(Options{Padding: 2, Background: color.Transparent})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	block, err := r.Rasterize("fmt.Println(1)\n\nfmt.Println(2)\n\nfmt.Println(3)")
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	res, err := layout.Build(block, layout.BuildOptions{Segments: 3, Criterion: partition.Run(1)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	src := block.Image.Bounds()
	y := 0
	for _, seg := range res.Segments {
		b := seg.Image.Bounds()
		for sy := 0; sy < b.Dy(); sy++ {
			for x := 0; x < b.Dx(); x++ {
				want := color.RGBA64Model.Convert(block.Image.At(src.Min.X+x, src.Min.Y+y+sy))
				got := color.RGBA64Model.Convert(seg.Image.At(b.Min.X+x, b.Min.Y+sy))
				if want != got {
					t.Fatalf("segment %d pixel (%d,%d): want %v got %v", seg.Index, x, sy, want, got)
				}
			}
		}
		y += b.Dy()
	}
	if y != src.Dy() {
		t.Fatalf("segments cover %d rows, want %d", y, src.Dy())
	}
}
