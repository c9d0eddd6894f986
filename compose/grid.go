package compose

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// GridShape 为 count 张单元尺寸为 unitW×unitH 的图像选择行列数：
// 行数取 count 的因数中最接近 sqrt(count*unitW/unitH) 的一个，使整体接近正方形。
func GridShape(count, unitW, unitH int) (rows, cols int) {
	if count <= 0 {
		return 0, 0
	}
	if unitW <= 0 || unitH <= 0 {
		return 1, count
	}
	ideal := math.Sqrt(float64(count) * float64(unitW) / float64(unitH))
	rows = 1
	best := math.Inf(1)
	for r := 1; r <= count; r++ {
		if count%r != 0 {
			continue
		}
		if d := math.Abs(float64(r) - ideal); d < best {
			best = d
			rows = r
		}
	}
	return rows, count / rows
}

// Grid 将图像按行优先排列为 rows×cols 网格；不足的格子以空白填充。
// 各格子尺寸取所有图像的最大宽高，图像在格内按 opts.Align 对齐。
func Grid(images []image.Image, rows, cols int, opts Options) (*image.NRGBA, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("网格尺寸无效: %dx%d", rows, cols)
	}
	if len(images) > rows*cols {
		return nil, fmt.Errorf("%d 张图像无法放入 %dx%d 网格", len(images), rows, cols)
	}
	cellW, cellH := 0, 0
	for _, img := range images {
		b := img.Bounds()
		cellW = max(cellW, b.Dx())
		cellH = max(cellH, b.Dy())
	}
	blank := imaging.New(max(cellW, 1), max(cellH, 1), opts.background())

	rowImages := make([]image.Image, 0, rows)
	for r := 0; r < rows; r++ {
		cells := make([]image.Image, 0, cols)
		for c := 0; c < cols; c++ {
			idx := r*cols + c
			if idx >= len(images) {
				cells = append(cells, blank)
				continue
			}
			cell := imaging.New(max(cellW, 1), max(cellH, 1), opts.background())
			b := images[idx].Bounds()
			pt := image.Pt(alignOffset(cellW, b.Dx(), opts.Align), 0)
			cells = append(cells, imaging.Paste(cell, images[idx], pt))
		}
		rowImages = append(rowImages, HStack(cells, Options{Gap: opts.Gap, Background: opts.Background}))
	}
	return VStack(rowImages, Options{Gap: opts.Gap, Background: opts.Background}), nil
}
