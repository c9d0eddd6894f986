package layout

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// ErrInvalidPivots 表示切分点不递增或超出图像范围。
var ErrInvalidPivots = errors.New("invalid pivots")

// Slice 按 pivots 将图像纵向切成 len(pivots)+1 段。
//
// 每个 pivot 对应的 y 为 geom.LineTop(pivot)，第 k 段为 [y_{k-1}, y_k)，最后一段延伸到图像底部。
// 各段图像是独立拷贝，源图像不会被修改；首尾相接可逐像素还原源图像。
func Slice(img image.Image, pivots []int, geom LineGeometry) ([]Segment, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: 图像为空", ErrInvalidPivots)
	}
	if len(pivots) > 0 && geom == nil {
		return nil, fmt.Errorf("%w: 缺少行几何信息", ErrInvalidPivots)
	}
	bounds := img.Bounds()
	height := bounds.Dy()

	segments := make([]Segment, 0, len(pivots)+1)
	currentY := 0
	for i, p := range pivots {
		y := geom.LineTop(p)
		if y <= currentY || y >= height {
			return nil, fmt.Errorf("%w: pivot %d (line %d) maps to y=%d outside (%d, %d)", ErrInvalidPivots, i, p, y, currentY, height)
		}
		segments = append(segments, crop(img, len(segments), currentY, y))
		currentY = y
	}
	segments = append(segments, crop(img, len(segments), currentY, height))
	return segments, nil
}

func crop(img image.Image, index, top, bottom int) Segment {
	b := img.Bounds()
	rect := image.Rect(b.Min.X, b.Min.Y+top, b.Max.X, b.Min.Y+bottom)
	return Segment{
		Index:  index,
		Top:    top,
		Bottom: bottom,
		Image:  cropCopy(img, rect),
	}
}

// cropCopy 拷贝 rect 区域。预乘 alpha 与 16 位的源图像保持原类型，其余经 imaging.Crop 转为 NRGBA。
func cropCopy(img image.Image, rect image.Rectangle) image.Image {
	var dst draw.Image
	switch img.(type) {
	case *image.RGBA:
		dst = image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	case *image.RGBA64:
		dst = image.NewRGBA64(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	case *image.NRGBA64:
		dst = image.NewNRGBA64(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	case *image.Gray16:
		dst = image.NewGray16(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	default:
		return imaging.Crop(img, rect)
	}
	draw.Draw(dst, dst.Bounds(), img, rect.Min, draw.Src)
	return dst
}
