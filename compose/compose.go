// Package compose 提供切分结果的简单拼接：横向/纵向堆叠、对齐、边框、缩放与网格排列。
package compose

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Align 表示非堆叠方向上的对齐方式。
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	default:
		return "start"
	}
}

// ParseAlign 接受 start/left/top、center/middle/half、end/right/bottom。
func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "start", "left", "top":
		return AlignStart, nil
	case "center", "middle", "half":
		return AlignCenter, nil
	case "end", "right", "bottom":
		return AlignEnd, nil
	}
	return AlignStart, fmt.Errorf("无法识别的对齐方式 %q", s)
}

// ParseColor 解析 #rgb / #rrggbb 形式的颜色，"transparent" 或 "none" 表示全透明。
func ParseColor(s string) (color.Color, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "transparent", "none":
		return color.Transparent, nil
	case "":
		return nil, fmt.Errorf("颜色为空")
	}
	if !strings.HasPrefix(v, "#") {
		v = "#" + v
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return nil, fmt.Errorf("解析颜色 %q 失败: %w", s, err)
	}
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Options 控制拼接时的对齐、间距与背景。
type Options struct {
	Align      Align
	Gap        int
	Background color.Color // 为空时使用透明
}

func (o Options) background() color.Color {
	if o.Background == nil {
		return color.Transparent
	}
	return o.Background
}

// HStack 从左到右拼接图像，高度取最大值，较矮的图像按 Align 在纵向对齐。
func HStack(images []image.Image, opts Options) *image.NRGBA {
	return stack(images, true, opts)
}

// VStack 从上到下拼接图像，宽度取最大值，较窄的图像按 Align 在横向对齐。
func VStack(images []image.Image, opts Options) *image.NRGBA {
	return stack(images, false, opts)
}

func stack(images []image.Image, horizontal bool, opts Options) *image.NRGBA {
	if len(images) == 0 {
		return &image.NRGBA{}
	}
	gap := max(opts.Gap, 0)
	along, across := 0, 0
	for i, img := range images {
		b := img.Bounds()
		if i > 0 {
			along += gap
		}
		if horizontal {
			along += b.Dx()
			across = max(across, b.Dy())
		} else {
			along += b.Dy()
			across = max(across, b.Dx())
		}
	}
	w, h := along, across
	if !horizontal {
		w, h = across, along
	}
	dst := imaging.New(w, h, opts.background())

	cursor := 0
	for _, img := range images {
		b := img.Bounds()
		var pt image.Point
		if horizontal {
			pt = image.Pt(cursor, alignOffset(across, b.Dy(), opts.Align))
			cursor += b.Dx() + gap
		} else {
			pt = image.Pt(alignOffset(across, b.Dx(), opts.Align), cursor)
			cursor += b.Dy() + gap
		}
		dst = imaging.Paste(dst, img, pt)
	}
	return dst
}

func alignOffset(container, size int, align Align) int {
	switch align {
	case AlignCenter:
		return (container - size) / 2
	case AlignEnd:
		return container - size
	default:
		return 0
	}
}

// Frame 为图像加上宽度为 width 的边框。inner 为 true 时边框画在图像内部、尺寸不变；
// 否则图像四周各扩展 width 像素。
func Frame(img image.Image, width int, c color.Color, inner bool) *image.NRGBA {
	if width <= 0 {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	var dst *image.NRGBA
	if inner {
		dst = imaging.Clone(img)
	} else {
		dst = imaging.New(b.Dx()+2*width, b.Dy()+2*width, color.Transparent)
		dst = imaging.Paste(dst, img, image.Pt(width, width))
	}
	fillBorder(dst, width, c)
	return dst
}

func fillBorder(dst *image.NRGBA, width int, c color.Color) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if y-b.Min.Y < width || b.Max.Y-y <= width || x-b.Min.X < width || b.Max.X-x <= width {
				dst.Set(x, y, c)
			}
		}
	}
}

// Resize 缩放图像；width 或 height 为 0 时按宽高比推导。
func Resize(img image.Image, width, height int) (*image.NRGBA, error) {
	if width < 0 || height < 0 || (width == 0 && height == 0) {
		return nil, fmt.Errorf("缩放尺寸无效: %dx%d", width, height)
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// Scale 按比例缩放图像，factor == 1 时返回拷贝。
func Scale(img image.Image, factor float64) (*image.NRGBA, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("缩放比例无效: %g", factor)
	}
	if factor == 1 {
		return imaging.Clone(img), nil
	}
	b := img.Bounds()
	w := max(int(math.Round(float64(b.Dx())*factor)), 1)
	return Resize(img, w, 0)
}
