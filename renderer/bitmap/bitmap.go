// Package bitmap 将切分后的各段拼接为一张图像并编码为 PNG 或 JPEG。
package bitmap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"go.uber.org/zap"

	"github.com/ByLCY/codestrip/compose"
	"github.com/ByLCY/codestrip/layout"
	"github.com/ByLCY/codestrip/renderer"
)

// Arrangement 决定各段的排列方式。
type Arrangement string

const (
	ArrangeRow  Arrangement = "row"
	ArrangeGrid Arrangement = "grid"
)

// ParseArrangement 解析 row / grid，空串视为 row。
func ParseArrangement(s string) (Arrangement, error) {
	switch s {
	case "", "row", "hstack":
		return ArrangeRow, nil
	case "grid":
		return ArrangeGrid, nil
	}
	return "", fmt.Errorf("无法识别的排列方式 %q", s)
}

// Options 配置位图输出。
type Options struct {
	Format      renderer.Format // png 或 jpeg，默认 png
	Arrangement Arrangement
	Align       compose.Align
	Gap         int
	Margin      int
	FrameWidth  int
	FrameColor  color.Color
	Background  color.Color
	Quality     int // JPEG 质量，默认 90
	// Scale 按比例缩放整张拼接图，0 或 1 表示不缩放；Width > 0 时改为缩放到该宽度。
	Scale  float64
	Width  int
	Logger *zap.Logger
}

// Renderer 实现 renderer.Renderer。
type Renderer struct {
	opts Options
}

var _ renderer.Renderer = (*Renderer)(nil)

func New(opts Options) *Renderer {
	if opts.Format == "" {
		opts.Format = renderer.FormatPNG
	}
	if opts.Arrangement == "" {
		opts.Arrangement = ArrangeRow
	}
	if opts.FrameColor == nil {
		opts.FrameColor = color.Black
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 90
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Renderer{opts: opts}
}

// Compose 返回拼接后的图像。单段结果即为整幅图像（加上边框与留白）。
func (r *Renderer) Compose(result *layout.Result) (image.Image, error) {
	if result == nil || len(result.Segments) == 0 {
		return nil, fmt.Errorf("缺少可拼接的分段")
	}
	images := result.Images()
	for i, img := range images {
		if img == nil {
			return nil, fmt.Errorf("第 %d 段图像为空", result.Segments[i].Index)
		}
		images[i] = compose.Frame(img, r.opts.FrameWidth, r.opts.FrameColor, false)
	}

	stackOpts := compose.Options{Align: r.opts.Align, Gap: r.opts.Gap, Background: r.opts.Background}
	var sheet image.Image
	switch r.opts.Arrangement {
	case ArrangeRow:
		sheet = compose.HStack(images, stackOpts)
	case ArrangeGrid:
		b := images[0].Bounds()
		rows, cols := compose.GridShape(len(images), b.Dx(), b.Dy())
		grid, err := compose.Grid(images, rows, cols, stackOpts)
		if err != nil {
			return nil, err
		}
		sheet = grid
	default:
		return nil, fmt.Errorf("无法识别的排列方式 %q", r.opts.Arrangement)
	}

	if m := r.opts.Margin; m > 0 {
		sheet = compose.Frame(sheet, m, r.opts.Background, false)
	}
	return r.resize(sheet)
}

func (r *Renderer) resize(sheet image.Image) (image.Image, error) {
	switch {
	case r.opts.Width > 0:
		return compose.Resize(sheet, r.opts.Width, 0)
	case r.opts.Scale > 0 && r.opts.Scale != 1:
		return compose.Scale(sheet, r.opts.Scale)
	}
	return sheet, nil
}

// Render 拼接并编码。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	sheet, err := r.Compose(result)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch r.opts.Format {
	case renderer.FormatPNG:
		err = png.Encode(&buf, sheet)
	case renderer.FormatJPEG:
		err = jpeg.Encode(&buf, sheet, &jpeg.Options{Quality: r.opts.Quality})
	default:
		return nil, fmt.Errorf("位图渲染器不支持格式 %s", r.opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("编码 %s 失败: %w", r.opts.Format, err)
	}
	b := sheet.Bounds()
	r.opts.Logger.Debug("拼接完成",
		zap.String("format", string(r.opts.Format)),
		zap.String("arrangement", string(r.opts.Arrangement)),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()))
	return buf.Bytes(), nil
}
