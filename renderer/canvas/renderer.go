package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/svg"
	"go.uber.org/zap"

	"github.com/ByLCY/codestrip/layout"
	"github.com/ByLCY/codestrip/renderer"
)

// Renderer draws segments side by side on a single page via github.com/tdewolff/canvas.
type Renderer struct {
	opts Options
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer. 长度均以像素给出，按 DPI 换算为毫米。
type Options struct {
	Format     renderer.Format // pdf 或 svg，默认 pdf
	DPI        float64
	Margin     int
	Gap        int
	FrameWidth int
	FrameColor color.Color
	Background color.Color // 为空时不绘制背景
	Logger     *zap.Logger
}

// NewRenderer creates a PDF renderer with default options.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with the given options.
func NewRendererWithOptions(opts Options) *Renderer {
	if opts.Format == "" {
		opts.Format = renderer.FormatPDF
	}
	if opts.DPI <= 0 {
		opts.DPI = layout.DefaultDPI
	}
	if opts.FrameColor == nil {
		opts.FrameColor = canvas.Black
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Renderer{opts: opts}
}

// sheet 是页面上各段的摆放位置（mm，左上角为原点）。
type sheet struct {
	Width, Height float64
	X, Y          []float64
}

func (r *Renderer) arrange(result *layout.Result) sheet {
	dpi := r.opts.DPI
	frame := max(r.opts.FrameWidth, 0)
	margin := max(r.opts.Margin, 0)
	gap := max(r.opts.Gap, 0)

	s := sheet{X: make([]float64, len(result.Segments)), Y: make([]float64, len(result.Segments))}
	x, tallest := margin, 0
	for i, seg := range result.Segments {
		if i > 0 {
			x += gap
		}
		b := seg.Image.Bounds()
		s.X[i] = layout.PxToMm(float64(x+frame), dpi)
		s.Y[i] = layout.PxToMm(float64(margin+frame), dpi)
		x += b.Dx() + 2*frame
		tallest = max(tallest, b.Dy()+2*frame)
	}
	s.Width = layout.PxToMm(float64(x+margin), dpi)
	s.Height = layout.PxToMm(float64(tallest+2*margin), dpi)
	return s
}

// Render renders the segments into a PDF or SVG byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Segments) == 0 {
		return nil, fmt.Errorf("缺少可渲染的分段")
	}
	for _, seg := range result.Segments {
		if seg.Image == nil || seg.Image.Bounds().Empty() {
			return nil, fmt.Errorf("第 %d 段图像为空", seg.Index)
		}
	}

	s := r.arrange(result)
	c := canvas.New(s.Width, s.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与图像保持左上角为原点

	if r.opts.Background != nil {
		ctx.SetFillColor(r.opts.Background)
		ctx.SetStrokeColor(canvas.Transparent)
		ctx.DrawPath(0, 0, canvas.Rectangle(s.Width, s.Height))
	}
	r.drawSegments(ctx, result, s)

	var buf bytes.Buffer
	switch r.opts.Format {
	case renderer.FormatPDF:
		writer := pdf.New(&buf, s.Width, s.Height, nil)
		applyMeta(writer, result.Meta)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	case renderer.FormatSVG:
		writer := svg.New(&buf, s.Width, s.Height, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 SVG 失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("canvas 渲染器不支持格式 %s", r.opts.Format)
	}

	r.opts.Logger.Debug("渲染完成",
		zap.String("format", string(r.opts.Format)),
		zap.Int("segments", len(result.Segments)),
		zap.Float64("widthMM", s.Width),
		zap.Float64("heightMM", s.Height),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// RenderTo 渲染并写入 w。
func (r *Renderer) RenderTo(w io.Writer, result *layout.Result) error {
	data, err := r.Render(result)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (r *Renderer) drawSegments(ctx *canvas.Context, result *layout.Result, s sheet) {
	dpmm := canvas.DPMM(r.opts.DPI / layout.InchToMm)
	frame := float64(max(r.opts.FrameWidth, 0))
	for i, seg := range result.Segments {
		ctx.DrawImage(s.X[i], s.Y[i], seg.Image, dpmm)
		if frame <= 0 {
			continue
		}
		b := seg.Image.Bounds()
		w := layout.PxToMm(frame, r.opts.DPI)
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(r.opts.FrameColor)
		ctx.SetStrokeWidth(w)
		ctx.DrawPath(s.X[i]-w/2, s.Y[i]-w/2, canvas.Rectangle(
			layout.PxToMm(float64(b.Dx()), r.opts.DPI)+w,
			layout.PxToMm(float64(b.Dy()), r.opts.DPI)+w,
		))
	}
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}
