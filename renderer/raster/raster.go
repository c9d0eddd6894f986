package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/codestrip/fonts"
	"github.com/ByLCY/codestrip/layout"
)

const (
	defaultFontSize = 14.0
	defaultTabWidth = 4
	gutterPadding   = 4
)

// Options 配置文本光栅化。
type Options struct {
	// FontSrc 为空时使用 basicfont 7x13 位图字体；否则见 fonts.Load。
	FontSrc  string
	BaseDir  string
	FontSize float64 // pt
	DPI      float64
	TabWidth int
	// Padding 为图像四周留白（px），LineSpacing 为行间额外间距（px）。
	Padding     int
	LineSpacing int
	LineNumbers bool

	Foreground color.Color
	Background color.Color
	GutterFg   color.Color
	GutterBg   color.Color
}

// Rasterizer 将纯文本渲染为图像，并记录每行像素长度与行几何，实现 layout.Rasterizer。
type Rasterizer struct {
	mu   sync.Mutex // font.Face 不保证并发安全
	face font.Face
	opts Options

	lineHeight int
	ascent     int
	digitWidth int
}

var _ layout.Rasterizer = (*Rasterizer)(nil)

// New 根据 Options 加载字体并创建 Rasterizer。
func New(opts Options) (*Rasterizer, error) {
	opts = withDefaults(opts)
	face, err := loadFace(opts)
	if err != nil {
		return nil, err
	}
	m := face.Metrics()
	r := &Rasterizer{
		face:       face,
		opts:       opts,
		lineHeight: m.Height.Ceil() + opts.LineSpacing,
		ascent:     m.Ascent.Ceil(),
		digitWidth: font.MeasureString(face, "0").Ceil(),
	}
	if r.lineHeight <= 0 {
		return nil, fmt.Errorf("字体行高无效: %d", r.lineHeight)
	}
	return r, nil
}

func withDefaults(opts Options) Options {
	if opts.FontSize <= 0 {
		opts.FontSize = defaultFontSize
	}
	if opts.DPI <= 0 {
		opts.DPI = layout.DefaultDPI
	}
	if opts.TabWidth <= 0 {
		opts.TabWidth = defaultTabWidth
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	if opts.LineSpacing < 0 {
		opts.LineSpacing = 0
	}
	if opts.Foreground == nil {
		opts.Foreground = color.Black
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	if opts.GutterFg == nil {
		opts.GutterFg = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
	}
	if opts.GutterBg == nil {
		opts.GutterBg = color.RGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff}
	}
	return opts
}

func loadFace(opts Options) (font.Face, error) {
	if opts.FontSrc == "" {
		return basicfont.Face7x13, nil
	}
	data, err := fonts.Load(opts.FontSrc, opts.BaseDir)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", opts.FontSrc, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    opts.FontSize,
		DPI:     opts.DPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("创建字体面失败: %w", err)
	}
	return face, nil
}

// Rasterize 实现 layout.Rasterizer。
//
// 末尾的单个换行被忽略；仅含空白的行长度为 0，可作为候选断点。
func (r *Rasterizer) Rasterize(content string) (*layout.Block, error) {
	if !utf8.ValidString(content) {
		return nil, fmt.Errorf("内容不是合法的 UTF-8 文本")
	}
	lines := splitLines(content, r.opts.TabWidth)

	r.mu.Lock()
	defer r.mu.Unlock()

	lengths := make([]int, len(lines))
	maxLength := 0
	for i, line := range lines {
		visible := strings.TrimRight(line, " ")
		if visible == "" {
			continue
		}
		lengths[i] = font.MeasureString(r.face, visible).Ceil()
		maxLength = max(maxLength, lengths[i])
	}

	pad := r.opts.Padding
	gutter := r.gutterWidth(len(lines))
	textX := pad + gutter
	if gutter > 0 {
		textX += gutterPadding
	}
	width := max(textX+maxLength+pad, 1)
	height := 2*pad + len(lines)*r.lineHeight

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.opts.Background), image.Point{}, draw.Src)
	if gutter > 0 {
		draw.Draw(img, image.Rect(0, 0, pad+gutter, height), image.NewUniform(r.opts.GutterBg), image.Point{}, draw.Src)
	}

	geom := layout.FixedGeometry{Top: pad, Height: r.lineHeight}
	d := &font.Drawer{Dst: img, Src: image.NewUniform(r.opts.Foreground), Face: r.face}
	numbers := &font.Drawer{Dst: img, Src: image.NewUniform(r.opts.GutterFg), Face: r.face}
	for i, line := range lines {
		baseline := geom.LineTop(i) + r.ascent
		if gutter > 0 {
			label := strconv.Itoa(i + 1)
			x := pad + gutter - gutterPadding - font.MeasureString(r.face, label).Ceil()
			numbers.Dot = fixed.P(x, baseline)
			numbers.DrawString(label)
		}
		if lengths[i] == 0 {
			continue
		}
		d.Dot = fixed.P(textX, baseline)
		d.DrawString(line)
	}

	return &layout.Block{
		Image:       img,
		LineLengths: lengths,
		Geometry:    geom,
	}, nil
}

// gutterWidth 返回行号栏宽度，未开启行号时为 0。
func (r *Rasterizer) gutterWidth(lines int) int {
	if !r.opts.LineNumbers {
		return 0
	}
	return r.digitWidth*len(strconv.Itoa(lines)) + gutterPadding*2
}

// splitLines 按 \n 拆分内容，去掉 \r 与末尾的单个换行，并展开制表符。
func splitLines(content string, tabWidth int) []string {
	content = strings.ReplaceAll(content, "\r", "")
	content = strings.TrimSuffix(content, "\n")
	raw := strings.Split(content, "\n")
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = expandTabs(line, tabWidth)
	}
	return lines
}

// expandTabs 将制表符展开到下一个 tabWidth 的整数倍列。
func expandTabs(line string, tabWidth int) string {
	if !strings.Contains(line, "\t") {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}
