package renderer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ByLCY/codestrip/layout"
)

// Renderer 将切分结果输出为最终文件，例如 PDF、SVG 或 PNG。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Format 是输出文件格式。
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat 解析格式名称，大小写不敏感，"jpg" 视为 jpeg。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "pdf":
		return FormatPDF, nil
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("不支持的输出格式 %q", s)
}

// FormatFromPath 根据文件扩展名推断格式；无法识别时返回 fallback。
func FormatFromPath(path string, fallback Format) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return fallback
}

// IsVector 报告格式是否由 canvas 渲染器输出。
func (f Format) IsVector() bool { return f == FormatPDF || f == FormatSVG }
