package layout

// 该文件定义渲染块、切分结果与元信息，供布局计算、渲染与调试 JSON 共用。

import (
	"image"

	"github.com/ByLCY/codestrip/partition"
)

// Block 是一次转换请求的输入：渲染好的整幅图像，以及每一行的像素长度与纵向位置。
// Block 在构建后只读，后续阶段不会修改 Image。
type Block struct {
	Image       image.Image
	LineLengths []int
	Geometry    LineGeometry
	// Source 为可选的来源描述（文件名等），仅用于日志与调试输出。
	Source string
}

// LineCount 返回行数 L。
func (b *Block) LineCount() int { return len(b.LineLengths) }

// LineGeometry 将行号映射到图像中的像素坐标（相对图像顶部）。
type LineGeometry interface {
	LineTop(line int) int
	LineHeight() int
}

// FixedGeometry 是等行高的几何描述：LineTop(i) = Top + i*Height。
type FixedGeometry struct {
	Top    int `json:"top"`
	Height int `json:"height"`
}

func (g FixedGeometry) LineTop(line int) int { return g.Top + line*g.Height }
func (g FixedGeometry) LineHeight() int      { return g.Height }

// Result 保存切分后的各段图像与计算过程。
type Result struct {
	Segments []Segment       `json:"segments"`
	Plan     *partition.Plan `json:"plan"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Lines    int             `json:"lines"`
	Source   string          `json:"source,omitempty"`
	Meta     DocumentMeta    `json:"meta"`
}

// Images 按顺序返回各段图像。
func (r *Result) Images() []image.Image {
	out := make([]image.Image, len(r.Segments))
	for i, seg := range r.Segments {
		out[i] = seg.Image
	}
	return out
}

// Segment 是源图像上的半开像素行区间 [Top, Bottom)，以及它覆盖的行 [FirstLine, EndLine)。
type Segment struct {
	Index     int         `json:"index"`
	FirstLine int         `json:"firstLine"`
	EndLine   int         `json:"endLine"`
	Top       int         `json:"top"`
	Bottom    int         `json:"bottom"`
	Image     image.Image `json:"-"`
}

// Height 返回该段像素高度。
func (s Segment) Height() int { return s.Bottom - s.Top }

// DocumentMeta 保存导出文件（PDF 等）的元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
