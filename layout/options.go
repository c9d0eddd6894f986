package layout

import (
	"go.uber.org/zap"

	"github.com/ByLCY/codestrip/partition"
)

// BuildOptions 配置切分阶段所需的参数与依赖。
type BuildOptions struct {
	Segments  int
	Criterion partition.Criterion
	// Planner 为空时使用默认预算创建。
	Planner *partition.Planner
	Logger  *zap.Logger
	Meta    DocumentMeta
}

// Rasterizer 负责将文本渲染为 Block：整幅图像 + 每行像素长度 + 行几何。
type Rasterizer interface {
	Rasterize(content string) (*Block, error)
}
