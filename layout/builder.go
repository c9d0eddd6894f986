package layout

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ByLCY/codestrip/partition"
)

// Build 根据渲染块计算切分点并切出 N 段图像。
//
// 失败时不产生任何副作用：Block 中的图像与行数据保持不变。
func Build(block *Block, opts BuildOptions) (*Result, error) {
	if block == nil {
		return nil, fmt.Errorf("渲染块为空")
	}
	if err := validateBlock(block); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	planner := opts.Planner
	if planner == nil {
		planner = partition.NewPlanner(partition.Options{Logger: logger})
	}

	plan, err := planner.Plan(block.LineLengths, opts.Segments, opts.Criterion)
	if err != nil {
		return nil, fmt.Errorf("计算切分点失败: %w", err)
	}

	segments, err := Slice(block.Image, plan.Pivots, block.Geometry)
	if err != nil {
		return nil, fmt.Errorf("切分图像失败: %w", err)
	}
	assignLines(segments, plan.Pivots, block.LineCount())

	logger.Debug("切分完成",
		zap.String("source", block.Source),
		zap.Int("lines", block.LineCount()),
		zap.Int("segments", len(segments)),
		zap.Stringer("strategy", plan.Strategy),
		zap.Ints("pivots", plan.Pivots),
		zap.Float64("cost", plan.Cost))

	bounds := block.Image.Bounds()
	return &Result{
		Segments: segments,
		Plan:     plan,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Lines:    block.LineCount(),
		Source:   block.Source,
		Meta:     opts.Meta,
	}, nil
}

// validateBlock 检查 LineLengths 与几何信息是否能落在图像范围内。
func validateBlock(block *Block) error {
	if block.Image == nil {
		return fmt.Errorf("渲染块缺少图像")
	}
	if block.Geometry == nil {
		return fmt.Errorf("渲染块缺少行几何信息")
	}
	for i, length := range block.LineLengths {
		if length < 0 {
			return fmt.Errorf("第 %d 行长度为负数: %d", i, length)
		}
	}
	if n := block.LineCount(); n > 0 {
		height := block.Image.Bounds().Dy()
		last := block.Geometry.LineTop(n - 1)
		if last < 0 || last >= height {
			return fmt.Errorf("第 %d 行的起始 y=%d 超出图像高度 %d", n-1, last, height)
		}
		if bottom := last + block.Geometry.LineHeight(); bottom > height {
			return fmt.Errorf("第 %d 行的底部 y=%d 超出图像高度 %d", n-1, bottom, height)
		}
	}
	return nil
}

func assignLines(segments []Segment, pivots []int, lines int) {
	first := 0
	for i := range segments {
		end := lines
		if i < len(pivots) {
			end = pivots[i]
		}
		segments[i].FirstLine = first
		segments[i].EndLine = end
		first = end
	}
}
