package partition

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// autoRuns 是 Auto 策略依次尝试的空行连续长度，全部失败后回退到 Uniform。
var autoRuns = []int{2, 1}

// Options 配置 Planner。
type Options struct {
	// SearchBudget 是分支定界允许访问的节点数，<= 0 使用 DefaultSearchBudget。
	SearchBudget int
	Logger       *zap.Logger
}

// Plan 记录一次分割计算的完整结果，便于调试输出。
type Plan struct {
	Pivots     []int     `json:"pivots"`
	Strategy   Criterion `json:"strategy"` // 实际生效的策略（Auto 会被解析为 Run(k) 或 Uniform）
	Candidates []int     `json:"candidates,omitempty"`
	Terms      []int     `json:"terms,omitempty"`
	Boundaries []int     `json:"boundaries,omitempty"`
	Cost       float64   `json:"cost"`
	Visited    int       `json:"visited,omitempty"`
}

// Planner 组合 FindCandidates、Solve 与回退级联，计算最终切分行号。
// Planner 不持有跨调用的可变状态，可被多个 goroutine 共享。
type Planner struct {
	budget int
	logger *zap.Logger
}

// NewPlanner 创建 Planner。
func NewPlanner(opts Options) *Planner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{budget: opts.SearchBudget, logger: logger}
}

// ComputePivots 使用默认选项计算 N-1 个切分行号。
func ComputePivots(lineLengths []int, segments int, c Criterion) ([]int, error) {
	plan, err := NewPlanner(Options{}).Plan(lineLengths, segments, c)
	if err != nil {
		return nil, err
	}
	return plan.Pivots, nil
}

// Plan 按 criterion 计算切分方案。
//
// 返回的 Pivots 长度为 segments-1，严格递增且位于 (0, L) 内。
func (p *Planner) Plan(lineLengths []int, segments int, c Criterion) (*Plan, error) {
	if segments <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSegmentCount, segments)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if segments == 1 {
		if len(lineLengths) == 0 {
			return nil, fmt.Errorf("%w: 0 lines for 1 segment", ErrTooFewLines)
		}
		return &Plan{Pivots: []int{}, Strategy: c}, nil
	}

	switch {
	case c.IsUniform():
		return uniformPlan(len(lineLengths), segments)
	case c.IsAuto():
		return p.auto(lineLengths, segments)
	default:
		k, _ := c.RunLength()
		return p.emptyRun(lineLengths, segments, k)
	}
}

func (p *Planner) auto(lineLengths []int, segments int) (*Plan, error) {
	for _, k := range autoRuns {
		plan, err := p.emptyRun(lineLengths, segments, k)
		if err == nil {
			return plan, nil
		}
		if !errors.Is(err, ErrInsufficientCandidates) {
			return nil, err
		}
		p.logger.Debug("空行候选不足，放宽条件",
			zap.Int("runLength", k),
			zap.Int("segments", segments),
			zap.Error(err))
	}
	p.logger.Debug("回退到均分", zap.Int("lines", len(lineLengths)), zap.Int("segments", segments))
	return uniformPlan(len(lineLengths), segments)
}

func (p *Planner) emptyRun(lineLengths []int, segments, runLength int) (*Plan, error) {
	cands, err := FindCandidates(lineLengths, runLength, segments)
	if err != nil {
		return nil, err
	}
	terms := Terms(cands, len(lineLengths))
	sol, err := Solve(terms, segments, p.budget)
	if err != nil {
		if errors.Is(err, ErrSearchBudgetExceeded) {
			p.logger.Warn("分割搜索超出预算",
				zap.Int("candidates", len(cands)),
				zap.Int("segments", segments),
				zap.Int("visited", sol.Visited))
		}
		return nil, err
	}

	// candidates[t] == sum(terms[:t+1])，因此 terms 上的切分位置 b 对应行号 candidates[b-1]。
	pivots := make([]int, len(sol.Boundaries))
	for i, b := range sol.Boundaries {
		pivots[i] = cands[b-1]
	}
	return &Plan{
		Pivots:     pivots,
		Strategy:   Run(runLength),
		Candidates: cands,
		Terms:      terms,
		Boundaries: sol.Boundaries,
		Cost:       sol.Cost,
		Visited:    sol.Visited,
	}, nil
}

// UniformPivots 将 lines 行分成 segments 个近似等长的连续块；前 lines%segments 块各多一行。
func UniformPivots(lines, segments int) ([]int, error) {
	if segments <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSegmentCount, segments)
	}
	if lines < segments {
		return nil, fmt.Errorf("%w: %d lines for %d segments", ErrTooFewLines, lines, segments)
	}
	base, extra := lines/segments, lines%segments
	pivots := make([]int, 0, segments-1)
	current := 0
	for i := 0; i < segments-1; i++ {
		current += base
		if i < extra {
			current++
		}
		pivots = append(pivots, current)
	}
	return pivots, nil
}

func uniformPlan(lines, segments int) (*Plan, error) {
	pivots, err := UniformPivots(lines, segments)
	if err != nil {
		return nil, err
	}
	target := float64(lines) / float64(segments)
	base := float64(lines / segments)
	cost := 0.0
	if lines%segments != 0 {
		cost = math.Max(base+1-target, target-base)
	}
	return &Plan{Pivots: pivots, Strategy: Uniform(), Cost: cost}, nil
}
