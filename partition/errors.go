package partition

import "errors"

// 分割引擎对外暴露的错误哨兵，调用方通过 errors.Is 判断类别。
var (
	// ErrInvalidSegmentCount: 目标分段数 N <= 0。
	ErrInvalidSegmentCount = errors.New("invalid segment count")
	// ErrInvalidCriterion: break criterion 取值非法（负数或无法识别的字符串）。
	ErrInvalidCriterion = errors.New("invalid break criterion")
	// ErrInsufficientCandidates: 候选断点少于 N-1 个。
	ErrInsufficientCandidates = errors.New("insufficient candidate breakpoints")
	// ErrTooFewLines: 行数 L < N，即便均分也无法得到 N 段。
	ErrTooFewLines = errors.New("too few lines")
	// ErrPartitionImpossible: 搜索结束仍未找到合法划分。
	ErrPartitionImpossible = errors.New("partition impossible")
	// ErrSearchBudgetExceeded: 分支定界搜索超出节点预算。
	ErrSearchBudgetExceeded = errors.New("search budget exceeded")
)

// Class 是错误的最小分类，仅用于日志与退出信息。
type Class string

const (
	ClassNone       Class = ""
	ClassConfig     Class = "config"
	ClassInfeasible Class = "infeasible"
	ClassResource   Class = "resource"
	ClassUnknown    Class = "unknown"
)

// Classify 将错误归入配置错误、不可行、资源耗尽三类之一。
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrInvalidSegmentCount), errors.Is(err, ErrInvalidCriterion):
		return ClassConfig
	case errors.Is(err, ErrInsufficientCandidates), errors.Is(err, ErrTooFewLines), errors.Is(err, ErrPartitionImpossible):
		return ClassInfeasible
	case errors.Is(err, ErrSearchBudgetExceeded):
		return ClassResource
	default:
		return ClassUnknown
	}
}
