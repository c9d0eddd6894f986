package partition

import "fmt"

// FindCandidates 扫描 lineLengths，返回允许切分的行号（严格递增）。
//
// runLength == 1 时，任何长度为 0 的行都是候选；runLength > 1 时，候选是
// 至少 runLength 个连续空行的右边缘。长度为 m 的空行段会产生 m-runLength+1 个
// 相互重叠的候选，这里保持不去重。
//
// 行号 0 永远不是候选：在第一行之前切分只会得到一个空段。
// 候选数少于 segments-1 时返回 ErrInsufficientCandidates。
func FindCandidates(lineLengths []int, runLength, segments int) ([]int, error) {
	if runLength < 1 {
		return nil, fmt.Errorf("%w: run length %d", ErrInvalidCriterion, runLength)
	}
	var cands []int
	zeros := 0
	for i, length := range lineLengths {
		if length == 0 {
			zeros++
		} else {
			zeros = 0
		}
		if i == 0 {
			continue
		}
		if zeros >= runLength {
			cands = append(cands, i)
		}
	}
	if len(cands) < segments-1 {
		return nil, fmt.Errorf("%w: run length %d gives %d, need %d", ErrInsufficientCandidates, runLength, len(cands), segments-1)
	}
	return cands, nil
}

// Terms 将候选转换为区间长度：首个候选之前、相邻候选之间、末个候选之后。
// 不变式：sum(terms) == lineCount，且 candidates[t] == sum(terms[:t+1])。
func Terms(candidates []int, lineCount int) []int {
	terms := make([]int, 0, len(candidates)+1)
	prev := 0
	for _, c := range candidates {
		terms = append(terms, c-prev)
		prev = c
	}
	return append(terms, lineCount-prev)
}
