package partition

import (
	"fmt"
	"math"
)

// DefaultSearchBudget 是分支定界默认允许访问的节点数。
const DefaultSearchBudget = 4_000_000

// Solution 是 Solve 的结果。
type Solution struct {
	// Boundaries 是 terms 上的 N-1 个切分位置，terms[0:b0]、terms[b0:b1]… 各成一组。
	Boundaries []int
	// Cost 是最差一组的代价 |sum(group) - L/N|。
	Cost float64
	// Visited 是实际访问的搜索节点数。
	Visited int
}

// solver 持有一次搜索的全部可变状态，仅由单个调用独占。
type solver struct {
	terms   []int
	suffix  []int // suffix[i] = sum(terms[i:])
	target  float64
	budget  int
	visited int

	bestCost  float64
	best      []int
	found     bool
	boundary  []int
	exhausted bool
}

// Solve 将 terms 划分为 groups 个连续非空组，最小化最差组的代价。
//
// 搜索按切分位置从小到大进行；代价相等时后找到的解替换先找到的解（<=），
// 剪枝使用 >=，因此结果对相同输入是确定的。budget <= 0 时使用 DefaultSearchBudget。
func Solve(terms []int, groups, budget int) (Solution, error) {
	if groups <= 0 {
		return Solution{}, fmt.Errorf("%w: %d", ErrInvalidSegmentCount, groups)
	}
	if len(terms) < groups {
		return Solution{}, fmt.Errorf("%w: %d terms for %d groups", ErrPartitionImpossible, len(terms), groups)
	}
	if budget <= 0 {
		budget = DefaultSearchBudget
	}

	suffix := make([]int, len(terms)+1)
	for i := len(terms) - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + terms[i]
	}
	total := suffix[0]

	s := &solver{
		terms:    terms,
		suffix:   suffix,
		target:   float64(total) / float64(groups),
		budget:   budget,
		bestCost: float64(total),
		boundary: make([]int, 0, groups-1),
	}
	s.search(0, groups, 0)

	if s.exhausted {
		return Solution{Visited: s.visited}, fmt.Errorf("%w: visited %d nodes", ErrSearchBudgetExceeded, s.visited)
	}
	if !s.found {
		return Solution{Visited: s.visited}, fmt.Errorf("%w: %d terms for %d groups", ErrPartitionImpossible, len(terms), groups)
	}
	return Solution{Boundaries: s.best, Cost: s.bestCost, Visited: s.visited}, nil
}

func (s *solver) cost(sum int) float64 {
	return math.Abs(float64(sum) - s.target)
}

// search 从 terms[c] 开始，用剩余 remain 组覆盖余下的 terms；running 为已闭合组中的最大代价。
func (s *solver) search(c, remain int, running float64) {
	if s.exhausted {
		return
	}
	s.visited++
	if s.visited > s.budget {
		s.exhausted = true
		return
	}

	if remain == 1 {
		worst := math.Max(running, s.cost(s.suffix[c]))
		if worst <= s.bestCost {
			s.bestCost = worst
			s.best = append(make([]int, 0, len(s.boundary)), s.boundary...)
			s.found = true
		}
		return
	}

	// 每组至少一个 term，因此最后一个可选切分位置要为剩余的 remain-1 组留足空间。
	last := len(s.terms) - remain + 1
	for next := c + 1; next <= last; next++ {
		worst := math.Max(running, s.cost(s.suffix[c]-s.suffix[next]))
		if worst >= s.bestCost {
			continue
		}
		s.boundary = append(s.boundary, next)
		s.search(next, remain-1, worst)
		s.boundary = s.boundary[:len(s.boundary)-1]
		if s.exhausted {
			return
		}
	}
}
