package partition

import (
	"fmt"
	"strconv"
	"strings"
)

type criterionKind int

const (
	kindAuto criterionKind = iota
	kindRun
	kindUniform
)

// Criterion 描述断点选择策略，是一个封闭的变体：Auto、Run(k)、Uniform。
// 零值即 Auto。
type Criterion struct {
	kind criterionKind
	run  int
}

// Auto 依次尝试 Run(2)、Run(1)，最后回退到 Uniform。
func Auto() Criterion { return Criterion{kind: kindAuto} }

// Uniform 忽略内容，按行数近似均分。
func Uniform() Criterion { return Criterion{kind: kindUniform} }

// Run 要求至少 k 个连续空行才视为候选断点；k == 0 等价于 Uniform。
func Run(k int) Criterion {
	if k == 0 {
		return Uniform()
	}
	return Criterion{kind: kindRun, run: k}
}

func (c Criterion) IsAuto() bool    { return c.kind == kindAuto }
func (c Criterion) IsUniform() bool { return c.kind == kindUniform }

// RunLength 返回 Run(k) 的 k，其余变体返回 0, false。
func (c Criterion) RunLength() (int, bool) {
	if c.kind != kindRun {
		return 0, false
	}
	return c.run, true
}

// Validate 在任何搜索开始前检查取值。
func (c Criterion) Validate() error {
	if c.kind == kindRun && c.run < 1 {
		return fmt.Errorf("%w: run length %d", ErrInvalidCriterion, c.run)
	}
	return nil
}

func (c Criterion) String() string {
	switch c.kind {
	case kindUniform:
		return "uniform"
	case kindRun:
		return strconv.Itoa(c.run)
	default:
		return "auto"
	}
}

// ParseCriterion 解析外部输入："" / "auto" / "none" -> Auto，"uniform" 或 "0" -> Uniform，
// 正整数 k -> Run(k)。
func ParseCriterion(s string) (Criterion, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "auto", "none":
		return Auto(), nil
	case "uniform", "simple":
		return Uniform(), nil
	}
	k, err := strconv.Atoi(v)
	if err != nil || k < 0 {
		return Criterion{}, fmt.Errorf("%w: %q", ErrInvalidCriterion, s)
	}
	return Run(k), nil
}

// MarshalText 便于在 JSON 调试输出中以字符串形式呈现。
func (c Criterion) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Criterion) UnmarshalText(text []byte) error {
	parsed, err := ParseCriterion(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
