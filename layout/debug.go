package layout

import (
	"encoding/json"
	"fmt"
	"os"
)

// debugSegment 是调试 JSON 中单段的摘要。
type debugSegment struct {
	Index     int    `json:"index"`
	Lines     [2]int `json:"lines"` // [first, end)
	Rows      [2]int `json:"rows"`  // [top, bottom)
	Height    int    `json:"height"`
	LineCount int    `json:"lineCount"`
}

type debugReport struct {
	*Result
	Summary []debugSegment `json:"summary"`
}

// WriteDebugJSON 将切分方案与各段像素区间输出为 JSON，便于调试或可视化。
func WriteDebugJSON(res *Result, path string) error {
	if res == nil {
		return nil
	}
	report := debugReport{Result: res, Summary: make([]debugSegment, 0, len(res.Segments))}
	for _, seg := range res.Segments {
		report.Summary = append(report.Summary, debugSegment{
			Index:     seg.Index,
			Lines:     [2]int{seg.FirstLine, seg.EndLine},
			Rows:      [2]int{seg.Top, seg.Bottom},
			Height:    seg.Height(),
			LineCount: seg.EndLine - seg.FirstLine,
		})
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化调试信息失败: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
