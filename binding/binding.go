package binding

import (
	"fmt"
	"regexp"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Vars 是模板变量，值可以是嵌套的 Vars / map[string]any。
type Vars map[string]any

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		path, ok := placeholderPath(match)
		if !ok {
			return match
		}
		if val, ok := resolvePath(data, path); ok {
			return format(val)
		}
		return match
	})
}

// Placeholders 按出现顺序返回文本中的占位符路径（去重）。
func Placeholders(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, groups := range exprPattern.FindAllStringSubmatch(text, -1) {
		path := strings.TrimSpace(groups[1])
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out
}

// Missing 返回在 data 中无法解析的占位符路径。
func Missing(text string, data any) []string {
	var out []string
	for _, path := range Placeholders(text) {
		if _, ok := resolvePath(data, path); !ok {
			out = append(out, path)
		}
	}
	return out
}

func placeholderPath(match string) (string, bool) {
	groups := exprPattern.FindStringSubmatch(match)
	if len(groups) < 2 {
		return "", false
	}
	path := strings.TrimSpace(groups[1])
	return path, path != ""
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		var ok bool
		current, ok = descendMap(current, strings.TrimSpace(segment))
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case Vars:
		val, ok := c[key]
		return val, ok
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func format(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprint(int64(v))
		}
	}
	return fmt.Sprint(val)
}
