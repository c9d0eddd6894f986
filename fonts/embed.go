package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// builtin 为内置字体：Go 字体族随 golang.org/x/image 一起分发，无需系统字体。
var builtin = map[string][]byte{
	"gomono":     gomono.TTF,
	"gomonobold": gomonobold.TTF,
	"goregular":  goregular.TTF,
	"gobold":     gobold.TTF,
}

// Builtin 返回所有内置字体名称（已排序）。
func Builtin() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBuiltin 判断 src 是否引用内置字体（builtin:/built-in:/embed: 前缀）。
func IsBuiltin(src string) bool {
	_, ok := trimBuiltin(src)
	return ok
}

// Load 返回字体字节数据。src 可写为 "builtin:gomono"、"embed:gomono"，或文件路径（相对 baseDir）。
func Load(src, baseDir string) ([]byte, error) {
	if name, ok := trimBuiltin(src); ok {
		data, found := builtin[strings.ToLower(name)]
		if !found {
			return nil, fmt.Errorf("找不到内置字体 %s（可用：%s）", name, strings.Join(Builtin(), ", "))
		}
		return data, nil
	}
	if src == "" {
		return nil, fmt.Errorf("字体路径为空")
	}
	path := src
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}

func trimBuiltin(src string) (string, bool) {
	for _, prefix := range []string{"builtin:", "built-in:", "embed:"} {
		if strings.HasPrefix(src, prefix) {
			return strings.TrimPrefix(src, prefix), true
		}
	}
	return "", false
}
