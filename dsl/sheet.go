package dsl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SheetKeys 是 sheet / defaults 中允许出现的属性。
var SheetKeys = []string{
	"source", "segments", "break", "output", "format",
	"font", "font-size", "dpi", "tab-width", "line-numbers", "line-spacing", "padding",
	"foreground", "background", "gap", "margin", "frame", "frame-color",
	"layout", "align", "scale", "width", "debug",
}

// MetaKeys 是 meta 中允许出现的属性。
var MetaKeys = []string{"title", "author", "subject", "creator", "keywords"}

// Properties 是一个块中键到值的映射。
type Properties map[string]*Value

// Sheet 是合并了 defaults 之后的单个 sheet。
type Sheet struct {
	Name  string
	Props Properties
}

// Properties 将块转换为映射；重复或未知的键返回错误。
func (b *Block) Properties(allowed []string) (Properties, error) {
	props := Properties{}
	if b == nil {
		return props, nil
	}
	for _, entry := range b.Entries {
		if !contains(allowed, entry.Key) {
			return nil, fmt.Errorf("%s: 未知属性 %q", entry.Pos, entry.Key)
		}
		if _, dup := props[entry.Key]; dup {
			return nil, fmt.Errorf("%s: 属性 %q 重复定义", entry.Pos, entry.Key)
		}
		props[entry.Key] = entry.Value
	}
	return props, nil
}

// Meta 返回 meta 段的属性，未定义时为空映射。
func (d *Document) Meta() (Properties, error) {
	var meta *Block
	for _, sec := range d.Sections {
		if sec.Meta == nil {
			continue
		}
		if meta != nil {
			return nil, fmt.Errorf("meta 段只能出现一次")
		}
		meta = sec.Meta.Block
	}
	return meta.Properties(MetaKeys)
}

// Sheets 返回文档中的所有 sheet，按出现顺序；每个 sheet 继承 defaults 中未覆盖的属性。
func (d *Document) Sheets() ([]Sheet, error) {
	var defaults Properties
	for _, sec := range d.Sections {
		if sec.Defaults == nil {
			continue
		}
		if defaults != nil {
			return nil, fmt.Errorf("defaults 段只能出现一次")
		}
		props, err := sec.Defaults.Block.Properties(SheetKeys)
		if err != nil {
			return nil, err
		}
		defaults = props
	}

	var sheets []Sheet
	seen := map[string]bool{}
	for _, sec := range d.Sections {
		if sec.Sheet == nil {
			continue
		}
		name := sec.Sheet.Name
		if seen[name] {
			return nil, fmt.Errorf("%s: sheet %q 重复定义", sec.Sheet.Pos, name)
		}
		seen[name] = true
		props, err := sec.Sheet.Block.Properties(SheetKeys)
		if err != nil {
			return nil, err
		}
		for k, v := range defaults {
			if _, ok := props[k]; !ok {
				props[k] = v
			}
		}
		if _, ok := props["source"]; !ok {
			return nil, fmt.Errorf("%s: sheet %q 缺少 source", sec.Sheet.Pos, name)
		}
		sheets = append(sheets, Sheet{Name: name, Props: props})
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("任务 %s 未定义任何 sheet", d.Name)
	}
	return sheets, nil
}

// Keys 返回排序后的键列表。
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String 返回键对应的文本值，不存在时返回 fallback。
func (p Properties) String(key, fallback string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback
	}
	return v.Text()
}

// Int 返回键对应的整数值。
func (p Properties) Int(key string, fallback int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback, nil
	}
	n, err := v.Int()
	if err != nil {
		return 0, fmt.Errorf("属性 %s: %w", key, err)
	}
	return n, nil
}

// Float 返回键对应的浮点值，单位后缀被忽略。
func (p Properties) Float(key string, fallback float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback, nil
	}
	f, err := v.Float()
	if err != nil {
		return 0, fmt.Errorf("属性 %s: %w", key, err)
	}
	return f, nil
}

// Bool 返回键对应的布尔值。
func (p Properties) Bool(key string, fallback bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v.Text())
	if err != nil {
		return false, fmt.Errorf("属性 %s: 无法解析布尔值 %q", key, v.Text())
	}
	return b, nil
}

// Strings 返回数组值；单个值视为只有一个元素的数组。
func (p Properties) Strings(key string) []string {
	v, ok := p[key]
	if !ok || v == nil {
		return nil
	}
	if v.Array == nil {
		return []string{v.Text()}
	}
	out := make([]string, 0, len(v.Array.Values))
	for _, item := range v.Array.Values {
		out = append(out, item.Text())
	}
	return out
}

// Text 返回值的文本形式：字符串去引号，其余为原始记号。
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	case v.Array != nil:
		parts := make([]string, len(v.Array.Values))
		for i, item := range v.Array.Values {
			parts[i] = item.Text()
		}
		return strings.Join(parts, ",")
	}
	return ""
}

// Int 解析整数值，不允许单位后缀。
func (v *Value) Int() (int, error) {
	n, err := strconv.Atoi(v.Text())
	if err != nil {
		return 0, fmt.Errorf("无法解析整数 %q", v.Text())
	}
	return n, nil
}

// Float 解析数值，去掉单位后缀。
func (v *Value) Float() (float64, error) {
	raw := strings.TrimRight(v.Text(), "abcdefghijklmnopqrstuvwxyz")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析数值 %q", v.Text())
	}
	return f, nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
