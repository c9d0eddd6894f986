package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for lengths given in config or DSL.

// Unit represents the declared unit of a length value.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, treated as pixels
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
	UnitPX               // device pixels
)

// Conversion constants between pt, mm and inches.
const (
	PtToMm   = 0.352777
	MmToPt   = 1.0 / PtToMm
	InchToMm = 25.4
	// DefaultDPI 是未指定分辨率时像素与物理长度换算使用的 DPI。
	DefaultDPI = 96.0
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	case UnitPX:
		return "px"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToMM converts the length to millimeters; pixel values use dpi.
func (l Length) ToMM(dpi float64) float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * InchToMm
	case UnitPT:
		return l.Value * PtToMm
	default:
		return PxToMm(l.Value, dpi)
	}
}

// ToPx converts the length to device pixels at dpi, rounded to the nearest pixel.
func (l Length) ToPx(dpi float64) int {
	switch l.Unit {
	case UnitNone, UnitPX:
		return int(l.Value + 0.5)
	default:
		return MmToPx(l.ToMM(dpi), dpi)
	}
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + UnitToString(l.Unit)
}

// PxToMm 将像素按 dpi 换算为毫米。
func PxToMm(px, dpi float64) float64 {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return px / dpi * InchToMm
}

// MmToPx 将毫米按 dpi 换算为像素（四舍五入）。
func MmToPx(mm, dpi float64) int {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return int(mm/InchToMm*dpi + 0.5)
}

// ParseLength parses a length string such as "4mm", "12pt" or "8" preserving its unit.
// Invalid input yields a zero length.
func ParseLength(value string) Length {
	v := strings.TrimSpace(value)
	if v == "" {
		return Length{Value: 0, Unit: UnitNone}
	}
	lower := strings.ToLower(v)
	unit := UnitNone
	num := lower
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"px", UnitPX}} {
		if strings.HasSuffix(lower, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(lower, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 {
		return Length{Value: 0, Unit: UnitNone}
	}
	return Length{Value: f, Unit: unit}
}
