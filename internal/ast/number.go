package ast

import (
	"strconv"
	"strings"
)

// Number 数字字面量解析结果
type Number struct {
	IsFloat bool
	Int     int64
	Float   float64
}

// Float64 返回数值的浮点形式
func (n Number) Float64() float64 {
	if n.IsFloat {
		return n.Float
	}
	return float64(n.Int)
}

// ParseNumber 解析数字字面量文本
//
// 接受十进制整数、0x/0b/0o 前缀整数、小数和指数形式，允许 _ 分隔符。
// 无法解析（如 "1.2.3" 或超出 int64 范围）时 ok 为 false。
func ParseNumber(text string) (n Number, ok bool) {
	clean := strings.ReplaceAll(text, "_", "")
	if clean == "" {
		return Number{}, false
	}

	if hasBasePrefix(clean) {
		v, err := strconv.ParseInt(clean, 0, 64)
		if err != nil {
			return Number{}, false
		}
		return Number{Int: v}, true
	}

	if strings.ContainsAny(clean, ".eE") {
		v, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return Number{}, false
		}
		return Number{IsFloat: true, Float: v}, true
	}

	v, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return Number{}, false
	}
	return Number{Int: v}, true
}

func hasBasePrefix(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if len(s) < 2 || s[0] != '0' {
		return false
	}
	switch s[1] {
	case 'x', 'X', 'b', 'B', 'o', 'O':
		return true
	}
	return false
}

// Number 解析数字字面量；非数字字面量返回 ok=false
func (l *Literal) Number() (Number, bool) {
	if l.LitKind != NumberLit {
		return Number{}, false
	}
	return ParseNumber(l.Value)
}

// FormatNumber 把数值格式化为字面量文本，ParseNumber 可以原样读回
func FormatNumber(n Number) string {
	if !n.IsFloat {
		return strconv.FormatInt(n.Int, 10)
	}
	s := strconv.FormatFloat(n.Float, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		// 保证浮点数读回时仍是浮点数，如 6 -> 6.0
		s += ".0"
	}
	return s
}
