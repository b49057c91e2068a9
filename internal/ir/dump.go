package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/segmentio/encoding/json"
)

// ============================================================================
// IR 打印器
// ============================================================================

// Dump 返回模块的调试文本，格式不保证稳定
func (m *Module) Dump() string {
	var sb strings.Builder
	sb.WriteString("=== IR Module ===\n")
	sb.WriteString("Entry point: " + m.EntryPoint + "\n")

	for _, f := range m.Functions {
		sb.WriteString("\n")
		f.dump(&sb)
	}

	if len(m.Globals) > 0 {
		sb.WriteString("\nGlobals:\n")
		for _, g := range m.Globals {
			fmt.Fprintf(&sb, "  %s -> local %d\n", g.Name, g.Slot.Index)
		}
	}

	if len(m.StringLiterals) > 0 {
		sb.WriteString("\nString literals:\n")
		for i, s := range m.StringLiterals {
			fmt.Fprintf(&sb, "  [%d] %s\n", i, strconv.Quote(s))
		}
	}
	return sb.String()
}

// Dump 返回单个函数的调试文本
func (f *Function) Dump() string {
	var sb strings.Builder
	f.dump(&sb)
	return sb.String()
}

func (f *Function) dump(sb *strings.Builder) {
	sb.WriteString("Function: " + f.Name + "\n")
	if len(f.Params) > 0 {
		params := make([]string, len(f.Params))
		for i, p := range f.Params {
			params[i] = fmt.Sprintf("%s %s", p, p.Name)
		}
		sb.WriteString("  Params: " + strings.Join(params, ", ") + "\n")
	}
	fmt.Fprintf(sb, "  Locals: %d\n", f.LocalCount)
	fmt.Fprintf(sb, "  Registers: %d\n", f.RegisterCount)
	sb.WriteString("  Instructions:\n")
	for _, inst := range f.Instructions {
		sb.WriteString("    " + inst.String() + "\n")
	}
}

// Listing 返回函数的指令文本，每条指令一行
func (f *Function) Listing() []string {
	out := make([]string, len(f.Instructions))
	for i, inst := range f.Instructions {
		out[i] = inst.String()
	}
	return out
}

// ============================================================================
// JSON
// ============================================================================

type jsonValue struct {
	Kind  ValueKind `json:"kind"`
	Int   int64     `json:"int,omitempty"`
	Float float64   `json:"float,omitempty"`
	Text  string    `json:"text,omitempty"`
	Name  string    `json:"name,omitempty"`
	Index *int      `json:"index,omitempty"`
	Type  *Type     `json:"type,omitempty"`
}

// MarshalText 以种类名序列化
func (k ValueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MarshalJSON 只输出该种类用到的字段
func (v Value) MarshalJSON() ([]byte, error) {
	out := jsonValue{Kind: v.Kind}
	switch v.Kind {
	case IntConstKind:
		out.Int = v.Int
	case FloatConstKind:
		out.Float = v.Float
	case StringConstKind:
		out.Text = v.Name
		out.Index = &v.Index
	case RegisterKind:
		out.Index = &v.Index
		out.Type = &v.Type
		out.Name = v.Name
	case LabelKind:
		out.Name = v.Name
	case LocalKind:
		out.Index = &v.Index
		out.Name = v.Name
	}
	return json.Marshal(out)
}

// MarshalJSON 序列化整个模块
func (m *Module) MarshalJSON() ([]byte, error) {
	type plain Module
	return json.Marshal((*plain)(m))
}

// JSON 返回缩进后的 JSON 文本
func (m *Module) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}
