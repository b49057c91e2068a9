package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tangzhangming/sub/internal/ast"
)

// ============================================================================
// 操作码
// ============================================================================

// Opcode IR 操作码
type Opcode int

const (
	OpNop Opcode = iota

	// 存储
	OpAlloc      // 分配局部槽位 (dest: Local)
	OpLoad       // 读局部变量 (dest: Register, src1: Local)
	OpStore      // 写变量 (dest: Local 或 Label, src1: Register)
	OpLoadGlobal // 读当前函数不可见的名称 (dest: Register, src1: Label)

	// 常量
	OpConstInt
	OpConstFloat
	OpConstString

	// 算术运算
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	// 比较运算
	OpCmpEq
	OpCmpNe
	OpCmpLt
	OpCmpLe
	OpCmpGt
	OpCmpGe

	// 逻辑运算
	OpAnd
	OpOr

	// 调用
	OpPrint  // 输出 src1
	OpCall   // dest = src1(Args...)
	OpReturn // 返回 src1，可省略

	// 控制流
	OpLabel       // 标签 (src1: Label)
	OpJump        // 无条件跳转 (src1: Label)
	OpJumpIfFalse // src1 为假时跳转到 src2
)

var opNames = map[Opcode]string{
	OpNop:         "NOP",
	OpAlloc:       "ALLOC",
	OpLoad:        "LOAD",
	OpStore:       "STORE",
	OpLoadGlobal:  "LOAD_GLOBAL",
	OpConstInt:    "CONST_INT",
	OpConstFloat:  "CONST_FLOAT",
	OpConstString: "CONST_STRING",
	OpAdd:         "ADD",
	OpSub:         "SUB",
	OpMul:         "MUL",
	OpDiv:         "DIV",
	OpMod:         "MOD",
	OpCmpEq:       "CMP_EQ",
	OpCmpNe:       "CMP_NE",
	OpCmpLt:       "CMP_LT",
	OpCmpLe:       "CMP_LE",
	OpCmpGt:       "CMP_GT",
	OpCmpGe:       "CMP_GE",
	OpAnd:         "AND",
	OpOr:          "OR",
	OpPrint:       "PRINT",
	OpCall:        "CALL",
	OpReturn:      "RETURN",
	OpLabel:       "LABEL",
	OpJump:        "JUMP",
	OpJumpIfFalse: "JUMP_IF_FALSE",
}

func (op Opcode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(op))
}

// MarshalText 以助记符序列化
func (op Opcode) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// binaryOps 运算符到操作码的映射
var binaryOps = map[string]Opcode{
	"+":  OpAdd,
	"-":  OpSub,
	"*":  OpMul,
	"/":  OpDiv,
	"%":  OpMod,
	"==": OpCmpEq,
	"!=": OpCmpNe,
	"<":  OpCmpLt,
	"<=": OpCmpLe,
	">":  OpCmpGt,
	">=": OpCmpGe,
	"&&": OpAnd,
	"||": OpOr,
}

// ============================================================================
// 类型
// ============================================================================

// Type IR 值类型
type Type int

const (
	Void Type = iota
	Int
	Float
	String
	Bool
)

var typeNames = [...]string{
	Void:   "void",
	Int:    "int",
	Float:  "float",
	String: "string",
	Bool:   "bool",
}

func (t Type) String() string {
	if int(t) >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// MarshalText 以类型名序列化
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// TypeOf 把语法树类型映射到 IR 类型，未确定的类型按 Int 处理
func TypeOf(t ast.DataType) Type {
	switch t {
	case ast.Float:
		return Float
	case ast.String:
		return String
	case ast.Bool:
		return Bool
	case ast.Void:
		return Void
	}
	return Int
}

// ============================================================================
// 值
// ============================================================================

// ValueKind 值种类
type ValueKind int

const (
	IntConstKind ValueKind = iota
	FloatConstKind
	StringConstKind
	RegisterKind
	LabelKind
	LocalKind
)

var valueKindNames = [...]string{
	IntConstKind:    "int",
	FloatConstKind:  "float",
	StringConstKind: "string",
	RegisterKind:    "register",
	LabelKind:       "label",
	LocalKind:       "local",
}

func (k ValueKind) String() string {
	if int(k) >= 0 && int(k) < len(valueKindNames) {
		return valueKindNames[k]
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// Value 指令操作数
//
// 各字段按 Kind 解释：
//   - IntConst: Int
//   - FloatConst: Float
//   - StringConst: Name 为文本，Index 为字符串池下标
//   - Register: Index 为寄存器编号，Type 为值类型，Name 为调试名
//   - Label: Name 为标签名或函数名
//   - Local: Index 为槽位编号，Name 为变量名
type Value struct {
	Kind  ValueKind
	Int   int64
	Float float64
	Name  string
	Index int
	Type  Type
}

// IntConst 整数常量
func IntConst(v int64) Value {
	return Value{Kind: IntConstKind, Int: v, Type: Int}
}

// FloatConst 浮点常量
func FloatConst(v float64) Value {
	return Value{Kind: FloatConstKind, Float: v, Type: Float}
}

// StringConst 字符串常量，index 为模块字符串池下标
func StringConst(text string, index int) Value {
	return Value{Kind: StringConstKind, Name: text, Index: index, Type: String}
}

// Register 虚拟寄存器
func Register(n int, t Type, name string) Value {
	return Value{Kind: RegisterKind, Index: n, Type: t, Name: name}
}

// Label 跳转目标或被调函数名
func Label(name string) Value {
	return Value{Kind: LabelKind, Name: name}
}

// Local 局部变量槽位
func Local(slot int, name string) Value {
	return Value{Kind: LocalKind, Index: slot, Name: name}
}

// IsRegister 判断是否为寄存器
func (v Value) IsRegister() bool {
	return v.Kind == RegisterKind
}

func (v Value) String() string {
	switch v.Kind {
	case IntConstKind:
		return strconv.FormatInt(v.Int, 10)
	case FloatConstKind:
		return ast.FormatNumber(ast.Number{IsFloat: true, Float: v.Float})
	case StringConstKind:
		return strconv.Quote(v.Name)
	case RegisterKind:
		return fmt.Sprintf("r%d", v.Index)
	case LabelKind:
		return v.Name
	case LocalKind:
		if v.Name == "" {
			return fmt.Sprintf("slot%d", v.Index)
		}
		return v.Name
	}
	return "?"
}

func valuePtr(v Value) *Value {
	return &v
}

// ============================================================================
// 指令
// ============================================================================

// Instruction IR 指令
type Instruction struct {
	Op      Opcode  `json:"op"`
	Dest    *Value  `json:"dest,omitempty"`
	Src1    *Value  `json:"src1,omitempty"`
	Src2    *Value  `json:"src2,omitempty"`
	Args    []Value `json:"args,omitempty"` // 调用实参
	Comment string  `json:"comment,omitempty"`
}

// String 返回指令的文本形式，如 "ADD r2, r0, r1"
func (inst *Instruction) String() string {
	var operands []string
	for _, v := range []*Value{inst.Dest, inst.Src1, inst.Src2} {
		if v != nil {
			operands = append(operands, v.String())
		}
	}
	for _, a := range inst.Args {
		operands = append(operands, a.String())
	}

	var sb strings.Builder
	sb.WriteString(inst.Op.String())
	if len(operands) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(operands, ", "))
	}
	if inst.Comment != "" {
		sb.WriteString("  ; ")
		sb.WriteString(inst.Comment)
	}
	return sb.String()
}

// IsTerminator 检查指令是否是终止指令
func (inst *Instruction) IsTerminator() bool {
	return inst.Op == OpReturn || inst.Op == OpJump
}

// IsJump 检查指令是否是跳转指令
func (inst *Instruction) IsJump() bool {
	return inst.Op == OpJump || inst.Op == OpJumpIfFalse
}

// Target 返回跳转指令的目标标签
func (inst *Instruction) Target() (string, bool) {
	switch inst.Op {
	case OpJump, OpLabel:
		if inst.Src1 != nil && inst.Src1.Kind == LabelKind {
			return inst.Src1.Name, true
		}
	case OpJumpIfFalse:
		if inst.Src2 != nil && inst.Src2.Kind == LabelKind {
			return inst.Src2.Name, true
		}
	}
	return "", false
}

// ============================================================================
// 函数与模块
// ============================================================================

// Function IR 函数
type Function struct {
	Name          string         `json:"name"`
	ReturnType    Type           `json:"return_type"`
	Params        []Value        `json:"params"`
	Instructions  []*Instruction `json:"instructions"`
	LocalCount    int            `json:"local_count"`
	RegisterCount int            `json:"register_count"`
}

// Global 入口函数顶层作用域中的声明。
// 其他函数的 LOAD_GLOBAL 和带 global 注释的 STORE 按名称访问这些槽位
type Global struct {
	Name string `json:"name"`
	Slot Value  `json:"slot"` // 入口函数中的 Local
}

// Module 一次编译产生的 IR 模块
type Module struct {
	EntryPoint     string      `json:"entry_point"`
	Functions      []*Function `json:"functions"`
	Globals        []Global    `json:"globals"`
	StringLiterals []string    `json:"string_literals"`
}

// Global 返回名称对应的全局槽位。同名重复声明时取最后一个
func (m *Module) Global(name string) (Value, bool) {
	for i := len(m.Globals) - 1; i >= 0; i-- {
		if m.Globals[i].Name == name {
			return m.Globals[i].Slot, true
		}
	}
	return Value{}, false
}

// Function 按名称查找函数
func (m *Module) Function(name string) *Function {
	for _, f := range m.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
