package ast

import "fmt"

// ============================================================================
// NodeKind - 节点种类
// ============================================================================

// NodeKind 标识 AST 节点的种类，每种节点对应一个 Go 结构体
type NodeKind int

const (
	KindProgram NodeKind = iota
	KindVarDecl
	KindConstDecl
	KindFunctionDecl
	KindIfStmt
	KindForStmt
	KindWhileStmt
	KindReturnStmt
	KindAssignStmt
	KindCallExpr
	KindBinaryExpr
	KindIdentifier
	KindLiteral
	KindBlock
	KindUiComponent
	KindEmbedCode
)

var kindNames = [...]string{
	KindProgram:      "Program",
	KindVarDecl:      "VarDecl",
	KindConstDecl:    "ConstDecl",
	KindFunctionDecl: "FunctionDecl",
	KindIfStmt:       "IfStmt",
	KindForStmt:      "ForStmt",
	KindWhileStmt:    "WhileStmt",
	KindReturnStmt:   "ReturnStmt",
	KindAssignStmt:   "AssignStmt",
	KindCallExpr:     "CallExpr",
	KindBinaryExpr:   "BinaryExpr",
	KindIdentifier:   "Identifier",
	KindLiteral:      "Literal",
	KindBlock:        "Block",
	KindUiComponent:  "UiComponent",
	KindEmbedCode:    "EmbedCode",
}

func (k NodeKind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// ============================================================================
// DataType - 类型标签
// ============================================================================

// DataType 节点的类型标签，语义分析之前为 Unknown
type DataType int

const (
	Unknown DataType = iota
	Int
	Float
	String
	Bool
	Array
	Object
	Function
	Null
	Auto
	Void
)

var dataTypeNames = [...]string{
	Unknown:  "unknown",
	Int:      "int",
	Float:    "float",
	String:   "string",
	Bool:     "bool",
	Array:    "array",
	Object:   "object",
	Function: "function",
	Null:     "null",
	Auto:     "auto",
	Void:     "void",
}

func (t DataType) String() string {
	if int(t) >= 0 && int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return fmt.Sprintf("DataType(%d)", int(t))
}

// IsNumeric 判断是否为数值类型
func (t DataType) IsNumeric() bool {
	return t == Int || t == Float
}

// IsLoose 判断是否为尚未确定的类型，宽松检查时总是兼容
func (t DataType) IsLoose() bool {
	return t == Unknown || t == Auto
}

// ============================================================================
// LiteralKind - 字面量种类
// ============================================================================

// LiteralKind 字面量的词法形式
type LiteralKind int

const (
	NumberLit LiteralKind = iota
	StringLit
	BoolLit
	NullLit
)

func (k LiteralKind) String() string {
	switch k {
	case NumberLit:
		return "number"
	case StringLit:
		return "string"
	case BoolLit:
		return "bool"
	case NullLit:
		return "null"
	}
	return fmt.Sprintf("LiteralKind(%d)", int(k))
}
