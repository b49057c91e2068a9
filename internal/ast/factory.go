package ast

import (
	"github.com/tangzhangming/sub/internal/token"
)

// ============================================================================
// AST 节点工厂函数
// ============================================================================
//
// 解析器、优化器和测试统一通过这些函数创建节点，类型标签初始为 Unknown。
//
// ============================================================================

func meta(pos token.Position) Meta {
	return Meta{Position: pos}
}

// NewProgram 创建程序根节点
func NewProgram(pos token.Position, stmts ...Statement) *Program {
	return &Program{Meta: meta(pos), Statements: stmts}
}

// NewBlock 创建代码块
func NewBlock(pos token.Position, stmts ...Statement) *Block {
	return &Block{Meta: meta(pos), Statements: stmts}
}

// NewVarDecl 创建变量声明，init 可为 nil
func NewVarDecl(pos token.Position, name string, init Expression) *VarDecl {
	return &VarDecl{Meta: meta(pos), Name: name, Init: init}
}

// NewConstDecl 创建常量声明
func NewConstDecl(pos token.Position, name string, init Expression) *ConstDecl {
	return &ConstDecl{Meta: meta(pos), Name: name, Init: init}
}

// NewFunctionDecl 创建函数声明
func NewFunctionDecl(pos token.Position, name string, params []*Param, body *Block) *FunctionDecl {
	return &FunctionDecl{Meta: meta(pos), Name: name, Params: params, Body: body}
}

// NewIfStmt 创建条件语句
func NewIfStmt(pos token.Position, cond Expression, then *Block, els Statement) *IfStmt {
	return &IfStmt{Meta: meta(pos), Condition: cond, Then: then, Else: els}
}

// NewForStmt 创建 for 循环
func NewForStmt(pos token.Position, varName string, iterable Expression, body *Block) *ForStmt {
	return &ForStmt{Meta: meta(pos), Var: varName, Iterable: iterable, Body: body}
}

// NewWhileStmt 创建 while 循环
func NewWhileStmt(pos token.Position, cond Expression, body *Block) *WhileStmt {
	return &WhileStmt{Meta: meta(pos), Condition: cond, Body: body}
}

// NewReturnStmt 创建返回语句，value 可为 nil
func NewReturnStmt(pos token.Position, value Expression) *ReturnStmt {
	return &ReturnStmt{Meta: meta(pos), Value: value}
}

// NewAssignStmt 创建赋值语句
func NewAssignStmt(pos token.Position, name string, value Expression) *AssignStmt {
	return &AssignStmt{Meta: meta(pos), Name: name, Value: value}
}

// NewCallExpr 创建函数调用
func NewCallExpr(pos token.Position, name string, args ...Expression) *CallExpr {
	return &CallExpr{Meta: meta(pos), Name: name, Args: args}
}

// NewBinaryExpr 创建二元表达式
func NewBinaryExpr(pos token.Position, op string, left, right Expression) *BinaryExpr {
	return &BinaryExpr{Meta: meta(pos), Op: op, Left: left, Right: right}
}

// NewIdentifier 创建标识符
func NewIdentifier(pos token.Position, name string) *Identifier {
	return &Identifier{Meta: meta(pos), Name: name}
}

// NewNumber 创建数字字面量，text 为源码写法
func NewNumber(pos token.Position, text string) *Literal {
	return &Literal{Meta: meta(pos), LitKind: NumberLit, Value: text}
}

// NewString 创建字符串字面量
func NewString(pos token.Position, value string) *Literal {
	return &Literal{Meta: meta(pos), LitKind: StringLit, Value: value}
}

// NewBool 创建布尔字面量
func NewBool(pos token.Position, value bool) *Literal {
	text := "false"
	if value {
		text = "true"
	}
	return &Literal{Meta: meta(pos), LitKind: BoolLit, Value: text}
}

// NewNull 创建 null 字面量
func NewNull(pos token.Position) *Literal {
	return &Literal{Meta: meta(pos), LitKind: NullLit, Value: "null"}
}

// NewUiComponent 创建界面组件节点
func NewUiComponent(pos token.Position, name string, args ...Expression) *UiComponent {
	return &UiComponent{Meta: meta(pos), Name: name, Args: args}
}

// NewEmbedCode 创建嵌入代码节点
func NewEmbedCode(pos token.Position, lang, code string) *EmbedCode {
	return &EmbedCode{Meta: meta(pos), Lang: lang, Code: code}
}
