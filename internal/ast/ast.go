package ast

import (
	"strconv"
	"strings"

	"github.com/tangzhangming/sub/internal/token"
)

// Node 是所有 AST 节点的基接口
type Node interface {
	Pos() token.Position // 返回节点在源代码中的位置
	Kind() NodeKind      // 返回节点种类
	Type() DataType      // 返回类型标签
	SetType(DataType)    // 设置类型标签（语义分析）
	String() string      // 返回节点的字符串表示（用于调试）
}

// Expression 表示一个表达式节点
type Expression interface {
	Node
	exprNode()
}

// Statement 表示一个语句节点
type Statement interface {
	Node
	stmtNode()
}

// Meta 每个节点共有的元信息：源码位置和类型标签
type Meta struct {
	Position token.Position
	DataType DataType
}

func (m *Meta) Pos() token.Position { return m.Position }
func (m *Meta) Type() DataType      { return m.DataType }
func (m *Meta) SetType(t DataType)  { m.DataType = t }

// ============================================================================
// 根节点与代码块
// ============================================================================

// Program 程序根节点，语句按源码顺序排列
type Program struct {
	Meta
	Statements []Statement
}

func (p *Program) Kind() NodeKind { return KindProgram }
func (p *Program) String() string { return joinStatements(p.Statements, "") }

// Block 代码块，由 #end / #elif / #else 结束
type Block struct {
	Meta
	Statements []Statement
}

func (b *Block) Kind() NodeKind { return KindBlock }
func (b *Block) String() string { return joinStatements(b.Statements, "    ") }
func (b *Block) stmtNode()      {}

func joinStatements(stmts []Statement, indent string) string {
	var sb strings.Builder
	for i, s := range stmts {
		if i > 0 {
			sb.WriteByte('\n')
		}
		lines := strings.Split(s.String(), "\n")
		for j, line := range lines {
			if j > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(indent)
			sb.WriteString(line)
		}
	}
	return sb.String()
}

// ============================================================================
// 声明
// ============================================================================

// VarDecl 变量声明 #var name = init
type VarDecl struct {
	Meta
	Name string
	Init Expression // 可为 nil
}

func (d *VarDecl) Kind() NodeKind { return KindVarDecl }
func (d *VarDecl) String() string { return declString("#var ", d.Name, d.Init) }
func (d *VarDecl) stmtNode()      {}

// ConstDecl 常量声明 #const name = init
type ConstDecl struct {
	Meta
	Name string
	Init Expression // 可为 nil
}

func (d *ConstDecl) Kind() NodeKind { return KindConstDecl }
func (d *ConstDecl) String() string { return declString("#const ", d.Name, d.Init) }
func (d *ConstDecl) stmtNode()      {}

func declString(prefix, name string, init Expression) string {
	if init == nil {
		return prefix + name
	}
	return prefix + name + " = " + init.String()
}

// Param 函数参数
type Param struct {
	Name string
	Pos  token.Position
}

// FunctionDecl 函数声明 #function name(params) ... #end
type FunctionDecl struct {
	Meta
	Name       string
	Params     []*Param
	Body       *Block
	ReturnType DataType // 语义分析推断的返回类型
}

func (f *FunctionDecl) Kind() NodeKind { return KindFunctionDecl }
func (f *FunctionDecl) String() string {
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Name
	}
	var sb strings.Builder
	sb.WriteString("#function " + f.Name + "(" + strings.Join(names, ", ") + ")")
	writeBody(&sb, f.Body)
	sb.WriteString("\n#end")
	return sb.String()
}
func (f *FunctionDecl) stmtNode() {}

// ParamNames 返回参数名列表
func (f *FunctionDecl) ParamNames() []string {
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Name
	}
	return names
}

func writeBody(sb *strings.Builder, body *Block) {
	if body != nil && len(body.Statements) > 0 {
		sb.WriteByte('\n')
		sb.WriteString(body.String())
	}
}

// ============================================================================
// 控制流语句
// ============================================================================

// IfStmt 条件语句。Else 为 nil、*Block（else）或 *IfStmt（elif）
type IfStmt struct {
	Meta
	Condition Expression
	Then      *Block
	Else      Statement
}

func (s *IfStmt) Kind() NodeKind { return KindIfStmt }
func (s *IfStmt) String() string {
	var sb strings.Builder
	s.write(&sb, "#if ")
	sb.WriteString("\n#end")
	return sb.String()
}
func (s *IfStmt) stmtNode() {}

func (s *IfStmt) write(sb *strings.Builder, keyword string) {
	sb.WriteString(keyword)
	if s.Condition != nil {
		sb.WriteString(s.Condition.String())
	}
	writeBody(sb, s.Then)
	switch e := s.Else.(type) {
	case *IfStmt:
		sb.WriteByte('\n')
		e.write(sb, "#elif ")
	case *Block:
		sb.WriteString("\n#else")
		writeBody(sb, e)
	}
}

// ForStmt 循环 #for var in iterable
type ForStmt struct {
	Meta
	Var      string
	Iterable Expression // 头部无法解析时为 nil
	Body     *Block
}

func (s *ForStmt) Kind() NodeKind { return KindForStmt }
func (s *ForStmt) String() string {
	var sb strings.Builder
	sb.WriteString("#for " + s.Var)
	if s.Iterable != nil {
		sb.WriteString(" in " + s.Iterable.String())
	}
	writeBody(&sb, s.Body)
	sb.WriteString("\n#end")
	return sb.String()
}
func (s *ForStmt) stmtNode() {}

// WhileStmt 循环 #while cond
type WhileStmt struct {
	Meta
	Condition Expression
	Body      *Block
}

func (s *WhileStmt) Kind() NodeKind { return KindWhileStmt }
func (s *WhileStmt) String() string {
	var sb strings.Builder
	sb.WriteString("#while ")
	if s.Condition != nil {
		sb.WriteString(s.Condition.String())
	}
	writeBody(&sb, s.Body)
	sb.WriteString("\n#end")
	return sb.String()
}
func (s *WhileStmt) stmtNode() {}

// ReturnStmt 返回语句
type ReturnStmt struct {
	Meta
	Value Expression // 可为 nil
}

func (s *ReturnStmt) Kind() NodeKind { return KindReturnStmt }
func (s *ReturnStmt) String() string {
	if s.Value == nil {
		return "#return"
	}
	return "#return " + s.Value.String()
}
func (s *ReturnStmt) stmtNode() {}

// AssignStmt 赋值 #name = value（复合赋值在解析时展开）
type AssignStmt struct {
	Meta
	Name  string
	Value Expression
}

func (s *AssignStmt) Kind() NodeKind { return KindAssignStmt }
func (s *AssignStmt) String() string {
	if s.Value == nil {
		return "#" + s.Name + " ="
	}
	return "#" + s.Name + " = " + s.Value.String()
}
func (s *AssignStmt) stmtNode() {}

// UiComponent 界面组件 #ui name(args)
type UiComponent struct {
	Meta
	Name string
	Args []Expression
}

func (u *UiComponent) Kind() NodeKind { return KindUiComponent }
func (u *UiComponent) String() string { return "#ui " + u.Name + "(" + joinExprs(u.Args) + ")" }
func (u *UiComponent) stmtNode()      {}

// EmbedCode 嵌入的外部语言代码，原样保留给后端
type EmbedCode struct {
	Meta
	Lang string
	Code string
}

func (e *EmbedCode) Kind() NodeKind { return KindEmbedCode }
func (e *EmbedCode) String() string {
	return "#embed " + e.Lang + "\n" + e.Code + "\n#endembed"
}
func (e *EmbedCode) stmtNode() {}

// ============================================================================
// 表达式
// ============================================================================

// CallExpr 函数调用，既可作为表达式也可作为语句
type CallExpr struct {
	Meta
	Name string
	Args []Expression
}

func (c *CallExpr) Kind() NodeKind { return KindCallExpr }
func (c *CallExpr) String() string { return c.Name + "(" + joinExprs(c.Args) + ")" }
func (c *CallExpr) exprNode()      {}
func (c *CallExpr) stmtNode()      {}

// BinaryExpr 二元表达式
type BinaryExpr struct {
	Meta
	Op       string
	Left     Expression
	Right    Expression
	Negation bool // 由 !x 展开为 x == false
}

func (b *BinaryExpr) Kind() NodeKind { return KindBinaryExpr }
func (b *BinaryExpr) String() string {
	return "(" + exprString(b.Left) + " " + b.Op + " " + exprString(b.Right) + ")"
}
func (b *BinaryExpr) exprNode() {}

// Identifier 标识符
type Identifier struct {
	Meta
	Name string
}

func (i *Identifier) Kind() NodeKind { return KindIdentifier }
func (i *Identifier) String() string { return i.Name }
func (i *Identifier) exprNode()      {}

// Literal 字面量。数字保留源码文本，字符串保存转义之后的内容
type Literal struct {
	Meta
	LitKind LiteralKind
	Value   string
}

func (l *Literal) Kind() NodeKind { return KindLiteral }
func (l *Literal) String() string {
	if l.LitKind == StringLit {
		return strconv.Quote(l.Value)
	}
	return l.Value
}
func (l *Literal) exprNode() {}

// Bool 返回布尔字面量的值
func (l *Literal) Bool() (bool, bool) {
	if l.LitKind != BoolLit {
		return false, false
	}
	return l.Value == "true", true
}

func exprString(e Expression) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

func joinExprs(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = exprString(e)
	}
	return strings.Join(parts, ", ")
}

// ============================================================================
// 运算符分类
// ============================================================================

// IsComparison 判断是否为比较运算符
func IsComparison(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

// IsLogical 判断是否为逻辑运算符
func IsLogical(op string) bool {
	return op == "&&" || op == "||"
}

// IsArithmetic 判断是否为算术运算符
func IsArithmetic(op string) bool {
	switch op {
	case "+", "-", "*", "/", "%":
		return true
	}
	return false
}
