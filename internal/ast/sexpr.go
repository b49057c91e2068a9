package ast

import (
	"strconv"
	"strings"
)

// Sexpr 把子树输出为单行 S 表达式，结果只由树结构决定，用于比较和调试
//
//	#var x = 3 + 4   =>   (program (var x (+ 3 4)))
func Sexpr(node Node) string {
	var sb strings.Builder
	writeSexpr(&sb, node)
	return sb.String()
}

func writeSexpr(sb *strings.Builder, node Node) {
	if node == nil || isNilNode(node) {
		sb.WriteString("_")
		return
	}

	switch n := node.(type) {
	case *Program:
		list(sb, "program", nil, stmtNodes(n.Statements)...)
	case *Block:
		list(sb, "block", nil, stmtNodes(n.Statements)...)
	case *VarDecl:
		list(sb, "var", []string{n.Name}, optional(n.Init)...)
	case *ConstDecl:
		list(sb, "const", []string{n.Name}, optional(n.Init)...)
	case *FunctionDecl:
		sb.WriteString("(function " + n.Name + " (params")
		for _, p := range n.Params {
			sb.WriteString(" " + p.Name)
		}
		sb.WriteString(") ")
		writeSexpr(sb, n.Body)
		sb.WriteString(")")
	case *IfStmt:
		children := []Node{n.Condition, n.Then}
		if n.Else != nil && !isNilNode(n.Else) {
			children = append(children, n.Else)
		}
		list(sb, "if", nil, children...)
	case *ForStmt:
		list(sb, "for", []string{n.Var}, n.Iterable, n.Body)
	case *WhileStmt:
		list(sb, "while", nil, n.Condition, n.Body)
	case *ReturnStmt:
		list(sb, "return", nil, optional(n.Value)...)
	case *AssignStmt:
		list(sb, "assign", []string{n.Name}, n.Value)
	case *CallExpr:
		list(sb, "call", []string{n.Name}, exprNodes(n.Args)...)
	case *UiComponent:
		list(sb, "ui", []string{n.Name}, exprNodes(n.Args)...)
	case *EmbedCode:
		list(sb, "embed", []string{n.Lang, strconv.Quote(n.Code)})
	case *BinaryExpr:
		list(sb, n.Op, nil, n.Left, n.Right)
	case *Identifier:
		sb.WriteString(n.Name)
	case *Literal:
		sb.WriteString(n.String())
	default:
		sb.WriteString("?")
	}
}

func list(sb *strings.Builder, head string, atoms []string, children ...Node) {
	sb.WriteString("(" + head)
	for _, a := range atoms {
		sb.WriteString(" " + a)
	}
	for _, c := range children {
		sb.WriteByte(' ')
		writeSexpr(sb, c)
	}
	sb.WriteString(")")
}

// optional 把可能为空的槽位转成子节点列表，空槽位不输出
func optional(e Expression) []Node {
	if e == nil {
		return nil
	}
	return []Node{e}
}

func stmtNodes(stmts []Statement) []Node {
	out := make([]Node, len(stmts))
	for i, s := range stmts {
		out[i] = s
	}
	return out
}

func exprNodes(exprs []Expression) []Node {
	out := make([]Node, len(exprs))
	for i, e := range exprs {
		out[i] = e
	}
	return out
}
