package ast

// Visitor 遍历回调。Visit 返回 nil 时不再深入该节点的子节点
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk 深度优先遍历 AST，子节点按源码顺序访问
func Walk(v Visitor, node Node) {
	if node == nil || isNilNode(node) {
		return
	}
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(v, child)
	}
	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if node != nil && f(node) {
		return f
	}
	return nil
}

// Inspect 按深度优先顺序对每个节点调用 f，f 返回 false 时跳过子节点
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Children 返回节点的直接子节点，顺序与求值顺序一致，跳过空槽位
func Children(node Node) []Node {
	var out []Node
	add := func(n Node) {
		if n != nil && !isNilNode(n) {
			out = append(out, n)
		}
	}

	switch n := node.(type) {
	case *Program:
		for _, s := range n.Statements {
			add(s)
		}
	case *Block:
		for _, s := range n.Statements {
			add(s)
		}
	case *VarDecl:
		add(n.Init)
	case *ConstDecl:
		add(n.Init)
	case *FunctionDecl:
		add(n.Body)
	case *IfStmt:
		add(n.Condition)
		add(n.Then)
		add(n.Else)
	case *ForStmt:
		add(n.Iterable)
		add(n.Body)
	case *WhileStmt:
		add(n.Condition)
		add(n.Body)
	case *ReturnStmt:
		add(n.Value)
	case *AssignStmt:
		add(n.Value)
	case *CallExpr:
		for _, a := range n.Args {
			add(a)
		}
	case *UiComponent:
		for _, a := range n.Args {
			add(a)
		}
	case *BinaryExpr:
		add(n.Left)
		add(n.Right)
	}
	return out
}

// isNilNode 处理接口中装着 nil 指针的情况，如 Else 为 (*Block)(nil)
func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Block:
		return v == nil
	case *IfStmt:
		return v == nil
	case *Program:
		return v == nil
	}
	return false
}
