package ast

// Clone 深拷贝一个子树。拷贝与原树不共享任何节点
func Clone[T Node](node T) T {
	c, _ := cloneNode(node).(T)
	return c
}

func cloneNode(node Node) Node {
	if node == nil || isNilNode(node) {
		return nil
	}

	switch n := node.(type) {
	case *Program:
		c := *n
		c.Statements = cloneStmts(n.Statements)
		return &c
	case *Block:
		return cloneBlock(n)
	case *VarDecl:
		c := *n
		c.Init = cloneExpr(n.Init)
		return &c
	case *ConstDecl:
		c := *n
		c.Init = cloneExpr(n.Init)
		return &c
	case *FunctionDecl:
		c := *n
		c.Params = make([]*Param, len(n.Params))
		for i, p := range n.Params {
			pc := *p
			c.Params[i] = &pc
		}
		c.Body = cloneBlock(n.Body)
		return &c
	case *IfStmt:
		c := *n
		c.Condition = cloneExpr(n.Condition)
		c.Then = cloneBlock(n.Then)
		c.Else = cloneStmt(n.Else)
		return &c
	case *ForStmt:
		c := *n
		c.Iterable = cloneExpr(n.Iterable)
		c.Body = cloneBlock(n.Body)
		return &c
	case *WhileStmt:
		c := *n
		c.Condition = cloneExpr(n.Condition)
		c.Body = cloneBlock(n.Body)
		return &c
	case *ReturnStmt:
		c := *n
		c.Value = cloneExpr(n.Value)
		return &c
	case *AssignStmt:
		c := *n
		c.Value = cloneExpr(n.Value)
		return &c
	case *UiComponent:
		c := *n
		c.Args = cloneExprs(n.Args)
		return &c
	case *EmbedCode:
		c := *n
		return &c
	case *CallExpr:
		c := *n
		c.Args = cloneExprs(n.Args)
		return &c
	case *BinaryExpr:
		c := *n
		c.Left = cloneExpr(n.Left)
		c.Right = cloneExpr(n.Right)
		return &c
	case *Identifier:
		c := *n
		return &c
	case *Literal:
		c := *n
		return &c
	}
	return nil
}

func cloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	c := *b
	c.Statements = cloneStmts(b.Statements)
	return &c
}

func cloneStmt(s Statement) Statement {
	c, _ := cloneNode(s).(Statement)
	return c
}

func cloneExpr(e Expression) Expression {
	c, _ := cloneNode(e).(Expression)
	return c
}

func cloneStmts(stmts []Statement) []Statement {
	if stmts == nil {
		return nil
	}
	out := make([]Statement, 0, len(stmts))
	for _, s := range stmts {
		if c := cloneStmt(s); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func cloneExprs(exprs []Expression) []Expression {
	if exprs == nil {
		return nil
	}
	out := make([]Expression, len(exprs))
	for i, e := range exprs {
		out[i] = cloneExpr(e)
	}
	return out
}

// Equal 判断两棵子树结构是否相同：种类、负载和形状。位置与类型标签不参与比较
func Equal(a, b Node) bool {
	aNil := a == nil || isNilNode(a)
	bNil := b == nil || isNilNode(b)
	if aNil || bNil {
		return aNil == bNil
	}
	if a.Kind() != b.Kind() || payload(a) != payload(b) {
		return false
	}

	ac, bc := Children(a), Children(b)
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return shapeKey(a) == shapeKey(b)
}

// payload 节点自身携带的非子节点数据
func payload(n Node) string {
	switch v := n.(type) {
	case *VarDecl:
		return v.Name
	case *ConstDecl:
		return v.Name
	case *FunctionDecl:
		s := v.Name + "("
		for _, p := range v.Params {
			s += p.Name + ","
		}
		return s + ")"
	case *ForStmt:
		return v.Var
	case *AssignStmt:
		return v.Name
	case *UiComponent:
		return v.Name
	case *EmbedCode:
		return v.Lang + "\x00" + v.Code
	case *CallExpr:
		return v.Name
	case *BinaryExpr:
		return v.Op
	case *Identifier:
		return v.Name
	case *Literal:
		return v.LitKind.String() + ":" + v.Value
	}
	return ""
}

// shapeKey 区分可选槽位的占用情况，如 #return 与 #return x
func shapeKey(n Node) string {
	has := func(x Node) byte {
		if x == nil || isNilNode(x) {
			return '0'
		}
		return '1'
	}
	switch v := n.(type) {
	case *VarDecl:
		return string(has(v.Init))
	case *ConstDecl:
		return string(has(v.Init))
	case *IfStmt:
		return string([]byte{has(v.Condition), has(v.Then), has(v.Else)})
	case *ForStmt:
		return string([]byte{has(v.Iterable), has(v.Body)})
	case *WhileStmt:
		return string([]byte{has(v.Condition), has(v.Body)})
	case *ReturnStmt:
		return string(has(v.Value))
	case *BinaryExpr:
		return string([]byte{has(v.Left), has(v.Right)})
	}
	return ""
}
