package optimizer

import "github.com/tangzhangming/sub/internal/ast"

// exprFunc 表达式改写函数，返回值替换原节点
type exprFunc func(ast.Expression) ast.Expression

// mapExpr 后序改写表达式：先改写子节点，再对节点本身调用 fn
func mapExpr(e ast.Expression, fn exprFunc) ast.Expression {
	switch n := e.(type) {
	case nil:
		return nil
	case *ast.BinaryExpr:
		n.Left = mapExpr(n.Left, fn)
		n.Right = mapExpr(n.Right, fn)
	case *ast.CallExpr:
		for i := range n.Args {
			n.Args[i] = mapExpr(n.Args[i], fn)
		}
	}
	return fn(e)
}

// mapStatementExprs 改写语句列表中所有表达式槽位（递归进入代码块）
func mapStatementExprs(stmts []ast.Statement, fn exprFunc) {
	for _, s := range stmts {
		mapStatementExpr(s, fn)
	}
}

func mapStatementExpr(stmt ast.Statement, fn exprFunc) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		s.Init = mapExpr(s.Init, fn)
	case *ast.ConstDecl:
		s.Init = mapExpr(s.Init, fn)
	case *ast.AssignStmt:
		s.Value = mapExpr(s.Value, fn)
	case *ast.ReturnStmt:
		s.Value = mapExpr(s.Value, fn)
	case *ast.CallExpr:
		// 调用语句本身不被替换，只改写参数
		for i := range s.Args {
			s.Args[i] = mapExpr(s.Args[i], fn)
		}
	case *ast.UiComponent:
		for i := range s.Args {
			s.Args[i] = mapExpr(s.Args[i], fn)
		}
	case *ast.IfStmt:
		s.Condition = mapExpr(s.Condition, fn)
		mapBlockExprs(s.Then, fn)
		if s.Else != nil {
			mapStatementExpr(s.Else, fn)
		}
	case *ast.WhileStmt:
		s.Condition = mapExpr(s.Condition, fn)
		mapBlockExprs(s.Body, fn)
	case *ast.ForStmt:
		s.Iterable = mapExpr(s.Iterable, fn)
		mapBlockExprs(s.Body, fn)
	case *ast.FunctionDecl:
		mapBlockExprs(s.Body, fn)
	case *ast.Block:
		mapStatementExprs(s.Statements, fn)
	}
}

func mapBlockExprs(b *ast.Block, fn exprFunc) {
	if b != nil {
		mapStatementExprs(b.Statements, fn)
	}
}

// stmtListFunc 语句列表改写函数，返回新列表和是否修改
type stmtListFunc func([]ast.Statement) ([]ast.Statement, bool)

// mapStatementLists 自底向上改写程序中的每一个语句列表
func mapStatementLists(prog *ast.Program, fn stmtListFunc) bool {
	var changed bool
	prog.Statements, changed = mapList(prog.Statements, fn)
	return changed
}

func mapList(stmts []ast.Statement, fn stmtListFunc) ([]ast.Statement, bool) {
	changed := false
	for _, s := range stmts {
		if mapNested(s, fn) {
			changed = true
		}
	}
	out, c := fn(stmts)
	return out, changed || c
}

func mapNested(stmt ast.Statement, fn stmtListFunc) bool {
	changed := false
	visit := func(b *ast.Block) {
		if b == nil {
			return
		}
		var c bool
		b.Statements, c = mapList(b.Statements, fn)
		changed = changed || c
	}

	switch s := stmt.(type) {
	case *ast.IfStmt:
		visit(s.Then)
		if s.Else != nil && mapNested(s.Else, fn) {
			changed = true
		}
	case *ast.WhileStmt:
		visit(s.Body)
	case *ast.ForStmt:
		visit(s.Body)
	case *ast.FunctionDecl:
		visit(s.Body)
	case *ast.Block:
		visit(s)
	}
	return changed
}

// ============================================================================
// 查询
// ============================================================================

// hasCall 判断表达式中是否含有调用（可能有副作用）
func hasCall(e ast.Expression) bool {
	if e == nil {
		return false
	}
	found := false
	ast.Inspect(e, func(n ast.Node) bool {
		if _, ok := n.(*ast.CallExpr); ok {
			found = true
		}
		return !found
	})
	return found
}

// isPure 纯表达式：只由字面量、标识符和二元运算组成
func isPure(e ast.Expression) bool {
	return e != nil && !hasCall(e)
}
