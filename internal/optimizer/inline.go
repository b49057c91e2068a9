package optimizer

import (
	"fmt"

	"github.com/tangzhangming/sub/internal/ast"
)

// ============================================================================
// 内联展开 Pass
// ============================================================================
//
// 内联策略：
// 1. 只内联顶层声明、不在调用图环上的函数
// 2. 函数体语句数不超过 MaxInlineStatements
// 3. 表达式位置：函数体只有一条 #return expr，且实参都是纯表达式
// 4. 语句位置：函数体不含 return，整体展开为一个代码块，
//    参数绑定为新变量，函数体内声明的名称加 __inlN 后缀避免捕获
// 5. 函数体引用的自由名称如果在任何局部作用域中被声明过，则不内联
// 6. 函数体在局部声明生效前引用了同名的外部名称，则不内联
//
// ============================================================================

// maxInlineRounds 内联的最大轮数，每一轮可能暴露新的调用点
const maxInlineRounds = 8

// InlineStats 内联统计
type InlineStats struct {
	TotalCalls     int // 检查过的调用数
	InlinedCalls   int // 内联调用数
	SkippedTooBig  int // 因太大跳过
	SkippedRecurse int // 因递归跳过
	SkippedOther   int // 其他原因跳过
}

// inliner 一轮内联所需的程序信息
type inliner struct {
	ctx       *Context
	functions map[string]*ast.FunctionDecl
	recursive map[string]bool
	localDecl map[string]bool // 在非顶层作用域中声明过的名称
}

// InlineCalls 用被调函数体替换对小函数的调用
func InlineCalls(prog *ast.Program, ctx *Context) bool {
	changed := false
	for round := 0; round < maxInlineRounds; round++ {
		il := newInliner(prog, ctx)
		if len(il.functions) == 0 {
			break
		}
		if !il.run(prog) {
			break
		}
		changed = true
	}
	return changed
}

func newInliner(prog *ast.Program, ctx *Context) *inliner {
	il := &inliner{
		ctx:       ctx,
		functions: make(map[string]*ast.FunctionDecl),
		localDecl: make(map[string]bool),
	}

	dup := make(map[string]bool)
	for _, s := range prog.Statements {
		if fn, ok := s.(*ast.FunctionDecl); ok {
			if _, seen := il.functions[fn.Name]; seen {
				dup[fn.Name] = true
			}
			il.functions[fn.Name] = fn
		}
	}
	for name := range dup {
		delete(il.functions, name)
	}

	il.recursive = findRecursive(il.functions)

	for _, s := range prog.Statements {
		collectLocalDecls(s, il.localDecl)
	}
	return il
}

// collectLocalDecls 记录所有不在顶层的声明名称（局部变量、参数、循环变量）
func collectLocalDecls(stmt ast.Statement, out map[string]bool) {
	ast.Inspect(stmt, func(n ast.Node) bool {
		switch d := n.(type) {
		case *ast.FunctionDecl:
			for _, p := range d.Params {
				out[p.Name] = true
			}
		case *ast.ForStmt:
			out[d.Var] = true
		case *ast.VarDecl:
			if n != stmt {
				out[d.Name] = true
			}
		case *ast.ConstDecl:
			if n != stmt {
				out[d.Name] = true
			}
		}
		return true
	})
}

// findRecursive 在调用图上找出位于环上的函数
func findRecursive(functions map[string]*ast.FunctionDecl) map[string]bool {
	calls := make(map[string][]string)
	for name, fn := range functions {
		ast.Inspect(fn.Body, func(n ast.Node) bool {
			if call, ok := n.(*ast.CallExpr); ok {
				if _, user := functions[call.Name]; user {
					calls[name] = append(calls[name], call.Name)
				}
			}
			return true
		})
	}

	recursive := make(map[string]bool)
	for name := range functions {
		visited := make(map[string]bool)
		var reaches func(from string) bool
		reaches = func(from string) bool {
			for _, to := range calls[from] {
				if to == name {
					return true
				}
				if !visited[to] {
					visited[to] = true
					if reaches(to) {
						return true
					}
				}
			}
			return false
		}
		if reaches(name) {
			recursive[name] = true
		}
	}
	return recursive
}

// candidate 返回可内联的被调函数
func (il *inliner) candidate(call *ast.CallExpr) *ast.FunctionDecl {
	fn, ok := il.functions[call.Name]
	if !ok {
		return nil
	}
	il.ctx.inline.TotalCalls++

	switch {
	case il.recursive[fn.Name]:
		il.ctx.inline.SkippedRecurse++
		return nil
	case fn.Body == nil || len(fn.Body.Statements) > il.ctx.MaxInlineStatements:
		il.ctx.inline.SkippedTooBig++
		return nil
	case len(call.Args) != len(fn.Params) || il.capturesLocal(fn) || hasNestedFunction(fn) || usesOuterBoundName(fn):
		il.ctx.inline.SkippedOther++
		return nil
	}
	return fn
}

// capturesLocal 函数体的自由名称是否可能被调用点的局部声明遮蔽
func (il *inliner) capturesLocal(fn *ast.FunctionDecl) bool {
	bound := boundNames(fn)
	captured := false
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		if id, ok := n.(*ast.Identifier); ok && !bound[id.Name] && il.localDecl[id.Name] {
			captured = true
		}
		return !captured
	})
	return captured
}

func hasNestedFunction(fn *ast.FunctionDecl) bool {
	nested := false
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		if _, ok := n.(*ast.FunctionDecl); ok {
			nested = true
		}
		return !nested
	})
	return nested
}

// boundNames 返回函数内绑定的名称：参数、局部声明和循环变量
func boundNames(fn *ast.FunctionDecl) map[string]bool {
	bound := make(map[string]bool)
	for _, p := range fn.Params {
		bound[p.Name] = true
	}
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		switch d := n.(type) {
		case *ast.VarDecl:
			bound[d.Name] = true
		case *ast.ConstDecl:
			bound[d.Name] = true
		case *ast.ForStmt:
			bound[d.Var] = true
		}
		return true
	})
	return bound
}

// usesOuterBoundName 判断函数体是否在某个局部声明的作用域之外引用了同名名称。
// 这样的引用指向外部变量，改名后会失去绑定
func usesOuterBoundName(fn *ast.FunctionDecl) bool {
	bound := boundNames(fn)
	scopes := []map[string]bool{make(map[string]bool)}
	for _, p := range fn.Params {
		scopes[0][p.Name] = true
	}

	found := false
	use := func(name string) {
		for i := len(scopes) - 1; i >= 0; i-- {
			if scopes[i][name] {
				return
			}
		}
		if bound[name] {
			found = true
		}
	}
	expr := func(e ast.Expression) {
		if e == nil {
			return
		}
		ast.Inspect(e, func(n ast.Node) bool {
			if id, ok := n.(*ast.Identifier); ok {
				use(id.Name)
			}
			return true
		})
	}

	var stmts func([]ast.Statement)
	scoped := func(bind string, body *ast.Block) {
		scopes = append(scopes, make(map[string]bool))
		if bind != "" {
			scopes[len(scopes)-1][bind] = true
		}
		if body != nil {
			stmts(body.Statements)
		}
		scopes = scopes[:len(scopes)-1]
	}
	var stmt func(ast.Statement)
	stmt = func(st ast.Statement) {
		switch s := st.(type) {
		case *ast.VarDecl:
			expr(s.Init)
			scopes[len(scopes)-1][s.Name] = true
		case *ast.ConstDecl:
			expr(s.Init)
			scopes[len(scopes)-1][s.Name] = true
		case *ast.AssignStmt:
			expr(s.Value)
			use(s.Name)
		case *ast.IfStmt:
			expr(s.Condition)
			scoped("", s.Then)
			switch e := s.Else.(type) {
			case *ast.IfStmt:
				stmt(e)
			case *ast.Block:
				scoped("", e)
			}
		case *ast.ForStmt:
			expr(s.Iterable)
			scoped(s.Var, s.Body)
		case *ast.WhileStmt:
			expr(s.Condition)
			scoped("", s.Body)
		case *ast.ReturnStmt:
			expr(s.Value)
		case *ast.CallExpr:
			expr(s)
		case *ast.UiComponent:
			for _, arg := range s.Args {
				expr(arg)
			}
		case *ast.Block:
			scoped("", s)
		}
	}
	stmts = func(list []ast.Statement) {
		for _, s := range list {
			stmt(s)
		}
	}

	stmts(fn.Body.Statements)
	return found
}

func (il *inliner) run(prog *ast.Program) bool {
	changed := false

	// 表达式位置
	mapStatementExprs(prog.Statements, func(e ast.Expression) ast.Expression {
		call, ok := e.(*ast.CallExpr)
		if !ok {
			return e
		}
		if replaced := il.inlineExpr(call); replaced != nil {
			changed = true
			return replaced
		}
		return e
	})

	// 语句位置
	if mapStatementLists(prog, func(stmts []ast.Statement) ([]ast.Statement, bool) {
		c := false
		for i, s := range stmts {
			call, ok := s.(*ast.CallExpr)
			if !ok {
				continue
			}
			if block := il.inlineStmt(call); block != nil {
				stmts[i] = block
				c = true
			}
		}
		return stmts, c
	}) {
		changed = true
	}

	return changed
}

// inlineExpr 把 f(args) 替换为 f 的返回表达式，参数替换为实参副本
func (il *inliner) inlineExpr(call *ast.CallExpr) ast.Expression {
	fn := il.candidate(call)
	if fn == nil {
		return nil
	}
	if len(fn.Body.Statements) != 1 {
		il.ctx.inline.SkippedOther++
		return nil
	}
	ret, ok := fn.Body.Statements[0].(*ast.ReturnStmt)
	if !ok || ret.Value == nil {
		il.ctx.inline.SkippedOther++
		return nil
	}
	for _, arg := range call.Args {
		if !isPure(arg) {
			il.ctx.inline.SkippedOther++
			return nil
		}
	}

	args := make(map[string]ast.Expression, len(fn.Params))
	for i, p := range fn.Params {
		args[p.Name] = call.Args[i]
	}

	body := ast.Clone(ret.Value)
	result := mapExpr(body, func(e ast.Expression) ast.Expression {
		if id, ok := e.(*ast.Identifier); ok {
			if arg, ok := args[id.Name]; ok {
				return ast.Clone(arg)
			}
		}
		return e
	})

	il.ctx.inline.InlinedCalls++
	return result
}

// inlineStmt 把调用语句展开为代码块：
//
//	#var a__inl1 = arg
//	...函数体（绑定名称改名）
func (il *inliner) inlineStmt(call *ast.CallExpr) *ast.Block {
	fn := il.candidate(call)
	if fn == nil {
		return nil
	}
	if containsReturn(fn.Body) {
		il.ctx.inline.SkippedOther++
		return nil
	}

	il.ctx.inlineSeq++
	suffix := fmt.Sprintf("__inl%d", il.ctx.inlineSeq)
	rename := make(map[string]string)
	for name := range boundNames(fn) {
		rename[name] = name + suffix
	}

	pos := call.Pos()
	block := ast.NewBlock(pos)
	for i, p := range fn.Params {
		block.Statements = append(block.Statements,
			ast.NewVarDecl(pos, rename[p.Name], call.Args[i]))
	}

	body := ast.Clone(fn.Body)
	renameBound(body, rename)
	block.Statements = append(block.Statements, body.Statements...)

	il.ctx.inline.InlinedCalls++
	return block
}

func containsReturn(b *ast.Block) bool {
	found := false
	ast.Inspect(b, func(n ast.Node) bool {
		if _, ok := n.(*ast.ReturnStmt); ok {
			found = true
		}
		return !found
	})
	return found
}

// renameBound 按映射改写声明、赋值目标、循环变量和标识符
func renameBound(b *ast.Block, rename map[string]string) {
	ast.Inspect(b, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.VarDecl:
			if to, ok := rename[x.Name]; ok {
				x.Name = to
			}
		case *ast.ConstDecl:
			if to, ok := rename[x.Name]; ok {
				x.Name = to
			}
		case *ast.AssignStmt:
			if to, ok := rename[x.Name]; ok {
				x.Name = to
			}
		case *ast.ForStmt:
			if to, ok := rename[x.Var]; ok {
				x.Var = to
			}
		case *ast.Identifier:
			if to, ok := rename[x.Name]; ok {
				x.Name = to
			}
		}
		return true
	})
}
