package optimizer

import (
	"github.com/tangzhangming/sub/internal/ast"
)

// ============================================================================
// 死代码消除 Pass
// ============================================================================

// maxDCERounds 死代码消除的最大迭代次数
const maxDCERounds = 16

// EliminateDeadCode 删除效果不可观察的语句：
//   - 同一语句列表中无条件 return 之后的语句
//   - 条件为字面量的 if（替换为被选中的分支）和条件为假的 while
//   - 程序中从未被读取、初始化表达式没有调用的变量和常量声明
//
// 迭代到不动点，因此紧接着再运行一次不会产生新的修改。
func EliminateDeadCode(prog *ast.Program, _ *Context) bool {
	changed := false
	for i := 0; i < maxDCERounds; i++ {
		round := mapStatementLists(prog, eliminateInList)
		if removeUnusedDecls(prog) {
			round = true
		}
		if !round {
			break
		}
		changed = true
	}
	return changed
}

// eliminateInList 处理一个语句列表：截断 return 之后的语句，化简常量条件
func eliminateInList(stmts []ast.Statement) ([]ast.Statement, bool) {
	changed := false
	out := stmts[:0]
	for i, s := range stmts {
		switch st := s.(type) {
		case *ast.IfStmt:
			if taken, ok := constantBranch(st); ok {
				changed = true
				if taken != nil {
					out = append(out, taken)
				}
				continue
			}
		case *ast.WhileStmt:
			if v, ok := constantCondition(st.Condition); ok && !v {
				changed = true
				continue
			}
		}

		out = append(out, s)
		if _, ok := s.(*ast.ReturnStmt); ok {
			if i < len(stmts)-1 {
				changed = true
			}
			break
		}
	}
	// 清空尾部，避免被截掉的节点仍被底层数组引用
	for j := len(out); j < len(stmts); j++ {
		stmts[j] = nil
	}
	return out, changed
}

// constantBranch 条件为字面量时返回被选中的分支（可能为 nil）
func constantBranch(s *ast.IfStmt) (ast.Statement, bool) {
	v, ok := constantCondition(s.Condition)
	if !ok {
		return nil, false
	}
	if v {
		if s.Then == nil {
			return nil, true
		}
		return s.Then, true
	}
	if s.Else == nil {
		return nil, true
	}
	return s.Else, true
}

// constantCondition 布尔字面量取其值，数字字面量非零为真
func constantCondition(e ast.Expression) (bool, bool) {
	lit, ok := e.(*ast.Literal)
	if !ok {
		return false, false
	}
	switch lit.LitKind {
	case ast.BoolLit:
		return lit.Bool()
	case ast.NumberLit:
		n, ok := lit.Number()
		if !ok {
			return false, false
		}
		return n.Float64() != 0, true
	case ast.NullLit:
		return false, true
	}
	return false, false
}

// ============================================================================
// 未使用的声明
// ============================================================================

// referencedNames 收集程序中被读取或赋值的名称。
// 名称按字符串比较，与作用域无关，结果偏保守。
func referencedNames(prog *ast.Program) map[string]bool {
	names := make(map[string]bool)
	ast.Inspect(prog, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.Identifier:
			names[x.Name] = true
		case *ast.AssignStmt:
			names[x.Name] = true
		}
		return true
	})
	return names
}

func removeUnusedDecls(prog *ast.Program) bool {
	used := referencedNames(prog)
	return mapStatementLists(prog, func(stmts []ast.Statement) ([]ast.Statement, bool) {
		changed := false
		out := stmts[:0]
		for _, s := range stmts {
			if isRemovableDecl(s, used) {
				changed = true
				continue
			}
			out = append(out, s)
		}
		for j := len(out); j < len(stmts); j++ {
			stmts[j] = nil
		}
		return out, changed
	})
}

func isRemovableDecl(s ast.Statement, used map[string]bool) bool {
	var name string
	var init ast.Expression
	switch d := s.(type) {
	case *ast.VarDecl:
		name, init = d.Name, d.Init
	case *ast.ConstDecl:
		name, init = d.Name, d.Init
	default:
		return false
	}
	return !used[name] && !hasCall(init)
}
