package optimizer

import (
	"math"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/errors"
)

// ============================================================================
// 常量折叠 Pass
// ============================================================================

// FoldConstants 自底向上把两侧都是字面量的二元表达式替换为一个字面量。
// 除数为字面量零时报告 E0400，保留原表达式不折叠。
func FoldConstants(prog *ast.Program, ctx *Context) bool {
	changed := false
	mapStatementExprs(prog.Statements, func(e ast.Expression) ast.Expression {
		bin, ok := e.(*ast.BinaryExpr)
		if !ok {
			return e
		}
		folded, ok := foldBinary(bin, ctx)
		if !ok {
			return e
		}
		changed = true
		return folded
	})
	return changed
}

func foldBinary(bin *ast.BinaryExpr, ctx *Context) (*ast.Literal, bool) {
	left, ok1 := bin.Left.(*ast.Literal)
	right, ok2 := bin.Right.(*ast.Literal)
	if !ok1 || !ok2 {
		return nil, false
	}

	switch {
	case left.LitKind == ast.NumberLit && right.LitKind == ast.NumberLit:
		a, okA := left.Number()
		b, okB := right.Number()
		if !okA || !okB {
			return nil, false
		}
		if (bin.Op == "/" || bin.Op == "%") && b.Float64() == 0 {
			ctx.Report(errors.New(errors.E0400, bin.Pos()).
				WithHint(errors.Suggestions(errors.E0400, errors.Context{})...))
			return nil, false
		}
		return foldNumbers(bin, a, b)

	case left.LitKind == ast.StringLit && right.LitKind == ast.StringLit:
		switch bin.Op {
		case "+":
			return typed(ast.NewString(bin.Pos(), left.Value+right.Value), ast.String), true
		case "==":
			return boolLiteral(bin, left.Value == right.Value), true
		case "!=":
			return boolLiteral(bin, left.Value != right.Value), true
		}

	case left.LitKind == ast.BoolLit && right.LitKind == ast.BoolLit:
		a, _ := left.Bool()
		b, _ := right.Bool()
		switch bin.Op {
		case "&&":
			return boolLiteral(bin, a && b), true
		case "||":
			return boolLiteral(bin, a || b), true
		case "==":
			return boolLiteral(bin, a == b), true
		case "!=":
			return boolLiteral(bin, a != b), true
		}
	}
	return nil, false
}

// foldNumbers 整数按 int64 运算（溢出回绕），任一侧为浮点数时按 float64 运算
func foldNumbers(bin *ast.BinaryExpr, a, b ast.Number) (*ast.Literal, bool) {
	if !a.IsFloat && !b.IsFloat {
		x, y := a.Int, b.Int
		switch bin.Op {
		case "+":
			return intLiteral(bin, x+y), true
		case "-":
			return intLiteral(bin, x-y), true
		case "*":
			return intLiteral(bin, x*y), true
		case "/":
			return intLiteral(bin, x/y), true
		case "%":
			return intLiteral(bin, x%y), true
		case "==":
			return boolLiteral(bin, x == y), true
		case "!=":
			return boolLiteral(bin, x != y), true
		case "<":
			return boolLiteral(bin, x < y), true
		case "<=":
			return boolLiteral(bin, x <= y), true
		case ">":
			return boolLiteral(bin, x > y), true
		case ">=":
			return boolLiteral(bin, x >= y), true
		}
		return nil, false
	}

	x, y := a.Float64(), b.Float64()
	var r float64
	switch bin.Op {
	case "+":
		r = x + y
	case "-":
		r = x - y
	case "*":
		r = x * y
	case "/":
		r = x / y
	case "%":
		r = math.Mod(x, y)
	case "==":
		return boolLiteral(bin, x == y), true
	case "!=":
		return boolLiteral(bin, x != y), true
	case "<":
		return boolLiteral(bin, x < y), true
	case "<=":
		return boolLiteral(bin, x <= y), true
	case ">":
		return boolLiteral(bin, x > y), true
	case ">=":
		return boolLiteral(bin, x >= y), true
	default:
		return nil, false
	}
	// 无法写回字面量文本的结果不折叠
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return nil, false
	}
	text := ast.FormatNumber(ast.Number{IsFloat: true, Float: r})
	return typed(ast.NewNumber(bin.Pos(), text), ast.Float), true
}

func intLiteral(bin *ast.BinaryExpr, v int64) *ast.Literal {
	text := ast.FormatNumber(ast.Number{Int: v})
	return typed(ast.NewNumber(bin.Pos(), text), ast.Int)
}

func boolLiteral(bin *ast.BinaryExpr, v bool) *ast.Literal {
	return typed(ast.NewBool(bin.Pos(), v), ast.Bool)
}

func typed(lit *ast.Literal, t ast.DataType) *ast.Literal {
	lit.SetType(t)
	return lit
}
