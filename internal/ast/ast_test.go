package ast

import (
	"testing"

	"github.com/nalgeon/be"
	"github.com/tangzhangming/sub/internal/token"
)

var p0 = token.Position{Line: 1, Column: 1}

func sample() *Program {
	fn := NewFunctionDecl(p0, "add",
		[]*Param{{Name: "a"}, {Name: "b"}},
		NewBlock(p0, NewReturnStmt(p0, NewBinaryExpr(p0, "+", NewIdentifier(p0, "a"), NewIdentifier(p0, "b")))),
	)
	ifs := NewIfStmt(p0,
		NewBinaryExpr(p0, ">", NewIdentifier(p0, "x"), NewNumber(p0, "1")),
		NewBlock(p0, NewCallExpr(p0, "print", NewString(p0, "big"))),
		NewBlock(p0, NewAssignStmt(p0, "x", NewNumber(p0, "0"))),
	)
	return NewProgram(p0,
		NewVarDecl(p0, "x", NewBinaryExpr(p0, "+", NewNumber(p0, "3"), NewNumber(p0, "4"))),
		fn,
		ifs,
	)
}

func TestSexpr(t *testing.T) {
	got := Sexpr(sample())
	want := `(program (var x (+ 3 4)) (function add (params a b) (block (return (+ a b)))) ` +
		`(if (> x 1) (block (call print "big")) (block (assign x 0))))`
	be.Equal(t, got, want)
}

func TestCloneIsDeepAndEqual(t *testing.T) {
	orig := sample()
	c := Clone(orig)

	be.True(t, c != orig)
	be.True(t, Equal(orig, c))
	be.Equal(t, Sexpr(c), Sexpr(orig))

	// 修改拷贝不影响原树
	c.Statements[0].(*VarDecl).Init.(*BinaryExpr).Op = "*"
	be.Equal(t, orig.Statements[0].(*VarDecl).Init.(*BinaryExpr).Op, "+")
	be.True(t, !Equal(orig, c))
}

func TestEqualDistinguishesOptionalSlots(t *testing.T) {
	a := NewReturnStmt(p0, nil)
	b := NewReturnStmt(p0, NewNumber(p0, "0"))
	be.True(t, !Equal(a, b))
	be.True(t, Equal(a, NewReturnStmt(token.Position{Line: 9}, nil)))
}

func TestInspectVisitsInSourceOrder(t *testing.T) {
	var kinds []NodeKind
	Inspect(sample().Statements[0], func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return true
	})
	be.Equal(t, kinds, []NodeKind{KindVarDecl, KindBinaryExpr, KindLiteral, KindLiteral})
}

func TestInspectSkipsNilElse(t *testing.T) {
	s := NewIfStmt(p0, NewBool(p0, true), NewBlock(p0), nil)
	count := 0
	Inspect(s, func(n Node) bool {
		count++
		return true
	})
	be.Equal(t, count, 3) // if, literal, block
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		text    string
		ok      bool
		isFloat bool
		i       int64
		f       float64
	}{
		{"42", true, false, 42, 0},
		{"1_000", true, false, 1000, 0},
		{"0x1F", true, false, 31, 0},
		{"0b101", true, false, 5, 0},
		{"010", true, false, 10, 0},
		{"3.5", true, true, 0, 3.5},
		{"2e3", true, true, 0, 2000},
		{"-7", true, false, -7, 0},
		{"-0x10", true, false, -16, 0},
		{"1.2.3", false, false, 0, 0},
		{"99999999999999999999", false, false, 0, 0},
		{"", false, false, 0, 0},
	}

	for _, tt := range tests {
		n, ok := ParseNumber(tt.text)
		if ok != tt.ok {
			t.Errorf("ParseNumber(%q): ok = %v, want %v", tt.text, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if n.IsFloat != tt.isFloat || n.Int != tt.i || n.Float != tt.f {
			t.Errorf("ParseNumber(%q) = %+v", tt.text, n)
		}
	}
}

func TestFormatNumberRoundTrips(t *testing.T) {
	for _, n := range []Number{{Int: 6}, {Int: -3}, {IsFloat: true, Float: 6}, {IsFloat: true, Float: 0.25}} {
		back, ok := ParseNumber(FormatNumber(n))
		be.True(t, ok)
		be.Equal(t, back, n)
	}
}

func TestDataType(t *testing.T) {
	be.True(t, Int.IsNumeric())
	be.True(t, Float.IsNumeric())
	be.True(t, !String.IsNumeric())
	be.Equal(t, Float.String(), "float")
	be.Equal(t, KindUiComponent.String(), "UiComponent")
}

func TestStringRendering(t *testing.T) {
	want := "#var x = (3 + 4)\n" +
		"#function add(a, b)\n    #return (a + b)\n#end\n" +
		"#if (x > 1)\n    print(\"big\")\n#else\n    #x = 0\n#end"
	be.Equal(t, sample().String(), want)
}
