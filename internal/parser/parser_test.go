package parser

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/errors"
	"github.com/tangzhangming/sub/internal/lexer"
	"github.com/tangzhangming/sub/internal/token"
)

func parse(t *testing.T, input string) (*ast.Program, *Parser) {
	t.Helper()
	tokens, lexErrs := lexer.Tokenize(input, "test.sub")
	if len(lexErrs) > 0 {
		t.Fatalf("unexpected lexer errors: %v", lexErrs)
	}
	p := New(tokens)
	return p.Parse(), p
}

func parseOK(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, p := parse(t, input)
	if p.HasErrors() {
		for _, err := range p.Errors() {
			t.Errorf("parser error: %v", err)
		}
	}
	return prog
}

func TestParseExpressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`#var x = 3 + 4 * 2`, `(program (var x (+ 3 (* 4 2))))`},
		{`#var y = (1 + 2) * 3`, `(program (var y (* (+ 1 2) 3)))`},
		{`#var z = a || b && c == d`, `(program (var z (|| a (&& b (== c d)))))`},
		{`#var w = 1 - 2 - 3`, `(program (var w (- (- 1 2) 3)))`},
		{`#var c = a + 1 < b * 2`, `(program (var c (< (+ a 1) (* b 2))))`},
		{`#var m = 10 % 3 / 2`, `(program (var m (/ (% 10 3) 2)))`},
		{`#var n = -5`, `(program (var n -5))`},
		{`#var k = -x`, `(program (var k (- 0 x)))`},
		{`#var b = !ok`, `(program (var b (== ok false)))`},
		{`#var s = "hi" + name`, `(program (var s (+ "hi" name)))`},
		{`#var v = f(1, g(2), 3 + 4)`, `(program (var v (call f 1 (call g 2) (+ 3 4))))`},
		{`#var e = null`, `(program (var e null))`},
		{`#var u`, `(program (var u))`},
	}

	for _, tt := range tests {
		prog := parseOK(t, tt.input)
		if got := ast.Sexpr(prog); got != tt.expected {
			t.Errorf("input %q:\ngot  %s\nwant %s", tt.input, got, tt.expected)
		}
	}
}

func TestParseNegationIsMarked(t *testing.T) {
	prog := parseOK(t, "#var a = !ok\n#var b = ok == false")

	not := prog.Statements[0].(*ast.VarDecl).Init.(*ast.BinaryExpr)
	written := prog.Statements[1].(*ast.VarDecl).Init.(*ast.BinaryExpr)
	if !not.Negation {
		t.Errorf("expected !ok to be marked as negation")
	}
	if written.Negation {
		t.Errorf("expected written comparison not to be marked")
	}
	if !ast.Equal(not, written) {
		t.Errorf("expected both forms to be structurally equal")
	}
}

func TestParseStatements(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"const", `#const PI = 3.14`, `(program (const PI 3.14))`},
		{"assign", `#x = 5`, `(program (assign x 5))`},
		{"compound assign", `#x += 2`, `(program (assign x (+ x 2)))`},
		{"compound multiply", `#total *= rate`, `(program (assign total (* total rate)))`},
		{"print", `#print("a", 1)`, `(program (call print "a" 1))`},
		{"return value", `#return x + 1`, `(program (return (+ x 1)))`},
		{"bare return", "#return\n", `(program (return))`},
		{"ui", `#ui button("OK", 1)`, `(program (ui button "OK" 1))`},
		{"ui without args", `#ui divider`, `(program (ui divider))`},
		{
			"while",
			"#while i < 3\n    #i += 1\n#end",
			`(program (while (< i 3) (block (assign i (+ i 1)))))`,
		},
		{
			"for range",
			"#for i in range(10)\n    #print(i)\n#end",
			`(program (for i (call range 10) (block (call print i))))`,
		},
		{
			"function",
			"#function add(a, b)\n    #return a + b\n#end\n#print(add(1, 2))",
			`(program (function add (params a b) (block (return (+ a b)))) (call print (call add 1 2)))`,
		},
		{
			"bare end",
			"#if x\n    #print(1)\nend",
			`(program (if x (block (call print 1))))`,
		},
		{
			"blank lines",
			"\n\n#var a = 1\n\n\n#var b = 2\n",
			`(program (var a 1) (var b 2))`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := parseOK(t, tt.input)
			if got := ast.Sexpr(prog); got != tt.expected {
				t.Errorf("\ngot  %s\nwant %s", got, tt.expected)
			}
		})
	}
}

func TestParseIfElifElse(t *testing.T) {
	input := `#if a > 1
    #print(1)
#elif a > 0
    #print(2)
#else
    #print(3)
#end`

	prog := parseOK(t, input)
	want := `(program (if (> a 1) (block (call print 1)) (if (> a 0) (block (call print 2)) (block (call print 3)))))`
	if got := ast.Sexpr(prog); got != want {
		t.Fatalf("\ngot  %s\nwant %s", got, want)
	}

	ifStmt := prog.Statements[0].(*ast.IfStmt)
	elif, ok := ifStmt.Else.(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected elif to be *ast.IfStmt, got %T", ifStmt.Else)
	}
	if elif.Pos().Line != 3 {
		t.Errorf("expected elif on line 3, got %d", elif.Pos().Line)
	}
	if _, ok := elif.Else.(*ast.Block); !ok {
		t.Errorf("expected else to be *ast.Block, got %T", elif.Else)
	}
}

func TestParseElifDoesNotStealEnclosingEnd(t *testing.T) {
	input := `#function f(a)
    #if a
        #return 1
    #elif b
        #return 2
    #end
    #return 3
#end
#print(f(1))`

	prog := parseOK(t, input)
	want := `(program (function f (params a) (block (if a (block (return 1)) (if b (block (return 2)))) (return 3))) (call print (call f 1)))`
	if got := ast.Sexpr(prog); got != want {
		t.Errorf("\ngot  %s\nwant %s", got, want)
	}
}

func TestParseNestedBlocks(t *testing.T) {
	input := `#for i in range(3)
    #while i < 2
        #if i == 1
            #print(i)
        #end
        #i += 1
    #end
#end`

	prog := parseOK(t, input)
	want := `(program (for i (call range 3) (block (while (< i 2) (block (if (== i 1) (block (call print i))) (assign i (+ i 1)))))))`
	if got := ast.Sexpr(prog); got != want {
		t.Errorf("\ngot  %s\nwant %s", got, want)
	}
}

func TestParseMalformedForHeader(t *testing.T) {
	prog := parseOK(t, "#for 5 6\n    #print(1)\n#end")

	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	loop, ok := prog.Statements[0].(*ast.ForStmt)
	if !ok {
		t.Fatalf("expected *ast.ForStmt, got %T", prog.Statements[0])
	}
	if loop.Var != "" || loop.Iterable != nil {
		t.Errorf("expected empty header, got var=%q iterable=%v", loop.Var, loop.Iterable)
	}
	if len(loop.Body.Statements) != 1 {
		t.Errorf("expected body to keep 1 statement, got %d", len(loop.Body.Statements))
	}
}

func TestParseEmbed(t *testing.T) {
	input := "#embed python\ndef f():\n    return 1\n#endembed\n#print(2)"

	prog := parseOK(t, input)
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}

	embed, ok := prog.Statements[0].(*ast.EmbedCode)
	if !ok {
		t.Fatalf("expected *ast.EmbedCode, got %T", prog.Statements[0])
	}
	if embed.Lang != "python" {
		t.Errorf("expected lang python, got %q", embed.Lang)
	}
	if embed.Code != "def f():\n    return 1" {
		t.Errorf("unexpected code %q", embed.Code)
	}
}

func TestParseEmbedWithoutCodeToken(t *testing.T) {
	tokens := []token.Token{
		token.At(token.HASH, "#", 1, 1),
		token.At(token.EMBED, "embed", 1, 2),
		token.At(token.IDENT, "c", 1, 8),
		token.At(token.NEWLINE, "\n", 1, 9),
		token.At(token.IDENT, "int", 2, 1),
		token.At(token.IDENT, "x", 2, 5),
		token.At(token.NEWLINE, "\n", 2, 6),
		token.At(token.HASH, "#", 3, 1),
		token.At(token.ENDEMBED, "endembed", 3, 2),
		token.At(token.EOF, "", 3, 10),
	}

	prog, diags, err := Parse(tokens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Strings())
	}
	embed := prog.Statements[0].(*ast.EmbedCode)
	if embed.Lang != "c" || embed.Code != "int x" {
		t.Errorf("got lang=%q code=%q", embed.Lang, embed.Code)
	}
}

func TestParsePositions(t *testing.T) {
	prog := parseOK(t, "#var x = 1\n\n  #print(x + 2)")

	decl := prog.Statements[0].(*ast.VarDecl)
	if decl.Pos().Line != 1 || decl.Pos().Column != 2 {
		t.Errorf("var decl: expected 1:2, got %s", decl.Pos())
	}

	call := prog.Statements[1].(*ast.CallExpr)
	if call.Pos().Line != 3 || call.Pos().Column != 4 {
		t.Errorf("call: expected 3:4, got %s", call.Pos())
	}
	bin := call.Args[0].(*ast.BinaryExpr)
	if bin.Pos().Line != 3 || bin.Pos().Column != 12 {
		t.Errorf("binary: expected 3:12, got %s", bin.Pos())
	}
}

func TestParseDeterministic(t *testing.T) {
	input := "#var x = 1\n#if x > 0\n    #print(x * 2)\n#else\n    #print(0)\n#end"

	first := parseOK(t, input)
	second := parseOK(t, input)
	if !ast.Equal(first, second) {
		t.Errorf("parsing the same input twice produced different trees:\n%s\n%s",
			ast.Sexpr(first), ast.Sexpr(second))
	}
}

// ============================================================================
// 错误与恢复
// ============================================================================

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		code     string
		expected string
	}{
		{"missing name", `#var = 5`, errors.E0006, `(program)`},
		{"missing rparen", `#var x = (1 + 2`, errors.E0001, `(program (var x (+ 1 2)))`},
		{"missing operand", `#var x = * 3`, errors.E0005, `(program (var x))`},
		{"unclosed call", `#print(1, 2`, errors.E0001, `(program (call print 1 2))`},
		{"missing ui name", `#ui (1)`, errors.E0006, `(program)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, p := parse(t, tt.input)
			if p.ErrorCount() != 1 {
				t.Fatalf("expected 1 error, got %d: %v", p.ErrorCount(), p.Errors())
			}
			if got := p.Errors()[0].Code; got != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, got)
			}
			if got := ast.Sexpr(prog); got != tt.expected {
				t.Errorf("\ngot  %s\nwant %s", got, tt.expected)
			}
		})
	}
}

func TestParseExpectMessage(t *testing.T) {
	_, p := parse(t, `#var x = (1 + 2`)

	err := p.Errors()[0]
	if err.Expected != "')'" {
		t.Errorf("expected Expected to be ')', got %q", err.Expected)
	}
	if !strings.Contains(err.Message, "expected ')'") {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Pos.Line != 1 || err.Pos.Column != 16 {
		t.Errorf("expected error at 1:16, got %s", err.Pos)
	}
}

func TestParseRecovery(t *testing.T) {
	input := "#var = 1\n#var y = )\n#var z = 3\n#print(z)"

	prog, p := parse(t, input)
	if p.ErrorCount() != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", p.ErrorCount(), p.Errors())
	}
	if p.Errors()[0].Pos.Line != 1 || p.Errors()[1].Pos.Line != 2 {
		t.Errorf("errors reported on wrong lines: %v", p.Errors())
	}

	want := `(program (var y) (var z 3) (call print z))`
	if got := ast.Sexpr(prog); got != want {
		t.Errorf("\ngot  %s\nwant %s", got, want)
	}
}

func TestParseUnknownStatementSkipped(t *testing.T) {
	prog := parseOK(t, "#break\n#try\nstray tokens here\n#var a = 1")
	if got := ast.Sexpr(prog); got != `(program (var a 1))` {
		t.Errorf("got %s", got)
	}
}

func TestParseTooManyErrors(t *testing.T) {
	input := strings.Repeat("#var = 1\n", 60)

	_, p := parse(t, input)
	if p.ErrorCount() != maxParseErrors+1 {
		t.Fatalf("expected %d errors, got %d", maxParseErrors+1, p.ErrorCount())
	}
	last := p.Errors()[p.ErrorCount()-1]
	if last.Code != errors.E0008 {
		t.Errorf("expected last error %s, got %s", errors.E0008, last.Code)
	}
}

func TestParseDeepNesting(t *testing.T) {
	input := "#var x = " + strings.Repeat("(", 300) + "1" + strings.Repeat(")", 300)

	_, p := parse(t, input)
	if p.ErrorCount() != 1 {
		t.Fatalf("expected 1 error, got %d", p.ErrorCount())
	}
	if p.Errors()[0].Code != errors.E0007 {
		t.Errorf("expected %s, got %s", errors.E0007, p.Errors()[0].Code)
	}
}

// ============================================================================
// 入口函数
// ============================================================================

func TestParseEmptyTokens(t *testing.T) {
	prog, diags, err := Parse(nil)
	if !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if prog == nil {
		t.Fatal("expected a non-nil program")
	}
	if len(diags) != 0 {
		t.Errorf("expected no diagnostics, got %d", len(diags))
	}
}

func TestParseOnlyEOF(t *testing.T) {
	prog, diags, err := Parse([]token.Token{token.At(token.EOF, "", 1, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Statements) != 0 || len(diags) != 0 {
		t.Errorf("expected empty program, got %s with %d diagnostics", ast.Sexpr(prog), len(diags))
	}
}

func TestParseMissingEOF(t *testing.T) {
	tokens := []token.Token{
		token.At(token.HASH, "#", 1, 1),
		token.At(token.VAR, "var", 1, 2),
		token.At(token.IDENT, "x", 1, 6),
		token.At(token.ASSIGN, "=", 1, 8),
		token.At(token.NUMBER, "7", 1, 10),
	}

	prog, diags, err := Parse(tokens)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.Strings())
	}
	if got := ast.Sexpr(prog); got != `(program (var x 7))` {
		t.Errorf("got %s", got)
	}
}

func TestParseSource(t *testing.T) {
	prog, diags, err := ParseSource("#var x = 1 @ 2\n#print(x)", "src.sub")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diags) != 1 || diags[0].Code != errors.E0002 {
		t.Fatalf("expected one %s diagnostic, got %v", errors.E0002, diags.Strings())
	}
	if diags[0].Pos.Filename != "src.sub" {
		t.Errorf("expected filename src.sub, got %q", diags[0].Pos.Filename)
	}
	if got := ast.Sexpr(prog); got != `(program (var x 1) (call print x))` {
		t.Errorf("got %s", got)
	}
}
