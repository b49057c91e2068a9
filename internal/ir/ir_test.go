package ir

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/segmentio/encoding/json"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/errors"
	"github.com/tangzhangming/sub/internal/optimizer"
	"github.com/tangzhangming/sub/internal/parser"
	"github.com/tangzhangming/sub/internal/token"
)

func lower(t *testing.T, src string) *Module {
	t.Helper()
	prog, diags, err := parser.ParseSource(src, "")
	be.Err(t, err, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.Strings())
	}
	m, err := Lower(prog)
	be.Err(t, err, nil)
	be.Err(t, m.Verify(), nil)
	return m
}

func mainListing(t *testing.T, src string) []string {
	t.Helper()
	return lower(t, src).Function("main").Listing()
}

// ============================================================================
// 基本降级
// ============================================================================

func TestLowerVarDecl(t *testing.T) {
	m := lower(t, "#var x = 3 + 4")
	main := m.Function("main")

	be.Equal(t, main.Listing(), []string{
		"ALLOC x",
		"CONST_INT r0, 3",
		"CONST_INT r1, 4",
		"ADD r2, r0, r1",
		"STORE x, r2",
		"RETURN 0",
	})
	be.Equal(t, main.LocalCount, 1)
	be.Equal(t, main.RegisterCount, 3)
	be.Equal(t, main.ReturnType, Int)
}

func TestDump(t *testing.T) {
	m := lower(t, "#var x = 3 + 4")

	want := `=== IR Module ===
Entry point: main

Function: main
  Locals: 1
  Registers: 3
  Instructions:
    ALLOC x
    CONST_INT r0, 3
    CONST_INT r1, 4
    ADD r2, r0, r1
    STORE x, r2
    RETURN 0

Globals:
  x -> local 0
`
	be.Equal(t, m.Dump(), want)
}

func TestLowerAfterFolding(t *testing.T) {
	prog, _, err := parser.ParseSource("#var z = 2 * 3", "")
	be.Err(t, err, nil)
	optimizer.Optimize(prog, 1)

	m, err := Lower(prog)
	be.Err(t, err, nil)

	listing := m.Function("main").Listing()
	be.Equal(t, listing, []string{"ALLOC z", "CONST_INT r0, 6", "STORE z, r0", "RETURN 0"})
	for _, line := range listing {
		be.True(t, !strings.HasPrefix(line, "MUL"))
	}
}

func TestLowerNilProgram(t *testing.T) {
	m, err := Lower(nil)
	be.True(t, m == nil)
	be.Err(t, err, errors.ErrInvalidInput)
}

func TestLowerEmptyProgram(t *testing.T) {
	m := lower(t, "")
	be.Equal(t, len(m.Functions), 1)
	be.Equal(t, m.Function("main").Listing(), []string{"RETURN 0"})
}

func TestExplicitReturnInMain(t *testing.T) {
	be.Equal(t, mainListing(t, "#return 5"), []string{"CONST_INT r0, 5", "RETURN r0"})
	be.Equal(t, mainListing(t, "#print(1)\n#return"), []string{"CONST_INT r0, 1", "PRINT r0", "RETURN"})
}

func TestLeftToRightOrder(t *testing.T) {
	got := mainListing(t, "#var a = 1\n#var b = 2\n#var c = 3\n#print(a - b * c)")

	be.Equal(t, got, []string{
		"ALLOC a", "CONST_INT r0, 1", "STORE a, r0",
		"ALLOC b", "CONST_INT r1, 2", "STORE b, r1",
		"ALLOC c", "CONST_INT r2, 3", "STORE c, r2",
		"LOAD r3, a",
		"LOAD r4, b",
		"LOAD r5, c",
		"MUL r6, r4, r5",
		"SUB r7, r3, r6",
		"PRINT r7",
		"RETURN 0",
	})
}

func TestLowerLiterals(t *testing.T) {
	m := lower(t, "#print(\"hi\")\n#print(\"hi\")\n#print(2.5)\n#print(true)\n#print(null)\n#print(0x1F)\n#print(1_000)")

	be.Equal(t, m.Function("main").Listing(), []string{
		`CONST_STRING r0, "hi"`, "PRINT r0",
		`CONST_STRING r1, "hi"`, "PRINT r1",
		"CONST_FLOAT r2, 2.5", "PRINT r2",
		"CONST_INT r3, 1", "PRINT r3",
		"CONST_INT r4, 0  ; null", "PRINT r4",
		"CONST_INT r5, 31", "PRINT r5",
		"CONST_INT r6, 1000", "PRINT r6",
		"RETURN 0",
	})
	be.Equal(t, m.StringLiterals, []string{"hi"})
	be.Equal(t, m.Function("main").Instructions[0].Src1.Index, 0)
}

func TestPrintUsesLastArgument(t *testing.T) {
	be.Equal(t, mainListing(t, "#print(1, 2)\n#print()"), []string{
		"CONST_INT r0, 1",
		"CONST_INT r1, 2",
		"PRINT r1",
		"PRINT",
		"RETURN 0",
	})
}

func TestLenientLowering(t *testing.T) {
	var pos token.Position
	prog := ast.NewProgram(pos,
		ast.NewVarDecl(pos, "n", ast.NewNumber(pos, "1.2.3")),
		ast.NewVarDecl(pos, "m", ast.NewBinaryExpr(pos, "^", ast.NewNumber(pos, "1"), ast.NewNumber(pos, "2"))),
		ast.NewVarDecl(pos, "empty", nil),
		ast.NewIfStmt(pos, nil, nil, nil),
		ast.NewWhileStmt(pos, nil, nil),
		ast.NewForStmt(pos, "i", nil, nil),
		ast.NewAssignStmt(pos, "n", nil),
		ast.NewReturnStmt(pos, ast.NewBinaryExpr(pos, "+", nil, ast.NewNumber(pos, "1"))),
	)

	m, err := Lower(prog)
	be.Err(t, err, nil)
	be.Equal(t, m.Function("main").Listing(), []string{
		"ALLOC n",
		`CONST_INT r0, 0  ; malformed number "1.2.3"`,
		"STORE n, r0",
		"ALLOC m",
		"CONST_INT r1, 1",
		"CONST_INT r2, 2",
		`ADD r3, r1, r2  ; unknown operator "^"`,
		"STORE m, r3",
		"ALLOC empty",
		"JUMP if_0_end",
		"LABEL if_0_else",
		"LABEL if_0_end",
		"LABEL while_1_head",
		"JUMP while_1_head",
		"LABEL while_1_end",
		"CONST_INT r4, 1",
		"ADD r5, r4",
		"RETURN r5",
	})
	be.Err(t, m.Verify(), nil)
}

// ============================================================================
// 控制流
// ============================================================================

func TestLowerIf(t *testing.T) {
	got := mainListing(t, "#var x = 1\n#if x > 0\n#print(1)\n#else\n#print(2)\n#end")

	be.Equal(t, got, []string{
		"ALLOC x", "CONST_INT r0, 1", "STORE x, r0",
		"LOAD r1, x",
		"CONST_INT r2, 0",
		"CMP_GT r3, r1, r2",
		"JUMP_IF_FALSE r3, if_0_else",
		"CONST_INT r4, 1", "PRINT r4",
		"JUMP if_0_end",
		"LABEL if_0_else",
		"CONST_INT r5, 2", "PRINT r5",
		"LABEL if_0_end",
		"RETURN 0",
	})
}

func TestLowerElifChain(t *testing.T) {
	got := mainListing(t, "#if a\n#print(1)\n#elif b\n#print(2)\n#end")

	be.Equal(t, got, []string{
		"LOAD_GLOBAL r0, a",
		"JUMP_IF_FALSE r0, if_0_else",
		"CONST_INT r1, 1", "PRINT r1",
		"JUMP if_0_end",
		"LABEL if_0_else",
		"LOAD_GLOBAL r2, b",
		"JUMP_IF_FALSE r2, if_1_else",
		"CONST_INT r3, 2", "PRINT r3",
		"JUMP if_1_end",
		"LABEL if_1_else",
		"LABEL if_1_end",
		"LABEL if_0_end",
		"RETURN 0",
	})
}

func TestLowerWhile(t *testing.T) {
	got := mainListing(t, "#var i = 0\n#while i < 3\n#i += 1\n#end")

	be.Equal(t, got, []string{
		"ALLOC i", "CONST_INT r0, 0", "STORE i, r0",
		"LABEL while_0_head",
		"LOAD r1, i",
		"CONST_INT r2, 3",
		"CMP_LT r3, r1, r2",
		"JUMP_IF_FALSE r3, while_0_end",
		"LOAD r4, i",
		"CONST_INT r5, 1",
		"ADD r6, r4, r5",
		"STORE i, r6",
		"JUMP while_0_head",
		"LABEL while_0_end",
		"RETURN 0",
	})
}

func TestLowerFor(t *testing.T) {
	got := mainListing(t, "#for i in range(3)\n#print(i)\n#end")

	be.Equal(t, got, []string{
		"CONST_INT r0, 3",
		"CONST_INT r1, 0",
		"ALLOC i",
		"STORE i, r1",
		"LABEL for_0_head",
		"LOAD r2, i",
		"CMP_LT r3, r2, r0",
		"JUMP_IF_FALSE r3, for_0_end",
		"LOAD r4, i",
		"PRINT r4",
		"LOAD r5, i",
		"CONST_INT r6, 1",
		"ADD r7, r5, r6",
		"STORE i, r7",
		"JUMP for_0_head",
		"LABEL for_0_end",
		"RETURN 0",
	})
}

func TestLowerForRangeWithStart(t *testing.T) {
	got := mainListing(t, "#for i in range(2, 5)\n#end")

	be.Equal(t, got[:4], []string{"CONST_INT r0, 2", "CONST_INT r1, 5", "ALLOC i", "STORE i, r0"})
	be.True(t, containsLine(got, "CMP_LT r3, r2, r1"))
}

func TestLowerForOverValue(t *testing.T) {
	got := mainListing(t, "#var n = 4\n#for i in n\n#end")
	be.Equal(t, got[:6], []string{"ALLOC n", "CONST_INT r0, 4", "STORE n, r0", "LOAD r1, n", "CONST_INT r2, 0", "ALLOC i"})
}

func TestLowerForWithoutIterable(t *testing.T) {
	be.Equal(t, mainListing(t, "#for i\n#print(42)\n#end"), []string{
		"CONST_INT r0, 0",
		"ALLOC i",
		"STORE i, r0",
		"CONST_INT r1, 42",
		"PRINT r1",
		"RETURN 0",
	})

	got := mainListing(t, "#for 5 6\n#var y = 1\n#print(y)\n#end\n#print(2)")
	be.Equal(t, got, []string{
		"ALLOC y",
		"CONST_INT r0, 1",
		"STORE y, r0",
		"LOAD r1, y",
		"PRINT r1",
		"CONST_INT r2, 2",
		"PRINT r2",
		"RETURN 0",
	})
}

func TestBlockScopes(t *testing.T) {
	m := lower(t, "#var x = 1\n#if true\n#var x = 2\n#print(x)\n#end\n#print(x)")
	main := m.Function("main")

	var slots []int
	for _, inst := range main.Instructions {
		if inst.Op == OpLoad {
			slots = append(slots, inst.Src1.Index)
		}
	}
	be.Equal(t, slots, []int{1, 0})
	be.Equal(t, main.LocalCount, 2)
}

func TestInitializerSeesOuterBinding(t *testing.T) {
	m := lower(t, "#var x = 1\n#if true\n#var x = x + 1\n#end")
	for _, inst := range m.Function("main").Instructions {
		if inst.Op == OpLoad {
			be.Equal(t, inst.Src1.Index, 0)
		}
	}
}

func containsLine(lines []string, want string) bool {
	for _, l := range lines {
		if l == want {
			return true
		}
	}
	return false
}

// ============================================================================
// 函数
// ============================================================================

func TestLowerFunction(t *testing.T) {
	m := lower(t, "#function add(a, b)\n#return a + b\n#end\n#print(add(1, 2))")
	be.Equal(t, len(m.Functions), 2)

	be.Equal(t, m.Function("main").Listing(), []string{
		"CONST_INT r0, 1",
		"CONST_INT r1, 2",
		"CALL r2, add, r0, r1",
		"PRINT r2",
		"RETURN 0",
	})

	add := m.Function("add")
	be.Equal(t, add.Listing(), []string{
		"ALLOC a", "STORE a, r0",
		"ALLOC b", "STORE b, r1",
		"LOAD r2, a",
		"LOAD r3, b",
		"ADD r4, r2, r3",
		"RETURN r4",
	})
	be.Equal(t, len(add.Params), 2)
	be.Equal(t, add.Params[1].Name, "b")
	be.Equal(t, add.LocalCount, 2)
	be.Equal(t, add.RegisterCount, 5)
	be.Equal(t, add.ReturnType, Int)
	be.True(t, strings.Contains(m.Dump(), "  Params: r0 a, r1 b\n"))
}

func TestFunctionGlobals(t *testing.T) {
	m := lower(t, "#var g = 1\n#function f()\n#g = g + 1\n#end\n#f()")

	be.Equal(t, m.Function("f").Listing(), []string{
		"LOAD_GLOBAL r0, g",
		"CONST_INT r1, 1",
		"ADD r2, r0, r1",
		"STORE g, r2  ; global",
		"RETURN",
	})
	be.Equal(t, m.Function("main").Listing(), []string{
		"ALLOC g", "CONST_INT r0, 1", "STORE g, r0",
		"CALL r1, f",
		"RETURN 0",
	})
}

func TestModuleGlobals(t *testing.T) {
	m := lower(t, "#var g = 1\n#const N = 2\n#if true\n#var inner = 3\n#end\n#function f(p)\n#var tmp = p\n#g = tmp\n#end\n#f(N)")

	names := make([]string, len(m.Globals))
	for i, g := range m.Globals {
		names[i] = g.Name
	}
	be.Equal(t, names, []string{"g", "N"})

	slot, ok := m.Global("g")
	be.True(t, ok)
	be.Equal(t, slot.Kind, LocalKind)
	be.Equal(t, slot.Index, 0)
	n, _ := m.Global("N")
	be.Equal(t, n.Index, 1)

	_, ok = m.Global("inner")
	be.True(t, !ok)
	_, ok = m.Global("tmp")
	be.True(t, !ok)

	// 用户函数对全局的写入目标在 Globals 中有对应槽位
	for _, inst := range m.Function("f").Instructions {
		if inst.Op == OpStore && inst.Dest.Kind == LabelKind {
			_, ok := m.Global(inst.Dest.Name)
			be.True(t, ok)
		}
	}
}

func TestNestedFunctionsAreLoweredSeparately(t *testing.T) {
	m := lower(t, "#function outer()\n#function inner()\n#return 1\n#end\n#return inner()\n#end")

	var names []string
	for _, f := range m.Functions {
		names = append(names, f.Name)
	}
	be.Equal(t, names, []string{"main", "outer", "inner"})
	be.Equal(t, m.Function("main").Listing(), []string{"RETURN 0"})
}

func TestAnalyzedReturnType(t *testing.T) {
	var pos token.Position
	fn := ast.NewFunctionDecl(pos, "greet", nil, ast.NewBlock(pos))
	fn.ReturnType = ast.Void
	call := ast.NewCallExpr(pos, "name")
	call.SetType(ast.String)
	named := ast.NewFunctionDecl(pos, "name", nil, ast.NewBlock(pos, ast.NewReturnStmt(pos, ast.NewString(pos, "x"))))
	named.ReturnType = ast.String

	m, err := Lower(ast.NewProgram(pos, fn, named, ast.NewVarDecl(pos, "s", call)))
	be.Err(t, err, nil)
	be.Equal(t, m.Function("greet").ReturnType, Void)
	be.Equal(t, m.Function("name").ReturnType, String)
	be.Equal(t, m.Function("main").Instructions[1].Dest.Type, String)
}

// ============================================================================
// 不变量
// ============================================================================

const sample = `#var total = 0
#function square(n)
    #return n * n
#end
#for i in range(10)
    #if i % 2 == 0
        #total += square(i)
    #elif i > 7
        #print("big")
    #else
        #var tmp = i * 2
        #print(tmp)
    #end
#end
#while total > 100
    #total -= 1
#end
#print(total)`

func TestRegisterMonotonicity(t *testing.T) {
	m := lower(t, sample)

	for _, f := range m.Functions {
		last := len(f.Params) - 1
		seen := make(map[int]bool)
		for _, inst := range f.Instructions {
			if inst.Dest == nil || !inst.Dest.IsRegister() {
				continue
			}
			n := inst.Dest.Index
			be.True(t, !seen[n])
			be.True(t, n > last)
			seen[n] = true
			last = n
		}
		be.Equal(t, last, f.RegisterCount-1)
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	prog, _, err := parser.ParseSource(sample, "")
	be.Err(t, err, nil)

	g := NewGenerator()
	first, err := g.Generate(prog)
	be.Err(t, err, nil)
	second, err := g.Generate(prog)
	be.Err(t, err, nil)

	be.Equal(t, second.Dump(), first.Dump())
	be.Equal(t, len(second.StringLiterals), 1)
}

func TestVerifyRejectsBrokenFunctions(t *testing.T) {
	r0 := Register(0, Int, "")
	f := &Function{
		Name:          "broken",
		RegisterCount: 1,
		Instructions: []*Instruction{
			{Op: OpConstInt, Dest: &r0, Src1: valuePtr(IntConst(1))},
			{Op: OpConstInt, Dest: &r0, Src1: valuePtr(IntConst(2))},
			{Op: OpJump, Src1: valuePtr(Label("nowhere"))},
			{Op: OpLoad, Dest: valuePtr(Register(5, Int, "")), Src1: valuePtr(Local(0, "x"))},
		},
	}

	err := f.Verify()
	be.True(t, err != nil)
	msg := err.Error()
	be.True(t, strings.Contains(msg, "register r0 redefined"))
	be.True(t, strings.Contains(msg, "jump to undefined label nowhere"))
	be.True(t, strings.Contains(msg, "register r5 out of range"))
	be.True(t, strings.Contains(msg, "slot 0 out of range"))

	m := &Module{EntryPoint: "main"}
	be.Err(t, m.Verify(), "entry point not found")

	m = &Module{
		EntryPoint: "main",
		Functions:  []*Function{{Name: "main"}},
		Globals:    []Global{{Name: "x", Slot: Local(0, "x")}},
	}
	be.Err(t, m.Verify(), "global x has no slot in entry function")
}

// ============================================================================
// JSON
// ============================================================================

func TestModuleJSON(t *testing.T) {
	m := lower(t, "#var s = \"hi\"\n#print(s)")

	data, err := m.JSON()
	be.Err(t, err, nil)

	var decoded struct {
		EntryPoint string `json:"entry_point"`
		Functions  []struct {
			Name         string `json:"name"`
			LocalCount   int    `json:"local_count"`
			Instructions []struct {
				Op   string                 `json:"op"`
				Dest map[string]interface{} `json:"dest"`
				Src1 map[string]interface{} `json:"src1"`
			} `json:"instructions"`
		} `json:"functions"`
		Globals []struct {
			Name string                 `json:"name"`
			Slot map[string]interface{} `json:"slot"`
		} `json:"globals"`
		StringLiterals []string `json:"string_literals"`
	}
	be.Err(t, json.Unmarshal(data, &decoded), nil)

	be.Equal(t, len(decoded.Globals), 1)
	be.Equal(t, decoded.Globals[0].Name, "s")
	be.Equal(t, decoded.Globals[0].Slot["kind"], "local")

	be.Equal(t, decoded.EntryPoint, "main")
	be.Equal(t, decoded.StringLiterals, []string{"hi"})
	be.Equal(t, decoded.Functions[0].LocalCount, 1)

	insts := decoded.Functions[0].Instructions
	be.Equal(t, insts[0].Op, "ALLOC")
	be.Equal(t, insts[0].Dest["kind"], "local")
	be.Equal(t, insts[0].Dest["name"], "s")
	be.Equal(t, insts[1].Op, "CONST_STRING")
	be.Equal(t, insts[1].Src1["text"], "hi")
	be.Equal(t, insts[1].Dest["type"], "string")
}
