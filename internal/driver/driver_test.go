package driver

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/config"
	"github.com/tangzhangming/sub/internal/errors"
	"github.com/tangzhangming/sub/internal/golden"
	"github.com/tangzhangming/sub/internal/ir"
)

func compile(t *testing.T, d *Driver, src string) *Result {
	t.Helper()
	res, err := d.Compile(context.Background(), Unit{Name: "test.sub", Source: src})
	be.Err(t, err, nil)
	return res
}

// irLines 把模块展开为 main 的指令列表，其余函数以 "Function: 名称" 开头
func irLines(m *ir.Module) []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, fn := range m.Functions {
		if fn.Name != ir.EntryPoint {
			out = append(out, "Function: "+fn.Name)
		}
		out = append(out, fn.Listing()...)
	}
	return out
}

// ============================================================================
// 黄金用例
// ============================================================================

func TestGolden(t *testing.T) {
	cases, err := golden.LoadDir("testdata")
	be.Err(t, err, nil)
	be.True(t, len(cases) > 0)

	for _, tc := range cases {
		name := strings.TrimSuffix(filepath.Base(tc.File), ".md") + "/" + tc.Name
		t.Run(name, func(t *testing.T) {
			d := New(nil, WithOptLevel(tc.OptLevel), WithStrict(false))
			res := compile(t, d, tc.Input+"\n")

			for _, a := range tc.Assertions {
				var got []string
				switch a.Type {
				case golden.AssertAST:
					got = []string{ast.Sexpr(res.Program)}
				case golden.AssertIR:
					got = irLines(res.Module)
				case golden.AssertErrors:
					got = res.Diagnostics.Errors().Strings()
				case golden.AssertWarnings:
					got = res.Diagnostics.Warnings().Strings()
				}

				want := a.Lines()
				if len(got) == 0 && len(want) == 0 {
					continue
				}
				if len(got) != len(want) {
					t.Fatalf("%s (line %d): got %d lines, want %d\ngot:\n%s", a.Type, a.Line, len(got), len(want), strings.Join(got, "\n"))
				}
				be.Equal(t, got, want)
			}
		})
	}
}

// ============================================================================
// 流水线
// ============================================================================

func TestCompileScenario(t *testing.T) {
	res := compile(t, New(nil), "#var x = 3 + 4\n#print(x)\n")

	be.Equal(t, res.Stage, StageLower)
	be.True(t, !res.HasErrors())
	be.Err(t, res.Err(), nil)
	be.Equal(t, ast.Sexpr(res.Program), "(program (var x 7) (call print x))")
	be.Equal(t, res.Module.Function("main").Listing(), []string{
		"ALLOC x",
		"CONST_INT r0, 7",
		"STORE x, r0",
		"LOAD r1, x",
		"PRINT r1",
		"RETURN 0",
	})
	be.Equal(t, res.Optimizer.PerPassChanges["constant-folding"], 1)
	be.True(t, res.Analysis != nil)
	be.True(t, len(res.Tokens) > 0)
}

func TestStrictStopsBeforeLowering(t *testing.T) {
	res := compile(t, New(nil), "#var y = x\n")

	be.Equal(t, res.Stage, StageAnalyze)
	be.True(t, res.Module == nil)
	be.True(t, res.HasErrors())

	err := res.Err()
	be.Err(t, err, "test.sub failed with 1 error(s)")
	be.Err(t, err, "undefined variable 'x'")

	back := errors.FromError(err)
	be.Equal(t, len(back), 1)
	be.Equal(t, back[0].Code, errors.E0100)
}

func TestStrictStopsAfterOptimizerErrors(t *testing.T) {
	res := compile(t, New(nil, WithOptLevel(1)), "#print(10 / 0)\n")

	be.Equal(t, res.Stage, StageOptimize)
	be.True(t, res.Module == nil)
	be.Equal(t, res.Diagnostics.Errors().Strings(), []string{"Error [1:11]: division by constant zero"})

	lenient := compile(t, New(nil, WithOptLevel(1), WithStrict(false)), "#print(10 / 0)\n")
	be.Equal(t, lenient.Stage, StageLower)
	be.True(t, lenient.Module != nil)
}

func TestLenientLowersDespiteErrors(t *testing.T) {
	res := compile(t, New(nil, WithStrict(false)), "#var y = x\n")

	be.Equal(t, res.Stage, StageLower)
	be.True(t, res.HasErrors())
	be.True(t, res.Module != nil)
}

func TestParseErrorsAreDiagnostics(t *testing.T) {
	res := compile(t, New(nil), "#var = 5\n#print(1)\n")

	be.True(t, res.HasErrors())
	be.Equal(t, res.Stage, StageAnalyze)
	be.True(t, res.Program != nil)
}

func TestLexErrorsAreDiagnostics(t *testing.T) {
	res := compile(t, New(nil, WithStrict(false)), "#var s = \"open\n")

	be.True(t, res.HasErrors())
	be.Equal(t, res.Diagnostics.Errors()[0].Pos.Line, 1)
}

func TestOptLevelFromConfig(t *testing.T) {
	cfg := config.Default("/proj")
	cfg.Build.OptLevel = 0

	d := New(cfg)
	be.Equal(t, d.OptLevel(), 0)

	res := compile(t, d, "#var x = 3 + 4\n#print(x)\n")
	be.Equal(t, ast.Sexpr(res.Program), "(program (var x (+ 3 4)) (call print x))")
	be.Equal(t, res.Optimizer.PassesRun, 0)

	be.Equal(t, New(cfg, WithOptLevel(2)).OptLevel(), 2)
}

func TestMaxInlineFromConfig(t *testing.T) {
	src := "#function two(a)\n#print(a)\n#print(a)\n#end\n#two(1)\n"

	cfg := config.Default("/proj")
	cfg.Build.OptLevel = 3
	cfg.Build.MaxInlineStatements = 1
	res := compile(t, New(cfg), src)
	be.True(t, strings.HasSuffix(ast.Sexpr(res.Program), "(call two 1))"))

	cfg.Build.MaxInlineStatements = 8
	res = compile(t, New(cfg), src)
	be.True(t, !strings.Contains(ast.Sexpr(res.Program), "(call two 1)"))
}

func TestCheck(t *testing.T) {
	d := New(nil, WithStrict(false), WithOptLevel(3))

	res, err := d.Check(context.Background(), Unit{Name: "a.sub", Source: "#var x = 1 + 2\n#print(x)\n"})
	be.Err(t, err, nil)
	be.Equal(t, res.Stage, StageAnalyze)
	be.True(t, res.Module == nil)
	// 检查不修改语法树
	be.Equal(t, ast.Sexpr(res.Program), "(program (var x (+ 1 2)) (call print x))")

	// 原驱动器的设置不受影响
	be.Equal(t, d.OptLevel(), 3)
}

func TestCompileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(nil).Compile(ctx, Unit{Name: "a.sub", Source: "#print(1)\n"})
	be.Err(t, err, context.Canceled)
	be.Equal(t, res.Stage, StageLex)
	be.True(t, res.Program == nil)
}

func TestCompileTokensEmpty(t *testing.T) {
	_, err := New(nil).CompileTokens(context.Background(), "empty", nil)
	be.True(t, stderrors.Is(err, errors.ErrInvalidInput))
}

func TestStageString(t *testing.T) {
	be.Equal(t, StageOptimize.String(), "optimize")
	be.Equal(t, Stage(42).String(), "Stage(42)")
}

// ============================================================================
// 批量编译
// ============================================================================

func TestCompileAllKeepsOrder(t *testing.T) {
	var units []Unit
	for i := 0; i < 20; i++ {
		units = append(units, Unit{
			Name:   fmt.Sprintf("u%02d.sub", i),
			Source: fmt.Sprintf("#print(%d)\n", i),
		})
	}

	results, err := New(nil).CompileAll(context.Background(), units)
	be.Err(t, err, nil)
	be.Equal(t, len(results), len(units))
	for i, res := range results {
		be.Equal(t, res.Unit, units[i].Name)
		be.Equal(t, res.Module.Function("main").Listing()[0], fmt.Sprintf("CONST_INT r0, %d", i))
	}
}

func TestCompileAllReportsFatalErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	units := []Unit{{Name: "a.sub", Source: "#print(1)\n"}, {Name: "b.sub", Source: "#print(2)\n"}}
	results, err := New(nil).CompileAll(ctx, units)
	be.Err(t, err, context.Canceled)
	be.Equal(t, len(results), 2)
}

// ============================================================================
// 日志
// ============================================================================

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := New(nil, WithLogger(zap.New(core)))

	compile(t, d, "#print(1)\n")

	stages := logs.FilterMessage("stage finished").All()
	be.Equal(t, len(stages), 5)
	be.Equal(t, stages[0].ContextMap()["stage"], "lex")
	be.Equal(t, stages[4].ContextMap()["stage"], "lower")
	be.Equal(t, stages[4].ContextMap()["unit"], "test.sub")

	compile(t, d, "#print(x)\n")
	be.Equal(t, logs.FilterMessage("strict mode: skipping lowering").Len(), 1)

	_, err := d.CompileAll(context.Background(), []Unit{{Name: "a.sub", Source: "#print(1)\n"}})
	be.Err(t, err, nil)
	batch := logs.FilterMessage("batch compiled").All()
	be.Equal(t, len(batch), 1)
	be.Equal(t, batch[0].ContextMap()["units"], any(int64(1)))
	be.Equal(t, batch[0].ContextMap()["failed"], any(int64(0)))
}
