package repl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"github.com/tangzhangming/sub/internal/driver"
)

// run 把 input 交给新的 REPL 并返回全部输出
func run(t *testing.T, input string) (*REPL, string) {
	t.Helper()
	var out bytes.Buffer
	cfg := DefaultConfig()
	cfg.NoColor = true
	r := New(driver.New(nil), strings.NewReader(input), &out, cfg)
	be.Err(t, r.Run(context.Background()), nil)
	return r, out.String()
}

func TestDeclarationsShowTypes(t *testing.T) {
	r, out := run(t, "#var x = 40 + 2\n#const NAME = \"sub\"\n#function add(a, b)\n#return a + b\n#end\n#print(add(x, 1))\n:quit\n")

	be.True(t, strings.Contains(out, "x: int\n"))
	be.True(t, strings.Contains(out, "const NAME: string\n"))
	be.True(t, strings.Contains(out, "function add(a, b)"))
	be.True(t, strings.Contains(out, "... "))
	be.True(t, strings.HasSuffix(out, "Bye!\n"))
	be.Equal(t, len(r.session), 6)
	be.Equal(t, len(r.history), 4)
}

func TestErrorsAreRejected(t *testing.T) {
	r, out := run(t, "#var x = 1\n#print(y)\n#print(x)\n")

	be.True(t, strings.Contains(out, "undefined variable 'y'"))
	// 行号相对于本次输入
	be.True(t, strings.Contains(out, "<repl>:1:8"))
	be.Equal(t, r.session, []string{"#var x = 1", "#print(x)"})
	be.True(t, strings.HasSuffix(out, "Bye!\n"))
}

func TestUnusedVariablesAreNotReported(t *testing.T) {
	_, out := run(t, "#var lonely = 1\n")
	be.True(t, !strings.Contains(out, "never used"))
}

func TestReset(t *testing.T) {
	r, out := run(t, "#var x = 1\n:reset\n#print(x)\n")
	be.True(t, strings.Contains(out, "Session reset."))
	be.True(t, strings.Contains(out, "undefined variable 'x'"))
	be.Equal(t, len(r.session), 0)
}

func TestCommands(t *testing.T) {
	_, out := run(t, "#var x = 1 + 2\n#print(x)\n:env\n:ast\n:ir\n:source\n:bogus\n")

	be.True(t, strings.Contains(out, "(program (var x (+ 1 2)) (call print x))"))
	be.True(t, strings.Contains(out, "=== IR Module ==="))
	be.True(t, strings.Contains(out, "   1  #var x = 1 + 2\n"))
	be.True(t, strings.Contains(out, "Unknown command: :bogus"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.sub")
	be.Err(t, os.WriteFile(path, []byte("#function double(n)\n#return n * 2\n#end\n"), 0644), nil)

	r, out := run(t, ":load "+path+"\n#print(double(4))\n")
	be.True(t, strings.Contains(out, "function double(n)"))
	be.True(t, strings.Contains(out, "Loaded: "+path))
	be.Equal(t, len(r.session), 4)
}

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"#var x = 1", false},
		{"#function f()", true},
		{"#function f()\n#if x\n#end", true},
		{"#function f()\n#if x\n#end\n#end", false},
		{"#print(1,", true},
		{"#print(\"(\")", false},
		{"#var s = \"open", true},
		{"#print(1) // (", false},
		{"#embed js\nif (x) {", true},
		{"#embed js\nif (x) {\n#endembed", false},
		{"end", false},
	}

	for _, tt := range tests {
		be.Equal(t, needsMoreInput(tt.input), tt.want)
	}
}
