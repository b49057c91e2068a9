package formatter

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/config"
	"github.com/tangzhangming/sub/internal/errors"
	"github.com/tangzhangming/sub/internal/parser"
)

const messy = `// greeting
#const NAME = "sub"   // trailing


#function add(a,b)
#var s = (a+b)*2
    // inside
#return s
#end
#if add(1,2) > 3
#print("big")
#elif NAME == 'x'
#print(NAME)
#else
#print(-5)
#end
#while x<3
#x += 1
#end`

const tidy = `// greeting
#const NAME = "sub" // trailing

#function add(a, b)
    #var s = (a + b) * 2
    // inside
    #return s
#end
#if add(1, 2) > 3
    #print("big")
#elif NAME == "x"
    #print(NAME)
#else
    #print(-5)
#end
#while x < 3
    #x = x + 1
#end
`

func TestFormat(t *testing.T) {
	got, err := FormatWithDefaultOptions(messy, "messy.sub")
	be.Err(t, err, nil)
	be.Equal(t, got, tidy)
}

func TestFormatIsIdempotent(t *testing.T) {
	once, err := FormatWithDefaultOptions(messy, "messy.sub")
	be.Err(t, err, nil)
	twice, err := FormatWithDefaultOptions(once, "messy.sub")
	be.Err(t, err, nil)
	be.Equal(t, twice, once)

	changed, err := Changed(once, "messy.sub", DefaultOptions())
	be.Err(t, err, nil)
	be.True(t, !changed)
}

func TestFormatPreservesMeaning(t *testing.T) {
	src := "#var a = 1\n#var b = a - (2 - 3)\n#var c = (a * 2) + 1\n#var d = a / (b * c)\n#print(a || b && c)\n"
	got, err := FormatWithDefaultOptions(src, "expr.sub")
	be.Err(t, err, nil)
	be.Equal(t, got, "#var a = 1\n#var b = a - (2 - 3)\n#var c = a * 2 + 1\n#var d = a / (b * c)\n#print(a || b && c)\n")

	before, _, err := parser.ParseSource(src, "expr.sub")
	be.Err(t, err, nil)
	after, _, err := parser.ParseSource(got, "expr.sub")
	be.Err(t, err, nil)
	be.Equal(t, ast.Sexpr(after), ast.Sexpr(before))
}

func TestFormatNestedBlocks(t *testing.T) {
	src := "#for i in range(3)\n#if i == 1\n#print(i)\n// before end\n#end\n#end\n#embed js\n  console.log(1) // kept as is\n#endembed\n"
	got, err := FormatWithDefaultOptions(src, "nested.sub")
	be.Err(t, err, nil)
	be.Equal(t, got, "#for i in range(3)\n    #if i == 1\n        #print(i)\n        // before end\n    #end\n#end\n#embed js\n  console.log(1) // kept as is\n#endembed\n")
}

func TestFormatTabs(t *testing.T) {
	opts := FromConfig(config.FormatConfig{IndentStyle: "tabs"})
	got, err := Format("#while true\n#print(1)\n#end\n", "tabs.sub", opts)
	be.Err(t, err, nil)
	be.Equal(t, got, "#while true\n\t#print(1)\n#end\n")
}

func TestFormatWithoutComments(t *testing.T) {
	opts := DefaultOptions()
	opts.PreserveComments = false
	got, err := Format("// note\n#var x = 1 // why\n", "c.sub", opts)
	be.Err(t, err, nil)
	be.Equal(t, got, "#var x = 1\n")
}

func TestFormatSyntaxError(t *testing.T) {
	_, err := FormatWithDefaultOptions("#var = 1\n", "bad.sub")
	be.True(t, err != nil)
	be.True(t, len(errors.FromError(err)) > 0)
}

func TestScanComments(t *testing.T) {
	src := "#print(\"// not a comment\") // real\n// own line\n#embed py\n# // skipped\n#endembed\n"
	got := scanComments(src)
	be.Equal(t, got, []comment{
		{line: 1, text: "// real", trailing: true},
		{line: 2, text: "// own line"},
	})
}

func TestPrintWithoutSource(t *testing.T) {
	prog, _, err := parser.ParseSource("#function f(x)\n#return x*2\n#end\n", "f.sub")
	be.Err(t, err, nil)
	got := NewPrinter(nil).Print(prog)
	be.Equal(t, got, "#function f(x)\n    #return x * 2\n#end\n")
}
