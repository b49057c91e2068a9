package golden

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nalgeon/be"
)

const fence = "```"

func TestExtractTestCases(t *testing.T) {
	markdown := `# Declarations

Some prose that is ignored.

## Test: var with sum
` + fence + `sub
#var x = 3 + 4
` + fence + `
` + fence + `ast
(program (var x (+ 3 4)))
` + fence + `
` + fence + `ir
ALLOC x

CONST_INT r0, 3
` + fence + `

## Test: folded
` + fence + `sub opt=1
#var z = 2 * 3
` + fence + `
` + fence + `errors
` + fence + `
`

	cases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 2)

	tc := cases[0]
	be.Equal(t, tc.Name, "var with sum")
	be.Equal(t, tc.Input, "#var x = 3 + 4")
	be.Equal(t, tc.OptLevel, 0)
	be.Equal(t, len(tc.Assertions), 2)
	be.Equal(t, tc.Assertions[0].Type, AssertAST)
	be.Equal(t, tc.Assertions[0].Content, "(program (var x (+ 3 4)))")
	be.Equal(t, tc.Assertions[1].Type, AssertIR)
	be.Equal(t, tc.Assertions[1].Lines(), []string{"ALLOC x", "CONST_INT r0, 3"})

	tc = cases[1]
	be.Equal(t, tc.Name, "folded")
	be.Equal(t, tc.OptLevel, 1)
	be.Equal(t, tc.Assertions[0].Type, AssertErrors)
	be.Equal(t, len(tc.Assertions[0].Lines()), 0)
}

func TestExtractTestCasesErrors(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{
			"fence outside test",
			fence + "sub\n#print(1)\n" + fence + "\n",
			"sub fence found outside of test case",
		},
		{
			"no input",
			"## Test: empty\n" + fence + "ir\nRETURN 0\n" + fence + "\n",
			"test 'empty' has no input fence",
		},
		{
			"no assertions",
			"## Test: lonely\n" + fence + "sub\n#print(1)\n" + fence + "\n",
			"test 'lonely' has no assertion fences",
		},
		{
			"two inputs",
			"## Test: twice\n" + fence + "sub\n#print(1)\n" + fence + "\n" + fence + "sub\n#print(2)\n" + fence + "\n",
			"multiple input fences found in test 'twice'",
		},
		{
			"unknown fence",
			"## Test: odd\n" + fence + "sub\n#print(1)\n" + fence + "\n" + fence + "wasm\n" + fence + "\n",
			"unknown fence language 'wasm' in test 'odd'",
		},
		{
			"bad opt level",
			"## Test: opt\n" + fence + "sub opt=7\n#print(1)\n" + fence + "\n" + fence + "errors\n" + fence + "\n",
			`invalid optimization level "7"`,
		},
		{
			"unknown attribute",
			"## Test: attr\n" + fence + "sub fast\n#print(1)\n" + fence + "\n" + fence + "errors\n" + fence + "\n",
			`unknown fence attribute "fast"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractTestCases(tt.markdown)
			be.Err(t, err, tt.want)
		})
	}
}

func TestUnlabelledFencesAreIgnored(t *testing.T) {
	markdown := fence + "\nplain text\n" + fence + "\n\n## Test: ok\n" + fence + "sub\n#print(1)\n" + fence + "\n" + fence + "\nnote\n" + fence + "\n" + fence + "errors\n" + fence + "\n"

	cases, err := ExtractTestCases(markdown)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 1)
	be.Equal(t, len(cases[0].Assertions), 1)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		be.Err(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644), nil)
	}
	write("b.md", "## Test: second\n"+fence+"sub\n#print(2)\n"+fence+"\n"+fence+"errors\n"+fence+"\n")
	write("a.md", "## Test: first\n"+fence+"sub\n#print(1)\n"+fence+"\n"+fence+"errors\n"+fence+"\n")
	write("notes.txt", "ignored")

	cases, err := LoadDir(dir)
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 2)
	be.Equal(t, cases[0].Name, "first")
	be.Equal(t, cases[0].File, filepath.Join(dir, "a.md"))
	be.Equal(t, cases[1].Name, "second")

	write("c.md", "## Test: broken\n")
	_, err = LoadDir(dir)
	be.Err(t, err, "c.md")
}
