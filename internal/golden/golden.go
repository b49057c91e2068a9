// Package golden 从 Markdown 文件中提取编译器的黄金测试用例
//
// 用例格式：
//
//	## Test: 名称
//	```sub opt=1
//	#var x = 3 + 4
//	```
//	```ir
//	ALLOC x
//	...
//	```
//
// 每个用例有且只有一个 sub 输入代码块，以及至少一个断言代码块。
package golden

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputFence 输入代码块的语言名
const InputFence = "sub"

// AssertionType 断言代码块的语言名
type AssertionType string

const (
	AssertAST      AssertionType = "ast"      // 语法树的 S 表达式
	AssertIR       AssertionType = "ir"       // main 函数的指令列表
	AssertErrors   AssertionType = "errors"   // 错误诊断，每行一条
	AssertWarnings AssertionType = "warnings" // 警告诊断，每行一条
)

func isAssertionFence(language string) bool {
	switch AssertionType(language) {
	case AssertAST, AssertIR, AssertErrors, AssertWarnings:
		return true
	}
	return false
}

// Assertion 一个断言代码块
type Assertion struct {
	Type    AssertionType
	Content string
	Line    int // 代码块在文件中的行号
}

// Lines 按行拆分断言内容，忽略空行
func (a Assertion) Lines() []string {
	var out []string
	for _, l := range strings.Split(a.Content, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, strings.TrimRight(l, " \t"))
		}
	}
	return out
}

// TestCase 一个黄金测试用例
type TestCase struct {
	Name       string
	File       string // 来源文件
	Input      string
	OptLevel   int // 输入代码块上的 opt=N
	Assertions []Assertion
}

// ExtractTestCases 解析 Markdown 文档并提取所有用例
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	md := goldmark.New()
	source := []byte(markdownContent)
	doc := md.Parser().Parse(text.NewReader(source))

	var cases []TestCase
	var current *TestCase

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := extractTextFromNode(n, source)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if current != nil {
				if err := validateTestCase(current); err != nil {
					return ast.WalkStop, err
				}
				cases = append(cases, *current)
			}
			current = &TestCase{Name: strings.TrimPrefix(heading, "Test: ")}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			line := getLineNumber(n, source)
			if language == "" {
				return ast.WalkContinue, nil
			}
			if current == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", line, language)
			}

			content := strings.TrimRight(extractCodeBlockContent(n, source), "\n")
			switch {
			case language == InputFence:
				if current.Input != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple input fences found in test '%s'", line, current.Name)
				}
				opt, err := parseInfo(n, source)
				if err != nil {
					return ast.WalkStop, fmt.Errorf("line %d: %w", line, err)
				}
				current.Input = content
				current.OptLevel = opt
			case isAssertionFence(language):
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionType(language),
					Content: content,
					Line:    line,
				})
			default:
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, language, current.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}

	if current != nil {
		if err := validateTestCase(current); err != nil {
			return nil, err
		}
		cases = append(cases, *current)
	}
	return cases, nil
}

// parseInfo 解析输入代码块信息串中的 opt=N
func parseInfo(n *ast.FencedCodeBlock, source []byte) (int, error) {
	if n.Info == nil {
		return 0, nil
	}
	fields := strings.Fields(string(n.Info.Segment.Value(source)))
	opt := 0
	for _, f := range fields[1:] {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key != "opt" {
			return 0, fmt.Errorf("unknown fence attribute %q", f)
		}
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 || v > 3 {
			return 0, fmt.Errorf("invalid optimization level %q", value)
		}
		opt = v
	}
	return opt, nil
}

// LoadFile 读取一个 Markdown 文件中的用例
func LoadFile(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cases, err := ExtractTestCases(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for i := range cases {
		cases[i].File = path
	}
	return cases, nil
}

// LoadDir 读取目录下所有 .md 文件中的用例，按文件名排序
func LoadDir(dir string) ([]TestCase, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var all []TestCase
	for _, p := range paths {
		cases, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, cases...)
	}
	return all, nil
}

// extractTextFromNode extracts plain text content from a markdown node
func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func validateTestCase(tc *TestCase) error {
	if tc.Input == "" {
		return fmt.Errorf("test '%s' has no input fence", tc.Name)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	return nil
}

func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	line := 1
	for i := 0; i < start && i < len(source); i++ {
		if source[i] == '\n' {
			line++
		}
	}
	return line
}
