// Package formatter 把 SUB 源码重新排版为统一风格：块内缩进、运算符两侧空格、
// 只保留必要的括号，注释和单个空行原样保留
package formatter

import (
	"github.com/tangzhangming/sub/internal/errors"
	"github.com/tangzhangming/sub/internal/lexer"
	"github.com/tangzhangming/sub/internal/parser"
)

// Format 格式化源代码。源码有词法或语法错误时返回这些错误，不做修改
func Format(source, filename string, options *Options) (string, error) {
	tokens, lexErrs := lexer.Tokenize(source, filename)
	prog, diags, err := parser.Parse(tokens)
	if err != nil {
		return "", err
	}

	var all errors.List
	for _, le := range lexErrs {
		all.Add(le.Diagnostic())
	}
	all.Append(diags)
	if all.HasErrors() {
		return "", all.Err()
	}

	printer := NewPrinter(options).WithSource(source, tokens)
	return printer.Print(prog), nil
}

// FormatWithDefaultOptions 使用默认选项格式化
func FormatWithDefaultOptions(source, filename string) (string, error) {
	return Format(source, filename, DefaultOptions())
}

// Changed 判断格式化是否会修改源码
func Changed(source, filename string, options *Options) (bool, error) {
	formatted, err := Format(source, filename, options)
	if err != nil {
		return false, err
	}
	return formatted != source, nil
}
