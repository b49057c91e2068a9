package errors

import (
	stderrors "errors"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/tangzhangming/sub/internal/i18n"
	"github.com/tangzhangming/sub/internal/token"
)

// ErrInvalidInput 致命输入错误：空 token 流或空语法树。
// 与普通诊断不同，它表示调用方用法错误，阶段不会产生任何结果。
var ErrInvalidInput = stderrors.New("invalid input")

// InvalidInput 返回包装了 ErrInvalidInput 的错误，可用 errors.Is 判断。
// 消息按当前语言翻译
func InvalidInput(what string) error {
	return &inputError{msg: i18n.T(i18n.ErrInvalidInput, what)}
}

type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Unwrap() error { return ErrInvalidInput }

// ============================================================================
// Diagnostic - 单条诊断
// ============================================================================

// Diagnostic 带位置的诊断信息
type Diagnostic struct {
	Code    string         // 错误码 (E0100)
	Level   Level          // 错误级别
	Message string         // 已翻译的消息
	Pos     token.Position // 位置
	Length  int            // 标注长度，0 表示 1
	Hints   []string       // 修复建议
}

// New 根据错误码创建诊断，消息按当前语言翻译
func New(code string, pos token.Position, args ...interface{}) Diagnostic {
	info, ok := Lookup(code)
	if !ok {
		return Diagnostic{Code: code, Level: LevelError, Message: code, Pos: pos}
	}
	return Diagnostic{
		Code:    code,
		Level:   info.Level,
		Message: i18n.T(info.MessageID, args...),
		Pos:     pos,
	}
}

// WithHint 追加一条修复建议
func (d Diagnostic) WithHint(hints ...string) Diagnostic {
	for _, h := range hints {
		if h != "" {
			d.Hints = append(d.Hints, h)
		}
	}
	return d
}

// WithLength 设置标注长度
func (d Diagnostic) WithLength(n int) Diagnostic {
	d.Length = n
	return d
}

// String 返回 "<Kind> [<line>:<column>]: <message>" 格式
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s [%d:%d]: %s", d.Level.Title(), d.Pos.Line, d.Pos.Column, d.Message)
}

// Error 实现 error 接口
func (d Diagnostic) Error() string {
	if d.Pos.Filename != "" {
		return d.Pos.Filename + ": " + d.String()
	}
	return d.String()
}

// IsError 判断是否为错误级别
func (d Diagnostic) IsError() bool {
	return d.Level == LevelError
}

// ============================================================================
// List - 诊断列表
// ============================================================================

// List 按产生顺序保存诊断
type List []Diagnostic

// Add 追加诊断
func (l *List) Add(d Diagnostic) {
	*l = append(*l, d)
}

// Append 追加另一个列表
func (l *List) Append(other List) {
	*l = append(*l, other...)
}

// Errors 返回错误级别的诊断
func (l List) Errors() List {
	return l.filter(func(d Diagnostic) bool { return d.Level == LevelError })
}

// Warnings 返回警告级别的诊断
func (l List) Warnings() List {
	return l.filter(func(d Diagnostic) bool { return d.Level == LevelWarning })
}

func (l List) filter(keep func(Diagnostic) bool) List {
	var out List
	for _, d := range l {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors 是否存在错误级别的诊断
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Level == LevelError {
			return true
		}
	}
	return false
}

// ErrorCount 错误数量
func (l List) ErrorCount() int {
	return len(l.Errors())
}

// Strings 返回每条诊断的字符串形式
func (l List) Strings() []string {
	out := make([]string, len(l))
	for i, d := range l {
		out[i] = d.String()
	}
	return out
}

// Sorted 返回按位置稳定排序的副本
func (l List) Sorted() List {
	out := make(List, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.Filename != out[j].Pos.Filename {
			return out[i].Pos.Filename < out[j].Pos.Filename
		}
		if out[i].Pos.Line != out[j].Pos.Line {
			return out[i].Pos.Line < out[j].Pos.Line
		}
		return out[i].Pos.Column < out[j].Pos.Column
	})
	return out
}

// Err 把所有错误级别的诊断合并为一个 error，没有错误时返回 nil
func (l List) Err() error {
	var err error
	for _, d := range l {
		if d.Level == LevelError {
			err = multierr.Append(err, d)
		}
	}
	return err
}

// FromError 从 Err 返回的 error 中还原诊断
func FromError(err error) List {
	var out List
	for _, e := range multierr.Errors(err) {
		var d Diagnostic
		if stderrors.As(e, &d) {
			out = append(out, d)
		}
	}
	return out
}
