package errors

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ============================================================================
// 格式化器
// ============================================================================

// Formatter 诊断格式化器，输出 rustc 风格的报告
//
//	error[E0100]: undefined variable 'x'
//	 --> main.sub:1:10
//	  |
//	1 | #var y = x
//	  |          ^
//	  = help: declare it first: #var x = ...
type Formatter struct {
	Colors     bool // 是否使用颜色
	ShowSource bool // 是否显示源代码
	ShowHints  bool // 是否显示修复建议
	TabWidth   int  // Tab 宽度

	styles styles
}

type styles struct {
	err     lipgloss.Style
	warning lipgloss.Style
	note    lipgloss.Style
	gutter  lipgloss.Style
	caret   lipgloss.Style
	help    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		err:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		note:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		gutter:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		caret:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		help:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// NewFormatter 创建默认格式化器
func NewFormatter() *Formatter {
	return &Formatter{
		Colors:     true,
		ShowSource: true,
		ShowHints:  true,
		TabWidth:   4,
		styles:     defaultStyles(),
	}
}

// NewPlainFormatter 创建不带颜色的格式化器
func NewPlainFormatter() *Formatter {
	f := NewFormatter()
	f.Colors = false
	return f
}

// Format 格式化单条诊断。sourceLines 为空时不显示源码
func (f *Formatter) Format(d Diagnostic, sourceLines []string) string {
	var sb strings.Builder

	levelStyle := f.levelStyle(d.Level)
	header := d.Level.String()
	if d.Code != "" {
		header += "[" + d.Code + "]"
	}
	sb.WriteString(f.render(levelStyle, header) + ": " + d.Message + "\n")

	location := fmt.Sprintf("%d:%d", d.Pos.Line, d.Pos.Column)
	if d.Pos.Filename != "" {
		location = d.Pos.Filename + ":" + location
	}
	sb.WriteString(" " + f.render(f.styles.gutter, "-->") + " " + location + "\n")

	width := len(fmt.Sprintf("%d", d.Pos.Line))
	if f.ShowSource && d.Pos.Line > 0 && d.Pos.Line <= len(sourceLines) {
		sb.WriteString(f.sourceContext(sourceLines[d.Pos.Line-1], d, width))
	}

	if f.ShowHints {
		pad := strings.Repeat(" ", width+1)
		for _, hint := range d.Hints {
			sb.WriteString(pad + f.render(f.styles.help, "= help:") + " " + hint + "\n")
		}
	}

	return sb.String()
}

// FormatAll 格式化整个列表，诊断之间空一行
func (f *Formatter) FormatAll(list List, source string) string {
	lines := strings.Split(source, "\n")
	parts := make([]string, 0, len(list))
	for _, d := range list {
		parts = append(parts, f.Format(d, lines))
	}
	return strings.Join(parts, "\n")
}

// Summary 输出结尾的统计行
func (f *Formatter) Summary(list List) string {
	errs, warns := len(list.Errors()), len(list.Warnings())
	switch {
	case errs > 0:
		return f.render(f.styles.err, "error") + fmt.Sprintf(": %d error(s), %d warning(s)", errs, warns)
	case warns > 0:
		return f.render(f.styles.warning, "warning") + fmt.Sprintf(": %d warning(s)", warns)
	}
	return ""
}

func (f *Formatter) sourceContext(line string, d Diagnostic, width int) string {
	var sb strings.Builder
	gutterPad := strings.Repeat(" ", width)
	pipe := f.render(f.styles.gutter, " |")

	sb.WriteString(gutterPad + pipe + "\n")
	lineNum := f.render(f.styles.gutter, fmt.Sprintf("%*d", width, d.Pos.Line))
	sb.WriteString(lineNum + pipe + " " + f.expandTabs(line) + "\n")

	length := d.Length
	if length < 1 {
		length = 1
	}
	col := f.actualColumn(line, d.Pos.Column)
	carets := f.render(f.styles.caret, strings.Repeat("^", length))
	sb.WriteString(gutterPad + pipe + " " + strings.Repeat(" ", col) + carets + "\n")
	return sb.String()
}

func (f *Formatter) expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", f.TabWidth))
}

// actualColumn 计算 1 基列号之前的显示宽度（Tab 按 TabWidth 计）
func (f *Formatter) actualColumn(line string, col int) int {
	if col <= 1 {
		return 0
	}
	width := 0
	i := 0
	for _, r := range line {
		if i >= col-1 {
			break
		}
		if r == '\t' {
			width += f.TabWidth
		} else {
			width++
		}
		i++
	}
	if i < col-1 {
		width += col - 1 - i
	}
	return width
}

func (f *Formatter) levelStyle(level Level) lipgloss.Style {
	switch level {
	case LevelError:
		return f.styles.err
	case LevelWarning:
		return f.styles.warning
	default:
		return f.styles.note
	}
}

func (f *Formatter) render(style lipgloss.Style, s string) string {
	if !f.Colors {
		return s
	}
	return style.Render(s)
}
