// repl.go - SUB REPL (Read-Eval-Print Loop)
//
// 交互式检查 SUB 代码，支持：
// - 多行输入（#function / #if / #while / #for 直到 #end）
// - 已接受的语句组成会话，后续输入可以引用之前的声明
// - 特殊命令（:help, :quit, :reset, :load, :ir, :ast）
// - 显示新声明推断出的类型
// - 错误友好显示

package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/driver"
	"github.com/tangzhangming/sub/internal/errors"
)

// 会话源码的文件名
const unitName = "<repl>"

// REPL 交互式解释器
type REPL struct {
	driver    *driver.Driver
	reader    *bufio.Reader
	writer    io.Writer
	formatter *errors.Formatter

	history   []string
	session   []string // 已接受的源码行
	multiline bool
	buffer    strings.Builder

	promptPrimary  string
	promptContinue string
}

// Config REPL 配置
type Config struct {
	PromptPrimary  string
	PromptContinue string
	NoColor        bool
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		PromptPrimary:  ">>> ",
		PromptContinue: "... ",
	}
}

// New 创建 REPL
func New(d *driver.Driver, in io.Reader, out io.Writer, config Config) *REPL {
	f := errors.NewFormatter()
	if config.NoColor {
		f = errors.NewPlainFormatter()
	}
	return &REPL{
		driver:         d,
		reader:         bufio.NewReader(in),
		writer:         out,
		formatter:      f,
		promptPrimary:  config.PromptPrimary,
		promptContinue: config.PromptContinue,
	}
}

// Run 运行 REPL，直到输入结束、:quit 或 ctx 结束
func (r *REPL) Run(ctx context.Context) error {
	r.printWelcome()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		prompt := r.promptPrimary
		if r.multiline {
			prompt = r.promptContinue
		}
		fmt.Fprint(r.writer, prompt)

		line, err := r.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				fmt.Fprintln(r.writer, "\nBye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimRight(line, "\r\n")

		// 处理特殊命令
		if !r.multiline && strings.HasPrefix(line, ":") {
			if quit := r.handleCommand(ctx, line); quit {
				return nil
			}
			continue
		}

		// 添加到缓冲区
		if r.multiline {
			r.buffer.WriteString("\n")
		}
		r.buffer.WriteString(line)

		// 检查是否需要继续输入
		if needsMoreInput(r.buffer.String()) {
			r.multiline = true
			continue
		}

		input := r.buffer.String()
		r.buffer.Reset()
		r.multiline = false

		if strings.TrimSpace(input) == "" {
			continue
		}

		r.addHistory(input)
		r.execute(ctx, input)
	}
}

// printWelcome 打印欢迎信息
func (r *REPL) printWelcome() {
	fmt.Fprintln(r.writer, "SUB REPL v0.1.0")
	fmt.Fprintln(r.writer, "Type :help for help, :quit to exit")
	fmt.Fprintln(r.writer)
}

// handleCommand 处理特殊命令，返回是否退出
func (r *REPL) handleCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case ":help", ":h", ":?":
		r.printHelp()

	case ":quit", ":q", ":exit":
		fmt.Fprintln(r.writer, "Bye!")
		return true

	case ":reset", ":clear":
		r.reset()
		fmt.Fprintln(r.writer, "Session reset.")

	case ":load", ":l":
		if len(args) < 1 {
			fmt.Fprintln(r.writer, "Usage: :load <filename>")
			return false
		}
		r.loadFile(ctx, args[0])

	case ":history", ":hist":
		r.printHistory()

	case ":source", ":src":
		for i, l := range r.session {
			fmt.Fprintf(r.writer, "%4d  %s\n", i+1, l)
		}

	case ":env":
		r.printEnv(ctx)

	case ":ast":
		res, err := r.driver.Check(ctx, r.unit(nil))
		if err != nil {
			fmt.Fprintf(r.writer, "Error: %v\n", err)
			return false
		}
		fmt.Fprintln(r.writer, ast.Sexpr(res.Program))

	case ":ir":
		r.printIR(ctx)

	default:
		fmt.Fprintf(r.writer, "Unknown command: %s\n", cmd)
		fmt.Fprintln(r.writer, "Type :help for available commands.")
	}
	return false
}

// printHelp 打印帮助信息
func (r *REPL) printHelp() {
	fmt.Fprintln(r.writer, "Available commands:")
	fmt.Fprintln(r.writer, "  :help, :h, :?     Show this help message")
	fmt.Fprintln(r.writer, "  :quit, :q, :exit  Exit the REPL")
	fmt.Fprintln(r.writer, "  :reset, :clear    Clear the session")
	fmt.Fprintln(r.writer, "  :load <file>      Add a file to the session")
	fmt.Fprintln(r.writer, "  :history, :hist   Show input history")
	fmt.Fprintln(r.writer, "  :source, :src     Show the session source")
	fmt.Fprintln(r.writer, "  :env              Show declared names and their types")
	fmt.Fprintln(r.writer, "  :ast              Show the session syntax tree")
	fmt.Fprintln(r.writer, "  :ir               Compile the session and show its IR")
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, "Multi-line input:")
	fmt.Fprintln(r.writer, "  #function, #if, #while and #for continue")
	fmt.Fprintln(r.writer, "  until the matching #end.")
	fmt.Fprintln(r.writer)
	fmt.Fprintln(r.writer, "Examples:")
	fmt.Fprintln(r.writer, "  >>> #var x = 10")
	fmt.Fprintln(r.writer, "  >>> #function add(a, b)")
	fmt.Fprintln(r.writer, "  ... #return a + b")
	fmt.Fprintln(r.writer, "  ... #end")
	fmt.Fprintln(r.writer, "  >>> #print(add(x, 2))")
}

// reset 清空会话
func (r *REPL) reset() {
	r.session = nil
	r.buffer.Reset()
	r.multiline = false
}

// loadFile 把文件内容加入会话
func (r *REPL) loadFile(ctx context.Context, filename string) {
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(r.writer, "Error loading file: %v\n", err)
		return
	}
	if r.execute(ctx, strings.TrimRight(string(source), "\n")) {
		fmt.Fprintf(r.writer, "Loaded: %s\n", filename)
	}
}

// printHistory 打印历史记录
func (r *REPL) printHistory() {
	for i, cmd := range r.history {
		fmt.Fprintf(r.writer, "%4d  %s\n", i+1, cmd)
	}
}

// printEnv 列出会话中的顶层声明
func (r *REPL) printEnv(ctx context.Context) {
	res, err := r.driver.Check(ctx, r.unit(nil))
	if err != nil {
		fmt.Fprintf(r.writer, "Error: %v\n", err)
		return
	}
	for _, stmt := range res.Program.Statements {
		if desc := describe(stmt); desc != "" {
			fmt.Fprintln(r.writer, desc)
		}
	}
}

// printIR 按驱动器的优化级别编译会话并打印 IR
func (r *REPL) printIR(ctx context.Context) {
	res, err := r.driver.Compile(ctx, r.unit(nil))
	if err != nil {
		fmt.Fprintf(r.writer, "Error: %v\n", err)
		return
	}
	if res.Module == nil {
		r.report(res.Diagnostics.Errors(), 0, r.session)
		return
	}
	fmt.Fprint(r.writer, res.Module.Dump())
}

// addHistory 添加到历史记录
func (r *REPL) addHistory(input string) {
	// 不添加重复的历史记录
	if len(r.history) > 0 && r.history[len(r.history)-1] == input {
		return
	}
	r.history = append(r.history, input)
	// 限制历史记录大小
	if len(r.history) > 1000 {
		r.history = r.history[len(r.history)-1000:]
	}
}

// ============================================================================
// 执行
// ============================================================================

// unit 以会话加上 extra 行组成编译单元
func (r *REPL) unit(extra []string) driver.Unit {
	lines := make([]string, 0, len(r.session)+len(extra))
	lines = append(lines, r.session...)
	lines = append(lines, extra...)
	return driver.Unit{Name: unitName, Source: strings.Join(lines, "\n") + "\n"}
}

// execute 检查会话加上 input，没有错误时把 input 加入会话并显示新的声明
func (r *REPL) execute(ctx context.Context, input string) bool {
	lines := strings.Split(input, "\n")
	offset := len(r.session)

	res, err := r.driver.Check(ctx, r.unit(lines))
	if err != nil {
		fmt.Fprintf(r.writer, "Error: %v\n", err)
		return false
	}

	// 只显示本次输入的诊断。会话中的变量之后还可能被使用，不报告未使用
	var diags errors.List
	for _, d := range res.Diagnostics {
		if d.Pos.Line > offset && d.Code != errors.W0001 {
			diags.Add(d)
		}
	}
	r.report(diags, offset, lines)
	if res.HasErrors() {
		return false
	}

	r.session = append(r.session, lines...)
	for _, stmt := range res.Program.Statements {
		if stmt.Pos().Line <= offset {
			continue
		}
		if desc := describe(stmt); desc != "" {
			fmt.Fprintln(r.writer, desc)
		}
	}
	return true
}

// report 输出诊断，行号换算为相对 lines 的行号
func (r *REPL) report(diags errors.List, offset int, lines []string) {
	for _, d := range diags {
		d.Pos.Line -= offset
		fmt.Fprint(r.writer, r.formatter.Format(d, lines))
	}
}

// describe 返回顶层声明的说明，其他语句返回空串
func describe(stmt ast.Statement) string {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		return s.Name + typeSuffix(s.Type())
	case *ast.ConstDecl:
		return "const " + s.Name + typeSuffix(s.Type())
	case *ast.FunctionDecl:
		sig := "function " + s.Name + "(" + strings.Join(s.ParamNames(), ", ") + ")"
		if !s.ReturnType.IsLoose() {
			sig += " -> " + s.ReturnType.String()
		}
		return sig
	}
	return ""
}

func typeSuffix(t ast.DataType) string {
	if t.IsLoose() {
		return ""
	}
	return ": " + t.String()
}

// needsMoreInput 块语句未以 end 结束、括号未闭合或字符串未结束时需要更多输入
func needsMoreInput(input string) bool {
	depth := 0
	parenDepth := 0
	inEmbed := false
	var quote rune
	escaped := false

	for _, line := range strings.Split(input, "\n") {
		if inEmbed {
			if keyword(line) == "endembed" {
				inEmbed = false
			}
			continue
		}
		if quote == 0 && parenDepth == 0 {
			switch keyword(line) {
			case "function", "if", "while", "for":
				depth++
			case "end":
				depth--
			case "embed":
				inEmbed = true
				continue
			}
		}

	scan:
		for i, c := range line {
			if escaped {
				escaped = false
				continue
			}
			if quote != 0 {
				switch c {
				case '\\':
					escaped = true
				case quote:
					quote = 0
				}
				continue
			}
			switch c {
			case '"', '\'':
				quote = c
			case '(':
				parenDepth++
			case ')':
				parenDepth--
			case '/':
				if strings.HasPrefix(line[i:], "//") {
					break scan
				}
			}
		}
	}

	return depth > 0 || parenDepth > 0 || quote != 0 || inEmbed
}

// keyword 返回行首的关键字，# 前缀可省略
func keyword(line string) string {
	rest := strings.TrimSpace(line)
	rest = strings.TrimSpace(strings.TrimPrefix(rest, "#"))
	end := strings.IndexFunc(rest, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	if end >= 0 {
		rest = rest[:end]
	}
	return rest
}
