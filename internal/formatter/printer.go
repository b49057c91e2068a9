package formatter

import (
	"math"
	"strings"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/token"
)

// Printer AST 打印器
type Printer struct {
	options *Options
	buf     strings.Builder
	indent  int
	fresh   bool // 刚开始一个块，下一条语句前不插入空行

	// 以下由 WithSource 设置，用于还原注释、空行和块结束行
	lines    []string
	comments []comment
	next     int
	blocks   map[int]*blockLines
}

// NewPrinter 创建打印器
func NewPrinter(options *Options) *Printer {
	if options == nil {
		options = DefaultOptions()
	}
	return &Printer{options: options}
}

// WithSource 提供源码和 token，使输出保留注释与空行
func (p *Printer) WithSource(source string, tokens []token.Token) *Printer {
	p.lines = strings.Split(source, "\n")
	if p.options.PreserveComments {
		p.comments = scanComments(source)
	}
	p.blocks = scanBlocks(tokens)
	return p
}

// Print 打印 AST 并返回格式化的代码
func (p *Printer) Print(prog *ast.Program) string {
	p.fresh = true
	p.printStatements(prog.Statements)
	p.flushComments(math.MaxInt)

	result := p.buf.String()

	if p.options.RemoveTrailingSpace {
		lines := strings.Split(result, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, " \t")
		}
		result = strings.Join(lines, "\n")
	}

	if p.options.EnsureNewlineAtEOF && result != "" && !strings.HasSuffix(result, "\n") {
		result += "\n"
	} else if !p.options.EnsureNewlineAtEOF {
		result = strings.TrimSuffix(result, "\n")
	}

	return result
}

// ============================================================================
// 语句
// ============================================================================

func (p *Printer) printStatements(stmts []ast.Statement) {
	for _, stmt := range stmts {
		p.printStatement(stmt)
	}
}

func (p *Printer) printStatement(stmt ast.Statement) {
	line := stmt.Pos().Line
	p.flushComments(line)
	p.blankBefore(line)

	switch s := stmt.(type) {
	case *ast.FunctionDecl:
		p.writeLine(line, "#function "+s.Name+"("+strings.Join(s.ParamNames(), ", ")+")")
		p.printBody(s.Body)
		p.closeBlock(p.blocks[line].endLine())

	case *ast.IfStmt:
		p.printIf(s, line)

	case *ast.ForStmt:
		header := "#for " + s.Var
		if s.Iterable != nil {
			header += " in " + p.expr(s.Iterable)
		}
		p.writeLine(line, header)
		p.printBody(s.Body)
		p.closeBlock(p.blocks[line].endLine())

	case *ast.WhileStmt:
		p.writeLine(line, "#while "+p.expr(s.Condition))
		p.printBody(s.Body)
		p.closeBlock(p.blocks[line].endLine())

	case *ast.EmbedCode:
		// 嵌入代码原样输出，不加缩进
		p.writeLine(line, "#embed "+s.Lang)
		if s.Code != "" {
			p.buf.WriteString(s.Code)
			p.buf.WriteByte('\n')
		}
		p.writeLine(0, "#endembed")

	default:
		p.writeLine(line, p.simpleStatement(stmt))
	}
}

// printIf 打印 if/elif/else 链，elif 在 AST 中是嵌套在 Else 里的 IfStmt
func (p *Printer) printIf(s *ast.IfStmt, line int) {
	lines := p.blocks[line]
	cur, header := line, "#if "

	for branch := 0; ; branch++ {
		p.writeLine(cur, header+p.expr(s.Condition))
		p.printBody(s.Then)

		next := lines.branch(branch)
		if elif, ok := s.Else.(*ast.IfStmt); ok {
			p.endBody(next)
			s, cur, header = elif, next, "#elif "
			continue
		}
		if els, ok := s.Else.(*ast.Block); ok {
			p.endBody(next)
			p.writeLine(next, "#else")
			p.printBody(els)
		}
		break
	}
	p.closeBlock(lines.endLine())
}

func (p *Printer) simpleStatement(stmt ast.Statement) string {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		return p.decl("#var ", s.Name, s.Init)
	case *ast.ConstDecl:
		return p.decl("#const ", s.Name, s.Init)
	case *ast.AssignStmt:
		return "#" + s.Name + " = " + p.expr(s.Value)
	case *ast.ReturnStmt:
		if s.Value == nil {
			return "#return"
		}
		return "#return " + p.expr(s.Value)
	case *ast.CallExpr:
		return "#" + p.expr(s)
	case *ast.UiComponent:
		return "#ui " + s.Name + "(" + p.exprList(s.Args) + ")"
	default:
		return stmt.String()
	}
}

func (p *Printer) decl(prefix, name string, init ast.Expression) string {
	if init == nil {
		return prefix + name
	}
	return prefix + name + " = " + p.expr(init)
}

// printBody 进入块并打印块内语句
func (p *Printer) printBody(body *ast.Block) {
	p.indent++
	p.fresh = true
	if body != nil {
		p.printStatements(body.Statements)
	}
}

// endBody 输出块内剩余的注释并退出块。line 是结束该块的源码行，未知时为 0
func (p *Printer) endBody(line int) {
	if line > 0 {
		p.flushComments(line)
	}
	p.indent--
	p.fresh = false
}

func (p *Printer) closeBlock(line int) {
	p.endBody(line)
	p.writeLine(line, "#end")
}

// ============================================================================
// 表达式
// ============================================================================

// 与解析器一致的二元运算符优先级，数值越大结合越紧
var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3,
	"<": 4, "<=": 4, ">": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

func (p *Printer) expr(e ast.Expression) string {
	switch e := e.(type) {
	case nil:
		return ""
	case *ast.BinaryExpr:
		prec := precedence[e.Op]
		return p.operand(e.Left, prec, false) + " " + e.Op + " " + p.operand(e.Right, prec, true)
	case *ast.CallExpr:
		return e.Name + "(" + p.exprList(e.Args) + ")"
	default:
		return e.String()
	}
}

// operand 打印二元运算的操作数，只在改变结合方式时加括号。
// 运算符左结合，所以右操作数在同级时也需要括号
func (p *Printer) operand(e ast.Expression, prec int, right bool) string {
	s := p.expr(e)
	if b, ok := e.(*ast.BinaryExpr); ok {
		inner := precedence[b.Op]
		if inner < prec || (right && inner == prec) {
			return "(" + s + ")"
		}
	}
	return s
}

func (p *Printer) exprList(exprs []ast.Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = p.expr(e)
	}
	return strings.Join(parts, ", ")
}

// ============================================================================
// 输出
// ============================================================================

// writeLine 输出一行，并附上源码中该行的行尾注释
func (p *Printer) writeLine(line int, text string) {
	p.writeIndent()
	p.buf.WriteString(text)
	if c, ok := p.trailingComment(line); ok {
		p.buf.WriteString(" " + c)
	}
	p.buf.WriteByte('\n')
	p.fresh = false
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString(p.options.IndentString())
	}
}

// blankBefore 源码中 line 的上一行为空时输出一个空行，连续空行合并为一个
func (p *Printer) blankBefore(line int) {
	if p.fresh || line < 2 || line-1 > len(p.lines) {
		return
	}
	if strings.TrimSpace(p.lines[line-2]) == "" {
		p.buf.WriteByte('\n')
	}
}
