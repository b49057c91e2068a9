package parser

import (
	"fmt"
	"strings"

	"github.com/tangzhangming/sub/internal/ast"
	"github.com/tangzhangming/sub/internal/errors"
	"github.com/tangzhangming/sub/internal/i18n"
	"github.com/tangzhangming/sub/internal/lexer"
	"github.com/tangzhangming/sub/internal/token"
)

// Parser 语法分析器
//
// 输入是以 EOF 结尾的 token 流。语句以 # 开头，块以 end / elif / else 结束
// （可写作 #end，也可省略 #）。解析从不因错误中止：出错时记录诊断，
// 跳过出错的 token 继续解析，结果总是一棵尽力而为的语法树。
type Parser struct {
	tokens    []token.Token
	current   int
	errors    []Error
	panicMode bool // 当前语句已报过错，抑制级联报错
	gaveUp    bool // 错误数达到上限
	exprDepth int  // 表达式解析深度，防止栈溢出
}

// maxExprDepth 最大表达式嵌套深度，防止栈溢出
const maxExprDepth = 200

// maxParseErrors 最大错误数量限制，防止错误爆炸
const maxParseErrors = 50

// Error 语法分析错误
type Error struct {
	Pos      token.Position
	Code     string
	Expected string // 期望的 token（仅 E0001）
	Got      string // 实际的 token
	Message  string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Diagnostic 转换为通用诊断
func (e Error) Diagnostic() errors.Diagnostic {
	return errors.Diagnostic{
		Code:    e.Code,
		Level:   errors.LevelError,
		Message: e.Message,
		Pos:     e.Pos,
	}
}

// New 创建一个新的语法分析器。缺少 EOF 时自动补上
func New(tokens []token.Token) *Parser {
	toks := tokens
	if len(toks) == 0 || toks[len(toks)-1].Type != token.EOF {
		var pos token.Position
		if len(toks) > 0 {
			pos = toks[len(toks)-1].Pos
		}
		toks = make([]token.Token, len(tokens), len(tokens)+1)
		copy(toks, tokens)
		toks = append(toks, token.Token{Type: token.EOF, Pos: pos})
	}
	return &Parser{tokens: toks}
}

// Parse 解析 token 流。tokens 为空时返回空程序和 ErrInvalidInput
func Parse(tokens []token.Token) (*ast.Program, errors.List, error) {
	if len(tokens) == 0 {
		return ast.NewProgram(token.Position{}), nil, errors.InvalidInput("empty token stream")
	}
	p := New(tokens)
	prog := p.Parse()
	return prog, p.Diagnostics(), nil
}

// ParseSource 词法分析并解析源码，词法错误一并返回
func ParseSource(source, filename string) (*ast.Program, errors.List, error) {
	tokens, lexErrs := lexer.Tokenize(source, filename)
	prog, diags, err := Parse(tokens)

	var all errors.List
	for _, le := range lexErrs {
		all.Add(le.Diagnostic())
	}
	all.Append(diags)
	return prog, all, err
}

// Parse 解析整个程序
func (p *Parser) Parse() *ast.Program {
	prog := ast.NewProgram(p.peek().Pos)

	for !p.isAtEnd() && !p.gaveUp {
		p.skipNewlines()
		if p.isAtEnd() {
			break
		}

		if p.match(token.HASH) {
			if stmt := p.parseStatement(); stmt != nil {
				prog.Statements = append(prog.Statements, stmt)
			}
		} else {
			p.advance()
		}
	}

	return prog
}

// Errors 返回所有语法错误
func (p *Parser) Errors() []Error {
	return p.errors
}

// HasErrors 检查是否有错误
func (p *Parser) HasErrors() bool {
	return len(p.errors) > 0
}

// ErrorCount 返回错误数量
func (p *Parser) ErrorCount() int {
	return len(p.errors)
}

// Diagnostics 以诊断列表形式返回语法错误
func (p *Parser) Diagnostics() errors.List {
	out := make(errors.List, 0, len(p.errors))
	for _, e := range p.errors {
		out = append(out, e.Diagnostic())
	}
	return out
}

// ============================================================================
// 辅助方法
// ============================================================================

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

// peek 到达末尾后一直返回 EOF
func (p *Parser) peek() token.Token {
	if p.current >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current]
}

func (p *Parser) peekNext() token.Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() token.Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t token.TokenType) bool {
	if p.isAtEnd() {
		return t == token.EOF
	}
	return p.peek().Type == t
}

func (p *Parser) checkAny(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			return true
		}
	}
	return false
}

func (p *Parser) match(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) && t != token.EOF {
			p.advance()
			return true
		}
	}
	return false
}

// expect 消费期望的 token；不匹配时记录诊断但不消费（软失败）
func (p *Parser) expect(t token.TokenType) (token.Token, bool) {
	if p.check(t) {
		return p.advance(), true
	}
	got := p.peek()
	p.errorAt(got, errors.E0001, describe(t), describeToken(got))
	return got, false
}

func (p *Parser) skipNewlines() {
	for p.check(token.NEWLINE) || p.check(token.SEMICOLON) {
		p.advance()
	}
}

// skipLine 跳过当前行剩余的 token
func (p *Parser) skipLine() {
	for !p.isAtEnd() && !p.check(token.NEWLINE) {
		p.advance()
	}
}

func (p *Parser) errorAt(tok token.Token, code string, args ...interface{}) {
	if p.panicMode || p.gaveUp {
		return
	}
	p.panicMode = true

	// 避免在同一位置重复报错
	if n := len(p.errors); n > 0 {
		last := p.errors[n-1]
		if last.Pos.Line == tok.Pos.Line && last.Pos.Column == tok.Pos.Column {
			return
		}
	}

	if len(p.errors) >= maxParseErrors {
		p.errors = append(p.errors, Error{
			Pos:     tok.Pos,
			Code:    errors.E0008,
			Message: i18n.T(i18n.ErrTooManyErrors),
		})
		p.gaveUp = true
		return
	}

	d := errors.New(code, tok.Pos, args...)
	e := Error{Pos: tok.Pos, Code: code, Got: describeToken(tok), Message: d.Message}
	if code == errors.E0001 && len(args) > 0 {
		e.Expected, _ = args[0].(string)
	}
	p.errors = append(p.errors, e)
}

func describe(t token.TokenType) string {
	switch t {
	case token.EOF:
		return "end of input"
	case token.NEWLINE:
		return "newline"
	case token.IDENT:
		return "identifier"
	case token.NUMBER:
		return "number"
	case token.STRING:
		return "string"
	}
	return "'" + t.String() + "'"
}

func describeToken(tok token.Token) string {
	switch tok.Type {
	case token.IDENT, token.NUMBER:
		return fmt.Sprintf("%s '%s'", describe(tok.Type), tok.Literal)
	case token.ILLEGAL:
		return fmt.Sprintf("'%s'", tok.Literal)
	}
	return describe(tok.Type)
}

// ============================================================================
// 块与终止符
// ============================================================================

// atTerminator 当前位置是否为块终止符（end/elif/else/EOF，可带 # 前缀）
func (p *Parser) atTerminator() bool {
	if p.isAtEnd() {
		return true
	}
	t := p.peek().Type
	if t == token.HASH {
		t = p.peekNext().Type
	}
	switch t {
	case token.END, token.ELIF, token.ELSE, token.EOF:
		return true
	}
	return false
}

// matchTerminator 消费给定的终止符（允许 # 前缀）
func (p *Parser) matchTerminator(t token.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	if p.check(token.HASH) && p.peekNext().Type == t {
		p.advance()
		p.advance()
		return true
	}
	return false
}

// parseBlock 解析语句直到遇到终止符，语句之间的空行被跳过
func (p *Parser) parseBlock() *ast.Block {
	p.skipNewlines()
	block := ast.NewBlock(p.peek().Pos)

	for !p.atTerminator() && !p.gaveUp {
		if p.match(token.HASH) {
			if stmt := p.parseStatement(); stmt != nil {
				block.Statements = append(block.Statements, stmt)
			}
		} else {
			// 未以 # 开头的内容静默跳过
			p.advance()
		}
		p.skipNewlines()
	}

	return block
}

// ============================================================================
// 语句解析
// ============================================================================

// parseStatement 解析 # 之后的语句，未知的语句开头被跳过并返回 nil
func (p *Parser) parseStatement() ast.Statement {
	p.panicMode = false
	start := p.peek()

	switch start.Type {
	case token.VAR:
		p.advance()
		name, init, ok := p.parseDeclBody(start)
		if !ok {
			return nil
		}
		return ast.NewVarDecl(start.Pos, name, init)

	case token.CONST:
		p.advance()
		name, init, ok := p.parseDeclBody(start)
		if !ok {
			return nil
		}
		return ast.NewConstDecl(start.Pos, name, init)

	case token.FUNCTION:
		p.advance()
		return p.parseFunction(start)

	case token.IF:
		p.advance()
		return p.parseIf(start, true)

	case token.FOR:
		p.advance()
		return p.parseFor(start)

	case token.WHILE:
		p.advance()
		return p.parseWhile(start)

	case token.RETURN:
		p.advance()
		var value ast.Expression
		if !p.checkAny(token.NEWLINE, token.SEMICOLON, token.EOF) && !p.atTerminator() {
			value = p.parseExpression()
		}
		return ast.NewReturnStmt(start.Pos, value)

	case token.UI:
		p.advance()
		return p.parseUi(start)

	case token.EMBED:
		p.advance()
		return p.parseEmbed(start)

	case token.IDENT:
		next := p.peekNext()
		switch {
		case next.Type == token.LPAREN:
			// print(...) 以及其他调用语句
			return p.parseCall(p.advance())
		case next.Type == token.ASSIGN:
			p.advance()
			p.advance()
			return ast.NewAssignStmt(start.Pos, start.Literal, p.parseExpression())
		case token.IsCompoundAssign(next.Type):
			p.advance()
			opTok := p.advance()
			value := p.parseExpression()
			target := ast.NewIdentifier(start.Pos, start.Literal)
			return ast.NewAssignStmt(start.Pos, start.Literal,
				ast.NewBinaryExpr(opTok.Pos, token.CompoundOp(opTok.Type), target, value))
		}
	}

	// 未知语句：跳过一个 token
	if !p.check(token.NEWLINE) {
		p.advance()
	}
	return nil
}

// parseDeclBody 解析 var/const 之后的 "name [= expr]"
func (p *Parser) parseDeclBody(keyword token.Token) (string, ast.Expression, bool) {
	if !p.check(token.IDENT) {
		p.errorAt(p.peek(), errors.E0006, keyword.Literal)
		p.skipLine()
		return "", nil, false
	}
	name := p.advance().Literal

	var init ast.Expression
	if p.match(token.ASSIGN) {
		init = p.parseExpression()
	}
	return name, init, true
}

// parseFunction #function name(a, b) ... #end
func (p *Parser) parseFunction(start token.Token) ast.Statement {
	name := ""
	if p.check(token.IDENT) {
		name = p.advance().Literal
	} else {
		p.errorAt(p.peek(), errors.E0006, start.Literal)
	}

	var params []*ast.Param
	if p.match(token.LPAREN) {
		for !p.check(token.RPAREN) && !p.checkAny(token.NEWLINE, token.EOF) {
			tok := p.advance()
			if tok.Type == token.IDENT {
				params = append(params, &ast.Param{Name: tok.Literal, Pos: tok.Pos})
			}
			// 逗号和其他内容（如类型标注）被消费但不绑定
		}
		p.expect(token.RPAREN)
	}
	p.skipLine()

	body := p.parseBlock()
	p.matchTerminator(token.END)

	if name == "" {
		return nil
	}
	return ast.NewFunctionDecl(start.Pos, name, params, body)
}

// parseIf 解析条件语句。elif 作为嵌套的 IfStmt 放在 Else 中，
// 只有最外层消费结尾的 end。
func (p *Parser) parseIf(start token.Token, outermost bool) *ast.IfStmt {
	cond := p.parseExpression()
	p.skipLine()

	then := p.parseBlock()

	var els ast.Statement
	if p.matchTerminator(token.ELIF) {
		p.panicMode = false
		els = p.parseIf(p.previous(), false)
	} else if p.matchTerminator(token.ELSE) {
		p.skipLine()
		els = p.parseBlock()
	}

	if outermost {
		p.matchTerminator(token.END)
	}
	return ast.NewIfStmt(start.Pos, cond, then, els)
}

// parseFor #for i in range(10)。头部不符合 "ident in expr" 时跳过整行
func (p *Parser) parseFor(start token.Token) *ast.ForStmt {
	varName := ""
	var iterable ast.Expression

	if p.check(token.IDENT) {
		varName = p.advance().Literal
		if p.match(token.IN) {
			iterable = p.parseExpression()
		}
	}
	p.skipLine()

	body := p.parseBlock()
	p.matchTerminator(token.END)
	return ast.NewForStmt(start.Pos, varName, iterable, body)
}

// parseWhile #while cond
func (p *Parser) parseWhile(start token.Token) *ast.WhileStmt {
	cond := p.parseExpression()
	p.skipLine()

	body := p.parseBlock()
	p.matchTerminator(token.END)
	return ast.NewWhileStmt(start.Pos, cond, body)
}

// parseUi #ui name(args)，参数可省略
func (p *Parser) parseUi(start token.Token) ast.Statement {
	if !p.check(token.IDENT) {
		p.errorAt(p.peek(), errors.E0006, start.Literal)
		p.skipLine()
		return nil
	}
	nameTok := p.advance()

	var args []ast.Expression
	if p.match(token.LPAREN) {
		args = p.parseArguments()
	}
	return ast.NewUiComponent(start.Pos, nameTok.Literal, args...)
}

// parseEmbed #embed lang ... #endembed
func (p *Parser) parseEmbed(start token.Token) ast.Statement {
	lang := ""
	if !p.checkAny(token.NEWLINE, token.EOF) {
		lang = p.advance().Literal
	}
	p.skipLine()
	p.skipNewlines()

	var code string
	if p.check(token.CODE) {
		code = p.advance().Literal
	} else {
		code = p.collectRawUntilEndEmbed()
	}
	p.skipNewlines()

	if !p.matchTerminator(token.ENDEMBED) {
		p.expect(token.ENDEMBED)
	}
	return ast.NewEmbedCode(start.Pos, lang, code)
}

// collectRawUntilEndEmbed 调用方自带的 token 流没有 CODE token 时，
// 用 token 文本近似还原嵌入代码
func (p *Parser) collectRawUntilEndEmbed() string {
	var lines []string
	var cur []string
	for !p.isAtEnd() {
		if p.check(token.HASH) && p.peekNext().Type == token.ENDEMBED || p.check(token.ENDEMBED) {
			break
		}
		tok := p.advance()
		if tok.Type == token.NEWLINE {
			lines = append(lines, strings.Join(cur, " "))
			cur = nil
			continue
		}
		cur = append(cur, tok.Literal)
	}
	if len(cur) > 0 {
		lines = append(lines, strings.Join(cur, " "))
	}
	return strings.Join(lines, "\n")
}

// ============================================================================
// 表达式解析 (优先级攀升)
// ============================================================================

// 运算符优先级
const (
	PREC_NONE       = iota
	PREC_OR         // ||
	PREC_AND        // &&
	PREC_EQUALITY   // ==, !=
	PREC_COMPARISON // <, >, <=, >=
	PREC_TERM       // +, -
	PREC_FACTOR     // *, /, %
)

func getPrecedence(t token.TokenType) int {
	switch t {
	case token.OR:
		return PREC_OR
	case token.AND:
		return PREC_AND
	case token.EQ, token.NE:
		return PREC_EQUALITY
	case token.LT, token.LE, token.GT, token.GE:
		return PREC_COMPARISON
	case token.PLUS, token.MINUS:
		return PREC_TERM
	case token.STAR, token.SLASH, token.PERCENT:
		return PREC_FACTOR
	default:
		return PREC_NONE
	}
}

func (p *Parser) parseExpression() ast.Expression {
	return p.parsePrecedence(PREC_OR)
}

// parsePrecedence 解析左操作数，然后只要下一个运算符的优先级不低于 precedence，
// 就以更高一级解析右操作数，构造左结合的二元表达式链
func (p *Parser) parsePrecedence(precedence int) ast.Expression {
	p.exprDepth++
	defer func() { p.exprDepth-- }()
	if p.exprDepth > maxExprDepth {
		p.errorAt(p.peek(), errors.E0007)
		p.skipLine()
		return nil
	}

	left := p.parseUnary()
	if left == nil {
		return nil
	}

	for {
		prec := getPrecedence(p.peek().Type)
		if prec == PREC_NONE || prec < precedence {
			return left
		}
		opTok := p.advance()
		right := p.parsePrecedence(prec + 1)
		if right == nil {
			return left
		}
		left = ast.NewBinaryExpr(opTok.Pos, opTok.Type.String(), left, right)
	}
}

// parseUnary 处理前缀 - 和 !：-5 直接成为负数字面量，-x 展开为 0 - x，!x 展开为 x == false
func (p *Parser) parseUnary() ast.Expression {
	switch p.peek().Type {
	case token.MINUS:
		opTok := p.advance()
		if p.check(token.NUMBER) {
			num := p.advance()
			return ast.NewNumber(opTok.Pos, "-"+num.Literal)
		}
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return ast.NewBinaryExpr(opTok.Pos, "-", ast.NewNumber(opTok.Pos, "0"), operand)
	case token.NOT:
		opTok := p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		not := ast.NewBinaryExpr(opTok.Pos, "==", operand, ast.NewBool(opTok.Pos, false))
		not.Negation = true
		return not
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.peek()

	switch tok.Type {
	case token.NUMBER:
		p.advance()
		return ast.NewNumber(tok.Pos, tok.Literal)
	case token.STRING:
		p.advance()
		return ast.NewString(tok.Pos, tok.Literal)
	case token.TRUE:
		p.advance()
		return ast.NewBool(tok.Pos, true)
	case token.FALSE:
		p.advance()
		return ast.NewBool(tok.Pos, false)
	case token.NULL:
		p.advance()
		return ast.NewNull(tok.Pos)
	case token.IDENT:
		p.advance()
		if p.check(token.LPAREN) {
			return p.parseCall(tok)
		}
		return ast.NewIdentifier(tok.Pos, tok.Literal)
	case token.LPAREN:
		p.advance()
		expr := p.parseExpression()
		p.expect(token.RPAREN)
		return expr
	}

	p.errorAt(tok, errors.E0005, describeToken(tok))
	// 跳过出错的 token，但不吞掉语句结构
	if !p.checkAny(token.NEWLINE, token.HASH, token.EOF) {
		p.advance()
	}
	return nil
}

// parseCall 解析 name(args)，name 已被消费，当前 token 为 (
func (p *Parser) parseCall(name token.Token) *ast.CallExpr {
	p.expect(token.LPAREN)
	args := p.parseArguments()
	return ast.NewCallExpr(name.Pos, name.Literal, args...)
}

// parseArguments 解析逗号分隔的参数列表直到 )，( 已被消费
func (p *Parser) parseArguments() []ast.Expression {
	var args []ast.Expression
	if p.match(token.RPAREN) {
		return args
	}

	for {
		if arg := p.parseExpression(); arg != nil {
			args = append(args, arg)
		}
		if !p.match(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	return args
}
