package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tangzhangming/sub/internal/errors"
	"github.com/tangzhangming/sub/internal/token"
)

// ============================================================================
// Lexer - 词法分析器
// ============================================================================
//
// 词法分析器负责将 SUB 源代码转换为 Token 序列。
//
// SUB 的词法特点：
// 1. 换行是 token（NEWLINE），语句以换行结束
// 2. 语句以 # 开头，# 单独成为一个 token
// 3. 数字保留原始写法（包括 _ 分隔符），由后续阶段解析
// 4. #embed <lang> 之后直到 #endembed 的内容作为一个 CODE token 原样保留
//
// ============================================================================

// Lexer 词法分析器结构体
type Lexer struct {
	source   string        // 源代码字符串
	filename string        // 源文件名（用于错误报告）
	tokens   []token.Token // 已扫描的 Token 列表

	start       int // 当前 Token 的起始位置（字节偏移）
	current     int // 当前扫描位置（字节偏移）
	line        int // 当前行号（从1开始）
	column      int // 当前列号（从1开始）
	startLine   int // 当前 Token 起始行
	startColumn int // 当前 Token 起始列

	embedPending bool // 已看到 #embed，等待行尾进入原始代码模式

	errors []Error // 词法错误列表
}

// Error 表示词法分析错误
type Error struct {
	Pos     token.Position // 错误位置
	Code    string         // 错误码
	Message string         // 错误信息
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Diagnostic 转换为通用诊断
func (e Error) Diagnostic() errors.Diagnostic {
	return errors.Diagnostic{Code: e.Code, Level: errors.LevelError, Message: e.Message, Pos: e.Pos}
}

// ============================================================================
// 构造函数
// ============================================================================

// New 创建一个新的词法分析器
func New(source, filename string) *Lexer {
	estimatedTokens := len(source) / 4
	if estimatedTokens < 16 {
		estimatedTokens = 16
	}

	return &Lexer{
		source:   source,
		filename: filename,
		tokens:   make([]token.Token, 0, estimatedTokens),
		line:     1,
		column:   1,
	}
}

// Tokenize 是 New(source, filename).ScanTokens() 的便捷写法，同时返回词法错误
func Tokenize(source, filename string) ([]token.Token, []Error) {
	l := New(source, filename)
	tokens := l.ScanTokens()
	return tokens, l.Errors()
}

// ============================================================================
// 公共方法
// ============================================================================

// ScanTokens 扫描所有 tokens
//
// 最后一个 Token 总是 EOF。
func (l *Lexer) ScanTokens() []token.Token {
	for !l.isAtEnd() {
		l.mark()
		l.scanToken()
	}

	l.mark()
	l.tokens = append(l.tokens, token.Token{
		Type: token.EOF,
		Pos:  l.startPos(),
	})

	return l.tokens
}

// Errors 返回所有词法错误
func (l *Lexer) Errors() []Error {
	return l.errors
}

// HasErrors 检查是否有错误
func (l *Lexer) HasErrors() bool {
	return len(l.errors) > 0
}

// ============================================================================
// 核心扫描逻辑
// ============================================================================

func (l *Lexer) scanToken() {
	ch := l.advance()

	switch ch {
	case ' ', '\t', '\r':
		l.skipWhitespace()

	case '\n':
		l.addToken(token.NEWLINE, "")
		if l.embedPending {
			l.embedPending = false
			l.embedBody()
		}

	case '#':
		l.addToken(token.HASH, "#")
	case '(':
		l.addToken(token.LPAREN, "(")
	case ')':
		l.addToken(token.RPAREN, ")")
	case '{':
		l.addToken(token.LBRACE, "{")
	case '}':
		l.addToken(token.RBRACE, "}")
	case '[':
		l.addToken(token.LBRACKET, "[")
	case ']':
		l.addToken(token.RBRACKET, "]")
	case ',':
		l.addToken(token.COMMA, ",")
	case '.':
		l.addToken(token.DOT, ".")
	case ':':
		l.addToken(token.COLON, ":")
	case ';':
		l.addToken(token.SEMICOLON, ";")

	case '"', '\'':
		l.string(ch)

	case '/':
		if l.peek() == '/' {
			l.lineComment()
			return
		}
		l.operator(token.SLASH, token.SLASH_ASSIGN)

	case '=':
		if l.match('>') {
			l.addToken(token.DOUBLE_ARROW, "=>")
			return
		}
		l.operator(token.ASSIGN, token.EQ)
	case '+':
		l.operator(token.PLUS, token.PLUS_ASSIGN)
	case '-':
		l.operator(token.MINUS, token.MINUS_ASSIGN)
	case '*':
		l.operator(token.STAR, token.STAR_ASSIGN)
	case '%':
		l.operator(token.PERCENT, token.PERCENT_ASSIGN)
	case '<':
		l.operator(token.LT, token.LE)
	case '>':
		l.operator(token.GT, token.GE)
	case '!':
		l.operator(token.NOT, token.NE)
	case '&':
		if l.match('&') {
			l.addToken(token.AND, "&&")
			return
		}
		l.addToken(token.BIT_AND, "&")
	case '|':
		if l.match('|') {
			l.addToken(token.OR, "||")
			return
		}
		l.addToken(token.BIT_OR, "|")

	default:
		switch {
		case isDigit(ch):
			l.number()
		case isAlpha(ch):
			l.identifier()
		default:
			l.error(errors.E0002, ch)
		}
	}
}

// operator 处理"单字符运算符 + 可选的 ="形式
func (l *Lexer) operator(single, withAssign token.TokenType) {
	if l.match('=') {
		l.addToken(withAssign, l.source[l.start:l.current])
		return
	}
	l.addToken(single, l.source[l.start:l.current])
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		switch l.source[l.current] {
		case ' ', '\t', '\r':
			l.current++
			l.column++
		default:
			return
		}
	}
}

func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.advance()
	}
}

// string 扫描字符串字面量，Literal 为去掉引号并处理转义之后的内容
func (l *Lexer) string(quote rune) {
	var sb strings.Builder

	for !l.isAtEnd() {
		ch := l.advance()
		switch ch {
		case quote:
			l.addToken(token.STRING, sb.String())
			return
		case '\n':
			l.newLine()
			sb.WriteRune(ch)
		case '\\':
			if l.isAtEnd() {
				break
			}
			escaped := l.advance()
			switch escaped {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			default:
				// \\ \" \' 以及未知转义都保留原字符
				sb.WriteRune(escaped)
			}
		default:
			sb.WriteRune(ch)
		}
	}

	l.error(errors.E0003)
}

// number 扫描数字。接受数字、'.' 和 '_'，原样保留文本。
// 1.2.3 这样的写法也会成为一个 NUMBER token，由语义分析给出警告。
func (l *Lexer) number() {
	// 进制前缀：0x 0b 0o
	if l.source[l.start] == '0' {
		switch l.peek() {
		case 'x', 'X', 'b', 'B', 'o', 'O':
			l.advance()
			for !l.isAtEnd() && (isAlphaNumeric(l.peek())) {
				l.advance()
			}
			l.addToken(token.NUMBER, l.source[l.start:l.current])
			return
		}
	}

	for !l.isAtEnd() {
		ch := l.peek()
		if isDigit(ch) || ch == '_' || (ch == '.' && isDigit(l.peekNext())) {
			l.advance()
			continue
		}
		// 指数部分：1e10, 2.5E-3
		if (ch == 'e' || ch == 'E') && l.exponentFollows() {
			l.advance()
			if p := l.peek(); p == '+' || p == '-' {
				l.advance()
			}
			continue
		}
		break
	}
	l.addToken(token.NUMBER, l.source[l.start:l.current])
}

func (l *Lexer) exponentFollows() bool {
	i := l.current + 1
	if i < len(l.source) && (l.source[i] == '+' || l.source[i] == '-') {
		i++
	}
	return i < len(l.source) && l.source[i] >= '0' && l.source[i] <= '9'
}

func (l *Lexer) identifier() {
	for !l.isAtEnd() && isAlphaNumeric(l.peek()) {
		l.advance()
	}

	text := l.source[l.start:l.current]
	tokType := token.LookupIdent(text)
	if tokType == token.EMBED && l.previousIs(token.HASH) {
		l.embedPending = true
	}
	l.addToken(tokType, text)
}

// embedBody 读取 #embed 之后的原始代码直到 #endembed 所在行（不含该行）
func (l *Lexer) embedBody() {
	l.mark()
	bodyStart := l.current

	for !l.isAtEnd() {
		lineEnd := strings.IndexByte(l.source[l.current:], '\n')
		var lineText string
		if lineEnd < 0 {
			lineText = l.source[l.current:]
		} else {
			lineText = l.source[l.current : l.current+lineEnd]
		}

		if isEndEmbedLine(lineText) {
			l.addToken(token.CODE, strings.TrimSuffix(l.source[bodyStart:l.current], "\n"))
			return
		}

		if lineEnd < 0 {
			l.current = len(l.source)
			l.column += utf8.RuneCountInString(lineText)
			break
		}
		l.current += lineEnd + 1
		l.newLine()
	}

	l.addToken(token.CODE, strings.TrimSuffix(l.source[bodyStart:l.current], "\n"))
	d := errors.New(errors.E0004, l.startPos())
	l.errors = append(l.errors, Error{Pos: d.Pos, Code: d.Code, Message: d.Message})
}

func isEndEmbedLine(line string) bool {
	rest := strings.TrimSpace(line)
	if !strings.HasPrefix(rest, "#") {
		return false
	}
	rest = strings.TrimSpace(rest[1:])
	if !strings.HasPrefix(rest, "endembed") {
		return false
	}
	rest = rest[len("endembed"):]
	return rest == "" || !isAlphaNumeric(rune(rest[0]))
}

// ============================================================================
// 辅助方法
// ============================================================================

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() rune {
	b := l.source[l.current]
	if b < utf8.RuneSelf {
		// 换行不在这里推进行号，NEWLINE token 需要报告在它所在的行
		l.current++
		l.column++
		return rune(b)
	}
	r, size := utf8.DecodeRuneInString(l.source[l.current:])
	l.current += size
	l.column++
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.current:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.current+1 >= len(l.source) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.current+1:])
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.peek() != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) previousIs(t token.TokenType) bool {
	return len(l.tokens) > 0 && l.tokens[len(l.tokens)-1].Type == t
}

func (l *Lexer) newLine() {
	l.line++
	l.column = 1
}

// mark 记录下一个 Token 的起点
func (l *Lexer) mark() {
	l.start = l.current
	l.startLine = l.line
	l.startColumn = l.column
}

func (l *Lexer) startPos() token.Position {
	return token.Position{
		Filename: l.filename,
		Line:     l.startLine,
		Column:   l.startColumn,
		Offset:   l.start,
	}
}

func (l *Lexer) addToken(tokenType token.TokenType, literal string) {
	l.tokens = append(l.tokens, token.Token{
		Type:    tokenType,
		Literal: literal,
		Pos:     l.startPos(),
	})
	if tokenType == token.NEWLINE {
		l.newLine()
	}
}

func (l *Lexer) error(code string, args ...interface{}) {
	d := errors.New(code, l.startPos(), args...)
	l.errors = append(l.errors, Error{
		Pos:     d.Pos,
		Code:    code,
		Message: d.Message,
	})
	l.addToken(token.ILLEGAL, l.source[l.start:l.current])
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= utf8.RuneSelf && unicode.IsLetter(ch))
}

func isAlphaNumeric(ch rune) bool {
	return isAlpha(ch) || isDigit(ch) || (ch >= utf8.RuneSelf && unicode.IsDigit(ch))
}
