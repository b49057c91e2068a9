package token

import "fmt"

// ============================================================================
// Token 类型定义
// ============================================================================
//
// TokenType 使用 iota 自动编号，按类别分组：
// 1. 特殊标记（ILLEGAL, EOF, COMMENT, NEWLINE）
// 2. 字面量（标识符、数字、字符串）
// 3. 运算符（算术、比较、逻辑）
// 4. 分隔符（括号、逗号、# 语句标记等）
// 5. 关键字（声明、控制流、嵌入代码等）
//
// SUB 的语句以 # 开头，换行是有意义的 token（语句结束）。
//
// ============================================================================

// TokenType 表示 Token 的类型
type TokenType int

const (
	// ----------------------------------------------------------
	// 特殊标记
	// ----------------------------------------------------------
	ILLEGAL TokenType = iota // 非法字符
	EOF                      // 文件结束
	COMMENT                  // 注释
	NEWLINE                  // 换行

	// ----------------------------------------------------------
	// 字面量
	// ----------------------------------------------------------
	IDENT  // 标识符
	NUMBER // 数字字面量（整数或浮点数，原始文本）
	STRING // 字符串字面量
	CODE   // #embed 与 #endembed 之间的原始代码

	// ----------------------------------------------------------
	// 运算符
	// ----------------------------------------------------------
	PLUS           // +
	MINUS          // -
	STAR           // *
	SLASH          // /
	PERCENT        // %
	ASSIGN         // =
	PLUS_ASSIGN    // +=
	MINUS_ASSIGN   // -=
	STAR_ASSIGN    // *=
	SLASH_ASSIGN   // /=
	PERCENT_ASSIGN // %=

	EQ // ==
	NE // !=
	LT // <
	LE // <=
	GT // >
	GE // >=

	AND     // &&
	OR      // ||
	NOT     // !
	BIT_AND // &
	BIT_OR  // |

	// ----------------------------------------------------------
	// 分隔符
	// ----------------------------------------------------------
	LPAREN       // (
	RPAREN       // )
	LBRACE       // {
	RBRACE       // }
	LBRACKET     // [
	RBRACKET     // ]
	COMMA        // ,
	DOT          // .
	SEMICOLON    // ;
	COLON        // :
	DOUBLE_ARROW // =>
	HASH         // #

	// ----------------------------------------------------------
	// 关键字
	// ----------------------------------------------------------
	keyword_beg // 关键字起始标记（不是实际 token）

	VAR      // var
	CONST    // const
	FUNCTION // function
	IF       // if
	ELIF     // elif
	ELSE     // else
	FOR      // for
	IN       // in
	WHILE    // while
	DO       // do
	RETURN   // return
	END      // end
	BREAK    // break
	CONTINUE // continue

	TRY     // try
	CATCH   // catch
	FINALLY // finally
	THROW   // throw

	EMBED    // embed
	ENDEMBED // endembed
	UI       // ui

	CLASS   // class
	EXTENDS // extends
	NEW     // new
	THIS    // this

	TRUE  // true
	FALSE // false
	NULL  // null

	keyword_end // 关键字结束标记（不是实际 token）
)

// ============================================================================
// Token 类型名称映射
// ============================================================================

var tokenNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",
	COMMENT: "COMMENT",
	NEWLINE: "NEWLINE",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",
	CODE:   "CODE",

	PLUS:           "+",
	MINUS:          "-",
	STAR:           "*",
	SLASH:          "/",
	PERCENT:        "%",
	ASSIGN:         "=",
	PLUS_ASSIGN:    "+=",
	MINUS_ASSIGN:   "-=",
	STAR_ASSIGN:    "*=",
	SLASH_ASSIGN:   "/=",
	PERCENT_ASSIGN: "%=",

	EQ: "==",
	NE: "!=",
	LT: "<",
	LE: "<=",
	GT: ">",
	GE: ">=",

	AND:     "&&",
	OR:      "||",
	NOT:     "!",
	BIT_AND: "&",
	BIT_OR:  "|",

	LPAREN:       "(",
	RPAREN:       ")",
	LBRACE:       "{",
	RBRACE:       "}",
	LBRACKET:     "[",
	RBRACKET:     "]",
	COMMA:        ",",
	DOT:          ".",
	SEMICOLON:    ";",
	COLON:        ":",
	DOUBLE_ARROW: "=>",
	HASH:         "#",

	VAR:      "var",
	CONST:    "const",
	FUNCTION: "function",
	IF:       "if",
	ELIF:     "elif",
	ELSE:     "else",
	FOR:      "for",
	IN:       "in",
	WHILE:    "while",
	DO:       "do",
	RETURN:   "return",
	END:      "end",
	BREAK:    "break",
	CONTINUE: "continue",

	TRY:     "try",
	CATCH:   "catch",
	FINALLY: "finally",
	THROW:   "throw",

	EMBED:    "embed",
	ENDEMBED: "endembed",
	UI:       "ui",

	CLASS:   "class",
	EXTENDS: "extends",
	NEW:     "new",
	THIS:    "this",

	TRUE:  "true",
	FALSE: "false",
	NULL:  "null",
}

// ============================================================================
// 关键字查找表
// ============================================================================

var keywords map[string]TokenType

func init() {
	keywords = make(map[string]TokenType, keyword_end-keyword_beg)
	for t := keyword_beg + 1; t < keyword_end; t++ {
		keywords[tokenNames[t]] = t
	}
}

// LookupIdent 查找标识符是否为关键字
//
// 参数:
//   - ident: 标识符字符串
//
// 返回:
//   - TokenType: 如果是关键字返回对应类型，否则返回 IDENT
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword 判断 TokenType 是否为关键字
func IsKeyword(t TokenType) bool {
	return t > keyword_beg && t < keyword_end
}

// IsCompoundAssign 判断是否为复合赋值运算符（+= -= 等）
func IsCompoundAssign(t TokenType) bool {
	return t >= PLUS_ASSIGN && t <= PERCENT_ASSIGN
}

// CompoundOp 返回复合赋值对应的二元运算符，如 += 返回 "+"
func CompoundOp(t TokenType) string {
	switch t {
	case PLUS_ASSIGN:
		return "+"
	case MINUS_ASSIGN:
		return "-"
	case STAR_ASSIGN:
		return "*"
	case SLASH_ASSIGN:
		return "/"
	case PERCENT_ASSIGN:
		return "%"
	}
	return ""
}

// String 返回 TokenType 的字符串表示
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// ============================================================================
// Position - 源代码位置
// ============================================================================

// Position 表示源代码中的位置
type Position struct {
	Filename string // 文件名
	Line     int    // 行号 (从1开始)
	Column   int    // 列号 (从1开始)
	Offset   int    // 字节偏移量 (从0开始)
}

// String 返回位置的字符串表示，格式为 "filename:line:column"
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid 检查位置是否有效
func (p Position) IsValid() bool {
	return p.Line > 0
}

// ============================================================================
// Token - 词法单元
// ============================================================================

// Token 表示一个词法单元
//
// Token 一旦产生即不可变。Literal 保存原始文本；数字保留原始写法，
// 由后续阶段决定如何解析（允许 1_000 这样的分隔写法）。
type Token struct {
	Type    TokenType // Token 类型
	Literal string    // 原始字面量
	Pos     Position  // 位置信息
}

// String 返回 Token 的字符串表示（用于调试）
func (t Token) String() string {
	switch t.Type {
	case IDENT, NUMBER, STRING, CODE, ILLEGAL:
		return fmt.Sprintf("%s(%s) at %s", t.Type, t.Literal, t.Pos)
	default:
		return fmt.Sprintf("%s at %s", t.Type, t.Pos)
	}
}

// Is 判断 Token 是否为给定类型之一
func (t Token) Is(types ...TokenType) bool {
	for _, tt := range types {
		if t.Type == tt {
			return true
		}
	}
	return false
}

// ============================================================================
// Token 构造函数
// ============================================================================

// New 创建一个新的 Token
func New(tokenType TokenType, literal string, pos Position) Token {
	return Token{
		Type:    tokenType,
		Literal: literal,
		Pos:     pos,
	}
}

// At 使用行列号创建 Token，供自带词法器的调用方构造 token 流
func At(tokenType TokenType, literal string, line, column int) Token {
	return Token{
		Type:    tokenType,
		Literal: literal,
		Pos:     Position{Line: line, Column: column},
	}
}
