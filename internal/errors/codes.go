// Package errors 提供 SUB 编译器的诊断系统
package errors

import "github.com/tangzhangming/sub/internal/i18n"

// ============================================================================
// 错误级别
// ============================================================================

// Level 错误级别
type Level int

const (
	LevelError   Level = iota // 错误
	LevelWarning              // 警告
	LevelNote                 // 提示
	LevelHelp                 // 帮助
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	case LevelHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Title 首字母大写的级别名，用于 "Error [1:5]: ..." 格式
func (l Level) Title() string {
	switch l {
	case LevelError:
		return "Error"
	case LevelWarning:
		return "Warning"
	case LevelNote:
		return "Note"
	case LevelHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// ============================================================================
// 错误码 (E 开头为错误，W 开头为警告)
// ============================================================================

const (
	// E0001-E0099: 词法与语法错误
	E0001 = "E0001" // 期望的 token
	E0002 = "E0002" // 意外的字符
	E0003 = "E0003" // 未闭合的字符串
	E0004 = "E0004" // 未闭合的嵌入代码块
	E0005 = "E0005" // 期望表达式
	E0006 = "E0006" // 期望名称
	E0007 = "E0007" // 表达式嵌套过深
	E0008 = "E0008" // 错误过多

	// E0100-E0199: 变量错误
	E0100 = "E0100" // 未定义的变量
	E0101 = "E0101" // 重复声明
	E0102 = "E0102" // 给常量赋值

	// E0200-E0299: 类型错误
	E0200 = "E0200" // 类型不匹配
	E0201 = "E0201" // ! 的操作数不是布尔值

	// E0300-E0399: 函数错误
	E0300 = "E0300" // 未定义的函数
	E0301 = "E0301" // 调用非函数
	E0302 = "E0302" // 参数数量错误

	// E0400-E0499: 常量求值错误
	E0400 = "E0400" // 除数为常量零

	// W0001-W0099: 警告
	W0001 = "W0001" // 未使用的变量
	W0002 = "W0002" // 初始化前使用
	W0003 = "W0003" // 数字字面量格式错误
	W0004 = "W0004" // 常量没有初始值
	W0005 = "W0005" // 不可达代码
)

// ============================================================================
// 错误码信息
// ============================================================================

// ErrorInfo 错误码信息
type ErrorInfo struct {
	Code      string // 错误码
	Level     Level  // 错误级别
	MessageID string // i18n 消息 ID
	Category  string // 错误分类
}

var codeTable = map[string]ErrorInfo{
	E0001: {E0001, LevelError, i18n.ErrExpectedToken, "syntax"},
	E0002: {E0002, LevelError, i18n.ErrUnexpectedChar, "syntax"},
	E0003: {E0003, LevelError, i18n.ErrUnterminatedString, "syntax"},
	E0004: {E0004, LevelError, i18n.ErrUnterminatedEmbed, "syntax"},
	E0005: {E0005, LevelError, i18n.ErrExpectedExpression, "syntax"},
	E0006: {E0006, LevelError, i18n.ErrExpectedName, "syntax"},
	E0007: {E0007, LevelError, i18n.ErrExprTooDeep, "syntax"},
	E0008: {E0008, LevelError, i18n.ErrTooManyErrors, "syntax"},

	E0100: {E0100, LevelError, i18n.ErrUndefinedVariable, "variable"},
	E0101: {E0101, LevelError, i18n.ErrAlreadyDeclared, "variable"},
	E0102: {E0102, LevelError, i18n.ErrAssignToConst, "variable"},

	E0200: {E0200, LevelError, i18n.ErrTypeMismatch, "type"},
	E0201: {E0201, LevelError, i18n.ErrNotOperand, "type"},

	E0300: {E0300, LevelError, i18n.ErrUndefinedFunction, "function"},
	E0301: {E0301, LevelError, i18n.ErrNotCallable, "function"},
	E0302: {E0302, LevelError, i18n.ErrArgCount, "function"},

	E0400: {E0400, LevelError, i18n.ErrDivisionByZero, "constant"},

	W0001: {W0001, LevelWarning, i18n.WarnUnusedVariable, "lint"},
	W0002: {W0002, LevelWarning, i18n.WarnUninitialized, "lint"},
	W0003: {W0003, LevelWarning, i18n.WarnMalformedNumber, "lint"},
	W0004: {W0004, LevelWarning, i18n.WarnConstNoValue, "lint"},
	W0005: {W0005, LevelWarning, i18n.WarnUnreachable, "lint"},
}

// Lookup 查找错误码信息
func Lookup(code string) (ErrorInfo, bool) {
	info, ok := codeTable[code]
	return info, ok
}

// IsWarningCode 判断错误码是否为警告
func IsWarningCode(code string) bool {
	info, ok := codeTable[code]
	return ok && info.Level == LevelWarning
}
