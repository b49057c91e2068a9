package i18n

// 消息 ID。英文表是基准，中文表缺失的条目回退到英文。
const (
	// ========== Lexer ==========
	ErrUnexpectedChar     = "lexer.unexpected_char"
	ErrUnterminatedString = "lexer.unterminated_string"
	ErrUnterminatedEmbed  = "lexer.unterminated_embed"

	// ========== Parser ==========
	ErrExpectedToken      = "parser.expected_token"
	ErrExpectedExpression = "parser.expected_expression"
	ErrExpectedName       = "parser.expected_name"
	ErrExprTooDeep        = "parser.expr_too_deep"
	ErrTooManyErrors      = "parser.too_many_errors"

	// ========== Semantic ==========
	ErrUndefinedVariable = "semantic.undefined_variable"
	ErrAlreadyDeclared   = "semantic.already_declared"
	ErrAssignToConst     = "semantic.assign_to_const"
	ErrTypeMismatch      = "semantic.type_mismatch"
	ErrNotOperand        = "semantic.not_operand"
	ErrUndefinedFunction = "semantic.undefined_function"
	ErrNotCallable       = "semantic.not_callable"
	ErrArgCount          = "semantic.arg_count"

	WarnUnusedVariable  = "semantic.unused_variable"
	WarnUninitialized   = "semantic.uninitialized"
	WarnMalformedNumber = "semantic.malformed_number"
	WarnConstNoValue    = "semantic.const_no_value"
	WarnUnreachable     = "semantic.unreachable"

	// ========== Optimizer ==========
	ErrDivisionByZero = "optimizer.division_by_zero"

	// ========== Driver ==========
	ErrInvalidInput = "driver.invalid_input"
	ErrStageFailed  = "driver.stage_failed"

	// ========== 建议 ==========
	SuggestDidYouMean        = "suggestion.did_you_mean"
	SuggestDeclareFirst      = "suggestion.declare_first"
	SuggestUseVar            = "suggestion.use_var"
	SuggestRename            = "suggestion.rename"
	SuggestCheckDivisor      = "suggestion.check_divisor"
	SuggestCloseBlock        = "suggestion.close_block"
	SuggestConvertOperand    = "suggestion.convert_operand"
	SuggestCompareExplicitly = "suggestion.compare_explicitly"
	SuggestRemoveCode        = "suggestion.remove_code"
)
