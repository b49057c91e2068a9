package i18n

var messagesEN = map[string]string{
	// ========== Lexer ==========
	ErrUnexpectedChar:     "unexpected character '%c'",
	ErrUnterminatedString: "unterminated string",
	ErrUnterminatedEmbed:  "unterminated embed block, expected '#endembed'",

	// ========== Parser ==========
	ErrExpectedToken:      "expected %s, got %s",
	ErrExpectedExpression: "expected expression, got %s",
	ErrExpectedName:       "expected name after '%s'",
	ErrExprTooDeep:        "expression nesting too deep",
	ErrTooManyErrors:      "too many errors, giving up",

	// ========== Semantic ==========
	ErrUndefinedVariable: "undefined variable '%s'",
	ErrAlreadyDeclared:   "variable '%s' already declared",
	ErrAssignToConst:     "cannot assign to constant '%s'",
	ErrTypeMismatch:      "type mismatch: %s %s %s",
	ErrNotOperand:        "operator '!' requires a bool operand, got %s",
	ErrUndefinedFunction: "undefined function '%s'",
	ErrNotCallable:       "'%s' is not a function",
	ErrArgCount:          "function '%s' expects %d arguments, got %d",

	WarnUnusedVariable:  "variable '%s' declared but never used",
	WarnUninitialized:   "variable '%s' may be used before initialization",
	WarnMalformedNumber: "malformed numeric literal '%s', treated as 0",
	WarnConstNoValue:    "constant '%s' declared without a value",
	WarnUnreachable:     "unreachable code after return",

	// ========== Optimizer ==========
	ErrDivisionByZero: "division by constant zero",

	// ========== Driver ==========
	ErrInvalidInput: "invalid input: %s",
	ErrStageFailed:  "%s failed with %d error(s)",

	// ========== 建议 ==========
	SuggestDidYouMean:        "did you mean '%s'?",
	SuggestDeclareFirst:      "declare it first: #var %s = ...",
	SuggestUseVar:            "declare '%s' with #var if it needs to change",
	SuggestRename:            "rename one of the declarations, or assign with '#%s = ...'",
	SuggestCheckDivisor:      "the divisor is always zero here",
	SuggestCloseBlock:        "blocks are closed with '#end'",
	SuggestConvertOperand:    "convert one operand so both sides have the same type",
	SuggestCompareExplicitly: "compare explicitly instead, e.g. 'n == 0'",
	SuggestRemoveCode:        "remove the statements after '#return'",
}
