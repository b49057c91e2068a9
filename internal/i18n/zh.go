package i18n

var messagesZH = map[string]string{
	// ========== 词法 ==========
	ErrUnexpectedChar:     "意外的字符 '%c'",
	ErrUnterminatedString: "字符串未结束",
	ErrUnterminatedEmbed:  "嵌入代码块未结束，缺少 '#endembed'",

	// ========== 语法 ==========
	ErrExpectedToken:      "期望 %s，实际为 %s",
	ErrExpectedExpression: "期望表达式，实际为 %s",
	ErrExpectedName:       "'%s' 之后期望名称",
	ErrExprTooDeep:        "表达式嵌套过深",
	ErrTooManyErrors:      "错误过多，停止分析",

	// ========== 语义 ==========
	ErrUndefinedVariable: "未定义的变量 '%s'",
	ErrAlreadyDeclared:   "变量 '%s' 已声明",
	ErrAssignToConst:     "不能给常量 '%s' 赋值",
	ErrTypeMismatch:      "类型不匹配: %s %s %s",
	ErrNotOperand:        "运算符 '!' 需要布尔操作数，实际为 %s",
	ErrUndefinedFunction: "未定义的函数 '%s'",
	ErrNotCallable:       "'%s' 不是函数",
	ErrArgCount:          "函数 '%s' 需要 %d 个参数，实际传入 %d 个",

	WarnUnusedVariable:  "变量 '%s' 已声明但从未使用",
	WarnUninitialized:   "变量 '%s' 可能在初始化前被使用",
	WarnMalformedNumber: "数字字面量 '%s' 格式错误，按 0 处理",
	WarnConstNoValue:    "常量 '%s' 没有初始值",
	WarnUnreachable:     "return 之后的代码不可达",

	// ========== 优化 ==========
	ErrDivisionByZero: "除数为常量零",

	// ========== 驱动 ==========
	ErrInvalidInput: "无效输入: %s",
	ErrStageFailed:  "%s 阶段失败，共 %d 个错误",

	// ========== 建议 ==========
	SuggestDidYouMean:        "你是不是想用 '%s'？",
	SuggestDeclareFirst:      "先声明: #var %s = ...",
	SuggestUseVar:            "如果 '%s' 需要修改，请用 #var 声明",
	SuggestRename:            "重命名其中一个声明，或使用 '#%s = ...' 赋值",
	SuggestCheckDivisor:      "这里的除数始终为零",
	SuggestCloseBlock:        "代码块以 '#end' 结束",
	SuggestConvertOperand:    "转换其中一个操作数，使两边类型一致",
	SuggestCompareExplicitly: "改用显式比较，例如 'n == 0'",
	SuggestRemoveCode:        "删除 '#return' 之后的语句",
}
