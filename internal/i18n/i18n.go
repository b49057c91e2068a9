package i18n

import (
	"fmt"
	"strings"
	"sync"
)

// Language 语言类型
type Language string

const (
	LangEnglish Language = "en"
	LangChinese Language = "zh"
)

// 全局语言设置
var (
	currentLang Language = LangEnglish
	mu          sync.RWMutex
)

// catalogs 语言到消息表的映射
var catalogs = map[Language]map[string]string{
	LangEnglish: messagesEN,
	LangChinese: messagesZH,
}

// SetLanguage 设置当前语言
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	currentLang = lang
}

// ParseLanguage 解析语言名称，未知名称返回 false
func ParseLanguage(lang string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "zh", "zh-cn", "zh-tw", "zh-hk", "chinese":
		return LangChinese, true
	case "", "en", "en-us", "en-gb", "english":
		return LangEnglish, true
	}
	return LangEnglish, false
}

// SetLanguageFromString 从字符串设置语言
func SetLanguageFromString(lang string) {
	l, _ := ParseLanguage(lang)
	SetLanguage(l)
}

// GetLanguage 获取当前语言
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return currentLang
}

// T 翻译消息（支持格式化参数）
func T(msgID string, args ...interface{}) string {
	return TIn(GetLanguage(), msgID, args...)
}

// TIn 使用指定语言翻译消息，不受全局设置影响
func TIn(lang Language, msgID string, args ...interface{}) string {
	if msg, ok := catalogs[lang][msgID]; ok {
		return format(msg, args)
	}

	// 回退到英文
	if msg, ok := messagesEN[msgID]; ok {
		return format(msg, args)
	}

	// 找不到翻译则返回原始 ID
	return msgID
}

// Has 判断消息 ID 是否存在英文版本
func Has(msgID string) bool {
	_, ok := messagesEN[msgID]
	return ok
}

func format(msg string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}
