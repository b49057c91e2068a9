package i18n

import "testing"

func TestCatalogsCoverSameKeys(t *testing.T) {
	for id := range messagesEN {
		if _, ok := messagesZH[id]; !ok {
			t.Errorf("missing zh translation for %q", id)
		}
	}
	for id := range messagesZH {
		if _, ok := messagesEN[id]; !ok {
			t.Errorf("zh has extra message %q", id)
		}
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		lang Language
		id   string
		args []interface{}
		want string
	}{
		{LangEnglish, ErrUndefinedVariable, []interface{}{"x"}, "undefined variable 'x'"},
		{LangChinese, ErrUndefinedVariable, []interface{}{"x"}, "未定义的变量 'x'"},
		{LangEnglish, ErrDivisionByZero, nil, "division by constant zero"},
		{LangEnglish, "no.such.id", nil, "no.such.id"},
	}

	for _, tt := range tests {
		if got := TIn(tt.lang, tt.id, tt.args...); got != tt.want {
			t.Errorf("TIn(%s, %s) = %q, want %q", tt.lang, tt.id, got, tt.want)
		}
	}
}

func TestParseLanguage(t *testing.T) {
	if l, ok := ParseLanguage("zh-CN"); !ok || l != LangChinese {
		t.Errorf("expected zh, got %s (%v)", l, ok)
	}
	if _, ok := ParseLanguage("klingon"); ok {
		t.Errorf("expected unknown language to be rejected")
	}
}
