package errors

import (
	"strings"

	"github.com/tangzhangming/sub/internal/i18n"
)

// ============================================================================
// 修复建议
// ============================================================================

// Context 生成建议时使用的上下文
type Context struct {
	Name       string   // 出错的名称
	Candidates []string // 作用域内可见的名称
}

// Suggestions 根据错误码生成修复建议
func Suggestions(code string, ctx Context) []string {
	var out []string
	switch code {
	case E0100, E0300:
		if similar := FindSimilar(ctx.Name, ctx.Candidates, maxDistanceFor(ctx.Name)); similar != "" {
			out = append(out, i18n.T(i18n.SuggestDidYouMean, similar))
		} else if code == E0100 {
			out = append(out, i18n.T(i18n.SuggestDeclareFirst, ctx.Name))
		}
	case E0101:
		out = append(out, i18n.T(i18n.SuggestRename, ctx.Name))
	case E0102:
		out = append(out, i18n.T(i18n.SuggestUseVar, ctx.Name))
	case E0200:
		out = append(out, i18n.T(i18n.SuggestConvertOperand))
	case E0201:
		out = append(out, i18n.T(i18n.SuggestCompareExplicitly))
	case E0400:
		out = append(out, i18n.T(i18n.SuggestCheckDivisor))
	case W0005:
		out = append(out, i18n.T(i18n.SuggestRemoveCode))
	}
	return out
}

// maxDistanceFor 名称越短允许的编辑距离越小
func maxDistanceFor(name string) int {
	switch {
	case len(name) <= 2:
		return 1
	case len(name) <= 5:
		return 2
	default:
		return 3
	}
}

// ============================================================================
// 相似名称查找
// ============================================================================

// FindSimilar 查找相似的名称，距离相同时取先出现的候选
func FindSimilar(name string, candidates []string, maxDistance int) string {
	if len(candidates) == 0 || name == "" {
		return ""
	}

	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		if candidate == name {
			continue
		}
		distance := levenshteinDistance(name, candidate)
		if distance < bestDistance {
			bestDistance = distance
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshteinDistance 计算 Levenshtein 编辑距离（忽略大小写）
func levenshteinDistance(s1, s2 string) int {
	s1 = strings.ToLower(s1)
	s2 = strings.ToLower(s2)
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	cur := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		cur[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}

	return prev[len(s2)]
}
