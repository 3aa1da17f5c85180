package extractor

import (
	"strings"
)

// 常见停用词表，用于粗粒度的语言判定
// 覆盖管道支持的两种简历语言
var (
	englishStopwords = map[string]struct{}{
		"the": {}, "and": {}, "of": {}, "to": {}, "in": {}, "with": {},
		"for": {}, "on": {}, "at": {}, "from": {}, "as": {}, "is": {},
		"was": {}, "experience": {}, "skills": {}, "education": {}, "work": {},
	}
	frenchStopwords = map[string]struct{}{
		"le": {}, "la": {}, "les": {}, "et": {}, "de": {}, "des": {},
		"un": {}, "une": {}, "du": {}, "pour": {}, "avec": {}, "dans": {},
		"sur": {}, "est": {}, "formation": {}, "langues": {},
	}
)

// DetectLanguage 基于停用词频率的启发式语言检测
// 返回ISO 639-1语言代码，无法判定时返回空字符串
func DetectLanguage(text string) string {
	if len(text) < 40 {
		return ""
	}

	enCount, frCount := 0, 0
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?()[]'\"")
		if _, ok := englishStopwords[word]; ok {
			enCount++
		}
		if _, ok := frenchStopwords[word]; ok {
			frCount++
		}
	}

	if enCount == 0 && frCount == 0 {
		return ""
	}
	if frCount > enCount {
		return "fr"
	}
	return "en"
}
