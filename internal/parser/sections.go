package parser

import (
	"strings"
)

// sectionWindowSize 章节最大截取长度（字符数）
const sectionWindowSize = 500

// boundSection 在文本中定位某一章节的内容片段
// 策略: 找到第一个匹配的起始关键词；章节终点取固定偏移(500字符)与
// 其后最近的其他章节关键词位置中的较近者
// 未找到章节时返回空字符串
func boundSection(text string, startKeywords []string) string {
	lower := strings.ToLower(text)

	start := -1
	var matched string
	for _, kw := range startKeywords {
		idx := strings.Index(lower, kw)
		if idx >= 0 && (start == -1 || idx < start) {
			start = idx
			matched = kw
		}
	}
	if start == -1 {
		return ""
	}

	contentStart := start + len(matched)
	end := contentStart + sectionWindowSize
	if end > len(text) {
		end = len(text)
	}

	// 在窗口内寻找最近的其他章节关键词作为更紧的边界
	window := lower[contentStart:end]
	for _, kw := range sectionKeywords {
		if kw == matched {
			continue
		}
		if idx := strings.Index(window, kw); idx >= 0 && contentStart+idx < end {
			// 只把行首附近的关键词当作章节标题，行中出现的普通词不截断
			if isSectionHeading(window, idx) {
				end = contentStart + idx
				window = lower[contentStart:end]
			}
		}
	}

	return strings.TrimSpace(text[contentStart:end])
}

// isSectionHeading 判断关键词出现位置是否像章节标题
// 即它位于一行的起始处（忽略前导空白与冒号前缀）
func isSectionHeading(window string, idx int) bool {
	lineStart := strings.LastIndexByte(window[:idx], '\n') + 1
	prefix := strings.TrimSpace(window[lineStart:idx])
	return prefix == ""
}

// nonEmptyLines 返回文本中去除首尾空白后的非空行
func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
