package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"cv-pipeline-go/internal/logger"
	"cv-pipeline-go/internal/types"
)

// 解析上限
const (
	maxSkills        = 20
	maxEducation     = 5
	nameLineCount    = 3  // 只在开头的前几行里找姓名
	nameMinLen       = 5  // 姓名行长度下限
	nameMaxLen       = 50 // 姓名行长度上限
	minPhoneDigits   = 9
	degreeWindowPre  = 10 // 学历关键词前向窗口
	degreeWindowPost = 50 // 学历关键词后向窗口
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s\-.()/]{7,}\d`)

	// "5 years of experience" / "5 ans d'expérience"
	expForwardRe = regexp.MustCompile(`(?i)(\d{1,2})\s*\+?\s*(?:years?|ans)\s*(?:of\s*|d['’]\s*)?(?:experience|exp[ée]rience)`)
	// "experience: 5 years" / "expérience de 5 ans"
	expReverseRe = regexp.MustCompile(`(?i)(?:experience|exp[ée]rience)\s*(?:of|de|:)?\s*(\d{1,2})\s*\+?\s*(?:years?|ans)`)

	yearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Parse 从纯文本中解析候选人结构化画像
// 契约: 永不失败；任何内部异常降级为全空画像
func Parse(text string) (profile *types.CandidateProfile) {
	profile = types.EmptyProfile()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("简历解析发生panic，返回空画像")
			profile = types.EmptyProfile()
		}
	}()

	if strings.TrimSpace(text) == "" {
		return profile
	}

	profile.FullName = parseName(text)
	profile.Email = parseEmail(text)
	profile.Phone = parsePhone(text)
	profile.Skills = parseSkills(text)
	profile.ExperienceYears = parseExperienceYears(text)
	profile.Education = parseEducation(text)
	profile.Languages = parseLanguages(text)
	return profile
}

// parseName 在开头的非空行中找姓名
// 接受长度合适、不含数字和@、且至少两个词的行
func parseName(text string) string {
	lines := nonEmptyLines(text)
	if len(lines) > nameLineCount {
		lines = lines[:nameLineCount]
	}
	for _, line := range lines {
		if len(line) < nameMinLen || len(line) > nameMaxLen {
			continue
		}
		if strings.ContainsAny(line, "@0123456789") {
			continue
		}
		if len(strings.Fields(line)) >= 2 {
			return line
		}
	}
	return ""
}

func parseEmail(text string) string {
	return emailRe.FindString(text)
}

// parsePhone 取第一个包含至少9位数字的电话样式片段
func parsePhone(text string) string {
	for _, candidate := range phoneRe.FindAllString(text, -1) {
		digits := 0
		for _, r := range candidate {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits >= minPhoneDigits {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

// parseSkills 技能取两路结果的并集: 词表匹配 + 技能章节分词收割
func parseSkills(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	var skills []string

	add := func(s string) {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		skills = append(skills, strings.TrimSpace(s))
	}

	// 词表子串匹配，在词边界上比较
	for _, skill := range techSkills {
		if len(skills) >= maxSkills {
			break
		}
		if containsWord(lower, skill) {
			add(skill)
		}
	}

	// 技能章节收割: 按分隔符切分后保留像技能名的token
	section := boundSection(text, skillsSectionKeywords)
	if section != "" {
		for _, token := range splitSectionTokens(section) {
			if len(skills) >= maxSkills {
				break
			}
			if isSkillToken(token) {
				add(token)
			}
		}
	}

	if len(skills) > maxSkills {
		skills = skills[:maxSkills]
	}
	return skills
}

// containsWord 检查子串出现且两侧不是字母数字
func containsWord(haystack, needle string) bool {
	for from := 0; ; {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return false
		}
		idx += from
		before := idx - 1
		after := idx + len(needle)
		beforeOK := before < 0 || !isAlnum(rune(haystack[before]))
		afterOK := after >= len(haystack) || !isAlnum(rune(haystack[after]))
		if beforeOK && afterOK {
			return true
		}
		from = idx + len(needle)
		if from >= len(haystack) {
			return false
		}
	}
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// splitSectionTokens 按常见分隔符切分章节内容
func splitSectionTokens(section string) []string {
	fields := strings.FieldsFunc(section, func(r rune) bool {
		switch r {
		case ',', ';', '•', '|', '/', '\n', '\t', ':', '·', '-':
			return true
		}
		return false
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// isSkillToken 判断章节token是否像技能名
// 近似名词/专有名词判定: 首字母大写或含技术符号，且不是停用词
func isSkillToken(token string) bool {
	if len(token) < 2 || len(token) > 30 {
		return false
	}
	if _, stop := sectionStopwords[strings.ToLower(token)]; stop {
		return false
	}
	// 纯数字不算技能
	onlyDigits := true
	for _, r := range token {
		if !unicode.IsDigit(r) {
			onlyDigits = false
			break
		}
	}
	if onlyDigits {
		return false
	}
	first := []rune(token)[0]
	if unicode.IsUpper(first) {
		return true
	}
	// 含技术符号的小写token也接受, 如 c++ / node.js
	return strings.ContainsAny(token, "+#.")
}

// parseExperienceYears 解析经验年数
// 优先显式 "N years experience" 两种语序；否则用年份跨度 max-min 推断
func parseExperienceYears(text string) *int {
	if m := expForwardRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	if m := expReverseRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}

	var years []int
	for _, m := range yearRe.FindAllStringSubmatch(text, -1) {
		y, err := strconv.Atoi(m[1])
		if err != nil || y < 1900 || y > 2099 {
			continue
		}
		years = append(years, y)
	}
	if len(years) >= 2 {
		minY, maxY := years[0], years[0]
		for _, y := range years[1:] {
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
		span := maxY - minY
		return &span
	}
	return nil
}

// parseEducation 学历取两路结果: 学历关键词上下文窗口 + 教育章节原始行
func parseEducation(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	var education []string

	add := func(s string) {
		s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
		if s == "" {
			return
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		education = append(education, s)
	}

	// 每个学历关键词出现处截取固定宽度窗口
	// 窗口在lower上定位和截取: 个别字符小写后字节长度会变化
	// (如开尔文符号K)，lower的索引套用到原文会错位甚至切断UTF-8序列
	for _, kw := range degreeKeywords {
		if len(education) >= maxEducation {
			break
		}
		for from := 0; len(education) < maxEducation; {
			idx := strings.Index(lower[from:], kw)
			if idx < 0 {
				break
			}
			idx += from
			start := idx - degreeWindowPre
			if start < 0 {
				start = 0
			}
			for start > 0 && !utf8.RuneStart(lower[start]) {
				start--
			}
			end := idx + len(kw) + degreeWindowPost
			if end > len(lower) {
				end = len(lower)
			}
			for end < len(lower) && !utf8.RuneStart(lower[end]) {
				end++
			}
			add(lower[start:end])
			from = idx + len(kw)
		}
	}

	// 教育章节的原始非空行
	section := boundSection(text, educationSectionKeywords)
	if section != "" {
		for _, line := range nonEmptyLines(section) {
			if len(education) >= maxEducation {
				break
			}
			add(line)
		}
	}

	if len(education) > maxEducation {
		education = education[:maxEducation]
	}
	return education
}

// parseLanguages 语言词表匹配并归一化到规范名
func parseLanguages(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	var languages []string

	for alias, canonical := range languageAliases {
		if !containsWord(lower, alias) {
			continue
		}
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		languages = append(languages, canonical)
	}

	// map遍历无序，输出按规范名排序保证稳定
	sort.Strings(languages)
	return languages
}
