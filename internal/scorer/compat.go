// Package scorer 实现候选人画像与招聘需求的匹配评分，
// 以及岗位描述与简历文本的相似度评分
package scorer

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"cv-pipeline-go/internal/logger"
	"cv-pipeline-go/internal/types"
	"cv-pipeline-go/pkg/utils"
)

// 固定评分权重
const (
	weightSkills     = 0.40
	weightExperience = 0.30
	weightEducation  = 0.20
	weightLanguages  = 0.10
)

// 模糊匹配阈值
const (
	skillFuzzyThreshold    = 70 // 技能与学历的模糊匹配下限
	languageFuzzyThreshold = 80 // 语言的模糊匹配下限
)

// neutralExperienceScore 候选人经验未知时的中性分
const neutralExperienceScore = 50.0

// emptyEducationScore 要求学历但候选人无学历信息时的保底分
const emptyEducationScore = 30.0

// ScoreProfile 计算候选人画像对招聘需求的匹配评分
// 契约: 永不失败；任何内部异常降级为全零评分
func ScoreProfile(profile *types.CandidateProfile, req *types.RequisitionCriteria) (score *types.CompatibilityScore) {
	score = &types.CompatibilityScore{
		ScoringDetails: map[string]interface{}{},
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("匹配评分发生panic，返回全零评分")
			score = &types.CompatibilityScore{ScoringDetails: map[string]interface{}{}}
		}
	}()

	if profile == nil {
		profile = types.EmptyProfile()
	}
	if req == nil {
		req = &types.RequisitionCriteria{}
	}

	score.SkillsScore = scoreSkills(profile.Skills, req.RequiredSkills)
	score.ExperienceScore = scoreExperience(profile.ExperienceYears, req.MinExperienceYears)
	score.EducationScore = scoreEducation(profile.Education, req.RequiredEducation)
	score.LanguageScore = scoreLanguages(profile.Languages, req.RequiredLanguages)

	score.MatchingScore = utils.Clamp(
		score.SkillsScore*weightSkills+
			score.ExperienceScore*weightExperience+
			score.EducationScore*weightEducation+
			score.LanguageScore*weightLanguages,
		0, 100)

	score.ScoringDetails = map[string]interface{}{
		"weights": map[string]float64{
			"skills":     weightSkills,
			"experience": weightExperience,
			"education":  weightEducation,
			"languages":  weightLanguages,
		},
		"candidate_skills":     profile.Skills,
		"required_skills":      req.RequiredSkills,
		"candidate_experience": profile.ExperienceYears,
		"required_experience":  req.MinExperienceYears,
		"candidate_education":  profile.Education,
		"required_education":   req.RequiredEducation,
		"candidate_languages":  profile.Languages,
		"required_languages":   req.RequiredLanguages,
	}
	return score
}

// scoreSkills 技能维度评分
// 每个要求技能: 精确匹配得1.0，否则取最优TokenSort模糊分，达到阈值按比例计分
func scoreSkills(candidate, required []string) float64 {
	if len(required) == 0 {
		return 100
	}

	total := 0.0
	for _, reqSkill := range required {
		total += matchOneSkill(candidate, reqSkill)
	}
	return utils.Clamp(total/float64(len(required))*100, 0, 100)
}

func matchOneSkill(candidate []string, reqSkill string) float64 {
	reqLower := strings.ToLower(strings.TrimSpace(reqSkill))
	best := 0
	for _, cand := range candidate {
		candLower := strings.ToLower(strings.TrimSpace(cand))
		if candLower == reqLower {
			return 1.0
		}
		// 词序无关的模糊相似度
		if ratio := fuzzy.TokenSortRatio(candLower, reqLower); ratio > best {
			best = ratio
		}
	}
	if best >= skillFuzzyThreshold {
		return float64(best) / 100
	}
	return 0
}

// scoreExperience 经验维度评分
// 无要求⇒100；候选人未知⇒中性50；达标⇒100；否则按比例
func scoreExperience(candidateYears *int, requiredYears int) float64 {
	if requiredYears <= 0 {
		return 100
	}
	if candidateYears == nil {
		return neutralExperienceScore
	}
	if *candidateYears >= requiredYears {
		return 100
	}
	if *candidateYears <= 0 {
		return 0
	}
	return utils.Clamp(float64(*candidateYears)/float64(requiredYears)*100, 0, 100)
}

// scoreEducation 学历维度评分
// 每个要求条目取候选学历中最优的Partial模糊分，达到阈值按比例计分
func scoreEducation(candidate, required []string) float64 {
	if len(required) == 0 {
		return 100
	}
	if len(candidate) == 0 {
		return emptyEducationScore
	}

	total := 0.0
	for _, reqEdu := range required {
		reqLower := strings.ToLower(strings.TrimSpace(reqEdu))
		best := 0
		for _, cand := range candidate {
			if ratio := fuzzy.PartialRatio(strings.ToLower(cand), reqLower); ratio > best {
				best = ratio
			}
		}
		if best >= skillFuzzyThreshold {
			total += float64(best) / 100
		}
	}
	return utils.Clamp(total/float64(len(required))*100, 0, 100)
}

// scoreLanguages 语言维度评分
// 按匹配上的要求语言占比计分，精确或模糊(≥80)均算匹配
func scoreLanguages(candidate, required []string) float64 {
	if len(required) == 0 {
		return 100
	}
	if len(candidate) == 0 {
		return 0
	}

	matched := 0
	for _, reqLang := range required {
		reqLower := strings.ToLower(strings.TrimSpace(reqLang))
		for _, cand := range candidate {
			candLower := strings.ToLower(strings.TrimSpace(cand))
			if candLower == reqLower || fuzzy.Ratio(candLower, reqLower) >= languageFuzzyThreshold {
				matched++
				break
			}
		}
	}
	return utils.Clamp(float64(matched)/float64(len(required))*100, 0, 100)
}
