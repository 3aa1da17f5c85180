package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-pipeline-go/internal/parser"
	"cv-pipeline-go/internal/types"
	"cv-pipeline-go/pkg/utils"
)

// TestScoreProfileEmptyCriteria 各维度无要求时一律满分
func TestScoreProfileEmptyCriteria(t *testing.T) {
	profile := &types.CandidateProfile{
		Skills:    []string{"python"},
		Education: []string{"MSc Computer Science"},
		Languages: []string{"English"},
	}
	score := ScoreProfile(profile, &types.RequisitionCriteria{})
	require.NotNil(t, score)

	assert.Equal(t, 100.0, score.SkillsScore)
	assert.Equal(t, 100.0, score.ExperienceScore)
	assert.Equal(t, 100.0, score.EducationScore)
	assert.Equal(t, 100.0, score.LanguageScore)
	assert.Equal(t, 100.0, score.MatchingScore)
}

// TestScoreSkillsExactMatchIsCaseInsensitive 大小写不同的精确匹配得满分
func TestScoreSkillsExactMatchIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, 100.0, scoreSkills([]string{"Python"}, []string{"python"}))
	assert.Equal(t, 100.0, scoreSkills([]string{"python", "go"}, []string{"Python", "Go"}))
}

// TestScoreSkillsFuzzyAndMiss 模糊匹配按比例计分，低于阈值记零
func TestScoreSkillsFuzzyAndMiss(t *testing.T) {
	// 词序无关: "machine learning" vs "learning machine" 的TokenSort分应为满分
	assert.Equal(t, 100.0, scoreSkills([]string{"learning machine"}, []string{"machine learning"}))

	// 完全无关的技能得零分
	assert.Equal(t, 0.0, scoreSkills([]string{"cooking"}, []string{"kubernetes"}))

	// 两个要求技能命中一个精确匹配时得50分
	assert.Equal(t, 50.0, scoreSkills([]string{"python"}, []string{"python", "quantum computing"}))
}

func TestScoreExperience(t *testing.T) {
	// 无要求⇒100
	assert.Equal(t, 100.0, scoreExperience(utils.IntPtr(2), 0))
	assert.Equal(t, 100.0, scoreExperience(nil, -1))

	// 候选人经验未知⇒中性50
	assert.Equal(t, 50.0, scoreExperience(nil, 5))

	// 达标⇒100
	assert.Equal(t, 100.0, scoreExperience(utils.IntPtr(5), 5))
	assert.Equal(t, 100.0, scoreExperience(utils.IntPtr(10), 5))

	// 不足按比例: 要求5年有2年 ⇒ 40
	assert.Equal(t, 40.0, scoreExperience(utils.IntPtr(2), 5))

	// 零年经验⇒0
	assert.Equal(t, 0.0, scoreExperience(utils.IntPtr(0), 5))
}

func TestScoreEducation(t *testing.T) {
	// 无要求⇒100
	assert.Equal(t, 100.0, scoreEducation(nil, nil))

	// 有要求但候选人无学历信息⇒保底分30
	assert.Equal(t, 30.0, scoreEducation(nil, []string{"Master"}))
	assert.Equal(t, 30.0, scoreEducation([]string{}, []string{"Master"}))

	// Partial匹配: 要求词完整出现在候选学历中应得满分
	got := scoreEducation([]string{"Master of Science in Computer Science"}, []string{"master"})
	assert.Equal(t, 100.0, got)

	// 完全无关⇒0
	assert.Equal(t, 0.0, scoreEducation([]string{"xyzzy"}, []string{"doctorate in physics"}))
}

func TestScoreLanguages(t *testing.T) {
	// 无要求⇒100，有要求但候选人无语言信息⇒0
	assert.Equal(t, 100.0, scoreLanguages(nil, nil))
	assert.Equal(t, 0.0, scoreLanguages(nil, []string{"English"}))

	// 精确匹配大小写不敏感
	assert.Equal(t, 100.0, scoreLanguages([]string{"english"}, []string{"English"}))

	// 两门要求语言命中一门⇒50
	assert.Equal(t, 50.0, scoreLanguages([]string{"French"}, []string{"French", "German"}))
}

// TestScoreProfileWeights 总分是四个维度的固定加权和
func TestScoreProfileWeights(t *testing.T) {
	profile := &types.CandidateProfile{
		Skills:          []string{"python"},
		ExperienceYears: utils.IntPtr(2),
		Languages:       []string{"English"},
	}
	req := &types.RequisitionCriteria{
		RequiredSkills:     []string{"python"},
		MinExperienceYears: 5,
		RequiredEducation:  []string{"Master"},
		RequiredLanguages:  []string{"English"},
	}
	score := ScoreProfile(profile, req)

	assert.Equal(t, 100.0, score.SkillsScore)
	assert.Equal(t, 40.0, score.ExperienceScore)
	assert.Equal(t, 30.0, score.EducationScore)
	assert.Equal(t, 100.0, score.LanguageScore)

	expected := 100*0.40 + 40*0.30 + 30*0.20 + 100*0.10
	assert.InDelta(t, expected, score.MatchingScore, 1e-9)

	// 评分明细记录了权重与双方输入
	require.Contains(t, score.ScoringDetails, "weights")
	assert.Equal(t, req.RequiredSkills, score.ScoringDetails["required_skills"])
}

// TestScoreProfileNilInputs nil画像与nil需求都不会panic
func TestScoreProfileNilInputs(t *testing.T) {
	score := ScoreProfile(nil, nil)
	require.NotNil(t, score)
	assert.Equal(t, 100.0, score.MatchingScore)

	score = ScoreProfile(nil, &types.RequisitionCriteria{RequiredSkills: []string{"go"}})
	require.NotNil(t, score)
	assert.Equal(t, 0.0, score.SkillsScore)
}

// TestScoreProfileSelfConsistency 解析结果作为要求回馈评分时各维度满分
func TestScoreProfileSelfConsistency(t *testing.T) {
	text := `Jean Dupont
Senior Backend Engineer

5 years of experience in backend development.

Skills
Python, Go, Docker, PostgreSQL

Education
Master of Science en Informatique

Languages
English, French`

	profile := parser.Parse(text)
	require.NotNil(t, profile)
	require.NotEmpty(t, profile.Skills)
	require.NotEmpty(t, profile.Education)
	require.NotEmpty(t, profile.Languages)
	require.NotNil(t, profile.ExperienceYears)

	req := &types.RequisitionCriteria{
		RequiredSkills:     profile.Skills,
		MinExperienceYears: *profile.ExperienceYears,
		RequiredEducation:  profile.Education,
		RequiredLanguages:  profile.Languages,
	}
	score := ScoreProfile(profile, req)
	require.NotNil(t, score)

	assert.Equal(t, 100.0, score.SkillsScore)
	assert.Equal(t, 100.0, score.ExperienceScore)
	assert.Equal(t, 100.0, score.EducationScore)
	assert.Equal(t, 100.0, score.LanguageScore)
	assert.InDelta(t, 100.0, score.MatchingScore, 0.001)
}
