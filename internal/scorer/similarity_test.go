package scorer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-pipeline-go/internal/embedding"
	"cv-pipeline-go/internal/types"
	"cv-pipeline-go/pkg/utils"
)

func TestSimilarityScoreEmptyInputs(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, 0.0, SimilarityScore(ctx, "", "hello", nil))
	assert.Equal(t, 0.0, SimilarityScore(ctx, "hello", "", nil))
	assert.Equal(t, 0.0, SimilarityScore(ctx, "   ", "\n", nil))
}

// TestSimilarityScoreIdenticalTexts 注入Mock编码器后，完全相同的文本应接近满分
func TestSimilarityScoreIdenticalTexts(t *testing.T) {
	embedding.SetDefault(embedding.NewMockEmbedder(64))
	defer embedding.SetDefault(nil)

	ctx := context.Background()
	text := "senior golang developer with kubernetes and postgresql experience"

	score := SimilarityScore(ctx, text, text, nil)
	assert.InDelta(t, 100.0, score, 1e-6)
}

// TestSimilarityScoreDegradesWithoutEmbedder 模型不可用时只用词法信号，不报错
func TestSimilarityScoreDegradesWithoutEmbedder(t *testing.T) {
	embedding.SetDefault(nil)

	ctx := context.Background()
	text := "golang developer kubernetes postgresql"

	// 语义信号为0: 相同文本的上限是 (1-semanticWeight)*100
	score := SimilarityScore(ctx, text, text, nil)
	assert.InDelta(t, (1-semanticWeight)*100, score, 1e-6)
}

// TestSimilarityScoreQualityPenalty 质量折减最多10%，且单调
func TestSimilarityScoreQualityPenalty(t *testing.T) {
	embedding.SetDefault(embedding.NewMockEmbedder(64))
	defer embedding.SetDefault(nil)

	ctx := context.Background()
	text := "data engineer with spark and airflow background"

	full := SimilarityScore(ctx, text, text, utils.Float64Ptr(1.0))
	half := SimilarityScore(ctx, text, text, utils.Float64Ptr(0.5))
	zero := SimilarityScore(ctx, text, text, utils.Float64Ptr(0.0))

	// q=0 恰好是 q=1 的 90%
	assert.InDelta(t, full*0.9, zero, 1e-6)
	assert.Greater(t, full, half)
	assert.Greater(t, half, zero)

	// 质量超出[0,1]会被钳制
	overflow := SimilarityScore(ctx, text, text, utils.Float64Ptr(7.5))
	assert.InDelta(t, full, overflow, 1e-6)
}

// TestSimilarityScoreRelatedBeatsUnrelated 相关文本的分数应高于无关文本
func TestSimilarityScoreRelatedBeatsUnrelated(t *testing.T) {
	embedding.SetDefault(nil)

	ctx := context.Background()
	job := "backend golang developer postgresql docker kubernetes"
	related := "experienced golang developer, strong postgresql and docker skills"
	unrelated := "pastry chef specializing in croissants and macarons"

	assert.Greater(t,
		SimilarityScore(ctx, job, related, nil),
		SimilarityScore(ctx, job, unrelated, nil))
}

func TestKeywordOverlap(t *testing.T) {
	// 完全重叠⇒1, 无重叠⇒0
	assert.InDelta(t, 1.0, keywordOverlap("go sql", "go sql"), 1e-9)
	assert.InDelta(t, 0.0, keywordOverlap("go sql", "pastry chef"), 1e-9)

	// 岗位token有一半出现在简历中⇒0.5
	assert.InDelta(t, 0.5, keywordOverlap("go rust", "go python"), 1e-9)
}

func TestTfidfCosine(t *testing.T) {
	assert.InDelta(t, 1.0, tfidfCosine("golang developer", "golang developer"), 1e-9)
	assert.InDelta(t, 0.0, tfidfCosine("golang developer", "pastry chef"), 1e-9)

	// 空文本不产生NaN
	assert.Equal(t, 0.0, tfidfCosine("", "golang"))
}

func TestRankCandidatesOrdering(t *testing.T) {
	embedding.SetDefault(nil)

	ctx := context.Background()
	job := "golang developer kubernetes"
	candidates := []types.CandidateText{
		{DocumentID: "doc-unrelated", Text: "florist with bouquet arranging expertise"},
		{DocumentID: "doc-exact", Text: "golang developer kubernetes"},
		{DocumentID: "doc-partial", Text: "golang developer"},
	}

	ranked := RankCandidates(ctx, job, candidates)
	require.Len(t, ranked, 3)

	assert.Equal(t, "doc-exact", ranked[0].DocumentID)
	assert.Equal(t, "doc-partial", ranked[1].DocumentID)
	assert.Equal(t, "doc-unrelated", ranked[2].DocumentID)

	// 分数降序
	assert.GreaterOrEqual(t, ranked[0].Score, ranked[1].Score)
	assert.GreaterOrEqual(t, ranked[1].Score, ranked[2].Score)
}
