package scorer

import (
	"context"
	"sort"
	"strings"

	"cv-pipeline-go/internal/embedding"
	"cv-pipeline-go/internal/logger"
	"cv-pipeline-go/internal/types"
	"cv-pipeline-go/pkg/utils"
)

// 相似度信号混合系数
const (
	tfidfAlpha     = 0.5 // tfidf与关键词重叠的混合比
	semanticWeight = 0.6 // 语义信号在最终混合中的权重
)

// SimilarityScore 计算岗位描述与简历文本的相似度，范围[0,100]
// 三路信号: 关键词重叠、TF-IDF余弦、句向量余弦；语义信号失败时降级为0
// quality 提供时施加最多10%的质量折减
func SimilarityScore(ctx context.Context, jobText, cvText string, quality *float64) float64 {
	if strings.TrimSpace(jobText) == "" || strings.TrimSpace(cvText) == "" {
		return 0
	}

	overlap := keywordOverlap(jobText, cvText)
	tfidf := tfidfCosine(jobText, cvText)
	semantic := semanticCosine(ctx, jobText, cvText)

	baseNoSemantic := tfidfAlpha*tfidf + (1-tfidfAlpha)*overlap
	base := semanticWeight*semantic + (1-semanticWeight)*baseNoSemantic

	if quality != nil {
		base *= 0.9 + 0.1*utils.Clamp(*quality, 0, 1)
	}

	return utils.Clamp(base*100, 0, 100)
}

// keywordOverlap 关键词重叠率
// 对岗位token计数，累加 min(job_count, cv_count) 后除以岗位token总数
func keywordOverlap(jobText, cvText string) float64 {
	jobTokens := tokenize(jobText)
	if len(jobTokens) == 0 {
		return 0
	}
	cvCounts := termCounts(tokenize(cvText))
	jobCounts := termCounts(jobTokens)

	matched := 0
	for token, jobCount := range jobCounts {
		cvCount := cvCounts[token]
		if cvCount < jobCount {
			matched += cvCount
		} else {
			matched += jobCount
		}
	}
	return float64(matched) / float64(len(jobTokens))
}

// semanticCosine 句向量余弦相似度
// 模型不可用或推理失败都降级为0，永不向上抛错
func semanticCosine(ctx context.Context, jobText, cvText string) float64 {
	embedder, err := embedding.Default()
	if err != nil {
		return 0
	}

	jobVec, err := embedder.Embed(ctx, jobText)
	if err != nil {
		logger.Debug().Err(err).Msg("岗位文本向量化失败，语义信号降级为0")
		return 0
	}
	cvVec, err := embedder.Embed(ctx, cvText)
	if err != nil {
		logger.Debug().Err(err).Msg("简历文本向量化失败，语义信号降级为0")
		return 0
	}

	sim := embedding.CosineSimilarity(jobVec, cvVec)
	// 归一化向量的余弦理论上在[-1,1]，负相关按无相关处理
	return utils.Clamp(sim, 0, 1)
}

// RankCandidates 对一批候选人文本按与岗位描述的相似度降序排序
func RankCandidates(ctx context.Context, jobText string, candidates []types.CandidateText) []types.RankedCandidate {
	ranked := make([]types.RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, types.RankedCandidate{
			DocumentID: c.DocumentID,
			Score:      SimilarityScore(ctx, jobText, c.Text, c.Quality),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
