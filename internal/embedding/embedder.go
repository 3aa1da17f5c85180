// Package embedding 提供多语言句向量编码能力，带进程级缓存
package embedding

import (
	"context"
	"math"
)

// Embedder 文本向量编码器接口
type Embedder interface {
	// Embed 返回文本的归一化向量
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 批量编码
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions 返回向量维度
	Dimensions() int

	// Close 释放底层资源
	Close() error
}

// NormalizeL2Slice 就地L2归一化
func NormalizeL2Slice(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum <= 0 {
		return
	}
	norm := 1.0 / math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) * norm)
	}
}

// CosineSimilarity 计算两个向量的余弦相似度
// 维度不匹配或零向量时返回0
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
