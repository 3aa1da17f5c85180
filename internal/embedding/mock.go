package embedding

import (
	"context"
	"math"
)

// MockEmbedder 确定性的测试用编码器
// 同一文本永远得到同一向量，便于断言相似度性质
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder 创建指定维度的确定性编码器
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed 基于文本哈希生成确定性向量并归一化
func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	h := hashString(text)
	vec := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		vec[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	NormalizeL2Slice(vec)
	return vec, nil
}

// EmbedBatch 逐条编码
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions 返回向量维度
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close 无资源需要释放
func (e *MockEmbedder) Close() error {
	return nil
}
