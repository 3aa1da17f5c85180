//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

var errONNXRequiresCGO = errors.New("ONNX编码器需要cgo，请使用CGO_ENABLED=1并安装onnxruntime后构建")

// ONNXEmbedder 非cgo构建下的占位实现 (真实实现见 onnx.go)
// 所有编码调用返回错误，由上层降级处理
type ONNXEmbedder struct{}

// NewONNXEmbedder 非cgo构建下直接返回错误
func NewONNXEmbedder(_ string, _, _, _ int) (*ONNXEmbedder, error) {
	return nil, errONNXRequiresCGO
}

func (e *ONNXEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errONNXRequiresCGO
}

func (e *ONNXEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errONNXRequiresCGO
}

func (e *ONNXEmbedder) Dimensions() int {
	return 0
}

func (e *ONNXEmbedder) Close() error {
	return nil
}
