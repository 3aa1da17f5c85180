//go:build !cgo
// +build !cgo

package extractor

import (
	"context"
	"image"
)

// GosseractEngine 非cgo构建下的占位实现 (真实实现见 ocr_gosseract.go)
// 所有识别调用返回暂时性错误，由上层按可重试处理
type GosseractEngine struct{}

// NewGosseractEngine 非cgo构建下返回占位引擎
func NewGosseractEngine(_ string) (*GosseractEngine, error) {
	return &GosseractEngine{}, nil
}

func (g *GosseractEngine) RecognizeImage(_ context.Context, _ image.Image) (string, error) {
	return "", Transient(ErrOCRUnavailable)
}

func (g *GosseractEngine) RasterizePDF(_ context.Context, _ []byte, _ float64) ([]image.Image, error) {
	return nil, Transient(ErrOCRUnavailable)
}

func (g *GosseractEngine) Close() error {
	return nil
}
