package extractor

import (
	"context"
	"image"
)

// OCREngine 光学字符识别引擎接口
// 具体实现依赖cgo，非cgo构建下退化为返回暂时性错误的占位实现
type OCREngine interface {
	// RecognizeImage 识别单张图片中的文本
	RecognizeImage(ctx context.Context, img image.Image) (string, error)

	// RasterizePDF 将PDF按页渲染为图片，供逐页OCR使用
	RasterizePDF(ctx context.Context, data []byte, dpi float64) ([]image.Image, error)

	// Close 释放引擎持有的资源
	Close() error
}
