//go:build cgo
// +build cgo

package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

// GosseractEngine 基于Tesseract的OCR引擎实现
// 依赖cgo与系统安装的tesseract/leptonica库
type GosseractEngine struct {
	languages string
	mu        sync.Mutex
	client    *gosseract.Client
}

// NewGosseractEngine 创建Tesseract OCR引擎
// languages 形如 "eng+fra"
func NewGosseractEngine(languages string) (*GosseractEngine, error) {
	if languages == "" {
		languages = "eng"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(languages); err != nil {
		client.Close()
		return nil, fmt.Errorf("设置OCR语言 %q 失败: %w", languages, err)
	}
	return &GosseractEngine{
		languages: languages,
		client:    client,
	}, nil
}

// RecognizeImage 预处理后识别单张图片中的文本
func (g *GosseractEngine) RecognizeImage(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	processed := PreprocessForOCR(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, processed); err != nil {
		return "", Permanent(fmt.Errorf("编码预处理图片失败: %w", err))
	}

	// gosseract客户端非并发安全，串行化识别调用
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", Transient(fmt.Errorf("加载图片到OCR引擎失败: %w", err))
	}
	text, err := g.client.Text()
	if err != nil {
		return "", Transient(fmt.Errorf("OCR识别失败: %w", err))
	}
	return text, nil
}

// RasterizePDF 将PDF按页渲染为图片
func (g *GosseractEngine) RasterizePDF(ctx context.Context, data []byte, dpi float64) ([]image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, Permanent(fmt.Errorf("%w: 打开PDF失败: %v", ErrCorruptDocument, err))
	}
	defer doc.Close()

	pages := make([]image.Image, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, Permanent(fmt.Errorf("%w: 渲染第%d页失败: %v", ErrCorruptDocument, i+1, err))
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// Close 释放Tesseract客户端
func (g *GosseractEngine) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		err := g.client.Close()
		g.client = nil
		return err
	}
	return nil
}
