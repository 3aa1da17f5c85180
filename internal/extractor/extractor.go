package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cv-pipeline-go/internal/config"
	"cv-pipeline-go/internal/constants"
	"cv-pipeline-go/internal/logger"
	"cv-pipeline-go/internal/types"
	"cv-pipeline-go/pkg/utils"
)

var extractorTracer = otel.Tracer("cv-pipeline-go/extractor")

// 提取方法标识，写入结果meta
const (
	MethodPDFNative = "pdf_native"
	MethodPDFOCR    = "pdf_ocr"
	MethodDOCX      = "docx"
	MethodImageOCR  = "image_ocr"
	MethodPlainText = "plain_text"
)

// Extractor 按文件类型分发的文本提取器
type Extractor struct {
	cfg     *config.ExtractorConfig
	ocr     OCREngine
	version string

	// PDF文本层提取函数，测试中可替换
	nativePDF func(data []byte) (string, int, error)
}

// New 创建文本提取器
func New(cfg *config.ExtractorConfig, ocr OCREngine) *Extractor {
	return &Extractor{
		cfg:       cfg,
		ocr:       ocr,
		version:   constants.DefaultExtractorVer,
		nativePDF: extractPDFNative,
	}
}

// SetVersion 覆盖写入提取元数据的流水线版本号
func (e *Extractor) SetVersion(version string) {
	if version != "" {
		e.version = version
	}
}

// Extract 从文档字节中提取纯文本
// 返回文本、质量分与元数据；按mime类型优先匹配，其次回退到文件扩展名
func (e *Extractor) Extract(ctx context.Context, data []byte, filename, mimeType string) (*types.ExtractionResult, error) {
	ctx, span := extractorTracer.Start(ctx, "Extractor.Extract",
		trace.WithAttributes(
			attribute.String("filename", filename),
			attribute.String("mime_type", mimeType),
			attribute.Int("size_bytes", len(data)),
		))
	defer span.End()

	fileExt := strings.ToLower(filepath.Ext(filename))

	var (
		text   string
		method string
		pages  int
		err    error
	)

	switch {
	case isPDF(mimeType, fileExt):
		text, method, pages, err = e.extractPDF(ctx, data)
	case isDOCX(mimeType, fileExt):
		text, err = extractDOCX(data)
		method = MethodDOCX
	case isImage(mimeType, fileExt):
		text, err = e.extractImage(ctx, data)
		method = MethodImageOCR
	default:
		// 兜底: 按UTF-8文本解码，丢弃非法字节
		text = decodeUTF8Lossy(data)
		method = MethodPlainText
		if strings.TrimSpace(text) == "" {
			err = Permanent(fmt.Errorf("%w: mime=%s ext=%s", ErrUnsupportedFormat, mimeType, fileExt))
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	quality := qualityScore(text, len(data))
	language := DetectLanguage(text)

	meta := map[string]interface{}{
		"file_ext":          fileExt,
		"mime_type":         mimeType,
		"method":            method,
		"extractor_version": e.version,
		"n_chars":           utf8.RuneCountInString(text),
		"quality_score":     quality,
	}
	if pages > 0 {
		meta["pages"] = pages
	}

	span.SetAttributes(
		attribute.String("method", method),
		attribute.Float64("quality", quality),
	)
	span.SetStatus(codes.Ok, "")

	result := &types.ExtractionResult{
		Text:    text,
		Quality: quality,
		Meta:    meta,
	}
	if language != "" {
		result.Language = &language
	}
	return result, nil
}

// extractPDF 先尝试内嵌文本层，文本过少时按扫描件走逐页OCR
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, string, int, error) {
	nativeText, numPages, nativeErr := e.nativePDF(data)
	if nativeErr == nil && utf8.RuneCountInString(strings.TrimSpace(nativeText)) >= e.cfg.NativeTextThreshold {
		return nativeText, MethodPDFNative, numPages, nil
	}

	// 文本层缺失或过少，按扫描件处理
	ocrText, ocrPages, ocrErr := e.ocrPDF(ctx, data)
	if ocrErr != nil {
		// OCR失败但文本层有内容时降级使用文本层结果
		if nativeErr == nil && strings.TrimSpace(nativeText) != "" {
			logger.Warn().Err(ocrErr).Msg("扫描件OCR失败，降级使用PDF文本层结果")
			return nativeText, MethodPDFNative, numPages, nil
		}
		if nativeErr != nil && IsPermanent(nativeErr) && IsPermanent(ocrErr) {
			return "", "", 0, nativeErr
		}
		return "", "", 0, ocrErr
	}
	return ocrText, MethodPDFOCR, ocrPages, nil
}

// ocrPDF 将PDF逐页渲染为图片并顺序OCR，页间以换行连接
func (e *Extractor) ocrPDF(ctx context.Context, data []byte) (string, int, error) {
	images, err := e.ocr.RasterizePDF(ctx, data, float64(e.cfg.OCRDPI))
	if err != nil {
		return "", 0, err
	}

	var sb strings.Builder
	for i, img := range images {
		pageText, err := e.ocr.RecognizeImage(ctx, img)
		if err != nil {
			return "", 0, fmt.Errorf("第%d页OCR失败: %w", i+1, err)
		}
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(pageText)
	}
	return sb.String(), len(images), nil
}

// extractImage 解码图片并直接OCR
func (e *Extractor) extractImage(ctx context.Context, data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", Permanent(fmt.Errorf("%w: 图片解码失败: %v", ErrCorruptDocument, err))
	}
	return e.ocr.RecognizeImage(ctx, img)
}

// qualityScore 质量启发式: clamp(10 * 字符数 / 文件字节数, 0, 1)
// 粗粒度的可读性代理指标，用于下游折减而非淘汰
func qualityScore(text string, sizeBytes int) float64 {
	if sizeBytes <= 0 {
		return 0
	}
	chars := utf8.RuneCountInString(text)
	return utils.Clamp(10*float64(chars)/float64(sizeBytes), 0, 1)
}

// decodeUTF8Lossy 按UTF-8解码字节流，丢弃非法字节
func decodeUTF8Lossy(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var sb strings.Builder
	sb.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError || size > 1 {
			sb.WriteRune(r)
		}
		data = data[size:]
	}
	return sb.String()
}

func isPDF(mimeType, ext string) bool {
	return strings.Contains(mimeType, "pdf") || ext == ".pdf"
}

func isDOCX(mimeType, ext string) bool {
	return strings.Contains(mimeType, "wordprocessingml") ||
		strings.Contains(mimeType, "msword") ||
		ext == ".docx" || ext == ".doc"
}

func isImage(mimeType, ext string) bool {
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}
	switch ext {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}
