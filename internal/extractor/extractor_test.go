package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-pipeline-go/internal/config"
	"cv-pipeline-go/internal/constants"
)

// mockOCR 可编程的测试用OCR引擎
type mockOCR struct {
	recognizeText  string
	recognizeErr   error
	rasterImages   []image.Image
	rasterErr      error
	recognizeCalls int
	rasterCalls    int
}

func (m *mockOCR) RecognizeImage(_ context.Context, _ image.Image) (string, error) {
	m.recognizeCalls++
	return m.recognizeText, m.recognizeErr
}

func (m *mockOCR) RasterizePDF(_ context.Context, _ []byte, _ float64) ([]image.Image, error) {
	m.rasterCalls++
	return m.rasterImages, m.rasterErr
}

func (m *mockOCR) Close() error { return nil }

func testConfig() *config.ExtractorConfig {
	return &config.ExtractorConfig{
		OCRLanguages:        "eng+fra",
		OCRDPI:              300,
		NativeTextThreshold: 200,
	}
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

// TestExtractPlainTextFallback 未知类型按UTF-8文本兜底处理
func TestExtractPlainTextFallback(t *testing.T) {
	e := New(testConfig(), &mockOCR{})
	content := "Jean Dupont\nSoftware engineer with Go experience.\n"

	result, err := e.Extract(context.Background(), []byte(content), "cv.txt", "text/plain")
	require.NoError(t, err)

	assert.Equal(t, content, result.Text)
	assert.Equal(t, MethodPlainText, result.Meta["method"])
	assert.GreaterOrEqual(t, result.Quality, 0.0)
	assert.LessOrEqual(t, result.Quality, 1.0)
}

// TestExtractUnsupportedBinary 无文本内容的未知格式是永久失败
func TestExtractUnsupportedBinary(t *testing.T) {
	e := New(testConfig(), &mockOCR{})

	_, err := e.Extract(context.Background(), []byte{0xff, 0xfe, 0xff}, "blob.bin", "application/octet-stream")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// TestExtractImageOCR 图片走OCR引擎识别
func TestExtractImageOCR(t *testing.T) {
	ocr := &mockOCR{recognizeText: "Marie Dubois\nData Scientist"}
	e := New(testConfig(), ocr)

	result, err := e.Extract(context.Background(), pngBytes(t), "scan.png", "image/png")
	require.NoError(t, err)

	assert.Equal(t, "Marie Dubois\nData Scientist", result.Text)
	assert.Equal(t, MethodImageOCR, result.Meta["method"])
	assert.Equal(t, 1, ocr.recognizeCalls)
	assert.Zero(t, ocr.rasterCalls)
}

// TestExtractCorruptImage 无法解码的图片是永久失败
func TestExtractCorruptImage(t *testing.T) {
	e := New(testConfig(), &mockOCR{})

	_, err := e.Extract(context.Background(), []byte("not an image"), "scan.png", "image/png")
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

// TestExtractScannedPDFUsesOCR 文本层缺失的PDF逐页OCR，页间以换行连接
func TestExtractScannedPDFUsesOCR(t *testing.T) {
	ocr := &mockOCR{
		recognizeText: "page content",
		rasterImages:  []image.Image{testImage(), testImage()},
	}
	e := New(testConfig(), ocr)

	result, err := e.Extract(context.Background(), []byte("%PDF-1.4 not really a pdf"), "scan.pdf", "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, MethodPDFOCR, result.Meta["method"])
	assert.Equal(t, 2, result.Meta["pages"])
	assert.Equal(t, "page content\npage content", result.Text)
	assert.Equal(t, 1, ocr.rasterCalls)
	assert.Equal(t, 2, ocr.recognizeCalls)
}

// TestExtractPDFOCRUnavailableIsTransient OCR引擎不可用属于暂时性失败
func TestExtractPDFOCRUnavailableIsTransient(t *testing.T) {
	ocr := &mockOCR{rasterErr: Transient(ErrOCRUnavailable)}
	e := New(testConfig(), ocr)

	_, err := e.Extract(context.Background(), []byte("%PDF-1.4 not really a pdf"), "scan.pdf", "application/pdf")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.False(t, IsPermanent(err))
}

func TestQualityScore(t *testing.T) {
	// 空文本⇒0，空文件⇒0
	assert.Equal(t, 0.0, qualityScore("", 1000))
	assert.Equal(t, 0.0, qualityScore("abc", 0))

	// 20字符/1000字节 ⇒ 0.2
	text := "aaaaaaaaaaaaaaaaaaaa"
	assert.InDelta(t, 0.2, qualityScore(text, 1000), 1e-9)

	// 字符远多于字节时钳制到1
	assert.Equal(t, 1.0, qualityScore(text, 20))
}

func TestDecodeUTF8Lossy(t *testing.T) {
	// 合法UTF-8原样通过
	assert.Equal(t, "héllo", decodeUTF8Lossy([]byte("héllo")))

	// 非法字节被丢弃
	assert.Equal(t, "hi", decodeUTF8Lossy([]byte{'h', 0xff, 'i'}))
}

func TestDetectLanguage(t *testing.T) {
	// 过短的文本不判定
	assert.Equal(t, "", DetectLanguage("short text"))

	en := "Software engineer with years of experience in the design and delivery of systems"
	assert.Equal(t, "en", DetectLanguage(en))

	fr := "Ingénieur logiciel avec des années dans la conception et le développement des systèmes"
	assert.Equal(t, "fr", DetectLanguage(fr))

	// 无停用词命中时不判定
	assert.Equal(t, "", DetectLanguage("zzzz yyyy xxxx wwww vvvv uuuu tttt ssss rrrr qqqq"))
}

// TestExtractDOCXRaw 直接解包OOXML提取文本节点，段落间保留换行
func TestExtractDOCXRaw(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document><w:body>` +
		`<w:p w:rsidR="00A1"><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve">World &amp; co</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Second line</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	text, err := extractDOCXRaw(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Hello World & co\nSecond line", text)
}

// TestExtractDOCXCorrupt 非zip内容的docx是永久失败
func TestExtractDOCXCorrupt(t *testing.T) {
	_, err := extractDOCX([]byte("definitely not a zip archive"))
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.True(t, errors.Is(err, ErrCorruptDocument))
}

// TestExtractNativePDFSkipsOCR 文本层字符数达标的PDF直接采用文本层，不触发OCR
func TestExtractNativePDFSkipsOCR(t *testing.T) {
	ocr := &mockOCR{}
	e := New(testConfig(), ocr)
	nativeText := strings.Repeat("résumé line with plenty of embedded text content ", 10)
	e.nativePDF = func(_ []byte) (string, int, error) {
		return nativeText, 3, nil
	}

	result, err := e.Extract(context.Background(), []byte("%PDF-1.4"), "cv.pdf", "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, nativeText, result.Text)
	assert.Equal(t, MethodPDFNative, result.Meta["method"])
	assert.Equal(t, 3, result.Meta["pages"])
	assert.Zero(t, ocr.rasterCalls)
	assert.Zero(t, ocr.recognizeCalls)
}

// TestExtractShortNativeTextFallsBackToOCR 文本层低于阈值时按扫描件走OCR
func TestExtractShortNativeTextFallsBackToOCR(t *testing.T) {
	ocr := &mockOCR{
		recognizeText: "ocr page content",
		rasterImages:  []image.Image{testImage()},
	}
	e := New(testConfig(), ocr)
	e.nativePDF = func(_ []byte) (string, int, error) {
		return "too short", 1, nil
	}

	result, err := e.Extract(context.Background(), []byte("%PDF-1.4"), "cv.pdf", "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "ocr page content", result.Text)
	assert.Equal(t, MethodPDFOCR, result.Meta["method"])
	assert.Equal(t, 1, ocr.rasterCalls)
}

// TestExtractMetaCarriesExtractorVersion 提取元数据写入流水线版本号
func TestExtractMetaCarriesExtractorVersion(t *testing.T) {
	e := New(testConfig(), &mockOCR{})

	result, err := e.Extract(context.Background(), []byte("plain text body"), "note.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultExtractorVer, result.Meta["extractor_version"])

	e.SetVersion("2.1")
	result, err = e.Extract(context.Background(), []byte("plain text body"), "note.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "2.1", result.Meta["extractor_version"])
}
