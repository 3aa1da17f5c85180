package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/lu4p/cat"
)

// docxDocumentXMLPath 是docx压缩包内主文档的默认路径
const docxDocumentXMLPath = "word/document.xml"

// wtTag 匹配OOXML文本节点 <w:t>...</w:t>（含任意属性）
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// wpClose 匹配段落结束标记，用于恢复换行
var wpClose = regexp.MustCompile(`</w:p>`)

// extractDOCX 从docx字节中提取文本
// 优先走cat库；cat的正则对带属性的<w:p>标签会漏匹配产生空结果，
// 此时回退到直接解包OOXML提取所有<w:t>文本节点
func extractDOCX(data []byte) (string, error) {
	text, err := cat.FromBytes(data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	fallbackText, fbErr := extractDOCXRaw(data)
	if fbErr != nil {
		if err != nil {
			return "", Permanent(fmt.Errorf("%w: cat: %v; raw: %v", ErrCorruptDocument, err, fbErr))
		}
		return "", fbErr
	}
	return fallbackText, nil
}

// extractDOCXRaw 解包docx并提取word/document.xml中的全部文本节点
func extractDOCXRaw(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", Permanent(fmt.Errorf("%w: 不是有效的zip: %v", ErrCorruptDocument, err))
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentXMLPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", Permanent(fmt.Errorf("%w: 打开主文档失败: %v", ErrCorruptDocument, err))
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return "", Permanent(fmt.Errorf("%w: 读取主文档失败: %v", ErrCorruptDocument, err))
		}
		docXML = buf.Bytes()
		break
	}
	if docXML == nil {
		return "", Permanent(fmt.Errorf("%w: 缺少 %s", ErrCorruptDocument, docxDocumentXMLPath))
	}

	// 段落边界先替换为换行，再逐段收集文本节点
	content := wpClose.ReplaceAllString(string(docXML), "\n")
	var sb strings.Builder
	for _, para := range strings.Split(content, "\n") {
		matches := wtTag.FindAllStringSubmatch(para, -1)
		if len(matches) == 0 {
			continue
		}
		for i, m := range matches {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(html.UnescapeString(m[1]))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimSpace(sb.String()), nil
}
