package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFNative 使用PDF内嵌文本层提取文本
// 返回文本与页数；扫描版PDF通常只有极少量文本甚至为空
func extractPDFNative(data []byte) (text string, numPages int, err error) {
	// pdf库对畸形文件会panic，统一降级为文档损坏
	defer func() {
		if r := recover(); r != nil {
			text, numPages = "", 0
			err = Permanent(fmt.Errorf("%w: %v", ErrCorruptDocument, r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, Permanent(fmt.Errorf("%w: %v", ErrCorruptDocument, err))
	}

	var buf strings.Builder
	numPages = reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// 单页失败不中断整体提取，跳过该页
			continue
		}
		buf.WriteString(text)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), numPages, nil
}
