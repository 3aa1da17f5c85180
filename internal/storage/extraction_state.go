package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"cv-pipeline-go/internal/constants"
	"cv-pipeline-go/internal/storage/models"
)

// ErrDocumentNotFound 文档记录不存在
var ErrDocumentNotFound = errors.New("文档记录不存在")

// ClaimDocumentForExtraction 事务性认领文档进入提取流程
// 行锁下检查状态: 已是EXTRACTED或EXTRACTING时返回claimed=false (幂等保护)，
// 否则迁移到EXTRACTING并立即提交，使并发的重复投递能看到进行中状态
func (m *MySQL) ClaimDocumentForExtraction(ctx context.Context, documentID string) (doc *models.SourceDocument, claimed bool, err error) {
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, txErr := m.GetSourceDocumentForUpdate(tx, documentID)
		if txErr != nil {
			if errors.Is(txErr, gorm.ErrRecordNotFound) {
				return ErrDocumentNotFound
			}
			return txErr
		}
		doc = locked

		if constants.IsTerminalFileStatus(locked.Status) {
			claimed = false
			return nil
		}

		if txErr := m.TransitionFileStatus(tx, locked, constants.FileStatusExtracting, nil); txErr != nil {
			return txErr
		}
		claimed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return doc, claimed, nil
}

// MarkExtractionSuccess 原子地写入提取成功: 文件EXTRACTED + 文本SUCCESS
func (m *MySQL) MarkExtractionSuccess(ctx context.Context, documentID, text string, quality float64, language *string) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := m.GetSourceDocumentForUpdate(tx, documentID)
		if err != nil {
			return err
		}
		if err := m.TransitionFileStatus(tx, doc, constants.FileStatusExtracted, nil); err != nil {
			return err
		}
		return m.MarkExtractedTextSuccess(tx, documentID, text, quality, language)
	})
}

// MarkExtractionFailed 原子地写入提取失败: 文件FAILED + 文本FAILED，记录错误信息
func (m *MySQL) MarkExtractionFailed(ctx context.Context, documentID, errMsg string) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := m.GetSourceDocumentForUpdate(tx, documentID)
		if err != nil {
			return err
		}
		if err := m.TransitionFileStatus(tx, doc, constants.FileStatusFailed, &errMsg); err != nil {
			return err
		}
		return m.MarkExtractedTextFailed(tx, documentID, errMsg)
	})
}

// GetExtractedTextByDocument 读取文档的提取文本行 (非事务)
func (m *MySQL) GetExtractedTextByDocument(ctx context.Context, documentID string) (*models.ExtractedText, error) {
	return m.GetExtractedText(m.db.WithContext(ctx), documentID)
}
