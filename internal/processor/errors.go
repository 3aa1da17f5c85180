package processor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrClaimDocumentFailed = errors.New("认领文档失败")
	ErrDocumentNotFound    = errors.New("文档记录不存在")
	ErrTextRecordMissing   = errors.New("提取文本记录缺失")
	ErrDownloadFailed      = errors.New("下载原始文档失败")
	ErrExtractionFailed    = errors.New("文本提取失败")
	ErrPersistResultFailed = errors.New("持久化提取结果失败")
	ErrMaxRetriesExceeded  = errors.New("超过最大重试次数")
	ErrPublishRetryFailed  = errors.New("重新入队重试消息失败")
)

// PipelineError 包含上下文信息的管道错误
type PipelineError struct {
	DocumentID string
	Op         string
	BaseErr    error
	Detail     string
}

func (e *PipelineError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文档:%s): %s", e.BaseErr, e.Op, e.DocumentID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文档:%s)", e.BaseErr, e.Op, e.DocumentID)
}

func (e *PipelineError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *PipelineError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

func newPipelineError(documentID, op string, base error, detail string) error {
	return &PipelineError{
		DocumentID: documentID,
		Op:         op,
		BaseErr:    base,
		Detail:     detail,
	}
}
