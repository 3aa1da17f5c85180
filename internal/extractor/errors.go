package extractor

import (
	"errors"
	"fmt"
)

// 定义基础错误类型
var (
	ErrUnsupportedFormat = errors.New("不支持的文件格式")
	ErrCorruptDocument   = errors.New("文档损坏或无法解析")
	ErrEmptyDocument     = errors.New("文档未提取到任何文本")
	ErrOCRUnavailable    = errors.New("OCR引擎不可用")
)

// PermanentError 表示重试也无法恢复的提取错误
// 例如格式不支持或文档本身损坏
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("永久性提取错误: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// TransientError 表示可通过重试恢复的提取错误
// 例如OCR引擎暂时不可用
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("暂时性提取错误: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Permanent 将错误标记为永久性
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Transient 将错误标记为暂时性
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsPermanent 判断错误是否为永久性
// 未分类的错误不视为永久性，留给调用方按可重试处理
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// IsTransient 判断错误是否为显式标记的暂时性错误
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
