package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFileStatusTransitions 验证文件状态机的合法与非法迁移
func TestFileStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		// 正常流转
		{FileStatusUploaded, FileStatusExtracting, true},
		{FileStatusExtracting, FileStatusExtracted, true},
		{FileStatusExtracting, FileStatusFailed, true},
		// 失败后可重试，也可原地更新失败信息
		{FileStatusFailed, FileStatusExtracting, true},
		{FileStatusFailed, FileStatusFailed, true},
		// 非法迁移
		{FileStatusUploaded, FileStatusExtracted, false},
		{FileStatusUploaded, FileStatusFailed, false},
		{FileStatusExtracted, FileStatusExtracting, false},
		{FileStatusExtracted, FileStatusFailed, false},
		{FileStatusFailed, FileStatusExtracted, false},
		{FileStatusExtracting, FileStatusUploaded, false},
		// 未知状态
		{"UNKNOWN", FileStatusExtracting, false},
		{FileStatusUploaded, "UNKNOWN", false},
	}

	for _, c := range cases {
		assert.Equal(t, c.allowed, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

// TestIsTerminalFileStatus EXTRACTED与EXTRACTING都应让重复投递被直接确认
func TestIsTerminalFileStatus(t *testing.T) {
	assert.True(t, IsTerminalFileStatus(FileStatusExtracted))
	assert.True(t, IsTerminalFileStatus(FileStatusExtracting))
	assert.False(t, IsTerminalFileStatus(FileStatusUploaded))
	assert.False(t, IsTerminalFileStatus(FileStatusFailed))
}
