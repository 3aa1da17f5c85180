package constants

import "time"

// 文件处理状态 (cv_files.status)
// 状态机: UPLOADED -> EXTRACTING -> {EXTRACTED | FAILED}; FAILED -> EXTRACTING (重试)
const (
	FileStatusUploaded   = "UPLOADED"   // 文件已上传，等待提取
	FileStatusExtracting = "EXTRACTING" // 提取进行中
	FileStatusExtracted  = "EXTRACTED"  // 提取成功（终态）
	FileStatusFailed     = "FAILED"     // 提取失败（可人工/自动重试）
)

// 文本提取状态 (cv_texts.status)
const (
	TextStatusPending = "PENDING" // 提交时创建，等待提取结果
	TextStatusSuccess = "SUCCESS" // 提取成功，text/quality已填充
	TextStatusFailed  = "FAILED"  // 提取失败，error_message已填充
)

// 招聘需求状态 (requisitions.status)
const (
	RequisitionStatusActive = "ACTIVE"
	RequisitionStatusClosed = "CLOSED"
)

// legalFileTransitions 定义文件状态机的合法迁移
var legalFileTransitions = map[string]map[string]bool{
	FileStatusUploaded: {
		FileStatusExtracting: true,
	},
	FileStatusExtracting: {
		FileStatusExtracted: true,
		FileStatusFailed:    true,
	},
	// FAILED 允许回到 EXTRACTING (重试)，也允许原地更新失败信息 (重试预算耗尽时落终态消息)
	FileStatusFailed: {
		FileStatusExtracting: true,
		FileStatusFailed:     true,
	},
	// EXTRACTED 是终态
	FileStatusExtracted: {},
}

// CanTransition 判断文件状态迁移是否合法
func CanTransition(from, to string) bool {
	targets, ok := legalFileTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// IsTerminalFileStatus 判断是否是无需再处理的状态
// EXTRACTED 和 EXTRACTING 都会让重复投递的消息直接被确认（幂等保护）
func IsTerminalFileStatus(status string) bool {
	return status == FileStatusExtracted || status == FileStatusExtracting
}

// 应用级常量
const (
	DefaultExtractorVer = "1.0" // 当前提取流水线版本，写入元数据

	// 内容哈希去重记录的过期时间
	ContentHashExpire = 30 * 24 * time.Hour

	// 招聘需求文本缓存时长
	RequisitionCacheDuration = 24 * time.Hour
)
