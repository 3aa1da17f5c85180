package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "app"

	// FileModulePrefix 文件模块
	FileModulePrefix = "file"
	// RequisitionModulePrefix 招聘需求模块
	RequisitionModulePrefix = "requisition"

	// EntityDedupSet 去重集合实体
	EntityDedupSet = "dedup_set"
	// EntityText 文本实体
	EntityText = "text"

	// KeyFileContentHashSet 上传内容SHA256集合，用于快速去重 (SET)
	// 格式: app:file:dedup_set
	KeyFileContentHashSet = AppPrefix + ":" + FileModulePrefix + ":" + EntityDedupSet

	// KeyRequisitionText 招聘需求描述文本缓存 (STRING)
	// 格式: app:requisition:text:{requisitionID}
	KeyRequisitionText = AppPrefix + ":" + RequisitionModulePrefix + ":" + EntityText + ":%s"
)
