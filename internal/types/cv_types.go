package types // 定义了流水线各组件之间传递的领域类型

// CandidateProfile 从简历纯文本解析出的结构化候选人画像
// 解析器的契约是"永不失败"：内部出错时返回全空画像
type CandidateProfile struct {
	FullName        string   `json:"full_name,omitempty"`        // 候选人姓名
	Email           string   `json:"email,omitempty"`            // 邮箱（首个匹配）
	Phone           string   `json:"phone,omitempty"`            // 电话（首个有效匹配）
	Skills          []string `json:"skills"`                     // 技能集合（去重，上限20）
	ExperienceYears *int     `json:"experience_years,omitempty"` // 工作年限，无法推断时为nil
	Education       []string `json:"education"`                  // 学历条目（有序，上限5）
	Languages       []string `json:"languages"`                  // 语言集合（规范化名称，去重）
}

// EmptyProfile 返回一个字段全空的画像，用于解析失败时的降级结果
func EmptyProfile() *CandidateProfile {
	return &CandidateProfile{
		Skills:    []string{},
		Education: []string{},
		Languages: []string{},
	}
}

// RequisitionCriteria 参与兼容性评分的岗位需求字段视图
type RequisitionCriteria struct {
	RequisitionID      string   `json:"requisition_id"`
	RequiredSkills     []string `json:"required_skills"`
	NiceToHaveSkills   []string `json:"nice_to_have_skills"`
	MinExperienceYears int      `json:"min_experience_years"`
	RequiredEducation  []string `json:"required_education"`
	RequiredLanguages  []string `json:"required_languages"`
	DescriptionText    string   `json:"description_text"`
}

// CompatibilityScore 兼容性评分结果，所有分数范围 [0,100]
type CompatibilityScore struct {
	MatchingScore   float64                `json:"matching_score"`   // 加权总分
	SkillsScore     float64                `json:"skills_score"`     // 技能分 (权重0.40)
	ExperienceScore float64                `json:"experience_score"` // 经验分 (权重0.30)
	EducationScore  float64                `json:"education_score"`  // 学历分 (权重0.20)
	LanguageScore   float64                `json:"language_score"`   // 语言分 (权重0.10)
	ScoringDetails  map[string]interface{} `json:"scoring_details"`  // 评分明细（权重、双方输入等）
}

// ExtractionResult 文本提取结果
type ExtractionResult struct {
	Text     string                 `json:"text"`     // 提取的纯文本
	Quality  float64                `json:"quality"`  // 质量估计 [0,1]
	Language *string                `json:"language,omitempty"` // 粗略检测的语言，无法判断时为nil
	Meta     map[string]interface{} `json:"meta"`     // 提取元数据（方式、页数、字符数等）
}

// ExtractionJobMessage 投递到提取队列的消息体
// document_id 是唯一必要字段；at-least-once投递下消费侧靠状态机保证幂等
type ExtractionJobMessage struct {
	DocumentID string `json:"document_id"`
	Attempt    int    `json:"attempt,omitempty"` // 当前重试次数，由消费者在重投时递增
}

// CandidateText 参与相关度排序的候选人文本
type CandidateText struct {
	DocumentID string   `json:"document_id"`
	Text       string   `json:"text"`
	Quality    *float64 `json:"quality,omitempty"`
}

// RankedCandidate 相关度排序结果中的一项
type RankedCandidate struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"` // [0,100]
}
