package models

import (
	"time"

	"gorm.io/datatypes"
)

// SourceDocument 上传的简历文件主表
// 上传引用字段（存储路径、文件名、MIME、大小、哈希）创建后不再变更；
// Status/ErrorMessage 是该文件的可变处理状态（状态机见 constants 包）
type SourceDocument struct {
	DocumentID       string    `gorm:"type:char(36);primaryKey"`
	ApplicationID    string    `gorm:"type:char(36);not null;index:idx_sd_application_id"`
	RequisitionID    string    `gorm:"type:char(36);index:idx_sd_requisition_id"`
	StoragePath      string    `gorm:"type:varchar(1024);not null"`
	OriginalFilename string    `gorm:"type:varchar(255);not null"`
	MimeType         string    `gorm:"type:varchar(100);not null"`
	SizeBytes        int64     `gorm:"not null"`
	SHA256           string    `gorm:"type:char(64);not null;index:idx_sd_sha256"`
	Status           string    `gorm:"type:varchar(50);not null;default:'UPLOADED';index:idx_sd_status"`
	ErrorMessage     *string   `gorm:"type:text"`
	CreatedAt        time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt        time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (SourceDocument) TableName() string {
	return "source_documents"
}

// ExtractedText 提取文本表，每个文档至多一行
// 提交时以PENDING创建，由流水线填充
type ExtractedText struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	DocumentID   string    `gorm:"type:char(36);not null;uniqueIndex:idx_et_document_unique"`
	Status       string    `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Text         string    `gorm:"type:mediumtext"`
	Language     *string   `gorm:"type:varchar(10)"`
	QualityScore *float64  `gorm:"type:float"` // [0,1]，SUCCESS时必填
	ErrorMessage *string   `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt    time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	SourceDocument *SourceDocument `gorm:"foreignKey:DocumentID;references:DocumentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ExtractedText) TableName() string {
	return "extracted_texts"
}

// ParsedProfile 解析出的候选人画像表，每个文档至多一行
// 每次成功解析整行Upsert，不做部分合并
type ParsedProfile struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement"`
	DocumentID      string         `gorm:"type:char(36);not null;uniqueIndex:idx_pp_document_unique"`
	FullName        *string        `gorm:"type:varchar(255);index:idx_pp_full_name"`
	Email           *string        `gorm:"type:varchar(255)"`
	Phone           *string        `gorm:"type:varchar(50)"`
	SkillsJSON      datatypes.JSON `gorm:"type:json;column:skills_json"`
	EducationJSON   datatypes.JSON `gorm:"type:json;column:education_json"`
	LanguagesJSON   datatypes.JSON `gorm:"type:json;column:languages_json"`
	ExperienceYears *int           `gorm:"type:int"`

	// 评分结果
	MatchingScore   float64        `gorm:"type:float;default:0;index:idx_pp_matching_score"`
	SkillsScore     float64        `gorm:"type:float;default:0"`
	ExperienceScore float64        `gorm:"type:float;default:0"`
	EducationScore  float64        `gorm:"type:float;default:0"`
	LanguageScore   float64        `gorm:"type:float;default:0"`
	ScoringDetails  datatypes.JSON `gorm:"type:json"`

	CreatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`

	SourceDocument *SourceDocument `gorm:"foreignKey:DocumentID;references:DocumentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (ParsedProfile) TableName() string {
	return "parsed_profiles"
}

// Requisition 招聘需求表（评分标准的来源，由外部系统维护，这里只读）
type Requisition struct {
	RequisitionID      string         `gorm:"type:char(36);primaryKey"`
	Title              string         `gorm:"type:varchar(255);not null"`
	DescriptionText    string         `gorm:"type:text;not null"`
	RequiredSkillsJSON datatypes.JSON `gorm:"type:json;column:required_skills_json"`
	NiceToHaveJSON     datatypes.JSON `gorm:"type:json;column:nice_to_have_json"`
	MinExperienceYears int            `gorm:"type:int;default:0"`
	RequiredEduJSON    datatypes.JSON `gorm:"type:json;column:required_edu_json"`
	RequiredLangJSON   datatypes.JSON `gorm:"type:json;column:required_lang_json"`
	Status             string         `gorm:"type:varchar(50);default:'ACTIVE';index:idx_req_status"`
	CreatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (Requisition) TableName() string {
	return "requisitions"
}
