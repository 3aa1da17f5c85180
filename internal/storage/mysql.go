package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"cv-pipeline-go/internal/config"
	"cv-pipeline-go/internal/constants"
	"cv-pipeline-go/internal/storage/models"
	"cv-pipeline-go/internal/types"
	"cv-pipeline-go/pkg/utils"
)

var mysqlTracer = otel.Tracer("cv-pipeline-go/storage/mysql")

// ErrIllegalTransition 非法的文件状态迁移
var ErrIllegalTransition = errors.New("非法的文件状态迁移")

// GormTracingPlugin 是一个GORM插件，用于向OpenTelemetry中添加数据库操作的追踪点
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

type gormSpanKey struct{}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("otel:before_create", p.before("CREATE")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("otel:after_create", p.after()); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("otel:before_query", p.before("SELECT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel:after_query", p.after()); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel:before_update", p.before("UPDATE")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel:after_update", p.after()); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("otel:before_delete", p.before("DELETE")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel:after_delete", p.after()); err != nil {
		return err
	}
	return nil
}

// before 返回在GORM操作之前执行的回调函数
func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		spanName := fmt.Sprintf("%s %s", operation, tableName)
		newCtx, span := p.tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		)

		db.Statement.Context = context.WithValue(newCtx, gormSpanKey{}, span)
	}
}

// after 返回在GORM操作之后执行的回调函数
func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(gormSpanKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		if db.Error != nil {
			if errors.Is(db.Error, gorm.ErrRecordNotFound) {
				// ErrRecordNotFound 是业务逻辑正常情况的一部分，不应作为错误处理
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				span.RecordError(db.Error)
				span.SetStatus(codes.Error, db.Error.Error())
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer: mysqlTracer,
		dbName: dbName,
	}
}

// MySQL 提供关系数据库功能
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL客户端
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	// 构建DSN，添加超时设置
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	// 配置GORM日志级别
	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	// 连接池参数
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{
		db:  db,
		cfg: cfg,
	}

	// 注册OpenTelemetry追踪插件
	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := m.autoMigrateSchema(); err != nil {
		if inner, dbErr := db.DB(); dbErr == nil {
			inner.Close()
		}
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Println("成功连接到MySQL并自动迁移数据库结构")
	return m, nil
}

// autoMigrateSchema 使用GORM自动迁移数据库表结构
func (m *MySQL) autoMigrateSchema() error {
	err := m.db.AutoMigrate(
		&models.SourceDocument{},
		&models.ExtractedText{},
		&models.ParsedProfile{},
		&models.Requisition{},
	)
	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// CreateSourceDocument 创建上传文件记录（上传引用字段此后不再变更）
func (m *MySQL) CreateSourceDocument(ctx context.Context, doc *models.SourceDocument) error {
	return m.db.WithContext(ctx).Create(doc).Error
}

// GetSourceDocumentForUpdate 在事务中加行锁读取文件记录，防止并发处理同一文档
func (m *MySQL) GetSourceDocumentForUpdate(tx *gorm.DB, documentID string) (*models.SourceDocument, error) {
	var doc models.SourceDocument
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("document_id = ?", documentID).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// TransitionFileStatus 校验并执行文件状态迁移
// 非法迁移返回 ErrIllegalTransition，保证状态机单调性
func (m *MySQL) TransitionFileStatus(tx *gorm.DB, doc *models.SourceDocument, to string, errMsg *string) error {
	if !constants.CanTransition(doc.Status, to) {
		return fmt.Errorf("%w: %s -> %s (document %s)", ErrIllegalTransition, doc.Status, to, doc.DocumentID)
	}
	updates := map[string]interface{}{
		"status":        to,
		"error_message": errMsg,
	}
	if err := tx.Model(&models.SourceDocument{}).
		Where("document_id = ?", doc.DocumentID).
		Updates(updates).Error; err != nil {
		return err
	}
	doc.Status = to
	doc.ErrorMessage = errMsg
	return nil
}

// CreatePendingExtractedText 提交时为文档创建PENDING的提取文本行
// 重复提交时保持幂等（唯一索引冲突视为已存在）
func (m *MySQL) CreatePendingExtractedText(ctx context.Context, documentID string) error {
	row := models.ExtractedText{
		DocumentID: documentID,
		Status:     constants.TextStatusPending,
	}
	return m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

// GetExtractedText 读取文档的提取文本行
func (m *MySQL) GetExtractedText(tx *gorm.DB, documentID string) (*models.ExtractedText, error) {
	var row models.ExtractedText
	err := tx.Where("document_id = ?", documentID).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkExtractedTextSuccess 写入提取成功结果
func (m *MySQL) MarkExtractedTextSuccess(tx *gorm.DB, documentID, text string, quality float64, language *string) error {
	return tx.Model(&models.ExtractedText{}).
		Where("document_id = ?", documentID).
		Updates(map[string]interface{}{
			"status":        constants.TextStatusSuccess,
			"text":          text,
			"quality_score": quality,
			"language":      language,
			"error_message": nil,
		}).Error
}

// MarkExtractedTextFailed 写入提取失败结果
func (m *MySQL) MarkExtractedTextFailed(tx *gorm.DB, documentID, errMsg string) error {
	return tx.Model(&models.ExtractedText{}).
		Where("document_id = ?", documentID).
		Updates(map[string]interface{}{
			"status":        constants.TextStatusFailed,
			"error_message": errMsg,
		}).Error
}

// FindSuccessTextByHash 按内容哈希查找一份已成功提取的文本（用于重复内容复用）
func (m *MySQL) FindSuccessTextByHash(ctx context.Context, sha256 string) (*models.ExtractedText, error) {
	var row models.ExtractedText
	err := m.db.WithContext(ctx).
		Joins("JOIN source_documents sd ON sd.document_id = extracted_texts.document_id").
		Where("sd.sha256 = ? AND extracted_texts.status = ?", sha256, constants.TextStatusSuccess).
		Order("extracted_texts.id").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpsertParsedProfile 整行Upsert候选人画像与评分结果
func (m *MySQL) UpsertParsedProfile(ctx context.Context, documentID string, profile *types.CandidateProfile, score *types.CompatibilityScore) error {
	ctx, span := mysqlTracer.Start(ctx, "MySQL.UpsertParsedProfile",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("document_id", documentID)),
	)
	defer span.End()

	row := models.ParsedProfile{
		DocumentID:      documentID,
		SkillsJSON:      utils.ConvertArrayToJSON(profile.Skills),
		EducationJSON:   utils.ConvertArrayToJSON(profile.Education),
		LanguagesJSON:   utils.ConvertArrayToJSON(profile.Languages),
		ExperienceYears: profile.ExperienceYears,
	}
	if profile.FullName != "" {
		row.FullName = &profile.FullName
	}
	if profile.Email != "" {
		row.Email = &profile.Email
	}
	if profile.Phone != "" {
		row.Phone = &profile.Phone
	}
	if score != nil {
		row.MatchingScore = score.MatchingScore
		row.SkillsScore = score.SkillsScore
		row.ExperienceScore = score.ExperienceScore
		row.EducationScore = score.EducationScore
		row.LanguageScore = score.LanguageScore
		if detailsJSON, err := utils.MapToJSON(score.ScoringDetails); err == nil {
			row.ScoringDetails = detailsJSON
		}
	}

	err := m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "document_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// GetRequisitionCriteria 读取招聘需求的评分标准视图
func (m *MySQL) GetRequisitionCriteria(ctx context.Context, requisitionID string) (*types.RequisitionCriteria, error) {
	var req models.Requisition
	if err := m.db.WithContext(ctx).
		Where("requisition_id = ?", requisitionID).
		First(&req).Error; err != nil {
		return nil, err
	}

	return &types.RequisitionCriteria{
		RequisitionID:      req.RequisitionID,
		RequiredSkills:     utils.JSONToArray(req.RequiredSkillsJSON),
		NiceToHaveSkills:   utils.JSONToArray(req.NiceToHaveJSON),
		MinExperienceYears: req.MinExperienceYears,
		RequiredEducation:  utils.JSONToArray(req.RequiredEduJSON),
		RequiredLanguages:  utils.JSONToArray(req.RequiredLangJSON),
		DescriptionText:    req.DescriptionText,
	}, nil
}

// ListCandidateTextsForRequisition 列出某需求下所有提取成功的候选人文本（排序读路径）
func (m *MySQL) ListCandidateTextsForRequisition(ctx context.Context, requisitionID string) ([]types.CandidateText, error) {
	type rowT struct {
		DocumentID   string
		Text         string
		QualityScore *float64
	}
	var rows []rowT
	err := m.db.WithContext(ctx).
		Model(&models.ExtractedText{}).
		Select("extracted_texts.document_id, extracted_texts.text, extracted_texts.quality_score").
		Joins("JOIN source_documents sd ON sd.document_id = extracted_texts.document_id").
		Where("sd.requisition_id = ? AND extracted_texts.status = ?", requisitionID, constants.TextStatusSuccess).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]types.CandidateText, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.CandidateText{
			DocumentID: r.DocumentID,
			Text:       r.Text,
			Quality:    r.QualityScore,
		})
	}
	return out, nil
}
