package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"cv-pipeline-go/internal/extractor"
	"cv-pipeline-go/internal/logger"
	"cv-pipeline-go/internal/parser"
	"cv-pipeline-go/internal/scorer"
	"cv-pipeline-go/internal/storage"
	"cv-pipeline-go/internal/storage/models"
	"cv-pipeline-go/internal/types"
)

var pipelineTracer = otel.Tracer("cv-pipeline-go/processor")

// DocumentStore 流水线所需的数据库操作
type DocumentStore interface {
	ClaimDocumentForExtraction(ctx context.Context, documentID string) (*models.SourceDocument, bool, error)
	GetExtractedTextByDocument(ctx context.Context, documentID string) (*models.ExtractedText, error)
	FindSuccessTextByHash(ctx context.Context, sha256 string) (*models.ExtractedText, error)
	MarkExtractionSuccess(ctx context.Context, documentID, text string, quality float64, language *string) error
	MarkExtractionFailed(ctx context.Context, documentID, errMsg string) error
	GetRequisitionCriteria(ctx context.Context, requisitionID string) (*types.RequisitionCriteria, error)
	UpsertParsedProfile(ctx context.Context, documentID string, profile *types.CandidateProfile, score *types.CompatibilityScore) error
}

// ObjectReader 流水线所需的对象存储读取操作
type ObjectReader interface {
	ReadUpload(ctx context.Context, objectKey string) ([]byte, error)
}

// TextExtractor 文本提取操作
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, filename, mimeType string) (*types.ExtractionResult, error)
}

// 编译期检查具体实现满足接口
var (
	_ DocumentStore = (*storage.MySQL)(nil)
	_ ObjectReader  = (*storage.MinIO)(nil)
	_ TextExtractor = (*extractor.Extractor)(nil)
)

// Pipeline 单文档提取编排器
// Run 是唯一有副作用的入口，幂等，可在at-least-once投递下安全重放
type Pipeline struct {
	store     DocumentStore
	objects   ObjectReader
	extractor TextExtractor
}

// NewPipeline 创建提取编排器
func NewPipeline(store DocumentStore, objects ObjectReader, textExtractor TextExtractor) *Pipeline {
	return &Pipeline{
		store:     store,
		objects:   objects,
		extractor: textExtractor,
	}
}

// Run 执行一次完整的文档处理
// 返回非nil错误仅表示暂时性失败，调用方应安排重试；
// 永久性失败在内部落库为FAILED后返回nil（消息应被确认）
func (p *Pipeline) Run(ctx context.Context, documentID string) error {
	ctx, span := pipelineTracer.Start(ctx, "Pipeline.Run",
		trace.WithAttributes(attribute.String("document_id", documentID)))
	defer span.End()

	// 1. 事务性认领: 幂等保护 + 立即持久化EXTRACTING
	doc, claimed, err := p.store.ClaimDocumentForExtraction(ctx, documentID)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			// 文档记录不存在，消息无法处理，按永久失败丢弃
			logger.Error().Str("document_id", documentID).Msg("文档记录不存在，丢弃提取任务")
			span.SetStatus(codes.Error, "document not found")
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return newPipelineError(documentID, "claim", ErrClaimDocumentFailed, err.Error())
	}
	if !claimed {
		logger.Info().Str("document_id", documentID).Str("status", doc.Status).
			Msg("文档已处理或处理中，跳过重复投递")
		span.SetAttributes(attribute.Bool("skipped", true))
		span.SetStatus(codes.Ok, "")
		return nil
	}

	// 2. 提取文本行必须在提交时已创建，缺失属于设置不变量被破坏
	if _, err := p.store.GetExtractedTextByDocument(ctx, documentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p.failPermanently(ctx, documentID, ErrTextRecordMissing.Error())
			span.SetStatus(codes.Error, "text record missing")
			return nil
		}
		p.markRetryable(ctx, documentID, err.Error())
		span.RecordError(err)
		return newPipelineError(documentID, "load_text", ErrClaimDocumentFailed, err.Error())
	}

	// 3. 相同内容哈希已有成功结果时直接复用，跳过昂贵的提取
	if result := p.reuseByContentHash(ctx, doc); result != nil {
		return p.persistSuccess(ctx, span, doc, result)
	}

	// 4. 下载原始文档
	data, err := p.objects.ReadUpload(ctx, doc.StoragePath)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			// 对象丢失无法通过重试恢复
			p.failPermanently(ctx, documentID, fmt.Sprintf("原始文档对象缺失: %v", err))
			span.SetStatus(codes.Error, "object missing")
			return nil
		}
		p.markRetryable(ctx, documentID, err.Error())
		span.RecordError(err)
		return newPipelineError(documentID, "download", ErrDownloadFailed, err.Error())
	}

	// 5. 提取文本
	result, err := p.extractor.Extract(ctx, data, doc.OriginalFilename, doc.MimeType)
	if err != nil {
		if extractor.IsPermanent(err) {
			p.failPermanently(ctx, documentID, err.Error())
			span.SetStatus(codes.Error, "permanent extraction failure")
			return nil
		}
		// 暂时性错误回落到FAILED（可重试态），否则幂等保护会挡住后续重试
		p.markRetryable(ctx, documentID, err.Error())
		span.RecordError(err)
		return newPipelineError(documentID, "extract", ErrExtractionFailed, err.Error())
	}

	// 6. 落库成功结果并尽力解析评分
	return p.persistSuccess(ctx, span, doc, result)
}

// reuseByContentHash 查找相同内容哈希的既有成功文本
func (p *Pipeline) reuseByContentHash(ctx context.Context, doc *models.SourceDocument) *types.ExtractionResult {
	if doc.SHA256 == "" {
		return nil
	}
	row, err := p.store.FindSuccessTextByHash(ctx, doc.SHA256)
	if err != nil || row == nil || row.DocumentID == doc.DocumentID {
		return nil
	}

	quality := 0.0
	if row.QualityScore != nil {
		quality = *row.QualityScore
	}
	logger.Info().
		Str("document_id", doc.DocumentID).
		Str("source_document_id", row.DocumentID).
		Msg("内容哈希命中既有提取结果，复用文本")
	return &types.ExtractionResult{
		Text:     row.Text,
		Quality:  quality,
		Language: row.Language,
		Meta:     map[string]interface{}{"method": "content_hash_reuse"},
	}
}

// persistSuccess 写入成功结果，随后尽力执行解析与评分
func (p *Pipeline) persistSuccess(ctx context.Context, span trace.Span, doc *models.SourceDocument, result *types.ExtractionResult) error {
	if err := p.store.MarkExtractionSuccess(ctx, doc.DocumentID, result.Text, result.Quality, result.Language); err != nil {
		p.markRetryable(ctx, doc.DocumentID, err.Error())
		span.RecordError(err)
		return newPipelineError(doc.DocumentID, "persist", ErrPersistResultFailed, err.Error())
	}

	// 解析与评分是尽力而为: 任何失败只记日志，绝不回滚已成功的提取
	p.parseAndScore(ctx, doc, result)

	logger.Info().
		Str("document_id", doc.DocumentID).
		Float64("quality", result.Quality).
		Msg("文档提取完成")
	span.SetAttributes(attribute.Float64("quality", result.Quality))
	span.SetStatus(codes.Ok, "")
	return nil
}

// parseAndScore 解析候选人画像并按招聘需求评分，Upsert到数据库
func (p *Pipeline) parseAndScore(ctx context.Context, doc *models.SourceDocument, result *types.ExtractionResult) {
	profile := parser.Parse(result.Text)

	var score *types.CompatibilityScore
	if doc.RequisitionID != "" {
		criteria, err := p.store.GetRequisitionCriteria(ctx, doc.RequisitionID)
		if err != nil {
			logger.Warn().Err(err).
				Str("document_id", doc.DocumentID).
				Str("requisition_id", doc.RequisitionID).
				Msg("加载招聘需求失败，跳过匹配评分")
		} else {
			score = scorer.ScoreProfile(profile, criteria)
			// 相似度分数并入评分明细，供排序读路径以外的消费方使用
			simScore := scorer.SimilarityScore(ctx, criteria.DescriptionText, result.Text, &result.Quality)
			score.ScoringDetails["similarity_score"] = simScore
		}
	}

	if err := p.store.UpsertParsedProfile(ctx, doc.DocumentID, profile, score); err != nil {
		logger.Warn().Err(err).Str("document_id", doc.DocumentID).Msg("写入候选人画像失败")
	}
}

// markRetryable 暂时性失败后把文件回落到FAILED（可重试态），为下次重试让路
// 回落失败只记日志: 文档会卡在EXTRACTING，留待人工介入
func (p *Pipeline) markRetryable(ctx context.Context, documentID, errMsg string) {
	if err := p.store.MarkExtractionFailed(ctx, documentID, errMsg); err != nil {
		logger.Error().Err(err).Str("document_id", documentID).
			Msg("回写可重试失败状态失败")
	}
}

// failPermanently 永久失败落库，失败本身再失败时只记日志
func (p *Pipeline) failPermanently(ctx context.Context, documentID, errMsg string) {
	if err := p.store.MarkExtractionFailed(ctx, documentID, errMsg); err != nil {
		logger.Error().Err(err).Str("document_id", documentID).
			Msg("写入永久失败状态失败")
	} else {
		logger.Warn().Str("document_id", documentID).Str("reason", errMsg).
			Msg("文档提取永久失败")
	}
}
