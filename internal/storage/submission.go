package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cv-pipeline-go/internal/constants"
	"cv-pipeline-go/internal/logger"
	"cv-pipeline-go/internal/storage/models"
	"cv-pipeline-go/internal/tracing"
	"cv-pipeline-go/internal/types"
)

var submissionTracer = otel.Tracer("cv-pipeline-go/storage/submission")

// SubmissionRequest 文档提交请求
type SubmissionRequest struct {
	ApplicationID string
	RequisitionID string
	Filename      string
	MimeType      string
	Size          int64
	Reader        io.Reader
}

// SubmissionResult 文档提交结果
type SubmissionResult struct {
	DocumentID string
	SHA256     string
	// Duplicate 表示该内容的SHA256此前已出现过
	Duplicate bool
}

// SubmitDocument 接收上传的简历文档并入队提取任务
// 步骤: 上传到对象存储 -> 内容哈希去重 -> 创建UPLOADED文件记录 ->
// 创建PENDING提取文本行 -> 发布提取任务消息
// 重复内容仍会创建记录并入队，Duplicate标记留给调用方决策
func (s *Storage) SubmitDocument(ctx context.Context, req *SubmissionRequest) (*SubmissionResult, error) {
	ctx, span := submissionTracer.Start(ctx, "Storage.SubmitDocument",
		trace.WithAttributes(
			attribute.String("application_id", req.ApplicationID),
			attribute.String("requisition_id", req.RequisitionID),
			attribute.String("filename", req.Filename),
		))
	defer span.End()

	if s.MinIO == nil || s.MySQL == nil || s.RabbitMQ == nil {
		err := fmt.Errorf("提交文档需要MinIO、MySQL和RabbitMQ均已初始化")
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, err
	}

	documentID := uuid.New().String()
	fileExt := filepath.Ext(req.Filename)

	// 上传原始文件并获得内容哈希
	objectKey, contentHash, err := s.MinIO.SaveUpload(ctx, documentID, fileExt, req.Reader, req.Size)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
		return nil, fmt.Errorf("上传原始文档失败: %w", err)
	}

	// 内容去重检查，Redis不可用时降级为不检查
	duplicate := false
	if s.Redis != nil {
		exists, dedupErr := s.Redis.CheckAndAddContentHash(ctx, contentHash)
		if dedupErr != nil {
			logger.Warn().Err(dedupErr).Str("document_id", documentID).Msg("内容去重检查失败，按非重复处理")
		} else {
			duplicate = exists
		}
	}

	doc := &models.SourceDocument{
		DocumentID:       documentID,
		ApplicationID:    req.ApplicationID,
		RequisitionID:    req.RequisitionID,
		StoragePath:      objectKey,
		OriginalFilename: req.Filename,
		MimeType:         req.MimeType,
		SizeBytes:        req.Size,
		SHA256:           contentHash,
		Status:           constants.FileStatusUploaded,
	}
	if err := s.MySQL.CreateSourceDocument(ctx, doc); err != nil {
		s.rollbackUpload(ctx, objectKey, contentHash, duplicate)
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("创建文件记录失败: %w", err)
	}

	if err := s.MySQL.CreatePendingExtractedText(ctx, documentID); err != nil {
		s.rollbackUpload(ctx, objectKey, contentHash, duplicate)
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, fmt.Errorf("创建提取文本记录失败: %w", err)
	}

	msg := &types.ExtractionJobMessage{
		DocumentID: documentID,
		Attempt:    0,
	}
	// 发布失败不回滚: 文件记录已落库，留待重新入队恢复
	if err := s.RabbitMQ.PublishExtractionJob(ctx, msg); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		return nil, fmt.Errorf("发布提取任务消息失败: %w", err)
	}

	logger.Info().
		Str("document_id", documentID).
		Str("sha256", contentHash).
		Bool("duplicate", duplicate).
		Msg("文档提交完成，提取任务已入队")

	span.SetAttributes(
		attribute.String("document_id", documentID),
		attribute.Bool("duplicate", duplicate),
	)
	span.SetStatus(codes.Ok, "")
	return &SubmissionResult{
		DocumentID: documentID,
		SHA256:     contentHash,
		Duplicate:  duplicate,
	}, nil
}

// contentHashRemover 回滚时移除去重哈希的能力
type contentHashRemover interface {
	RemoveContentHash(ctx context.Context, sha256Hex string) error
}

// rollbackUpload 提交中途失败时清理已上传的对象与去重哈希
func (s *Storage) rollbackUpload(ctx context.Context, objectKey, contentHash string, duplicate bool) {
	var dedup contentHashRemover
	if s.Redis != nil {
		dedup = s.Redis
	}
	rollbackSubmission(ctx, s.MinIO, dedup, objectKey, contentHash, duplicate)
}

// rollbackSubmission 尽力清理提交的副作用，失败只告警
// 重复内容的哈希本次提交前已存在，回滚时必须保留
func rollbackSubmission(ctx context.Context, objects ObjectStorage, dedup contentHashRemover, objectKey, contentHash string, duplicate bool) {
	if err := objects.DeleteUpload(ctx, objectKey); err != nil {
		logger.Warn().Err(err).Str("object_key", objectKey).Msg("回滚删除上传对象失败")
	}
	if dedup != nil && !duplicate {
		if err := dedup.RemoveContentHash(ctx, contentHash); err != nil {
			logger.Warn().Err(err).Str("sha256", contentHash).Msg("回滚移除去重哈希失败")
		}
	}
}
