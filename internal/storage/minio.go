package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"cv-pipeline-go/internal/config"
	"cv-pipeline-go/internal/logger"
)

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// SaveUpload 流式上传原始文档并计算SHA256
	// 返回对象键与内容哈希
	SaveUpload(ctx context.Context, documentID, fileExt string, reader io.Reader, fileSize int64) (string, string, error)

	// ReadUpload 读取原始文档字节
	ReadUpload(ctx context.Context, objectKey string) ([]byte, error)

	// DeleteUpload 删除原始文档
	DeleteUpload(ctx context.Context, objectKey string) error
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client        *minio.Client
	cfg           *config.MinIOConfig
	uploadsBucket string
}

// NewMinIO 创建MinIO客户端并确保存储桶就绪
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	uploadsBucket := cfg.UploadsBucket
	if uploadsBucket == "" {
		uploadsBucket = "cv-uploads"
	}

	m := &MinIO{
		client:        client,
		cfg:           cfg,
		uploadsBucket: uploadsBucket,
	}

	if err := m.ensureBucketExists(uploadsBucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保上传存储桶 %s 存在失败: %w", uploadsBucket, err)
	}

	// 设置生命周期规则
	if cfg.UploadExpireDays > 0 {
		if err := m.setupBucketLifecycle(context.Background(), uploadsBucket, "expire-uploads", cfg.UploadExpireDays); err != nil {
			logger.Warn().Err(err).Str("bucket", uploadsBucket).Msg("设置生命周期规则失败")
		}
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", uploadsBucket).Msg("MinIO客户端初始化成功")
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		err = m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			// 并发初始化时可能已被其他进程创建
			existsNow, errCheck := m.client.BucketExists(context.Background(), bucketName)
			if errCheck == nil && existsNow {
				return nil
			}
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
	}
	return nil
}

// setupBucketLifecycle 为存储桶设置过期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, lc)
}

// SaveUpload 流式上传原始文档，边上传边计算SHA256
// 对象键形如 uploads/<documentID>/original<ext>
func (m *MinIO) SaveUpload(ctx context.Context, documentID, fileExt string, reader io.Reader, fileSize int64) (string, string, error) {
	objectKey := fmt.Sprintf("uploads/%s/original%s", documentID, fileExt)
	contentType := getContentType(fileExt)

	hasher := sha256.New()
	teeReader := io.TeeReader(reader, hasher)

	_, err := m.client.PutObject(ctx, m.uploadsBucket, objectKey, teeReader, fileSize,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", "", fmt.Errorf("上传对象 %s/%s 失败: %w", m.uploadsBucket, objectKey, err)
	}

	contentHash := hex.EncodeToString(hasher.Sum(nil))
	logger.Debug().
		Str("document_id", documentID).
		Str("object_key", objectKey).
		Str("sha256", contentHash).
		Int64("size", fileSize).
		Msg("原始文档上传完成")
	return objectKey, contentHash, nil
}

// ReadUpload 读取原始文档的全部字节
func (m *MinIO) ReadUpload(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.uploadsBucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", m.uploadsBucket, objectKey, err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return nil, fmt.Errorf("读取对象 %s/%s 内容失败: %w", m.uploadsBucket, objectKey, err)
	}
	return buf.Bytes(), nil
}

// DeleteUpload 删除原始文档
func (m *MinIO) DeleteUpload(ctx context.Context, objectKey string) error {
	err := m.client.RemoveObject(ctx, m.uploadsBucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("删除对象 %s/%s 失败: %w", m.uploadsBucket, objectKey, err)
	}
	return nil
}

// getContentType 根据文件扩展名返回MIME类型
func getContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
