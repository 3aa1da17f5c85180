package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-pipeline-go/internal/types"
)

func TestGetContentType(t *testing.T) {
	cases := map[string]string{
		".pdf":  "application/pdf",
		".PDF":  "application/pdf",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		".png":  "image/png",
		".jpeg": "image/jpeg",
		".tiff": "image/tiff",
		".txt":  "text/plain",
		".xyz":  "application/octet-stream",
		"":      "application/octet-stream",
	}
	for ext, want := range cases {
		assert.Equal(t, want, getContentType(ext), "ext=%q", ext)
	}
}

// TestSubmitDocumentRequiresComponents 核心组件未初始化时提交直接失败
func TestSubmitDocumentRequiresComponents(t *testing.T) {
	s := &Storage{}
	_, err := s.SubmitDocument(context.Background(), &SubmissionRequest{
		ApplicationID: "app-1",
		Filename:      "cv.pdf",
		Reader:        strings.NewReader("data"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MinIO")
}

// fakeReqReader 排序读路径的数据库桩
type fakeReqReader struct {
	criteria     *types.RequisitionCriteria
	criteriaErr  error
	criteriaGets int

	candidates []types.CandidateText
	listErr    error
}

func (f *fakeReqReader) GetRequisitionCriteria(_ context.Context, _ string) (*types.RequisitionCriteria, error) {
	f.criteriaGets++
	return f.criteria, f.criteriaErr
}

func (f *fakeReqReader) ListCandidateTextsForRequisition(_ context.Context, _ string) ([]types.CandidateText, error) {
	return f.candidates, f.listErr
}

// fakeReqCache 需求文本缓存的桩
type fakeReqCache struct {
	text   string
	hit    bool
	getErr error

	setKey  string
	setText string
	setErr  error
}

func (f *fakeReqCache) GetRequisitionText(_ context.Context, _ string) (string, bool, error) {
	return f.text, f.hit, f.getErr
}

func (f *fakeReqCache) SetRequisitionText(_ context.Context, requisitionID, text string) error {
	f.setKey = requisitionID
	f.setText = text
	return f.setErr
}

// TestRankForRequisitionOrdersByRelevance 排序结果按相关度降序且覆盖全部候选人
func TestRankForRequisitionOrdersByRelevance(t *testing.T) {
	jobDescription := "golang developer with kubernetes and postgresql experience"
	db := &fakeReqReader{
		criteria: &types.RequisitionCriteria{
			RequisitionID:   "req-1",
			DescriptionText: jobDescription,
		},
		candidates: []types.CandidateText{
			{DocumentID: "doc-weak", Text: "pastry chef croissants macarons"},
			{DocumentID: "doc-exact", Text: jobDescription},
			{DocumentID: "doc-partial", Text: "golang developer looking for backend roles"},
		},
	}

	ranked, err := rankForRequisition(context.Background(), db, nil, "req-1")
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "doc-exact", ranked[0].DocumentID)
	assert.Equal(t, "doc-partial", ranked[1].DocumentID)
	assert.Equal(t, "doc-weak", ranked[2].DocumentID)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
	assert.Greater(t, ranked[1].Score, ranked[2].Score)
}

// TestRankForRequisitionCacheHitSkipsDB 缓存命中时不回源读取评分标准
func TestRankForRequisitionCacheHitSkipsDB(t *testing.T) {
	db := &fakeReqReader{
		candidates: []types.CandidateText{{DocumentID: "doc-1", Text: "golang developer"}},
	}
	cache := &fakeReqCache{text: "golang developer wanted", hit: true}

	ranked, err := rankForRequisition(context.Background(), db, cache, "req-1")
	require.NoError(t, err)
	require.Len(t, ranked, 1)

	assert.Zero(t, db.criteriaGets)
	assert.Empty(t, cache.setKey)
}

// TestRankForRequisitionCacheMissBackfills 缓存未命中时回源数据库并回填
func TestRankForRequisitionCacheMissBackfills(t *testing.T) {
	db := &fakeReqReader{
		criteria: &types.RequisitionCriteria{DescriptionText: "golang developer wanted"},
	}
	cache := &fakeReqCache{}

	_, err := rankForRequisition(context.Background(), db, cache, "req-42")
	require.NoError(t, err)

	assert.Equal(t, 1, db.criteriaGets)
	assert.Equal(t, "req-42", cache.setKey)
	assert.Equal(t, "golang developer wanted", cache.setText)
}

// TestRankForRequisitionCacheErrorFallsBack 缓存读失败降级回源，不影响排序
func TestRankForRequisitionCacheErrorFallsBack(t *testing.T) {
	db := &fakeReqReader{
		criteria:   &types.RequisitionCriteria{DescriptionText: "golang developer"},
		candidates: []types.CandidateText{{DocumentID: "doc-1", Text: "golang developer"}},
	}
	cache := &fakeReqCache{getErr: errors.New("redis down")}

	ranked, err := rankForRequisition(context.Background(), db, cache, "req-1")
	require.NoError(t, err)
	assert.Len(t, ranked, 1)
	assert.Equal(t, 1, db.criteriaGets)
}

// TestRankForRequisitionPropagatesErrors 回源与列出候选人的失败都向上返回
func TestRankForRequisitionPropagatesErrors(t *testing.T) {
	db := &fakeReqReader{criteriaErr: errors.New("not found")}
	_, err := rankForRequisition(context.Background(), db, nil, "req-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "需求描述文本")

	db = &fakeReqReader{
		criteria: &types.RequisitionCriteria{DescriptionText: "text"},
		listErr:  errors.New("db gone"),
	}
	_, err = rankForRequisition(context.Background(), db, nil, "req-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "候选人文本")
}

// TestRankCandidatesForRequisitionRequiresMySQL MySQL未初始化时直接失败
func TestRankCandidatesForRequisitionRequiresMySQL(t *testing.T) {
	s := &Storage{}
	_, err := s.RankCandidatesForRequisition(context.Background(), "req-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MySQL")
}

// fakeRollbackObjects 回滚路径的对象存储桩
type fakeRollbackObjects struct {
	deletedKey string
	deleteErr  error
}

func (f *fakeRollbackObjects) SaveUpload(_ context.Context, _, _ string, _ io.Reader, _ int64) (string, string, error) {
	return "", "", nil
}

func (f *fakeRollbackObjects) ReadUpload(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func (f *fakeRollbackObjects) DeleteUpload(_ context.Context, objectKey string) error {
	f.deletedKey = objectKey
	return f.deleteErr
}

// fakeHashRemover 去重哈希移除桩
type fakeHashRemover struct {
	removed []string
}

func (f *fakeHashRemover) RemoveContentHash(_ context.Context, sha256Hex string) error {
	f.removed = append(f.removed, sha256Hex)
	return nil
}

// TestRollbackSubmissionCleansUp 回滚删除对象并移除本次新增的哈希
func TestRollbackSubmissionCleansUp(t *testing.T) {
	objects := &fakeRollbackObjects{}
	dedup := &fakeHashRemover{}

	rollbackSubmission(context.Background(), objects, dedup, "uploads/doc-1/original.pdf", "abc123", false)

	assert.Equal(t, "uploads/doc-1/original.pdf", objects.deletedKey)
	assert.Equal(t, []string{"abc123"}, dedup.removed)
}

// TestRollbackSubmissionKeepsDuplicateHash 重复内容的哈希在回滚时保留
func TestRollbackSubmissionKeepsDuplicateHash(t *testing.T) {
	objects := &fakeRollbackObjects{}
	dedup := &fakeHashRemover{}

	rollbackSubmission(context.Background(), objects, dedup, "uploads/doc-1/original.pdf", "abc123", true)

	assert.Equal(t, "uploads/doc-1/original.pdf", objects.deletedKey)
	assert.Empty(t, dedup.removed)
}

// TestRollbackSubmissionWithoutRedis Redis不可用时回滚只清理对象
func TestRollbackSubmissionWithoutRedis(t *testing.T) {
	objects := &fakeRollbackObjects{deleteErr: errors.New("minio down")}
	rollbackSubmission(context.Background(), objects, nil, "uploads/doc-1/original.pdf", "abc123", false)
	assert.Equal(t, "uploads/doc-1/original.pdf", objects.deletedKey)
}
