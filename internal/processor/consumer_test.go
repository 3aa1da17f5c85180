package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-pipeline-go/internal/config"
	"cv-pipeline-go/internal/types"
)

type fakeRunner struct {
	err   error
	calls []string
}

func (r *fakeRunner) Run(_ context.Context, documentID string) error {
	r.calls = append(r.calls, documentID)
	return r.err
}

type fakePublisher struct {
	err       error
	published []*types.ExtractionJobMessage
}

func (p *fakePublisher) PublishExtractionJob(_ context.Context, msg *types.ExtractionJobMessage) error {
	p.published = append(p.published, msg)
	return p.err
}

type fakeRecorder struct {
	failed map[string]string
}

func (r *fakeRecorder) MarkExtractionFailed(_ context.Context, documentID, errMsg string) error {
	if r.failed == nil {
		r.failed = make(map[string]string)
	}
	r.failed[documentID] = errMsg
	return nil
}

type fakeSource struct {
	consumers int
}

func (s *fakeSource) StartConsumer(_ context.Context, _ string, _ int, _ func([]byte) bool) error {
	s.consumers++
	return nil
}

func newTestConsumer(runner *fakeRunner, publisher *fakePublisher, recorder *fakeRecorder, source *fakeSource) *Consumer {
	return NewConsumer(runner, publisher, recorder, source,
		&config.RabbitMQConfig{ExtractionQueue: "cv.extraction.jobs", PrefetchCount: 1},
		&config.PipelineConfig{
			Workers:          3,
			MaxRetries:       3,
			RetryBaseBackoff: "1ms",
			RetryMaxBackoff:  "5ms",
		})
}

func jobBody(t *testing.T, documentID string, attempt int) []byte {
	t.Helper()
	body, err := json.Marshal(&types.ExtractionJobMessage{DocumentID: documentID, Attempt: attempt})
	require.NoError(t, err)
	return body
}

// TestConsumerStartLaunchesWorkerPool 每个worker是一个独立的消费者
func TestConsumerStartLaunchesWorkerPool(t *testing.T) {
	source := &fakeSource{}
	c := newTestConsumer(&fakeRunner{}, &fakePublisher{}, &fakeRecorder{}, source)

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, 3, source.consumers)
}

// TestHandleDeliveryPoisonMessage 无法解析的消息被确认后丢弃
func TestHandleDeliveryPoisonMessage(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestConsumer(runner, &fakePublisher{}, &fakeRecorder{}, &fakeSource{})

	assert.True(t, c.handleDelivery(context.Background(), []byte("{broken json")))
	assert.True(t, c.handleDelivery(context.Background(), []byte(`{"attempt":1}`)))
	assert.Empty(t, runner.calls)
}

func TestHandleDeliverySuccess(t *testing.T) {
	runner := &fakeRunner{}
	publisher := &fakePublisher{}
	c := newTestConsumer(runner, publisher, &fakeRecorder{}, &fakeSource{})

	assert.True(t, c.handleDelivery(context.Background(), jobBody(t, "doc-1", 0)))
	assert.Equal(t, []string{"doc-1"}, runner.calls)
	assert.Empty(t, publisher.published)
}

// TestHandleDeliveryTransientFailureRepublishes 暂时性失败退避后以递增的attempt重新入队
func TestHandleDeliveryTransientFailureRepublishes(t *testing.T) {
	runner := &fakeRunner{err: newPipelineError("doc-1", "extract", ErrExtractionFailed, "ocr down")}
	publisher := &fakePublisher{}
	c := newTestConsumer(runner, publisher, &fakeRecorder{}, &fakeSource{})

	assert.True(t, c.handleDelivery(context.Background(), jobBody(t, "doc-1", 1)))

	require.Len(t, publisher.published, 1)
	assert.Equal(t, "doc-1", publisher.published[0].DocumentID)
	assert.Equal(t, 2, publisher.published[0].Attempt)
}

// TestHandleDeliveryRetryBudgetExhausted 预算耗尽落终态FAILED并确认消息
func TestHandleDeliveryRetryBudgetExhausted(t *testing.T) {
	runner := &fakeRunner{err: newPipelineError("doc-1", "extract", ErrExtractionFailed, "ocr down")}
	publisher := &fakePublisher{}
	recorder := &fakeRecorder{}
	c := newTestConsumer(runner, publisher, recorder, &fakeSource{})

	// Attempt=3 已达MaxRetries，下一次尝试超出预算
	assert.True(t, c.handleDelivery(context.Background(), jobBody(t, "doc-1", 3)))

	assert.Empty(t, publisher.published)
	require.Contains(t, recorder.failed, "doc-1")
	assert.Contains(t, recorder.failed["doc-1"], ErrMaxRetriesExceeded.Error())
}

// TestHandleDeliveryPublishFailureRequeues 重试消息发不出去时拒绝原消息等broker重投
func TestHandleDeliveryPublishFailureRequeues(t *testing.T) {
	runner := &fakeRunner{err: newPipelineError("doc-1", "download", ErrDownloadFailed, "timeout")}
	publisher := &fakePublisher{err: errors.New("channel closed")}
	c := newTestConsumer(runner, publisher, &fakeRecorder{}, &fakeSource{})

	assert.False(t, c.handleDelivery(context.Background(), jobBody(t, "doc-1", 0)))
}

// TestScheduleRetryCanceledContext 停机期间不等待退避，直接拒绝消息
func TestScheduleRetryCanceledContext(t *testing.T) {
	publisher := &fakePublisher{}
	c := newTestConsumer(&fakeRunner{}, publisher, &fakeRecorder{}, &fakeSource{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok := c.scheduleRetry(ctx, &types.ExtractionJobMessage{DocumentID: "doc-1", Attempt: 0}, errors.New("boom"))
	assert.False(t, ok)
	assert.Empty(t, publisher.published)
}

// TestRetryBackoffBounds 退避时长满足 min(base*2^attempt, max) 的[0.8,1.2)抖动区间
func TestRetryBackoffBounds(t *testing.T) {
	base := 100 * time.Millisecond
	max := 10 * time.Second

	for attempt := 0; attempt < 5; attempt++ {
		expected := base << uint(attempt)
		for i := 0; i < 20; i++ {
			d := retryBackoff(base, max, attempt)
			assert.GreaterOrEqual(t, d, time.Duration(float64(expected)*0.8))
			assert.Less(t, d, time.Duration(float64(expected)*1.2))
		}
	}

	// 上限封顶
	d := retryBackoff(base, 200*time.Millisecond, 10)
	assert.LessOrEqual(t, d, time.Duration(float64(200*time.Millisecond)*1.2))
}
