package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"cv-pipeline-go/internal/config"
	"cv-pipeline-go/internal/logger"
	"cv-pipeline-go/internal/types"
)

// JobRunner 消费者调用的编排入口
type JobRunner interface {
	Run(ctx context.Context, documentID string) error
}

// JobPublisher 重试消息发布入口
type JobPublisher interface {
	PublishExtractionJob(ctx context.Context, msg *types.ExtractionJobMessage) error
}

// FailureRecorder 重试预算耗尽时落终态的数据库入口
type FailureRecorder interface {
	MarkExtractionFailed(ctx context.Context, documentID, errMsg string) error
}

// ConsumerSource 消息队列消费入口
type ConsumerSource interface {
	StartConsumer(ctx context.Context, queueName string, prefetchCount int, handler func([]byte) bool) error
}

// Consumer 从消息队列消费提取任务并派发给编排器
// 每个worker是独立的AMQP消费者，形成工作池；瞬时失败走
// 指数退避+抖动的重新入队，预算耗尽落终态FAILED
type Consumer struct {
	runner    JobRunner
	publisher JobPublisher
	recorder  FailureRecorder
	source    ConsumerSource

	queueName   string
	prefetch    int
	pipelineCfg *config.PipelineConfig
}

// NewConsumer 创建任务消费者
func NewConsumer(runner JobRunner, publisher JobPublisher, recorder FailureRecorder, source ConsumerSource, mqCfg *config.RabbitMQConfig, pipelineCfg *config.PipelineConfig) *Consumer {
	return &Consumer{
		runner:      runner,
		publisher:   publisher,
		recorder:    recorder,
		source:      source,
		queueName:   mqCfg.ExtractionQueue,
		prefetch:    mqCfg.PrefetchCount,
		pipelineCfg: pipelineCfg,
	}
}

// Start 启动工作池，ctx取消时各worker停止
func (c *Consumer) Start(ctx context.Context) error {
	workers := c.pipelineCfg.Workers
	if workers <= 0 {
		workers = 1
	}
	prefetch := c.prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	for i := 0; i < workers; i++ {
		if err := c.source.StartConsumer(ctx, c.queueName, prefetch, func(body []byte) bool {
			return c.handleDelivery(ctx, body)
		}); err != nil {
			return fmt.Errorf("启动第%d个worker失败: %w", i+1, err)
		}
	}

	logger.Info().
		Int("workers", workers).
		Str("queue", c.queueName).
		Msg("提取任务工作池已启动")
	return nil
}

// handleDelivery 处理单条投递
// 返回true确认消息；只有基础设施级失败（重试消息发不出去）才返回false重新入队
func (c *Consumer) handleDelivery(ctx context.Context, body []byte) bool {
	var msg types.ExtractionJobMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// 毒消息无法解析，确认后丢弃
		logger.Error().Err(err).Str("body", string(body)).Msg("提取任务消息解析失败，丢弃")
		return true
	}
	if msg.DocumentID == "" {
		logger.Error().Str("body", string(body)).Msg("提取任务消息缺少document_id，丢弃")
		return true
	}

	err := c.runner.Run(ctx, msg.DocumentID)
	if err == nil {
		return true
	}

	// 编排器只对暂时性失败返回错误，进入重试流程
	return c.scheduleRetry(ctx, &msg, err)
}

// scheduleRetry 退避后重新入队，预算耗尽时落终态FAILED
func (c *Consumer) scheduleRetry(ctx context.Context, msg *types.ExtractionJobMessage, cause error) bool {
	nextAttempt := msg.Attempt + 1
	if nextAttempt > c.pipelineCfg.MaxRetries {
		finalMsg := fmt.Sprintf("%s: %v", ErrMaxRetriesExceeded.Error(), cause)
		if err := c.recorder.MarkExtractionFailed(ctx, msg.DocumentID, finalMsg); err != nil {
			logger.Error().Err(err).Str("document_id", msg.DocumentID).
				Msg("写入重试耗尽终态失败")
		}
		logger.Warn().
			Str("document_id", msg.DocumentID).
			Int("attempts", msg.Attempt).
			Err(cause).
			Msg("重试预算耗尽，文档处理终止")
		return true
	}

	delay := retryBackoff(c.pipelineCfg.RetryBaseBackoffDuration(), c.pipelineCfg.RetryMaxBackoffDuration(), msg.Attempt)
	logger.Info().
		Str("document_id", msg.DocumentID).
		Int("next_attempt", nextAttempt).
		Dur("delay", delay).
		Err(cause).
		Msg("暂时性失败，退避后重新入队")

	select {
	case <-ctx.Done():
		// 停机期间不再等待，拒绝消息让broker重新投递
		return false
	case <-time.After(delay):
	}

	retryMsg := &types.ExtractionJobMessage{
		DocumentID: msg.DocumentID,
		Attempt:    nextAttempt,
	}
	if err := c.publisher.PublishExtractionJob(ctx, retryMsg); err != nil {
		logger.Error().Err(err).Str("document_id", msg.DocumentID).
			Msg("重试消息发布失败，拒绝原消息等待broker重投")
		return false
	}
	return true
}

// retryBackoff 指数退避加抖动: min(base*2^attempt, max) 再乘 [0.8, 1.2) 的随机系数
func retryBackoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 2 * time.Second
	}
	delay := base
	for i := 0; i < attempt && delay < max; i++ {
		delay *= 2
	}
	if delay > max {
		delay = max
	}
	jitter := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(delay) * jitter)
}
