package embedding

import (
	"errors"
	"sync"

	"cv-pipeline-go/internal/config"
	"cv-pipeline-go/internal/logger"
)

// ErrUnavailable 表示编码模型不可用
// 模型加载失败后缓存该哨兵错误，后续调用不再重复尝试加载
var ErrUnavailable = errors.New("句向量模型不可用")

// 进程级单例: 模型初始化一次，初始化后只读
var (
	defaultMu       sync.RWMutex
	defaultOnce     sync.Once
	defaultEmbedder Embedder
	defaultErr      error
	defaultCfg      *config.EmbeddingConfig
)

// Configure 设置单例的初始化参数，必须在首次Default调用之前执行
func Configure(cfg *config.EmbeddingConfig) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultCfg = cfg
}

// Default 返回进程级共享的编码器
// 首次调用触发模型加载；加载失败缓存 ErrUnavailable，不会按次重试
func Default() (Embedder, error) {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		cfg := defaultCfg
		defaultMu.Unlock()

		if cfg == nil || cfg.ModelPath == "" {
			defaultErr = ErrUnavailable
			logger.Warn().Msg("未配置句向量模型路径，语义相似度信号不可用")
			return
		}

		emb, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens, cfg.CacheSize)
		if err != nil {
			defaultErr = ErrUnavailable
			logger.Warn().Err(err).Str("model_path", cfg.ModelPath).
				Msg("句向量模型加载失败，语义相似度信号降级为不可用")
			return
		}

		defaultMu.Lock()
		defaultEmbedder = emb
		defaultMu.Unlock()
		logger.Info().Str("model_path", cfg.ModelPath).Int("dimensions", cfg.Dimensions).
			Msg("句向量模型加载完成")
	})

	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultErr != nil {
		return nil, defaultErr
	}
	return defaultEmbedder, nil
}

// SetDefault 直接替换单例，供测试注入Mock实现
func SetDefault(e Embedder) {
	defaultOnce.Do(func() {})
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultEmbedder = e
	if e != nil {
		defaultErr = nil
	} else {
		defaultErr = ErrUnavailable
	}
}
