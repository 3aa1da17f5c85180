package storage

import (
	"context"
	"fmt"

	"cv-pipeline-go/internal/logger"
	"cv-pipeline-go/internal/scorer"
	"cv-pipeline-go/internal/types"
)

// requisitionReader 排序读路径需要的数据库能力
type requisitionReader interface {
	GetRequisitionCriteria(ctx context.Context, requisitionID string) (*types.RequisitionCriteria, error)
	ListCandidateTextsForRequisition(ctx context.Context, requisitionID string) ([]types.CandidateText, error)
}

// requisitionTextCache 招聘需求描述文本缓存能力
type requisitionTextCache interface {
	GetRequisitionText(ctx context.Context, requisitionID string) (string, bool, error)
	SetRequisitionText(ctx context.Context, requisitionID, text string) error
}

// RankCandidatesForRequisition 按与需求描述的文本相关度对候选人降序排序
// 描述文本优先读Redis缓存，未命中回源数据库并回填；Redis不可用时直接回源
func (s *Storage) RankCandidatesForRequisition(ctx context.Context, requisitionID string) ([]types.RankedCandidate, error) {
	if s.MySQL == nil {
		return nil, fmt.Errorf("候选人排序需要MySQL已初始化")
	}
	var cache requisitionTextCache
	if s.Redis != nil {
		cache = s.Redis
	}
	return rankForRequisition(ctx, s.MySQL, cache, requisitionID)
}

func rankForRequisition(ctx context.Context, db requisitionReader, cache requisitionTextCache, requisitionID string) ([]types.RankedCandidate, error) {
	jobText, err := requisitionText(ctx, db, cache, requisitionID)
	if err != nil {
		return nil, fmt.Errorf("读取需求描述文本失败: %w", err)
	}

	candidates, err := db.ListCandidateTextsForRequisition(ctx, requisitionID)
	if err != nil {
		return nil, fmt.Errorf("列出候选人文本失败: %w", err)
	}

	ranked := scorer.RankCandidates(ctx, jobText, candidates)
	logger.Debug().
		Str("requisition_id", requisitionID).
		Int("candidates", len(ranked)).
		Msg("候选人相关度排序完成")
	return ranked, nil
}

// requisitionText 读取需求描述文本，缓存未命中时回源数据库并回填
// 缓存读写失败都只告警，不影响排序结果
func requisitionText(ctx context.Context, db requisitionReader, cache requisitionTextCache, requisitionID string) (string, error) {
	if cache != nil {
		text, hit, err := cache.GetRequisitionText(ctx, requisitionID)
		if err != nil {
			logger.Warn().Err(err).Str("requisition_id", requisitionID).Msg("读取需求文本缓存失败，回源数据库")
		} else if hit {
			return text, nil
		}
	}

	criteria, err := db.GetRequisitionCriteria(ctx, requisitionID)
	if err != nil {
		return "", err
	}

	if cache != nil {
		if err := cache.SetRequisitionText(ctx, requisitionID, criteria.DescriptionText); err != nil {
			logger.Warn().Err(err).Str("requisition_id", requisitionID).Msg("回填需求文本缓存失败")
		}
	}
	return criteria.DescriptionText, nil
}
