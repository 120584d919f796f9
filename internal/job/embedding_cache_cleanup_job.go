package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/creditchek/devbot/internal/repo"
)

type EmbeddingCacheCleanupJob struct {
	cache    *repo.EmbeddingCacheRepo
	keepDays int
}

func NewEmbeddingCacheCleanupJob(cache *repo.EmbeddingCacheRepo, keepDays int) *EmbeddingCacheCleanupJob {
	return &EmbeddingCacheCleanupJob{cache: cache, keepDays: keepDays}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.cache == nil || j.keepDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -j.keepDays).UnixMilli()
	deleted, err := j.cache.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("embedding cache cleaned", zap.Int64("deleted", deleted))
	return nil
}
