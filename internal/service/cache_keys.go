package service

import (
	"context"
	"fmt"
	"kwizzy_backend/pkg/cache"
	"kwizzy_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// 缓存失效规则集中在这里：
//   - 测验、题目、选项写入 -> quiz:Q
//   - 成绩写入 -> results:user:U, performance:user:U

func quizCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d", quizID)
}

func userResultsCacheKey(userID uint) string {
	return fmt.Sprintf("results:user:%d", userID)
}

func performanceCacheKey(userID uint) string {
	return fmt.Sprintf("performance:user:%d", userID)
}

func invalidateQuizzes(ctx context.Context, c cache.Cache, quizIDs ...uint) {
	if len(quizIDs) == 0 {
		return
	}
	keys := make([]string, len(quizIDs))
	for i, id := range quizIDs {
		keys[i] = quizCacheKey(id)
	}
	deleteKeys(ctx, c, keys...)
}

func invalidateUserResults(ctx context.Context, c cache.Cache, userID uint) {
	deleteKeys(ctx, c, userResultsCacheKey(userID), performanceCacheKey(userID))
}

// 缓存失败只记录日志，不影响主流程
func deleteKeys(ctx context.Context, c cache.Cache, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		logger.Log.Warn("Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func readCache(ctx context.Context, c cache.Cache, key string, dest interface{}) bool {
	ok, err := c.Get(ctx, key, dest)
	if err != nil {
		logger.Log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func writeCache(ctx context.Context, c cache.Cache, key string, value interface{}, ttl time.Duration) {
	if err := c.Set(ctx, key, value, ttl); err != nil {
		logger.Log.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
