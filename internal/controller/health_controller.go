package controller

import (
	"context"
	"kwizzy_backend/internal/util"
	"kwizzy_backend/pkg/cache"
	"kwizzy_backend/pkg/clock"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthPingKey = "health:ping"

type HealthController struct {
	DB    *gorm.DB
	Cache cache.Cache
	Clock clock.Clock
}

func NewHealthController(db *gorm.DB, c cache.Cache, clk clock.Clock) *HealthController {
	return &HealthController{DB: db, Cache: c, Clock: clk}
}

// HealthCheck godoc
// @Summary 健康检查
// @Description 检查数据库与缓存，返回测验时区下的服务器时间
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	components := gin.H{"database": "up", "cache": c.cacheStatus(reqCtx)}

	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}
	if err := sqlDB.PingContext(reqCtx); err != nil {
		components["database"] = "down"
		util.ErrorWithData(ctx, http.StatusServiceUnavailable, "Database unavailable", gin.H{"components": components})
		return
	}

	now := c.Clock.Now()
	util.Success(ctx, gin.H{
		"status":      "ok",
		"components":  components,
		"timezone":    c.Clock.Location().String(),
		"server_time": now.Format(util.ReportFormat),
	})
}

// cacheStatus 缓存不可用时服务仍然可用，只在响应里标记
func (c *HealthController) cacheStatus(ctx context.Context) gin.H {
	status := gin.H{"backend": "none", "state": "up"}
	switch c.Cache.(type) {
	case *cache.RedisCache:
		status["backend"] = "redis"
	case *cache.MemoryCache:
		status["backend"] = "memory"
	}
	if c.Cache == nil {
		return status
	}

	var echo int64
	if err := c.Cache.Set(ctx, healthPingKey, c.Clock.Now().Unix(), 10*time.Second); err != nil {
		status["state"] = "down"
		return status
	}
	if ok, err := c.Cache.Get(ctx, healthPingKey, &echo); err != nil || !ok {
		status["state"] = "down"
	}
	return status
}
