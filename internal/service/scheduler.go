package service

import (
	"context"
	"kwizzy_backend/pkg/logger"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler 定时任务，目前只有导出文件清理
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(loc *time.Location, exportCleanupSpec string, exports *ExportService) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(loc))

	_, err := c.AddFunc(exportCleanupSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		removed, err := exports.CleanupExpired(ctx)
		if err != nil {
			logger.Log.Error("Export cleanup failed", zap.Error(err))
			return
		}
		logger.Log.Info("Export cleanup finished", zap.Int("removed", removed))
	})
	if err != nil {
		return nil, err
	}

	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Log.Info("Scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
