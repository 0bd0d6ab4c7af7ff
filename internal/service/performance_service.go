package service

import (
	"context"
	"errors"
	"fmt"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/repository"
	"kwizzy_backend/internal/util"
	"kwizzy_backend/pkg/cache"
	"kwizzy_backend/pkg/clock"
	"time"

	"gorm.io/gorm"
)

type RecentResult struct {
	repository.RecentActivity
	Percentage           float64 `json:"percentage"`
	CompletedAtFormatted string  `json:"completed_at_formatted"`
}

// swagger:model PerformanceSummary
type PerformanceSummary struct {
	UserID                uint                      `json:"user_id"`
	TotalQuizzesAttempted int64                     `json:"total_quizzes_attempted"`
	LastActive            *time.Time                `json:"last_active"`
	LastActiveFormatted   string                    `json:"last_active_formatted"`
	OverallPerformance    float64                   `json:"overall_performance"`
	RecentActivity        []RecentResult            `json:"recent_activity"`
	SubjectPerformance    []repository.SubjectScore `json:"subject_performance"`
}

type PerformanceService struct {
	PerfRepo *repository.PerformanceRepository
	UserRepo *repository.UserRepository
	Clock    clock.Clock
	Cache    cache.Cache
	CacheTTL time.Duration
}

func NewPerformanceService(perfRepo *repository.PerformanceRepository, userRepo *repository.UserRepository, clk clock.Clock, c cache.Cache, ttl time.Duration) *PerformanceService {
	return &PerformanceService{
		PerfRepo: perfRepo,
		UserRepo: userRepo,
		Clock:    clk,
		Cache:    c,
		CacheTTL: ttl,
	}
}

// StudentSummary 管理端查看学生，用户不存在或不是学生时返回 ErrUserNotFound
func (s *PerformanceService) StudentSummary(ctx context.Context, userID uint) (*PerformanceSummary, error) {
	user, err := s.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && user.Role != model.Student) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Summary(ctx, userID)
}

func (s *PerformanceService) Summary(ctx context.Context, userID uint) (*PerformanceSummary, error) {
	key := performanceCacheKey(userID)
	var cached PerformanceSummary
	if readCache(ctx, s.Cache, key, &cached) {
		return &cached, nil
	}

	totals, err := s.PerfRepo.Totals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load totals: %w", err)
	}
	lastActive, err := s.PerfRepo.LastActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load last active: %w", err)
	}
	recent, err := s.PerfRepo.Recent(ctx, userID, util.RecentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("load recent activity: %w", err)
	}
	subjects, err := s.PerfRepo.BySubject(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subject performance: %w", err)
	}

	loc := s.Clock.Location()
	summary := &PerformanceSummary{
		UserID:                userID,
		TotalQuizzesAttempted: totals.Attempts,
		OverallPerformance:    util.Percentage(int(totals.MarksScored), int(totals.TotalMarks)),
		RecentActivity:        make([]RecentResult, len(recent)),
		SubjectPerformance:    subjects,
	}
	if lastActive != nil {
		t := lastActive.In(loc)
		summary.LastActive = &t
		summary.LastActiveFormatted = t.Format(util.ReportFormat)
	}
	for i, r := range recent {
		r.CompletedAt = r.CompletedAt.In(loc)
		summary.RecentActivity[i] = RecentResult{
			RecentActivity:       r,
			Percentage:           util.Percentage(r.MarksScored, r.TotalMarks),
			CompletedAtFormatted: r.CompletedAt.Format(util.ReportFormat),
		}
	}
	for i := range summary.SubjectPerformance {
		summary.SubjectPerformance[i].Average = util.Round2(summary.SubjectPerformance[i].Average)
	}
	if summary.SubjectPerformance == nil {
		summary.SubjectPerformance = []repository.SubjectScore{}
	}

	writeCache(ctx, s.Cache, key, summary, s.CacheTTL)
	return summary, nil
}
