package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/repository"
	"kwizzy_backend/internal/util"
	"kwizzy_backend/pkg/clock"
	"kwizzy_backend/pkg/logger"
	"kwizzy_backend/pkg/monitoring"
	"path"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ExportService struct {
	JobRepo       *repository.ExportJobRepository
	ResultRepo    *repository.QuizResultRepository
	Storage       *StorageService
	Clock         clock.Clock
	Dir           string
	PassMark      float64
	RetentionDays int

	wg sync.WaitGroup
}

func NewExportService(jobRepo *repository.ExportJobRepository, resultRepo *repository.QuizResultRepository, storage *StorageService, clk clock.Clock, dir string, passMark float64, retentionDays int) *ExportService {
	return &ExportService{
		JobRepo:       jobRepo,
		ResultRepo:    resultRepo,
		Storage:       storage,
		Clock:         clk,
		Dir:           dir,
		PassMark:      passMark,
		RetentionDays: retentionDays,
	}
}

// StartExport 创建任务并在后台生成 CSV
func (s *ExportService) StartExport(ctx context.Context, userID uint, scope model.ExportScope) (*model.ExportJob, error) {
	now := s.Clock.Now()
	job := &model.ExportJob{
		UserID: userID,
		Scope:  scope,
		Status: model.ExportPending,
	}
	job.CreatedAt = now
	job.UpdatedAt = now
	if err := s.JobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create export job: %w", err)
	}

	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Process(bg, job)
	}()
	return job, nil
}

// Wait 等待后台任务结束，关闭服务时调用
func (s *ExportService) Wait() {
	s.wg.Wait()
}

func (s *ExportService) Process(ctx context.Context, job *model.ExportJob) {
	log := logger.Log.With(zap.String("job_id", job.ID), zap.String("scope", string(job.Scope)))

	if err := s.JobRepo.UpdateStatus(ctx, job.ID, map[string]interface{}{"status": model.ExportRunning}); err != nil {
		log.Error("Failed to mark export running", zap.Error(err))
	}

	fileName, err := s.generate(ctx, job)
	if err != nil {
		log.Error("Export failed", zap.Error(err))
		monitoring.ExportJobs.WithLabelValues(string(model.ExportFailure)).Inc()
		if uerr := s.JobRepo.UpdateStatus(ctx, job.ID, map[string]interface{}{
			"status": model.ExportFailure,
			"error":  truncate(err.Error(), 512),
		}); uerr != nil {
			log.Error("Failed to mark export failed", zap.Error(uerr))
		}
		return
	}

	monitoring.ExportJobs.WithLabelValues(string(model.ExportSuccess)).Inc()
	if err := s.JobRepo.UpdateStatus(ctx, job.ID, map[string]interface{}{
		"status":       model.ExportSuccess,
		"file_name":    fileName,
		"download_url": "/api/exports/" + job.ID + "/download",
	}); err != nil {
		log.Error("Failed to mark export finished", zap.Error(err))
		return
	}
	log.Info("Export finished", zap.String("file", fileName))
}

func (s *ExportService) generate(ctx context.Context, job *model.ExportJob) (string, error) {
	var userID uint
	if job.Scope == model.ExportScopeUser {
		userID = job.UserID
	}
	rows, err := s.ResultRepo.ListForExport(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load results: %w", err)
	}

	data, err := s.WriteCSV(rows, job.Scope)
	if err != nil {
		return "", err
	}

	name := path.Join(s.Dir, fmt.Sprintf("%s_%d_%s_%s.csv",
		job.Scope, job.UserID, s.Clock.Now().Format(util.ExportFileTime), job.ID[:8]))
	if err := s.Storage.Upload(ctx, name, bytes.NewReader(data), int64(len(data)), util.MimeCSV); err != nil {
		return "", err
	}
	return name, nil
}

// WriteCSV 全体导出时在前面增加学生姓名和邮箱两列
func (s *ExportService) WriteCSV(rows []repository.ExportRow, scope model.ExportScope) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Quiz ID", "Quiz Name", "Chapter", "Subject", "Date Taken", "Score (%)", "Status", "Remarks"}
	if scope == model.ExportScopeAll {
		header = append([]string{"Student Name", "Student Email"}, header...)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range rows {
		pct := util.Percentage(r.MarksScored, r.TotalMarks)
		status := "Fail"
		if pct >= s.PassMark {
			status = "Pass"
		}
		record := []string{
			strconv.FormatUint(uint64(r.QuizID), 10),
			r.QuizName,
			r.ChapterName,
			r.SubjectName,
			r.CompletedAt.In(s.Clock.Location()).Format(util.MinuteFormat),
			strconv.FormatFloat(pct, 'f', 2, 64),
			status,
			util.Remarks(pct),
		}
		if scope == model.ExportScopeAll {
			record = append([]string{r.StudentName, r.StudentEmail}, record...)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetExport 只有任务发起人或管理员可以查看
func (s *ExportService) GetExport(ctx context.Context, jobID string, userID uint, isAdmin bool) (*model.ExportJob, error) {
	job, err := s.JobRepo.FindByID(ctx, jobID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrExportNotFound
	}
	if err != nil {
		return nil, err
	}
	if !isAdmin && job.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return job, nil
}

func (s *ExportService) ListExports(ctx context.Context, userID uint) ([]model.ExportJob, error) {
	return s.JobRepo.ListByUser(ctx, userID)
}

// OpenExport 返回已完成任务的文件内容，调用方负责关闭
func (s *ExportService) OpenExport(ctx context.Context, jobID string, userID uint, isAdmin bool) (*model.ExportJob, io.ReadCloser, error) {
	job, err := s.GetExport(ctx, jobID, userID, isAdmin)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != model.ExportSuccess || job.FileName == "" {
		return nil, nil, util.ErrExportNotReady
	}
	rc, err := s.Storage.Open(ctx, job.FileName)
	if err != nil {
		return nil, nil, fmt.Errorf("open export file: %w", err)
	}
	return job, rc, nil
}

// CleanupExpired 删除超过保留天数的任务及其文件
func (s *ExportService) CleanupExpired(ctx context.Context) (int, error) {
	cutoff := s.Clock.Now().Add(-time.Duration(s.RetentionDays) * 24 * time.Hour)
	jobs, err := s.JobRepo.ListOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		if job.FileName != "" {
			if err := s.Storage.Delete(ctx, job.FileName); err != nil {
				logger.Log.Warn("Failed to delete export file", zap.String("file", job.FileName), zap.Error(err))
				continue
			}
		}
		ids = append(ids, job.ID)
	}
	if err := s.JobRepo.DeleteByIDs(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
