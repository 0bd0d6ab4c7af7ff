package service

import (
	"context"
	"encoding/csv"
	"io"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/repository"
	"kwizzy_backend/internal/util"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExportService(t *testing.T, env *testEnv) (*ExportService, string) {
	root := t.TempDir()
	storage := &StorageService{Provider: &LocalStorageProvider{Root: root}}
	svc := NewExportService(
		repository.NewExportJobRepository(env.db),
		env.resultRepo,
		storage,
		env.clock,
		"exports",
		60,
		7,
	)
	return svc, root
}

func TestWriteCSVColumnsAndRemarks(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newExportService(t, env)
	taken := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	rows := []repository.ExportRow{
		{QuizID: 1, QuizName: "Algebra", ChapterName: "Ch1", SubjectName: "Maths", StudentName: "Asha", StudentEmail: "asha@example.com", MarksScored: 9, TotalMarks: 10, CompletedAt: taken},
		{QuizID: 2, QuizName: "Optics", ChapterName: "Ch2", SubjectName: "Physics", StudentName: "Asha", StudentEmail: "asha@example.com", MarksScored: 1, TotalMarks: 2, CompletedAt: taken},
	}

	data, err := svc.WriteCSV(rows, model.ExportScopeUser)
	require.NoError(t, err)
	records, err := csv.NewReader(bytesReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Quiz ID", "Quiz Name", "Chapter", "Subject", "Date Taken", "Score (%)", "Status", "Remarks"}, records[0])
	assert.Equal(t, []string{"1", "Algebra", "Ch1", "Maths", "2024-05-10 14:30", "90.00", "Pass", "Excellent performance!"}, records[1])
	assert.Equal(t, []string{"2", "Optics", "Ch2", "Physics", "2024-05-10 14:30", "50.00", "Fail", "Needs improvement"}, records[2])

	data, err = svc.WriteCSV(rows[:1], model.ExportScopeAll)
	require.NoError(t, err)
	records, err = csv.NewReader(bytesReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Student Name", records[0][0])
	assert.Equal(t, "asha@example.com", records[1][1])
}

func TestExportJobLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc, root := newExportService(t, env)
	user := env.createUser(t, "asha", model.Student)
	other := env.createUser(t, "ravi", model.Student)
	quiz := env.createQuiz(t, env.createChapter(t, "Maths").ID, 2, true, nil)
	_, err := env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: quiz.ID, Answers: correctAnswers(quiz)})
	require.NoError(t, err)

	job, err := svc.StartExport(ctx, user.ID, model.ExportScopeUser)
	require.NoError(t, err)
	svc.Wait()

	done, err := svc.GetExport(ctx, job.ID, user.ID, false)
	require.NoError(t, err)
	require.Equal(t, model.ExportSuccess, done.Status, done.Error)
	assert.Equal(t, "/api/exports/"+job.ID+"/download", done.DownloadURL)
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(done.FileName)))
	require.NoError(t, err)

	_, err = svc.GetExport(ctx, job.ID, other.ID, false)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	_, err = svc.GetExport(ctx, job.ID, other.ID, true)
	assert.NoError(t, err)
	_, err = svc.GetExport(ctx, "missing", user.ID, true)
	assert.ErrorIs(t, err, util.ErrExportNotFound)

	_, rc, err := svc.OpenExport(ctx, job.ID, user.ID, false)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "Excellent performance!")

	// 超过保留期后清理任务和文件
	removed, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	env.clock.Advance(8 * 24 * time.Hour)
	removed, err = svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(done.FileName)))
	assert.True(t, os.IsNotExist(err))
	_, err = svc.GetExport(ctx, job.ID, user.ID, false)
	assert.ErrorIs(t, err, util.ErrExportNotFound)
}

func TestSchedulerRegistersCleanup(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newExportService(t, env)

	s, err := NewScheduler(ist, "0 3 * * *", svc)
	require.NoError(t, err)
	s.Start()
	<-s.Stop().Done()

	_, err = NewScheduler(ist, "not a cron spec", svc)
	assert.Error(t, err)
}
