package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/repository"
	"kwizzy_backend/pkg/cache"
	"kwizzy_backend/pkg/clock"
	"kwizzy_backend/pkg/database"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type testEnv struct {
	db         *gorm.DB
	clock      *clock.Fixed
	cache      *cache.MemoryCache
	quizRepo   *repository.QuizRepository
	resultRepo *repository.QuizResultRepository
	submission *SubmissionService
	results    *QuizResultService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := database.OpenTestDB(t)
	clk := clock.NewFixed(time.Date(2024, 5, 10, 14, 30, 0, 0, ist))
	c := cache.NewMemoryCache()
	quizRepo := repository.NewQuizRepository(db)
	resultRepo := repository.NewQuizResultRepository(db)

	return &testEnv{
		db:         db,
		clock:      clk,
		cache:      c,
		quizRepo:   quizRepo,
		resultRepo: resultRepo,
		submission: NewSubmissionService(quizRepo, resultRepo, clk, c),
		results:    NewQuizResultService(resultRepo, quizRepo, clk, c, time.Minute),
	}
}

func (e *testEnv) createUser(t *testing.T, name string, role model.UserRole) *model.User {
	t.Helper()
	u := &model.User{
		Name:          name,
		Email:         name + "@example.com",
		Password:      "x",
		Dob:           time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC),
		Qualification: "B.Sc",
		Role:          role,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) createChapter(t *testing.T, subjectName string) *model.Chapter {
	t.Helper()
	subject := &model.Subject{Name: subjectName, Description: subjectName + " basics"}
	require.NoError(t, e.db.Create(subject).Error)
	chapter := &model.Chapter{SubjectID: subject.ID, Name: "Chapter 1", Description: "intro"}
	require.NoError(t, e.db.Create(chapter).Error)
	return chapter
}

// createQuiz 创建 n 道题的测验，每题三个选项，第二个为正确选项
func (e *testEnv) createQuiz(t *testing.T, chapterID uint, n int, oneAttempt bool, deadline *time.Time) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{
		Name:           fmt.Sprintf("Quiz %d", chapterID),
		Description:    "practice",
		ChapterID:      chapterID,
		TimeDuration:   600,
		Deadline:       deadline,
		OneAttemptOnly: oneAttempt,
	}
	for i := 0; i < n; i++ {
		quiz.Questions = append(quiz.Questions, model.Question{
			Title: fmt.Sprintf("Q%d", i+1),
			Text:  fmt.Sprintf("What is %d + %d?", i, i),
			Options: []model.Option{
				{Text: "wrong A"},
				{Text: "right", IsCorrect: true},
				{Text: "wrong B"},
			},
		})
	}
	require.NoError(t, e.quizRepo.Create(context.Background(), quiz))

	loaded, err := e.quizRepo.GetQuiz(context.Background(), quiz.ID)
	require.NoError(t, err)
	require.Equal(t, oneAttempt, loaded.OneAttemptOnly)
	return loaded
}

func (e *testEnv) countResults(t *testing.T, userID, quizID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.QuizResult{}).Where("user_id = ? AND quiz_id = ?", userID, quizID).Count(&n).Error)
	return n
}

func (e *testEnv) countAnswers(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.UserAnswer{}).Count(&n).Error)
	return n
}

func correctAnswers(quiz *model.Quiz) []SubmitAnswer {
	answers := make([]SubmitAnswer, len(quiz.Questions))
	for i := range quiz.Questions {
		answers[i] = SubmitAnswer{
			QuestionID:       quiz.Questions[i].ID,
			SelectedOptionID: quiz.Questions[i].CorrectOptionID(),
		}
	}
	return answers
}

func wrongOption(q *model.Question) *uint {
	for _, o := range q.Options {
		if !o.IsCorrect {
			id := o.ID
			return &id
		}
	}
	return nil
}

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}
