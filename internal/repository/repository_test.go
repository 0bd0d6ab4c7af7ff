package repository

import (
	"context"
	"fmt"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/pkg/database"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedQuiz(t *testing.T, db *gorm.DB, oneAttempt bool, questions int) *model.Quiz {
	t.Helper()
	var existing int64
	require.NoError(t, db.Model(&model.Subject{}).Count(&existing).Error)
	subject := &model.Subject{Name: fmt.Sprintf("Physics %d", existing+1), Description: "mechanics"}
	require.NoError(t, db.Create(subject).Error)
	chapter := &model.Chapter{SubjectID: subject.ID, Name: "Motion", Description: "kinematics"}
	require.NoError(t, db.Create(chapter).Error)

	quiz := &model.Quiz{
		Name:           "Motion basics",
		Description:    "warm up",
		ChapterID:      chapter.ID,
		OneAttemptOnly: oneAttempt,
	}
	for i := 0; i < questions; i++ {
		quiz.Questions = append(quiz.Questions, model.Question{
			Text:    "Unit of force?",
			Options: []model.Option{{Text: "Newton", IsCorrect: true}, {Text: "Joule"}},
		})
	}
	repo := NewQuizRepository(db)
	require.NoError(t, repo.Create(context.Background(), quiz))
	loaded, err := repo.GetQuiz(context.Background(), quiz.ID)
	require.NoError(t, err)
	return loaded
}

func seedStudent(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	u := &model.User{
		Name:          "asha",
		Email:         "asha@example.com",
		Password:      "x",
		Dob:           time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Qualification: "B.Sc",
		Role:          model.Student,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func newResult(quiz *model.Quiz, userID uint) *model.QuizResult {
	result := &model.QuizResult{
		QuizID:      quiz.ID,
		UserID:      userID,
		TotalMarks:  len(quiz.Questions),
		CompletedAt: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}
	if quiz.OneAttemptOnly {
		result.AttemptGuard = model.AttemptGuardKey(userID, quiz.ID)
	}
	for _, q := range quiz.Questions {
		result.UserAnswers = append(result.UserAnswers, model.UserAnswer{QuestionID: q.ID, SelectedOption: q.CorrectOptionID(), IsCorrect: true})
		result.MarksScored++
	}
	return result
}

func openDB(t *testing.T) *gorm.DB {
	return database.OpenTestDB(t)
}
