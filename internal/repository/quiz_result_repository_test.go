package repository

import (
	"context"
	"errors"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countRows(t *testing.T, db *gorm.DB, value interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(value).Count(&n).Error)
	return n
}

func TestCreateWithAnswersRollsBackOnAnswerFailure(t *testing.T) {
	db := openDB(t)
	quiz := seedQuiz(t, db, true, 3)
	user := seedStudent(t, db)

	// 成绩行写入后，作答记录插入失败
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_user_answers", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "user_answers" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	repo := NewQuizResultRepository(db)
	err = repo.CreateWithAnswers(context.Background(), newResult(quiz, user.ID))
	require.ErrorIs(t, err, util.ErrPersistence)

	assert.Equal(t, int64(0), countRows(t, db, &model.QuizResult{}))
	assert.Equal(t, int64(0), countRows(t, db, &model.UserAnswer{}))

	// 恢复后同一用户仍可提交，说明 attempt_guard 没有残留
	require.NoError(t, db.Callback().Create().Remove("test:fail_user_answers"))
	require.NoError(t, repo.CreateWithAnswers(context.Background(), newResult(quiz, user.ID)))
	assert.Equal(t, int64(1), countRows(t, db, &model.QuizResult{}))
	assert.Equal(t, int64(3), countRows(t, db, &model.UserAnswer{}))
}

func TestCreateWithAnswersGuardsSingleAttempt(t *testing.T) {
	db := openDB(t)
	quiz := seedQuiz(t, db, true, 2)
	user := seedStudent(t, db)
	repo := NewQuizResultRepository(db)

	require.NoError(t, repo.CreateWithAnswers(context.Background(), newResult(quiz, user.ID)))
	err := repo.CreateWithAnswers(context.Background(), newResult(quiz, user.ID))
	assert.ErrorIs(t, err, util.ErrAlreadyAttempted)

	assert.Equal(t, int64(1), countRows(t, db, &model.QuizResult{}))
	assert.Equal(t, int64(2), countRows(t, db, &model.UserAnswer{}))
}
