package service

import (
	"context"
	"errors"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitScoresAndBlocksSecondAttempt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "asha", model.Student)
	chapter := env.createChapter(t, "Maths")
	quiz := env.createQuiz(t, chapter.ID, 3, true, nil)

	answers := correctAnswers(quiz)
	answers[2].SelectedOptionID = wrongOption(&quiz.Questions[2])

	report, err := env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: quiz.ID, Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, 2, report.MarksScored)
	assert.Equal(t, 3, report.TotalMarks)
	assert.Equal(t, 3, report.TotalQuestions)
	assert.Equal(t, 66.67, report.Percentage)
	assert.Equal(t, quiz.Name, report.QuizName)
	assert.NotZero(t, report.ResultID)
	assert.Equal(t, "10-05-2024 02:30:00 PM IST", report.CompletedAtFormatted)

	require.Len(t, report.UserAnswers, 3)
	assert.True(t, report.UserAnswers[0].IsCorrect)
	assert.False(t, report.UserAnswers[2].IsCorrect)
	assert.Equal(t, quiz.Questions[2].CorrectOptionID(), report.UserAnswers[2].CorrectOptionID)

	_, err = env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: quiz.ID, Answers: answers})
	assert.ErrorIs(t, err, util.ErrAlreadyAttempted)
	assert.Equal(t, int64(1), env.countResults(t, user.ID, quiz.ID))
}

func TestSubmitAllCorrect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "ravi", model.Student)
	quiz := env.createQuiz(t, env.createChapter(t, "Physics").ID, 4, true, nil)

	report, err := env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: quiz.ID, Answers: correctAnswers(quiz)})
	require.NoError(t, err)
	assert.Equal(t, report.TotalMarks, report.MarksScored)
	assert.Equal(t, float64(100), report.Percentage)

	var stored []model.UserAnswer
	require.NoError(t, env.db.Where("result_id = ?", report.ResultID).Find(&stored).Error)
	require.Len(t, stored, 4)
	for _, a := range stored {
		assert.True(t, a.IsCorrect)
	}
}

func TestSubmitTotalMarksIsQuestionCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "meera", model.Student)
	quiz := env.createQuiz(t, env.createChapter(t, "Chemistry").ID, 5, false, nil)

	// 只回答一题，另有一题选项为空
	answers := []SubmitAnswer{
		{QuestionID: quiz.Questions[0].ID, SelectedOptionID: quiz.Questions[0].CorrectOptionID()},
		{QuestionID: quiz.Questions[1].ID},
	}
	report, err := env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: quiz.ID, Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, 1, report.MarksScored)
	assert.Equal(t, 5, report.TotalMarks)
	assert.Equal(t, float64(20), report.Percentage)

	require.Len(t, report.UserAnswers, 5)
	assert.Nil(t, report.UserAnswers[1].SelectedOptionID)
	assert.False(t, report.UserAnswers[1].IsCorrect)
	assert.Nil(t, report.UserAnswers[4].SelectedOptionID)
	assert.Equal(t, int64(5), env.countAnswers(t))
}

func TestSubmitEmptyQuizScoresZero(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "zoya", model.Student)
	quiz := env.createQuiz(t, env.createChapter(t, "Biology").ID, 0, true, nil)

	report, err := env.submission.Submit(context.Background(), user.ID, SubmitRequest{QuizID: quiz.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, report.MarksScored)
	assert.Equal(t, 0, report.TotalMarks)
	assert.Equal(t, float64(0), report.Percentage)
	assert.Empty(t, report.UserAnswers)
}

func TestSubmitAfterDeadline(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "kiran", model.Student)
	yesterday := env.clock.Now().Add(-24 * time.Hour)
	quiz := env.createQuiz(t, env.createChapter(t, "History").ID, 2, true, &yesterday)

	_, err := env.submission.Submit(context.Background(), user.ID, SubmitRequest{QuizID: quiz.ID, Answers: correctAnswers(quiz)})
	require.ErrorIs(t, err, util.ErrQuizUnavailable)

	var unavailable *util.QuizUnavailableError
	require.True(t, errors.As(err, &unavailable))
	require.NotNil(t, unavailable.Deadline)
	assert.True(t, unavailable.Deadline.Equal(yesterday))
	assert.Equal(t, int64(0), env.countResults(t, user.ID, quiz.ID))
}

func TestSubmitAtExactDeadlineIsRejected(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "dev", model.Student)
	deadline := env.clock.Now()
	quiz := env.createQuiz(t, env.createChapter(t, "Civics").ID, 1, false, &deadline)

	_, err := env.submission.Submit(context.Background(), user.ID, SubmitRequest{QuizID: quiz.ID})
	assert.ErrorIs(t, err, util.ErrQuizUnavailable)

	env.clock.Set(deadline.Add(-time.Second))
	_, err = env.submission.Submit(context.Background(), user.ID, SubmitRequest{QuizID: quiz.ID})
	assert.NoError(t, err)
}

func TestSubmitRejectsForeignQuestion(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "neha", model.Student)
	chapter := env.createChapter(t, "Geography")
	quiz := env.createQuiz(t, chapter.ID, 2, true, nil)
	other := env.createQuiz(t, chapter.ID, 1, true, nil)

	answers := append(correctAnswers(quiz), SubmitAnswer{QuestionID: other.Questions[0].ID})
	_, err := env.submission.Submit(context.Background(), user.ID, SubmitRequest{QuizID: quiz.ID, Answers: answers})
	assert.ErrorIs(t, err, util.ErrInvalidQuestion)
	assert.Equal(t, int64(0), env.countResults(t, user.ID, quiz.ID))
	assert.Equal(t, int64(0), env.countAnswers(t))

	// 拒绝后仍然可以正常提交
	_, err = env.submission.Submit(context.Background(), user.ID, SubmitRequest{QuizID: quiz.ID, Answers: correctAnswers(quiz)})
	assert.NoError(t, err)
}

func TestSubmitRejectsDuplicateQuestion(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "arjun", model.Student)
	quiz := env.createQuiz(t, env.createChapter(t, "Economics").ID, 2, true, nil)

	answers := append(correctAnswers(quiz), correctAnswers(quiz)[0])
	_, err := env.submission.Submit(context.Background(), user.ID, SubmitRequest{QuizID: quiz.ID, Answers: answers})
	assert.ErrorIs(t, err, util.ErrDuplicateAnswer)
	assert.Equal(t, int64(0), env.countResults(t, user.ID, quiz.ID))
}

func TestSubmitUnknownQuiz(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "isha", model.Student)

	_, err := env.submission.Submit(context.Background(), user.ID, SubmitRequest{QuizID: 999})
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestSubmitOptionFromOtherQuestionIsWrong(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "tara", model.Student)
	quiz := env.createQuiz(t, env.createChapter(t, "Art").ID, 2, false, nil)

	answers := []SubmitAnswer{
		{QuestionID: quiz.Questions[0].ID, SelectedOptionID: quiz.Questions[1].CorrectOptionID()},
	}
	report, err := env.submission.Submit(context.Background(), user.ID, SubmitRequest{QuizID: quiz.ID, Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, 0, report.MarksScored)
}

func TestSubmitMultiAttemptCreatesIndependentResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "omar", model.Student)
	quiz := env.createQuiz(t, env.createChapter(t, "Music").ID, 2, false, nil)

	first, err := env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: quiz.ID})
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	second, err := env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: quiz.ID, Answers: correctAnswers(quiz)})
	require.NoError(t, err)

	assert.NotEqual(t, first.ResultID, second.ResultID)
	assert.Equal(t, int64(2), env.countResults(t, user.ID, quiz.ID))
}

func TestCreateWithAnswersLosesAttemptRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "lena", model.Student)
	quiz := env.createQuiz(t, env.createChapter(t, "Drama").ID, 1, true, nil)

	winner := &model.QuizResult{
		QuizID:       quiz.ID,
		UserID:       user.ID,
		TotalMarks:   1,
		CompletedAt:  env.clock.Now(),
		AttemptGuard: model.AttemptGuardKey(user.ID, quiz.ID),
	}
	require.NoError(t, env.resultRepo.CreateWithAnswers(ctx, winner))

	loser := &model.QuizResult{
		QuizID:       quiz.ID,
		UserID:       user.ID,
		TotalMarks:   1,
		CompletedAt:  env.clock.Now(),
		AttemptGuard: model.AttemptGuardKey(user.ID, quiz.ID),
		UserAnswers:  []model.UserAnswer{{QuestionID: quiz.Questions[0].ID}},
	}
	err := env.resultRepo.CreateWithAnswers(ctx, loser)
	assert.ErrorIs(t, err, util.ErrAlreadyAttempted)
	assert.Equal(t, int64(1), env.countResults(t, user.ID, quiz.ID))
	assert.Equal(t, int64(0), env.countAnswers(t))
}

type failingResultStore struct{}

func (failingResultStore) HasPriorResult(context.Context, uint, uint) (bool, error) {
	return false, nil
}

func (failingResultStore) CreateWithAnswers(context.Context, *model.QuizResult) error {
	return errors.Join(util.ErrPersistence, errors.New("disk full"))
}

func TestSubmitSurfacesPersistenceError(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "sam", model.Student)
	quiz := env.createQuiz(t, env.createChapter(t, "Law").ID, 1, true, nil)

	svc := NewSubmissionService(env.quizRepo, failingResultStore{}, env.clock, env.cache)
	_, err := svc.Submit(context.Background(), user.ID, SubmitRequest{QuizID: quiz.ID})
	assert.ErrorIs(t, err, util.ErrPersistence)
}

func TestSubmitInvalidatesResultCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "farah", model.Student)
	quiz := env.createQuiz(t, env.createChapter(t, "Logic").ID, 1, false, nil)

	list, err := env.results.ListResults(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: quiz.ID})
	require.NoError(t, err)

	list, err = env.results.ListResults(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
