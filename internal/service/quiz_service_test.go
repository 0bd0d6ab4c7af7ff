package service

import (
	"context"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/repository"
	"kwizzy_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOptions(t *testing.T) {
	cases := []struct {
		name    string
		options []OptionInput
		ok      bool
	}{
		{"one option", []OptionInput{{Text: "a", IsCorrect: true}}, false},
		{"no correct", []OptionInput{{Text: "a"}, {Text: "b"}}, false},
		{"two correct", []OptionInput{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}}, false},
		{"valid", []OptionInput{{Text: "a"}, {Text: "b", IsCorrect: true}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOptions(tc.options)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, util.ErrInvalidOptions)
			}
		})
	}
}

func newQuizService(env *testEnv) *QuizService {
	return NewQuizService(env.quizRepo, repository.NewChapterRepository(env.db), env.cache, time.Minute)
}

func sampleQuestion(text string) QuestionInput {
	return QuestionInput{
		Text: text,
		Options: []OptionInput{
			{Text: "yes", IsCorrect: true},
			{Text: "no"},
		},
	}
}

func TestQuizServiceCreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newQuizService(env)
	chapter := env.createChapter(t, "Maths")
	multi := false

	quiz, err := svc.Create(ctx, QuizInput{
		Name:           "Fractions",
		Description:    "halves and quarters",
		ChapterID:      chapter.ID,
		OneAttemptOnly: &multi,
		Questions:      []QuestionInput{sampleQuestion("1/2 > 1/4?"), sampleQuestion("1/3 < 1/2?")},
	})
	require.NoError(t, err)

	view, err := svc.Get(ctx, quiz.ID, false)
	require.NoError(t, err)
	assert.False(t, view.OneAttemptOnly)
	assert.Equal(t, 2, view.QuestionCount)
	assert.Nil(t, view.Questions[0].Options[0].IsCorrect)

	adminView, err := svc.Get(ctx, quiz.ID, true)
	require.NoError(t, err)
	require.NotNil(t, adminView.Questions[0].Options[0].IsCorrect)
	assert.True(t, *adminView.Questions[0].Options[0].IsCorrect)

	items, err := svc.List(ctx, chapter.ID, "Frac")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].QuestionCount)

	_, err = svc.Create(ctx, QuizInput{Name: "x", Description: "y", ChapterID: 999})
	assert.ErrorIs(t, err, util.ErrChapterNotFound)

	_, err = svc.Create(ctx, QuizInput{
		Name: "bad", Description: "bad", ChapterID: chapter.ID,
		Questions: []QuestionInput{{Text: "?", Options: []OptionInput{{Text: "only", IsCorrect: true}}}},
	})
	assert.ErrorIs(t, err, util.ErrInvalidOptions)
}

func TestQuizAttemptPolicyFromCreate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newQuizService(env)
	chapter := env.createChapter(t, "Statistics")
	user := env.createUser(t, "ravi", model.Student)
	multi := false

	practice, err := svc.Create(ctx, QuizInput{
		Name:           "Mean and median",
		Description:    "practice round",
		ChapterID:      chapter.ID,
		OneAttemptOnly: &multi,
		Questions:      []QuestionInput{sampleQuestion("Is the median robust?")},
	})
	require.NoError(t, err)

	stored, err := env.quizRepo.GetQuiz(ctx, practice.ID)
	require.NoError(t, err)
	assert.False(t, stored.OneAttemptOnly)

	for i := 0; i < 2; i++ {
		_, err := env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: practice.ID})
		require.NoError(t, err, "attempt %d", i+1)
	}
	assert.Equal(t, int64(2), env.countResults(t, user.ID, practice.ID))

	// 未指定时默认单次作答
	exam, err := svc.Create(ctx, QuizInput{
		Name:        "Final",
		Description: "graded",
		ChapterID:   chapter.ID,
		Questions:   []QuestionInput{sampleQuestion("Is variance negative?")},
	})
	require.NoError(t, err)
	_, err = env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: exam.ID})
	require.NoError(t, err)
	_, err = env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: exam.ID})
	assert.ErrorIs(t, err, util.ErrAlreadyAttempted)
}

func TestQuizCacheInvalidatedOnQuestionWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newQuizService(env)
	quiz := env.createQuiz(t, env.createChapter(t, "Physics").ID, 1, true, nil)

	view, err := svc.Get(ctx, quiz.ID, false)
	require.NoError(t, err)
	require.Equal(t, 1, view.QuestionCount)

	_, err = svc.AddQuestion(ctx, quiz.ID, sampleQuestion("Is light a wave?"))
	require.NoError(t, err)

	view, err = svc.Get(ctx, quiz.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, view.QuestionCount)

	question, err := svc.UpdateQuestion(ctx, quiz.Questions[0].ID, QuestionInput{Text: "Renamed"})
	require.NoError(t, err)
	assert.Len(t, question.Options, 3)

	view, err = svc.Get(ctx, quiz.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", view.Questions[0].Text)
}

func TestQuizWithAttemptsIsProtected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newQuizService(env)
	user := env.createUser(t, "asha", model.Student)
	quiz := env.createQuiz(t, env.createChapter(t, "Chemistry").ID, 2, true, nil)

	_, err := env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: quiz.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, quiz.ID), util.ErrQuizHasAttempts)
	assert.ErrorIs(t, svc.DeleteQuestion(ctx, quiz.Questions[0].ID), util.ErrQuizHasAttempts)

	_, err = svc.Update(ctx, quiz.ID, QuizInput{
		Name: quiz.Name, Description: quiz.Description, ChapterID: quiz.ChapterID,
		Questions: []QuestionInput{sampleQuestion("new")},
	})
	assert.ErrorIs(t, err, util.ErrQuizHasAttempts)

	_, err = svc.UpdateQuestion(ctx, quiz.Questions[0].ID, sampleQuestion("new options"))
	assert.ErrorIs(t, err, util.ErrQuizHasAttempts)

	// 基本信息仍然可以修改
	deadline := env.clock.Now().Add(48 * time.Hour)
	updated, err := svc.Update(ctx, quiz.ID, QuizInput{
		Name: "Renamed", Description: quiz.Description, ChapterID: quiz.ChapterID, Deadline: &deadline,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Len(t, updated.Questions, 2)
}

func TestQuizDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newQuizService(env)
	quiz := env.createQuiz(t, env.createChapter(t, "Biology").ID, 3, true, nil)

	require.NoError(t, svc.Delete(ctx, quiz.ID))

	var questions, options int64
	env.db.Model(&model.Question{}).Count(&questions)
	env.db.Model(&model.Option{}).Count(&options)
	assert.Zero(t, questions)
	assert.Zero(t, options)

	_, err := svc.Get(ctx, quiz.ID, false)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, quiz.ID), util.ErrQuizNotFound)
}

func TestSubjectAndChapterCascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	subjects := NewSubjectService(repository.NewSubjectRepository(env.db), env.cache)
	chapters := NewChapterService(repository.NewChapterRepository(env.db), repository.NewSubjectRepository(env.db), env.cache)

	subject, err := subjects.Create(ctx, SubjectInput{Name: "Maths", Description: "numbers"})
	require.NoError(t, err)
	_, err = subjects.Create(ctx, SubjectInput{Name: "Maths", Description: "again"})
	assert.ErrorIs(t, err, util.ErrSubjectExists)

	chapter, err := chapters.Create(ctx, ChapterInput{SubjectID: subject.ID, Name: "Algebra", Description: "x and y"})
	require.NoError(t, err)
	_, err = chapters.Create(ctx, ChapterInput{SubjectID: subject.ID, Name: "Algebra", Description: "dup"})
	assert.ErrorIs(t, err, util.ErrChapterExists)
	_, err = chapters.Create(ctx, ChapterInput{SubjectID: 999, Name: "Lost", Description: "none"})
	assert.ErrorIs(t, err, util.ErrSubjectNotFound)

	quiz := env.createQuiz(t, chapter.ID, 2, true, nil)
	user := env.createUser(t, "ravi", model.Student)
	report, err := env.submission.Submit(ctx, user.ID, SubmitRequest{QuizID: quiz.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, subjects.Delete(ctx, subject.ID), util.ErrQuizHasAttempts)
	assert.ErrorIs(t, chapters.Delete(ctx, chapter.ID), util.ErrQuizHasAttempts)

	require.NoError(t, env.results.DeleteResult(ctx, report.ResultID))
	require.NoError(t, subjects.Delete(ctx, subject.ID))

	var remaining int64
	env.db.Model(&model.Chapter{}).Count(&remaining)
	assert.Zero(t, remaining)
	env.db.Model(&model.Quiz{}).Count(&remaining)
	assert.Zero(t, remaining)
	env.db.Model(&model.Option{}).Count(&remaining)
	assert.Zero(t, remaining)

	_, err = subjects.Get(ctx, subject.ID)
	assert.ErrorIs(t, err, util.ErrSubjectNotFound)
}
