package service

import (
	"context"
	"errors"
	"fmt"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/repository"
	"kwizzy_backend/internal/util"
	"kwizzy_backend/pkg/cache"
	"time"

	"gorm.io/gorm"
)

type OptionInput struct {
	Text      string `json:"text" binding:"required,notblank"`
	IsCorrect bool   `json:"is_correct"`
}

// swagger:model QuestionInput
type QuestionInput struct {
	Title   string        `json:"title" binding:"max=100"`
	Text    string        `json:"text" binding:"required,notblank"`
	Options []OptionInput `json:"options" binding:"dive"`
}

// swagger:model QuizInput
type QuizInput struct {
	Name           string          `json:"name" binding:"required,notblank,max=50"`
	Description    string          `json:"description" binding:"required,notblank,max=255"`
	ChapterID      uint            `json:"chapter_id" binding:"required"`
	TimeDuration   int             `json:"time_duration" binding:"gte=0"`
	Deadline       *time.Time      `json:"deadline"`
	OneAttemptOnly *bool           `json:"one_attempt_only"`
	Questions      []QuestionInput `json:"questions" binding:"dive"`
}

// OptionView is_correct 只对管理员显示
type OptionView struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type QuestionView struct {
	ID      uint         `json:"id"`
	Title   string       `json:"title"`
	Text    string       `json:"text"`
	Options []OptionView `json:"options"`
}

// swagger:model QuizView
type QuizView struct {
	ID             uint           `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	ChapterID      uint           `json:"chapter_id"`
	TimeDuration   int            `json:"time_duration"`
	Deadline       *time.Time     `json:"deadline"`
	OneAttemptOnly bool           `json:"one_attempt_only"`
	QuestionCount  int            `json:"question_count"`
	Questions      []QuestionView `json:"questions"`
}

type QuizService struct {
	QuizRepo    *repository.QuizRepository
	ChapterRepo *repository.ChapterRepository
	Cache       cache.Cache
	CacheTTL    time.Duration
}

func NewQuizService(quizRepo *repository.QuizRepository, chapterRepo *repository.ChapterRepository, c cache.Cache, ttl time.Duration) *QuizService {
	return &QuizService{
		QuizRepo:    quizRepo,
		ChapterRepo: chapterRepo,
		Cache:       c,
		CacheTTL:    ttl,
	}
}

// ValidateOptions 至少两个选项且恰好一个正确
func ValidateOptions(options []OptionInput) error {
	if len(options) < 2 {
		return fmt.Errorf("%w: got %d options", util.ErrInvalidOptions, len(options))
	}
	correct := 0
	for _, o := range options {
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("%w: got %d correct options", util.ErrInvalidOptions, correct)
	}
	return nil
}

func buildQuestion(input QuestionInput) (model.Question, error) {
	if err := ValidateOptions(input.Options); err != nil {
		return model.Question{}, err
	}
	question := model.Question{
		Title:   input.Title,
		Text:    input.Text,
		Options: make([]model.Option, len(input.Options)),
	}
	for i, o := range input.Options {
		question.Options[i] = model.Option{Text: o.Text, IsCorrect: o.IsCorrect}
	}
	return question, nil
}

func buildQuestions(inputs []QuestionInput) ([]model.Question, error) {
	questions := make([]model.Question, 0, len(inputs))
	for i, in := range inputs {
		q, err := buildQuestion(in)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (s *QuizService) ensureChapter(ctx context.Context, chapterID uint) error {
	_, err := s.ChapterRepo.FindByID(ctx, chapterID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrChapterNotFound
	}
	return err
}

func (s *QuizService) Create(ctx context.Context, input QuizInput) (*model.Quiz, error) {
	if err := s.ensureChapter(ctx, input.ChapterID); err != nil {
		return nil, err
	}
	questions, err := buildQuestions(input.Questions)
	if err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		Name:           input.Name,
		Description:    input.Description,
		ChapterID:      input.ChapterID,
		TimeDuration:   input.TimeDuration,
		Deadline:       input.Deadline,
		OneAttemptOnly: true,
		Questions:      questions,
	}
	if input.OneAttemptOnly != nil {
		quiz.OneAttemptOnly = *input.OneAttemptOnly
	}

	if err := s.QuizRepo.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("create quiz: %w", err)
	}
	return quiz, nil
}

// Update 修改基本信息；传入 questions 时整体替换题目，已有成绩时拒绝
func (s *QuizService) Update(ctx context.Context, id uint, input QuizInput) (*model.Quiz, error) {
	existing, err := s.QuizRepo.GetQuiz(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	if input.ChapterID != existing.ChapterID {
		if err := s.ensureChapter(ctx, input.ChapterID); err != nil {
			return nil, err
		}
	}

	var questions []model.Question
	if input.Questions != nil {
		if questions, err = buildQuestions(input.Questions); err != nil {
			return nil, err
		}
	}

	existing.Name = input.Name
	existing.Description = input.Description
	existing.ChapterID = input.ChapterID
	existing.TimeDuration = input.TimeDuration
	existing.Deadline = input.Deadline
	if input.OneAttemptOnly != nil {
		existing.OneAttemptOnly = *input.OneAttemptOnly
	}

	if input.Questions != nil {
		if err := s.QuizRepo.ReplaceQuestions(ctx, id, questions); err != nil {
			return nil, err
		}
	}
	if err := s.QuizRepo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	invalidateQuizzes(ctx, s.Cache, id)

	return s.QuizRepo.GetQuiz(ctx, id)
}

func (s *QuizService) Delete(ctx context.Context, id uint) error {
	err := s.QuizRepo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrQuizNotFound
	}
	if err != nil {
		return err
	}
	invalidateQuizzes(ctx, s.Cache, id)
	return nil
}

func (s *QuizService) List(ctx context.Context, chapterID uint, search string) ([]repository.QuizListItem, error) {
	return s.QuizRepo.List(ctx, chapterID, search)
}

// Get 读取测验，includeAnswers 为 true 时返回正确选项
func (s *QuizService) Get(ctx context.Context, id uint, includeAnswers bool) (*QuizView, error) {
	quiz, err := s.loadQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	return toQuizView(quiz, includeAnswers), nil
}

func (s *QuizService) loadQuiz(ctx context.Context, id uint) (*model.Quiz, error) {
	key := quizCacheKey(id)
	var cached model.Quiz
	if readCache(ctx, s.Cache, key, &cached) {
		return &cached, nil
	}

	quiz, err := s.QuizRepo.GetQuiz(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}
	writeCache(ctx, s.Cache, key, quiz, s.CacheTTL)
	return quiz, nil
}

func toQuizView(quiz *model.Quiz, includeAnswers bool) *QuizView {
	view := &QuizView{
		ID:             quiz.ID,
		Name:           quiz.Name,
		Description:    quiz.Description,
		ChapterID:      quiz.ChapterID,
		TimeDuration:   quiz.TimeDuration,
		Deadline:       quiz.Deadline,
		OneAttemptOnly: quiz.OneAttemptOnly,
		QuestionCount:  len(quiz.Questions),
		Questions:      make([]QuestionView, len(quiz.Questions)),
	}
	for i, q := range quiz.Questions {
		qv := QuestionView{
			ID:      q.ID,
			Title:   q.Title,
			Text:    q.Text,
			Options: make([]OptionView, len(q.Options)),
		}
		for j, o := range q.Options {
			ov := OptionView{ID: o.ID, Text: o.Text}
			if includeAnswers {
				correct := o.IsCorrect
				ov.IsCorrect = &correct
			}
			qv.Options[j] = ov
		}
		view.Questions[i] = qv
	}
	return view
}

func (s *QuizService) AddQuestion(ctx context.Context, quizID uint, input QuestionInput) (*model.Question, error) {
	question, err := buildQuestion(input)
	if err != nil {
		return nil, err
	}
	question.QuizID = quizID

	if err := s.QuizRepo.CreateQuestion(ctx, &question); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, fmt.Errorf("create question: %w", err)
	}
	invalidateQuizzes(ctx, s.Cache, quizID)
	return &question, nil
}

func (s *QuizService) GetQuestion(ctx context.Context, id uint) (*model.Question, error) {
	question, err := s.QuizRepo.GetQuestion(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuestionNotFound
	}
	return question, err
}

// UpdateQuestion options 为空时只更新题干
func (s *QuizService) UpdateQuestion(ctx context.Context, id uint, input QuestionInput) (*model.Question, error) {
	question, err := s.GetQuestion(ctx, id)
	if err != nil {
		return nil, err
	}

	var options []model.Option
	if len(input.Options) > 0 {
		built, err := buildQuestion(input)
		if err != nil {
			return nil, err
		}
		options = built.Options
	}

	question.Title = input.Title
	question.Text = input.Text
	if err := s.QuizRepo.UpdateQuestion(ctx, question, options); err != nil {
		if errors.Is(err, util.ErrQuizHasAttempts) {
			return nil, err
		}
		return nil, fmt.Errorf("update question: %w", err)
	}
	invalidateQuizzes(ctx, s.Cache, question.QuizID)
	return s.GetQuestion(ctx, id)
}

func (s *QuizService) DeleteQuestion(ctx context.Context, id uint) error {
	question, err := s.GetQuestion(ctx, id)
	if err != nil {
		return err
	}
	if err := s.QuizRepo.DeleteQuestion(ctx, question); err != nil {
		return err
	}
	invalidateQuizzes(ctx, s.Cache, question.QuizID)
	return nil
}
