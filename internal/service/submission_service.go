package service

import (
	"context"
	"errors"
	"fmt"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/util"
	"kwizzy_backend/pkg/cache"
	"kwizzy_backend/pkg/clock"
	"kwizzy_backend/pkg/logger"
	"kwizzy_backend/pkg/monitoring"
	"kwizzy_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuizStore 提交流程只需要读取测验
type QuizStore interface {
	GetQuiz(ctx context.Context, id uint) (*model.Quiz, error)
}

// ResultStore 提交流程写入成绩
type ResultStore interface {
	HasPriorResult(ctx context.Context, userID, quizID uint) (bool, error)
	CreateWithAnswers(ctx context.Context, result *model.QuizResult) error
}

type SubmitAnswer struct {
	QuestionID       uint  `json:"question_id" binding:"required"`
	SelectedOptionID *uint `json:"selected_option_id"`
}

// swagger:model SubmitRequest
type SubmitRequest struct {
	QuizID  uint           `json:"quiz_id" binding:"required"`
	Answers []SubmitAnswer `json:"answers" binding:"dive"`
}

type AnswerReport struct {
	QuestionID       uint  `json:"question_id"`
	SelectedOptionID *uint `json:"selected_option_id"`
	IsCorrect        bool  `json:"is_correct"`
	CorrectOptionID  *uint `json:"correct_option_id"`
}

// swagger:model SubmissionReport
type SubmissionReport struct {
	QuizID               uint           `json:"quiz_id"`
	QuizName             string         `json:"quiz_name"`
	QuizDescription      string         `json:"quiz_description"`
	TotalQuestions       int            `json:"total_questions"`
	MarksScored          int            `json:"marks_scored"`
	TotalMarks           int            `json:"total_marks"`
	Percentage           float64        `json:"percentage"`
	ResultID             uint           `json:"result_id"`
	CompletedAt          time.Time      `json:"completed_at"`
	CompletedAtFormatted string         `json:"completed_at_formatted"`
	UserAnswers          []AnswerReport `json:"user_answers"`
}

type SubmissionService struct {
	Quizzes QuizStore
	Results ResultStore
	Clock   clock.Clock
	Cache   cache.Cache
}

func NewSubmissionService(quizzes QuizStore, results ResultStore, clk clock.Clock, c cache.Cache) *SubmissionService {
	return &SubmissionService{
		Quizzes: quizzes,
		Results: results,
		Clock:   clk,
		Cache:   c,
	}
}

// Submit 校验、评分并原子写入一次测验提交
func (s *SubmissionService) Submit(ctx context.Context, userID uint, req SubmitRequest) (*SubmissionReport, error) {
	ctx, span := tracing.Tracer.Start(ctx, "SubmissionService.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("quiz.id", int64(req.QuizID)),
		attribute.Int64("user.id", int64(userID)),
	)

	report, err := s.submit(ctx, userID, req)
	monitoring.QuizSubmissions.WithLabelValues(submissionOutcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Log.Info("Quiz submitted",
		zap.Uint("user_id", userID),
		zap.Uint("quiz_id", req.QuizID),
		zap.Uint("result_id", report.ResultID),
		zap.Int("marks_scored", report.MarksScored),
		zap.Int("total_marks", report.TotalMarks),
	)
	return report, nil
}

func (s *SubmissionService) submit(ctx context.Context, userID uint, req SubmitRequest) (*SubmissionReport, error) {
	quiz, err := s.Quizzes.GetQuiz(ctx, req.QuizID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load quiz %d: %w", req.QuizID, err)
	}

	now := s.Clock.Now()
	if !quiz.IsAvailable(now) {
		return nil, &util.QuizUnavailableError{Deadline: quiz.Deadline}
	}

	if quiz.OneAttemptOnly {
		attempted, err := s.Results.HasPriorResult(ctx, userID, quiz.ID)
		if err != nil {
			return nil, fmt.Errorf("check prior result: %w", err)
		}
		if attempted {
			return nil, util.ErrAlreadyAttempted
		}
	}

	selected, err := indexAnswers(quiz, req.Answers)
	if err != nil {
		return nil, err
	}

	result := &model.QuizResult{
		QuizID:      quiz.ID,
		UserID:      userID,
		TotalMarks:  len(quiz.Questions),
		CompletedAt: now,
		UserAnswers: make([]model.UserAnswer, 0, len(quiz.Questions)),
	}
	if quiz.OneAttemptOnly {
		result.AttemptGuard = model.AttemptGuardKey(userID, quiz.ID)
	}

	answers := make([]AnswerReport, 0, len(quiz.Questions))
	for i := range quiz.Questions {
		question := &quiz.Questions[i]
		choice := selected[question.ID]
		correct := question.CorrectOptionID()
		isCorrect := choice != nil && correct != nil && *choice == *correct
		if isCorrect {
			result.MarksScored++
		}

		result.UserAnswers = append(result.UserAnswers, model.UserAnswer{
			QuestionID:     question.ID,
			SelectedOption: choice,
			IsCorrect:      isCorrect,
		})
		answers = append(answers, AnswerReport{
			QuestionID:       question.ID,
			SelectedOptionID: choice,
			IsCorrect:        isCorrect,
			CorrectOptionID:  correct,
		})
	}

	if err := s.Results.CreateWithAnswers(ctx, result); err != nil {
		return nil, err
	}
	invalidateUserResults(ctx, s.Cache, userID)

	completedAt := result.CompletedAt.In(s.Clock.Location())
	return &SubmissionReport{
		QuizID:               quiz.ID,
		QuizName:             quiz.Name,
		QuizDescription:      quiz.Description,
		TotalQuestions:       len(quiz.Questions),
		MarksScored:          result.MarksScored,
		TotalMarks:           result.TotalMarks,
		Percentage:           util.Percentage(result.MarksScored, result.TotalMarks),
		ResultID:             result.ID,
		CompletedAt:          completedAt,
		CompletedAtFormatted: completedAt.Format(util.ReportFormat),
		UserAnswers:          answers,
	}, nil
}

// indexAnswers 按题目 id 收集选项；不属于该测验或重复作答的题目使整个提交无效
func indexAnswers(quiz *model.Quiz, answers []SubmitAnswer) (map[uint]*uint, error) {
	inQuiz := make(map[uint]bool, len(quiz.Questions))
	for _, q := range quiz.Questions {
		inQuiz[q.ID] = true
	}

	selected := make(map[uint]*uint, len(answers))
	for _, a := range answers {
		if !inQuiz[a.QuestionID] {
			return nil, fmt.Errorf("%w: question %d", util.ErrInvalidQuestion, a.QuestionID)
		}
		if _, dup := selected[a.QuestionID]; dup {
			return nil, fmt.Errorf("%w: question %d", util.ErrDuplicateAnswer, a.QuestionID)
		}
		selected[a.QuestionID] = a.SelectedOptionID
	}
	return selected, nil
}

func submissionOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, util.ErrQuizNotFound):
		return "not_found"
	case errors.Is(err, util.ErrQuizUnavailable):
		return "unavailable"
	case errors.Is(err, util.ErrAlreadyAttempted):
		return "already_attempted"
	case errors.Is(err, util.ErrInvalidQuestion), errors.Is(err, util.ErrDuplicateAnswer):
		return "invalid"
	default:
		return "error"
	}
}
