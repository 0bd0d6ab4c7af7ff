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
	"kwizzy_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// swagger:model ResultSummary
type ResultSummary struct {
	ResultID             uint      `json:"result_id"`
	QuizID               uint      `json:"quiz_id"`
	QuizName             string    `json:"quiz_name"`
	UserID               uint      `json:"user_id"`
	MarksScored          int       `json:"marks_scored"`
	TotalMarks           int       `json:"total_marks"`
	Percentage           float64   `json:"percentage"`
	CompletedAt          time.Time `json:"completed_at"`
	CompletedAtFormatted string    `json:"completed_at_formatted"`
}

// swagger:model ResultDetail
type ResultDetail struct {
	ResultSummary
	QuizDescription string         `json:"quiz_description"`
	TotalQuestions  int            `json:"total_questions"`
	UserAnswers     []AnswerReport `json:"user_answers"`
}

type QuizResultService struct {
	ResultRepo *repository.QuizResultRepository
	QuizRepo   *repository.QuizRepository
	Clock      clock.Clock
	Cache      cache.Cache
	CacheTTL   time.Duration
}

func NewQuizResultService(resultRepo *repository.QuizResultRepository, quizRepo *repository.QuizRepository, clk clock.Clock, c cache.Cache, ttl time.Duration) *QuizResultService {
	return &QuizResultService{
		ResultRepo: resultRepo,
		QuizRepo:   quizRepo,
		Clock:      clk,
		Cache:      c,
		CacheTTL:   ttl,
	}
}

// GetResult 只有成绩所有者可以查看
func (s *QuizResultService) GetResult(ctx context.Context, resultID, requestingUserID uint) (*ResultDetail, error) {
	result, err := s.findResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result.UserID != requestingUserID {
		return nil, util.ErrPermissionDenied
	}
	return s.buildDetail(ctx, result)
}

// GetAnyResult 管理端查看任意成绩
func (s *QuizResultService) GetAnyResult(ctx context.Context, resultID uint) (*ResultDetail, error) {
	result, err := s.findResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, result)
}

func (s *QuizResultService) findResult(ctx context.Context, resultID uint) (*model.QuizResult, error) {
	result, err := s.ResultRepo.FindByID(ctx, resultID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load result %d: %w", resultID, err)
	}
	return result, nil
}

// ListResults 按完成时间倒序
func (s *QuizResultService) ListResults(ctx context.Context, userID uint) ([]ResultSummary, error) {
	key := userResultsCacheKey(userID)
	var cached []ResultSummary
	if readCache(ctx, s.Cache, key, &cached) {
		return cached, nil
	}

	results, err := s.ResultRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	summaries := make([]ResultSummary, len(results))
	for i := range results {
		summaries[i] = s.summarize(&results[i])
	}
	writeCache(ctx, s.Cache, key, summaries, s.CacheTTL)
	return summaries, nil
}

func (s *QuizResultService) ListAll(ctx context.Context, filter repository.ResultFilter) ([]ResultSummary, int64, error) {
	filter.Normalize()
	results, total, err := s.ResultRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}
	summaries := make([]ResultSummary, len(results))
	for i := range results {
		summaries[i] = s.summarize(&results[i])
	}
	return summaries, total, nil
}

// DeleteResult 管理员修正成绩：连同作答记录删除，单次作答测验可以重新作答
func (s *QuizResultService) DeleteResult(ctx context.Context, resultID uint) error {
	result, err := s.ResultRepo.Delete(ctx, resultID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrResultNotFound
	}
	if err != nil {
		return fmt.Errorf("delete result %d: %w", resultID, err)
	}
	invalidateUserResults(ctx, s.Cache, result.UserID)

	logger.Log.Info("Quiz result deleted",
		zap.Uint("result_id", resultID),
		zap.Uint("user_id", result.UserID),
		zap.Uint("quiz_id", result.QuizID),
	)
	return nil
}

func (s *QuizResultService) summarize(result *model.QuizResult) ResultSummary {
	completedAt := result.CompletedAt.In(s.Clock.Location())
	summary := ResultSummary{
		ResultID:             result.ID,
		QuizID:               result.QuizID,
		UserID:               result.UserID,
		MarksScored:          result.MarksScored,
		TotalMarks:           result.TotalMarks,
		Percentage:           util.Percentage(result.MarksScored, result.TotalMarks),
		CompletedAt:          completedAt,
		CompletedAtFormatted: completedAt.Format(util.ReportFormat),
	}
	if result.Quiz != nil {
		summary.QuizName = result.Quiz.Name
	}
	return summary
}

func (s *QuizResultService) buildDetail(ctx context.Context, result *model.QuizResult) (*ResultDetail, error) {
	detail := &ResultDetail{ResultSummary: s.summarize(result)}

	quiz, err := s.QuizRepo.GetQuiz(ctx, result.QuizID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load quiz %d: %w", result.QuizID, err)
	}

	correctByQuestion := make(map[uint]*uint)
	if quiz != nil {
		detail.QuizDescription = quiz.Description
		detail.TotalQuestions = len(quiz.Questions)
		for i := range quiz.Questions {
			correctByQuestion[quiz.Questions[i].ID] = quiz.Questions[i].CorrectOptionID()
		}
	}

	detail.UserAnswers = make([]AnswerReport, len(result.UserAnswers))
	for i, a := range result.UserAnswers {
		detail.UserAnswers[i] = AnswerReport{
			QuestionID:       a.QuestionID,
			SelectedOptionID: a.SelectedOption,
			IsCorrect:        a.IsCorrect,
			CorrectOptionID:  correctByQuestion[a.QuestionID],
		}
	}
	return detail, nil
}
