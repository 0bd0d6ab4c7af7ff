package repository

import (
	"context"
	"errors"
	"kwizzy_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type PerformanceRepository struct {
	DB *gorm.DB
}

func NewPerformanceRepository(db *gorm.DB) *PerformanceRepository {
	return &PerformanceRepository{DB: db}
}

type ResultTotals struct {
	Attempts    int64
	MarksScored int64
	TotalMarks  int64
}

type RecentActivity struct {
	ResultID    uint      `json:"result_id"`
	QuizID      uint      `json:"quiz_id"`
	QuizName    string    `json:"quiz_name"`
	MarksScored int       `json:"marks_scored"`
	TotalMarks  int       `json:"total_marks"`
	CompletedAt time.Time `json:"completed_at"`
}

type SubjectScore struct {
	SubjectID uint    `json:"subject_id"`
	Subject   string  `json:"subject"`
	Average   float64 `json:"average"`
	Attempts  int64   `json:"attempts"`
}

func (r *PerformanceRepository) Totals(ctx context.Context, userID uint) (*ResultTotals, error) {
	var totals ResultTotals
	err := r.DB.WithContext(ctx).Model(&model.QuizResult{}).
		Select("COUNT(*) AS attempts, COALESCE(SUM(marks_scored), 0) AS marks_scored, COALESCE(SUM(total_marks), 0) AS total_marks").
		Where("user_id = ?", userID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

// LastActive 最近一次提交时间，没有记录时返回 nil
func (r *PerformanceRepository) LastActive(ctx context.Context, userID uint) (*time.Time, error) {
	var latest model.QuizResult
	err := r.DB.WithContext(ctx).
		Select("completed_at").
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		First(&latest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &latest.CompletedAt, nil
}

func (r *PerformanceRepository) Recent(ctx context.Context, userID uint, limit int) ([]RecentActivity, error) {
	var rows []RecentActivity
	err := r.DB.WithContext(ctx).Model(&model.QuizResult{}).
		Select(`quiz_results.id AS result_id,
			quiz_results.quiz_id AS quiz_id,
			quizzes.name AS quiz_name,
			quiz_results.marks_scored AS marks_scored,
			quiz_results.total_marks AS total_marks,
			quiz_results.completed_at AS completed_at`).
		Joins("JOIN quizzes ON quizzes.id = quiz_results.quiz_id").
		Where("quiz_results.user_id = ?", userID).
		Order("quiz_results.completed_at DESC").
		Order("quiz_results.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// BySubject 按科目聚合平均得分率
func (r *PerformanceRepository) BySubject(ctx context.Context, userID uint) ([]SubjectScore, error) {
	var rows []SubjectScore
	err := r.DB.WithContext(ctx).Model(&model.QuizResult{}).
		Select(`subjects.id AS subject_id,
			subjects.name AS subject,
			AVG(CASE WHEN quiz_results.total_marks > 0
				THEN quiz_results.marks_scored * 100.0 / quiz_results.total_marks
				ELSE 0 END) AS average,
			COUNT(quiz_results.id) AS attempts`).
		Joins("JOIN quizzes ON quizzes.id = quiz_results.quiz_id").
		Joins("JOIN chapters ON chapters.id = quizzes.chapter_id").
		Joins("JOIN subjects ON subjects.id = chapters.subject_id").
		Where("quiz_results.user_id = ?", userID).
		Group("subjects.id, subjects.name").
		Order("subjects.name").
		Scan(&rows).Error
	return rows, err
}
