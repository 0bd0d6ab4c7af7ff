package repository

import (
	"context"
	"errors"
	"fmt"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/util"
	"strings"
	"time"

	"gorm.io/gorm"
)

type QuizResultRepository struct {
	DB *gorm.DB
}

func NewQuizResultRepository(db *gorm.DB) *QuizResultRepository {
	return &QuizResultRepository{DB: db}
}

func (r *QuizResultRepository) HasPriorResult(ctx context.Context, userID, quizID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.QuizResult{}).
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Count(&count).Error
	return count > 0, err
}

// CreateWithAnswers 在一个事务里写入成绩和全部作答记录。
// attempt_guard 唯一索引冲突返回 ErrAlreadyAttempted，其他错误包装为 ErrPersistence
func (r *QuizResultRepository) CreateWithAnswers(ctx context.Context, result *model.QuizResult) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(result).Error
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKey(err) {
		return util.ErrAlreadyAttempted
	}
	return fmt.Errorf("%w: %v", util.ErrPersistence, err)
}

func isDuplicateKey(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}

func (r *QuizResultRepository) FindByID(ctx context.Context, id uint) (*model.QuizResult, error) {
	var result model.QuizResult
	err := r.DB.WithContext(ctx).
		Preload("Quiz").
		Preload("UserAnswers", func(db *gorm.DB) *gorm.DB { return db.Order("user_answers.question_id") }).
		First(&result, id).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListByUser 按完成时间倒序
func (r *QuizResultRepository) ListByUser(ctx context.Context, userID uint) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.DB.WithContext(ctx).
		Preload("Quiz").
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Order("id DESC").
		Find(&results).Error
	return results, err
}

// ResultFilter 管理端成绩查询条件
type ResultFilter struct {
	QuizID uint
	UserID uint
	Page   int
	Limit  int
}

// Normalize 分页默认第 1 页每页 20 条，每页最多 100 条
func (f *ResultFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
}

func (r *QuizResultRepository) List(ctx context.Context, filter ResultFilter) ([]model.QuizResult, int64, error) {
	var (
		results []model.QuizResult
		total   int64
	)
	scoped := func() *gorm.DB {
		query := r.DB.WithContext(ctx).Model(&model.QuizResult{})
		if filter.QuizID != 0 {
			query = query.Where("quiz_id = ?", filter.QuizID)
		}
		if filter.UserID != 0 {
			query = query.Where("user_id = ?", filter.UserID)
		}
		return query
	}
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := scoped().Preload("Quiz").
		Order("completed_at DESC").
		Order("id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&results).Error
	return results, total, err
}

// Delete 同一事务删除作答记录和成绩
func (r *QuizResultRepository) Delete(ctx context.Context, id uint) (*model.QuizResult, error) {
	var result model.QuizResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&result, id).Error; err != nil {
			return err
		}
		if err := tx.Where("result_id = ?", id).Delete(&model.UserAnswer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.QuizResult{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ExportRow CSV 导出用的扁平行
type ExportRow struct {
	ResultID     uint
	QuizID       uint
	QuizName     string
	ChapterName  string
	SubjectName  string
	StudentName  string
	StudentEmail string
	MarksScored  int
	TotalMarks   int
	CompletedAt  time.Time
}

// ListForExport userID 为 0 时导出全部学生
func (r *QuizResultRepository) ListForExport(ctx context.Context, userID uint) ([]ExportRow, error) {
	var rows []ExportRow
	query := r.DB.WithContext(ctx).Model(&model.QuizResult{}).
		Select(`quiz_results.id AS result_id,
			quiz_results.quiz_id AS quiz_id,
			quizzes.name AS quiz_name,
			chapters.name AS chapter_name,
			subjects.name AS subject_name,
			users.name AS student_name,
			users.email AS student_email,
			quiz_results.marks_scored AS marks_scored,
			quiz_results.total_marks AS total_marks,
			quiz_results.completed_at AS completed_at`).
		Joins("JOIN quizzes ON quizzes.id = quiz_results.quiz_id").
		Joins("JOIN chapters ON chapters.id = quizzes.chapter_id").
		Joins("JOIN subjects ON subjects.id = chapters.subject_id").
		Joins("JOIN users ON users.id = quiz_results.user_id")
	if userID != 0 {
		query = query.Where("quiz_results.user_id = ?", userID)
	}
	err := query.Order("users.name").Order("quiz_results.completed_at DESC").Scan(&rows).Error
	return rows, err
}
