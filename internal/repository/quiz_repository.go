package repository

import (
	"context"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/util"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// QuizListItem 列表项，附带题目数量
type QuizListItem struct {
	model.Quiz
	QuestionCount int64 `json:"question_count"`
}

func preloadQuestions(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("questions.id") }).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB { return db.Order("options.id") })
}

// GetQuiz 返回测验及按 id 排序的题目和选项
func (r *QuizRepository) GetQuiz(ctx context.Context, id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := preloadQuestions(r.DB.WithContext(ctx)).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) GetQuestion(ctx context.Context, id uint) (*model.Question, error) {
	var question model.Question
	err := r.DB.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("options.id") }).
		First(&question, id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *QuizRepository) List(ctx context.Context, chapterID uint, search string) ([]QuizListItem, error) {
	var quizzes []model.Quiz
	query := r.DB.WithContext(ctx).Model(&model.Quiz{})
	if chapterID != 0 {
		query = query.Where("chapter_id = ?", chapterID)
	}
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if err := query.Order("id").Find(&quizzes).Error; err != nil {
		return nil, err
	}
	if len(quizzes) == 0 {
		return []QuizListItem{}, nil
	}

	ids := make([]uint, len(quizzes))
	for i := range quizzes {
		ids[i] = quizzes[i].ID
	}

	var counts []struct {
		QuizID uint
		Total  int64
	}
	err := r.DB.WithContext(ctx).Model(&model.Question{}).
		Select("quiz_id, COUNT(*) AS total").
		Where("quiz_id IN ?", ids).
		Group("quiz_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	countByQuiz := make(map[uint]int64, len(counts))
	for _, c := range counts {
		countByQuiz[c.QuizID] = c.Total
	}

	items := make([]QuizListItem, len(quizzes))
	for i, q := range quizzes {
		items[i] = QuizListItem{Quiz: q, QuestionCount: countByQuiz[q.ID]}
	}
	return items, nil
}

// Create 连同题目和选项一起创建
func (r *QuizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(quiz).Error
	})
}

func (r *QuizRepository) Update(ctx context.Context, quiz *model.Quiz) error {
	result := r.DB.WithContext(ctx).Model(&model.Quiz{}).
		Where("id = ?", quiz.ID).
		Updates(map[string]interface{}{
			"name":             quiz.Name,
			"description":      quiz.Description,
			"chapter_id":       quiz.ChapterID,
			"time_duration":    quiz.TimeDuration,
			"deadline":         quiz.Deadline,
			"one_attempt_only": quiz.OneAttemptOnly,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceQuestions 用新的题目集合替换原有题目，已有成绩时拒绝
func (r *QuizRepository) ReplaceQuestions(ctx context.Context, quizID uint, questions []model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hasResults, err := quizHasResultsTx(tx, quizID)
		if err != nil {
			return err
		}
		if hasResults {
			return util.ErrQuizHasAttempts
		}

		questionIDs := tx.Model(&model.Question{}).Select("id").Where("quiz_id = ?", quizID)
		if err := tx.Where("question_id IN (?)", questionIDs).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", quizID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		for i := range questions {
			questions[i].QuizID = quizID
		}
		return tx.Create(&questions).Error
	})
}

func (r *QuizRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz model.Quiz
		if err := tx.First(&quiz, id).Error; err != nil {
			return err
		}
		return deleteQuizzesTx(tx, []uint{id})
	})
}

func (r *QuizRepository) CreateQuestion(ctx context.Context, question *model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz model.Quiz
		if err := tx.Select("id").First(&quiz, question.QuizID).Error; err != nil {
			return err
		}
		return tx.Create(question).Error
	})
}

// UpdateQuestion 更新题干；options 非空时整体替换选项，已有成绩时拒绝替换
func (r *QuizRepository) UpdateQuestion(ctx context.Context, question *model.Question, options []model.Option) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Question{}).
			Where("id = ?", question.ID).
			Updates(map[string]interface{}{
				"title": question.Title,
				"text":  question.Text,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if len(options) == 0 {
			return nil
		}

		hasResults, err := quizHasResultsTx(tx, question.QuizID)
		if err != nil {
			return err
		}
		if hasResults {
			return util.ErrQuizHasAttempts
		}

		if err := tx.Where("question_id = ?", question.ID).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		for i := range options {
			options[i].ID = 0
			options[i].QuestionID = question.ID
		}
		return tx.Create(&options).Error
	})
}

func (r *QuizRepository) DeleteQuestion(ctx context.Context, question *model.Question) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		hasResults, err := quizHasResultsTx(tx, question.QuizID)
		if err != nil {
			return err
		}
		if hasResults {
			return util.ErrQuizHasAttempts
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&model.Option{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, question.ID).Error
	})
}
