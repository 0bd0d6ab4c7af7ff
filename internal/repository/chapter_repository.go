package repository

import (
	"context"
	"kwizzy_backend/internal/model"

	"gorm.io/gorm"
)

type ChapterRepository struct {
	DB *gorm.DB
}

func NewChapterRepository(db *gorm.DB) *ChapterRepository {
	return &ChapterRepository{DB: db}
}

func (r *ChapterRepository) Create(ctx context.Context, chapter *model.Chapter) error {
	return r.DB.WithContext(ctx).Create(chapter).Error
}

func (r *ChapterRepository) List(ctx context.Context, subjectID uint, search string) ([]model.Chapter, error) {
	var chapters []model.Chapter
	query := r.DB.WithContext(ctx).Model(&model.Chapter{})
	if subjectID != 0 {
		query = query.Where("subject_id = ?", subjectID)
	}
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	err := query.Order("id").Find(&chapters).Error
	return chapters, err
}

func (r *ChapterRepository) FindByID(ctx context.Context, id uint) (*model.Chapter, error) {
	var chapter model.Chapter
	err := r.DB.WithContext(ctx).
		Preload("Subject").
		Preload("Quizzes", func(db *gorm.DB) *gorm.DB { return db.Order("quizzes.id") }).
		First(&chapter, id).Error
	if err != nil {
		return nil, err
	}
	return &chapter, nil
}

// ExistsInSubject 同一科目下章节名唯一
func (r *ChapterRepository) ExistsInSubject(ctx context.Context, subjectID uint, name string, excludeID uint) (bool, error) {
	var count int64
	query := r.DB.WithContext(ctx).Model(&model.Chapter{}).
		Where("subject_id = ? AND name = ?", subjectID, name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *ChapterRepository) Update(ctx context.Context, chapter *model.Chapter) error {
	return r.DB.WithContext(ctx).Model(&model.Chapter{}).
		Where("id = ?", chapter.ID).
		Updates(map[string]interface{}{
			"name":        chapter.Name,
			"description": chapter.Description,
		}).Error
}

func (r *ChapterRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	var quizIDs []uint
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chapter model.Chapter
		if err := tx.First(&chapter, id).Error; err != nil {
			return err
		}
		deleted, err := deleteChaptersTx(tx, []uint{id})
		quizIDs = deleted
		return err
	})
	return quizIDs, err
}
