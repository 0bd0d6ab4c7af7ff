package repository

import (
	"context"
	"kwizzy_backend/internal/model"

	"gorm.io/gorm"
)

type SubjectRepository struct {
	DB *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{DB: db}
}

func (r *SubjectRepository) Create(ctx context.Context, subject *model.Subject) error {
	return r.DB.WithContext(ctx).Create(subject).Error
}

func (r *SubjectRepository) List(ctx context.Context, search string) ([]model.Subject, error) {
	var subjects []model.Subject
	query := r.DB.WithContext(ctx).Model(&model.Subject{})
	if search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	err := query.Order("name").Find(&subjects).Error
	return subjects, err
}

func (r *SubjectRepository) FindByID(ctx context.Context, id uint) (*model.Subject, error) {
	var subject model.Subject
	err := r.DB.WithContext(ctx).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("chapters.id") }).
		First(&subject, id).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// ExistsByName excludeID 用于更新时排除自身
func (r *SubjectRepository) ExistsByName(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	query := r.DB.WithContext(ctx).Model(&model.Subject{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *SubjectRepository) Update(ctx context.Context, subject *model.Subject) error {
	return r.DB.WithContext(ctx).Model(&model.Subject{}).
		Where("id = ?", subject.ID).
		Updates(map[string]interface{}{
			"name":          subject.Name,
			"description":   subject.Description,
			"subject_image": subject.SubjectImage,
		}).Error
}

// Delete 级联删除章节、测验、题目和选项，返回被删除的测验 id
func (r *SubjectRepository) Delete(ctx context.Context, id uint) ([]uint, error) {
	var quizIDs []uint
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subject model.Subject
		if err := tx.First(&subject, id).Error; err != nil {
			return err
		}

		var chapterIDs []uint
		if err := tx.Model(&model.Chapter{}).Where("subject_id = ?", id).Pluck("id", &chapterIDs).Error; err != nil {
			return err
		}
		deleted, err := deleteChaptersTx(tx, chapterIDs)
		if err != nil {
			return err
		}
		quizIDs = deleted
		return tx.Delete(&model.Subject{}, id).Error
	})
	return quizIDs, err
}
