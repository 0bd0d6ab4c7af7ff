package service

import (
	"context"
	"errors"
	"fmt"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/repository"
	"kwizzy_backend/internal/util"
	"kwizzy_backend/pkg/cache"

	"gorm.io/gorm"
)

// swagger:model ChapterInput
type ChapterInput struct {
	SubjectID   uint   `json:"subject_id" binding:"required"`
	Name        string `json:"name" binding:"required,notblank,max=50"`
	Description string `json:"description" binding:"required,notblank,max=255"`
}

// swagger:model ChapterUpdateInput
type ChapterUpdateInput struct {
	Name        string `json:"name" binding:"required,notblank,max=50"`
	Description string `json:"description" binding:"required,notblank,max=255"`
}

type ChapterService struct {
	ChapterRepo *repository.ChapterRepository
	SubjectRepo *repository.SubjectRepository
	Cache       cache.Cache
}

func NewChapterService(chapterRepo *repository.ChapterRepository, subjectRepo *repository.SubjectRepository, c cache.Cache) *ChapterService {
	return &ChapterService{ChapterRepo: chapterRepo, SubjectRepo: subjectRepo, Cache: c}
}

func (s *ChapterService) Create(ctx context.Context, input ChapterInput) (*model.Chapter, error) {
	if _, err := s.SubjectRepo.FindByID(ctx, input.SubjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubjectNotFound
		}
		return nil, err
	}

	exists, err := s.ChapterRepo.ExistsInSubject(ctx, input.SubjectID, input.Name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrChapterExists
	}

	chapter := &model.Chapter{
		SubjectID:   input.SubjectID,
		Name:        input.Name,
		Description: input.Description,
	}
	if err := s.ChapterRepo.Create(ctx, chapter); err != nil {
		return nil, fmt.Errorf("create chapter: %w", err)
	}
	return chapter, nil
}

func (s *ChapterService) List(ctx context.Context, subjectID uint, search string) ([]model.Chapter, error) {
	return s.ChapterRepo.List(ctx, subjectID, search)
}

func (s *ChapterService) Get(ctx context.Context, id uint) (*model.Chapter, error) {
	chapter, err := s.ChapterRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrChapterNotFound
	}
	return chapter, err
}

// Update 章节不能移动到其他科目
func (s *ChapterService) Update(ctx context.Context, id uint, input ChapterUpdateInput) (*model.Chapter, error) {
	chapter, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.ChapterRepo.ExistsInSubject(ctx, chapter.SubjectID, input.Name, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrChapterExists
	}

	chapter.Name = input.Name
	chapter.Description = input.Description
	if err := s.ChapterRepo.Update(ctx, chapter); err != nil {
		return nil, fmt.Errorf("update chapter: %w", err)
	}
	return chapter, nil
}

func (s *ChapterService) Delete(ctx context.Context, id uint) error {
	quizIDs, err := s.ChapterRepo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrChapterNotFound
	}
	if err != nil {
		return err
	}
	invalidateQuizzes(ctx, s.Cache, quizIDs...)
	return nil
}
