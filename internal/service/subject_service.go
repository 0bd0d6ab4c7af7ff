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

// swagger:model SubjectInput
type SubjectInput struct {
	Name         string `json:"name" binding:"required,notblank,max=50"`
	Description  string `json:"description" binding:"required,notblank,max=255"`
	SubjectImage string `json:"subject_image" binding:"omitempty,url,max=255"`
}

type SubjectService struct {
	SubjectRepo *repository.SubjectRepository
	Cache       cache.Cache
}

func NewSubjectService(subjectRepo *repository.SubjectRepository, c cache.Cache) *SubjectService {
	return &SubjectService{SubjectRepo: subjectRepo, Cache: c}
}

func (s *SubjectService) Create(ctx context.Context, input SubjectInput) (*model.Subject, error) {
	exists, err := s.SubjectRepo.ExistsByName(ctx, input.Name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrSubjectExists
	}

	subject := &model.Subject{
		Name:         input.Name,
		Description:  input.Description,
		SubjectImage: input.SubjectImage,
	}
	if err := s.SubjectRepo.Create(ctx, subject); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrSubjectExists
		}
		return nil, fmt.Errorf("create subject: %w", err)
	}
	return subject, nil
}

func (s *SubjectService) List(ctx context.Context, search string) ([]model.Subject, error) {
	return s.SubjectRepo.List(ctx, search)
}

func (s *SubjectService) Get(ctx context.Context, id uint) (*model.Subject, error) {
	subject, err := s.SubjectRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSubjectNotFound
	}
	return subject, err
}

func (s *SubjectService) Update(ctx context.Context, id uint, input SubjectInput) (*model.Subject, error) {
	subject, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.SubjectRepo.ExistsByName(ctx, input.Name, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrSubjectExists
	}

	subject.Name = input.Name
	subject.Description = input.Description
	subject.SubjectImage = input.SubjectImage
	if err := s.SubjectRepo.Update(ctx, subject); err != nil {
		return nil, fmt.Errorf("update subject: %w", err)
	}
	return subject, nil
}

// Delete 级联删除，包含的测验已有成绩时返回 ErrQuizHasAttempts
func (s *SubjectService) Delete(ctx context.Context, id uint) error {
	quizIDs, err := s.SubjectRepo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrSubjectNotFound
	}
	if err != nil {
		return err
	}
	invalidateQuizzes(ctx, s.Cache, quizIDs...)
	return nil
}
