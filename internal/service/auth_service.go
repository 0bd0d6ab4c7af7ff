package service

import (
	"context"
	"errors"
	"fmt"
	"kwizzy_backend/internal/config"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/repository"
	"kwizzy_backend/internal/util"
	"kwizzy_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// swagger:model RegisterRequest
type RegisterRequest struct {
	Name          string `json:"name" binding:"required,notblank,max=50"`
	Email         string `json:"email" binding:"required,email,max=100"`
	Password      string `json:"password" binding:"required,min=6"`
	Dob           string `json:"dob" binding:"required,datetime=2006-01-02"`
	Qualification string `json:"qualification" binding:"required,notblank,max=50"`
	ProfilePic    string `json:"profile_pic" binding:"omitempty,url,max=255"`
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Cfg:      cfg,
	}
}

// Register 自助注册的账号都是学生
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	dob, err := time.Parse(util.DateFormat, req.Dob)
	if err != nil {
		return nil, fmt.Errorf("invalid dob: %w", err)
	}

	user := &model.User{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Dob:           dob,
		Qualification: req.Qualification,
		Role:          model.Student,
		ProfilePic:    req.ProfilePic,
	}
	if err := s.createUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, user *model.User) error {
	_, err := s.UserRepo.FindByEmail(ctx, user.Email)
	if err == nil {
		return util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	taken, err := s.UserRepo.ExistsByName(ctx, user.Name)
	if err != nil {
		return err
	}
	if taken {
		return util.ErrNameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashedPassword)

	if err := s.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return util.ErrEmailRegistered
		}
		return err
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.UserRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, util.ErrInvalidLogin
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, util.ErrInvalidLogin
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func (s *AuthService) ListStudents(ctx context.Context) ([]model.User, error) {
	return s.UserRepo.ListByRole(ctx, model.Student)
}

// EnsureAdmin 按配置创建管理员账号，已存在时跳过
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" {
		return nil
	}
	if _, err := s.UserRepo.FindByEmail(ctx, cfg.Email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if len(cfg.Password) < 6 {
		return fmt.Errorf("admin password must be at least 6 characters")
	}

	admin := &model.User{
		Name:          cfg.Name,
		Email:         cfg.Email,
		Password:      cfg.Password,
		Dob:           time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		Qualification: "admin",
		Role:          model.Admin,
	}
	if err := s.createUser(ctx, admin); err != nil {
		return err
	}
	logger.Log.Info("Admin account created", zap.String("email", cfg.Email))
	return nil
}
