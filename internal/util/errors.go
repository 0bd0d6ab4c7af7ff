package util

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailRegistered  = errors.New("email already registered")
	ErrNameTaken        = errors.New("user name already taken")
	ErrInvalidLogin     = errors.New("invalid credentials")
	ErrPermissionDenied = errors.New("permission denied")

	ErrSubjectNotFound  = errors.New("subject not found")
	ErrSubjectExists    = errors.New("a subject with this name already exists")
	ErrChapterNotFound  = errors.New("chapter not found")
	ErrChapterExists    = errors.New("a chapter with this name already exists")
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrInvalidOptions   = errors.New("question must have at least two options and exactly one correct option")
	ErrQuizHasAttempts  = errors.New("quiz already has attempts")

	ErrQuizUnavailable  = errors.New("quiz is not available")
	ErrAlreadyAttempted = errors.New("quiz can be attempted only once")
	ErrInvalidQuestion  = errors.New("invalid question for this quiz")
	ErrDuplicateAnswer  = errors.New("question answered more than once")
	ErrResultNotFound   = errors.New("quiz result not found")
	ErrPersistence      = errors.New("failed to persist quiz result")

	ErrExportNotFound = errors.New("export job not found")
	ErrExportNotReady = errors.New("export is not ready")
)

// QuizUnavailableError 截止时间已过，携带截止时间给客户端展示
type QuizUnavailableError struct {
	Deadline *time.Time
}

func (e *QuizUnavailableError) Error() string {
	return ErrQuizUnavailable.Error()
}

func (e *QuizUnavailableError) Is(target error) bool {
	return target == ErrQuizUnavailable
}
