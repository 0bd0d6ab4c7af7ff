package model

import (
	"fmt"
	"time"
)

// QuizResult 一次提交的成绩，和 UserAnswer 一起创建、一起删除
type QuizResult struct {
	BaseModel
	QuizID      uint      `gorm:"index;not null" json:"quiz_id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	MarksScored int       `gorm:"not null" json:"marks_scored"`
	TotalMarks  int       `gorm:"not null" json:"total_marks"`
	CompletedAt time.Time `gorm:"index;not null" json:"completed_at"`
	// 单次作答测验写入 "user:quiz"，其余为 NULL；唯一索引保证并发提交只有一条落库
	AttemptGuard *string      `gorm:"size:64;uniqueIndex" json:"-"`
	Quiz         *Quiz        `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	UserAnswers  []UserAnswer `gorm:"foreignKey:ResultID" json:"user_answers,omitempty"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

func AttemptGuardKey(userID, quizID uint) *string {
	key := fmt.Sprintf("%d:%d", userID, quizID)
	return &key
}

type UserAnswer struct {
	ID             uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	ResultID       uint  `gorm:"index;not null" json:"result_id"`
	QuestionID     uint  `gorm:"index;not null" json:"question_id"`
	SelectedOption *uint `json:"selected_option"`
	IsCorrect      bool  `gorm:"not null;default:false" json:"is_correct"`
}

func (UserAnswer) TableName() string {
	return "user_answers"
}
