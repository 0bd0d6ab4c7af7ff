package model

import "time"

type Quiz struct {
	BaseModel
	Name         string     `gorm:"size:50;not null" json:"name"`
	Description  string     `gorm:"size:255;not null" json:"description"`
	ChapterID    uint       `gorm:"index;not null" json:"chapter_id"`
	TimeDuration int        `gorm:"not null;default:0" json:"time_duration"` // 秒
	Deadline     *time.Time `json:"deadline"`
	// 不能设 default:true，否则 false 不会写入；默认值由 QuizService 决定
	OneAttemptOnly bool       `gorm:"not null" json:"one_attempt_only"`
	Chapter        *Chapter   `gorm:"foreignKey:ChapterID" json:"chapter,omitempty"`
	Questions      []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// IsAvailable 截止时间为空或 now 严格早于截止时间
func (q *Quiz) IsAvailable(now time.Time) bool {
	return q.Deadline == nil || now.Before(*q.Deadline)
}

type Question struct {
	BaseModel
	QuizID  uint     `gorm:"index;not null" json:"quiz_id"`
	Title   string   `gorm:"size:100" json:"title"`
	Text    string   `gorm:"type:text;not null" json:"text"`
	Options []Option `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectOptionID 返回标记为正确的选项，没有时返回 nil
func (q *Question) CorrectOptionID() *uint {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			id := q.Options[i].ID
			return &id
		}
	}
	return nil
}

type Option struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"question_id"`
	Text       string `gorm:"type:text;not null" json:"text"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"is_correct"`
}

func (Option) TableName() string {
	return "options"
}
