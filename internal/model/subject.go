package model

// Subject -> Chapter -> Quiz 构成题库目录
type Subject struct {
	BaseModel
	Name         string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Description  string    `gorm:"size:255;not null" json:"description"`
	SubjectImage string    `gorm:"size:255" json:"subject_image"`
	Chapters     []Chapter `gorm:"foreignKey:SubjectID" json:"chapters,omitempty"`
}

func (Subject) TableName() string {
	return "subjects"
}

type Chapter struct {
	BaseModel
	SubjectID   uint     `gorm:"index;not null" json:"subject_id"`
	Name        string   `gorm:"size:50;not null" json:"name"`
	Description string   `gorm:"size:255;not null" json:"description"`
	Subject     *Subject `gorm:"foreignKey:SubjectID" json:"subject,omitempty"`
	Quizzes     []Quiz   `gorm:"foreignKey:ChapterID" json:"quizzes,omitempty"`
}

func (Chapter) TableName() string {
	return "chapters"
}
