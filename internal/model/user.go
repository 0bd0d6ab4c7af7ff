package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name          string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Email         string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password      string    `gorm:"size:100;not null" json:"-"`
	Dob           time.Time `gorm:"type:date" json:"dob"`
	Qualification string    `gorm:"size:50;not null" json:"qualification"`
	Role          UserRole  `gorm:"size:10;default:'student'" json:"role"`
	ProfilePic    string    `gorm:"size:255" json:"profile_pic"`
}

func (User) TableName() string {
	return "users"
}
