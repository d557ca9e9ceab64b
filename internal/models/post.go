package models

import "gorm.io/gorm"

// Post represents a text post owned by a single user.
type Post struct {
	gorm.Model
	UserID uint   `gorm:"not null;index"`
	Title  string `gorm:"size:255;not null"`
	Text   string `gorm:"not null"`

	User User `gorm:"foreignKey:UserID"`
}
