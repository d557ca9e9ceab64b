package models

import "gorm.io/gorm"

// User represents a user in the system. Accounts are soft-deleted
// (gorm.Model.DeletedAt), so removed users keep their rows but drop out of
// every query, including friend-graph resolution.
type User struct {
	gorm.Model
	Username     string `gorm:"size:255"`
	Email        string `gorm:"size:255;unique;not null"`
	Image        string `gorm:"type:text"`
	PasswordHash string `gorm:"size:255;not null"`

	// Secret is the recovery phrase shown back to the user during password
	// recovery; SecretHash is the bcrypt hash of the recovery password that
	// must be presented alongside it.
	Secret     string `gorm:"size:255;not null"`
	SecretHash string `gorm:"size:255;not null"`

	Posts []Post `gorm:"foreignKey:UserID"`
}
