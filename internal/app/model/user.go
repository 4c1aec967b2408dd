package model

import (
	"time"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `gorm:"not null" json:"name"`
	Role         UserRole  `gorm:"type:varchar(20);default:'user'" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Tokens []Token `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Token is an opaque login credential. A token is usable only while it
// is not revoked and not past its expiry.
type Token struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Value     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"value"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ExpiryAt  time.Time `gorm:"not null" json:"expiry_at"`
	Deleted   bool      `gorm:"default:false;index" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Token) TableName() string {
	return "tokens"
}

// Usable reports whether the token is still valid at the given time.
func (t *Token) Usable(now time.Time) bool {
	return !t.Deleted && t.ExpiryAt.After(now)
}
