package models

import (
	"strings"

	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin   = "admin"
	RoleTrainer = "trainer"
)

// User is a staff profile (admin or trainer) that can log into the CRM.
type User struct {
	gorm.Model
	Name         string `json:"name"`
	Email        string `json:"email" gorm:"uniqueIndex"`
	PasswordHash string `json:"-"`
	Role         string `json:"role" gorm:"default:'trainer'"`
	Phone        string `json:"phone"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`
}

// BeforeCreate normalizes email and defaults the role.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = RoleTrainer
	}
	u.Phone = NormalizePhone(u.Phone)
	return nil
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserRegistration is the payload for creating a staff profile.
type UserRegistration struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=admin trainer"`
	Phone    string `json:"phone"`
}

// LoginRequest is the payload for /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
