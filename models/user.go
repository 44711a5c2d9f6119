package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/grievancechain/grievance_backend/config"
	"github.com/grievancechain/grievance_backend/utils"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	StudentId string    `gorm:"size:20;not null;unique" json:"student_id" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email     string    `gorm:"size:100;not null;unique" json:"email" binding:"required"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      UserRole  `gorm:"size:10;not null;default:'student'" json:"role"`
	IsActive  *bool     `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	StudentId string `json:"student_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

func NewTrue() *bool {
	b := true
	return &b
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		StudentId: strings.TrimSpace(input.StudentId),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Password:  string(hashed),
		Role:      UserRoleStudent,
		IsActive:  NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByEmail(ctx context.Context, email string) (*User, error) {
	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Take(&user).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &user, nil
}

// GetUserById reads through the redis cache; models that need the submitter's
// chain-side student id on the hot path go through here.
func GetUserById(ctx context.Context, id int) (*User, error) {
	var user User
	key := "User:" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(key, &user)
	if err != nil {
		return nil, err
	}
	if exists {
		return &user, nil
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	if err := config.SetRedisObject(key, &user, time.Hour); err != nil {
		return nil, err
	}
	return &user, nil
}

// RequireAdmin enforces role-based authorization from the request context.
func RequireAdmin(ctx context.Context) error {
	role, ok := utils.GetUserRoleFromContext(ctx)
	if !ok || role != string(UserRoleAdmin) {
		return errors.New("unauthorized")
	}
	return nil
}
