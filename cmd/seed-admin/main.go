// seed-admin creates or updates the grievance console admin user.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//
// Override defaults with ADMIN_EMAIL / ADMIN_PASSWORD.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/grievancechain/grievance_backend/config"
	"github.com/grievancechain/grievance_backend/models"
	"github.com/grievancechain/grievance_backend/utils"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@grievance.local"
	defaultAdminPassword = "Gr!evanceAdmin"
	adminStudentId       = "ADMIN-0001"
	adminName            = "Grievance Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = defaultAdminEmail
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = defaultAdminPassword
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		// Create new admin user
		u := models.User{
			StudentId: adminStudentId,
			Name:      adminName,
			Email:     email,
			Password:  hashedStr,
			IsActive:  models.NewTrue(),
			Role:      models.UserRoleAdmin,
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: email=%q (role=admin)\n", email)
		return
	}

	// Update existing user: ensure password and admin role
	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Updates(map[string]any{
		"password":  hashedStr,
		"name":      adminName,
		"is_active": models.NewTrue(),
		"role":      models.UserRoleAdmin,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	_ = config.RemoveRedisKey("User:" + fmt.Sprint(existing.ID))
	fmt.Printf("Updated admin user: email=%q (role=admin)\n", email)
}
