package models

import (
	"log"

	"github.com/grievancechain/grievance_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Grievance{},
		&GrievanceSubmission{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
