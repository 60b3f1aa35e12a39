package models

import (
	"log"

	"bitbucket.org/mmdatafocus/wills_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Will{},
		&Attachment{},
		&History{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
