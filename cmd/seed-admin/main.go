// seed-admin creates or updates the operations admin user (username: willsAdmin).
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
//
// The password defaults below are for local development; override with
// SEED_ADMIN_PASSWORD in any shared environment.
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/wills_backend/config"
	"bitbucket.org/mmdatafocus/wills_backend/models"
	"bitbucket.org/mmdatafocus/wills_backend/utils"
	"gorm.io/gorm"
)

const (
	adminUsername = "willsAdmin"
	adminName     = "Wills Admin"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "willsAdminDev"
	}

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Seed")
	ctx = utils.SetUsernameInContext(ctx, adminUsername)
	ctx = utils.SetIsAdminInContext(ctx, true)

	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("username = ?", adminUsername).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			Username: adminUsername,
			Name:     adminName,
			Password: hashedStr,
			IsActive: utils.NewTrue(),
			IsAdmin:  utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created admin user %q (id %d)\n", adminUsername, u.ID)
		return
	}

	updates := map[string]interface{}{
		"password":  hashedStr,
		"is_active": true,
		"is_admin":  true,
	}
	if err := db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	// stale cached credentials would otherwise win until the redis TTL expires
	_ = existing.RemoveInstanceRedis()
	fmt.Printf("updated admin user %q (id %d)\n", adminUsername, existing.ID)
}
