// Package bootstrap wires up runtime dependencies shared by the server and
// auxiliary commands.
package bootstrap

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/models"
	"quill/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedDemoData bool
	DemoUsers    int
	DemoPosts    int
}

// InitRuntime connects to DB and Redis and optionally seeds demo content.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	r, err := cache.InitRedis(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	if err := ensureDevUser(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development user: %w", err)
	}

	if opts.SeedDemoData {
		seedOpts := seed.Options{NumUsers: opts.DemoUsers, NumPosts: opts.DemoPosts}
		if err := seed.NewSeeder(db, seedOpts).Run(seedOpts); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevUser creates a well-known account in development so the API is
// usable right after a fresh migration.
func ensureDevUser(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapUser {
		return nil
	}

	username := strings.TrimSpace(cfg.DevUserName)
	if username == "" {
		username = "quill_dev"
	}
	password := cfg.DevUserPassword
	if password == "" {
		return fmt.Errorf("DEV_USER_PASSWORD must be set when DEV_BOOTSTRAP_USER is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash dev password: %w", err)
	}

	var existing models.User
	findErr := db.Where("username = ?", username).First(&existing).Error
	switch {
	case errors.Is(findErr, gorm.ErrRecordNotFound):
		user := models.User{
			Username: username,
			Password: string(hashedPassword),
			Bio:      "Local development account",
		}
		if err := db.Create(&user).Error; err != nil {
			return err
		}
		log.Printf("Created development user %q", username)
	case findErr != nil:
		return findErr
	default:
		// Keep the password in sync with config so the login always works.
		if err := db.Model(&existing).Update("password", string(hashedPassword)).Error; err != nil {
			return err
		}
	}

	return nil
}
