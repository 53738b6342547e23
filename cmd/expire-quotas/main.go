// expire-quotas is an operational utility that starts a new quota window for every
// user whose current window lapsed more than 24 hours ago. The service itself only
// commits these resets lazily, when a user next attempts a generation; this tool
// applies them eagerly so that reporting queries against the database see current
// counts.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fitlooks/tryon/internal/db"
	"github.com/fitlooks/tryon/internal/model"
	"github.com/fitlooks/tryon/internal/quota"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
	"gorm.io/gorm"
)

type Config struct {
	DatabaseURI string
}

// loadConfig loads configuration settings from the environment. We're using koanf
// directly here so that the configuration files don't have to be present to run the
// utility.
func loadConfig() (*Config, error) {
	k := koanf.New(".")

	// Load the configuration settings from the environment.
	err := k.Load(
		env.Provider("TRYON_", ".",
			func(s string) string {
				return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "TRYON_")), "_", ".", -1)
			},
		),
		nil,
	)
	if err != nil {
		return nil, err
	}

	// Verify that the database URI is specified.
	databaseURI := k.String("database.uri")
	if databaseURI == "" {
		return nil, fmt.Errorf("TRYON_DATABASE_URI must be defined")
	}

	return &Config{DatabaseURI: databaseURI}, nil
}

// listUsersWithLapsedWindows lists the users whose quota window lapsed before the
// given cutoff and who still have a nonzero count to reset.
func listUsersWithLapsedWindows(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]model.User, error) {
	var users []model.User
	err := tx.WithContext(ctx).
		Where("last_reset_time < ?", cutoff).
		Where("generation_count > ?", 0).
		Order("email").
		Find(&users).
		Error
	return users, err
}

func main() {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("unable to load the configuration: %s", err)
	}

	_, gormdb, err := db.Init("postgres", cfg.DatabaseURI)
	if err != nil {
		log.Fatalf("unable to connect to the database: %s", err)
	}

	err = gormdb.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		users, err := listUsersWithLapsedWindows(ctx, tx, now.Add(-quota.WindowDuration))
		if err != nil {
			return err
		}

		for _, user := range users {
			log.Printf("resetting the quota window for %s (count was %d)", user.Email, user.GenerationCount)
			if err := db.ResetQuotaWindow(ctx, tx, user.Email, now); err != nil {
				return err
			}
		}

		log.Printf("reset %d quota windows", len(users))
		return nil
	})
	if err != nil {
		log.Fatalf("unable to reset the lapsed quota windows: %s", err)
	}
}
