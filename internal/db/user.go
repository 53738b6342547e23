package db

import (
	"context"
	"time"

	"github.com/fitlooks/tryon/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetUserByEmail looks up a user by email address. The result is nil if no matching
// user exists.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*model.User, error) {
	wrapMsg := "unable to look up the user"

	var user model.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	return &user, nil
}

// UpsertLogin records a login attempt for the user, creating the user record if
// necessary. New users start with a zeroed generation count and a quota window
// beginning at the login time. For existing users only the name, verification code,
// and login time are touched, so an in-progress quota window is never disturbed.
func UpsertLogin(ctx context.Context, db *gorm.DB, email, name, code string, loginTime time.Time) error {
	wrapMsg := "unable to record the login attempt"

	user := model.User{
		Email:            email,
		Name:             name,
		VerificationCode: code,
		LastLogin:        &loginTime,
		GenerationCount:  0,
		LastResetTime:    loginTime,
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "verification_code", "last_login", "updated_at"}),
		}).
		Create(&user).Error
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	return nil
}

// ResetQuotaWindow starts a new quota window for the user.
func ResetQuotaWindow(ctx context.Context, db *gorm.DB, email string, resetTime time.Time) error {
	wrapMsg := "unable to reset the quota window"

	err := db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"generation_count": 0,
			"last_reset_time":  resetTime,
		}).Error
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	return nil
}

// IncrementGenerationCount advances the user's generation count by one, but only if
// the stored count is still below the limit. The guard closes the window in which two
// concurrent requests could drive the counter past the limit: a losing increment
// leaves the stored count saturated instead. The count after the update is returned.
func IncrementGenerationCount(ctx context.Context, db *gorm.DB, email string, limit int) (int, error) {
	wrapMsg := "unable to increment the generation count"

	// A single guarded UPDATE ... RETURNING both advances the count and reports the
	// resulting value, so no concurrent reset or commit can land between the
	// increment and the read-back.
	var user model.User
	result := db.WithContext(ctx).
		Model(&user).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "generation_count"}}}).
		Where("email = ? AND generation_count < ?", email, limit).
		Update("generation_count", gorm.Expr("generation_count + 1"))
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, wrapMsg)
	}

	// Zero matched rows means the increment lost a race: the count is already
	// saturated, or the user record is gone. Nothing was mutated, so a plain read
	// reports the current standing.
	if result.RowsAffected == 0 {
		current, err := GetUserByEmail(ctx, db, email)
		if err != nil {
			return 0, errors.Wrap(err, wrapMsg)
		}
		if current == nil {
			return 0, errors.New(wrapMsg + ": user not found")
		}
		return current.GenerationCount, nil
	}

	return user.GenerationCount, nil
}

// UserStore is a GORM-backed implementation of the store interfaces consumed by the
// quota manager and the controllers.
type UserStore struct {
	db *gorm.DB
}

// NewUserStore creates a new user store on top of an established GORM session.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return GetUserByEmail(ctx, s.db, email)
}

func (s *UserStore) UpsertLogin(ctx context.Context, email, name, code string, loginTime time.Time) error {
	return UpsertLogin(ctx, s.db, email, name, code, loginTime)
}

func (s *UserStore) ResetQuotaWindow(ctx context.Context, email string, resetTime time.Time) error {
	return ResetQuotaWindow(ctx, s.db, email, resetTime)
}

func (s *UserStore) IncrementGenerationCount(ctx context.Context, email string, limit int) (int, error) {
	return IncrementGenerationCount(ctx, s.db, email, limit)
}
