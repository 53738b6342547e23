package model

import "time"

// User defines the structure for a registered user and their generation quota.
//
// swagger:model
type User struct {
	// The user's email address, which uniquely identifies the user. Matching is
	// case-sensitive and exact.
	//
	// required: true
	Email string `gorm:"primaryKey;type:text" json:"email"`

	// The user's display name
	Name string `gorm:"type:text" json:"name"`

	// The most recently issued one-time verification code
	VerificationCode string `gorm:"type:text" json:"-"`

	// The time of the most recent login attempt
	LastLogin *time.Time `json:"last_login,omitempty"`

	// The number of generations performed during the current quota window
	GenerationCount int `gorm:"not null;default:0" json:"generation_count"`

	// The start of the current quota window. Replaced, never rewound, whenever
	// a reset fires.
	LastResetTime time.Time `gorm:"not null" json:"last_reset_time"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName specifies the table name to use in the database.
func (u *User) TableName() string {
	return "users"
}
