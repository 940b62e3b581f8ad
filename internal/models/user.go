package models

import "time"

// User is a registered account. Recipes it owns make it an author; TotalVotes
// is a cache of the ledger-derived sum and is only written by the recalculator.
type User struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"unique;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"` // owned by the registration service
	Avatar       string `json:"avatar"`

	TotalVotes int64 `gorm:"not null;default:0" json:"total_votes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
