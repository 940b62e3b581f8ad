package models

import "time"

// Recipe is a votable item. Votes mirrors the ledger count and is refreshed on
// every toggle; nothing in the vote engine reads it back as the truth.
type Recipe struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	AuthorID  int       `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"-"`
	Votes     int64     `gorm:"not null;default:0" json:"votes"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
