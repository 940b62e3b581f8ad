package models

import "time"

// Vote model - one ledger entry per (recipe, voter)
type Vote struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	RecipeID  int       `gorm:"not null;uniqueIndex:idx_votes_recipe_voter,priority:1" json:"recipe_id"`
	VoterID   int       `gorm:"not null;uniqueIndex:idx_votes_recipe_voter,priority:2;index" json:"voter_id"`
	Recipe    Recipe    `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"-"`
	Voter     User      `gorm:"foreignKey:VoterID" json:"-"`
	CreatedAt time.Time `json:"created_at"` // cast time
}
