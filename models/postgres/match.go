package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'MatchRecord' is the archived copy of a match: the final G and ctx as JSON,
 * plus the result columns used by the history endpoints.
 */
type MatchRecord struct {
	ID         string         `gorm:"primaryKey;size:64;not null"`
	PartyID    string         `gorm:"size:50;not null;index:idx_matches_party"`
	GameCode   string         `gorm:"size:50;not null;index"`
	Status     string         `gorm:"size:20;not null"`
	G          datatypes.JSON `gorm:"type:jsonb"`
	Ctx        datatypes.JSON `gorm:"type:jsonb"`
	WinnerSeat *int
	Draw       bool `gorm:"not null"`
	Turns      int  `gorm:"not null"`
	CreatedAt  time.Time
	LastActive time.Time `gorm:"index:idx_matches_party"`

	// Seats, in order
	Players []MatchPlayerRecord `gorm:"foreignKey:MatchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (MatchRecord) TableName() string { return "matches" }

// 'MatchPlayerRecord' is one seat of an archived match.
type MatchPlayerRecord struct {
	MatchID       string `gorm:"primaryKey;size:64;not null"`
	ParticipantID string `gorm:"primaryKey;size:64;not null;index"`
	Seat          int    `gorm:"not null"`
	Winner        bool   `gorm:"not null"`
	Left          bool   `gorm:"not null"`
}

func (MatchPlayerRecord) TableName() string { return "match_players" }
