package postgres

import (
	"time"
)

/*
 * 'PartyRecord' is the archived copy of a party. Rows are written when the party
 * closes; live parties only exist in Redis.
 */
type PartyRecord struct {
	ID        string `gorm:"primaryKey;size:50;not null"`
	Name      string `gorm:"size:100"`
	Private   bool   `gorm:"not null"`
	CreatedAt time.Time
	ClosedAt  *time.Time `gorm:"index:idx_parties_closed"`

	// Everyone who was ever a member, with the nickname they used
	Members []PartyMemberRecord `gorm:"foreignKey:PartyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Matches []MatchRecord       `gorm:"foreignKey:PartyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (PartyRecord) TableName() string { return "parties" }

// NOTE: composite primary key
type PartyMemberRecord struct {
	PartyID       string `gorm:"primaryKey;size:50;not null"`
	ParticipantID string `gorm:"primaryKey;size:64;not null;index"`
	Nickname      string `gorm:"size:50"`
}

func (PartyMemberRecord) TableName() string { return "party_members" }
