package sync

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	game_constants "Turnato/constants/game"
	"Turnato/models/postgres"
	redis_models "Turnato/models/redis"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Source is the live store the SyncManager copies from.
type Source interface {
	GetParty(partyId string) (*redis_models.PartyState, error)
	GetMatch(matchId string) (*redis_models.MatchState, error)
}

// SyncManager copies live state from Redis into PostgreSQL.
type SyncManager struct {
	redisClient Source
	db          *gorm.DB
}

// NewSyncManager creates a new instance of the synchronization manager
func NewSyncManager(redisClient Source, db *gorm.DB) *SyncManager {
	return &SyncManager{
		redisClient: redisClient,
		db:          db,
	}
}

var upsert = clause.OnConflict{UpdateAll: true}

// SyncMatch archives a match. It is called once the match finishes and again when its
// party closes, so writes are upserts.
func (sm *SyncManager) SyncMatch(matchId string) error {
	match, err := sm.redisClient.GetMatch(matchId)
	if err != nil {
		return fmt.Errorf("error getting match state from Redis: %v", err)
	}
	if match == nil {
		return fmt.Errorf("match %s not found in Redis", matchId)
	}
	party, err := sm.redisClient.GetParty(match.PartyId)
	if err != nil {
		return fmt.Errorf("error getting party state from Redis: %v", err)
	}

	record, err := matchRecord(match)
	if err != nil {
		return err
	}

	err = sm.db.Transaction(func(tx *gorm.DB) error {
		// the party row must exist before its matches
		stub := postgres.PartyRecord{ID: match.PartyId, CreatedAt: time.Unix(match.CreatedAt, 0)}
		if party != nil {
			stub = partyRecord(party)
		}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&stub).Error; err != nil {
			return fmt.Errorf("error creating party row: %v", err)
		}
		return saveMatch(tx, record)
	})
	if err != nil {
		return err
	}
	log.Printf("[SYNC] Match %s archived with status %s", matchId, match.Status)
	return nil
}

// SyncParty archives a closing party with its members and every match it still holds.
func (sm *SyncManager) SyncParty(partyId string) error {
	party, err := sm.redisClient.GetParty(partyId)
	if err != nil {
		return fmt.Errorf("error getting party state from Redis: %v", err)
	}
	if party == nil {
		return fmt.Errorf("party %s not found in Redis", partyId)
	}

	var matches []postgres.MatchRecord
	for _, id := range party.MatchIds {
		match, err := sm.redisClient.GetMatch(id)
		if err != nil {
			return fmt.Errorf("error getting match state from Redis: %v", err)
		}
		if match == nil {
			continue
		}
		record, err := matchRecord(match)
		if err != nil {
			return err
		}
		matches = append(matches, record)
	}

	record := partyRecord(party)
	closedAt := time.Now()
	record.ClosedAt = &closedAt

	err = sm.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Clauses(upsert).Create(&record).Error; err != nil {
			return fmt.Errorf("error updating party in PostgreSQL: %v", err)
		}
		if len(record.Members) > 0 {
			if err := tx.Clauses(upsert).Create(&record.Members).Error; err != nil {
				return fmt.Errorf("error updating party members in PostgreSQL: %v", err)
			}
		}
		for _, m := range matches {
			if err := saveMatch(tx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[SYNC] Party %s archived with %d matches", partyId, len(matches))
	return nil
}

func saveMatch(tx *gorm.DB, record postgres.MatchRecord) error {
	players := record.Players
	if err := tx.Omit(clause.Associations).Clauses(upsert).Create(&record).Error; err != nil {
		return fmt.Errorf("error updating match in PostgreSQL: %v", err)
	}
	if len(players) > 0 {
		if err := tx.Clauses(upsert).Create(&players).Error; err != nil {
			return fmt.Errorf("error updating match players in PostgreSQL: %v", err)
		}
	}
	return nil
}

// PartyHistory lists the archived matches of a party, newest first.
func (sm *SyncManager) PartyHistory(partyId string) ([]postgres.MatchRecord, error) {
	var records []postgres.MatchRecord
	err := sm.db.Preload("Players", func(db *gorm.DB) *gorm.DB {
		return db.Order("seat")
	}).Where("party_id = ?", partyId).Order("last_active desc").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("error querying match history: %v", err)
	}
	return records, nil
}

// ParticipantHistory lists the archived matches a participant was seated in.
func (sm *SyncManager) ParticipantHistory(participantId string) ([]postgres.MatchRecord, error) {
	var records []postgres.MatchRecord
	err := sm.db.Preload("Players", func(db *gorm.DB) *gorm.DB {
		return db.Order("seat")
	}).Joins("JOIN match_players ON match_players.match_id = matches.id").
		Where("match_players.participant_id = ?", participantId).
		Order("matches.last_active desc").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("error querying participant history: %v", err)
	}
	return records, nil
}

func partyRecord(party *redis_models.PartyState) postgres.PartyRecord {
	record := postgres.PartyRecord{
		ID:        party.Id,
		Name:      party.Name,
		Private:   len(party.SecretHash) > 0,
		CreatedAt: time.Unix(party.CreatedAt, 0),
	}
	for id, nickname := range party.Nicknames {
		record.Members = append(record.Members, postgres.PartyMemberRecord{
			PartyID:       party.Id,
			ParticipantID: id,
			Nickname:      nickname,
		})
	}
	return record
}

func matchRecord(match *redis_models.MatchState) (postgres.MatchRecord, error) {
	ctx, err := json.Marshal(match.Ctx)
	if err != nil {
		return postgres.MatchRecord{}, fmt.Errorf("error marshaling match ctx: %v", err)
	}
	g, err := json.Marshal(match.G)
	if err != nil {
		return postgres.MatchRecord{}, fmt.Errorf("error marshaling match state: %v", err)
	}

	record := postgres.MatchRecord{
		ID:         match.Id,
		PartyID:    match.PartyId,
		GameCode:   match.GameCode,
		Status:     match.Status,
		G:          datatypes.JSON(g),
		Ctx:        datatypes.JSON(ctx),
		WinnerSeat: match.Ctx.Winner,
		Draw:       match.Ctx.Draw,
		Turns:      match.Ctx.Turn,
		CreatedAt:  time.Unix(match.CreatedAt, 0),
		LastActive: time.Unix(0, match.LastActive),
	}
	left := make(map[string]bool, len(match.Left))
	for _, id := range match.Left {
		left[id] = true
	}
	for seat, id := range match.Players {
		record.Players = append(record.Players, postgres.MatchPlayerRecord{
			MatchID:       match.Id,
			ParticipantID: id,
			Seat:          seat,
			Winner:        match.Status == game_constants.MatchFinished && match.Ctx.Winner != nil && *match.Ctx.Winner == seat,
			Left:          left[id],
		})
	}
	return record, nil
}
