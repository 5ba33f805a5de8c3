package sync

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"Turnato/models/game"
	redis_models "Turnato/models/redis"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type fakeSource struct {
	parties map[string]*redis_models.PartyState
	matches map[string]*redis_models.MatchState
}

func (f *fakeSource) GetParty(id string) (*redis_models.PartyState, error) {
	return f.parties[id], nil
}

func (f *fakeSource) GetMatch(id string) (*redis_models.MatchState, error) {
	return f.matches[id], nil
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(pgdriver.New(pgdriver.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func fixture() *fakeSource {
	winner := 1
	return &fakeSource{
		parties: map[string]*redis_models.PartyState{
			"AbC123": {
				Id:        "AbC123",
				Name:      "friday",
				Members:   []string{"p1"},
				Nicknames: map[string]string{"p1": "ana", "p2": "bo"},
				MatchIds:  []string{"m1", "gone"},
				CreatedAt: time.Now().Unix(),
			},
		},
		matches: map[string]*redis_models.MatchState{
			"m1": {
				Id:         "m1",
				PartyId:    "AbC123",
				GameCode:   "chess",
				Players:    []string{"p1", "p2"},
				Left:       []string{"p2"},
				Status:     "Finished",
				G:          game.State{Code: "chess", Data: json.RawMessage(`{"pgn":"1.f4 e5 2.g4 Qh4#"}`)},
				Ctx:        game.Ctx{NumPlayers: 2, Turn: 4, Winner: &winner},
				CreatedAt:  time.Now().Unix(),
				LastActive: time.Now().UnixNano(),
			},
		},
	}
}

func TestSyncMatch(t *testing.T) {
	db, mock := newMockDB(t)
	sm := NewSyncManager(fixture(), db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "parties"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "matches"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "match_players"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, sm.SyncMatch("m1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncMatchRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	sm := NewSyncManager(fixture(), db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "parties"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "matches"`)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := sm.SyncMatch("m1")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncMatchMissing(t *testing.T) {
	db, _ := newMockDB(t)
	sm := NewSyncManager(fixture(), db)
	assert.Error(t, sm.SyncMatch("nope"))
}

func TestSyncParty(t *testing.T) {
	db, mock := newMockDB(t)
	sm := NewSyncManager(fixture(), db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "parties"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "party_members"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "matches"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "match_players"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, sm.SyncParty("AbC123"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatchRecord(t *testing.T) {
	record, err := matchRecord(fixture().matches["m1"])
	require.NoError(t, err)

	assert.Equal(t, 4, record.Turns)
	require.NotNil(t, record.WinnerSeat)
	assert.Equal(t, 1, *record.WinnerSeat)
	require.Len(t, record.Players, 2)
	assert.False(t, record.Players[0].Winner)
	assert.True(t, record.Players[1].Winner)
	assert.True(t, record.Players[1].Left)
	assert.Contains(t, string(record.G), "Qh4#")
}

func TestPartyHistory(t *testing.T) {
	db, mock := newMockDB(t)
	sm := NewSyncManager(fixture(), db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "matches" WHERE party_id = $1 ORDER BY last_active desc`)).
		WithArgs("AbC123").
		WillReturnRows(sqlmock.NewRows([]string{"id", "party_id", "game_code", "status", "turns"}).
			AddRow("m1", "AbC123", "chess", "Finished", 4))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "match_players" WHERE "match_players"."match_id" = $1 ORDER BY seat`)).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"match_id", "participant_id", "seat", "winner"}).
			AddRow("m1", "p1", 0, false).
			AddRow("m1", "p2", 1, true))

	records, err := sm.PartyHistory("AbC123")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "chess", records[0].GameCode)
	require.Len(t, records[0].Players, 2)
	assert.True(t, records[0].Players[1].Winner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipantHistory(t *testing.T) {
	db, mock := newMockDB(t)
	sm := NewSyncManager(fixture(), db)

	mock.ExpectQuery(`SELECT (.+) FROM "matches" JOIN match_players ON match_players.match_id = matches.id WHERE match_players.participant_id = \$1 ORDER BY matches.last_active desc`).
		WithArgs("p2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "party_id", "game_code", "status"}).
			AddRow("m1", "AbC123", "chess", "Finished"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "match_players" WHERE "match_players"."match_id" = $1 ORDER BY seat`)).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"match_id", "participant_id", "seat"}).
			AddRow("m1", "p1", 0).
			AddRow("m1", "p2", 1))

	records, err := sm.ParticipantHistory("p2")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "m1", records[0].ID)
	assert.Len(t, records[0].Players, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
