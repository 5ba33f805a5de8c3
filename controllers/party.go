package controllers

import (
	"log"
	"net/http"

	"Turnato/middleware"
	"Turnato/models/postgres"
	"Turnato/services/party"

	"github.com/gin-gonic/gin"
)

// HistoryReader reads archived matches.
type HistoryReader interface {
	PartyHistory(partyId string) ([]postgres.MatchRecord, error)
	ParticipantHistory(participantId string) ([]postgres.MatchRecord, error)
}

// PartyController serves the party and match routes. History may be nil when no
// archive database is configured.
type PartyController struct {
	Coord   *party.Coordinator
	History HistoryReader
}

type createPartyRequest struct {
	Name   string `form:"name" json:"name"`
	Secret string `form:"secret" json:"secret"`
}

type joinPartyRequest struct {
	Secret string `form:"secret" json:"secret"`
}

// @Summary Creates a new party
// @Description Creates a party and joins the caller to it. The party id doubles as the invite link.
// @Tags party
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param name formData string false "Display name of the party"
// @Param secret formData string false "Invite secret, makes the party private"
// @Success 201 {object} party.Snapshot
// @Failure 400 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/parties [post]
// @Security ApiKeyAuth
func (pc *PartyController) CreateParty(c *gin.Context) {
	var req createPartyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.Name) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Party name too long"})
		return
	}

	snap, err := pc.Coord.CreateParty(req.Name, req.Secret)
	if err != nil {
		abortWith(c, "PARTY-CREATE", err)
		return
	}
	snap, err = pc.Coord.Join(snap.ID, middleware.Participant(c), middleware.Nickname(c), req.Secret)
	if err != nil {
		abortWith(c, "PARTY-CREATE", err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// @Summary Gives the state of a party
// @Description Members with connectivity, down-votes per game and matches, newest activity first
// @Tags party
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param party_id path string true "Id of the party"
// @Success 200 {object} party.Snapshot
// @Failure 404 {object} object{error=string}
// @Router /auth/parties/{party_id} [get]
// @Security ApiKeyAuth
func (pc *PartyController) GetParty(c *gin.Context) {
	snap, err := pc.Coord.Snapshot(c.Param("party_id"))
	if err != nil {
		abortWith(c, "PARTY", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary Joins a party
// @Description Idempotent. Private parties need their secret.
// @Tags party
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param party_id path string true "Id of the party"
// @Param secret formData string false "Invite secret"
// @Success 200 {object} party.Snapshot
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/parties/{party_id}/join [post]
// @Security ApiKeyAuth
func (pc *PartyController) JoinParty(c *gin.Context) {
	var req joinPartyRequest
	_ = c.ShouldBind(&req)

	snap, err := pc.Coord.Join(c.Param("party_id"), middleware.Participant(c), middleware.Nickname(c), req.Secret)
	if err != nil {
		abortWith(c, "JOIN", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary Leaves a party
// @Description Drops membership and down-votes. Matches keep going; the party closes when empty.
// @Tags party
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param party_id path string true "Id of the party"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/parties/{party_id}/leave [post]
// @Security ApiKeyAuth
func (pc *PartyController) LeaveParty(c *gin.Context) {
	if err := pc.Coord.Leave(c.Param("party_id"), middleware.Participant(c)); err != nil {
		abortWith(c, "LEAVE", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left the party"})
}

// @Summary Disbands a party
// @Description Closes the party for everyone: it is archived and its matches stop. Members only.
// @Tags party
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param party_id path string true "Id of the party"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/parties/{party_id} [delete]
// @Security ApiKeyAuth
func (pc *PartyController) DisbandParty(c *gin.Context) {
	if err := pc.Coord.Disband(c.Param("party_id"), middleware.Participant(c)); err != nil {
		abortWith(c, "DISBAND", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Party disbanded"})
}

// @Summary Toggles the caller's down-vote for a game
// @Description When enough members are down, a match is spawned with exactly those players
// @Tags party
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param party_id path string true "Id of the party"
// @Param game_code path string true "Catalog code of the game"
// @Success 200 {object} object{party=party.Snapshot,match=string}
// @Failure 400 {object} object{error=string}
// @Failure 403 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/parties/{party_id}/down/{game_code} [post]
// @Security ApiKeyAuth
func (pc *PartyController) ToggleDown(c *gin.Context) {
	partyID := c.Param("party_id")
	m, err := pc.Coord.ToggleDown(partyID, middleware.Participant(c), c.Param("game_code"))
	if err != nil {
		abortWith(c, "DOWN", err)
		return
	}
	snap, err := pc.Coord.Snapshot(partyID)
	if err != nil {
		abortWith(c, "DOWN", err)
		return
	}
	body := gin.H{"party": snap}
	if m != nil {
		body["match"] = m.ID
	}
	c.JSON(http.StatusOK, body)
}

// @Summary Lists the matches of a party for the caller
// @Description Most recently active first; "active" marks unfinished matches the caller is seated in
// @Tags party
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param party_id path string true "Id of the party"
// @Success 200 {array} party.MatchEntry
// @Failure 404 {object} object{error=string}
// @Router /auth/parties/{party_id}/matches [get]
// @Security ApiKeyAuth
func (pc *PartyController) ListMatches(c *gin.Context) {
	entries, err := pc.Coord.ListMatches(c.Param("party_id"), middleware.Participant(c))
	if err != nil {
		abortWith(c, "MATCHES", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// @Summary Lists the archived matches of a party
// @Description Finished matches and matches of closed parties, read from PostgreSQL
// @Tags party
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param party_id path string true "Id of the party"
// @Success 200 {array} object
// @Failure 500 {object} object{error=string}
// @Failure 503 {object} object{error=string}
// @Router /auth/parties/{party_id}/history [get]
// @Security ApiKeyAuth
func (pc *PartyController) PartyHistory(c *gin.Context) {
	if pc.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Match history is not available"})
		return
	}
	records, err := pc.History.PartyHistory(c.Param("party_id"))
	if err != nil {
		log.Printf("[HISTORY-ERROR] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading match history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// @Summary Lists the archived matches of the caller
// @Tags party
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Success 200 {array} object
// @Failure 500 {object} object{error=string}
// @Failure 503 {object} object{error=string}
// @Router /auth/history [get]
// @Security ApiKeyAuth
func (pc *PartyController) MyHistory(c *gin.Context) {
	if pc.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Match history is not available"})
		return
	}
	records, err := pc.History.ParticipantHistory(middleware.Participant(c))
	if err != nil {
		log.Printf("[HISTORY-ERROR] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading match history"})
		return
	}
	c.JSON(http.StatusOK, records)
}
