package controllers

import (
	"net/http"

	"Turnato/middleware"
	"Turnato/models/game"

	"github.com/gin-gonic/gin"
)

type moveRequest struct {
	Move string `form:"move" json:"move" binding:"required"`
	Turn *int   `form:"turn" json:"turn" binding:"required"`
}

// @Summary Gives the caller's view of a match
// @Description G, ctx, status line and the caller's selection overlay. Non-players get a spectator view.
// @Tags match
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param match_id path string true "Id of the match"
// @Success 200 {object} session.View
// @Failure 404 {object} object{error=string}
// @Router /auth/matches/{match_id} [get]
// @Security ApiKeyAuth
func (pc *PartyController) GetMatch(c *gin.Context) {
	m, err := pc.Coord.Match(c.Param("match_id"))
	if err != nil {
		abortWith(c, "MATCH", err)
		return
	}
	c.JSON(http.StatusOK, m.Session().ViewFor(middleware.Participant(c)))
}

// @Summary Submits a move
// @Description The move must be computed against the match's current turn. Rejected moves are not errors: the response says whether the move was applied.
// @Tags match
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param match_id path string true "Id of the match"
// @Param move body object{move=string,turn=integer} true "Move descriptor and the turn it was computed for"
// @Success 200 {object} object{applied=boolean,view=session.View}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 503 {object} object{error=string}
// @Router /auth/matches/{match_id}/moves [post]
// @Security ApiKeyAuth
func (pc *PartyController) SendMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A move and a turn are required"})
		return
	}
	m, err := pc.Coord.Match(c.Param("match_id"))
	if err != nil {
		abortWith(c, "MOVE", err)
		return
	}

	participant := middleware.Participant(c)
	err = m.Session().ApplyMove(c.Request.Context(), participant, game.Move{Turn: *req.Turn, Descriptor: req.Move})
	if err != nil && !game.IsDropped(err) {
		abortWith(c, "MOVE", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": err == nil, "view": m.Session().ViewFor(participant)})
}

// @Summary Activates a board square
// @Description Selects, deselects or moves, depending on the caller's current selection
// @Tags match
// @Produce json
// @Param Authorization header string true "Bearer JWT token"
// @Param match_id path string true "Id of the match"
// @Param square path string true "Square, e.g. e2"
// @Success 200 {object} object{moved=boolean,view=session.View}
// @Failure 404 {object} object{error=string}
// @Failure 503 {object} object{error=string}
// @Router /auth/matches/{match_id}/squares/{square} [post]
// @Security ApiKeyAuth
func (pc *PartyController) ActivateSquare(c *gin.Context) {
	m, err := pc.Coord.Match(c.Param("match_id"))
	if err != nil {
		abortWith(c, "SQUARE", err)
		return
	}

	participant := middleware.Participant(c)
	emitted, err := m.Session().ActivateSquare(c.Request.Context(), participant, c.Param("square"))
	if err != nil && !game.IsDropped(err) {
		abortWith(c, "SQUARE", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": emitted && err == nil, "view": m.Session().ViewFor(participant)})
}
