package controllers

import (
	"log"
	"net/http"
	"strings"

	"Turnato/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type guestRequest struct {
	Nickname string `form:"nickname" json:"nickname"`
}

// @Summary Creates a guest participant
// @Description Hands out a participant id and a token. The id is also stored in the cookie session.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Accept json
// @Produce json
// @Param nickname formData string true "Name shown to the other players"
// @Success 200 {object} object{participant_id=string,nickname=string,token=string}
// @Failure 400 {object} object{error=string}
// @Failure 500 {object} object{error=string}
// @Router /guest [post]
func CreateGuest(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req guestRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		nickname := strings.TrimSpace(req.Nickname)
		if nickname == "" || len(nickname) > 50 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nickname must be between 1 and 50 characters"})
			return
		}

		id := uuid.NewString()
		token, err := middleware.GenerateToken(secret, id, nickname)
		if err != nil {
			log.Printf("[GUEST-ERROR] Error signing token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating guest"})
			return
		}

		session := sessions.Default(c)
		session.Set(middleware.ParticipantKey, id)
		session.Set(middleware.NicknameKey, nickname)
		if err := session.Save(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
			return
		}

		log.Printf("[GUEST] Participant %s (%s) created", id, nickname)
		c.JSON(http.StatusOK, gin.H{"participant_id": id, "nickname": nickname, "token": token})
	}
}

// @Summary Logs the guest out
// @Description Deletes the cookie session. Bearer tokens stay valid until they expire.
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 500 {object} object{error=string}
// @Router /auth/logout [delete]
// @Security ApiKeyAuth
func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(middleware.ParticipantKey)
	session.Delete(middleware.NicknameKey)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
