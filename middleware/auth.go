package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// Session and gin context key holding the authenticated participant id
	ParticipantKey = "Participant"
	NicknameKey    = "Nickname"

	tokenTTL = 7 * 24 * time.Hour
)

// Claims identify a guest participant. Participants have no account: the token is
// handed out by POST /guest and is the participant's identity from then on.
type Claims struct {
	Nickname string `json:"nickname"`
	jwt.RegisteredClaims
}

// GenerateToken signs a guest token for the participant.
func GenerateToken(secret []byte, participantID, nickname string) (string, error) {
	now := time.Now()
	claims := Claims{
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   participantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates a token and returns its claims.
func ParseToken(secret []byte, raw string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}

// JWT_decoder reads the Bearer token of a request.
func JWT_decoder(c *gin.Context, secret []byte) (*Claims, error) {
	header := c.GetHeader("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return nil, errors.New("missing bearer token")
	}
	return ParseToken(secret, raw)
}

// Socketio_JWT_decoder reads the token sent in the socket.io handshake auth payload,
// either as {"token": "..."} or {"Authorization": "Bearer ..."}.
func Socketio_JWT_decoder(auth interface{}, secret []byte) (*Claims, error) {
	data, ok := auth.(map[string]interface{})
	if !ok {
		return nil, errors.New("authentication data missing")
	}
	if raw, ok := data["token"].(string); ok && raw != "" {
		return ParseToken(secret, raw)
	}
	if header, ok := data["Authorization"].(string); ok {
		if raw, found := strings.CutPrefix(header, "Bearer "); found && raw != "" {
			return ParseToken(secret, raw)
		}
	}
	return nil, errors.New("token not found in authentication")
}

// AuthRequired accepts either a Bearer token or a cookie session set by POST /guest,
// and stores the participant id in the gin context.
func AuthRequired(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := JWT_decoder(c, secret); err == nil {
			c.Set(ParticipantKey, claims.Subject)
			c.Set(NicknameKey, claims.Nickname)
			c.Next()
			return
		}

		session := sessions.Default(c)
		id, _ := session.Get(ParticipantKey).(string)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		nickname, _ := session.Get(NicknameKey).(string)
		c.Set(ParticipantKey, id)
		c.Set(NicknameKey, nickname)
		c.Next()
	}
}

// Participant returns the id stored by AuthRequired.
func Participant(c *gin.Context) string {
	return c.GetString(ParticipantKey)
}

// Nickname returns the nickname stored by AuthRequired.
func Nickname(c *gin.Context) string {
	return c.GetString(NicknameKey)
}
