package controllers

import (
	"errors"
	"log"
	"net/http"

	"Turnato/models/game"

	"github.com/gin-gonic/gin"
)

func statusFor(err error) int {
	switch {
	case game.IsLookup(err):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotMember), errors.Is(err, game.ErrWrongSecret):
		return http.StatusForbidden
	case errors.Is(err, game.ErrUnknownGame):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrPartyClosed):
		return http.StatusGone
	case errors.Is(err, game.ErrValidatorUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func abortWith(c *gin.Context, tag string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[%s-ERROR] %v", tag, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
