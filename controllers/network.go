package controllers

import (
	"net/http"

	"Turnato/services/catalog"

	"github.com/gin-gonic/gin"
)

// @Summary Endpoint just pings the server
// @Description Returns a basic message
// @Tags test
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /ping [get]
func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// @Summary Lists the playable games
// @Description Returns the game catalog: codes, names, player counts and seat names
// @Tags games
// @Produce json
// @Success 200 {array} catalog.Game
// @Router /games [get]
func ListGames(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, cat.All())
	}
}
