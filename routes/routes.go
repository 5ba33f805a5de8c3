package routes

import (
	"Turnato/controllers"
	"Turnato/middleware"
	"Turnato/services/party"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes. history may be nil.
func SetupRoutes(router *gin.Engine, coord *party.Coordinator, history controllers.HistoryReader, secret []byte) {
	partyController := &controllers.PartyController{Coord: coord, History: history}

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.GET("/games", controllers.ListGames(coord.Catalog()))

	api.POST("/guest", controllers.CreateGuest(secret))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired(secret))
	{
		authentication.DELETE("/logout", controllers.Logout)
		authentication.GET("/history", partyController.MyHistory)

		parties := authentication.Group("/parties")
		{
			parties.POST("", partyController.CreateParty)
			parties.GET("/:party_id", partyController.GetParty)
			parties.DELETE("/:party_id", partyController.DisbandParty)
			parties.POST("/:party_id/join", partyController.JoinParty)
			parties.POST("/:party_id/leave", partyController.LeaveParty)
			parties.POST("/:party_id/down/:game_code", partyController.ToggleDown)
			parties.GET("/:party_id/matches", partyController.ListMatches)
			parties.GET("/:party_id/history", partyController.PartyHistory)
		}

		matches := authentication.Group("/matches")
		{
			matches.GET("/:match_id", partyController.GetMatch)
			matches.POST("/:match_id/moves", partyController.SendMove)
			matches.POST("/:match_id/squares/:square", partyController.ActivateSquare)
		}
	}
}
