// handlers/game.go
package handlers

import (
	"game-room-system/middleware"
	"game-room-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupGameRoutes(
	app *fiber.App,
	roomService *services.RoomService,
	scoreService *services.ScoreService,
	blockService *services.BlockService,
	leaderboardService *services.LeaderboardService,
) {
	// Public routes — still behind Gateway auth, no user context needed
	app.Get("/game/list", blockService.GetGames)
	app.Get("/game/tournament-blocks", blockService.GetTournamentBlocks)

	// Secured routes — require user context (X-User-ID) from Gateway
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/game/play", roomService.JoinRoom)
	secured.Post("/game/submit-score", scoreService.SubmitScore)
	secured.Get("/game/result", roomService.GetRoomResult)

	secured.Get("/game/leaderboard", leaderboardService.GetLeaderboard)
	secured.Get("/game/fame", leaderboardService.GetFame)
}
