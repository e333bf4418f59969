package controller

import (
	"github.com/benbeisheim/dames-backend/internal/model"
	"github.com/benbeisheim/dames-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// Register mounts the game routes on router.
func (gc *GameController) Register(router fiber.Router) {
	router.Post("/matchmaking/join", gc.JoinMatchmaking)
	router.Post("/create", gc.CreateGame)
	router.Post("/join/:gameId", gc.JoinGame)
	router.Get("/:gameId", gc.GetGameState)
	router.Get("/:gameId/moves", gc.LegalMoves)
	router.Post("/:gameId/move", gc.MakeMove)
	router.Post("/:gameId/click", gc.Click)
	router.Post("/:gameId/reset", gc.Reset)
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	gameID, err := gc.gameService.CreateGame()
	if err != nil {
		return sendError(c, err)
	}
	log.Info().Str("game", gameID).Msg("game created")
	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := c.Locals("playerID").(string)

	color, err := gc.gameService.JoinGame(gameID, playerID)
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	playerID := c.Locals("playerID").(string)

	if err := gc.gameService.JoinMatchmaking(playerID); err != nil {
		return sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

// LegalMoves answers GET /:gameId/moves?row=&col=.
func (gc *GameController) LegalMoves(c *fiber.Ctx) error {
	pos := model.Position{Row: c.QueryInt("row", -1), Col: c.QueryInt("col", -1)}
	if !pos.OnBoard() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "row and col must be within the board",
		})
	}

	moves, err := gc.gameService.LegalMoves(c.Params("gameId"), pos)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"position": pos,
		"moves":    moves,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var move model.WSMove
	if err := c.BodyParser(&move); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid move payload",
		})
	}

	state, err := gc.gameService.HandleMove(c.Params("gameId"), c.Locals("playerID").(string), move)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(state)
}

func (gc *GameController) Click(c *fiber.Ctx) error {
	var pos model.Position
	if err := c.BodyParser(&pos); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid click payload",
		})
	}

	state, err := gc.gameService.HandleClick(c.Params("gameId"), c.Locals("playerID").(string), pos)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(state)
}

func (gc *GameController) Reset(c *fiber.Ctx) error {
	state, err := gc.gameService.ResetGame(c.Params("gameId"), c.Locals("playerID").(string))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(state)
}
