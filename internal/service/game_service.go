package service

import (
	"github.com/benbeisheim/dames-backend/internal/model"
	"github.com/benbeisheim/dames-backend/internal/ws"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

func (gs *GameService) CreateGame() (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID); err != nil {
		return "", errors.Wrap(err, "failed to create game")
	}

	return gameID, nil
}

func (gs *GameService) JoinGame(gameID string, playerID string) (model.PlayerColor, error) {
	return gs.gameManager.AddPlayerToGame(gameID, playerID)
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) GetGameState(gameID string) (model.ClientState, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.ClientState{}, err
	}
	return game.GetState(), nil
}

func (gs *GameService) LegalMoves(gameID string, pos model.Position) ([]model.Move, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.LegalMoves(pos), nil
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.WSMove) (model.ClientState, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.ClientState{}, err
	}
	return game.MakeMove(playerID, move)
}

func (gs *GameService) HandleClick(gameID string, playerID string, pos model.Position) (model.ClientState, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.ClientState{}, err
	}
	return game.Click(playerID, pos)
}

func (gs *GameService) ResetGame(gameID string, playerID string) (model.ClientState, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.ClientState{}, err
	}
	return game.Reset(playerID)
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn model.Conn) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn model.Conn) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}

func (gs *GameService) SendToPlayer(gameID string, playerID string, msg ws.Message) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.Send(playerID, msg)
}

// StartMatchmaking queues playerID and delivers the match event on ch. A
// player who is already queued keeps their place; ch replaces the channel of
// the earlier request, which gets closed.
func (gs *GameService) StartMatchmaking(playerID string, ch chan string) error {
	if err := gs.gameManager.RegisterMatchmakingChannel(playerID, ch); err != nil {
		return err
	}
	err := gs.gameManager.JoinMatchmaking(playerID)
	if err != nil && !errors.Is(err, model.ErrAlreadyQueued) {
		gs.gameManager.UnregisterMatchmakingChannel(playerID, ch)
		return err
	}
	return nil
}

// StopMatchmaking takes playerID out of the queue unless ch has been
// superseded by a newer request or already received its match.
func (gs *GameService) StopMatchmaking(playerID string, ch chan string) {
	if gs.gameManager.UnregisterMatchmakingChannel(playerID, ch) {
		gs.gameManager.LeaveMatchmaking(playerID)
	}
}
