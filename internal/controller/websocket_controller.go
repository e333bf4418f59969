package controller

import (
	"encoding/json"

	"github.com/benbeisheim/dames-backend/internal/model"
	"github.com/benbeisheim/dames-backend/internal/service"
	"github.com/benbeisheim/dames-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

type legalMovesReply struct {
	Position model.Position `json:"position"`
	Moves    []model.Move   `json:"moves"`
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID := c.Locals("playerID").(string)
	logger := log.With().Str("game", gameID).Str("player", playerID).Logger()

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		logger.Warn().Err(err).Msg("failed to register connection")
		c.Close()
		return
	}
	logger.Debug().Msg("websocket connected")

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			logger.Debug().Err(err).Msg("read error")
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Debug().Err(err).Msg("parse error")
			continue
		}

		if err := wsc.handleMessage(gameID, playerID, msg); err != nil {
			logger.Debug().Err(err).Str("type", string(msg.Type)).Msg("handle error")
			wsc.sendError(gameID, playerID, err)
		}
	}

	wsc.gameService.UnregisterConnection(gameID, playerID, c)
}

// Handle different types of incoming messages. State changes are broadcast
// by the game itself.
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WSMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return err
		}
		_, err := wsc.gameService.HandleMove(gameID, playerID, move)
		return err

	case ws.MessageTypeClick:
		var pos model.Position
		if err := json.Unmarshal(msg.Payload, &pos); err != nil {
			return err
		}
		_, err := wsc.gameService.HandleClick(gameID, playerID, pos)
		return err

	case ws.MessageTypeReset:
		_, err := wsc.gameService.ResetGame(gameID, playerID)
		return err

	case ws.MessageTypeLegalMoves:
		var pos model.Position
		if err := json.Unmarshal(msg.Payload, &pos); err != nil {
			return err
		}
		moves, err := wsc.gameService.LegalMoves(gameID, pos)
		if err != nil {
			return err
		}
		reply, err := ws.NewMessage(ws.MessageTypeLegalMoves, legalMovesReply{Position: pos, Moves: moves})
		if err != nil {
			return err
		}
		return wsc.gameService.SendToPlayer(gameID, playerID, reply)

	default:
		return errors.Errorf("unknown message type: %s", msg.Type)
	}
}

func (wsc *WebSocketController) sendError(gameID, playerID string, err error) {
	msg, merr := ws.NewMessage(ws.MessageTypeError, ws.ErrorPayload{Error: err.Error()})
	if merr != nil {
		return
	}
	if err := wsc.gameService.SendToPlayer(gameID, playerID, msg); err != nil {
		log.Debug().Err(err).Str("game", gameID).Str("player", playerID).Msg("failed to send error")
	}
}

// HandleMatchmaking queues the player and waits until a match is found or
// the client goes away.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID := c.Locals("playerID").(string)
	logger := log.With().Str("player", playerID).Logger()

	ch := make(chan string, 1)
	if err := wsc.gameService.StartMatchmaking(playerID, ch); err != nil {
		logger.Warn().Err(err).Msg("failed to start matchmaking")
		if msg, merr := ws.NewMessage(ws.MessageTypeError, ws.ErrorPayload{Error: err.Error()}); merr == nil {
			c.WriteJSON(msg)
		}
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			logger.Debug().Msg("matchmaking taken over by a newer connection")
			return
		}
		if err := c.WriteJSON(ws.Message{
			Type:    ws.MessageTypeMatchFound,
			Payload: json.RawMessage(event),
		}); err != nil {
			logger.Warn().Err(err).Msg("failed to send match found event")
		}
	case <-done:
		wsc.gameService.StopMatchmaking(playerID, ch)
		logger.Debug().Msg("left matchmaking")
	}
}
