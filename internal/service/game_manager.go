package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/benbeisheim/dames-backend/internal/log2"
	"github.com/benbeisheim/dames-backend/internal/model"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

// MatchFoundEvent is pushed to both players when matchmaking pairs them.
type MatchFoundEvent struct {
	GameID string            `json:"gameId"`
	Color  model.PlayerColor `json:"color"`
}

type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	mu               sync.RWMutex
}

func NewGameManager() *GameManager {
	return &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
	}
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	log.Debug().Str("player", playerID).Msg("registering matchmaking channel")

	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		// remove first so nothing writes to the closed channel
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}

	gm.matchingChannels[playerID] = ch
	return nil
}

// UnregisterMatchmakingChannel forgets ch without closing it; the caller that
// created the channel owns it. It reports false when ch was already replaced
// or consumed.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan string) bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, ok := gm.matchingChannels[playerID]; !ok || current != ch {
		return false
	}
	log.Debug().Str("player", playerID).Msg("unregistering matchmaking channel")
	delete(gm.matchingChannels, playerID)
	return true
}

// RunMatchmaking pairs queued players every interval until ctx is done.
func (gm *GameManager) RunMatchmaking(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log2.Debugf("matchmaking every %s", interval)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for gm.matchNextPair() {
			}
		}
	}
}

// matchNextPair creates a game for the two longest-waiting players and tells
// them about it. It reports whether a pair was matched.
func (gm *GameManager) matchNextPair() bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	player1, player2, ok := gm.queue.GetNextPair()
	if !ok {
		return false
	}

	gameID := uuid.New().String()
	game := model.NewGame(gameID)
	p1Color, err := game.AddPlayer(player1.ID)
	if err != nil {
		log.Error().Err(err).Str("player", player1.ID).Msg("adding player to game")
		return true
	}
	p2Color, err := game.AddPlayer(player2.ID)
	if err != nil {
		log.Error().Err(err).Str("player", player2.ID).Msg("adding player to game")
		return true
	}
	gm.games[gameID] = game
	log.Info().Str("game", gameID).Str("white", player1.ID).Str("black", player2.ID).Msg("match found")

	sendEventAndCleanup := func(playerID string, event MatchFoundEvent) bool {
		ch, ok := gm.matchingChannels[playerID]
		if !ok {
			return false
		}
		select {
		case ch <- mustJSON(event):
			delete(gm.matchingChannels, playerID)
			close(ch)
			return true
		default:
			log.Warn().Str("player", playerID).Msg("failed to send match found event")
			return false
		}
	}

	sent1 := sendEventAndCleanup(player1.ID, MatchFoundEvent{GameID: gameID, Color: p1Color})
	sent2 := sendEventAndCleanup(player2.ID, MatchFoundEvent{GameID: gameID, Color: p2Color})
	if !sent1 || !sent2 {
		// players can still join through the REST api with the game id
		log.Warn().Str("game", gameID).Msg("failed to notify all players of match")
	}
	return true
}

func mustJSON(v interface{}) string {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (gm *GameManager) CreateGame(gameID string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return ErrGameExists
	}

	gm.games[gameID] = model.NewGame(gameID)
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, errors.Wrap(ErrGameNotFound, gameID)
	}

	return game, nil
}

func (gm *GameManager) AddPlayerToGame(gameID string, playerID string) (model.PlayerColor, error) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return game.AddPlayer(playerID)
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	if err := gm.queue.AddPlayer(model.Player{ID: playerID}); err != nil {
		return errors.Wrapf(err, "queue %s", playerID)
	}
	log.Debug().Str("player", playerID).Int("queued", gm.queue.Size()).Msg("joined matchmaking")
	return nil
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.RemovePlayer(playerID)
}

func (gm *GameManager) GameCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return len(gm.games)
}

// Shutdown closes the connections of every game.
func (gm *GameManager) Shutdown() error {
	gm.mu.RLock()
	games := make([]*model.Game, 0, len(gm.games))
	for _, game := range gm.games {
		games = append(games, game)
	}
	gm.mu.RUnlock()

	var errs error
	for _, game := range games {
		if err := game.Close(); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "close game %s", game.ID))
		}
	}
	return errs
}
