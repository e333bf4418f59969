package model

import (
	"sync"
	"time"

	"github.com/benbeisheim/dames-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Conn is the part of a websocket connection a game writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// The connections for a specific game
type GameConnections struct {
	connections map[string]Conn // playerID -> connection
	mu          sync.RWMutex
	writeMu     sync.Mutex
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

// Game is one session: the authoritative engine state plus its seats and
// observers.
type Game struct {
	ID          string
	CreatedAt   time.Time
	mu          sync.Mutex
	broadcastMu sync.Mutex // taken before mu is released so snapshots go out in commit order
	state       GameState
	players     Players
	connections *GameConnections
}

// ClientState is what clients render after every change.
type ClientState struct {
	ID              string       `json:"id"`
	Board           Board        `json:"board"`
	ToMove          PlayerColor  `json:"toMove"`
	Phase           string       `json:"phase"`
	Selected        *Position    `json:"selected"`
	LegalMoves      []Move       `json:"legalMoves"`
	ChainInProgress bool         `json:"chainInProgress"`
	Chain           []Move       `json:"chain"`
	Winner          *PlayerColor `json:"winner"`
	Status          string       `json:"status"`
	LastMove        *Move        `json:"lastMove"`
	Players         Players      `json:"players"`
}

func NewGame(id string) *Game {
	return &Game{
		ID:          id,
		CreatedAt:   time.Now(),
		state:       NewGameState(),
		connections: NewGameConnections(),
	}
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]Conn),
	}
}

func newClientState(id string, s GameState, players Players) ClientState {
	status := s.Status()
	cs := ClientState{
		ID:              id,
		Board:           s.Board(),
		ToMove:          s.Turn(),
		Phase:           s.Phase().Name(),
		LegalMoves:      []Move{},
		ChainInProgress: status.ChainInProgress,
		Chain:           []Move{},
		Winner:          status.Winner,
		Status:          status.Text,
		LastMove:        s.LastMove(),
		Players:         players,
	}
	if selected, ok := s.Selected(); ok {
		cs.Selected = &selected
		cs.LegalMoves = s.LegalMoves(selected)
	}
	if ph, ok := s.Phase().(ChainInProgress); ok {
		cs.Chain = ph.Chain.Moves()
	}
	return cs
}

// AddPlayer seats playerID, white first. A player already seated gets their
// colour back.
func (g *Game) AddPlayer(playerID string) (PlayerColor, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if color, ok := g.colorOf(playerID); ok {
		return color, nil
	}
	if g.players.White.ID == "" {
		g.players.White = ClientPlayer{ID: playerID, Color: PlayerColorWhite}
		log.Info().Str("game", g.ID).Str("player", playerID).Msg("player seated as white")
		return PlayerColorWhite, nil
	}
	if g.players.Black.ID == "" {
		g.players.Black = ClientPlayer{ID: playerID, Color: PlayerColorBlack}
		log.Info().Str("game", g.ID).Str("player", playerID).Msg("player seated as black")
		return PlayerColorBlack, nil
	}
	return "", ErrGameFull
}

func (g *Game) colorOf(playerID string) (PlayerColor, bool) {
	if playerID == "" {
		return "", false
	}
	switch playerID {
	case g.players.White.ID:
		return PlayerColorWhite, true
	case g.players.Black.ID:
		return PlayerColorBlack, true
	}
	return "", false
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.colorOf(playerID)
	return ok
}

func (g *Game) canSpectate() bool {
	return g.players.White.ID == "" || g.players.Black.ID == ""
}

func (g *Game) GetState() ClientState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return newClientState(g.ID, g.state, g.players)
}

// State returns the engine snapshot.
func (g *Game) State() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state
}

func (g *Game) LegalMoves(pos Position) []Move {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.state.LegalMoves(pos)
}

// update runs fn against the state on behalf of playerID's turn, stores the
// result and broadcasts it.
func (g *Game) update(playerID string, fn func(GameState) (GameState, error)) (ClientState, error) {
	g.mu.Lock()
	color, ok := g.colorOf(playerID)
	if !ok {
		g.mu.Unlock()
		return ClientState{}, ErrNotInGame
	}
	if g.state.IsOver() {
		g.mu.Unlock()
		return ClientState{}, ErrGameOver
	}
	if color != g.state.Turn() {
		g.mu.Unlock()
		return ClientState{}, ErrNotYourTurn
	}
	next, err := fn(g.state)
	if err != nil {
		g.mu.Unlock()
		return ClientState{}, err
	}
	g.state = next
	snapshot := newClientState(g.ID, g.state, g.players)
	g.publishLocked(snapshot)
	return snapshot, nil
}

// publishLocked releases g.mu and broadcasts snapshot. The caller must hold
// g.mu.
func (g *Game) publishLocked(snapshot ClientState) {
	g.broadcastMu.Lock()
	defer g.broadcastMu.Unlock()
	g.mu.Unlock()

	g.broadcast(snapshot)
}

// MakeMove plays a move strictly: anything not currently legal is rejected
// and the state is left as it was.
func (g *Game) MakeMove(playerID string, move WSMove) (ClientState, error) {
	log.Debug().Str("game", g.ID).Str("player", playerID).Stringer("from", move.From).Stringer("to", move.To).Msg("making move")
	return g.update(playerID, func(s GameState) (GameState, error) {
		if !move.From.OnBoard() || !move.To.OnBoard() {
			return s, errors.Wrapf(ErrIllegalMove, "%s -> %s is off the board", move.From, move.To)
		}
		m, ok := s.FindMove(move.From, move.To)
		if !ok {
			return s, errors.Wrapf(ErrIllegalMove, "%s -> %s", move.From, move.To)
		}
		return s.Apply(m)
	})
}

// Click forwards a board click. Clicks that make no sense are absorbed by
// the engine rather than reported.
func (g *Game) Click(playerID string, pos Position) (ClientState, error) {
	return g.update(playerID, func(s GameState) (GameState, error) {
		return s.Click(pos), nil
	})
}

// Reset replaces the board with a fresh game; seats are kept.
func (g *Game) Reset(playerID string) (ClientState, error) {
	g.mu.Lock()
	if _, ok := g.colorOf(playerID); !ok {
		g.mu.Unlock()
		return ClientState{}, ErrNotInGame
	}
	g.state = NewGameState()
	snapshot := newClientState(g.ID, g.state, g.players)
	log.Info().Str("game", g.ID).Str("player", playerID).Msg("game reset")
	g.publishLocked(snapshot)
	return snapshot, nil
}

func (g *Game) RegisterConnection(playerID string, conn Conn) error {
	g.mu.Lock()
	_, seated := g.colorOf(playerID)
	isAuthorized := seated || g.canSpectate()
	g.mu.Unlock()

	if !isAuthorized {
		return errors.New("not authorized to join this game")
	}

	g.connections.mu.Lock()
	if _, exists := g.connections.connections[playerID]; exists {
		// keep the healthy connection and turn the new one away
		g.connections.mu.Unlock()
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(
				websocket.CloseNormalClosure,
				"Connection already exists",
			),
		)
		conn.Close()
		return nil
	}
	g.connections.connections[playerID] = conn
	g.connections.mu.Unlock()
	log.Debug().Str("game", g.ID).Str("player", playerID).Msg("registered connection")

	g.mu.Lock()
	g.publishLocked(newClientState(g.ID, g.state, g.players))
	return nil
}

// UnregisterConnection forgets playerID's connection if conn is still the
// current one.
func (g *Game) UnregisterConnection(playerID string, conn Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	current, exists := g.connections.connections[playerID]
	if !exists {
		return
	}
	if conn != nil && current != conn {
		log.Debug().Str("game", g.ID).Str("player", playerID).Msg("ignoring unregister for old connection")
		return
	}
	delete(g.connections.connections, playerID)
	log.Debug().Str("game", g.ID).Str("player", playerID).Msg("unregistered connection")
}

func (g *Game) ConnectionCount() int {
	g.connections.mu.RLock()
	defer g.connections.mu.RUnlock()
	return len(g.connections.connections)
}

// Send writes one message to playerID's connection.
func (g *Game) Send(playerID string, msg ws.Message) error {
	g.connections.mu.RLock()
	conn, ok := g.connections.connections[playerID]
	g.connections.mu.RUnlock()
	if !ok {
		return errors.Errorf("no connection for player %s", playerID)
	}

	g.connections.writeMu.Lock()
	defer g.connections.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

func (g *Game) broadcast(state ClientState) {
	if err := g.broadcastState(state); err != nil {
		log.Warn().Err(err).Str("game", g.ID).Msg("broadcast incomplete")
	}
}

// broadcastState pushes state to every connection. Connections that fail are
// dropped.
func (g *Game) broadcastState(state ClientState) error {
	msg, err := ws.NewMessage(ws.MessageTypeGameState, state)
	if err != nil {
		return errors.Wrap(err, "marshal state")
	}

	g.connections.mu.RLock()
	activeConnections := make(map[string]Conn, len(g.connections.connections))
	for playerID, conn := range g.connections.connections {
		activeConnections[playerID] = conn
	}
	g.connections.mu.RUnlock()

	var errs error
	failed := []string{}
	g.connections.writeMu.Lock()
	for playerID, conn := range activeConnections {
		if err := conn.WriteJSON(msg); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "send state to %s", playerID))
			failed = append(failed, playerID)
		}
	}
	g.connections.writeMu.Unlock()

	if len(failed) > 0 {
		g.connections.mu.Lock()
		for _, playerID := range failed {
			delete(g.connections.connections, playerID)
		}
		g.connections.mu.Unlock()
	}
	return errs
}

// Close closes every connection of the game.
func (g *Game) Close() error {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	var errs error
	for playerID, conn := range g.connections.connections {
		if err := conn.Close(); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "close connection of %s", playerID))
		}
		delete(g.connections.connections, playerID)
	}
	return errs
}
