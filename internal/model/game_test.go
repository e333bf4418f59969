package model

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/benbeisheim/dames-backend/internal/ws"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []ws.Message
	raw      []int
	closed   bool
	failing  bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing {
		return errors.New("broken pipe")
	}
	msg, ok := v.(ws.Message)
	if !ok {
		return errors.Errorf("unexpected payload %T", v)
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raw = append(c.raw, messageType)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) states(t *testing.T) []ClientState {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	states := []ClientState{}
	for _, msg := range c.messages {
		if msg.Type != ws.MessageTypeGameState {
			continue
		}
		var state ClientState
		require.NoError(t, json.Unmarshal(msg.Payload, &state))
		states = append(states, state)
	}
	return states
}

func seatedGame(t *testing.T) *Game {
	t.Helper()
	g := NewGame("game-1")
	color, err := g.AddPlayer("alice")
	require.NoError(t, err)
	require.Equal(t, PlayerColorWhite, color)
	color, err = g.AddPlayer("bob")
	require.NoError(t, err)
	require.Equal(t, PlayerColorBlack, color)
	return g
}

func TestGameAddPlayer(t *testing.T) {
	g := seatedGame(t)

	color, err := g.AddPlayer("alice")
	require.NoError(t, err)
	assert.Equal(t, PlayerColorWhite, color, "rejoining keeps the seat")

	_, err = g.AddPlayer("carol")
	assert.Equal(t, ErrGameFull, err)

	assert.True(t, g.IsPlayerInGame("bob"))
	assert.False(t, g.IsPlayerInGame("carol"))
	assert.False(t, g.IsPlayerInGame(""))

	state := g.GetState()
	assert.Equal(t, "alice", state.Players.White.ID)
	assert.Equal(t, "bob", state.Players.Black.ID)
}

func TestGameMakeMove(t *testing.T) {
	g := seatedGame(t)

	_, err := g.MakeMove("bob", WSMove{From: pos(2, 1), To: pos(3, 0)})
	assert.Equal(t, ErrNotYourTurn, err)

	_, err = g.MakeMove("carol", WSMove{From: pos(5, 0), To: pos(4, 1)})
	assert.Equal(t, ErrNotInGame, err)

	_, err = g.MakeMove("alice", WSMove{From: pos(5, 0), To: pos(3, 2)})
	assert.True(t, errors.Is(err, ErrIllegalMove))

	_, err = g.MakeMove("alice", WSMove{From: pos(5, 0), To: pos(4, -1)})
	assert.True(t, errors.Is(err, ErrIllegalMove))

	state, err := g.MakeMove("alice", WSMove{From: pos(5, 0), To: pos(4, 1)})
	require.NoError(t, err)
	assert.Equal(t, PlayerColorBlack, state.ToMove)
	assert.Equal(t, "awaitingSelection", state.Phase)
	assert.Equal(t, "Tour de Noir", state.Status)
	require.NotNil(t, state.LastMove)
	assert.Equal(t, pos(4, 1), state.LastMove.To)

	assert.Equal(t, state, g.GetState())
}

func TestGameClickExposesSelection(t *testing.T) {
	g := seatedGame(t)

	state, err := g.Click("alice", pos(5, 2))
	require.NoError(t, err)
	assert.Equal(t, "pieceSelected", state.Phase)
	require.NotNil(t, state.Selected)
	assert.Equal(t, pos(5, 2), *state.Selected)
	assert.ElementsMatch(t, []Move{
		simpleMove(pos(5, 2), pos(4, 1)),
		simpleMove(pos(5, 2), pos(4, 3)),
	}, state.LegalMoves)

	state, err = g.Click("alice", pos(4, 3))
	require.NoError(t, err)
	assert.Equal(t, PlayerColorBlack, state.ToMove)
	assert.Nil(t, state.Selected)
	assert.Empty(t, state.LegalMoves)
}

func TestGameChainState(t *testing.T) {
	g := seatedGame(t)
	g.state = NewGameStateFrom(chainBoard(), PlayerColorWhite)

	state, err := g.MakeMove("alice", WSMove{From: pos(4, 3), To: pos(2, 1)})
	require.NoError(t, err)
	assert.True(t, state.ChainInProgress)
	assert.Equal(t, "chainInProgress", state.Phase)
	assert.Len(t, state.Chain, 1)
	require.NotNil(t, state.Selected)
	assert.Equal(t, pos(2, 1), *state.Selected)
	assert.Equal(t, []Move{captureMove(pos(2, 1), pos(0, 3), pos(1, 2))}, state.LegalMoves)

	_, err = g.MakeMove("bob", WSMove{From: pos(0, 7), To: pos(1, 6)})
	assert.Equal(t, ErrNotYourTurn, err)
}

func TestGameRejectsMovesAfterGameOver(t *testing.T) {
	g := seatedGame(t)
	g.state = NewGameStateFrom(boardWith(map[Position]Piece{
		pos(3, 4): NewMan(PlayerColorWhite),
	}), PlayerColorBlack)

	state := g.GetState()
	require.NotNil(t, state.Winner)
	assert.Equal(t, PlayerColorWhite, *state.Winner)
	assert.Equal(t, "gameOver", state.Phase)

	_, err := g.MakeMove("alice", WSMove{From: pos(3, 4), To: pos(2, 3)})
	assert.Equal(t, ErrGameOver, err)

	state, err = g.Reset("bob")
	require.NoError(t, err)
	assert.Nil(t, state.Winner)
	assert.Equal(t, 12, state.Board.Count(PlayerColorBlack))

	_, err = g.Reset("carol")
	assert.Equal(t, ErrNotInGame, err)
}

func TestGameBroadcastsToConnections(t *testing.T) {
	g := seatedGame(t)
	white, black := &fakeConn{}, &fakeConn{}

	require.NoError(t, g.RegisterConnection("alice", white))
	require.NoError(t, g.RegisterConnection("bob", black))
	assert.Equal(t, 2, g.ConnectionCount())

	_, err := g.MakeMove("alice", WSMove{From: pos(5, 2), To: pos(4, 3)})
	require.NoError(t, err)

	whiteStates := white.states(t)
	blackStates := black.states(t)
	require.NotEmpty(t, whiteStates)
	require.NotEmpty(t, blackStates)
	assert.Equal(t, PlayerColorBlack, whiteStates[len(whiteStates)-1].ToMove)
	assert.Equal(t, whiteStates[len(whiteStates)-1], blackStates[len(blackStates)-1])
}

func TestGameDuplicateConnectionIsTurnedAway(t *testing.T) {
	g := seatedGame(t)
	first, second := &fakeConn{}, &fakeConn{}

	require.NoError(t, g.RegisterConnection("alice", first))
	require.NoError(t, g.RegisterConnection("alice", second))

	assert.True(t, second.closed)
	assert.Len(t, second.raw, 1)
	assert.False(t, first.closed)
	assert.Equal(t, 1, g.ConnectionCount())

	g.UnregisterConnection("alice", second)
	assert.Equal(t, 1, g.ConnectionCount(), "a stale connection cannot unregister the live one")

	g.UnregisterConnection("alice", first)
	assert.Equal(t, 0, g.ConnectionCount())
}

func TestGameSpectatorsOnlyWhileSeatsAreOpen(t *testing.T) {
	g := NewGame("game-2")
	_, err := g.AddPlayer("alice")
	require.NoError(t, err)

	require.NoError(t, g.RegisterConnection("watcher", &fakeConn{}))

	_, err = g.AddPlayer("bob")
	require.NoError(t, err)
	assert.Error(t, g.RegisterConnection("latecomer", &fakeConn{}))
}

func TestGameDropsFailingConnections(t *testing.T) {
	g := seatedGame(t)
	healthy, broken := &fakeConn{}, &fakeConn{}
	require.NoError(t, g.RegisterConnection("alice", healthy))
	require.NoError(t, g.RegisterConnection("bob", broken))

	broken.mu.Lock()
	broken.failing = true
	broken.mu.Unlock()

	_, err := g.Click("alice", pos(5, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, g.ConnectionCount())

	assert.Error(t, g.Send("bob", ws.Message{Type: ws.MessageTypeError}))
	assert.NoError(t, g.Send("alice", ws.Message{Type: ws.MessageTypeError}))
}

func TestGameClose(t *testing.T) {
	g := seatedGame(t)
	white, black := &fakeConn{}, &fakeConn{}
	require.NoError(t, g.RegisterConnection("alice", white))
	require.NoError(t, g.RegisterConnection("bob", black))

	require.NoError(t, g.Close())
	assert.True(t, white.closed)
	assert.True(t, black.closed)
	assert.Equal(t, 0, g.ConnectionCount())
}

func TestGameConcurrentClicks(t *testing.T) {
	g := seatedGame(t)
	require.NoError(t, g.RegisterConnection("alice", &fakeConn{}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			col := []int{0, 2, 4, 6}[i%4]
			_, _ = g.Click("alice", pos(5, col))
			_ = g.GetState()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, PlayerColorWhite, g.State().Turn())
}

func TestGameBroadcastsInCommitOrder(t *testing.T) {
	for round := 0; round < 20; round++ {
		g := seatedGame(t)
		conn := &fakeConn{}
		require.NoError(t, g.RegisterConnection("bob", conn))

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _ = g.Click("alice", pos(5, []int{0, 2, 4, 6}[i%4]))
			}(i)
		}
		wg.Wait()

		states := conn.states(t)
		require.Len(t, states, 17, "one state on connect plus one per click")
		assert.Equal(t, g.GetState(), states[len(states)-1], "the last state sent is the current one")
	}
}
