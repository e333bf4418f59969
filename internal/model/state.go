package model

import (
	"github.com/pkg/errors"
)

// Phase is the tagged union of turn-engine states. Only the types in this
// file implement it.
type Phase interface {
	Name() string
	isPhase()
}

type AwaitingSelection struct{}

type PieceSelected struct {
	At Position
}

// ChainInProgress holds the side to move to continuing captures with the
// piece on the chain's anchor.
type ChainInProgress struct {
	Chain *CaptureChain
}

type GameOver struct {
	Winner PlayerColor
}

func (AwaitingSelection) Name() string { return "awaitingSelection" }
func (PieceSelected) Name() string     { return "pieceSelected" }
func (ChainInProgress) Name() string   { return "chainInProgress" }
func (GameOver) Name() string          { return "gameOver" }

func (AwaitingSelection) isPhase() {}
func (PieceSelected) isPhase()     {}
func (ChainInProgress) isPhase()   {}
func (GameOver) isPhase()          {}

// GameState is one immutable snapshot of a game. Every transition returns a
// new value and leaves the receiver untouched.
type GameState struct {
	board    Board
	turn     PlayerColor
	phase    Phase
	lastMove *Move
}

type Status struct {
	ToMove          PlayerColor  `json:"toMove"`
	ChainInProgress bool         `json:"chainInProgress"`
	Winner          *PlayerColor `json:"winner"`
	Text            string       `json:"text"`
}

// NewGameState sets up the standard starting position with white to move.
func NewGameState() GameState {
	return GameState{
		board: StartingBoard(),
		turn:  PlayerColorWhite,
		phase: AwaitingSelection{},
	}
}

// NewGameStateFrom starts a game from an arbitrary position. The game is
// already over if toMove cannot move.
func NewGameStateFrom(board Board, toMove PlayerColor) GameState {
	s := GameState{
		board: board,
		turn:  toMove,
		phase: AwaitingSelection{},
	}
	return s.checkGameOver()
}

func (s GameState) Board() Board      { return s.board }
func (s GameState) Turn() PlayerColor { return s.turn }
func (s GameState) Phase() Phase      { return s.phase }
func (s GameState) LastMove() *Move   { return s.lastMove }

func (s GameState) IsOver() bool {
	_, over := s.phase.(GameOver)
	return over
}

func (s GameState) chain() *CaptureChain {
	if c, ok := s.phase.(ChainInProgress); ok {
		return c.Chain
	}
	return nil
}

// Selected is the square the side to move is acting with: the selected piece,
// or the chain anchor mid-chain.
func (s GameState) Selected() (Position, bool) {
	switch ph := s.phase.(type) {
	case PieceSelected:
		return ph.At, true
	case ChainInProgress:
		return ph.Chain.Anchor()
	}
	return Position{}, false
}

// Winner is set once the game is over.
func (s GameState) Winner() (PlayerColor, bool) {
	if ph, ok := s.phase.(GameOver); ok {
		return ph.Winner, true
	}
	return "", false
}

// LegalMoves lists the moves of the piece on pos for the side to move. Mid
// chain only the anchor may move, and only by continuing to capture.
func (s GameState) LegalMoves(pos Position) []Move {
	if !pos.OnBoard() {
		return []Move{}
	}
	switch ph := s.phase.(type) {
	case GameOver:
		return []Move{}
	case ChainInProgress:
		anchor, _ := ph.Chain.Anchor()
		if pos != anchor {
			return []Move{}
		}
		piece, _ := s.board.Get(anchor)
		return FindCaptures(&s.board, anchor, piece, ph.Chain)
	}

	piece, ok := s.board.Get(pos)
	if !ok || piece.Color != s.turn {
		return []Move{}
	}
	return LegalMoves(&s.board, pos, nil)
}

// FindMove resolves a from/to pair to the legal move it denotes.
func (s GameState) FindMove(from, to Position) (Move, bool) {
	for _, m := range s.LegalMoves(from) {
		if m.To == to {
			return m, true
		}
	}
	return Move{}, false
}

// Apply plays move. It fails with ErrGameOver once the game has ended and
// with ErrIllegalMove when move is not currently legal; the returned state is
// then the receiver unchanged.
func (s GameState) Apply(move Move) (GameState, error) {
	if s.IsOver() {
		return s, ErrGameOver
	}
	if !containsMove(s.LegalMoves(move.From), move) {
		return s, errors.Wrapf(ErrIllegalMove, "%s", move)
	}
	return s.apply(move), nil
}

func (s GameState) apply(move Move) GameState {
	next := s
	piece, _ := next.board.Move(move.From, move.To)
	if move.Capture {
		next.board.Clear(move.Captured)
	}
	if move.To.Row == piece.Color.PromotionRow() && piece.Promote() {
		next.board.Place(move.To, piece)
	}
	applied := move
	next.lastMove = &applied

	if !move.Capture {
		return next.endTurn()
	}

	chain := s.chain().Clone()
	chain.Record(move)
	if len(FindCaptures(&next.board, move.To, piece, chain)) > 0 {
		next.phase = ChainInProgress{Chain: chain}
		return next
	}
	return next.endTurn()
}

func (s GameState) endTurn() GameState {
	s.turn = s.turn.Opposite()
	s.phase = AwaitingSelection{}
	return s.checkGameOver()
}

func (s GameState) checkGameOver() GameState {
	if !HasLegalMoves(&s.board, s.turn) {
		s.phase = GameOver{Winner: s.turn.Opposite()}
	}
	return s
}

// Select picks up the piece on pos if it belongs to the side to move and
// clears the selection otherwise. It does nothing mid-chain or after the
// game has ended.
func (s GameState) Select(pos Position) GameState {
	switch s.phase.(type) {
	case GameOver, ChainInProgress:
		return s
	}
	if !pos.OnBoard() {
		return s.Deselect()
	}
	if piece, ok := s.board.Get(pos); ok && piece.Color == s.turn {
		s.phase = PieceSelected{At: pos}
		return s
	}
	return s.Deselect()
}

func (s GameState) Deselect() GameState {
	if _, ok := s.phase.(PieceSelected); ok {
		s.phase = AwaitingSelection{}
	}
	return s
}

// AbandonChain stops an ongoing capture chain and hands the turn over.
func (s GameState) AbandonChain() GameState {
	if _, ok := s.phase.(ChainInProgress); !ok {
		return s
	}
	return s.endTurn()
}

// Click interprets a click on pos the way casual play expects: illegal input
// is ignored or clears the selection rather than failing.
func (s GameState) Click(pos Position) GameState {
	if !pos.OnBoard() {
		return s
	}
	switch ph := s.phase.(type) {
	case GameOver:
		return s
	case ChainInProgress:
		anchor, _ := ph.Chain.Anchor()
		if pos == anchor {
			return s
		}
		if move, ok := s.FindMove(anchor, pos); ok {
			return s.apply(move)
		}
		s = s.AbandonChain()
		if s.IsOver() {
			return s
		}
	}

	piece, occupied := s.board.Get(pos)
	own := occupied && piece.Color == s.turn

	selected, hasSelection := s.Selected()
	if !hasSelection {
		if own {
			return s.Select(pos)
		}
		return s
	}

	switch {
	case pos == selected:
		return s.Deselect()
	case own:
		return s.Select(pos)
	}
	if move, ok := s.FindMove(selected, pos); ok {
		return s.apply(move)
	}
	return s.Deselect()
}

func (s GameState) Status() Status {
	status := Status{ToMove: s.turn}
	switch ph := s.phase.(type) {
	case GameOver:
		winner := ph.Winner
		status.Winner = &winner
		status.Text = winner.Name() + " gagne!"
	case ChainInProgress:
		status.ChainInProgress = true
		status.Text = "Tour de " + s.turn.Name() + " - Capture continue!"
	default:
		status.Text = "Tour de " + s.turn.Name()
	}
	return status
}
