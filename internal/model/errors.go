package model

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrGameOver      = errors.New("game is over")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrNotInGame     = errors.New("player not in game")
	ErrGameFull      = errors.New("game is full")
	ErrAlreadyQueued = errors.New("player already in queue")
)

// OutOfBoundsError is the panic value of board accessors given a coordinate
// outside the 8x8 grid.
type OutOfBoundsError struct {
	Position Position
}

func (e OutOfBoundsError) Error() string {
	return fmt.Sprintf("position out of bounds: %s", e.Position)
}
