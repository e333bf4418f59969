package model

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

const BoardSize = 8

type Rank string

const (
	Man  Rank = "man"
	King Rank = "king"
)

// Piece is a value: moving it between squares copies it out of one cell and
// clears the other, so no two cells ever share a piece.
type Piece struct {
	Color PlayerColor `json:"color"`
	Rank  Rank        `json:"rank"`
}

func NewMan(color PlayerColor) Piece {
	return Piece{Color: color, Rank: Man}
}

func (p Piece) IsKing() bool {
	return p.Rank == King
}

// Promote turns a man into a king. It reports whether the rank changed.
func (p *Piece) Promote() bool {
	if p.Rank == King {
		return false
	}
	p.Rank = King
	return true
}

type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

func (p Position) OnBoard() bool {
	return p.Row >= 0 && p.Row < BoardSize && p.Col >= 0 && p.Col < BoardSize
}

// IsDark reports whether the square is one of the playable dark squares.
func (p Position) IsDark() bool {
	return (p.Row+p.Col)%2 == 1
}

func (p Position) step(dir direction, n int) Position {
	return Position{Row: p.Row + dir.Row*n, Col: p.Col + dir.Col*n}
}

func (p Position) index() int {
	if !p.OnBoard() {
		panic(OutOfBoundsError{Position: p})
	}
	return p.Row*BoardSize + p.Col
}

type cell struct {
	piece    Piece
	occupied bool
}

// Board is a flat arena of cells addressed by row*BoardSize+col.
type Board struct {
	cells [BoardSize * BoardSize]cell
}

// NewBoard returns an empty board.
func NewBoard() Board {
	return Board{}
}

// StartingBoard places black men on the dark squares of rows 0-2 and white
// men on the dark squares of rows 5-7.
func StartingBoard() Board {
	board := NewBoard()
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			pos := Position{Row: row, Col: col}
			if !pos.IsDark() {
				continue
			}
			switch {
			case row < 3:
				board.Place(pos, NewMan(PlayerColorBlack))
			case row > 4:
				board.Place(pos, NewMan(PlayerColorWhite))
			}
		}
	}
	return board
}

func (b *Board) OnBoard(pos Position) bool {
	return pos.OnBoard()
}

func (b *Board) Get(pos Position) (Piece, bool) {
	c := b.cells[pos.index()]
	return c.piece, c.occupied
}

func (b *Board) IsEmpty(pos Position) bool {
	_, ok := b.Get(pos)
	return !ok
}

func (b *Board) Place(pos Position, piece Piece) {
	b.cells[pos.index()] = cell{piece: piece, occupied: true}
}

func (b *Board) Clear(pos Position) {
	b.cells[pos.index()] = cell{}
}

// Move transfers the piece on from to the square to and returns it.
func (b *Board) Move(from, to Position) (Piece, bool) {
	piece, ok := b.Get(from)
	if !ok {
		return Piece{}, false
	}
	b.Clear(from)
	b.Place(to, piece)
	return piece, true
}

// Pieces lists the squares holding pieces of the given colour, row by row.
func (b *Board) Pieces(color PlayerColor) []Position {
	positions := []Position{}
	for idx, c := range b.cells {
		if c.occupied && c.piece.Color == color {
			positions = append(positions, Position{Row: idx / BoardSize, Col: idx % BoardSize})
		}
	}
	return positions
}

func (b *Board) Count(color PlayerColor) int {
	return len(b.Pieces(color))
}

// Grid renders the board as rows of nullable pieces for clients.
func (b *Board) Grid() [][]*Piece {
	grid := make([][]*Piece, BoardSize)
	for row := 0; row < BoardSize; row++ {
		grid[row] = make([]*Piece, BoardSize)
		for col := 0; col < BoardSize; col++ {
			if piece, ok := b.Get(Position{Row: row, Col: col}); ok {
				p := piece
				grid[row][col] = &p
			}
		}
	}
	return grid
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Grid())
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var grid [][]*Piece
	if err := json.Unmarshal(data, &grid); err != nil {
		return err
	}
	if len(grid) != BoardSize {
		return errors.Errorf("board must have %d rows, got %d", BoardSize, len(grid))
	}
	*b = NewBoard()
	for row, cols := range grid {
		if len(cols) != BoardSize {
			return errors.Errorf("board row %d must have %d columns, got %d", row, BoardSize, len(cols))
		}
		for col, piece := range cols {
			if piece != nil {
				b.Place(Position{Row: row, Col: col}, *piece)
			}
		}
	}
	return nil
}
