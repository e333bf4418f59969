package model

import "fmt"

// WSMove is a move as submitted by a client: the engine works out whether it
// captures anything.
type WSMove struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Move is a proposed transition. Captured is meaningful only when Capture is set.
type Move struct {
	From     Position `json:"from"`
	To       Position `json:"to"`
	Captured Position `json:"captured"`
	Capture  bool     `json:"capture"`
}

func simpleMove(from, to Position) Move {
	return Move{From: from, To: to}
}

func captureMove(from, to, captured Position) Move {
	return Move{From: from, To: to, Captured: captured, Capture: true}
}

func (m Move) IsCapture() bool {
	return m.Capture
}

func (m Move) String() string {
	if m.Capture {
		return fmt.Sprintf("%s x%s -> %s", m.From, m.Captured, m.To)
	}
	return fmt.Sprintf("%s -> %s", m.From, m.To)
}

type direction struct {
	Row int
	Col int
}

var diagonalDirs = []direction{{Row: -1, Col: -1}, {Row: -1, Col: 1}, {Row: 1, Col: -1}, {Row: 1, Col: 1}}

func containsMove(moves []Move, move Move) bool {
	for _, m := range moves {
		if m == move {
			return true
		}
	}
	return false
}
