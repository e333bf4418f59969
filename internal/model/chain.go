package model

// CaptureChain tracks the jumps taken by one piece during the current turn.
// A square captured earlier in the chain can never be captured again, which
// is decided by comparing captured coordinates rather than reading the board.
type CaptureChain struct {
	moves  []Move
	anchor Position
}

func (c *CaptureChain) Record(move Move) {
	c.moves = append(c.moves, move)
	c.anchor = move.To
}

func (c *CaptureChain) ContainsCaptured(pos Position) bool {
	if c == nil {
		return false
	}
	for _, m := range c.moves {
		if m.Capture && m.Captured == pos {
			return true
		}
	}
	return false
}

func (c *CaptureChain) Reset() {
	c.moves = nil
	c.anchor = Position{}
}

// Anchor is the square of the piece that is live mid-chain.
func (c *CaptureChain) Anchor() (Position, bool) {
	if c == nil || len(c.moves) == 0 {
		return Position{}, false
	}
	return c.anchor, true
}

func (c *CaptureChain) Moves() []Move {
	if c == nil {
		return nil
	}
	out := make([]Move, len(c.moves))
	copy(out, c.moves)
	return out
}

func (c *CaptureChain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.moves)
}

func (c *CaptureChain) Clone() *CaptureChain {
	if c == nil {
		return &CaptureChain{}
	}
	return &CaptureChain{moves: c.Moves(), anchor: c.anchor}
}
