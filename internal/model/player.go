package model

type Player struct {
	ID    string
	Color PlayerColor
}

type ClientPlayer struct {
	ID    string      `json:"name"`
	Color PlayerColor `json:"color"`
}

type PlayerColor string

const (
	PlayerColorWhite PlayerColor = "white"
	PlayerColorBlack PlayerColor = "black"
)

func (c PlayerColor) Opposite() PlayerColor {
	if c == PlayerColorWhite {
		return PlayerColorBlack
	}
	return PlayerColorWhite
}

// Forward is the row delta of a man's moves: white climbs toward row 0.
func (c PlayerColor) Forward() int {
	if c == PlayerColorWhite {
		return -1
	}
	return 1
}

// PromotionRow is the farthest row from the colour's starting side.
func (c PlayerColor) PromotionRow() int {
	if c == PlayerColorWhite {
		return 0
	}
	return BoardSize - 1
}

// Name is the display name used in status lines.
func (c PlayerColor) Name() string {
	if c == PlayerColorWhite {
		return "Blanc"
	}
	return "Noir"
}

func (c PlayerColor) Valid() bool {
	return c == PlayerColorWhite || c == PlayerColorBlack
}
