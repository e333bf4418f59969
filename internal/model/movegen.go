package model

// LegalMoves returns the moves available to the piece on pos. Capturing is
// mandatory for that piece: when it has any capture, only captures are
// returned. Other pieces of the same colour are not consulted.
func LegalMoves(board *Board, pos Position, chain *CaptureChain) []Move {
	piece, ok := board.Get(pos)
	if !ok {
		return []Move{}
	}

	captures := FindCaptures(board, pos, piece, chain)
	if len(captures) > 0 {
		return captures
	}

	if piece.IsKing() {
		return getKingSimpleMoves(board, pos)
	}
	return getManSimpleMoves(board, pos, piece)
}

func getManSimpleMoves(board *Board, pos Position, piece Piece) []Move {
	moves := []Move{}
	forward := piece.Color.Forward()
	for _, dc := range []int{-1, 1} {
		targetPos := Position{Row: pos.Row + forward, Col: pos.Col + dc}
		if targetPos.OnBoard() && board.IsEmpty(targetPos) {
			moves = append(moves, simpleMove(pos, targetPos))
		}
	}
	return moves
}

// kings slide like a bishop over empty squares
func getKingSimpleMoves(board *Board, pos Position) []Move {
	moves := []Move{}
	for _, dir := range diagonalDirs {
		targetPos := pos.step(dir, 1)
		for targetPos.OnBoard() && board.IsEmpty(targetPos) {
			moves = append(moves, simpleMove(pos, targetPos))
			targetPos = targetPos.step(dir, 1)
		}
	}
	return moves
}

// FindCaptures lists every capture open to piece standing on pos, skipping
// enemies already captured in chain. chain may be nil.
func FindCaptures(board *Board, pos Position, piece Piece, chain *CaptureChain) []Move {
	captures := []Move{}
	for _, dir := range diagonalDirs {
		if piece.IsKing() {
			captures = append(captures, getKingCaptures(board, pos, piece, dir, chain)...)
			continue
		}
		// men capture forward only
		if dir.Row != piece.Color.Forward() {
			continue
		}
		jump := pos.step(dir, 1)
		land := pos.step(dir, 2)
		if !jump.OnBoard() || !land.OnBoard() {
			continue
		}
		if isEnemy(board, jump, piece.Color) && board.IsEmpty(land) && !chain.ContainsCaptured(jump) {
			captures = append(captures, captureMove(pos, land, jump))
		}
	}
	return captures
}

// getKingCaptures scans one diagonal: the first piece met must be an enemy not
// yet taken in this chain, and every empty square directly behind it is a
// landing square.
func getKingCaptures(board *Board, pos Position, piece Piece, dir direction, chain *CaptureChain) []Move {
	captures := []Move{}
	jump := pos.step(dir, 1)
	for jump.OnBoard() && board.IsEmpty(jump) {
		jump = jump.step(dir, 1)
	}
	if !jump.OnBoard() || !isEnemy(board, jump, piece.Color) || chain.ContainsCaptured(jump) {
		return captures
	}
	land := jump.step(dir, 1)
	for land.OnBoard() && board.IsEmpty(land) {
		captures = append(captures, captureMove(pos, land, jump))
		land = land.step(dir, 1)
	}
	return captures
}

func isEnemy(board *Board, pos Position, color PlayerColor) bool {
	piece, ok := board.Get(pos)
	return ok && piece.Color != color
}

// HasLegalMoves reports whether any piece of color can move.
func HasLegalMoves(board *Board, color PlayerColor) bool {
	for _, pos := range board.Pieces(color) {
		if len(LegalMoves(board, pos, nil)) > 0 {
			return true
		}
	}
	return false
}
