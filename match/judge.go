package match

import (
	"cmp"
	"slices"

	"github.com/cyberinferno/gomoku-client/board"
)

// DefaultWinLength is the run length that wins a game of gomoku.
const DefaultWinLength = 5

// OutcomeKind tells whether and how a game ended.
type OutcomeKind int

const (
	InProgress OutcomeKind = iota
	Win
	Draw
)

// String returns a human-readable name for the kind.
func (k OutcomeKind) String() string {
	switch k {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "in progress"
	}
}

// Cell is a board coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Outcome is the judged state of a game. Winner and Line are set only for Win.
type Outcome struct {
	Kind   OutcomeKind `json:"kind"`
	Winner board.Piece `json:"winner"`
	Line   []Cell      `json:"line,omitempty"`
}

// Over reports whether the game has ended.
func (o Outcome) Over() bool {
	return o.Kind != InProgress
}

// Judge decides terminal states for an N-in-a-row game. A run of WinLength or
// more same-coloured pieces in any of the four line directions wins; a full
// board with no winning run is a draw.
type Judge struct {
	WinLength int
}

// NewJudge returns a Judge for runs of winLength, falling back to
// DefaultWinLength for non-positive values.
func NewJudge(winLength int) Judge {
	if winLength <= 0 {
		winLength = DefaultWinLength
	}

	return Judge{WinLength: winLength}
}

var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal
	{1, -1}, // anti-diagonal
}

// Evaluate judges the board after a piece was placed at (row, col). Only
// lines through that cell are scanned, which is sufficient as long as the
// game was still in progress before the move.
//
// Parameters:
//   - b: The board, already containing the new piece
//   - row, col: The cell that was just filled
//
// Returns:
//   - The outcome after the move
func (j Judge) Evaluate(b *board.Board, row, col int) Outcome {
	piece, err := b.At(row, col)
	if err != nil || piece == board.Empty {
		return Outcome{Kind: InProgress, Winner: board.Empty}
	}

	for _, d := range directions {
		line := []Cell{{Row: row, Col: col}}
		line = append(line, j.walk(b, piece, row, col, -d[0], -d[1])...)
		line = append(line, j.walk(b, piece, row, col, d[0], d[1])...)
		if len(line) >= j.WinLength {
			sortLine(line)
			return Outcome{Kind: Win, Winner: piece, Line: line}
		}
	}

	if b.Full() {
		return Outcome{Kind: Draw, Winner: board.Empty}
	}

	return Outcome{Kind: InProgress, Winner: board.Empty}
}

func (j Judge) walk(b *board.Board, piece board.Piece, row, col, dr, dc int) []Cell {
	var cells []Cell
	for r, c := row+dr, col+dc; ; r, c = r+dr, c+dc {
		p, err := b.At(r, c)
		if err != nil || p != piece {
			return cells
		}
		cells = append(cells, Cell{Row: r, Col: c})
	}
}

// sortLine orders a collinear run by row, then column.
func sortLine(line []Cell) {
	slices.SortFunc(line, func(a, b Cell) int {
		if c := cmp.Compare(a.Row, b.Row); c != 0 {
			return c
		}
		return cmp.Compare(a.Col, b.Col)
	})
}
