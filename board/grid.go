package board

import (
	"encoding/json"
	"strings"
)

// Grid is a read-only view of a board at a point in time. It is what the
// rendering side receives; it shares no memory with the live Board.
type Grid struct {
	rows  int
	cols  int
	cells []Piece
}

// Rows returns the number of rows.
func (g Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g Grid) Cols() int { return g.cols }

// At returns the piece at (row, col), or Empty for an out-of-range coordinate.
func (g Grid) At(row, col int) Piece {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return Empty
	}

	return g.cells[row*g.cols+col]
}

// Cells returns the grid as a fresh rows×cols slice of slices.
func (g Grid) Cells() [][]Piece {
	out := make([][]Piece, g.rows)
	for r := 0; r < g.rows; r++ {
		out[r] = make([]Piece, g.cols)
		copy(out[r], g.cells[r*g.cols:(r+1)*g.cols])
	}

	return out
}

// String renders the grid as text, one line per row: '.' for empty, 'X' for
// black and 'O' for white.
func (g Grid) String() string {
	var sb strings.Builder
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			switch g.At(r, c) {
			case Black:
				sb.WriteByte('X')
			case White:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// MarshalJSON encodes the grid as {"rows":..,"cols":..,"cells":[[..]]} using
// the wire piece values.
func (g Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Rows  int       `json:"rows"`
		Cols  int       `json:"cols"`
		Cells [][]Piece `json:"cells"`
	}{
		Rows:  g.rows,
		Cols:  g.cols,
		Cells: g.Cells(),
	})
}
