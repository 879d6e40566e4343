package board

import "math"

// Layout describes how a board is drawn on a surface so that pointer positions
// can be mapped back to cells. Each cell is CellWidth×CellHeight and cells are
// separated by grid lines LineWidth wide; the board's top-left corner is at
// (OriginX, OriginY).
type Layout struct {
	OriginX    float64
	OriginY    float64
	CellWidth  float64
	CellHeight float64
	LineWidth  float64
}

// DefaultLayout returns the layout of the reference board view.
func DefaultLayout() Layout {
	return Layout{
		OriginX:    10,
		OriginY:    10,
		CellWidth:  50,
		CellHeight: 50,
		LineWidth:  2,
	}
}

// CellAt maps a pointer position to a board coordinate on a rows×cols board.
// Positions on a grid line, left of or above the origin, or past the last
// cell are reported with ok=false.
//
// Parameters:
//   - x, y: Pointer position on the drawing surface
//   - rows, cols: Board dimensions
//
// Returns:
//   - row, col: The cell under the pointer when ok is true
//   - ok: false if the position does not fall inside a cell
func (l Layout) CellAt(x, y float64, rows, cols int) (row, col int, ok bool) {
	x -= l.OriginX
	y -= l.OriginY
	if x < 0 || y < 0 {
		return -1, -1, false
	}

	colStride := l.CellWidth + l.LineWidth
	rowStride := l.CellHeight + l.LineWidth
	if colStride <= 0 || rowStride <= 0 {
		return -1, -1, false
	}

	if math.Mod(x, colStride) <= l.LineWidth || math.Mod(y, rowStride) <= l.LineWidth {
		return -1, -1, false
	}

	row = int(math.Floor(y / rowStride))
	col = int(math.Floor(x / colStride))
	if row >= rows || col >= cols {
		return -1, -1, false
	}

	return row, col, true
}
