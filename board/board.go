// Package board models the gomoku grid: cell occupancy queries and mutations,
// an immutable snapshot for rendering, and the mapping from pointer positions
// to board coordinates.
package board

import (
	"errors"
	"fmt"
)

// DefaultRows and DefaultCols are the board dimensions of the reference deployment.
const (
	DefaultRows = 13
	DefaultCols = 13
)

var (
	// ErrOutOfRange is returned when a coordinate lies outside the board.
	ErrOutOfRange = errors.New("coordinate out of range")

	// ErrInvalidSize is returned by New for non-positive dimensions.
	ErrInvalidSize = errors.New("board dimensions must be positive")
)

// Piece is the state of a single cell. The numeric values are the wire values
// used by the remote authority.
type Piece int

const (
	Empty Piece = -1
	Black Piece = 0
	White Piece = 1
)

// PieceFromWire converts a wire integer into a Piece. Anything other than 0 or
// 1 maps to Empty.
func PieceFromWire(v int) Piece {
	switch v {
	case 0:
		return Black
	case 1:
		return White
	default:
		return Empty
	}
}

// String returns a human-readable name for the piece.
func (p Piece) String() string {
	switch p {
	case Black:
		return "black"
	case White:
		return "white"
	default:
		return "empty"
	}
}

// Board is a fixed-size grid of pieces. It is a plain data structure with no
// locking; it is owned by a single match view.
type Board struct {
	rows  int
	cols  int
	cells []Piece
}

// New creates a board of the given size with every cell Empty.
//
// Parameters:
//   - rows: Number of rows; must be positive
//   - cols: Number of columns; must be positive
//
// Returns:
//   - The new Board, or ErrInvalidSize if either dimension is not positive
func New(rows, cols int) (*Board, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, rows, cols)
	}

	b := &Board{
		rows:  rows,
		cols:  cols,
		cells: make([]Piece, rows*cols),
	}
	b.Reset()

	return b, nil
}

// Rows returns the number of rows.
func (b *Board) Rows() int { return b.rows }

// Cols returns the number of columns.
func (b *Board) Cols() int { return b.cols }

// InBounds reports whether (row, col) lies on the board.
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

// IsEmpty reports whether the cell at (row, col) holds no piece.
//
// Parameters:
//   - row: Zero-based row index
//   - col: Zero-based column index
//
// Returns:
//   - true if the cell is Empty
//   - ErrOutOfRange if the coordinate is outside the board
func (b *Board) IsEmpty(row, col int) (bool, error) {
	p, err := b.At(row, col)
	if err != nil {
		return false, err
	}

	return p == Empty, nil
}

// At returns the piece at (row, col).
func (b *Board) At(row, col int) (Piece, error) {
	if !b.InBounds(row, col) {
		return Empty, fmt.Errorf("%w: (%d, %d) on %dx%d board", ErrOutOfRange, row, col, b.rows, b.cols)
	}

	return b.cells[row*b.cols+col], nil
}

// PlacePiece writes piece to (row, col) unconditionally. Callers are expected
// to have checked IsEmpty; turn order is not enforced here.
//
// Parameters:
//   - row: Zero-based row index
//   - col: Zero-based column index
//   - piece: The piece to write
//
// Returns:
//   - ErrOutOfRange if the coordinate is outside the board
func (b *Board) PlacePiece(row, col int, piece Piece) error {
	if !b.InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d) on %dx%d board", ErrOutOfRange, row, col, b.rows, b.cols)
	}

	b.cells[row*b.cols+col] = piece
	return nil
}

// Reset sets every cell back to Empty.
func (b *Board) Reset() {
	for i := range b.cells {
		b.cells[i] = Empty
	}
}

// Full reports whether no Empty cell remains.
func (b *Board) Full() bool {
	for _, p := range b.cells {
		if p == Empty {
			return false
		}
	}

	return true
}

// Snapshot returns an immutable copy of the current cells. Later mutations of
// the board are not visible through the returned Grid.
func (b *Board) Snapshot() Grid {
	cells := make([]Piece, len(b.cells))
	copy(cells, b.cells)

	return Grid{rows: b.rows, cols: b.cols, cells: cells}
}
