// Package match holds the state of one game inside a room: the board, the
// local player's piece and the judged outcome. It turns local clicks into
// put_piece requests and applies the authority's move broadcasts.
package match

import (
	"errors"
	"fmt"

	"github.com/cyberinferno/gomoku-client/board"
	"github.com/cyberinferno/gomoku-client/protocol"
)

var (
	// ErrOccupied is returned by ApplyMove for a move onto a filled cell.
	ErrOccupied = errors.New("cell already occupied")

	// ErrNoPiece is returned by ApplyMove for a move that places no piece.
	ErrNoPiece = errors.New("move carries no piece")
)

// Sender delivers an outbound command to the remote authority.
type Sender interface {
	Send(cmd protocol.Command) error
}

// Match is the game state of the room the session is in. It is not safe for
// concurrent use.
type Match struct {
	roomID   int
	board    *board.Board
	piece    board.Piece
	judge    Judge
	outcome  Outcome
	lastMove *Cell
	sender   Sender
}

// View is an immutable projection of a Match for rendering.
type View struct {
	RoomID   int         `json:"room_id"`
	Grid     board.Grid  `json:"grid"`
	Piece    board.Piece `json:"piece"`
	Outcome  Outcome     `json:"outcome"`
	LastMove *Cell       `json:"last_move,omitempty"`
}

// New creates a match.
//
// Parameters:
//   - roomID: The room the match belongs to
//   - b: A fresh board
//   - piece: The piece the local player places; board.Empty for observers
//   - judge: Terminal-state judge
//   - sender: Where outbound commands go
//
// Returns:
//   - A new Match with no outcome
func New(roomID int, b *board.Board, piece board.Piece, judge Judge, sender Sender) *Match {
	return &Match{
		roomID:  roomID,
		board:   b,
		piece:   piece,
		judge:   judge,
		outcome: Outcome{Kind: InProgress, Winner: board.Empty},
		sender:  sender,
	}
}

// Outcome returns the current outcome.
func (m *Match) Outcome() Outcome { return m.outcome }

// SubmitMove sends a put_piece request for the local player's piece. The
// request is only sent when the game is still in progress, the local player
// has a piece and the cell is on the board and empty. Turn order is left to
// the authority.
//
// Parameters:
//   - row, col: The clicked cell
//
// Returns:
//   - Whether a frame was sent
//   - An error if sending failed
func (m *Match) SubmitMove(row, col int) (bool, error) {
	if m.outcome.Over() || m.piece == board.Empty {
		return false, nil
	}

	empty, err := m.board.IsEmpty(row, col)
	if err != nil || !empty {
		return false, nil
	}

	cmd := protocol.PutPiece{RoomID: m.roomID, Row: row, Col: col, Piece: m.piece}
	if err := m.sender.Send(cmd); err != nil {
		return false, fmt.Errorf("submit move: %w", err)
	}

	return true, nil
}

// ApplyMove applies a move broadcast by the authority and judges the result.
// Moves that would overwrite a piece, fall off the board or place nothing are
// dropped.
//
// Parameters:
//   - row, col: The cell the authority filled
//   - piece: The piece the authority placed
//
// Returns:
//   - Whether this move ended the game
//   - ErrOccupied, ErrNoPiece or board.ErrOutOfRange when the move was dropped
func (m *Match) ApplyMove(row, col int, piece board.Piece) (bool, error) {
	if piece == board.Empty {
		return false, ErrNoPiece
	}

	empty, err := m.board.IsEmpty(row, col)
	if err != nil {
		return false, err
	}
	if !empty {
		return false, ErrOccupied
	}

	if err := m.board.PlacePiece(row, col, piece); err != nil {
		return false, err
	}
	m.lastMove = &Cell{Row: row, Col: col}

	if m.outcome.Over() {
		return false, nil
	}

	m.outcome = m.judge.Evaluate(m.board, row, col)

	return m.outcome.Over(), nil
}

// RequestReset asks the authority to clear the board. The board is cleared
// when the reset broadcast arrives.
func (m *Match) RequestReset() error {
	if err := m.sender.Send(protocol.ResetGame{RoomID: m.roomID}); err != nil {
		return fmt.Errorf("request reset: %w", err)
	}

	return nil
}

// ApplyReset clears the board and the outcome.
func (m *Match) ApplyReset() {
	m.board.Reset()
	m.outcome = Outcome{Kind: InProgress, Winner: board.Empty}
	m.lastMove = nil
}

// View returns an immutable projection of the match.
func (m *Match) View() View {
	v := View{
		RoomID:  m.roomID,
		Grid:    m.board.Snapshot(),
		Piece:   m.piece,
		Outcome: m.outcome,
	}
	if m.outcome.Line != nil {
		v.Outcome.Line = append([]Cell(nil), m.outcome.Line...)
	}
	if m.lastMove != nil {
		last := *m.lastMove
		v.LastMove = &last
	}

	return v
}
