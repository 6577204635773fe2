// Package game implements the rule engines for the supported party games.
// Engines are pure state machines: no locks, no I/O, no clocks. The room
// coordinator owns serialization and feeds engines one validated move at
// a time.
package game

import "errors"

type Type string

const (
	TypeBingo Type = "bingo"
	TypeBoxes Type = "boxes"
)

func ParseType(raw string) (Type, bool) {
	switch Type(raw) {
	case TypeBingo:
		return TypeBingo, true
	case TypeBoxes:
		return TypeBoxes, true
	}
	return "", false
}

var (
	ErrInvalidMove = errors.New("invalid move")
	ErrNotYourTurn = errors.New("not your turn")
	ErrGameOver    = errors.New("game over")
)

type MoveKind string

const (
	MoveCallNumber MoveKind = "call_number"
	MoveDrawEdge   MoveKind = "draw_edge"
)

// Move is a single action request against an engine. Kind selects which
// field is meaningful.
type Move struct {
	Kind   MoveKind `json:"kind"`
	Number int      `json:"number,omitempty"`
	Edge   int      `json:"edge,omitempty"`
}

// Outcome is the terminal result of a game. Winners holds player ids in
// win order; for a drawn game Draw is true and Winners lists every tied
// player.
type Outcome struct {
	Winners []string       `json:"winners"`
	Draw    bool           `json:"draw"`
	Scores  map[string]int `json:"scores"`
}

type Options struct {
	BoardSize  int `json:"board_size,omitempty"`
	GridWidth  int `json:"grid_width,omitempty"`
	GridHeight int `json:"grid_height,omitempty"`
}

// State is the serializable union of engine states, used for snapshots
// and crash recovery.
type State struct {
	Type  Type        `json:"type"`
	Bingo *BingoState `json:"bingo,omitempty"`
	Boxes *BoxesState `json:"boxes,omitempty"`
}

type Engine interface {
	Type() Type
	// Apply validates the move for the given player and transitions the
	// state. A rejected move leaves the state untouched.
	Apply(playerID string, mv Move) error
	// Turn reports whose move it is. ok is false once the game is over.
	Turn() (string, bool)
	// Outcome reports the terminal result, if the game has ended.
	Outcome() (Outcome, bool)
	State() State
}

func MinPlayers(t Type) int {
	switch t {
	case TypeBingo, TypeBoxes:
		return 2
	}
	return 2
}

// New creates an engine of the given type for the players, in turn order.
func New(t Type, players []string, opts Options) (Engine, error) {
	if len(players) < MinPlayers(t) {
		return nil, errors.New("not enough players")
	}
	switch t {
	case TypeBingo:
		return newBingo(players, opts.BoardSize)
	case TypeBoxes:
		return newBoxes(players, opts.GridWidth, opts.GridHeight)
	}
	return nil, errors.New("unknown game type")
}

// Restore rebuilds an engine from a serialized state.
func Restore(state State) (Engine, error) {
	switch state.Type {
	case TypeBingo:
		if state.Bingo == nil {
			return nil, errors.New("missing bingo state")
		}
		return restoreBingo(*state.Bingo)
	case TypeBoxes:
		if state.Boxes == nil {
			return nil, errors.New("missing boxes state")
		}
		return restoreBoxes(*state.Boxes)
	}
	return nil, errors.New("unknown game type")
}
