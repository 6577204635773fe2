package game

import "errors"

const (
	defaultBoxesGridWidth  = 2
	defaultBoxesGridHeight = 2
)

// BoxesState is the serializable state of a lines-and-boxes game. Edge and
// box slots hold the claiming player id, or "" while free. Horizontal
// edges are numbered 1..(height+1)*width, vertical edges follow.
type BoxesState struct {
	Width           int      `json:"width"`
	Height          int      `json:"height"`
	Players         []string `json:"players"`
	TurnIndex       int      `json:"turn_index"`
	HorizontalEdges []string `json:"horizontal_edges"`
	VerticalEdges   []string `json:"vertical_edges"`
	Boxes           []string `json:"boxes"`
}

type boxesEngine struct {
	width   int
	height  int
	players []string
	turnIdx int
	hEdges  []string // (height+1) rows × width, row-major
	vEdges  []string // height rows × (width+1), row-major
	boxes   []string // height rows × width, row-major
}

func newBoxes(players []string, width, height int) (*boxesEngine, error) {
	if width == 0 {
		width = defaultBoxesGridWidth
	}
	if height == 0 {
		height = defaultBoxesGridHeight
	}
	if width < 1 || height < 1 || width > 10 || height > 10 {
		return nil, errors.New("boxes grid dimensions out of range")
	}
	return &boxesEngine{
		width:   width,
		height:  height,
		players: append([]string(nil), players...),
		hEdges:  make([]string, (height+1)*width),
		vEdges:  make([]string, height*(width+1)),
		boxes:   make([]string, height*width),
	}, nil
}

func restoreBoxes(state BoxesState) (*boxesEngine, error) {
	if state.Width < 1 || state.Height < 1 {
		return nil, errors.New("boxes grid dimensions out of range")
	}
	if len(state.Players) < 2 {
		return nil, errors.New("not enough players")
	}
	if len(state.HorizontalEdges) != (state.Height+1)*state.Width ||
		len(state.VerticalEdges) != state.Height*(state.Width+1) ||
		len(state.Boxes) != state.Height*state.Width {
		return nil, errors.New("edge grid dimensions mismatch")
	}
	if state.TurnIndex < 0 || state.TurnIndex >= len(state.Players) {
		return nil, errors.New("turn index out of range")
	}
	return &boxesEngine{
		width:   state.Width,
		height:  state.Height,
		players: append([]string(nil), state.Players...),
		turnIdx: state.TurnIndex,
		hEdges:  append([]string(nil), state.HorizontalEdges...),
		vEdges:  append([]string(nil), state.VerticalEdges...),
		boxes:   append([]string(nil), state.Boxes...),
	}, nil
}

func (b *boxesEngine) Type() Type { return TypeBoxes }

// EdgeCount reports the number of addressable edges; ids run 1..EdgeCount.
func (b *boxesEngine) edgeCount() int {
	return len(b.hEdges) + len(b.vEdges)
}

// edgeSlot maps an edge id to its storage slot.
func (b *boxesEngine) edgeSlot(id int) *string {
	idx := id - 1
	if idx < len(b.hEdges) {
		return &b.hEdges[idx]
	}
	return &b.vEdges[idx-len(b.hEdges)]
}

// boxEdges returns the four edge ids enclosing box (r, c).
func (b *boxesEngine) boxEdges(r, c int) [4]int {
	top := r*b.width + c + 1
	bottom := (r+1)*b.width + c + 1
	left := len(b.hEdges) + r*(b.width+1) + c + 1
	right := left + 1
	return [4]int{top, bottom, left, right}
}

func (b *boxesEngine) Turn() (string, bool) {
	if _, done := b.Outcome(); done {
		return "", false
	}
	return b.players[b.turnIdx], true
}

func (b *boxesEngine) Apply(playerID string, mv Move) error {
	if _, done := b.Outcome(); done {
		return ErrGameOver
	}
	if mv.Kind != MoveDrawEdge {
		return ErrInvalidMove
	}
	if b.players[b.turnIdx] != playerID {
		return ErrNotYourTurn
	}
	if mv.Edge < 1 || mv.Edge > b.edgeCount() {
		return ErrInvalidMove
	}
	slot := b.edgeSlot(mv.Edge)
	if *slot != "" {
		return ErrInvalidMove
	}
	*slot = playerID

	// The drawer claims every box this edge just closed, and a claim
	// grants an extra turn.
	claimed := 0
	for r := 0; r < b.height; r++ {
		for c := 0; c < b.width; c++ {
			if b.boxes[r*b.width+c] != "" {
				continue
			}
			edges := b.boxEdges(r, c)
			closed := true
			for _, id := range edges {
				if *b.edgeSlot(id) == "" {
					closed = false
					break
				}
			}
			if closed {
				b.boxes[r*b.width+c] = playerID
				claimed++
			}
		}
	}
	if claimed == 0 {
		b.turnIdx = (b.turnIdx + 1) % len(b.players)
	}
	return nil
}

func (b *boxesEngine) Outcome() (Outcome, bool) {
	scores := make(map[string]int, len(b.players))
	for _, id := range b.players {
		scores[id] = 0
	}
	for _, owner := range b.boxes {
		if owner == "" {
			return Outcome{}, false
		}
		scores[owner]++
	}
	best := -1
	for _, id := range b.players {
		if scores[id] > best {
			best = scores[id]
		}
	}
	var winners []string
	for _, id := range b.players {
		if scores[id] == best {
			winners = append(winners, id)
		}
	}
	return Outcome{
		Winners: winners,
		Draw:    len(winners) > 1,
		Scores:  scores,
	}, true
}

func (b *boxesEngine) State() State {
	return State{
		Type: TypeBoxes,
		Boxes: &BoxesState{
			Width:           b.width,
			Height:          b.height,
			Players:         append([]string(nil), b.players...),
			TurnIndex:       b.turnIdx,
			HorizontalEdges: append([]string(nil), b.hEdges...),
			VerticalEdges:   append([]string(nil), b.vEdges...),
			Boxes:           append([]string(nil), b.boxes...),
		},
	}
}
