package game

import (
	"errors"
	"math/rand"
	"time"
)

const defaultBingoBoardSize = 5

// BingoState is the serializable state of a bingo game. Boards are square
// grids holding each number 1..size² exactly once; Called is append-only
// in call order.
type BingoState struct {
	Size        int                `json:"size"`
	Players     []string           `json:"players"`
	CallerIndex int                `json:"caller_index"`
	Boards      map[string][][]int `json:"boards"`
	Called      []int              `json:"called"`
	Winners     []string           `json:"winners"`
}

type bingoEngine struct {
	size      int
	players   []string
	callerIdx int
	boards    map[string][][]int
	called    []int
	winners   []string
}

func newBingo(players []string, size int) (*bingoEngine, error) {
	if size == 0 {
		size = defaultBingoBoardSize
	}
	if size < 3 || size > 9 {
		return nil, errors.New("bingo board size out of range")
	}
	eng := &bingoEngine{
		size:      size,
		players:   append([]string(nil), players...),
		callerIdx: 0,
		boards:    make(map[string][][]int, len(players)),
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for _, id := range players {
		eng.boards[id] = generateBoard(size, rng)
	}
	return eng, nil
}

func restoreBingo(state BingoState) (*bingoEngine, error) {
	if state.Size < 3 || state.Size > 9 {
		return nil, errors.New("bingo board size out of range")
	}
	if len(state.Players) < 2 {
		return nil, errors.New("not enough players")
	}
	for _, id := range state.Players {
		board := state.Boards[id]
		if len(board) != state.Size {
			return nil, errors.New("board dimensions mismatch")
		}
		for _, row := range board {
			if len(row) != state.Size {
				return nil, errors.New("board dimensions mismatch")
			}
		}
	}
	if state.CallerIndex < 0 || state.CallerIndex >= len(state.Players) {
		return nil, errors.New("caller index out of range")
	}
	return &bingoEngine{
		size:      state.Size,
		players:   append([]string(nil), state.Players...),
		callerIdx: state.CallerIndex,
		boards:    copyBoards(state.Boards),
		called:    append([]int(nil), state.Called...),
		winners:   append([]string(nil), state.Winners...),
	}, nil
}

// generateBoard deals the numbers 1..size² onto a size×size grid in
// shuffled order.
func generateBoard(size int, rng *rand.Rand) [][]int {
	numbers := make([]int, size*size)
	for i := range numbers {
		numbers[i] = i + 1
	}
	rng.Shuffle(len(numbers), func(i, j int) {
		numbers[i], numbers[j] = numbers[j], numbers[i]
	})
	board := make([][]int, size)
	for r := 0; r < size; r++ {
		board[r] = numbers[r*size : (r+1)*size]
	}
	return board
}

func copyBoards(boards map[string][][]int) map[string][][]int {
	out := make(map[string][][]int, len(boards))
	for id, board := range boards {
		rows := make([][]int, len(board))
		for i, row := range board {
			rows[i] = append([]int(nil), row...)
		}
		out[id] = rows
	}
	return out
}

func (b *bingoEngine) Type() Type { return TypeBingo }

func (b *bingoEngine) Turn() (string, bool) {
	if len(b.winners) > 0 {
		return "", false
	}
	return b.players[b.callerIdx], true
}

func (b *bingoEngine) Apply(playerID string, mv Move) error {
	if len(b.winners) > 0 {
		return ErrGameOver
	}
	if mv.Kind != MoveCallNumber {
		return ErrInvalidMove
	}
	if b.players[b.callerIdx] != playerID {
		return ErrNotYourTurn
	}
	if mv.Number < 1 || mv.Number > b.size*b.size {
		return ErrInvalidMove
	}
	for _, n := range b.called {
		if n == mv.Number {
			return ErrInvalidMove
		}
	}
	b.called = append(b.called, mv.Number)

	// Every board marking this call is re-scored; all players completing
	// on the same call are joint winners.
	for _, id := range b.players {
		if completedLines(b.boards[id], b.called) >= b.size {
			b.winners = append(b.winners, id)
		}
	}
	if len(b.winners) == 0 {
		b.callerIdx = (b.callerIdx + 1) % len(b.players)
	}
	return nil
}

func (b *bingoEngine) Outcome() (Outcome, bool) {
	if len(b.winners) == 0 {
		return Outcome{}, false
	}
	scores := make(map[string]int, len(b.players))
	for _, id := range b.players {
		scores[id] = completedLines(b.boards[id], b.called)
	}
	return Outcome{
		Winners: append([]string(nil), b.winners...),
		Scores:  scores,
	}, true
}

func (b *bingoEngine) State() State {
	return State{
		Type: TypeBingo,
		Bingo: &BingoState{
			Size:        b.size,
			Players:     append([]string(nil), b.players...),
			CallerIndex: b.callerIdx,
			Boards:      copyBoards(b.boards),
			Called:      append([]int(nil), b.called...),
			Winners:     append([]string(nil), b.winners...),
		},
	}
}

// completedLines counts fully-called rows, columns and the two diagonals.
func completedLines(board [][]int, called []int) int {
	size := len(board)
	marked := make(map[int]struct{}, len(called))
	for _, n := range called {
		marked[n] = struct{}{}
	}
	hit := func(r, c int) bool {
		_, ok := marked[board[r][c]]
		return ok
	}
	lines := 0
	for r := 0; r < size; r++ {
		full := true
		for c := 0; c < size; c++ {
			if !hit(r, c) {
				full = false
				break
			}
		}
		if full {
			lines++
		}
	}
	for c := 0; c < size; c++ {
		full := true
		for r := 0; r < size; r++ {
			if !hit(r, c) {
				full = false
				break
			}
		}
		if full {
			lines++
		}
	}
	diag := true
	for i := 0; i < size; i++ {
		if !hit(i, i) {
			diag = false
			break
		}
	}
	if diag {
		lines++
	}
	anti := true
	for i := 0; i < size; i++ {
		if !hit(i, size-1-i) {
			anti = false
			break
		}
	}
	if anti {
		lines++
	}
	return lines
}
