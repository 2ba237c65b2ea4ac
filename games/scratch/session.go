package scratch

import (
	"sync"
	"time"

	"github.com/Flynicolas/premio-caixa-magica-sub006/catalog"
)

// State of a scratch game session.
type State int

const (
	StateIdle State = iota
	StateLoaded
	StateRevealing
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoaded:
		return "loaded"
	case StateRevealing:
		return "revealing"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// Block is one grid cell. Revealed never resets within a session.
type Block struct {
	Index    int               `json:"index"`
	Revealed bool              `json:"revealed"`
	Item     catalog.PrizeItem `json:"item"`
}

// Session tracks reveal progress for one scratch game. Reveal actions are
// applied in call order under the session lock, so every win-check sees the
// monotonically grown set of revealed cells. The server-issued outcome
// (hasWin, winner) is carried unchanged; FindTriple on revealed cells is
// cosmetic feedback only.
//
// A Session exists only after a successful draw: a failed draw request leaves
// the caller with no session at all.
type Session struct {
	mu      sync.Mutex
	state   State
	gameID  string
	hasWin  bool
	winner  catalog.PrizeItem
	blocks  [GridSize]Block
	timer   *time.Timer
	matched bool
}

// NewSession starts a session in StateLoaded with all cells hidden.
func NewSession(gameID string, grid [GridSize]catalog.PrizeItem, hasWin bool, winner catalog.PrizeItem) *Session {
	s := &Session{
		state:  StateLoaded,
		gameID: gameID,
		hasWin: hasWin,
		winner: winner,
	}
	for i := range s.blocks {
		s.blocks[i] = Block{Index: i, Item: grid[i]}
	}
	return s
}

func (s *Session) GameID() string { return s.gameID }

// HasWin is the server-issued outcome, independent of reveal progress.
func (s *Session) HasWin() bool { return s.hasWin }

func (s *Session) Winner() catalog.PrizeItem { return s.winner }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Blocks returns a snapshot of the grid cells.
func (s *Session) Blocks() [GridSize]Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks
}

// Reveal uncovers cell i. Reveals on already-revealed cells are no-ops, and
// every reveal is ignored once the session is complete. It returns whether
// the revealed cells currently show a 3-of-a-kind (cosmetic) and whether the
// session completed with this action.
func (s *Session) Reveal(i int) (matched, complete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateComplete || s.state == StateIdle {
		return s.matched, s.state == StateComplete
	}
	if i < 0 || i >= GridSize || s.blocks[i].Revealed {
		return s.matched, false
	}
	s.blocks[i].Revealed = true
	s.state = StateRevealing
	s.evaluateLocked()
	return s.matched, s.state == StateComplete
}

// RevealAll is the shortcut transition to StateComplete from any non-complete
// state, marking every cell revealed.
func (s *Session) RevealAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateComplete {
		return
	}
	for i := range s.blocks {
		s.blocks[i].Revealed = true
	}
	s.evaluateLocked()
	s.state = StateComplete
}

// evaluateLocked re-checks the win condition over revealed cells and flips to
// StateComplete when a triple shows or all cells are revealed. Caller holds s.mu.
func (s *Session) evaluateLocked() {
	revealed := make([]catalog.PrizeItem, 0, GridSize)
	all := true
	for _, b := range s.blocks {
		if b.Revealed {
			revealed = append(revealed, b.Item)
		} else {
			all = false
		}
	}
	if _, ok := FindTriple(revealed); ok {
		s.matched = true
		s.state = StateComplete
		return
	}
	if all {
		s.state = StateComplete
	}
}

// ScheduleComplete arms a timer that runs fn after the reveal animation delay,
// unless the session is closed first. A previously armed timer is replaced.
func (s *Session) ScheduleComplete(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(d, fn)
}

// Close cancels any pending timer so a stale callback cannot fire a
// transition into a discarded session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
