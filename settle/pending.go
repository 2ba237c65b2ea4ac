package settle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Outcome is the server-side record of one resolved draw awaiting settlement.
// Created once per purchased game; the game id is never regenerated on retry.
type Outcome struct {
	GameID        string    `json:"gameId"`
	GameType      string    `json:"gameType"`
	Kind          string    `json:"kind"` // "chest" or "scratch"
	Cost          float64   `json:"cost"`
	Currency      string    `json:"currency"`
	HasWin        bool      `json:"hasWin"`
	WinningItemID string    `json:"winningItemId,omitempty"`
	PrizeValue    float64   `json:"prizeValue"`
	CreatedAt     time.Time `json:"createdAt"`
}

// PendingStore holds resolved-but-unsettled outcomes, persisted to
// pending_games.json. Drawing has no financial effect; an abandoned entry
// here costs the player nothing.
type PendingStore struct {
	mu      sync.Mutex
	games   map[string]*Outcome
	dataDir string
}

func NewPendingStore(dataDir string) *PendingStore {
	if dataDir == "" {
		dataDir = "data"
	}
	s := &PendingStore{
		games:   make(map[string]*Outcome),
		dataDir: dataDir,
	}
	s.load()
	return s
}

func (s *PendingStore) path() string {
	return filepath.Join(s.dataDir, "pending_games.json")
}

func (s *PendingStore) load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path())
	if err != nil {
		return
	}
	var list []*Outcome
	if err := json.Unmarshal(data, &list); err != nil {
		return
	}
	for _, o := range list {
		if o != nil && o.GameID != "" {
			s.games[o.GameID] = o
		}
	}
}

// saveLocked writes the store to disk. Caller must hold s.mu.
func (s *PendingStore) saveLocked() error {
	list := make([]*Outcome, 0, len(s.games))
	for _, o := range s.games {
		list = append(list, o)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0644)
}

func (s *PendingStore) Put(o *Outcome) error {
	if o == nil || o.GameID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[o.GameID] = o
	return s.saveLocked()
}

func (s *PendingStore) Get(gameID string) (*Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.games[gameID]
	return o, ok
}

func (s *PendingStore) Delete(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, gameID)
	_ = s.saveLocked()
}
