package settle

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Result records a settled game for audit and idempotent replay.
type Result struct {
	GameID        string    `json:"gameId"`
	GameType      string    `json:"gameType"`
	Cost          float64   `json:"cost"`
	PrizeValue    float64   `json:"prizeValue"`
	HasWin        bool      `json:"hasWin"`
	WinningItemID string    `json:"winningItemId,omitempty"`
	DebitTxID     string    `json:"debitTxId,omitempty"`
	WalletBalance float64   `json:"walletBalance"`
	SettledAt     time.Time `json:"settledAt"`
}

// ResultsStore is the settled-game ledger, held in memory and persisted to
// game_results.json. A game id found here is already settled: replay returns
// the recorded result and never touches the wallet again.
type ResultsStore struct {
	mu      sync.Mutex
	dataDir string
	results []*Result
	byGame  map[string]*Result
	loadErr error
}

func NewResultsStore(dataDir string) *ResultsStore {
	if dataDir == "" {
		dataDir = "data"
	}
	rs := &ResultsStore{dataDir: dataDir, byGame: make(map[string]*Result)}
	rs.load()
	return rs
}

func (rs *ResultsStore) path() string {
	return filepath.Join(rs.dataDir, "game_results.json")
}

// load reads the ledger file. An unreadable or corrupt file is remembered as
// loadErr: a broken ledger must never be mistaken for "nothing settled yet".
func (rs *ResultsStore) load() {
	data, err := os.ReadFile(rs.path())
	if err != nil {
		if !os.IsNotExist(err) {
			rs.loadErr = err
		}
		return
	}
	var list []*Result
	if err := json.Unmarshal(data, &list); err != nil {
		rs.loadErr = err
		return
	}
	rs.results = list
	for _, r := range list {
		if r != nil && r.GameID != "" {
			rs.byGame[r.GameID] = r
		}
	}
}

// Append records a settled game in memory, then persists the ledger. The
// in-memory copy is kept even when the disk write fails, so replays within
// this process still find the result.
func (rs *ResultsStore) Append(r *Result) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.results = append(rs.results, r)
	if r.GameID != "" {
		rs.byGame[r.GameID] = r
	}
	data, err := json.MarshalIndent(rs.results, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(rs.dataDir, 0755); err != nil {
		return err
	}
	return os.WriteFile(rs.path(), data, 0644)
}

// GetByGameID returns a settled result by game id, or (nil, nil) when the
// game has not been settled. Errors when the ledger file could not be read.
func (rs *ResultsStore) GetByGameID(gameID string) (*Result, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.loadErr != nil {
		return nil, rs.loadErr
	}
	return rs.byGame[gameID], nil
}
