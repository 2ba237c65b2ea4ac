package games

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Store persists game types to game_types.json so the engine and the importer
// can run without a database.
type Store struct {
	mu      sync.RWMutex
	types   map[string]*GameType
	dataDir string
}

func NewStore(dataDir string) *Store {
	if dataDir == "" {
		dataDir = "data"
	}
	s := &Store{
		types:   make(map[string]*GameType),
		dataDir: dataDir,
	}
	s.load()
	return s
}

func (s *Store) path() string {
	return filepath.Join(s.dataDir, "game_types.json")
}

func (s *Store) load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path())
	if err != nil {
		return
	}
	var list []*GameType
	if err := json.Unmarshal(data, &list); err != nil {
		return
	}
	for _, t := range list {
		if t != nil && t.ID != "" {
			s.types[t.ID] = t
		}
	}
}

// saveLocked writes the store to disk. Caller must hold s.mu.
func (s *Store) saveLocked() error {
	list := make([]*GameType, 0, len(s.types))
	for _, t := range s.types {
		list = append(list, t)
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

// Register stores a game type by id. Overwrites if exists.
func (s *Store) Register(t *GameType) error {
	if t == nil || t.ID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[t.ID] = t
	return s.saveLocked()
}

// All returns every stored game type.
func (s *Store) All() []*GameType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*GameType, 0, len(s.types))
	for _, t := range s.types {
		out = append(out, t)
	}
	return out
}
