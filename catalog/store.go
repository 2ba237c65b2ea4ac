package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Store persists catalogs by game type to catalogs.json. Used when the engine
// runs without a database and by the importer command.
type Store struct {
	mu       sync.RWMutex
	catalogs map[string]*Catalog
	dataDir  string
}

func NewStore(dataDir string) *Store {
	if dataDir == "" {
		dataDir = "data"
	}
	s := &Store{
		catalogs: make(map[string]*Catalog),
		dataDir:  dataDir,
	}
	s.load()
	return s
}

func (s *Store) path() string {
	return filepath.Join(s.dataDir, "catalogs.json")
}

type storedEntry struct {
	GameType string   `json:"game_type"`
	Catalog  *Catalog `json:"catalog"`
}

func (s *Store) load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path())
	if err != nil {
		return
	}
	var list []storedEntry
	if err := json.Unmarshal(data, &list); err != nil {
		return
	}
	for _, e := range list {
		if e.GameType != "" && e.Catalog != nil {
			s.catalogs[e.GameType] = e.Catalog
		}
	}
}

// saveLocked writes the store to disk. Caller must hold s.mu.
func (s *Store) saveLocked() error {
	list := make([]storedEntry, 0, len(s.catalogs))
	for id, c := range s.catalogs {
		list = append(list, storedEntry{GameType: id, Catalog: c})
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

// Register stores a catalog by its game type. Overwrites if exists.
func (s *Store) Register(c *Catalog) error {
	if c == nil || c.GameType == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogs[c.GameType] = c
	return s.saveLocked()
}

// Get returns the catalog for the given game type, or nil.
func (s *Store) Get(gameType string) *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.catalogs[gameType]
	if !ok {
		return nil
	}
	return c
}
