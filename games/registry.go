package games

import (
	"sync"

	premio "github.com/Flynicolas/premio-caixa-magica-sub006"
)

// Kind selects the presentation front-end for a game type.
type Kind string

const (
	KindChest   Kind = "chest"   // spinning-reel roulette
	KindScratch Kind = "scratch" // 3x3 grid reveal
)

// GameType is one closed-set game identifier with its price.
type GameType struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// UnknownTypeError is returned for game type ids outside the registered set.
// Unknown ids are rejected at the boundary, never resolved to a nil config.
type UnknownTypeError struct {
	ID string
}

func (e *UnknownTypeError) Error() string {
	return "unknown game type " + e.ID
}

type Registry struct {
	mu    sync.RWMutex
	types map[string]*GameType
}

// NewRegistry seeds the registry from the file store (when given), then from
// the game_types table when a database is configured. DB rows win on overlap.
func NewRegistry(store *Store) *Registry {
	r := &Registry{types: make(map[string]*GameType)}
	if store != nil {
		for _, t := range store.All() {
			r.Register(t)
		}
	}
	_ = loadFromDB(r)
	return r
}

func (r *Registry) Register(t *GameType) {
	if t == nil || t.ID == "" {
		return
	}
	if t.Currency == "" {
		t.Currency = "BRL"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.ID] = t
}

// Get returns the registered game type, optionally restricted to one kind.
func (r *Registry) Get(id string, kind Kind) (*GameType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[id]
	if !ok || (kind != "" && t.Kind != kind) {
		return nil, &UnknownTypeError{ID: id}
	}
	return t, nil
}

func (r *Registry) List() []*GameType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*GameType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	return out
}

// loadFromDB loads the game type catalog from the game_types table.
// Uses: id, kind, name, price, currency, enabled.
func loadFromDB(r *Registry) error {
	db, err := premio.GetDB()
	if err != nil || db == nil {
		return err
	}
	rows, err := db.Query(`SELECT id, kind, COALESCE(name, ''), price, COALESCE(currency, 'BRL') FROM game_types WHERE enabled = true`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var t GameType
		var kind string
		if err := rows.Scan(&t.ID, &kind, &t.Name, &t.Price, &t.Currency); err != nil {
			return err
		}
		if t.ID == "" {
			continue
		}
		t.Kind = Kind(kind)
		r.Register(&t)
	}
	return rows.Err()
}
