package catalog

import (
	"context"
	"database/sql"

	premio "github.com/Flynicolas/premio-caixa-magica-sub006"
)

// Accessor resolves the live probability catalog for a game type. Every call
// reads current data: admins adjust weights at any time, so catalogs are never
// cached across draws. The snapshot returned by one Load call is internally
// consistent and used for exactly one resolution.
type Accessor struct {
	store *Store
}

func NewAccessor(store *Store) *Accessor {
	return &Accessor{store: store}
}

// Load returns the catalog for gameType from Postgres when a database is
// configured, otherwise from the file store. The catalog must validate unless
// forDisplay is set, in which case zero-weight-only catalogs are allowed.
func (a *Accessor) Load(ctx context.Context, gameType string, forDisplay bool) (*Catalog, error) {
	db, err := premio.GetDB()
	if err != nil {
		return nil, err
	}
	var cat *Catalog
	if db != nil {
		cat, err = loadFromDB(ctx, db, gameType)
		if err != nil {
			return nil, err
		}
	} else if a.store != nil {
		cat = a.store.Get(gameType)
	}
	if cat == nil || len(cat.Entries) == 0 {
		return nil, &ConfigurationError{GameType: gameType, Reason: "not configured"}
	}
	if forDisplay {
		if len(cat.Active()) == 0 {
			return nil, &ConfigurationError{GameType: gameType, Reason: "no active entries"}
		}
		return cat, nil
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// loadFromDB joins prize_items and prize_probabilities, filtered to active
// rows on both sides. Zero-weight entries are kept for display composition.
func loadFromDB(ctx context.Context, db *sql.DB, gameType string) (*Catalog, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT i.id::text, i.name, COALESCE(i.image_url, ''), i.rarity,
		       COALESCE(i.special, false), i.base_value, p.weight
		FROM prize_probabilities p
		JOIN prize_items i ON p.item_id = i.id
		WHERE p.game_type = $1 AND p.is_active = true AND i.is_active = true
		ORDER BY i.id
	`, gameType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cat := &Catalog{GameType: gameType}
	for rows.Next() {
		var item PrizeItem
		var weight int64
		if err := rows.Scan(&item.ID, &item.Name, &item.Image, &item.Rarity,
			&item.Special, &item.BaseValue, &weight); err != nil {
			return nil, err
		}
		item.Active = true
		cat.Entries = append(cat.Entries, Entry{Item: item, Weight: weight, Active: true})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cat, nil
}
