package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	premio "github.com/Flynicolas/premio-caixa-magica-sub006"
	"github.com/Flynicolas/premio-caixa-magica-sub006/catalog"
	"github.com/Flynicolas/premio-caixa-magica-sub006/games"

	"github.com/joho/godotenv"
)

// importFile is the on-disk format for one game type and its catalog.
type importFile struct {
	GameType *games.GameType `json:"gameType"`
	Entries  []catalog.Entry `json:"entries"`
}

func main() {
	file := flag.String("file", "", "catalog JSON file to import")
	dataDir := flag.String("data-dir", "data", "engine data dir for the file store")
	flag.Parse()
	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: catalog_importer -file catalog.json [-data-dir data]")
		os.Exit(2)
	}
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %s: %v", *file, err)
	}
	var imp importFile
	if err := json.Unmarshal(data, &imp); err != nil {
		log.Fatalf("parse %s: %v", *file, err)
	}
	if imp.GameType == nil || imp.GameType.ID == "" {
		log.Fatal("gameType with id required")
	}
	if len(imp.Entries) == 0 {
		log.Fatal("entries required")
	}

	cat := &catalog.Catalog{GameType: imp.GameType.ID, Entries: imp.Entries}
	if err := cat.Validate(); err != nil {
		log.Fatalf("catalog invalid: %v", err)
	}

	store := catalog.NewStore(*dataDir)
	if err := store.Register(cat); err != nil {
		log.Fatalf("register catalog: %v", err)
	}
	typeStore := games.NewStore(*dataDir)
	if err := typeStore.Register(imp.GameType); err != nil {
		log.Fatalf("register game type: %v", err)
	}
	log.Printf("catalog %s: game type and %d entries written to file store", cat.GameType, len(cat.Entries))

	db, err := premio.GetDB()
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if db == nil {
		log.Print("DATABASE_URL not set, skipping database import")
		return
	}
	if err := importToDB(context.Background(), db, imp.GameType, cat); err != nil {
		log.Fatalf("database import: %v", err)
	}
	log.Printf("catalog %s: imported to database", cat.GameType)
}

func importToDB(ctx context.Context, db *sql.DB, gt *games.GameType, cat *catalog.Catalog) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO game_types (id, kind, name, price, currency, enabled)
		VALUES ($1, $2, $3, $4, $5, true)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind, name = EXCLUDED.name,
			price = EXCLUDED.price, currency = EXCLUDED.currency, enabled = true
	`, gt.ID, string(gt.Kind), gt.Name, gt.Price, gt.Currency)
	if err != nil {
		return fmt.Errorf("upsert game type: %w", err)
	}
	for _, e := range cat.Entries {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO prize_items (id, name, image_url, rarity, special, base_value, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, image_url = EXCLUDED.image_url,
				rarity = EXCLUDED.rarity, special = EXCLUDED.special,
				base_value = EXCLUDED.base_value, is_active = EXCLUDED.is_active
		`, e.Item.ID, e.Item.Name, e.Item.Image, e.Item.Rarity, e.Item.Special, e.Item.BaseValue, e.Item.Active)
		if err != nil {
			return fmt.Errorf("upsert item %s: %w", e.Item.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO prize_probabilities (game_type, item_id, weight, is_active)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (game_type, item_id) DO UPDATE SET
				weight = EXCLUDED.weight, is_active = EXCLUDED.is_active
		`, cat.GameType, e.Item.ID, e.Weight, e.Active)
		if err != nil {
			return fmt.Errorf("upsert probability %s/%s: %w", cat.GameType, e.Item.ID, err)
		}
	}
	return tx.Commit()
}
