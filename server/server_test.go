package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Flynicolas/premio-caixa-magica-sub006/catalog"
	"github.com/Flynicolas/premio-caixa-magica-sub006/config"
	"github.com/Flynicolas/premio-caixa-magica-sub006/games"
	"github.com/Flynicolas/premio-caixa-magica-sub006/settle"
)

type fakeWallet struct {
	balance  float64
	debits   int
	credits  int
	failAuth bool
}

func (f *fakeWallet) Balance(token string) (float64, int, error) {
	return f.balance, http.StatusOK, nil
}

func (f *fakeWallet) Debit(token, currency string, amount float64, gameType string) (string, int, error) {
	if f.failAuth {
		return "", http.StatusUnauthorized, fmt.Errorf("wallet: unauthorized")
	}
	f.debits++
	f.balance -= amount
	return fmt.Sprintf("tx-%d", f.debits), http.StatusOK, nil
}

func (f *fakeWallet) Credit(token, currency string, amount float64, gameType string) (int, error) {
	f.credits++
	f.balance += amount
	return http.StatusOK, nil
}

func (f *fakeWallet) Rollback(token, txID string) (int, error) {
	return http.StatusOK, nil
}

func chestCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		GameType: "bau-bronze",
		Entries: []catalog.Entry{
			{Item: catalog.PrizeItem{ID: "moeda", Name: "Moeda", Rarity: catalog.RarityCommon, BaseValue: 1, Active: true}, Weight: 70, Active: true},
			{Item: catalog.PrizeItem{ID: "fone", Name: "Fone", Rarity: catalog.RarityRare, BaseValue: 50, Active: true}, Weight: 20, Active: true},
			{Item: catalog.PrizeItem{ID: "relogio", Name: "Relogio", Rarity: catalog.RarityRare, BaseValue: 120, Active: true}, Weight: 10, Active: true},
			{Item: catalog.PrizeItem{ID: "iphone", Name: "iPhone", Rarity: catalog.RarityLegendary, BaseValue: 5000, Active: true}, Weight: 0, Active: true},
		},
	}
}

func scratchCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		GameType: "raspadinha",
		Entries: []catalog.Entry{
			{Item: catalog.PrizeItem{ID: "nada", Name: "Nada", Rarity: catalog.RarityCommon, BaseValue: 0, Active: true}, Weight: 80, Active: true},
			{Item: catalog.PrizeItem{ID: "moeda", Name: "Moeda", Rarity: catalog.RarityCommon, BaseValue: 1, Active: true}, Weight: 10, Active: true},
			{Item: catalog.PrizeItem{ID: "fone", Name: "Fone", Rarity: catalog.RarityRare, BaseValue: 50, Active: true}, Weight: 5, Active: true},
			{Item: catalog.PrizeItem{ID: "relogio", Name: "Relogio", Rarity: catalog.RarityRare, BaseValue: 120, Active: true}, Weight: 3, Active: true},
			{Item: catalog.PrizeItem{ID: "console", Name: "Console", Rarity: catalog.RarityEpic, BaseValue: 400, Active: true}, Weight: 2, Active: true},
			{Item: catalog.PrizeItem{ID: "iphone", Name: "iPhone", Rarity: catalog.RarityLegendary, BaseValue: 5000, Active: true}, Weight: 1, Active: true},
		},
	}
}

func newTestServer(t *testing.T, w settle.Wallet) *Server {
	t.Helper()
	dir := t.TempDir()
	store := catalog.NewStore(dir)
	if err := store.Register(chestCatalog()); err != nil {
		t.Fatal(err)
	}
	if err := store.Register(scratchCatalog()); err != nil {
		t.Fatal(err)
	}
	reg := games.NewRegistry(nil)
	reg.Register(&games.GameType{ID: "bau-bronze", Kind: games.KindChest, Name: "Bau Bronze", Price: 10, Currency: "BRL"})
	reg.Register(&games.GameType{ID: "raspadinha", Kind: games.KindScratch, Name: "Raspadinha", Price: 5, Currency: "BRL"})
	return &Server{
		cfg: &config.Config{
			AdminSecret:  "segredo",
			DataDir:      dir,
			DefaultSlots: 25,
		},
		catalogs: catalog.NewAccessor(store),
		registry: reg,
		settler:  settle.NewSettler(w, settle.NewPendingStore(dir), settle.NewResultsStore(dir)),
	}
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouletteGenerate(t *testing.T) {
	s := newTestServer(t, &fakeWallet{balance: 100})
	mux := s.routes()

	rr := postJSON(t, mux, "/engine/roulette/generate", RouletteGenerateRequest{ChestType: "bau-bronze"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	var resp RouletteGenerateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.GameID == "" {
		t.Error("generate must issue a game id")
	}
	if resp.TotalSlots != 25 || len(resp.RouletteSlots) != 25 {
		t.Errorf("slots %d/%d want 25", resp.TotalSlots, len(resp.RouletteSlots))
	}
	if resp.RouletteSlots[resp.CenterIndex].ID != resp.WinnerItem.ID {
		t.Error("center slot must hold the winner")
	}
	if _, ok := s.settler.Pending().Get(resp.GameID); !ok {
		t.Error("generate must record a pending outcome")
	}
}

func TestRouletteGenerate_FileStoresOnly(t *testing.T) {
	// The engine wired entirely from its JSON file stores, the way New does
	// without DATABASE_URL, must serve draws.
	dir := t.TempDir()
	store := catalog.NewStore(dir)
	if err := store.Register(chestCatalog()); err != nil {
		t.Fatal(err)
	}
	typeStore := games.NewStore(dir)
	if err := typeStore.Register(&games.GameType{ID: "bau-bronze", Kind: games.KindChest, Name: "Bau Bronze", Price: 10, Currency: "BRL"}); err != nil {
		t.Fatal(err)
	}
	w := &fakeWallet{balance: 100}
	s := &Server{
		cfg:      &config.Config{DataDir: dir, DefaultSlots: 25},
		catalogs: catalog.NewAccessor(store),
		registry: games.NewRegistry(games.NewStore(dir)),
		settler:  settle.NewSettler(w, settle.NewPendingStore(dir), settle.NewResultsStore(dir)),
	}

	rr := postJSON(t, s.routes(), "/engine/roulette/generate", RouletteGenerateRequest{ChestType: "bau-bronze"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	var resp RouletteGenerateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.GameID == "" || len(resp.RouletteSlots) != 25 {
		t.Errorf("resp %+v", resp)
	}
}

func TestRouletteGenerate_SlotCountValidation(t *testing.T) {
	s := newTestServer(t, &fakeWallet{})
	mux := s.routes()

	for _, slots := range []int{1, 2, 502, -10} {
		rr := postJSON(t, mux, "/engine/roulette/generate", RouletteGenerateRequest{ChestType: "bau-bronze", SlotsCount: slots}, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("slots=%d: status %d want 400", slots, rr.Code)
		}
	}
	rr := postJSON(t, mux, "/engine/roulette/generate", RouletteGenerateRequest{ChestType: "bau-bronze", SlotsCount: 75}, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("slots=75: status %d want 200", rr.Code)
	}
}

func TestRouletteGenerate_UnknownType(t *testing.T) {
	s := newTestServer(t, &fakeWallet{})
	rr := postJSON(t, s.routes(), "/engine/roulette/generate", RouletteGenerateRequest{ChestType: "bau-inexistente"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d want 400", rr.Code)
	}
	var apiErr APIError
	if err := json.Unmarshal(rr.Body.Bytes(), &apiErr); err != nil {
		t.Fatal(err)
	}
	if apiErr.Code != "UNKNOWN_GAME_TYPE" {
		t.Errorf("code %q", apiErr.Code)
	}
}

func TestRouletteGenerate_ScratchTypeRejected(t *testing.T) {
	// Kind mismatch: a scratch id through the roulette endpoint is unknown.
	s := newTestServer(t, &fakeWallet{})
	rr := postJSON(t, s.routes(), "/engine/roulette/generate", RouletteGenerateRequest{ChestType: "raspadinha"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d want 400", rr.Code)
	}
}

func TestRouletteGenerate_ForcedRequiresAdmin(t *testing.T) {
	s := newTestServer(t, &fakeWallet{})
	mux := s.routes()

	req := RouletteGenerateRequest{ChestType: "bau-bronze", ForcedItemID: "iphone"}
	rr := postJSON(t, mux, "/engine/roulette/generate", req, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("no secret: status %d want 403", rr.Code)
	}
	rr = postJSON(t, mux, "/engine/roulette/generate", req, map[string]string{"X-Admin-Secret": "errado"})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("wrong secret: status %d want 403", rr.Code)
	}

	rr = postJSON(t, mux, "/engine/roulette/generate", req, map[string]string{"X-Admin-Secret": "segredo"})
	if rr.Code != http.StatusOK {
		t.Fatalf("admin: status %d body %s", rr.Code, rr.Body.String())
	}
	var resp RouletteGenerateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.WinnerItem.ID != "iphone" {
		t.Errorf("forced winner %q want iphone", resp.WinnerItem.ID)
	}
}

func TestRouletteGenerate_ForcedUnknownItem(t *testing.T) {
	s := newTestServer(t, &fakeWallet{})
	req := RouletteGenerateRequest{ChestType: "bau-bronze", ForcedItemID: "nao-existe"}
	rr := postJSON(t, s.routes(), "/engine/roulette/generate", req, map[string]string{"X-Admin-Secret": "segredo"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d want 400", rr.Code)
	}
	var apiErr APIError
	if err := json.Unmarshal(rr.Body.Bytes(), &apiErr); err != nil {
		t.Fatal(err)
	}
	if apiErr.Code != "INVALID_FORCED_ITEM" {
		t.Errorf("code %q", apiErr.Code)
	}
}

func TestRouletteSimulate(t *testing.T) {
	s := newTestServer(t, &fakeWallet{})
	// Simulation ignores forced outcomes and issues no game id.
	req := RouletteGenerateRequest{ChestType: "bau-bronze", ForcedItemID: "iphone"}
	rr := postJSON(t, s.routes(), "/engine/roulette/simulate", req, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	var resp RouletteGenerateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.IsSimulation {
		t.Error("isSimulation flag missing")
	}
	if resp.GameID != "" {
		t.Error("simulation must not issue a game id")
	}
}

func TestScratchGenerate(t *testing.T) {
	s := newTestServer(t, &fakeWallet{})
	mux := s.routes()

	for i := 0; i < 50; i++ {
		rr := postJSON(t, mux, "/engine/scratch/generate", ScratchGenerateRequest{ScratchType: "raspadinha"}, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
		}
		var resp ScratchGenerateResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if len(resp.Symbols) != 9 {
			t.Fatalf("got %d symbols want 9", len(resp.Symbols))
		}
		if resp.GameID == "" {
			t.Fatal("scratch generate must issue a game id")
		}
		counts := map[string]int{}
		for _, sym := range resp.Symbols {
			counts[sym.ID]++
		}
		if resp.HasWin {
			if resp.WinningItem == nil {
				t.Fatal("winning card without winning item")
			}
			if counts[resp.WinningItem.ID] < 3 {
				t.Errorf("winner %q appears %d times", resp.WinningItem.ID, counts[resp.WinningItem.ID])
			}
		} else {
			if resp.WinningItem != nil {
				t.Errorf("losing card carries winning item %q", resp.WinningItem.ID)
			}
			for id, n := range counts {
				if n >= 3 {
					t.Errorf("losing card shows a triple of %q", id)
				}
			}
		}
		out, ok := s.settler.Pending().Get(resp.GameID)
		if !ok {
			t.Fatal("no pending outcome recorded")
		}
		if out.HasWin != resp.HasWin {
			t.Error("pending outcome disagrees with response")
		}
	}
}

func TestScratchGenerate_ForcedWin(t *testing.T) {
	s := newTestServer(t, &fakeWallet{})
	mux := s.routes()

	req := ScratchGenerateRequest{ScratchType: "raspadinha", ForcedWin: true}
	rr := postJSON(t, mux, "/engine/scratch/generate", req, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("no secret: status %d want 403", rr.Code)
	}

	for i := 0; i < 20; i++ {
		rr = postJSON(t, mux, "/engine/scratch/generate", req, map[string]string{"X-Admin-Secret": "segredo"})
		if rr.Code != http.StatusOK {
			t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
		}
		var resp ScratchGenerateResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if !resp.HasWin || resp.WinningItem == nil {
			t.Fatalf("forced win produced a losing card: %+v", resp)
		}
	}
}

func TestSettleEndpoint(t *testing.T) {
	w := &fakeWallet{balance: 100}
	s := newTestServer(t, w)
	mux := s.routes()

	gen := postJSON(t, mux, "/engine/roulette/generate", RouletteGenerateRequest{ChestType: "bau-bronze"}, nil)
	var game RouletteGenerateResponse
	if err := json.Unmarshal(gen.Body.Bytes(), &game); err != nil {
		t.Fatal(err)
	}

	auth := map[string]string{"Authorization": "Bearer token-abc"}
	rr := postJSON(t, mux, "/engine/settle", SettleRequest{GameID: game.GameID}, auth)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	var resp SettleResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.GameID != game.GameID {
		t.Errorf("resp %+v", resp)
	}
	if w.debits != 1 {
		t.Errorf("debits=%d want 1", w.debits)
	}

	// Retried settlement replays the recorded result without a second charge.
	rr = postJSON(t, mux, "/engine/settle", SettleRequest{GameID: game.GameID}, auth)
	if rr.Code != http.StatusOK {
		t.Fatalf("replay status %d", rr.Code)
	}
	if w.debits != 1 {
		t.Errorf("replay re-debited: debits=%d", w.debits)
	}
}

func TestSettleEndpoint_Errors(t *testing.T) {
	s := newTestServer(t, &fakeWallet{})
	mux := s.routes()
	auth := map[string]string{"Authorization": "Bearer token-abc"}

	rr := postJSON(t, mux, "/engine/settle", SettleRequest{GameID: "any"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d want 401", rr.Code)
	}

	rr = postJSON(t, mux, "/engine/settle", SettleRequest{GameID: ""}, auth)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty game id: status %d want 400", rr.Code)
	}

	rr = postJSON(t, mux, "/engine/settle", SettleRequest{GameID: "nao-existe"}, auth)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown game: status %d want 404", rr.Code)
	}
}

func TestSettleEndpoint_RejectedToken(t *testing.T) {
	w := &fakeWallet{failAuth: true}
	s := newTestServer(t, w)
	mux := s.routes()

	gen := postJSON(t, mux, "/engine/roulette/generate", RouletteGenerateRequest{ChestType: "bau-bronze"}, nil)
	var game RouletteGenerateResponse
	if err := json.Unmarshal(gen.Body.Bytes(), &game); err != nil {
		t.Fatal(err)
	}
	rr := postJSON(t, mux, "/engine/settle", SettleRequest{GameID: game.GameID}, map[string]string{"Authorization": "Bearer expirado"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status %d want 401", rr.Code)
	}
	if _, ok := s.settler.Pending().Get(game.GameID); !ok {
		t.Error("game must stay pending after rejected token")
	}
}

func TestCatalogEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeWallet{})
	mux := s.routes()

	req := httptest.NewRequest(http.MethodGet, "/engine/catalog?type=bau-bronze", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		GameType string `json:"gameType"`
		Entries  []struct {
			Item     catalog.PrizeItem `json:"item"`
			Weight   int64             `json:"weight"`
			Drawable bool              `json:"drawable"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Entries) != 4 {
		t.Fatalf("got %d entries want 4", len(resp.Entries))
	}
	for _, e := range resp.Entries {
		if e.Item.ID == "iphone" && e.Drawable {
			t.Error("zero-weight item flagged drawable")
		}
		if e.Item.ID == "moeda" && !e.Drawable {
			t.Error("weighted item flagged undrawable")
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/engine/catalog?type=desconhecido", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown type: status %d want 400", rr.Code)
	}
}

func TestGamesList(t *testing.T) {
	s := newTestServer(t, &fakeWallet{})
	req := httptest.NewRequest(http.MethodGet, "/engine/games/list", nil)
	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var resp struct {
		Games []*games.GameType `json:"games"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Games) != 2 {
		t.Errorf("got %d games want 2", len(resp.Games))
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeWallet{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	s.routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
}
