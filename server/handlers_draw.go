package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Flynicolas/premio-caixa-magica-sub006/catalog"
	"github.com/Flynicolas/premio-caixa-magica-sub006/draw"
	"github.com/Flynicolas/premio-caixa-magica-sub006/games"
	"github.com/Flynicolas/premio-caixa-magica-sub006/games/roulette"
	"github.com/Flynicolas/premio-caixa-magica-sub006/games/scratch"
	"github.com/Flynicolas/premio-caixa-magica-sub006/settle"

	"github.com/google/uuid"
)

const maxSlots = 501

// RouletteGenerateRequest is the body for POST /engine/roulette/generate.
type RouletteGenerateRequest struct {
	ChestType    string `json:"chestType"`
	SlotsCount   int    `json:"slotsCount"`
	ForcedItemID string `json:"forcedItemId"`
}

// RouletteGenerateResponse carries the slot sequence around the winner.
type RouletteGenerateResponse struct {
	GameID        string              `json:"gameId,omitempty"`
	RouletteSlots []catalog.PrizeItem `json:"rouletteSlots"`
	WinnerItem    catalog.PrizeItem   `json:"winnerItem"`
	CenterIndex   int                 `json:"centerIndex"`
	TotalSlots    int                 `json:"totalSlots"`
	IsSimulation  bool                `json:"isSimulation,omitempty"`
	Error         string              `json:"error,omitempty"`
}

func (s *Server) handleRouletteGenerate(w http.ResponseWriter, r *http.Request) {
	s.rouletteDraw(w, r, false)
}

// handleRouletteSimulate is the unauthenticated try-before-you-buy draw: same
// shape as generate, but never forces an outcome and never creates a pending
// settlement.
func (s *Server) handleRouletteSimulate(w http.ResponseWriter, r *http.Request) {
	s.rouletteDraw(w, r, true)
}

func (s *Server) rouletteDraw(w http.ResponseWriter, r *http.Request, simulation bool) {
	var req RouletteGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	req.ChestType = strings.TrimSpace(req.ChestType)
	if req.ChestType == "" {
		writeError(w, http.StatusBadRequest, "chestType required", "INVALID_REQUEST")
		return
	}
	slots := req.SlotsCount
	if slots == 0 {
		slots = s.cfg.DefaultSlots
	}
	if slots < 3 || slots > maxSlots {
		writeError(w, http.StatusBadRequest, "slotsCount out of range", "INVALID_REQUEST")
		return
	}
	forced := strings.TrimSpace(req.ForcedItemID)
	if simulation {
		forced = ""
	} else if forced != "" && !s.isAdmin(r) {
		writeError(w, http.StatusForbidden, "forced outcome requires admin secret", "FORBIDDEN")
		return
	}

	gt, err := s.registry.Get(req.ChestType, games.KindChest)
	if err != nil {
		s.writeDrawError(w, err)
		return
	}
	cat, err := s.catalogs.Load(r.Context(), gt.ID, false)
	if err != nil {
		s.writeDrawError(w, err)
		return
	}
	winner, err := draw.Resolve(cat, forced, nil)
	if err != nil {
		s.writeDrawError(w, err)
		return
	}
	if forced != "" {
		log.Printf("engine roulette %s: forced outcome %s by admin", gt.ID, forced)
	}
	seq, err := roulette.Compose(cat.DisplayItems(), winner, slots, nil)
	if err != nil {
		s.writeDrawError(w, err)
		return
	}

	resp := RouletteGenerateResponse{
		RouletteSlots: seq,
		WinnerItem:    winner,
		CenterIndex:   roulette.CenterIndex(slots),
		TotalSlots:    slots,
		IsSimulation:  simulation,
	}
	if !simulation {
		resp.GameID = uuid.New().String()
		if err := s.settler.Pending().Put(&settle.Outcome{
			GameID:        resp.GameID,
			GameType:      gt.ID,
			Kind:          string(games.KindChest),
			Cost:          gt.Price,
			Currency:      gt.Currency,
			HasWin:        winner.BaseValue > 0,
			WinningItemID: winner.ID,
			PrizeValue:    winner.BaseValue,
			CreatedAt:     time.Now(),
		}); err != nil {
			log.Printf("engine roulette %s: store pending game: %v", gt.ID, err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ScratchGenerateRequest is the body for POST /engine/scratch/generate.
type ScratchGenerateRequest struct {
	ScratchType string `json:"scratchType"`
	ForcedWin   bool   `json:"forcedWin"`
}

// ScratchGenerateResponse carries the 9-cell grid and the decided outcome.
type ScratchGenerateResponse struct {
	GameID      string              `json:"gameId"`
	Symbols     []catalog.PrizeItem `json:"symbols"`
	WinningItem *catalog.PrizeItem  `json:"winningItem"`
	HasWin      bool                `json:"hasWin"`
	ScratchType string              `json:"scratchType"`
	Error       string              `json:"error,omitempty"`
}

func (s *Server) handleScratchGenerate(w http.ResponseWriter, r *http.Request) {
	var req ScratchGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body", "INVALID_BODY")
		return
	}
	req.ScratchType = strings.TrimSpace(req.ScratchType)
	if req.ScratchType == "" {
		writeError(w, http.StatusBadRequest, "scratchType required", "INVALID_REQUEST")
		return
	}
	if req.ForcedWin && !s.isAdmin(r) {
		writeError(w, http.StatusForbidden, "forced outcome requires admin secret", "FORBIDDEN")
		return
	}
	gt, err := s.registry.Get(req.ScratchType, games.KindScratch)
	if err != nil {
		s.writeDrawError(w, err)
		return
	}
	cat, err := s.catalogs.Load(r.Context(), gt.ID, false)
	if err != nil {
		s.writeDrawError(w, err)
		return
	}

	drawCat := cat
	if req.ForcedWin {
		drawCat = winOnly(cat)
		log.Printf("engine scratch %s: forced win by admin", gt.ID)
	}
	winner, err := draw.Resolve(drawCat, "", nil)
	if err != nil {
		s.writeDrawError(w, err)
		return
	}
	// Scratch catalogs carry losing entries as zero-value items; a zero-value
	// winner is a losing card.
	hasWin := winner.BaseValue > 0
	grid, err := scratch.ComposeGrid(hasWin, winner, cat.DisplayItems(), nil)
	if err != nil {
		s.writeDrawError(w, err)
		return
	}

	gameID := uuid.New().String()
	out := &settle.Outcome{
		GameID:    gameID,
		GameType:  gt.ID,
		Kind:      string(games.KindScratch),
		Cost:      gt.Price,
		Currency:  gt.Currency,
		HasWin:    hasWin,
		CreatedAt: time.Now(),
	}
	resp := ScratchGenerateResponse{
		GameID:      gameID,
		Symbols:     grid[:],
		HasWin:      hasWin,
		ScratchType: gt.ID,
	}
	if hasWin {
		item := winner
		resp.WinningItem = &item
		out.WinningItemID = winner.ID
		out.PrizeValue = winner.BaseValue
	}
	if err := s.settler.Pending().Put(out); err != nil {
		log.Printf("engine scratch %s: store pending game: %v", gt.ID, err)
	}
	writeJSON(w, http.StatusOK, resp)
}

// winOnly narrows a catalog to its prize-bearing entries for forced-win draws,
// keeping their relative weights.
func winOnly(cat *catalog.Catalog) *catalog.Catalog {
	out := &catalog.Catalog{GameType: cat.GameType}
	for _, e := range cat.Entries {
		if e.Item.BaseValue > 0 {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// handleCatalog returns the display catalog for a game type, zero-weight
// items included and flagged undrawable (GET /engine/catalog?type=...).
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	gameType := strings.TrimSpace(r.URL.Query().Get("type"))
	if gameType == "" {
		writeError(w, http.StatusBadRequest, "type required", "INVALID_REQUEST")
		return
	}
	if _, err := s.registry.Get(gameType, ""); err != nil {
		s.writeDrawError(w, err)
		return
	}
	cat, err := s.catalogs.Load(r.Context(), gameType, true)
	if err != nil {
		s.writeDrawError(w, err)
		return
	}
	type catalogRow struct {
		Item     catalog.PrizeItem `json:"item"`
		Weight   int64             `json:"weight"`
		Drawable bool              `json:"drawable"`
	}
	active := cat.Active()
	rows := make([]catalogRow, 0, len(active))
	for _, e := range active {
		rows = append(rows, catalogRow{Item: e.Item, Weight: e.Weight, Drawable: e.Weight > 0})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gameType": gameType,
		"entries":  rows,
	})
}

func (s *Server) isAdmin(r *http.Request) bool {
	secret := s.cfg.AdminSecret
	return secret != "" && r.Header.Get("X-Admin-Secret") == secret
}

// writeDrawError maps the draw error taxonomy onto HTTP responses. Catalog
// misconfiguration details go to the log, not the player.
func (s *Server) writeDrawError(w http.ResponseWriter, err error) {
	var unknownType *games.UnknownTypeError
	var forcedErr *draw.InvalidForcedItemError
	var cfgErr *catalog.ConfigurationError
	switch {
	case errors.As(err, &unknownType):
		writeError(w, http.StatusBadRequest, err.Error(), "UNKNOWN_GAME_TYPE")
	case errors.As(err, &forcedErr):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_FORCED_ITEM")
	case errors.As(err, &cfgErr):
		log.Printf("engine: %v", err)
		writeError(w, http.StatusInternalServerError, "this game is temporarily unavailable", "CONFIGURATION_ERROR")
	default:
		log.Printf("engine: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "TECHNICAL_ERROR")
	}
}
