package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/Flynicolas/premio-caixa-magica-sub006/settle"
)

// SettleRequest references a server-issued game id. The client never sends
// its own win determination; the pending outcome recorded at draw time is
// authoritative.
type SettleRequest struct {
	GameID string `json:"gameId"`
}

type SettleResponse struct {
	Success       bool    `json:"success"`
	GameID        string  `json:"gameId,omitempty"`
	WalletBalance float64 `json:"walletBalance"`
	Message       string  `json:"message,omitempty"`
	Error         string  `json:"error,omitempty"`
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, SettleResponse{Success: false, Error: "session token required"})
		return
	}
	var req SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, SettleResponse{Success: false, Error: "invalid body"})
		return
	}
	req.GameID = strings.TrimSpace(req.GameID)
	if req.GameID == "" {
		writeJSON(w, http.StatusBadRequest, SettleResponse{Success: false, Error: "gameId required"})
		return
	}

	res, err := s.settler.Settle(r.Context(), token, req.GameID)
	if err != nil {
		var authErr *settle.AuthenticationError
		var ledgerErr *settle.LedgerError
		switch {
		case errors.Is(err, settle.ErrUnknownGame):
			writeJSON(w, http.StatusNotFound, SettleResponse{Success: false, Error: "game not found or already expired"})
		case errors.As(err, &authErr):
			writeJSON(w, http.StatusUnauthorized, SettleResponse{Success: false, Error: "invalid session"})
		case errors.As(err, &ledgerErr):
			// Retryable with the same gameId; the game stays unsettled, not lost.
			log.Printf("engine settle %s: %v", req.GameID, err)
			writeJSON(w, http.StatusBadGateway, SettleResponse{Success: false, GameID: req.GameID, Error: "settlement failed, retry with same gameId"})
		default:
			log.Printf("engine settle %s: %v", req.GameID, err)
			writeJSON(w, http.StatusInternalServerError, SettleResponse{Success: false, Error: "internal error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, SettleResponse{
		Success:       true,
		GameID:        res.GameID,
		WalletBalance: res.WalletBalance,
		Message:       "game settled",
	})
}

func bearerToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if token != "" && strings.HasPrefix(token, "Bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return ""
}
