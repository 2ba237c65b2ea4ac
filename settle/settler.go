package settle

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	premio "github.com/Flynicolas/premio-caixa-magica-sub006"
)

// Wallet is the external ledger the settler debits and credits. Implemented
// by wallet.Client in production and by fakes in tests.
type Wallet interface {
	Balance(token string) (float64, int, error)
	Debit(token, currency string, amount float64, gameType string) (txID string, status int, err error)
	Credit(token, currency string, amount float64, gameType string) (status int, err error)
	Rollback(token, txID string) (status int, err error)
}

// ErrUnknownGame is returned when a game id has no pending outcome and no
// settled result. Not retryable.
var ErrUnknownGame = errors.New("settle: unknown game id")

// AuthenticationError marks a rejected session token. The client must
// re-authenticate; it is never treated as anonymous.
type AuthenticationError struct {
	Status int
}

func (e *AuthenticationError) Error() string {
	return "settle: wallet rejected session token"
}

// LedgerError wraps a wallet or database failure during settlement. Retryable
// with the same game id; the drawn outcome is unchanged, the game is just
// unsettled.
type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string {
	return "settle: " + e.Op + ": " + e.Err.Error()
}

func (e *LedgerError) Unwrap() error { return e.Err }

// Settler applies a game's cost debit and prize credit exactly once per game
// id. A per-game lock serializes concurrent retries; the results ledger makes
// later retries replays.
type Settler struct {
	wallet  Wallet
	pending *PendingStore
	results *ResultsStore

	mu    sync.Mutex
	locks map[string]*gameLock
}

func NewSettler(w Wallet, pending *PendingStore, results *ResultsStore) *Settler {
	return &Settler{wallet: w, pending: pending, results: results, locks: make(map[string]*gameLock)}
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

// lockGame serializes settlement per game id: overlapping retries for the
// same game must not both pass the replay check and reach the wallet.
func (s *Settler) lockGame(gameID string) *gameLock {
	s.mu.Lock()
	l := s.locks[gameID]
	if l == nil {
		l = &gameLock{}
		s.locks[gameID] = l
	}
	l.refs++
	s.mu.Unlock()
	l.mu.Lock()
	return l
}

func (s *Settler) unlockGame(gameID string, l *gameLock) {
	l.mu.Unlock()
	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, gameID)
	}
	s.mu.Unlock()
}

// Pending exposes the store draw handlers record outcomes into.
func (s *Settler) Pending() *PendingStore { return s.pending }

// Results exposes the settled-game ledger.
func (s *Settler) Results() *ResultsStore { return s.results }

// Settle finalizes the game: replay check, debit cost, credit prize, record.
// A retried call with the same game id returns the recorded result without
// touching the wallet. The pending outcome is the single source of truth for
// win/lose and prize value; callers supply only the game id.
func (s *Settler) Settle(ctx context.Context, token, gameID string) (*Result, error) {
	l := s.lockGame(gameID)
	defer s.unlockGame(gameID, l)

	existing, err := s.results.GetByGameID(gameID)
	if err != nil {
		// A broken ledger is never "not settled yet": re-debiting a possibly
		// settled game is worse than asking the client to retry.
		return nil, &LedgerError{Op: "replay check", Err: err}
	}
	if existing != nil {
		// Clears a pending entry left behind by an earlier failed record.
		s.pending.Delete(gameID)
		return existing, nil
	}
	out, ok := s.pending.Get(gameID)
	if !ok {
		return nil, ErrUnknownGame
	}

	txID, status, err := s.wallet.Debit(token, out.Currency, out.Cost, out.GameType)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, &AuthenticationError{Status: status}
		}
		return nil, &LedgerError{Op: "debit", Err: err}
	}
	if out.HasWin && out.PrizeValue > 0 {
		if _, err := s.wallet.Credit(token, out.Currency, out.PrizeValue, out.GameType); err != nil {
			// Undo the debit so a half-applied game never charges the player.
			if _, rbErr := s.wallet.Rollback(token, txID); rbErr != nil {
				log.Printf("settle: rollback of debit %s failed after credit error: %v", txID, rbErr)
			}
			return nil, &LedgerError{Op: "credit", Err: err}
		}
	}

	balance, _, err := s.wallet.Balance(token)
	if err != nil {
		log.Printf("settle: balance read failed for game %s: %v", gameID, err)
	}

	res := &Result{
		GameID:        out.GameID,
		GameType:      out.GameType,
		Cost:          out.Cost,
		PrizeValue:    out.PrizeValue,
		HasWin:        out.HasWin,
		WinningItemID: out.WinningItemID,
		DebitTxID:     txID,
		WalletBalance: balance,
		SettledAt:     time.Now(),
	}
	s.recordLedgerRow(ctx, out, txID)
	if err := s.results.Append(res); err != nil {
		// The result stays in the in-memory ledger, so the retry this error
		// asks for replays it instead of reaching the wallet again.
		log.Printf("settle: append result for game %s: %v", gameID, err)
		return nil, &LedgerError{Op: "record result", Err: err}
	}
	s.pending.Delete(gameID)
	return res, nil
}

// recordLedgerRow mirrors the settlement into Postgres when configured. The
// unique game_id constraint keeps retries from double-inserting.
func (s *Settler) recordLedgerRow(ctx context.Context, out *Outcome, txID string) {
	db, err := premio.GetDB()
	if err != nil || db == nil {
		return
	}
	netResult := out.PrizeValue - out.Cost
	_, err = db.ExecContext(ctx, `
		INSERT INTO engine_wallet_transactions (
			game_id, transaction_id, game_type, kind, status,
			cost, prize_value, net_result, currency, winning_item_id
		) VALUES ($1, $2, $3, $4, 'completed', $5, $6, $7, $8, $9)
		ON CONFLICT (game_id) DO NOTHING
	`,
		out.GameID,
		txID,
		out.GameType,
		out.Kind,
		out.Cost,
		out.PrizeValue,
		netResult,
		out.Currency,
		nullable(out.WinningItemID),
	)
	if err != nil {
		log.Printf("settle: ledger insert for game %s: %v", out.GameID, err)
	}
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
