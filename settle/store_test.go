package settle

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPendingStore_PutGetDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewPendingStore(dir)

	out := &Outcome{
		GameID:     "g-1",
		GameType:   "bau-bronze",
		Kind:       "chest",
		Cost:       10,
		Currency:   "BRL",
		HasWin:     true,
		PrizeValue: 50,
		CreatedAt:  time.Now(),
	}
	if err := s.Put(out); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Get("g-1")
	if !ok || got.GameType != "bau-bronze" || got.PrizeValue != 50 {
		t.Fatalf("got %+v ok=%v", got, ok)
	}
	s.Delete("g-1")
	if _, ok := s.Get("g-1"); ok {
		t.Error("deleted outcome still present")
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("unknown game id should not resolve")
	}
}

func TestPendingStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	s1 := NewPendingStore(dir)
	if err := s1.Put(&Outcome{GameID: "g-2", GameType: "raspadinha", Cost: 5, Currency: "BRL"}); err != nil {
		t.Fatal(err)
	}

	s2 := NewPendingStore(dir)
	got, ok := s2.Get("g-2")
	if !ok || got.GameType != "raspadinha" {
		t.Fatalf("after reload: %+v ok=%v", got, ok)
	}
}

func TestPendingStore_PutNilOrEmpty(t *testing.T) {
	s := NewPendingStore(t.TempDir())
	if err := s.Put(nil); err != nil {
		t.Errorf("Put(nil): %v", err)
	}
	if err := s.Put(&Outcome{GameID: ""}); err != nil {
		t.Errorf("Put(empty id): %v", err)
	}
}

func TestResultsStore_AppendGet(t *testing.T) {
	dir := t.TempDir()
	rs := NewResultsStore(dir)

	if got, err := rs.GetByGameID("none"); err != nil || got != nil {
		t.Fatalf("empty store: got %+v err %v", got, err)
	}

	r1 := &Result{GameID: "g-1", GameType: "bau-bronze", Cost: 10, SettledAt: time.Now()}
	r2 := &Result{GameID: "g-2", GameType: "raspadinha", Cost: 5, HasWin: true, PrizeValue: 25, SettledAt: time.Now()}
	if err := rs.Append(r1); err != nil {
		t.Fatal(err)
	}
	if err := rs.Append(r2); err != nil {
		t.Fatal(err)
	}

	got, err := rs.GetByGameID("g-2")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.PrizeValue != 25 || !got.HasWin {
		t.Errorf("got %+v", got)
	}
	if got, _ := rs.GetByGameID("g-3"); got != nil {
		t.Errorf("unknown id: got %+v", got)
	}
}

func TestResultsStore_CorruptFileErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "game_results.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	rs := NewResultsStore(dir)
	if _, err := rs.GetByGameID("g-1"); err == nil {
		t.Fatal("corrupt ledger must surface an error, not read as empty")
	}
}

func TestResultsStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	rs1 := NewResultsStore(dir)
	if err := rs1.Append(&Result{GameID: "g-9", Cost: 1, SettledAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	rs2 := NewResultsStore(dir)
	got, err := rs2.GetByGameID("g-9")
	if err != nil || got == nil {
		t.Fatalf("after reload: got %+v err %v", got, err)
	}
}
