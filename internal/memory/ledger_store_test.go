package memory

import (
	"testing"
	"time"
)

func TestGetOrCreateLedger(t *testing.T) {
	store := newTestStore(t)

	l, err := store.GetOrCreateLedger("alice")
	if err != nil {
		t.Fatalf("first contact: %v", err)
	}
	if l.UserID != "alice" || l.Level != 0 || l.XP != 0 || l.PP != 0 || l.Coins != 0 {
		t.Errorf("fresh ledger not zero-valued: %+v", l)
	}

	// Second contact returns the same row, not a reset one.
	l.XP = 120
	l.Level = 1
	l.UpdatedAt = time.Now().UTC()
	if err := store.UpdateLedger(l); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, err := store.GetOrCreateLedger("alice")
	if err != nil {
		t.Fatalf("second contact: %v", err)
	}
	if again.XP != 120 || again.Level != 1 {
		t.Errorf("ledger reset on second contact: %+v", again)
	}
}

func TestUpdateLedger_RoundTrip(t *testing.T) {
	store := newTestStore(t)

	l, err := store.GetOrCreateLedger("bob")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	l.Level = 3
	l.XP = 777
	l.PP = 15
	l.Coins = 42
	l.CurrentStreak = 4
	l.LongestStreak = 9
	l.LastActiveDay = "2026-09-01"
	l.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	l.Synced = true
	if err := store.UpdateLedger(l); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.GetOrCreateLedger("bob")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Level != 3 || got.XP != 777 || got.PP != 15 || got.Coins != 42 {
		t.Errorf("numeric fields lost: %+v", got)
	}
	if got.CurrentStreak != 4 || got.LongestStreak != 9 || got.LastActiveDay != "2026-09-01" {
		t.Errorf("streak fields lost: %+v", got)
	}
	if !got.Synced {
		t.Error("synced flag lost")
	}
}

func TestUpdateLedger_MissingRow(t *testing.T) {
	store := newTestStore(t)

	l, err := store.GetOrCreateLedger("carol")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	l.UserID = "nobody"
	if err := store.UpdateLedger(l); err == nil {
		t.Error("updating a missing row should fail")
	}
}
