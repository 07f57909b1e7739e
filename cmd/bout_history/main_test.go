package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lucasjlepore/crit-study/store"
)

func TestHistoryExists(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "crit_history.db")

	ok, err := historyExists(missing)
	if err != nil || ok {
		t.Fatalf("historyExists(missing) = %v, %v", ok, err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Fatalf("checking a missing history must not create it: %v", err)
	}

	db, err := store.Open(missing)
	if err != nil {
		t.Fatalf("store.Open error: %v", err)
	}
	if err := listRuns(context.Background(), db); err != nil {
		t.Fatalf("listRuns error: %v", err)
	}
	_ = db.Close()

	ok, err = historyExists(missing)
	if err != nil || !ok {
		t.Fatalf("historyExists(existing) = %v, %v", ok, err)
	}
}
