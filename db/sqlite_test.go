package db

import (
	"path/filepath"
	"testing"
	"time"

	"geoflow/validate"
)

func TestSaveRunAndHistory(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	first := time.Date(2022, 1, 1, 10, 0, 0, 0, time.UTC)
	err = store.SaveRun(first, []validate.Result{
		{Name: "date_order", Passed: true, Duration: 12 * time.Millisecond},
		{Name: "band_count", Passed: false, Details: []string{"found band counts [17]"}},
	})
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	second := first.Add(time.Hour)
	err = store.SaveRun(second, []validate.Result{
		{Name: "date_order", Passed: true},
	})
	if err != nil {
		t.Fatalf("second SaveRun failed: %v", err)
	}

	runs, err := store.History(10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	// Newest first.
	if !runs[0].Passed {
		t.Error("newest run should have passed")
	}
	if runs[1].Passed {
		t.Error("oldest run should have failed")
	}
	if len(runs[1].Failed) != 1 || runs[1].Failed[0] != "band_count" {
		t.Errorf("failed checks = %v, want [band_count]", runs[1].Failed)
	}
}

func TestHistoryLimit(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "reports.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	base := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := store.SaveRun(base.Add(time.Duration(i)*time.Hour), nil); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := store.History(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Errorf("got %d runs, want 3", len(runs))
	}
}
