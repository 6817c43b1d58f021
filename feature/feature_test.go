package feature

import (
	"os"
	"path/filepath"
	"testing"
)

func makeArray(timesteps, bands int) [][]float64 {
	array := make([][]float64, timesteps)
	for i := range array {
		array[i] = make([]float64, bands)
	}
	return array
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a_2019_01_01.gob")
	instance := &DataInstance{
		InstanceLat:   -1.25,
		InstanceLon:   30.5,
		SourceFile:    "labels.csv",
		LabelledArray: makeArray(24, 18),
	}
	if err := instance.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loader, err := NewLoader(8)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.InstanceLat != -1.25 || loaded.InstanceLon != 30.5 {
		t.Errorf("coords lost in roundtrip: %+v", loaded)
	}
	if loaded.Timesteps() != 24 || loaded.Bands() != 18 {
		t.Errorf("got %dx%d array, want 24x18", loaded.Timesteps(), loaded.Bands())
	}
}

func TestLoadReloadsRewrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.gob")
	first := &DataInstance{SourceFile: "s", LabelledArray: makeArray(1, 17)}
	if err := first.Save(path); err != nil {
		t.Fatal(err)
	}

	loader, err := NewLoader(8)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := loader.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Bands() != 17 {
		t.Fatalf("got %d bands, want 17", loaded.Bands())
	}

	// Rewriting the artifact must evict the cached copy.
	second := &DataInstance{SourceFile: "s", LabelledArray: makeArray(1, 18)}
	if err := second.Save(path); err != nil {
		t.Fatal(err)
	}
	reloaded, err := loader.Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Bands() != 18 {
		t.Errorf("got %d bands after rewrite, want 18", reloaded.Bands())
	}
}

func TestLoadMissingAfterCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.gob")
	instance := &DataInstance{SourceFile: "s", LabelledArray: makeArray(1, 18)}
	if err := instance.Save(path); err != nil {
		t.Fatal(err)
	}

	loader, err := NewLoader(8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(path); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(path); !os.IsNotExist(err) {
		t.Errorf("got %v, want a not-exist error for a deleted artifact", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gob")
	if err := os.WriteFile(path, []byte("not a gob"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader, err := NewLoader(8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loader.Load(path); err == nil {
		t.Error("expected an error for a corrupt artifact")
	}
}

func TestBandsEmpty(t *testing.T) {
	instance := &DataInstance{}
	if instance.Bands() != 0 || instance.Timesteps() != 0 {
		t.Error("empty instance should report zero dimensions")
	}
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a_2019_01_01", "b_2020_01_01"} {
		instance := &DataInstance{SourceFile: name + ".csv", LabelledArray: makeArray(12, 18)}
		if err := instance.Save(filepath.Join(dir, name+".gob")); err != nil {
			t.Fatal(err)
		}
	}
	// Non-feature files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader, err := NewLoader(8)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := Catalog(dir, loader)
	if err != nil {
		t.Fatalf("Catalog failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Filename != "a_2019_01_01" {
		t.Errorf("got stem %q", rows[0].Filename)
	}
}

func TestCatalogMissingDir(t *testing.T) {
	loader, err := NewLoader(8)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := Catalog(filepath.Join(t.TempDir(), "nope"), loader)
	if err != nil {
		t.Fatalf("missing features dir should not error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}
