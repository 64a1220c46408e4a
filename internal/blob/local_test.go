package blob

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLocalStoreSaveLoadExists(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	ok, err := store.Exists(ctx, "roster.json")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if ok {
		t.Fatal("expected Exists() false before save")
	}

	want := []byte(`{"users":[]}`)
	if err := store.SaveJSON(ctx, "roster.json", want); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}

	ok, err = store.Exists(ctx, "roster.json")
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v; want true, nil", ok, err)
	}

	got, err := store.LoadJSON(ctx, "roster.json")
	if err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("LoadJSON() = %q, want %q", got, want)
	}
}

func TestLocalStoreSaveJSONCreatesNestedDirs(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store := NewLocalStore(filepath.Join(base, "nested", "dir"))

	if err := store.SaveJSON(ctx, "out.json", []byte("{}")); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}
	if _, err := store.LoadJSON(ctx, "out.json"); err != nil {
		t.Fatalf("LoadJSON() error = %v", err)
	}
}

func TestLocalStoreLoadMissingErrors(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore(t.TempDir())

	if _, err := store.LoadJSON(ctx, "missing.json"); err == nil {
		t.Fatal("expected error loading missing file")
	}
}
