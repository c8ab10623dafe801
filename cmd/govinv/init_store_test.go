package main

import (
	"context"
	"path/filepath"
	"testing"

	"govinv/internal/slogutil"
	"govinv/internal/storage"
)

func TestInitStoreCreatesReadableStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "inventory.db")
	initStorePath = path
	t.Cleanup(func() { initStorePath = "" })

	initStoreCmd.SetContext(context.Background())
	for i := 0; i < 2; i++ {
		if err := runInitStore(initStoreCmd, nil); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	store, err := storage.Open(context.Background(), storage.Options{Driver: "sqlite", Path: path}, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestToolsUnknownName(t *testing.T) {
	if err := runTools(toolsCmd, []string{"no_such_tool"}); err == nil {
		t.Error("expected an error for an unknown tool")
	}
}
