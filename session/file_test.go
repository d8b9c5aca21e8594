package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestFileStoreWritesPrivateFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), "session.bin")
	st := NewFileStore(path)
	if err := st.Save(context.Background(), Session{Username: "alice", Tokens: Tokens{Access: "A", Refresh: "R"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != fileStoreFilePerm {
		t.Fatalf("expected mode %o, got %o", fileStoreFilePerm, perm)
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	st := NewFileStore(filepath.Join(dir, "session.bin"))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := st.Save(ctx, Session{Username: "alice", Tokens: Tokens{Access: "A", Refresh: "R"}}); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "session.bin" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only session.bin, got %v", names)
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.bin")
	ctx := context.Background()
	if err := NewFileStore(path).Save(ctx, Session{Username: "alice", Tokens: Tokens{Access: "A", Refresh: "R"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	reopened := NewFileStore(path)
	if !reopened.HasValidSession(ctx) {
		t.Fatal("expected session to survive a new store instance")
	}
}

func TestFileStoreCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.bin")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	st := NewFileStore(path)
	if _, err := st.Load(context.Background()); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
	if st.HasValidSession(context.Background()) {
		t.Fatal("corrupt record must not count as a valid session")
	}
}
