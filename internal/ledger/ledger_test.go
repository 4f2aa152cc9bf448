package ledger

import (
	"path/filepath"
	"testing"

	"github.com/chazu/akmc/akm/binary"
)

func TestOpenRecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer l.Close()

	h := &binary.Header{
		Name:            "widget",
		Version:         "1.0.0",
		Capabilities:    0x0801,
		HeaderChecksum:  1234,
		ContentChecksum: 5678,
	}
	id, err := l.Record("widget.akm.js", h)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty build ID")
	}

	entries, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.BuildID != id || e.ModuleName != "widget" || e.Capabilities != 0x0801 {
		t.Errorf("entry = %+v", e)
	}
}

func TestOpenCreatesTableIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.db")
	l1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	l1.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open (existing table): %v", err)
	}
	defer l2.Close()
}
