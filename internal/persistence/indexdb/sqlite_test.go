package indexdb

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func TestRecordAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	for i := 1; i <= 20; i++ {
		if err := idx.RecordTick(uint64(i), float32(i), 5.1, 0, true); err != nil {
			t.Fatalf("record tick %d: %v", i, err)
		}
	}
	if err := idx.RecordChunkEvent(7, 1, -2, "unload"); err != nil {
		t.Fatalf("record chunk event: %v", err)
	}
	if err := idx.SetMeta("seed", "1337"); err != nil {
		t.Fatalf("set meta: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ticks`).Scan(&n); err != nil {
		t.Fatalf("count ticks: %v", err)
	}
	if n != 20 {
		t.Fatalf("tick rows = %d, want 20", n)
	}

	var event string
	err = db.QueryRow(
		`SELECT event FROM chunk_events WHERE cx = 1 AND cz = -2`).Scan(&event)
	if err != nil || event != "unload" {
		t.Fatalf("chunk event = %q (%v), want unload", event, err)
	}

	var seed string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'seed'`).Scan(&seed); err != nil {
		t.Fatalf("meta: %v", err)
	}
	if seed != "1337" {
		t.Fatalf("seed meta = %q", seed)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "t.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	// Writes after close are dropped without error.
	if err := idx.RecordTick(1, 0, 0, 0, false); err != nil {
		t.Fatalf("write after close: %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatalf("empty path accepted")
	}
}
