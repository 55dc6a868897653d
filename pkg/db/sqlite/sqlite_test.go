package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/zan8in/portprobe/pkg/db"
	"github.com/zan8in/portprobe/pkg/portscan"
)

func TestStoreSaveAndQuery(t *testing.T) {
	store, err := NewSqliteDB(filepath.Join(t.TempDir(), "scans.db"))
	if err != nil {
		t.Fatalf("NewSqliteDB: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	report := &portscan.ScanReport{
		ID:   "scan-a",
		Host: "example.com",
		IP:   "93.184.216.34",
		Results: []portscan.ProbeResult{
			{Port: 443, Open: true, State: portscan.PortStateOpen, Service: "HTTPS"},
			{Port: 22, Open: true, State: portscan.PortStateOpen, Service: "SSH", Banner: "SSH-2.0-test"},
			{Port: 23, State: portscan.PortStateClosed},
		},
		StartedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Elapsed:   1500 * time.Millisecond,
	}
	if err := store.SaveReport(ctx, report); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	other := &portscan.ScanReport{
		ID:        "scan-b",
		Host:      "10.0.0.1",
		IP:        "10.0.0.1",
		Results:   []portscan.ProbeResult{{Port: 80, State: portscan.PortStateFiltered}},
		StartedAt: time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC),
	}
	if err := store.SaveReport(ctx, other); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	if n, err := store.Count(ctx); err != nil || n != 2 {
		t.Fatalf("Count = %d, %v; want 2", n, err)
	}

	scans, err := store.ListScans(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if len(scans) != 2 || scans[0].ID != "scan-b" {
		t.Fatalf("expected newest scan first, got %+v", scans)
	}

	scans, err = store.ListScans(ctx, "example.com", 10)
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if len(scans) != 1 || scans[0].Ports != 3 || scans[0].OpenCount != 2 || scans[0].Elapsed != 1.5 {
		t.Fatalf("unexpected scan row: %+v", scans)
	}

	rows, err := store.GetResults(ctx, "scan-a", false)
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if len(rows) != 3 || rows[0].Port != 22 || rows[2].Port != 443 {
		t.Fatalf("results not ordered by port: %+v", rows)
	}
	if rows[0].Banner != "SSH-2.0-test" || rows[1].State != "closed" {
		t.Fatalf("unexpected result rows: %+v", rows)
	}

	open, err := store.GetResults(ctx, "scan-a", true)
	if err != nil {
		t.Fatalf("GetResults: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("expected 2 open results, got %+v", open)
	}
}

func TestStoreNotInitialized(t *testing.T) {
	var s *db.Store
	if err := s.SaveReport(context.Background(), &portscan.ScanReport{}); err == nil {
		t.Fatalf("expected error from nil store")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close on nil store: %v", err)
	}
}
