package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestMigrations(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	version, err := d.Version(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}

	// applying again is a no-op
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	if err := d.Rollback(ctx); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	if version, _ := d.Version(ctx); version != 0 {
		t.Errorf("version after rollback = %d, want 0", version)
	}
	if _, _, err := d.PreviousStatus(ctx, "a", "b"); err == nil {
		t.Error("expected an error once the table is gone")
	}
}

func TestRecordAndPreviousStatus(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	if _, ok, err := d.PreviousStatus(ctx, "memory", "HeapUsed"); err != nil || ok {
		t.Fatalf("PreviousStatus() on empty store = %v, %v", ok, err)
	}

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	records := []*CheckResult{
		{Section: "memory", Member: "HeapUsed", Value: "10", Code: 0, Status: "ok", CheckedAt: base},
		{Section: "memory", Member: "HeapUsed", Value: "95", Code: 2, Status: "critical", Message: "FAIL 95",
			Data: JSONMap{"comparison": "greater"}, CheckedAt: base.Add(time.Minute)},
		{Section: "threads", Member: "Count", Value: "80", Code: 1, Status: "warning", CheckedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range records {
		if err := d.Record(ctx, r); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if r.ID == 0 || r.RunID == "" {
			t.Errorf("expected id and run id to be assigned, got %d %q", r.ID, r.RunID)
		}
	}
	if records[0].RunID == records[1].RunID {
		t.Error("run ids must be unique")
	}

	status, ok, err := d.PreviousStatus(ctx, "memory", "HeapUsed")
	if err != nil || !ok || status != "critical" {
		t.Errorf("PreviousStatus() = %q, %v, %v; want critical", status, ok, err)
	}
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, status := range []string{"ok", "warning", "critical", "ok"} {
		r := &CheckResult{Section: "memory", Member: "HeapUsed", Value: "1", Status: status, CheckedAt: base.Add(time.Duration(i) * time.Minute)}
		if i == 2 {
			r.Data = JSONMap{"object": "java.lang:type=Memory"}
		}
		if err := d.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.Record(ctx, &CheckResult{Section: "gc", Member: "Count", Value: "3", Status: "ok", CheckedAt: base}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter RecentFilter
		want   []string
	}{
		{"all newest first", RecentFilter{}, []string{"ok", "critical", "warning", "ok", "ok"}},
		{"limit", RecentFilter{Limit: 2}, []string{"ok", "critical"}},
		{"section", RecentFilter{Section: "gc"}, []string{"ok"}},
		{"status", RecentFilter{Member: "HeapUsed", Status: "critical"}, []string{"critical"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := d.Recent(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Recent() error = %v", err)
			}
			var got []string
			for _, r := range results {
				got = append(got, r.Status)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}

	critical, err := d.Recent(ctx, RecentFilter{Status: "critical"})
	if err != nil || len(critical) != 1 {
		t.Fatalf("Recent(critical) = %v, %v", critical, err)
	}
	if critical[0].Data["object"] != "java.lang:type=Memory" {
		t.Errorf("data not round-tripped: %v", critical[0].Data)
	}
	if !critical[0].CheckedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("checked_at = %v", critical[0].CheckedAt)
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := &CheckResult{Section: "s", Member: "m", Value: "1", Status: "ok", CheckedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := d.Record(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	n, err := d.Prune(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("pruned %d, want 2", n)
	}
	rest, _ := d.Recent(ctx, RecentFilter{})
	if len(rest) != 1 {
		t.Errorf("expected one record left, got %d", len(rest))
	}
}
