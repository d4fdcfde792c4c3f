package database

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/testing5586/lynker-match/internal/chart"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func testRecord(id string) ChartRecord {
	raw := chart.RawExtraction{
		RawText: "乾造 1990年8月15日",
		Model:   "test-model",
		DetectedElements: chart.DetectedTable{
			Rows: map[string][]string{
				chart.RowStems:    {"庚", "甲", "丙", "癸"},
				chart.RowBranches: {"午", "申", "戌", "巳"},
			},
		},
	}
	nc := chart.Normalize(raw)
	nc.Pattern = "正官格"
	return ChartRecord{
		ID:     id,
		UserID: ptr("user-" + id),
		Chart:  nc,
		Raw:    &raw,
	}
}

func TestInsertAndGetChart(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord("c1")
	if err := db.InsertChart(rec); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := db.GetChart("c1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected chart, got nil")
	}
	if got.Pattern != "正官格" {
		t.Errorf("pattern = %q, want 正官格", got.Pattern)
	}
	if got.SchemaVersion != chart.SchemaVersion {
		t.Errorf("schema version = %q, want %q", got.SchemaVersion, chart.SchemaVersion)
	}
	if !reflect.DeepEqual(got.Chart, rec.Chart) {
		t.Error("chart did not round-trip through the store")
	}
	if got.Raw == nil || got.Raw.Model != "test-model" {
		t.Errorf("raw extraction did not round-trip: %+v", got.Raw)
	}
}

func TestGetChartNotFound(t *testing.T) {
	db := openTestDB(t)
	got, err := db.GetChart("missing")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown chart, got %+v", got)
	}
}

func TestInsertChartNilRaw(t *testing.T) {
	db := openTestDB(t)
	rec := testRecord("c1")
	rec.Raw = nil
	if err := db.InsertChart(rec); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	got, err := db.GetChart("c1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Raw != nil {
		t.Errorf("expected nil raw, got %+v", got.Raw)
	}
}

func TestGetCandidatesExcludesQuery(t *testing.T) {
	db := openTestDB(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := db.InsertChart(testRecord(id)); err != nil {
			t.Fatalf("insert %s failed: %v", id, err)
		}
	}

	cands, err := db.GetCandidates("b")
	if err != nil {
		t.Fatalf("get candidates failed: %v", err)
	}
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	if cands[0].ID != "a" || cands[1].ID != "c" {
		t.Errorf("candidates = %s, %s; want a, c", cands[0].ID, cands[1].ID)
	}
}

func TestListCharts(t *testing.T) {
	db := openTestDB(t)
	for _, id := range []string{"a", "b"} {
		if err := db.InsertChart(testRecord(id)); err != nil {
			t.Fatalf("insert %s failed: %v", id, err)
		}
	}
	charts, err := db.ListCharts()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(charts) != 2 {
		t.Errorf("got %d charts, want 2", len(charts))
	}
}

func TestMatchStatsUpsertAndIncrement(t *testing.T) {
	db := openTestDB(t)

	if err := db.UpsertMatchStats("u1", "bazi", 5, 2); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := db.UpsertMatchStats("u1", "bazi", 7, 3); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if err := db.IncrementMatchStats("u1", "bazi", 1, 1); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	// Different engine is an independent row.
	if err := db.UpsertMatchStats("u1", "time", 2, 0); err != nil {
		t.Fatalf("time upsert failed: %v", err)
	}

	stats, err := db.GetMatchStats("bazi")
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("got %d stats, want 1", len(stats))
	}
	if stats[0].MatchCount != 8 || stats[0].VerifiedCount != 4 {
		t.Errorf("counters = %d/%d, want 8/4", stats[0].MatchCount, stats[0].VerifiedCount)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	db.InsertChart(testRecord("a"))
	db.UpsertMatchStats("u1", "bazi", 1, 0)
	db.UpsertMatchStats("u1", "time", 1, 0)
	db.UpsertMatchStats("u2", "bazi", 1, 0)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("get stats failed: %v", err)
	}
	if stats.Charts != 1 {
		t.Errorf("charts = %d, want 1", stats.Charts)
	}
	if stats.StatUsers != 2 {
		t.Errorf("stat users = %d, want 2", stats.StatUsers)
	}
}
