package database

import "github.com/testing5586/lynker-match/internal/chart"

// ChartRecord is a stored normalized chart with its ingest metadata.
// Raw is the original extraction when the chart came through the
// digitization pipeline; nil for charts ingested directly.
type ChartRecord struct {
	ID            string
	UserID        *string
	Pattern       string
	SchemaVersion string
	Chart         chart.NormalizedChart
	Raw           *chart.RawExtraction
	CreatedAt     *string
}

// MatchStat holds the precomputed per-user counters for one engine.
type MatchStat struct {
	UserID        string
	Engine        string
	MatchCount    int
	VerifiedCount int
	UpdatedAt     *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Charts    int
	StatUsers int
}
