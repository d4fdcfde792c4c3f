package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/testing5586/lynker-match/internal/chart"
)

// InsertChart stores a normalized chart. The pattern column mirrors the
// chart's pattern label for querying.
func (db *DB) InsertChart(rec ChartRecord) error {
	chartJSON, err := json.Marshal(rec.Chart)
	if err != nil {
		return fmt.Errorf("marshaling chart: %w", err)
	}

	var rawJSON *string
	if rec.Raw != nil {
		data, err := json.Marshal(rec.Raw)
		if err != nil {
			return fmt.Errorf("marshaling raw extraction: %w", err)
		}
		s := string(data)
		rawJSON = &s
	}

	_, err = db.conn.Exec(
		`INSERT INTO charts (id, user_id, pattern, schema_version, chart_json, raw_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Chart.Pattern, rec.Chart.SchemaVersion, string(chartJSON), rawJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting chart: %w", err)
	}
	return nil
}

// GetChart returns a stored chart by ID, or nil if not found.
func (db *DB) GetChart(id string) (*ChartRecord, error) {
	row := db.conn.QueryRow(
		`SELECT id, user_id, pattern, schema_version, chart_json, raw_json, created_at
		FROM charts WHERE id = ?`, id,
	)
	rec, err := scanChart(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListCharts returns all stored charts, newest first.
func (db *DB) ListCharts() ([]ChartRecord, error) {
	return db.queryCharts(
		`SELECT id, user_id, pattern, schema_version, chart_json, raw_json, created_at
		FROM charts ORDER BY created_at DESC, id`,
	)
}

// GetCandidates returns every stored chart except the given one, ordered
// by ID for deterministic evaluation.
func (db *DB) GetCandidates(excludeID string) ([]ChartRecord, error) {
	return db.queryCharts(
		`SELECT id, user_id, pattern, schema_version, chart_json, raw_json, created_at
		FROM charts WHERE id != ? ORDER BY id`, excludeID,
	)
}

func (db *DB) queryCharts(query string, args ...any) ([]ChartRecord, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ChartRecord
	for rows.Next() {
		rec, err := scanChart(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanChart(scan func(...any) error) (*ChartRecord, error) {
	var rec ChartRecord
	var chartJSON string
	var rawJSON *string
	if err := scan(&rec.ID, &rec.UserID, &rec.Pattern, &rec.SchemaVersion,
		&chartJSON, &rawJSON, &rec.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(chartJSON), &rec.Chart); err != nil {
		return nil, fmt.Errorf("unmarshaling chart %s: %w", rec.ID, err)
	}
	if rawJSON != nil {
		var raw chart.RawExtraction
		if err := json.Unmarshal([]byte(*rawJSON), &raw); err != nil {
			return nil, fmt.Errorf("unmarshaling raw extraction %s: %w", rec.ID, err)
		}
		rec.Raw = &raw
	}
	return &rec, nil
}
