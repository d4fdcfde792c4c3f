package database

// UpsertMatchStats sets the counters for a user under one engine.
func (db *DB) UpsertMatchStats(userID, engine string, matchCount, verifiedCount int) error {
	_, err := db.conn.Exec(
		`INSERT INTO match_stats (user_id, engine, match_count, verified_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, engine) DO UPDATE SET
			match_count = excluded.match_count,
			verified_count = excluded.verified_count,
			updated_at = datetime('now')`,
		userID, engine, matchCount, verifiedCount,
	)
	return err
}

// IncrementMatchStats adds deltas to a user's counters under one engine,
// creating the row if needed.
func (db *DB) IncrementMatchStats(userID, engine string, matchDelta, verifiedDelta int) error {
	_, err := db.conn.Exec(
		`INSERT INTO match_stats (user_id, engine, match_count, verified_count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, engine) DO UPDATE SET
			match_count = match_count + excluded.match_count,
			verified_count = verified_count + excluded.verified_count,
			updated_at = datetime('now')`,
		userID, engine, matchDelta, verifiedDelta,
	)
	return err
}

// GetMatchStats returns all counters for one engine, ordered by user ID.
func (db *DB) GetMatchStats(engine string) ([]MatchStat, error) {
	rows, err := db.conn.Query(
		`SELECT user_id, engine, match_count, verified_count, updated_at
		FROM match_stats WHERE engine = ? ORDER BY user_id`, engine,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []MatchStat
	for rows.Next() {
		var s MatchStat
		if err := rows.Scan(&s.UserID, &s.Engine, &s.MatchCount, &s.VerifiedCount, &s.UpdatedAt); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	var s Stats
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM charts").Scan(&s.Charts); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(DISTINCT user_id) FROM match_stats").Scan(&s.StatUsers); err != nil {
		return nil, err
	}
	return &s, nil
}
