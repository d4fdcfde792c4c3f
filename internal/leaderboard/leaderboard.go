package leaderboard

import "sort"

// Engine selects which scoring variant and candidate pool a board ranks.
// Both engines share the same entry shape and ranking logic; only the
// weight table and the pool differ.
type Engine string

const (
	EngineBazi Engine = "bazi"
	EngineTime Engine = "time"
)

// ParseEngine resolves an engine name from a query parameter.
func ParseEngine(s string) (Engine, bool) {
	switch Engine(s) {
	case EngineBazi, EngineTime:
		return Engine(s), true
	}
	return "", false
}

// WeightVersion is one versioned weight table.
type WeightVersion struct {
	ID             string
	MatchWeight    float64
	VerifiedWeight float64
}

// UserStats are the precomputed per-user counters a board is ranked from.
type UserStats struct {
	UserID        string
	MatchCount    int
	VerifiedCount int
}

// Entry is one ranked leaderboard row.
type Entry struct {
	UserID          string  `json:"user_id"`
	FinalScore      float64 `json:"final_score"`
	MatchCount      int     `json:"match_count"`
	VerifiedCount   int     `json:"verified_count"`
	Engine          Engine  `json:"engine"`
	WeightVersionID string  `json:"weight_version_id"`
}

// Board is a ranked leaderboard under one weight version.
type Board struct {
	WeightVersionID string  `json:"weight_version_id"`
	Entries         []Entry `json:"leaderboard"`
}

// Top ranks users by final score under the given weight version and
// returns the first limit entries. The final score combines normalized
// match volume with the verified ratio and always lands in [0,1].
// Ordering: final score descending, match count descending, user ID
// ascending.
func Top(stats []UserStats, engine Engine, limit int, weights WeightVersion) Board {
	maxMatch := 0
	for _, s := range stats {
		if s.MatchCount > maxMatch {
			maxMatch = s.MatchCount
		}
	}

	wm, wv := weights.MatchWeight, weights.VerifiedWeight
	if sum := wm + wv; sum > 0 {
		wm, wv = wm/sum, wv/sum
	}

	entries := make([]Entry, 0, len(stats))
	for _, s := range stats {
		volume := 0.0
		if maxMatch > 0 {
			volume = float64(s.MatchCount) / float64(maxMatch)
		}
		ratio := 0.0
		if s.MatchCount > 0 {
			ratio = float64(s.VerifiedCount) / float64(s.MatchCount)
			if ratio > 1 {
				ratio = 1
			}
		}
		entries = append(entries, Entry{
			UserID:          s.UserID,
			FinalScore:      wm*volume + wv*ratio,
			MatchCount:      s.MatchCount,
			VerifiedCount:   s.VerifiedCount,
			Engine:          engine,
			WeightVersionID: weights.ID,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].FinalScore != entries[j].FinalScore {
			return entries[i].FinalScore > entries[j].FinalScore
		}
		if entries[i].MatchCount != entries[j].MatchCount {
			return entries[i].MatchCount > entries[j].MatchCount
		}
		return entries[i].UserID < entries[j].UserID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return Board{WeightVersionID: weights.ID, Entries: entries}
}
