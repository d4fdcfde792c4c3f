package leaderboard

import "testing"

var testWeights = WeightVersion{ID: "w1", MatchWeight: 0.7, VerifiedWeight: 0.3}

func TestTopOrdering(t *testing.T) {
	stats := []UserStats{
		{UserID: "low", MatchCount: 2, VerifiedCount: 0},
		{UserID: "high", MatchCount: 10, VerifiedCount: 10},
		{UserID: "mid", MatchCount: 5, VerifiedCount: 2},
	}

	board := Top(stats, EngineBazi, 10, testWeights)

	if board.WeightVersionID != "w1" {
		t.Errorf("weight version = %q, want w1", board.WeightVersionID)
	}
	if len(board.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(board.Entries))
	}
	if board.Entries[0].UserID != "high" {
		t.Errorf("top entry = %s, want high", board.Entries[0].UserID)
	}
	for i := 1; i < len(board.Entries); i++ {
		if board.Entries[i].FinalScore > board.Entries[i-1].FinalScore {
			t.Error("entries not ordered by final score descending")
		}
	}
}

func TestTopTieBreakByMatchCount(t *testing.T) {
	// Same final score, different match counts: higher count ranks first.
	// With verified weight zero the score depends only on volume, so use
	// full-verified users under a verified-only weight table instead.
	weights := WeightVersion{ID: "wv", MatchWeight: 0, VerifiedWeight: 1}
	stats := []UserStats{
		{UserID: "few", MatchCount: 3, VerifiedCount: 3},
		{UserID: "many", MatchCount: 9, VerifiedCount: 9},
	}

	board := Top(stats, EngineTime, 10, weights)

	if board.Entries[0].FinalScore != board.Entries[1].FinalScore {
		t.Fatalf("expected equal final scores, got %v vs %v",
			board.Entries[0].FinalScore, board.Entries[1].FinalScore)
	}
	if board.Entries[0].UserID != "many" {
		t.Errorf("top entry = %s, want many (higher match count wins ties)", board.Entries[0].UserID)
	}
}

func TestTopScoreRange(t *testing.T) {
	stats := []UserStats{
		{UserID: "a", MatchCount: 100, VerifiedCount: 100},
		{UserID: "b", MatchCount: 1, VerifiedCount: 0},
		{UserID: "c", MatchCount: 0, VerifiedCount: 0},
	}

	board := Top(stats, EngineBazi, 0, testWeights)
	for _, e := range board.Entries {
		if e.FinalScore < 0 || e.FinalScore > 1 {
			t.Errorf("final score %v out of [0,1] for %s", e.FinalScore, e.UserID)
		}
	}
	if board.Entries[0].FinalScore != 1 {
		t.Errorf("fully verified top user score = %v, want 1", board.Entries[0].FinalScore)
	}
}

func TestTopLimit(t *testing.T) {
	stats := []UserStats{
		{UserID: "a", MatchCount: 3},
		{UserID: "b", MatchCount: 2},
		{UserID: "c", MatchCount: 1},
	}
	board := Top(stats, EngineBazi, 2, testWeights)
	if len(board.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(board.Entries))
	}
}

func TestTopEmpty(t *testing.T) {
	board := Top(nil, EngineBazi, 10, testWeights)
	if len(board.Entries) != 0 {
		t.Errorf("got %d entries, want 0", len(board.Entries))
	}
}

func TestParseEngine(t *testing.T) {
	if e, ok := ParseEngine("bazi"); !ok || e != EngineBazi {
		t.Errorf("ParseEngine(bazi) = %v, %v", e, ok)
	}
	if e, ok := ParseEngine("time"); !ok || e != EngineTime {
		t.Errorf("ParseEngine(time) = %v, %v", e, ok)
	}
	if _, ok := ParseEngine("astro"); ok {
		t.Error("ParseEngine(astro) should fail")
	}
}
