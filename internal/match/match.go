package match

import (
	"fmt"
	"math"
	"sort"

	"github.com/testing5586/lynker-match/internal/chart"
)

// PerfectLabel is the score label shown when all eight criteria match.
const PerfectLabel = "超级同频模式"

// Candidate pairs a normalized chart with its owner's ID.
type Candidate struct {
	ID    string
	Chart chart.NormalizedChart
}

// Result is the per-candidate evaluation of all eight criteria.
type Result struct {
	CandidateID string          `json:"candidate_id"`
	Matched     map[string]bool `json:"matched_flags"`
	AutoDerived []string        `json:"auto_derived"`
	Score       int             `json:"score"`
	ScoreLabel  string          `json:"score_label"`
	Qualifies   bool            `json:"qualifies"`
}

// Evaluate scores every candidate against the query chart. All eight
// criteria are evaluated unconditionally; the tier only decides which
// prefix must hold for a candidate to qualify. Only qualifying candidates
// are returned, ordered by score descending, candidate ID ascending.
func Evaluate(query chart.NormalizedChart, candidates []Candidate, tier Criterion) []Result {
	var results []Result
	for _, cand := range candidates {
		r := evaluateOne(query, cand, tier)
		if r.Qualifies {
			results = append(results, r)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CandidateID < results[j].CandidateID
	})
	return results
}

func evaluateOne(query chart.NormalizedChart, cand Candidate, tier Criterion) Result {
	var flags [criterionCount]bool

	for period := 0; period < chart.PillarCount; period++ {
		flags[period] = pillarEqual(query.Pillars[period], cand.Chart.Pillars[period])
	}
	flags[SameTianGan] = allEqual(query.Pillars, cand.Chart.Pillars, func(p chart.Pillar) string { return p.Stem })
	flags[SameDiZhi] = allEqual(query.Pillars, cand.Chart.Pillars, func(p chart.Pillar) string { return p.Branch })
	flags[SamePattern] = query.Pattern == cand.Chart.Pattern
	flags[SameYongShen] = elementSetEqual(query.ElementBalance.Favorable, cand.Chart.ElementBalance.Favorable)

	// All four pillar criteria imply identical stems and branches, so the
	// tiangan/dizhi flags are derived rather than separately earned.
	var autoDerived []string
	if flags[SameYearPillar] && flags[SameMonthPillar] && flags[SameDayPillar] && flags[SameHourPillar] {
		autoDerived = []string{SameTianGan.Key(), SameDiZhi.Key()}
	}

	qualifies := true
	for c := SameYearPillar; c <= tier; c++ {
		if !flags[c] {
			qualifies = false
			break
		}
	}

	trueCount := 0
	matched := make(map[string]bool, criterionCount)
	for i, ok := range flags {
		matched[Criterion(i).Key()] = ok
		if ok {
			trueCount++
		}
	}
	score := int(math.Round(100 * float64(trueCount) / criterionCount))

	label := fmt.Sprintf("%d分匹配", score)
	if score == 100 {
		label = PerfectLabel
	}

	return Result{
		CandidateID: cand.ID,
		Matched:     matched,
		AutoDerived: autoDerived,
		Score:       score,
		ScoreLabel:  label,
		Qualifies:   qualifies,
	}
}

func pillarEqual(a, b chart.Pillar) bool {
	return a.Stem == b.Stem && a.Branch == b.Branch
}

func allEqual(a, b [chart.PillarCount]chart.Pillar, field func(chart.Pillar) string) bool {
	for i := range a {
		if field(a[i]) != field(b[i]) {
			return false
		}
	}
	return true
}

func elementSetEqual(a, b []chart.Element) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[chart.Element]bool, len(a))
	for _, el := range a {
		set[el] = true
	}
	for _, el := range b {
		if !set[el] {
			return false
		}
	}
	return true
}
