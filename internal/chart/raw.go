package chart

import "strings"

// Row labels produced by the vision model's table transcription.
// These match the row headers of a traditional four-pillar chart image.
const (
	RowStems       = "天干"
	RowBranches    = "地支"
	RowHiddenStems = "藏干"
	RowMainStar    = "主星"
	RowSubStars    = "副星"
	RowFortune     = "星运"
	RowSelfSeat    = "自坐"
	RowVoid        = "空亡"
	RowNayin       = "纳音"
	RowShenSha     = "神煞"
)

// PillarCount is the number of positions in a chart: year, month, day, hour.
const PillarCount = 4

// PillarNames are the display names of the four positions, in fixed order.
var PillarNames = [PillarCount]string{"年柱", "月柱", "日柱", "时柱"}

// RawExtraction is the vision model's transcription of a chart image.
type RawExtraction struct {
	RawText          string        `json:"raw_text"`
	DetectedElements DetectedTable `json:"detected_elements"`
	Model            string        `json:"model"`
}

// DetectedTable is the row-labeled table recognized from the image.
// Rows may be partially or entirely missing; downstream code defaults
// absent cells to empty values.
type DetectedTable struct {
	Columns []string            `json:"columns"`
	Rows    map[string][]string `json:"rows"`
}

// Pillar is one of the four chart positions with its transcribed fields.
type Pillar struct {
	Stem         string   `json:"stem"`
	Branch       string   `json:"branch"`
	HiddenStems  []string `json:"hidden_stems"`
	MainStar     string   `json:"main_star"`
	SubStars     []string `json:"sub_stars"`
	FortunePhase string   `json:"fortune_phase"`
	SelfSeat     string   `json:"self_seat"`
	VoidFlag     string   `json:"void_flag"`
	Nayin        string   `json:"nayin"`
	ShenSha      []string `json:"shen_sha"`
}

// ParsePillars builds the four pillars from a raw extraction.
// Any absent row or short row yields empty defaults; it never fails.
func ParsePillars(raw RawExtraction) [PillarCount]Pillar {
	rows := raw.DetectedElements.Rows

	var pillars [PillarCount]Pillar
	for i := range pillars {
		pillars[i] = Pillar{
			Stem:         cell(rows, RowStems, i),
			Branch:       cell(rows, RowBranches, i),
			HiddenStems:  cellList(rows, RowHiddenStems, i),
			MainStar:     cell(rows, RowMainStar, i),
			SubStars:     cellList(rows, RowSubStars, i),
			FortunePhase: cell(rows, RowFortune, i),
			SelfSeat:     cell(rows, RowSelfSeat, i),
			VoidFlag:     cell(rows, RowVoid, i),
			Nayin:        cell(rows, RowNayin, i),
			ShenSha:      cellList(rows, RowShenSha, i),
		}
	}
	return pillars
}

// cell returns the i-th value of a labeled row, or "" when the row is
// absent or shorter than expected.
func cell(rows map[string][]string, label string, i int) string {
	row := rows[label]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// cellList splits a multi-value cell on whitespace, discarding empty tokens.
func cellList(rows map[string][]string, label string, i int) []string {
	return strings.Fields(cell(rows, label, i))
}
