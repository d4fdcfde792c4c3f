package chart

import (
	"reflect"
	"testing"
)

func sampleExtraction() RawExtraction {
	return RawExtraction{
		RawText: "乾造 公历:1990年8月15日10时 农历:一九九〇年六月廿五",
		Model:   "qwen-vl",
		DetectedElements: DetectedTable{
			Columns: []string{"年柱", "月柱", "日柱", "时柱"},
			Rows: map[string][]string{
				RowStems:       {"庚", "甲", "丙", "癸"},
				RowBranches:    {"午", "申", "戌", "巳"},
				RowHiddenStems: {"丁 己", "庚 壬 戊", "戊 辛 丁", "丙 庚 戊"},
				RowMainStar:    {"偏财", "偏印", "日元", "正官"},
				RowSubStars:    {"劫财 伤官", "比肩 七杀 食神", "食神 正财 劫财", "比肩 偏财 食神"},
				RowFortune:     {"帝旺", "病", "墓", "临官"},
				RowSelfSeat:    {"沐浴", "绝", "库", "临官"},
				RowVoid:        {"戌亥", "午未", "午未", "子丑"},
				RowNayin:       {"路旁土", "泉中水", "屋上土", "长流水"},
				RowShenSha:     {"将星 桃花", "驿马", "华盖 魁罡", "天乙贵人"},
			},
		},
	}
}

func TestParsePillars(t *testing.T) {
	pillars := ParsePillars(sampleExtraction())

	if pillars[0].Stem != "庚" || pillars[0].Branch != "午" {
		t.Errorf("year pillar = %s%s, want 庚午", pillars[0].Stem, pillars[0].Branch)
	}
	if pillars[2].Stem != "丙" || pillars[2].Branch != "戌" {
		t.Errorf("day pillar = %s%s, want 丙戌", pillars[2].Stem, pillars[2].Branch)
	}

	wantHidden := []string{"庚", "壬", "戊"}
	if !reflect.DeepEqual(pillars[1].HiddenStems, wantHidden) {
		t.Errorf("month hidden stems = %v, want %v", pillars[1].HiddenStems, wantHidden)
	}

	wantShenSha := []string{"将星", "桃花"}
	if !reflect.DeepEqual(pillars[0].ShenSha, wantShenSha) {
		t.Errorf("year shen sha = %v, want %v", pillars[0].ShenSha, wantShenSha)
	}
}

func TestParsePillarsMissingRows(t *testing.T) {
	raw := RawExtraction{
		DetectedElements: DetectedTable{
			Rows: map[string][]string{
				RowStems: {"庚", "甲"}, // short row: day and hour missing
			},
		},
	}

	pillars := ParsePillars(raw)

	if pillars[1].Stem != "甲" {
		t.Errorf("month stem = %q, want 甲", pillars[1].Stem)
	}
	if pillars[2].Stem != "" || pillars[3].Stem != "" {
		t.Error("expected empty stems for positions beyond the short row")
	}
	for i, p := range pillars {
		if p.Branch != "" {
			t.Errorf("pillar %d branch = %q, want empty (row absent)", i, p.Branch)
		}
		if len(p.HiddenStems) != 0 {
			t.Errorf("pillar %d hidden stems = %v, want empty", i, p.HiddenStems)
		}
	}
}

func TestParsePillarsNilRows(t *testing.T) {
	pillars := ParsePillars(RawExtraction{})
	for i, p := range pillars {
		if p.Stem != "" || p.Branch != "" || len(p.ShenSha) != 0 {
			t.Errorf("pillar %d not empty for nil rows: %+v", i, p)
		}
	}
}

func TestCellListDiscardsEmptyTokens(t *testing.T) {
	rows := map[string][]string{
		RowSubStars: {"  劫财   伤官  ", "", "食神", " "},
	}
	got := cellList(rows, RowSubStars, 0)
	want := []string{"劫财", "伤官"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cellList = %v, want %v", got, want)
	}
	if got := cellList(rows, RowSubStars, 3); len(got) != 0 {
		t.Errorf("whitespace-only cell yielded %v, want empty", got)
	}
}
