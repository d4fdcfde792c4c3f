package match

// Criterion is one of the eight ordered homology criteria. The order is
// total and fixed: it is both the UI relaxation order and the prefix used
// when deciding whether a candidate qualifies.
type Criterion int

const (
	SameYearPillar Criterion = iota
	SameMonthPillar
	SameDayPillar
	SameHourPillar
	SameTianGan
	SameDiZhi
	SamePattern
	SameYongShen

	criterionCount = 8
)

var criterionKeys = [criterionCount]string{
	"same_year_pillar",
	"same_month_pillar",
	"same_day_pillar",
	"same_hour_pillar",
	"same_tiangan",
	"same_dizhi",
	"same_pattern",
	"same_yongshen",
}

var criterionLabels = [criterionCount]string{
	"同年柱",
	"同月柱",
	"同日柱",
	"同时柱",
	"同天干",
	"同地支",
	"同格局",
	"同用神",
}

// Key returns the wire key of the criterion.
func (c Criterion) Key() string {
	if c < 0 || c >= criterionCount {
		return ""
	}
	return criterionKeys[c]
}

// Label returns the display label of the criterion.
func (c Criterion) Label() string {
	if c < 0 || c >= criterionCount {
		return ""
	}
	return criterionLabels[c]
}

// Criteria returns all criteria in order, loosest first.
func Criteria() []Criterion {
	cs := make([]Criterion, criterionCount)
	for i := range cs {
		cs[i] = Criterion(i)
	}
	return cs
}

// CriterionFromKey resolves a wire key to its criterion.
func CriterionFromKey(key string) (Criterion, bool) {
	for i, k := range criterionKeys {
		if k == key {
			return Criterion(i), true
		}
	}
	return 0, false
}
