package chart

// Element is one of the five elements used to aggregate stems and branches.
type Element string

const (
	Wood  Element = "wood"
	Fire  Element = "fire"
	Earth Element = "earth"
	Metal Element = "metal"
	Water Element = "water"
)

// elementOrder is the fixed enumeration order used for tie-breaking scans.
var elementOrder = [5]Element{Wood, Fire, Earth, Metal, Water}

// DisplayName returns the Chinese name of the element.
func (e Element) DisplayName() string {
	switch e {
	case Wood:
		return "木"
	case Fire:
		return "火"
	case Earth:
		return "土"
	case Metal:
		return "金"
	case Water:
		return "水"
	}
	return string(e)
}

// stemElements maps the ten heavenly stems to their elements.
var stemElements = map[rune]Element{
	'甲': Wood, '乙': Wood,
	'丙': Fire, '丁': Fire,
	'戊': Earth, '己': Earth,
	'庚': Metal, '辛': Metal,
	'壬': Water, '癸': Water,
}

// branchElements maps the twelve earthly branches to their elements.
var branchElements = map[rune]Element{
	'寅': Wood, '卯': Wood,
	'巳': Fire, '午': Fire,
	'辰': Earth, '戌': Earth, '丑': Earth, '未': Earth,
	'申': Metal, '酉': Metal,
	'亥': Water, '子': Water,
}

// ElementBalance is the five-element histogram of a chart together with
// the derived dominant/weakened elements and favorable/unfavorable sets.
type ElementBalance struct {
	Counts      map[Element]int `json:"counts"`
	Dominant    Element         `json:"dominant"`
	Weakened    Element         `json:"weakened"`
	Favorable   []Element       `json:"favorable_elements"`
	Unfavorable []Element       `json:"unfavorable_elements"`
}

// ComputeBalance classifies every stem, branch, and hidden-stem character
// of the four pillars into an element and aggregates the counts.
// Characters outside the fixed tables are skipped.
//
// Dominant and weakened are found by a linear scan in the fixed element
// order, first seen wins. Favorable holds every element tied at the
// minimum count; unfavorable holds only the single dominant element.
// The asymmetry is part of the exported contract and covered by tests;
// do not make unfavorable ties-aware without a schema version bump.
func ComputeBalance(pillars [PillarCount]Pillar) ElementBalance {
	counts := map[Element]int{Wood: 0, Fire: 0, Earth: 0, Metal: 0, Water: 0}

	classify := func(table map[rune]Element, s string) {
		for _, r := range s {
			if el, ok := table[r]; ok {
				counts[el]++
			}
		}
	}

	for _, p := range pillars {
		classify(stemElements, p.Stem)
		classify(branchElements, p.Branch)
		for _, h := range p.HiddenStems {
			classify(stemElements, h)
		}
	}

	dominant := elementOrder[0]
	weakened := elementOrder[0]
	for _, el := range elementOrder[1:] {
		if counts[el] > counts[dominant] {
			dominant = el
		}
		if counts[el] < counts[weakened] {
			weakened = el
		}
	}

	var favorable []Element
	for _, el := range elementOrder {
		if counts[el] == counts[weakened] {
			favorable = append(favorable, el)
		}
	}

	return ElementBalance{
		Counts:      counts,
		Dominant:    dominant,
		Weakened:    weakened,
		Favorable:   favorable,
		Unfavorable: []Element{dominant},
	}
}
