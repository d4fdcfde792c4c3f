package chart

import "regexp"

// SchemaVersion tags every normalized chart so downstream consumers can
// evolve independently of the extraction format.
const SchemaVersion = "L2-2025.11"

// Gender is the chart's gender marker as transcribed from the image.
type Gender string

const (
	GenderQian    Gender = "乾造"
	GenderKun     Gender = "坤造"
	GenderUnknown Gender = "unknown"
)

// ChartMeta holds chart-level metadata pattern-matched out of the raw text.
type ChartMeta struct {
	SolarDate *string `json:"solar_date,omitempty"`
	LunarDate *string `json:"lunar_date,omitempty"`
	Gender    Gender  `json:"gender_marker"`
	Source    string  `json:"source"`
}

// NormalizedChart is the canonical structured record derived from one
// raw extraction. Pattern is an opaque precomputed classification label;
// it is attached at ingest, never derived here.
type NormalizedChart struct {
	Meta           ChartMeta           `json:"meta"`
	Pillars        [PillarCount]Pillar `json:"pillars"`
	ElementBalance ElementBalance      `json:"element_balance"`
	Pattern        string              `json:"pattern,omitempty"`
	SchemaVersion  string              `json:"schema_version"`
}

var (
	solarDateRe = regexp.MustCompile(`(?:公历|阳历)[:：]?\s*([0-9]{4}年[0-9]{1,2}月[0-9]{1,2}日[^\s，,、]*)`)
	bareDateRe  = regexp.MustCompile(`[0-9]{4}年[0-9]{1,2}月[0-9]{1,2}日[^\s，,、]*`)
	lunarDateRe = regexp.MustCompile(`(?:农历|阴历)[:：]?\s*([^\s，,、]+)`)
	qianRe      = regexp.MustCompile(`乾造`)
	kunRe       = regexp.MustCompile(`坤造`)
)

// Normalize parses the raw extraction into pillars, computes the element
// balance, and extracts chart metadata from the raw text. Missing
// metadata yields nil dates and an unknown gender, never an error.
func Normalize(raw RawExtraction) NormalizedChart {
	return NormalizeFrom(raw, ParsePillars(raw))
}

// NormalizeFrom builds the normalized chart from already-parsed pillars.
func NormalizeFrom(raw RawExtraction, pillars [PillarCount]Pillar) NormalizedChart {
	return NormalizedChart{
		Meta:           extractMeta(raw),
		Pillars:        pillars,
		ElementBalance: ComputeBalance(pillars),
		SchemaVersion:  SchemaVersion,
	}
}

func extractMeta(raw RawExtraction) ChartMeta {
	meta := ChartMeta{Gender: GenderUnknown, Source: raw.Model}

	if m := solarDateRe.FindStringSubmatch(raw.RawText); m != nil {
		meta.SolarDate = &m[1]
	} else if m := bareDateRe.FindString(raw.RawText); m != "" {
		meta.SolarDate = &m
	}

	if m := lunarDateRe.FindStringSubmatch(raw.RawText); m != nil {
		meta.LunarDate = &m[1]
	}

	switch {
	case qianRe.MatchString(raw.RawText):
		meta.Gender = GenderQian
	case kunRe.MatchString(raw.RawText):
		meta.Gender = GenderKun
	}

	return meta
}
