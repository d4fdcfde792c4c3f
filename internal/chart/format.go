package chart

import (
	"fmt"
	"strings"
)

// ExportEnvelope bundles the raw extraction and its normalized chart into
// the export-ready record handed back to the pipeline caller. Immutable
// after creation.
type ExportEnvelope struct {
	Raw         RawExtraction   `json:"raw"`
	Normalized  NormalizedChart `json:"normalized"`
	ExportReady bool            `json:"export_ready"`
}

// BuildEnvelope packages a raw extraction and normalized chart.
// It performs no validation; malformed input is the normalizer's concern.
func BuildEnvelope(raw RawExtraction, normalized NormalizedChart) ExportEnvelope {
	return ExportEnvelope{
		Raw:         raw,
		Normalized:  normalized,
		ExportReady: true,
	}
}

// MarkdownReport renders the envelope as a markdown chart report:
// metadata, the four-pillar table, and the element balance.
func (e ExportEnvelope) MarkdownReport() string {
	var b strings.Builder
	n := e.Normalized

	b.WriteString("# 命盘报告\n\n")

	if n.Meta.SolarDate != nil {
		fmt.Fprintf(&b, "- 公历: %s\n", *n.Meta.SolarDate)
	}
	if n.Meta.LunarDate != nil {
		fmt.Fprintf(&b, "- 农历: %s\n", *n.Meta.LunarDate)
	}
	if n.Meta.Gender != GenderUnknown {
		fmt.Fprintf(&b, "- 性别标记: %s\n", n.Meta.Gender)
	}
	if n.Pattern != "" {
		fmt.Fprintf(&b, "- 格局: %s\n", n.Pattern)
	}
	if n.Meta.Source != "" {
		fmt.Fprintf(&b, "- 识别来源: %s\n", n.Meta.Source)
	}
	fmt.Fprintf(&b, "- 数据版本: %s\n\n", n.SchemaVersion)

	b.WriteString("## 四柱\n\n")
	b.WriteString("| | 年柱 | 月柱 | 日柱 | 时柱 |\n")
	b.WriteString("|---|---|---|---|---|\n")
	writeRow := func(label string, get func(Pillar) string) {
		fmt.Fprintf(&b, "| %s |", label)
		for _, p := range n.Pillars {
			v := get(p)
			if v == "" {
				v = "—"
			}
			fmt.Fprintf(&b, " %s |", v)
		}
		b.WriteString("\n")
	}
	writeRow("天干", func(p Pillar) string { return p.Stem })
	writeRow("地支", func(p Pillar) string { return p.Branch })
	writeRow("藏干", func(p Pillar) string { return strings.Join(p.HiddenStems, " ") })
	writeRow("主星", func(p Pillar) string { return p.MainStar })
	writeRow("副星", func(p Pillar) string { return strings.Join(p.SubStars, " ") })
	writeRow("星运", func(p Pillar) string { return p.FortunePhase })
	writeRow("纳音", func(p Pillar) string { return p.Nayin })
	writeRow("神煞", func(p Pillar) string { return strings.Join(p.ShenSha, " ") })

	b.WriteString("\n## 五行平衡\n\n")
	bal := n.ElementBalance
	for _, el := range elementOrder {
		fmt.Fprintf(&b, "- %s: %d\n", el.DisplayName(), bal.Counts[el])
	}
	fmt.Fprintf(&b, "\n最旺: %s，最弱: %s\n", bal.Dominant.DisplayName(), bal.Weakened.DisplayName())
	fmt.Fprintf(&b, "喜用神: %s\n", joinElements(bal.Favorable))
	fmt.Fprintf(&b, "忌神: %s\n", joinElements(bal.Unfavorable))

	return b.String()
}

func joinElements(els []Element) string {
	names := make([]string, len(els))
	for i, el := range els {
		names[i] = el.DisplayName()
	}
	return strings.Join(names, " ")
}
