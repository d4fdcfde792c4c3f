package chart

import (
	"strings"
	"testing"
)

func TestBuildEnvelope(t *testing.T) {
	raw := sampleExtraction()
	env := BuildEnvelope(raw, Normalize(raw))

	if !env.ExportReady {
		t.Error("expected export_ready = true")
	}
	if env.Raw.Model != raw.Model {
		t.Errorf("raw model = %q, want %q", env.Raw.Model, raw.Model)
	}
}

func TestMarkdownReport(t *testing.T) {
	raw := sampleExtraction()
	env := BuildEnvelope(raw, Normalize(raw))
	report := env.MarkdownReport()

	for _, want := range []string{"# 命盘报告", "| 天干 |", "庚", "五行平衡", "喜用神"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestMarkdownReportEmptyChart(t *testing.T) {
	env := BuildEnvelope(RawExtraction{}, Normalize(RawExtraction{}))
	report := env.MarkdownReport()

	if !strings.Contains(report, "—") {
		t.Error("expected placeholder dashes for empty cells")
	}
	if strings.Contains(report, "公历") {
		t.Error("expected no solar date line for empty meta")
	}
}
