package vision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/testing5586/lynker-match/internal/chart"
)

// DecodeExtraction parses a model response into a RawExtraction, handling
// markdown code fences around the JSON. Unlike the lenient parsers
// downstream, a response that is not valid JSON is a recognition failure.
func DecodeExtraction(text, model string) (*chart.RawExtraction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}

	// Strip markdown code fences
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	var raw chart.RawExtraction
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parsing model response as JSON: %w", err)
	}

	if raw.DetectedElements.Rows == nil {
		raw.DetectedElements.Rows = map[string][]string{}
	}
	if raw.Model == "" {
		raw.Model = model
	}
	return &raw, nil
}
