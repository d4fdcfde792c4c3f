package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/testing5586/lynker-match/internal/chart"
)

// recognitionPrompt instructs the vision model to transcribe a chart
// image into the row-labeled table format the parser expects.
const recognitionPrompt = `识别这张八字命盘图片。将表格按行转写为JSON，格式为：
{"raw_text": "<图片中的全部文字>", "detected_elements": {"columns": ["年柱","月柱","日柱","时柱"], "rows": {"天干": [...], "地支": [...], "藏干": [...], "主星": [...], "副星": [...], "星运": [...], "自坐": [...], "空亡": [...], "纳音": [...], "神煞": [...]}}}
每行必须是对齐年/月/日/时四列的数组。无法识别的单元格用空字符串。只返回JSON。`

// Provider is the interface for vision recognition backends.
type Provider interface {
	Recognize(ctx context.Context, image []byte) (*chart.RawExtraction, error)
	IsConfigured() bool
}

// OllamaProvider recognizes chart images via a local Ollama vision model.
type OllamaProvider struct {
	Model   string
	BaseURL string
	client  *http.Client
}

// NewOllamaProvider creates a new Ollama vision provider.
func NewOllamaProvider(model, baseURL string) *OllamaProvider {
	return &OllamaProvider{
		Model:   model,
		BaseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if Ollama is running and the model is available.
func (o *OllamaProvider) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", o.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	modelBase := strings.SplitN(o.Model, ":", 2)[0]
	for _, m := range result.Models {
		if strings.Contains(m.Name, modelBase) {
			return true
		}
	}
	log.Printf("Ollama model %q not found", o.Model)
	return false
}

// Recognize sends the image to Ollama and decodes the transcription.
func (o *OllamaProvider) Recognize(ctx context.Context, image []byte) (*chart.RawExtraction, error) {
	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]any{
			{
				"role":    "user",
				"content": recognitionPrompt,
				"images":  []string{base64.StdEncoding.EncodeToString(image)},
			},
		},
		"stream": false,
		"options": map[string]any{
			"temperature": 0,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+"/api/chat", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return DecodeExtraction(result.Message.Content, o.Model)
}

// OpenAIProvider recognizes chart images via the OpenAI vision API.
type OpenAIProvider struct {
	Model  string
	APIKey string
	client *http.Client
}

// NewOpenAIProvider creates a new OpenAI vision provider.
func NewOpenAIProvider(model, apiKeyEnv string) *OpenAIProvider {
	return &OpenAIProvider{
		Model:  model,
		APIKey: os.Getenv(apiKeyEnv),
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

// IsConfigured checks if the API key is set.
func (o *OpenAIProvider) IsConfigured() bool {
	return o.APIKey != ""
}

// Recognize sends the image to OpenAI and decodes the transcription.
func (o *OpenAIProvider) Recognize(ctx context.Context, image []byte) (*chart.RawExtraction, error) {
	if o.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": recognitionPrompt},
					{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
				},
			},
		},
		"temperature": 0,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenAI response")
	}

	return DecodeExtraction(result.Choices[0].Message.Content, o.Model)
}

// StaticProvider returns a fixed extraction. Used for pre-extracted
// input and in tests.
type StaticProvider struct {
	Extraction *chart.RawExtraction
	Err        error
}

// Recognize returns the fixed extraction or error.
func (s *StaticProvider) Recognize(ctx context.Context, image []byte) (*chart.RawExtraction, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Extraction, nil
}

// IsConfigured reports whether an extraction is present.
func (s *StaticProvider) IsConfigured() bool {
	return s.Extraction != nil
}

// CreateProvider creates a vision provider based on configuration.
func CreateProvider(provider, model, ollamaURL, openaiModel, apiKeyEnv string) Provider {
	if strings.ToLower(provider) == "ollama" {
		p := NewOllamaProvider(model, ollamaURL)
		if p.IsConfigured() {
			log.Printf("Using Ollama vision model: %s", model)
			return p
		}
		log.Println("Ollama not available, trying OpenAI fallback...")
	}

	p := NewOpenAIProvider(openaiModel, apiKeyEnv)
	if p.IsConfigured() {
		log.Printf("Using OpenAI vision model: %s", openaiModel)
		return p
	}

	log.Println("No vision provider available. Check Ollama is running or set OPENAI_API_KEY.")
	return nil
}
