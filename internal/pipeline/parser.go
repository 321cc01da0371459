package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/owner-statements/internal/domain"
)

// GeminiExtractor sends a PDF and a prompt to a Gemini model and decodes the
// JSON it returns.
type GeminiExtractor struct {
	client *genai.Client
	model  string
	prompt string
}

// NewGeminiExtractor creates an extractor using model and prompt.
func NewGeminiExtractor(client *genai.Client, model, prompt string) *GeminiExtractor {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExtractor{client: client, model: model, prompt: prompt}
}

// Extract implements Extractor.
func (g *GeminiExtractor) Extract(ctx context.Context, pdf []byte) (*Extraction, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdf,
					},
				},
				{Text: g.prompt},
			},
		},
	}

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("Extract: generate content: %w", err)
	}

	rawText := resp.Text()
	if strings.TrimSpace(rawText) == "" {
		return nil, fmt.Errorf("Extract: empty response from model")
	}

	records, err := DecodeRecords(rawText)
	if err != nil {
		return nil, fmt.Errorf("Extract: %w", err)
	}

	ext := &Extraction{Records: records, RawText: rawText, Model: g.model}
	if resp.UsageMetadata != nil {
		ext.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		ext.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return ext, nil
}

// DecodeRecords parses model output that is either one JSON object or an
// array of objects. Numbers are kept as json.Number.
func DecodeRecords(raw string) ([]domain.RawRecord, error) {
	clean := cleanModelJSON(raw)

	dec := json.NewDecoder(bytes.NewReader([]byte(clean)))
	dec.UseNumber()

	var parsed interface{}
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("DecodeRecords: unmarshal JSON: %w", err)
	}

	switch v := parsed.(type) {
	case map[string]interface{}:
		return []domain.RawRecord{v}, nil
	case []interface{}:
		records := make([]domain.RawRecord, 0, len(v))
		for i, item := range v {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("DecodeRecords: element %d is %T, not an object", i, item)
			}
			records = append(records, obj)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("DecodeRecords: unexpected top-level %T", parsed)
	}
}

// cleanModelJSON strips Markdown fences and any prose around the JSON value.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "[{")
	if start == -1 {
		return s
	}
	closing := "]"
	if s[start] == '{' {
		closing = "}"
	}
	if end := strings.LastIndex(s, closing); end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
