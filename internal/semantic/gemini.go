package semantic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"
	"google.golang.org/genai"
)

// DefaultModel is used when no Gemini model is configured.
const DefaultModel = "gemini-2.5-flash"

var verdictPrompt = template.Must(template.New("verdict").Parse(`You are grading whether a response satisfies one instruction.

Instruction id: {{.ID}}
{{- if .Params}}
Parameters:
{{- range .Params}}
- {{.Key}}: {{.Value}}
{{- end}}
{{- end}}

Response:
<<<
{{.Text}}
>>>

Reply with one JSON object and nothing else:
{"valid": true or false, "evidence": "a short quote or reason", "confidence": a number from 0 to 1}
`))

// wireVerdict is the JSON object the model must return.
type wireVerdict struct {
	Valid      *bool   `json:"valid" validate:"required"`
	Evidence   string  `json:"evidence" validate:"required"`
	Confidence float64 `json:"confidence" validate:"min=0,max=1"`
}

type param struct {
	Key   string
	Value string
}

// GeminiVerifier implements Verifier with Gemini text generation.
type GeminiVerifier struct {
	client   *genai.Client
	model    string
	validate *validator.Validate
}

// NewGeminiVerifier creates a verifier backed by the Gemini API.
func NewGeminiVerifier(ctx context.Context, apiKey, model string) (*GeminiVerifier, error) {
	if apiKey == "" {
		return nil, errors.New("semantic: gemini api key is empty")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic: create genai client: %w", err)
	}
	return &GeminiVerifier{client: client, model: model, validate: validator.New()}, nil
}

// Evaluate asks the model for a JSON verdict on text.
func (g *GeminiVerifier) Evaluate(ctx context.Context, instructionID string, params map[string]any, text string) (Verdict, error) {
	prompt, err := buildPrompt(instructionID, params, text)
	if err != nil {
		return Verdict{}, err
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("semantic: generate %s: %w", instructionID, err)
	}
	return parseVerdict(g.validate, resp.Text())
}

func buildPrompt(id string, params map[string]any, text string) (string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ps := make([]param, 0, len(keys))
	for _, k := range keys {
		ps = append(ps, param{Key: k, Value: render(params[k])})
	}

	var buf bytes.Buffer
	err := verdictPrompt.Execute(&buf, struct {
		ID     string
		Params []param
		Text   string
	}{id, ps, text})
	if err != nil {
		return "", fmt.Errorf("semantic: render prompt: %w", err)
	}
	return buf.String(), nil
}

func render(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// parseVerdict decodes a model reply, tolerating markdown fences and prose
// around the object.
func parseVerdict(v *validator.Validate, reply string) (Verdict, error) {
	body := cleanJSON(reply)
	if body == "" {
		return Verdict{}, fmt.Errorf("semantic: no JSON object in reply %q", truncate(reply, 80))
	}
	var w wireVerdict
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return Verdict{}, fmt.Errorf("semantic: decode verdict: %w", err)
	}
	if err := v.Struct(w); err != nil {
		return Verdict{}, fmt.Errorf("semantic: invalid verdict: %w", err)
	}
	return Verdict{Valid: *w.Valid, Evidence: w.Evidence, Confidence: w.Confidence}, nil
}

func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return ""
	}
	return text[start : end+1]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
