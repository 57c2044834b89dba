// Package oracle calls the vision model that turns an e-cheque document into
// a free-text field set. The response is raw material only: callers validate
// and re-derive everything downstream.
package oracle

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for extraction.
const DefaultModelName = "gemini-2.5-flash"

// ChequeParser extracts structured fields from an e-cheque PDF and returns
// the raw model response. The response is expected to be JSON, possibly
// fenced; parsing and validation happen in the cheque package.
type ChequeParser interface {
	ExtractCheque(ctx context.Context, pdfBytes []byte) (string, error)
}

// GeminiParser is the ChequeParser implementation backed by Gemini.
type GeminiParser struct {
	model string
	// prompt overrides the default extraction prompt when non-empty.
	prompt string
}

// Option configures a GeminiParser.
type Option func(*GeminiParser)

// WithModel overrides the default model name.
func WithModel(model string) Option {
	return func(p *GeminiParser) { p.model = model }
}

// WithPrompt overrides the default extraction prompt.
func WithPrompt(prompt string) Option {
	return func(p *GeminiParser) { p.prompt = prompt }
}

// NewGeminiParser creates a Gemini-backed cheque parser. Credentials come
// from the environment (GEMINI_API_KEY or Application Default Credentials).
func NewGeminiParser(opts ...Option) *GeminiParser {
	p := &GeminiParser{model: DefaultModelName}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExtractCheque sends the PDF to Gemini with the extraction prompt and
// returns the raw text response.
func (p *GeminiParser) ExtractCheque(ctx context.Context, pdfBytes []byte) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("ExtractCheque: create genai client: %w", err)
	}

	prompt := p.prompt
	if prompt == "" {
		prompt = extractionPrompt
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdfBytes,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("ExtractCheque: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("ExtractCheque: empty response from model")
	}

	return rawText, nil
}

var _ ChequeParser = (*GeminiParser)(nil)
