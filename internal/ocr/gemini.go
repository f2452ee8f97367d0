package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const transcribePrompt = `Transcribe every line of text visible in this receipt image.
Return only the raw text, one output line per receipt line, in reading order.
Do not add commentary, labels, or formatting of any kind.`

// Gemini implements TextExtractor using Google Gemini.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini-backed text extractor.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// ExtractText sends the receipt image to Gemini and returns the transcribed
// text verbatim.
func (g *Gemini) ExtractText(ctx context.Context, image []byte, contentType string) (string, error) {
	parts := []genai.Part{
		genai.ImageData(imageFormat(contentType), image),
		genai.Text(transcribePrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	// Strip markdown fences the model sometimes wraps output in.
	out := strings.TrimSpace(text.String())
	out = strings.TrimPrefix(out, "```text")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out), nil
}

// imageFormat maps a MIME type to the format suffix genai.ImageData expects
// (e.g. "image/png" -> "png").
func imageFormat(contentType string) string {
	if format, ok := strings.CutPrefix(strings.ToLower(contentType), "image/"); ok && format != "" {
		return format
	}
	return "png"
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
