// Package ocr provides the text-extraction collaborator: receipt image bytes
// in, raw text out. The extraction heuristics downstream only ever see text;
// empty text is a valid degenerate result.
package ocr

import "context"

// TextExtractor defines the interface for receipt text extraction.
type TextExtractor interface {
	// ExtractText transcribes the text visible in a receipt image.
	ExtractText(ctx context.Context, image []byte, contentType string) (string, error)
	// Close releases any resources held by the extractor.
	Close() error
}
