package services

import (
	"context"
	"fmt"

	"github.com/Reya-11/Solid-spend/internal/core"
	"github.com/Reya-11/Solid-spend/internal/ocr"
	"github.com/Reya-11/Solid-spend/internal/parser"
)

// ReceiptService turns a receipt image into suggested expense fields.
// It never creates an expense: the extracted values pre-fill a draft that
// the user confirms or corrects before saving.
type ReceiptService struct {
	ocr ocr.TextExtractor
}

func NewReceiptService(extractor ocr.TextExtractor) *ReceiptService {
	return &ReceiptService{ocr: extractor}
}

// Scan runs OCR over the image and extracts amount, date and merchant from
// the recognized text. The raw text is returned alongside the fields so the
// caller can show it for manual correction. Fields that could not be
// extracted are simply absent, never an error.
func (s *ReceiptService) Scan(ctx context.Context, image []byte, contentType string) (core.ExtractedFields, string, error) {
	text, err := s.ocr.ExtractText(ctx, image, contentType)
	if err != nil {
		return core.ExtractedFields{}, "", fmt.Errorf("extract receipt text: %w", err)
	}
	return parser.ParseReceipt(text), text, nil
}
