//go:build !ocr

package extract

import (
	"context"
	"errors"
	"image"
)

// ErrOCRNotEnabled is returned when the Tesseract engine is requested but
// OCR support was not compiled in. Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// TesseractEngine is a stub that fails every call.
type TesseractEngine struct{}

// NewTesseractEngine returns ErrOCRNotEnabled.
func NewTesseractEngine() (*TesseractEngine, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op. It is safe to call on a nil engine.
func (e *TesseractEngine) Close() error {
	return nil
}

func (e *TesseractEngine) Extract(context.Context, image.Image) ([]Region, error) {
	return nil, ErrOCRNotEnabled
}
