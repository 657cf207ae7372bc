//go:build ocr

package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// ErrOCRNotEnabled is returned by the stub build; with the ocr tag it is
// never produced but stays defined so callers can test for it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// TesseractEngine recognizes words with a local Tesseract install and lays
// them out into a single table region.
//
// The underlying gosseract client is not goroutine-safe, so calls are
// serialized.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractEngine creates an English-language Tesseract engine.
// Close it when no longer needed.
func NewTesseractEngine() (*TesseractEngine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("extract: tesseract language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		client.Close()
		return nil, fmt.Errorf("extract: tesseract page mode: %w", err)
	}
	return &TesseractEngine{client: client}, nil
}

// Close releases Tesseract resources.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}

func (e *TesseractEngine) Extract(ctx context.Context, img image.Image) ([]Region, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil, errors.New("extract: tesseract engine closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("extract: tesseract set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("extract: tesseract recognize: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{Text: b.Word, Box: b.Box})
	}
	table := LayoutTable(words)
	if table == "" {
		return nil, nil
	}
	bounds := img.Bounds()
	return []Region{{
		Type: RegionTable,
		BBox: []int{bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y},
		Res:  RegionResult{HTML: table},
	}}, nil
}
