// Package extract is the boundary to the table-structure recognition engine.
//
// An Engine takes a decoded image and returns the regions it detected. Only
// regions tagged "table" matter here; their result carries the recognized
// table as an HTML <table> string.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
)

// RegionTable is the region type that carries an HTML table.
const RegionTable = "table"

// ErrNoTable is returned when no region holds a usable table. Its text is
// sent verbatim as the API error message that clients match on, so it keeps
// its capitalized wording.
//
//nolint:staticcheck // ST1005: user-facing message
var ErrNoTable = errors.New("No table found in the image")

// Engine is the narrow capability the schedule pipeline needs from a
// recognizer. Implementations must be safe for concurrent use.
type Engine interface {
	Extract(ctx context.Context, img image.Image) ([]Region, error)
}

// Region is a detected zone of an image.
type Region struct {
	Type string       `json:"type"`
	BBox []int        `json:"bbox,omitempty"`
	Res  RegionResult `json:"res"`
}

// RegionResult is the engine-specific payload of a region. For table regions
// it holds the HTML table; other region types carry lists of text lines,
// which are accepted and dropped.
type RegionResult struct {
	HTML string `json:"html,omitempty"`
}

func (r *RegionResult) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		*r = RegionResult{}
		return nil
	}
	type plain RegionResult
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = RegionResult(p)
	return nil
}

// FirstTableHTML returns the HTML of the first table region with a non-empty
// result. Later tables are ignored.
func FirstTableHTML(regions []Region) (string, error) {
	for _, r := range regions {
		if r.Type == RegionTable && r.Res.HTML != "" {
			return r.Res.HTML, nil
		}
	}
	return "", ErrNoTable
}

// EngineFunc adapts a plain function to the Engine interface.
type EngineFunc func(ctx context.Context, img image.Image) ([]Region, error)

func (f EngineFunc) Extract(ctx context.Context, img image.Image) ([]Region, error) {
	return f(ctx, img)
}

// StaticEngine always returns the same regions, regardless of the image.
type StaticEngine struct {
	Regions []Region
}

// NewHTMLEngine returns an engine that reports a single table region with
// the given HTML.
func NewHTMLEngine(html string) *StaticEngine {
	return &StaticEngine{Regions: []Region{{Type: RegionTable, Res: RegionResult{HTML: html}}}}
}

func (e *StaticEngine) Extract(ctx context.Context, _ image.Image) ([]Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]Region, len(e.Regions))
	copy(out, e.Regions)
	return out, nil
}
