package schedule

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"time"

	"tablecal/internal/cache"
	"tablecal/internal/extract"
	appLog "tablecal/internal/log"
	"tablecal/internal/model"
	"tablecal/internal/table"
)

// Recorder receives processing measurements. metrics.PromRecorder
// implements it.
type Recorder interface {
	ObserveExtract(d time.Duration)
	AddEvents(n int)
	AddSkipped(reason string, n int)
}

// Processor runs one schedule image through recognition, table parsing and
// event generation. It holds no per-request state and is safe for
// concurrent use as long as its engine is.
type Processor struct {
	engine   extract.Engine
	now      func() time.Time
	cache    *cache.TableCache
	recorder Recorder
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock overrides the clock used to pick the current week.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// WithCache reuses tables recognized from identical uploads.
func WithCache(c *cache.TableCache) Option {
	return func(p *Processor) { p.cache = c }
}

// WithRecorder reports measurements to r.
func WithRecorder(r Recorder) Option {
	return func(p *Processor) {
		if r != nil {
			p.recorder = r
		}
	}
}

// NewProcessor returns a Processor backed by engine.
func NewProcessor(engine extract.Engine, opts ...Option) (*Processor, error) {
	if engine == nil {
		return nil, errors.New("schedule: engine is nil")
	}
	p := &Processor{
		engine:   engine,
		now:      time.Now,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ProcessBytes decodes an uploaded image and processes it. The upload hash
// keys the table cache.
func (p *Processor) ProcessBytes(ctx context.Context, data []byte) ([]model.Event, error) {
	img, err := extract.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return p.Process(ctx, img, hex.EncodeToString(sum[:]))
}

// Process converts img into events for the current week. key identifies the
// image for caching; an empty key disables the cache for this call.
//
// The call fails only when no table can be obtained. Cells that cannot be
// turned into events are skipped and logged.
func (p *Processor) Process(ctx context.Context, img image.Image, key string) ([]model.Event, error) {
	tbl, err := p.table(ctx, img, key)
	if err != nil {
		return nil, err
	}

	week := WeekOf(p.now())
	res := Transform(tbl, week.Days)

	p.recorder.AddEvents(len(res.Events))
	skips := map[string]int{}
	for _, s := range res.Skipped {
		skips[s.Reason]++
	}
	for reason, n := range skips {
		p.recorder.AddSkipped(reason, n)
	}

	zone := ""
	if week.Zone != nil {
		zone = week.Zone.String()
	}
	appLog.Info("schedule processed",
		"week_start", week.Monday().Format("2006-01-02"),
		"schedule_zone", zone,
		"rows", len(tbl.Rows),
		"columns", len(tbl.Columns),
		"events", len(res.Events),
		"skipped", len(res.Skipped),
	)
	return res.Events, nil
}

func (p *Processor) table(ctx context.Context, img image.Image, key string) (*table.Table, error) {
	if p.cache != nil {
		if t, ok := p.cache.Get(key); ok {
			appLog.Debug("table cache hit", "key", key)
			return t, nil
		}
	}

	start := time.Now()
	regions, err := p.engine.Extract(ctx, img)
	p.recorder.ObserveExtract(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("table recognition failed: %w", err)
	}

	markup, err := extract.FirstTableHTML(regions)
	if err != nil {
		return nil, err
	}
	raw, err := table.Parse(markup)
	if err != nil {
		return nil, fmt.Errorf("read recognized table: %w", err)
	}
	if err := raw.RequireHeader(); err != nil {
		return nil, fmt.Errorf("read recognized table: %w", err)
	}
	t := raw.Normalize()

	if p.cache != nil {
		p.cache.Put(key, t)
	}
	return t, nil
}

type nopRecorder struct{}

func (nopRecorder) ObserveExtract(time.Duration) {}
func (nopRecorder) AddEvents(int) {}
func (nopRecorder) AddSkipped(string, int) {}
