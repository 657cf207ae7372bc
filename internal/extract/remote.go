package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"time"

	appLog "tablecal/internal/log"
)

// Recognition settings sent to the layout service. They are fixed: the
// schedule layout is English-only and needs table recovery enabled.
const (
	remoteLang     = "en"
	remoteRecovery = "true"
)

var remoteLog = appLog.New("extract")

// maxResponseBytes caps the region list read from the layout service.
const maxResponseBytes = 32 << 20

// RemoteEngine sends images to a layout-analysis HTTP service and decodes
// the detected regions. The service receives the PNG as the request body and
// answers with a JSON array of regions:
//
//	[{"type": "table", "bbox": [x0, y0, x1, y1], "res": {"html": "<table>..."}}]
//
// It is safe for concurrent use.
type RemoteEngine struct {
	client   *http.Client
	endpoint string
}

// NewRemoteEngine creates a RemoteEngine. A zero timeout defaults to 60s.
func NewRemoteEngine(endpoint string, timeout time.Duration) (*RemoteEngine, error) {
	if endpoint == "" {
		return nil, errors.New("extract: remote endpoint is empty")
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("extract: remote endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("extract: unsupported endpoint scheme %q", u.Scheme)
	}
	q := u.Query()
	q.Set("lang", remoteLang)
	q.Set("recovery", remoteRecovery)
	u.RawQuery = q.Encode()

	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RemoteEngine{
		client:   &http.Client{Timeout: timeout},
		endpoint: u.String(),
	}, nil
}

func (e *RemoteEngine) Extract(ctx context.Context, img image.Image) ([]Region, error) {
	body, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract: layout service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("extract: layout service: %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}

	var regions []Region
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&regions); err != nil {
		return nil, fmt.Errorf("extract: decode regions: %w", err)
	}

	remoteLog.Debug("layout service responded",
		"regions", len(regions),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return regions, nil
}
