package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLog "tablecal/internal/log"
)

func TestFirstTableHTML(t *testing.T) {
	tests := []struct {
		name    string
		regions []Region
		want    string
		wantErr error
	}{
		{
			name: "first table wins",
			regions: []Region{
				{Type: "text"},
				{Type: RegionTable, Res: RegionResult{HTML: "<table>a</table>"}},
				{Type: RegionTable, Res: RegionResult{HTML: "<table>b</table>"}},
			},
			want: "<table>a</table>",
		},
		{
			name: "empty html skipped",
			regions: []Region{
				{Type: RegionTable},
				{Type: RegionTable, Res: RegionResult{HTML: "<table>b</table>"}},
			},
			want: "<table>b</table>",
		},
		{name: "no regions", wantErr: ErrNoTable},
		{
			name:    "only text",
			regions: []Region{{Type: "text"}, {Type: "figure"}},
			wantErr: ErrNoTable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FirstTableHTML(tt.regions)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegionJSONToleratesListResults(t *testing.T) {
	payload := `[
		{"type": "text", "bbox": [0, 0, 10, 10], "res": [{"text": "Timetable", "confidence": 0.98}]},
		{"type": "table", "bbox": [0, 20, 100, 200], "res": {"html": "<table></table>", "cell_bbox": []}}
	]`
	var regions []Region
	require.NoError(t, json.Unmarshal([]byte(payload), &regions))
	require.Len(t, regions, 2)
	assert.Equal(t, "", regions[0].Res.HTML)
	assert.Equal(t, []int{0, 20, 100, 200}, regions[1].BBox)

	html, err := FirstTableHTML(regions)
	require.NoError(t, err)
	assert.Equal(t, "<table></table>", html)
}

func TestStaticEngine(t *testing.T) {
	e := NewHTMLEngine("<table></table>")
	regions, err := e.Extract(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, RegionTable, regions[0].Type)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Extract(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.NRGBA{R: 200, A: 255})
	return img
}

func TestDecodeImage(t *testing.T) {
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, testImage()))
	var jpgBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpgBuf, testImage(), nil))

	for name, data := range map[string][]byte{"png": pngBuf.Bytes(), "jpeg": jpgBuf.Bytes()} {
		t.Run(name, func(t *testing.T) {
			img, err := DecodeImage(data)
			require.NoError(t, err)
			assert.Equal(t, 4, img.Bounds().Dx())
			assert.Equal(t, 3, img.Bounds().Dy())
		})
	}
}

func TestDecodeImageFlattensAlpha(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	img, err := DecodeImage(buf.Bytes())
	require.NoError(t, err)

	// Fully transparent pixels become white.
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 200, A: 255}, img.RGBAAt(1, 1))
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, err := DecodeImage([]byte("not an image"))
	assert.ErrorIs(t, err, ErrDecodeImage)

	_, err = DecodeImage(nil)
	assert.ErrorIs(t, err, ErrDecodeImage)
}

func TestRemoteEngine(t *testing.T) {
	var gotQuery, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"type":"table","res":{"html":"<table><tr><td>x</td></tr></table>"}}]`))
	}))
	defer srv.Close()

	e, err := NewRemoteEngine(srv.URL+"/predict?model=v2", time.Second)
	require.NoError(t, err)

	regions, err := e.Extract(context.Background(), testImage())
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Contains(t, regions[0].Res.HTML, "<td>x</td>")

	assert.Contains(t, gotQuery, "lang=en")
	assert.Contains(t, gotQuery, "recovery=true")
	assert.Contains(t, gotQuery, "model=v2")
	assert.Equal(t, "image/png", gotType)
	_, err = png.Decode(bytes.NewReader(gotBody))
	assert.NoError(t, err)
}

func TestRemoteEngineLogsWithComponent(t *testing.T) {
	t.Setenv("APP_ENV", "")
	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	appLog.SetLevel(appLog.LevelDebug)
	defer func() {
		appLog.SetLevel(appLog.LevelInfo)
		appLog.SetOutput(&bytes.Buffer{})
	}()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	e, err := NewRemoteEngine(srv.URL, time.Second)
	require.NoError(t, err)
	_, err = e.Extract(context.Background(), testImage())
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "extract", line["component"])
	assert.Equal(t, "layout service responded", line["message"])
	assert.EqualValues(t, 0, line["regions"])
}

func TestRemoteEngineErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e, err := NewRemoteEngine(srv.URL, 0)
	require.NoError(t, err)
	_, err = e.Extract(context.Background(), testImage())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "503"), err.Error())
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestNewRemoteEngineValidation(t *testing.T) {
	_, err := NewRemoteEngine("", 0)
	assert.Error(t, err)
	_, err = NewRemoteEngine("ftp://ocr.local/", 0)
	assert.Error(t, err)
}
