package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventJSONHasNoOffset(t *testing.T) {
	kolkata := time.FixedZone("IST", 5*3600+1800)
	ev := Event{
		Title: "Math",
		Start: NewLocalTime(time.Date(2025, 1, 6, 9, 0, 0, 0, kolkata)),
		End:   NewLocalTime(time.Date(2025, 1, 6, 10, 50, 0, 0, kolkata)),
	}
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Math","start":"2025-01-06T09:00:00","end":"2025-01-06T10:50:00"}`, string(b))
}

func TestLocalTimeUnmarshal(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`{"title":"","start":"2025-01-10T16:50:00","end":"2025-01-10T17:40:00"}`), &ev))
	assert.Equal(t, 16, ev.Start.Hour())
	assert.Equal(t, 50, ev.Start.Minute())
	assert.Equal(t, "2025-01-10T17:40:00", ev.End.String())

	err := json.Unmarshal([]byte(`{"start":"monday"}`), &ev)
	assert.Error(t, err)
}
