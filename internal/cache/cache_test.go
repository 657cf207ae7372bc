package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLog "tablecal/internal/log"
	"tablecal/internal/table"
)

func TestTableCacheGetPut(t *testing.T) {
	c := NewTableCache()
	tbl := &table.Table{Columns: []string{"9.00-10.50"}}

	_, ok := c.Get("abc")
	assert.False(t, ok)

	c.Put("abc", tbl)
	c.Put("", tbl)
	c.Put("nil", nil)

	got, ok := c.Get("abc")
	require.True(t, ok)
	assert.Same(t, tbl, got)
	assert.Equal(t, 1, c.Len())

	_, ok = c.Get("")
	assert.False(t, ok)
}

func TestTableCachePurge(t *testing.T) {
	c := NewTableCache()
	c.Put("a", &table.Table{})
	c.Put("b", &table.Table{})
	assert.Equal(t, 2, c.Purge())
	assert.Equal(t, 0, c.Len())
}

func TestTableCacheConcurrent(t *testing.T) {
	c := NewTableCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i))
			c.Put(key, &table.Table{})
			c.Get(key)
			c.Len()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, c.Len())
}

func TestStartPurgerRejectsBadSpec(t *testing.T) {
	c := NewTableCache()
	err := c.StartPurger(context.Background(), "every monday")
	assert.Error(t, err)
}

func TestStartPurgerStopsWithContext(t *testing.T) {
	t.Setenv("APP_ENV", "")
	var buf bytes.Buffer
	appLog.SetOutput(&buf)
	defer appLog.SetOutput(&bytes.Buffer{})

	c := NewTableCache()
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.StartPurger(ctx, ""))
	cancel()

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "cache", line["component"])
	assert.Equal(t, DefaultPurgeSpec, line["schedule"])
}
