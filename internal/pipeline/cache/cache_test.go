package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestWriteAndRead(t *testing.T) {
	c := newTestCache(t)

	type payload struct {
		Codes []string `json:"codes"`
	}
	require.NoError(t, c.Write("quotes_latest", payload{Codes: []string{"110022", "161725"}}))

	var got payload
	ok, err := c.Read("quotes_latest", time.Hour, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"110022", "161725"}, got.Codes)
}

func TestReadMissingKey(t *testing.T) {
	c := newTestCache(t)

	var got map[string]any
	ok, err := c.Read("nope", time.Hour, &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadExpiredEntry(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Write("stale", map[string]int{"v": 1}))

	// 把文件改旧
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(c.path("stale"), old, old))

	var got map[string]int
	ok, err := c.Read("stale", time.Hour, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	// maxAge 为 0 时不检查过期
	ok, err = c.Read("stale", 0, &got)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKeyWithSeparator(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Write("history/110022", map[string]int{"bars": 60}))

	var got map[string]int
	ok, err := c.Read("history/110022", time.Hour, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 60, got["bars"])
}

func TestExpire(t *testing.T) {
	dir := t.TempDir()
	c, err := New(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Write("fresh", 1))
	require.NoError(t, c.Write("old1", 2))
	require.NoError(t, c.Write("old2", 3))
	// 非缓存文件不应被清理
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644))

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(c.path("old1"), stale, stale))
	require.NoError(t, os.Chtimes(c.path("old2"), stale, stale))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "notes.txt"), stale, stale))

	removed, err := c.Expire(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = os.Stat(c.path("fresh"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(c.path("old1"))
	assert.True(t, os.IsNotExist(err))
}
