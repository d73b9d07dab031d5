package main

import (
	"bytes"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news_sync/internal/domain"
)

func TestRender(t *testing.T) {
	published := time.Date(2026, 10, 16, 8, 15, 0, 0, time.Local)
	items := []domain.NewsItem{
		{Title: "First", Link: "https://example.com/1", PublishedDate: published},
		{Title: "Second", Link: "https://example.com/2", PublishedDate: published.Add(-time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, items))

	assert.Equal(t,
		"2026-10-16 08:15  First  https://example.com/1\n"+
			"2026-10-16 07:15  Second  https://example.com/2\n",
		buf.String(),
	)
}

func TestRender_Description(t *testing.T) {
	published := time.Date(2026, 10, 16, 8, 15, 0, 0, time.Local)
	items := []domain.NewsItem{
		{Title: "First", Link: "https://example.com/1", Description: "Rain expected in Tokyo", PublishedDate: published},
		{Title: "Second", Link: "https://example.com/2", PublishedDate: published.Add(-time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, render(&buf, items))

	assert.Equal(t,
		"2026-10-16 08:15  First  https://example.com/1\n"+
			"    Rain expected in Tokyo\n"+
			"2026-10-16 07:15  Second  https://example.com/2\n",
		buf.String(),
	)
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, nil))
	assert.Equal(t, "no news to display\n", buf.String())
}

func TestRun_UnreachableDatabase(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("SYNC_MODE", "merge")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", strconv.Itoa(port))

	var out, logs bytes.Buffer
	assert.Equal(t, 1, run(&out, &logs))
	assert.Empty(t, out.String())
	assert.Contains(t, logs.String(), "failed to connect to database")
}
