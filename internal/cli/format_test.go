package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/mvp-joe/docwatch/internal/indexer"
	"github.com/mvp-joe/docwatch/internal/state"
	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in))
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "5s", formatDuration(5*time.Second))
	assert.Equal(t, "1m 5s", formatDuration(65*time.Second))
	assert.Equal(t, "2m", formatDuration(2*time.Minute))
	assert.Equal(t, "1h 30m", formatDuration(90*time.Minute))
	assert.Equal(t, "1d 3h", formatDuration(27*time.Hour))
}

func TestFormatTimeSince(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "never", formatTimeSince(time.Time{}, now))
	assert.Equal(t, "30s ago", formatTimeSince(now.Add(-30*time.Second), now))
	assert.Equal(t, "5m ago", formatTimeSince(now.Add(-5*time.Minute), now))
	assert.Equal(t, "2h ago", formatTimeSince(now.Add(-2*time.Hour), now))
	assert.Equal(t, "1d 1h ago", formatTimeSince(now.Add(-25*time.Hour), now))
	assert.Equal(t, "0s ago", formatTimeSince(now.Add(time.Minute), now))
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KiB", formatBytes(1536))
	assert.Equal(t, "10.0 MiB", formatBytes(10*1024*1024))
}

func TestFormatState(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	var empty bytes.Buffer
	formatState(&empty, "/tmp/state.json", nil, now)
	assert.Contains(t, empty.String(), "No files indexed")

	var buf bytes.Buffer
	formatState(&buf, "/tmp/state.json", map[string]state.FileRecord{
		"/docs/b.txt": {Hash: "0123456789abcdef0123", ChunkIDs: []string{"x", "y"}, Size: 2048, Version: 3, ModTime: now.Add(-time.Hour)},
		"/docs/a.txt": {Hash: "ffff", ChunkIDs: []string{"z"}, Size: 10, Version: 1},
	}, now)

	out := buf.String()
	assert.Contains(t, out, "Indexed files (2, 3 chunks, 2.0 KiB)")
	assert.Contains(t, out, "0123456789ab")
	assert.NotContains(t, out, "0123456789abc")
	assert.Contains(t, out, "Version:  3")
	assert.Contains(t, out, "1h ago")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("/docs/a.txt")), bytes.Index(buf.Bytes(), []byte("/docs/b.txt")))
}

func TestFormatHistory(t *testing.T) {
	t.Parallel()

	var none bytes.Buffer
	formatHistory(&none, "/docs/a.txt", nil, false)
	assert.Contains(t, none.String(), "No history for /docs/a.txt")

	records := []indexer.VersionRecord{
		{Path: "/docs/a.txt", Version: 1, ChangeType: indexer.StatusAdded, Summary: "hello", Hash: "aaaa"},
		{Path: "/docs/a.txt", Version: 2, ChangeType: indexer.StatusModified, Diff: []string{"--- before", "+++ after", "-hello", "+hello world"}},
	}

	var plain bytes.Buffer
	formatHistory(&plain, "/docs/a.txt", records, false)
	assert.Contains(t, plain.String(), "2 versions")
	assert.Contains(t, plain.String(), "v1")
	assert.Contains(t, plain.String(), "modified")
	assert.NotContains(t, plain.String(), "hello world")

	var withDiff bytes.Buffer
	formatHistory(&withDiff, "/docs/a.txt", records, true)
	assert.Contains(t, withDiff.String(), "hello world")
}

func TestStyleDiffLine_KeepsText(t *testing.T) {
	t.Parallel()

	for _, line := range []string{"--- before", "+++ after", "@@ -1 +1 @@", "+added", "-removed", " context", ""} {
		assert.Contains(t, styleDiffLine(line), line)
	}
}

func TestCLIProgressReporter(t *testing.T) {
	t.Parallel()

	stats := &indexer.ScanStats{Root: "/docs", Files: 3, Added: 2, Unchanged: 1, Failed: 1, Duration: 1500 * time.Millisecond}

	var quiet bytes.Buffer
	q := NewCLIProgressReporter(&quiet, true)
	q.OnScanStart("/docs")
	q.OnFileScanned("/docs/a.txt", indexer.ProcessResult{Class: indexer.Added})
	q.OnScanComplete(stats)
	assert.Empty(t, quiet.String())

	var buf bytes.Buffer
	r := NewCLIProgressReporter(&buf, false)
	r.OnScanStart("/docs")
	r.OnFileScanned("/docs/a.txt", indexer.ProcessResult{Class: indexer.Added})
	r.OnFileScanned("/docs/b.txt", indexer.ProcessResult{Skipped: indexer.SkipUnchanged})
	r.OnScanComplete(stats)

	out := buf.String()
	assert.Equal(t, 1, r.changed)
	assert.Contains(t, out, "Scan complete: 3 files in 1s")
	assert.Contains(t, out, "Added:     2")
	assert.Contains(t, out, "Failed:    1")
	assert.NotContains(t, out, "Skipped:")
}
