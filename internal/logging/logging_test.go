package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_WritesRotatingFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "docwatch.log")

	closer, err := Setup(Config{File: logFile, MaxSizeMB: 1})
	require.NoError(t, err)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
	})

	log.Printf("hello from test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestDebugf_RespectsVerbose(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		SetVerbose(false)
	})

	SetVerbose(false)
	Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Debugf("shown %d", 2)
	assert.True(t, strings.Contains(buf.String(), "[debug] shown 2"))
}

func TestBackupPattern(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "docwatch-*.log*", BackupPattern("/var/log/docwatch.log"))
	assert.Equal(t, "agent-**", BackupPattern("agent"))
}
