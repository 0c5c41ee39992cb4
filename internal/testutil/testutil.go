// Package testutil provides fixtures and helpers shared by package tests:
//   - upstream energy and codebook documents (fixtures.go)
//   - a quiet logger and file helpers (this file)
package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// NewLogger returns a logger that discards output
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)

	return logger
}

// WriteFile writes content to dir/name and returns the path
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// ReadFile returns the content of path
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path) //nolint:gosec // test path
	require.NoError(t, err)

	return string(data)
}
