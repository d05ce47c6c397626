package logger_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hrdemo/company/pkg/logger"
)

func TestLog(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	templogger, err := logger.New().FromBuffer(buff).Make()
	require.NoError(t, err)
	require.NotNil(t, templogger)
	require.Equal(t, buff.Len(), 0)
	templogger.Logger.Info().Str("kind", "task").Msg("Test")
	require.Contains(t, buff.String(), "Test")
	require.Contains(t, buff.String(), `"kind":"task"`)
}

func TestLogLevel(t *testing.T) {
	buff := bytes.NewBuffer([]byte{})
	templogger, err := logger.New().FromBuffer(buff).Level("WARN").Make()
	require.NoError(t, err)

	templogger.Logger.Info().Msg("hidden")
	require.Zero(t, buff.Len())

	templogger.Logger.Warn().Msg("shown")
	require.Contains(t, buff.String(), "shown")
}

func TestLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "company.log")
	templogger, err := logger.New().FromPath(path).Make()
	require.NoError(t, err)
	templogger.Logger.Info().Msg("to file")
	require.NoError(t, templogger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "to file")
}
