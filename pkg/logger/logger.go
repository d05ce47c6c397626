package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const (
	permission = 0664
)

// LogBuild collects the options of a logger before Make opens it.
type LogBuild struct {
	writer  io.Writer
	path    string
	level   zerolog.Level
	console bool
}

// LogData is an opened logger together with the file it writes to, if any.
type LogData struct {
	LogFile *os.File
	Logger  zerolog.Logger
}

// New starts a builder that logs at info level to stderr.
func New() *LogBuild {
	return &LogBuild{level: zerolog.InfoLevel}
}

// FromPath writes to the file at path, appending, instead of the buffer. An
// empty path is ignored.
func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

// FromBuffer writes to w instead of stderr.
func (build *LogBuild) FromBuffer(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// Level sets the minimum level by name. Unknown names keep the current level.
func (build *LogBuild) Level(name string) *LogBuild {
	if name == "" {
		return build
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(name)); err == nil {
		build.level = lvl
	}
	return build
}

// Console switches to the human readable zerolog console writer.
func (build *LogBuild) Console(enabled bool) *LogBuild {
	build.console = enabled
	return build
}

// Make opens the configured outputs and returns the logger.
func (build *LogBuild) Make() (logData *LogData, err error) {
	logData = new(LogData)
	writer := build.writer
	if writer == nil {
		writer = os.Stderr
	}
	if build.path != "" {
		logData.LogFile, err = os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		writer = zerolog.SyncWriter(logData.LogFile)
	}
	if build.console {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
	}
	logData.Logger = zerolog.New(writer).Level(build.level).With().Timestamp().Logger()
	return
}

// Close releases the log file, if one was opened.
func (logData *LogData) Close() error {
	if logData.LogFile == nil {
		return nil
	}
	return logData.LogFile.Close()
}
