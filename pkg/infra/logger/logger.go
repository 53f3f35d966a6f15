package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const fileBufferSize = 32 * 1024

type Config struct {
	// Level is a logrus level name. LOG_LEVEL overrides it.
	Level string
	// File enables asynchronous JSON logging to a file under Dir. Console
	// output is kept through a hook.
	File string
	Dir  string
}

func NewLogger(cfg Config) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "time",
			logrus.FieldKeyMsg:  "msg",
		},
	})
	logger.SetLevel(ParseLevel(cfg.Level))

	if cfg.File == "" {
		logger.SetOutput(os.Stdout)
		return logger, nopCloser{}, nil
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "logs"
	}
	logFile := filepath.Clean(filepath.Join(dir, cfg.File))
	if !strings.HasPrefix(logFile, filepath.Clean(dir)+string(filepath.Separator)) {
		return nil, nil, fmt.Errorf("invalid log file path %q: must be inside %s", cfg.File, dir)
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	asyncWriter, err := NewAsyncFileWriter(logFile, fileBufferSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize async log writer: %w", err)
	}
	logger.SetOutput(asyncWriter)
	logger.AddHook(NewConsoleHook(os.Stdout))

	return logger, asyncWriter, nil
}

// ParseLevel reads LOG_LEVEL first, then the configured level, and falls
// back to info.
func ParseLevel(configured string) logrus.Level {
	for _, candidate := range []string{os.Getenv("LOG_LEVEL"), configured} {
		if candidate == "" {
			continue
		}
		if level, err := logrus.ParseLevel(candidate); err == nil {
			return level
		}
	}
	return logrus.InfoLevel
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
