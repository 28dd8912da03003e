package log

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// initLogger initializes the global logger to write JSON lines to stderr.
func initLogger() {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetLevel(logrus.InfoLevel)
	})
}

func SetLevel(l Level) {
	initLogger()
	switch l {
	case LevelDebug:
		logger.SetLevel(logrus.DebugLevel)
	case LevelInfo:
		logger.SetLevel(logrus.InfoLevel)
	case LevelError:
		logger.SetLevel(logrus.ErrorLevel)
	}
}

// SetOutput redirects log output; mainly useful to silence logs in tests.
func SetOutput(w io.Writer) {
	initLogger()
	logger.SetOutput(w)
}

func Debug(msg string, kv ...any) {
	initLogger()
	logger.WithFields(fields(kv...)).Debug(msg)
}

func Info(msg string, kv ...any) {
	initLogger()
	logger.WithFields(fields(kv...)).Info(msg)
}

func Error(msg string, err error, kv ...any) {
	initLogger()
	logger.WithError(err).WithFields(fields(kv...)).Error(msg)
}

// fields converts a flat key/value list into logrus.Fields.
// Non-string keys and a trailing odd value are ignored.
func fields(kv ...any) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}
