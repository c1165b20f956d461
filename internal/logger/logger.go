package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields lets callers build log fields without importing logrus.
type Fields = logrus.Fields

// Options controls the global logger.
type Options struct {
	Level      string
	File       string // optional rotating log file
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu     sync.RWMutex
	global = newLogger()
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure applies level and output settings to the global logger.
func Configure(opts Options) error {
	l := newLogger()

	level := opts.Level
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level = v
	}
	if level != "" {
		lvl, err := logrus.ParseLevel(strings.ToLower(level))
		if err != nil {
			return err
		}
		l.SetLevel(lvl)
	}

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    defaultInt(opts.MaxSizeMB, 50),
			MaxBackups: defaultInt(opts.MaxBackups, 5),
			MaxAge:     defaultInt(opts.MaxAgeDays, 30),
			Compress:   true,
		}
		l.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	mu.Lock()
	global = l
	mu.Unlock()
	return nil
}

// SetOutput redirects the global logger, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	global.SetOutput(w)
}

// Get returns the global logger.
func Get() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// WithComponent returns an entry tagged with the component name.
func WithComponent(component string) *logrus.Entry {
	return Get().WithField("component", component)
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
