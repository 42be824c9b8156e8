package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Category int

const (
	Application Category = iota
	DiscordEvents
	Database
	Errors
)

func (c Category) fileName() string {
	switch c {
	case DiscordEvents:
		return "discord_events.log"
	case Database:
		return "database.log"
	case Errors:
		return "error.log"
	default:
		return "application.log"
	}
}

// Options configures SetupLogger.
type Options struct {
	Dir        string
	Level      string
	Stdout     bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger holds one slog logger per category plus the rotating files behind
// them.
type Logger struct {
	loggers map[Category]*slog.Logger
	files   []*lumberjack.Logger
}

var (
	mu           sync.RWMutex
	globalLogger *Logger
)

// SetupLogger opens the rotating log files under opts.Dir and installs the
// category loggers. Calling it again replaces the previous set.
func SetupLogger(opts Options) error {
	if opts.Dir == "" {
		return errors.New("log dir is empty")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 10
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 5
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 28
	}

	level := ParseLevel(opts.Level)
	l := &Logger{loggers: make(map[Category]*slog.Logger, 4)}
	for _, c := range []Category{Application, DiscordEvents, Database, Errors} {
		file := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, c.fileName()),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		l.files = append(l.files, file)

		var w io.Writer = file
		if opts.Stdout {
			console := io.Writer(os.Stdout)
			if c == Errors {
				console = os.Stderr
			}
			w = io.MultiWriter(console, file)
		}
		l.loggers[c] = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	}

	if err := setupAudit(opts); err != nil {
		_ = l.Sync()
		return err
	}

	mu.Lock()
	prev := globalLogger
	globalLogger = l
	mu.Unlock()
	if prev != nil {
		_ = prev.Sync()
	}
	return nil
}

// GlobalLogger returns the installed logger, or nil before SetupLogger.
func GlobalLogger() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Sync closes the rotating files.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	var errs []error
	for _, f := range l.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Shutdown closes the global and audit loggers.
func Shutdown() error {
	mu.Lock()
	l := globalLogger
	globalLogger = nil
	mu.Unlock()
	return errors.Join(l.Sync(), closeAudit())
}

func category(c Category) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger != nil {
		if l, ok := globalLogger.loggers[c]; ok {
			return l
		}
	}
	return slog.Default()
}

func ApplicationLogger() *slog.Logger { return category(Application) }
func DiscordLogger() *slog.Logger     { return category(DiscordEvents) }
func DatabaseLogger() *slog.Logger    { return category(Database) }

// ErrorLoggerRaw is the logger behind error.log.
func ErrorLoggerRaw() *slog.Logger { return category(Errors) }

// ParseLevel maps a level name to slog. Unknown names fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
