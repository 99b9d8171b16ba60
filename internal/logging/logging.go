// Package logging provides structured logging for taskboard.
// It wraps zerolog with workspace, task and command context fields and
// rotates log files via lumberjack.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents a log level.
type Level = zerolog.Level

// Log levels for convenience.
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level Level

	// JSON selects JSON output on the console; files are always JSON
	JSON bool

	// FilePath is the path to the log file (empty for console only)
	FilePath string

	// MaxSize is the maximum size in megabytes before rotation
	MaxSize int

	// MaxBackups is the maximum number of old log files to retain
	MaxBackups int

	// MaxAge is the maximum number of days to retain old log files
	MaxAge int

	// Compress enables gzip compression of rotated files
	Compress bool

	// Console enables stderr output in addition to file output
	Console bool

	// Quiet drops console output entirely. The TUI sets this so log lines
	// do not tear the alternate screen.
	Quiet bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:      InfoLevel,
		JSON:       true,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     7,
		Compress:   true,
	}
}

// Logger wraps zerolog.Logger with taskboard context fields.
type Logger struct {
	zl          zerolog.Logger
	workspaceID string
	taskID      string
	command     string
}

var (
	globalLogger *Logger
	loggerOnce   sync.Once
	loggerMu     sync.RWMutex
)

// Init initializes the global logger with the given configuration.
// If cfg is nil, defaults are used.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var writers []io.Writer

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	if !cfg.Quiet && (cfg.Console || cfg.FilePath == "") {
		if cfg.JSON {
			writers = append(writers, os.Stderr)
		} else {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: time.RFC3339,
			})
		}
	}

	var output io.Writer
	switch len(writers) {
	case 0:
		output = io.Discard
	case 1:
		output = writers[0]
	default:
		output = zerolog.MultiLevelWriter(writers...)
	}

	loggerMu.Lock()
	globalLogger = New(output, cfg.Level)
	loggerMu.Unlock()

	return nil
}

// Get returns the global logger, initializing with defaults if needed.
func Get() *Logger {
	loggerOnce.Do(func() {
		loggerMu.RLock()
		ready := globalLogger != nil
		loggerMu.RUnlock()
		if !ready {
			_ = Init(nil)
		}
	})

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return globalLogger
}

// New creates a logger writing JSON to w. It does not touch the global logger.
func New(w io.Writer, level Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) derive(zl zerolog.Logger) *Logger {
	return &Logger{
		zl:          zl,
		workspaceID: l.workspaceID,
		taskID:      l.taskID,
		command:     l.command,
	}
}

// WithWorkspace returns a new logger with the workspace_id field set.
func (l *Logger) WithWorkspace(workspaceID string) *Logger {
	out := l.derive(l.zl.With().Str("workspace_id", workspaceID).Logger())
	out.workspaceID = workspaceID
	return out
}

// WithTask returns a new logger with the task_id field set.
func (l *Logger) WithTask(taskID string) *Logger {
	out := l.derive(l.zl.With().Str("task_id", taskID).Logger())
	out.taskID = taskID
	return out
}

// WithCommand returns a new logger with the command field set.
func (l *Logger) WithCommand(command string) *Logger {
	out := l.derive(l.zl.With().Str("command", command).Logger())
	out.command = command
	return out
}

// WithField returns a new logger with an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.derive(l.zl.With().Interface(key, value).Logger())
}

// WithFields returns a new logger with additional fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zl.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return l.derive(ctx.Logger())
}

// WithError returns a new logger with the error field set.
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zl.With().Err(err).Logger())
}

// Zerolog exposes the underlying zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zl.Error().Msgf(format, args...) }

// Event returns a zerolog Event for advanced logging scenarios.
func (l *Logger) Event(level Level) *zerolog.Event {
	return l.zl.WithLevel(level)
}

// ParseLevel parses a level string into a Level.
func ParseLevel(level string) (Level, error) {
	return zerolog.ParseLevel(level)
}

// Global convenience wrappers.

func Debug(msg string) { Get().Debug(msg) }
func Info(msg string)  { Get().Info(msg) }
func Warn(msg string)  { Get().Warn(msg) }
func Error(msg string) { Get().Error(msg) }

func Infof(format string, args ...interface{})  { Get().Infof(format, args...) }
func Errorf(format string, args ...interface{}) { Get().Errorf(format, args...) }

// WithWorkspace returns the global logger with workspace_id set.
func WithWorkspace(workspaceID string) *Logger { return Get().WithWorkspace(workspaceID) }

// WithTask returns the global logger with task_id set.
func WithTask(taskID string) *Logger { return Get().WithTask(taskID) }

// WithCommand returns the global logger with command set.
func WithCommand(command string) *Logger { return Get().WithCommand(command) }

// WithField returns the global logger with an additional field.
func WithField(key string, value interface{}) *Logger { return Get().WithField(key, value) }

// WithError returns the global logger with the error set.
func WithError(err error) *Logger { return Get().WithError(err) }

// LoggingConfig mirrors the logging section of the config file.
type LoggingConfig struct {
	Level      string
	FilePath   string
	JSON       bool
	Console    bool
	Quiet      bool
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// InitFromLogConfig initializes the global logger from a LoggingConfig.
func InitFromLogConfig(lc LoggingConfig) error {
	cfg := DefaultConfig()

	if lc.Level != "" {
		level, err := ParseLevel(lc.Level)
		if err != nil {
			return err
		}
		cfg.Level = level
	}

	cfg.FilePath = lc.FilePath
	cfg.JSON = lc.JSON
	cfg.Console = lc.Console
	cfg.Quiet = lc.Quiet
	cfg.Compress = lc.Compress

	if lc.MaxSize > 0 {
		cfg.MaxSize = lc.MaxSize
	}
	if lc.MaxBackups > 0 {
		cfg.MaxBackups = lc.MaxBackups
	}
	if lc.MaxAge > 0 {
		cfg.MaxAge = lc.MaxAge
	}

	return Init(cfg)
}
