package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wonny/gainerscout/pkg/config"
)

// Logger is a structured logger wrapper around zerolog
// ⭐ SSOT: 모든 로깅은 이 패키지를 통해서만 수행
type Logger struct {
	zlog zerolog.Logger
	file *os.File // only set on the root logger returned by New
}

// New builds the process logger: stdout in LOG_FORMAT, plus LOG_FILE as
// JSON lines when set. The file is truncated on open, one file per process.
// ⭐ SSOT: zerolog 인스턴스는 여기서만 생성
func New(cfg *config.Config) *Logger {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))

	var out io.Writer = os.Stdout
	switch strings.ToLower(cfg.LogFormat) {
	case "console", "pretty":
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	file, fileErr := openLogFile(cfg.LogFile)
	if file != nil {
		out = zerolog.MultiLevelWriter(out, file)
	}

	l := &Logger{
		zlog: zerolog.New(out).With().Timestamp().Str("env", cfg.Env).Logger(),
		file: file,
	}
	if fileErr != nil {
		// 파일 로그 실패는 stdout 로그만으로 계속
		l.WithError(fileErr).Warn("Log file unavailable")
	}
	return l
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

// NewWriter creates a logger that writes JSON lines to w
func NewWriter(w io.Writer) *Logger {
	return &Logger{zlog: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Close releases the log file; safe on derived and Nop loggers
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// parseLogLevel maps LOG_LEVEL to a zerolog level; unknown or empty is info
func parseLogLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func (l *Logger) derive(ctx zerolog.Context) *Logger {
	return &Logger{zlog: ctx.Logger()}
}

// WithField returns a child logger carrying key
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.derive(l.zlog.With().Interface(key, value))
}

// WithFields returns a child logger carrying every entry of fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.derive(l.zlog.With().Fields(fields))
}

// WithError returns a child logger with an "error" field
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.zlog.With().Err(err))
}

func (l *Logger) Debug(msg string) { l.zlog.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zlog.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zlog.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zlog.Error().Msg(msg) }

// Fatal logs at fatal level and exits the process
func (l *Logger) Fatal(msg string) { l.zlog.Fatal().Msg(msg) }

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}
