package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/phsym/console-slog"
)

// SlogLogger is a Logger backed by log/slog.
//
// When the ENV environment variable is "development" it renders
// human-readable console output; otherwise it emits JSON records with a
// "ts" timestamp key.
type SlogLogger struct {
	mu        sync.Mutex
	logger    *slog.Logger
	level     *slog.LevelVar
	output    io.Writer
	addSource bool
}

// NewSlog creates a Logger backed by log/slog writing to stdout.
// addSource controls whether log records carry the caller's file and line
// (always on in development mode).
func NewSlog(level Level, addSource bool) Logger {
	return newSlog(level, addSource)
}

func newSlog(level Level, addSource bool) *SlogLogger {
	inst := &SlogLogger{
		output:    os.Stdout,
		addSource: addSource,
	}

	inst.level = &slog.LevelVar{}
	inst.level.Set(toSlogLevel(level))

	inst.logger = slog.New(inst.buildHandler())

	return inst
}

func (l *SlogLogger) buildHandler() slog.Handler {
	if os.Getenv("ENV") == "development" {
		opts := &console.HandlerOptions{
			AddSource: true,
			Level:     l.level,
		}
		return console.NewHandler(l.output, opts)
	}

	opts := &slog.HandlerOptions{
		AddSource: l.addSource,
		Level:     l.level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}

	return slog.NewJSONHandler(l.output, opts)
}

func (l *SlogLogger) Debug(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, keysAndValues...)
}

func (l *SlogLogger) Info(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, keysAndValues...)
}

func (l *SlogLogger) Warn(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, keysAndValues...)
}

func (l *SlogLogger) Error(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelError, msg, keysAndValues...)
}

func (l *SlogLogger) Fatal(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelError, msg, keysAndValues...)
	os.Exit(1)
}

func (l *SlogLogger) With(keyValues ...any) Logger {
	return &SlogLogger{
		logger:    l.logger.With(keyValues...),
		level:     l.level,
		output:    l.output,
		addSource: l.addSource,
	}
}

func (l *SlogLogger) Level() Level {
	switch l.level.Level() {
	case slog.LevelDebug:
		return DebugLevel
	case slog.LevelInfo:
		return InfoLevel
	case slog.LevelWarn:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

func (l *SlogLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.level.Set(toSlogLevel(level))
}

// SetOutput redirects subsequent records to output. Context accumulated via
// With is not carried over; redirect before deriving child loggers.
func (l *SlogLogger) SetOutput(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.output = output
	l.logger = slog.New(l.buildHandler())
}

// log is the low-level logging method for methods that take ...any.
// It must always be called directly by an exported logging method
// or function, because it uses a fixed call depth to obtain the pc.
func (l *SlogLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	// skip [runtime.Callers, this function, this function's caller]
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
