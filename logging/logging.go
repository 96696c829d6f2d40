// Package logging provides the structured logger used across the
// assisted manipulation controller. It is a trimmed adaptation of
// go.viam.com/rdk/logging: a small Logger interface backed by zap,
// without the net-appender/remote-log-config machinery that package
// carries for viam-server (this module has no server to report to).
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the structured, leveled logger every component in this
// module is constructed with. Nothing in mppi or forecast reaches for
// a package-level global; a Logger is always passed in explicitly.
type Logger interface {
	Name() string
	Sublogger(name string) Logger

	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	Sync() error
}

type impl struct {
	name string
	zap  *zap.SugaredLogger
}

func (l *impl) Name() string { return l.name }

func (l *impl) Sublogger(name string) Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &impl{name: full, zap: l.zap.Named(name)}
}

func (l *impl) Debugw(msg string, kv ...interface{}) { l.zap.Debugw(msg, kv...) }
func (l *impl) Infow(msg string, kv ...interface{})  { l.zap.Infow(msg, kv...) }
func (l *impl) Warnw(msg string, kv ...interface{})  { l.zap.Warnw(msg, kv...) }
func (l *impl) Errorw(msg string, kv ...interface{}) { l.zap.Errorw(msg, kv...) }

func (l *impl) Sync() error { return l.zap.Sync() }

// config returns the base zap config, styled on
// go.viam.com/rdk/logging.NewLoggerConfig: console encoding, colored
// levels, no stack traces for normal operation.
func config() zap.Config {
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a logger that emits Info+ to stdout.
func NewLogger(name string) Logger {
	cfg := config()
	z := zap.Must(cfg.Build()).Sugar().Named(name)
	return &impl{name: name, zap: z}
}

// NewDebugLogger returns a logger that emits Debug+ to stdout.
func NewDebugLogger(name string) Logger {
	cfg := config()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	z := zap.Must(cfg.Build()).Sugar().Named(name)
	return &impl{name: name, zap: z}
}

// NewTestLogger returns a Debug+ logger that writes through testing.TB's
// Log method, so output is associated with the running test and only
// surfaces on failure or with `go test -v` (matching
// go.viam.com/rdk/logging.NewTestLogger's NewTestAppender, which does the
// same through its own zapcore.Core wrapping tb.Log).
func NewTestLogger(tb testing.TB) Logger {
	z := zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel)).Sugar()
	tb.Cleanup(func() { _ = z.Sync() })
	return &impl{name: "", zap: z}
}
