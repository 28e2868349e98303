// Package logging sets up the run-level logger and adapts it to the Printf-style Logger
// interface used by the test framework.
package logging

import (
	"io"
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Setup returns a console logger writing to out at the given level, and a function that
// flushes it. A nil out means standard error.
func Setup(out io.Writer, level zapcore.Level) (*zap.Logger, func()) {
	if out == nil {
		out = os.Stderr
	}
	zapConfig := zap.NewDevelopmentEncoderConfig()
	zapConfig.TimeKey = "timestamp"
	zapConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.LevelKey = "level"
	zapConfig.NameKey = "name"
	zapConfig.MessageKey = "msg"
	zapConfig.CallerKey = ""
	zapConfig.StacktraceKey = "stacktrace"
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(zapConfig), zapcore.AddSync(out), level)
	logger := zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))

	flusher := func() {
		if err := logger.Sync(); err != nil {
			log.Println("error during flushing any buffered log entries:", err)
		}
	}
	return logger, flusher
}

// PrintfLogger logs formatted messages at debug level through a zap logger.
type PrintfLogger struct {
	sugar *zap.SugaredLogger
}

// NewPrintfLogger wraps a zap logger so it can be passed where a Printf-style logger is
// expected. A nil logger discards everything.
func NewPrintfLogger(logger *zap.Logger) *PrintfLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrintfLogger{sugar: logger.Sugar()}
}

func (p *PrintfLogger) Printf(message string, args ...interface{}) {
	p.sugar.Debugf(message, args...)
}

// Named returns a logger whose messages are tagged with the given name.
func (p *PrintfLogger) Named(name string) *PrintfLogger {
	return &PrintfLogger{sugar: p.sugar.Named(name)}
}

