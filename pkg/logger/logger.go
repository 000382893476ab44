package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "expense-bot"

var (
	globalLogger *zap.Logger
	once         sync.Once
)

// Init builds the process logger once; later calls are no-ops.
func Init(level string) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(level)
	})
	return err
}

// Get returns the process logger, initializing it from LOG_LEVEL if needed.
func Get() *zap.Logger {
	if globalLogger == nil {
		level := os.Getenv("LOG_LEVEL")
		if level == "" {
			level = "info"
		}
		if err := Init(level); err != nil || globalLogger == nil {
			return zap.NewNop()
		}
	}
	return globalLogger
}

// Sync flushes any buffered log entries
func Sync() {
	if globalLogger != nil {
		_ = globalLogger.Sync()
	}
}

// New builds a JSON production logger. Unknown levels fall back to info.
func New(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.CallerKey = "caller"
	config.InitialFields = map[string]interface{}{"service": serviceName}

	return config.Build()
}
