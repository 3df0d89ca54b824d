package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger - 프로세스 전역 로거 (Init 전에는 no-op)
var Logger = zap.NewNop()

// Init - 로거 초기화
// environment "development" switches to the human-readable console encoder.
// An unknown level falls back to info.
func Init(level, environment string) {
	var config zap.Config
	if environment == "development" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.StacktraceKey = ""

	l, err := config.Build()
	if err != nil {
		panic(err)
	}
	Logger = l.With(zap.String("service", "planets-api"))
}

// ParseLevel parses a level name, defaulting to info
func ParseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// Sync - 로거 플러시
func Sync() {
	_ = Logger.Sync()
}
