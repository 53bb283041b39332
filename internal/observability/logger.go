package observability

import (
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a JSON production logger at the given level ("debug",
// "info", "warn", "error"). Unknown levels fall back to info.
func NewLogger(level string, serviceName string) *zap.Logger {
	return zap.New(consoleCore(level),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service.name", serviceName)),
	)
}

// NewOTelLogger tees console output into the global OpenTelemetry logger
// provider. Call it after Setup.
func NewOTelLogger(level string, serviceName string) *zap.Logger {
	otelCore := otelzap.NewCore(serviceName, otelzap.WithLoggerProvider(global.GetLoggerProvider()))
	return zap.New(zapcore.NewTee(otelCore, consoleCore(level)),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service.name", serviceName)),
	)
}

func consoleCore(level string) zapcore.Core {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		lvl,
	)
}
