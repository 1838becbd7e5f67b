package logging

import (
	"maps"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements Logger on top of go.uber.org/zap, for hosts that
// already run a zap pipeline.
type ZapLogger struct {
	logger *zap.Logger
	level  Level
	fields Fields
}

// NewZapLogger wraps an existing zap logger. A nil logger falls back to
// zap's production configuration.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &ZapLogger{
		logger: logger,
		level:  InfoLevel,
		fields: make(Fields),
	}
}

func (z *ZapLogger) log(level zapcore.Level, err error, msg string, fields ...Fields) {
	allFields := make(Fields)
	maps.Copy(allFields, z.fields)
	for _, f := range fields {
		maps.Copy(allFields, f)
	}

	zapFields := make([]zap.Field, 0, len(allFields)+1)
	for k, v := range allFields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}

	if ce := z.logger.Check(level, msg); ce != nil {
		ce.Write(zapFields...)
	}
}

func (z *ZapLogger) Debug(msg string, fields ...Fields) {
	if z.level > DebugLevel {
		return
	}
	z.log(zapcore.DebugLevel, nil, msg, fields...)
}

func (z *ZapLogger) Info(msg string, fields ...Fields) {
	if z.level > InfoLevel {
		return
	}
	z.log(zapcore.InfoLevel, nil, msg, fields...)
}

func (z *ZapLogger) Warn(msg string, fields ...Fields) {
	if z.level > WarnLevel {
		return
	}
	z.log(zapcore.WarnLevel, nil, msg, fields...)
}

func (z *ZapLogger) Error(err error, msg string, fields ...Fields) {
	z.log(zapcore.ErrorLevel, err, msg, fields...)
}

func (z *ZapLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields)
	maps.Copy(newFields, z.fields)
	maps.Copy(newFields, fields)

	return &ZapLogger{
		logger: z.logger,
		level:  z.level,
		fields: newFields,
	}
}

func (z *ZapLogger) SetLevel(level Level) {
	z.level = level
}
