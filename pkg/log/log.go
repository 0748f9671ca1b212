// Package log provides the logging functionality for veind.
package log

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger *veindLogger
var nopLogger = zap.NewNop().Sugar()

func init() {
	Logger = CreateLoggerWithConfig(DefaultLoggerConfig())
}

func DefaultLoggerConfig() *zap.Config {
	c := zap.NewProductionConfig()
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return &c
}

func CreateLoggerWithLumberjack(logFile string, maxSize int, logLevel zapcore.Level) *veindLogger {
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSize, // megabytes
		MaxBackups: 5,
		MaxAge:     3,    // days
		Compress:   true, // compress the rotated files
	})

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		w,
		logLevel,
	)
	logger := zap.New(core)
	return newVeindLogger(logger.Sugar())
}

func ParseLogLevel(logLevel string) (zap.AtomicLevel, error) {
	zapLvl := zap.NewAtomicLevel() // info level by default
	if logLevel != "" && logLevel != "info" {
		var err error
		zapLvl, err = zap.ParseAtomicLevel(logLevel)
		if err != nil {
			return zap.AtomicLevel{}, err
		}
	}
	return zapLvl, nil
}

func CreateLogger(logLevel zap.AtomicLevel, logFile string) *veindLogger {
	if logFile != "" {
		return CreateLoggerWithLumberjack(logFile, 128, logLevel.Level())
	}

	lCfg := DefaultLoggerConfig()
	lCfg.Level = logLevel
	return CreateLoggerWithConfig(lCfg)
}

func CreateLoggerWithConfig(config *zap.Config) *veindLogger {
	if config == nil {
		config = DefaultLoggerConfig()
	}

	l, err := config.Build()
	if err != nil {
		panic(err)
	}

	return newVeindLogger(l.Sugar())
}

type veindLogger struct {
	logger atomic.Pointer[zap.SugaredLogger]
}

func newVeindLogger(logger *zap.SugaredLogger) *veindLogger {
	l := &veindLogger{}
	l.set(logger)
	return l
}

func (l *veindLogger) get() *zap.SugaredLogger {
	if l == nil {
		return nopLogger
	}
	logger := l.logger.Load()
	if logger == nil {
		return nopLogger
	}
	return logger
}

func (l *veindLogger) set(logger *zap.SugaredLogger) {
	if logger == nil {
		logger = nopLogger
	}
	l.logger.Store(logger)
}

func SetLogger(logger *veindLogger) {
	if logger == nil {
		Logger.set(nil)
		return
	}
	Logger.set(logger.get())
}

func (l *veindLogger) Debug(args ...interface{}) {
	l.get().Debug(args...)
}

func (l *veindLogger) Debugf(template string, args ...interface{}) {
	l.get().Debugf(template, args...)
}

func (l *veindLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.get().Debugw(msg, keysAndValues...)
}

func (l *veindLogger) Info(args ...interface{}) {
	l.get().Info(args...)
}

func (l *veindLogger) Infof(template string, args ...interface{}) {
	l.get().Infof(template, args...)
}

func (l *veindLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.get().Infow(msg, keysAndValues...)
}

func (l *veindLogger) Warn(args ...interface{}) {
	l.get().Warn(args...)
}

func (l *veindLogger) Warnf(template string, args ...interface{}) {
	l.get().Warnf(template, args...)
}

func (l *veindLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.get().Warnw(msg, keysAndValues...)
}

func (l *veindLogger) Error(args ...interface{}) {
	l.get().Error(args...)
}

func (l *veindLogger) Errorf(template string, args ...interface{}) {
	l.get().Errorf(template, args...)
}

func (l *veindLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.get().Errorw(msg, keysAndValues...)
}

func (l *veindLogger) Fatal(args ...interface{}) {
	l.get().Fatal(args...)
}

func (l *veindLogger) Fatalf(template string, args ...interface{}) {
	l.get().Fatalf(template, args...)
}

func (l *veindLogger) With(args ...interface{}) *zap.SugaredLogger {
	return l.get().With(args...)
}

func (l *veindLogger) Desugar() *zap.Logger {
	return l.get().Desugar()
}
