// Package log provides the logging functionality for switchd.
package log

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Logger *switchdLogger
var nopLogger = zap.NewNop().Sugar()

func init() {
	Logger = CreateLoggerWithConfig(DefaultLoggerConfig())
}

func DefaultLoggerConfig() *zap.Config {
	c := zap.NewProductionConfig()
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return &c
}

func CreateLoggerWithLumberjack(logFile string, maxSize int, logLevel zapcore.Level) *switchdLogger {
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSize, // megabytes
		MaxBackups: 5,
		MaxAge:     3, // days
		Compress:   true,
	})

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		w,
		logLevel,
	)
	return newSwitchdLogger(zap.New(core).Sugar())
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

func CreateLogger(logLevel zap.AtomicLevel, logFile string) *switchdLogger {
	if logFile != "" {
		return CreateLoggerWithLumberjack(logFile, 128, logLevel.Level())
	}

	lCfg := DefaultLoggerConfig()
	lCfg.Level = logLevel
	return CreateLoggerWithConfig(lCfg)
}

func CreateLoggerWithConfig(config *zap.Config) *switchdLogger {
	if config == nil {
		config = DefaultLoggerConfig()
	}

	l, err := config.Build()
	if err != nil {
		panic(err)
	}

	return newSwitchdLogger(l.Sugar())
}

type switchdLogger struct {
	logger atomic.Pointer[zap.SugaredLogger]
}

func newSwitchdLogger(logger *zap.SugaredLogger) *switchdLogger {
	l := &switchdLogger{}
	l.set(logger)
	return l
}

func (l *switchdLogger) get() *zap.SugaredLogger {
	if l == nil {
		return nopLogger
	}
	logger := l.logger.Load()
	if logger == nil {
		return nopLogger
	}
	return logger
}

func (l *switchdLogger) set(logger *zap.SugaredLogger) {
	if logger == nil {
		logger = nopLogger
	}
	l.logger.Store(logger)
}

func SetLogger(logger *switchdLogger) {
	if logger == nil {
		Logger.set(nil)
		return
	}
	Logger.set(logger.get())
}

func (l *switchdLogger) Debug(args ...interface{}) {
	l.get().Debug(args...)
}

func (l *switchdLogger) Debugf(template string, args ...interface{}) {
	l.get().Debugf(template, args...)
}

func (l *switchdLogger) Debugw(msg string, keysAndValues ...interface{}) {
	l.get().Debugw(msg, keysAndValues...)
}

func (l *switchdLogger) Info(args ...interface{}) {
	l.get().Info(args...)
}

func (l *switchdLogger) Infof(template string, args ...interface{}) {
	l.get().Infof(template, args...)
}

func (l *switchdLogger) Infow(msg string, keysAndValues ...interface{}) {
	l.get().Infow(msg, keysAndValues...)
}

func (l *switchdLogger) Warn(args ...interface{}) {
	l.get().Warn(args...)
}

func (l *switchdLogger) Warnf(template string, args ...interface{}) {
	l.get().Warnf(template, args...)
}

func (l *switchdLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.get().Warnw(msg, keysAndValues...)
}

func (l *switchdLogger) Error(args ...interface{}) {
	l.get().Error(args...)
}

func (l *switchdLogger) Errorf(template string, args ...interface{}) {
	l.get().Errorf(template, args...)
}

func (l *switchdLogger) Errorw(msg string, keysAndValues ...interface{}) {
	l.get().Errorw(msg, keysAndValues...)
}

func (l *switchdLogger) Fatal(args ...interface{}) {
	l.get().Fatal(args...)
}

func (l *switchdLogger) With(args ...interface{}) *zap.SugaredLogger {
	return l.get().With(args...)
}

func (l *switchdLogger) Desugar() *zap.Logger {
	return l.get().Desugar()
}
