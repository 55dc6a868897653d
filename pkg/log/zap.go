// This is a wrapper for the zap framework
// no SugerLogger, Only Logger
// example:
//
//	Log().Warn("probe anomaly", zap.Int("port", 22))
package log

import (
	"sync"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	defaultLogFileName = "./logs/portprobe.log"

	defaultLevel = zapcore.WarnLevel

	log *zap.Logger

	logOnce sync.Once
)

// SetLogFile changes the anomaly log path. It has no effect once Log has
// been called.
func SetLogFile(filename string) {
	if filename != "" {
		defaultLogFileName = filename
	}
}

// singleton pattern
func Log() *zap.Logger {
	logOnce.Do(func() {
		log = New(getLogWriter(defaultLogFileName))
	})
	return log
}

// New builds a logger writing console-encoded lines to w.
func New(w zapcore.WriteSyncer) *zap.Logger {
	core := zapcore.NewCore(getEncoder(), w, defaultLevel)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(0))
}

func Error(msg string, fields ...zap.Field) {
	Log().Error(msg, fields...)
}

func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.LineEnding = zapcore.DefaultLineEnding
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.EncodeTime = timeEncoder
	encoderConfig.EncodeDuration = zapcore.SecondsDurationEncoder
	encoderConfig.EncodeName = zapcore.FullNameEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05"))
}

func getLogWriter(filename string) zapcore.WriteSyncer {
	lumberJackLogger := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    60,
		MaxBackups: 6,
		MaxAge:     60,
		Compress:   false,
	}
	return zapcore.AddSync(lumberJackLogger)
}
