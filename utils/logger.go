package utils

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SetupLogger sets up a logger writing to the configured log file
func SetupLogger(cfg LogConfig) *logrus.Logger {
	return newLogger(cfg.Level, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
	})
}

func newLogger(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetReportCaller(true)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:    true,
		TimestampFormat:  time.RFC3339,
		DisableColors:    true,
		CallerPrettyfier: callerPrettyfier,
	})
	log.SetLevel(LogrusLevel(level))
	return log
}

// LogrusLevel maps the configured level name onto a logrus level.
// CRITICAL keeps only fatal records.
func LogrusLevel(level string) logrus.Level {
	switch parseLogLevel(level) {
	case "DEBUG":
		return logrus.DebugLevel
	case "INFO":
		return logrus.InfoLevel
	case "WARNING":
		return logrus.WarnLevel
	case "CRITICAL":
		return logrus.FatalLevel
	default:
		return logrus.ErrorLevel
	}
}

func callerPrettyfier(f *runtime.Frame) (string, string) {
	return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}
