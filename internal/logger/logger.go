package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
)

// Options controls where and how much the dashboard logs.
type Options struct {
	File   string
	Level  string
	Stdout bool
}

// Setup initializes Logrus with a rotating file and, optionally, stdout.
func Setup(opts Options) {
	if opts.File == "" {
		opts.File = "./logs/app.log"
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10, // megabytes
		MaxBackups: 7,
		MaxAge:     7, // days
		Compress:   true,
	}

	var out io.Writer = rotator
	if opts.Stdout {
		out = io.MultiWriter(rotator, os.Stdout)
	}

	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.SetLevel(ParseLevel(opts.Level))
}

// ParseLevel maps LOG_LEVEL to a logrus level, defaulting to info.
func ParseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}
