package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the global logger instance.
var Log = logrus.New()

// Init configures the global logger from the application environment.
func Init(environment, level string) {
	Log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		Log.Warnf("Invalid log level %q, defaulting to info", level)
		parsed = logrus.InfoLevel
	}
	Log.SetLevel(parsed)

	if environment == "production" || environment == "staging" {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}
