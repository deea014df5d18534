// Package log configures the process wide logrus logger. Diagnostics only:
// anything the user asked for is printed by the output package instead.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

func init() {
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(logrus.WarnLevel)
	logrus.SetFormatter(textFormatter())
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
}

// Init points the standard logger at w and raises the level to debug when
// verbose is set.
func Init(verbose bool, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logger := logrus.StandardLogger()
	logger.SetOutput(w)
	logger.SetFormatter(textFormatter())
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return logrus.StandardLogger().WithField("component", name)
}
