// Package targetlog provides the structured logger used across pkg/target
// and the cmd/* front-ends, grounded on BertoldVdb-go-misc/logrusconfig's
// prefixed-formatter setup.
package targetlog

import (
	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
)

var level = logrus.InfoLevel

// SetLevel sets the level used by every Logger created afterward via New.
// It does not affect Loggers already constructed.
func SetLevel(l logrus.Level) { level = l }

// ParseLevel resolves a --log-level flag value ("debug", "info", "warn",
// "error", ...) to a logrus.Level, defaulting to InfoLevel for an empty
// string.
func ParseLevel(name string) (logrus.Level, error) {
	if name == "" {
		return logrus.InfoLevel, nil
	}
	return logrus.ParseLevel(name)
}

// New returns a *logrus.Entry tagged with component, formatted with the
// same prefixed, full-timestamp layout the teacher's logging helper uses.
func New(component string) *logrus.Entry {
	logrus.ErrorKey = "$error"
	logger := logrus.New()
	logger.SetLevel(level)

	formatter := new(prefixed.TextFormatter)
	formatter.TimestampFormat = "2006-01-02 15:04:05"
	formatter.FullTimestamp = true
	formatter.PrefixPadding = 20
	formatter.SpacePadding = 50
	logger.SetFormatter(formatter)

	return logger.WithField("component", component)
}
