package logger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a line of log.
type Level uint8

const (
	levelUnknown Level = iota

	// ErrorLevel logs the failures: a fixture that could not be provisioned,
	// an upload that aborted.
	ErrorLevel

	// WarnLevel logs non fatal surprises, like a resource that already
	// existed on the repository.
	WarnLevel

	// InfoLevel logs the main steps of a run.
	InfoLevel

	// DebugLevel logs every remote request and every polling attempt.
	DebugLevel
)

// ErrInvalidLevel is returned for a name that is not one of the levels.
var ErrInvalidLevel = errors.New("not a valid logging Level")

var levels = []struct {
	level   Level
	name    string
	aliases []string
	logrus  logrus.Level
}{
	{ErrorLevel, "error", nil, logrus.ErrorLevel},
	{WarnLevel, "warning", []string{"warn"}, logrus.WarnLevel},
	{InfoLevel, "info", nil, logrus.InfoLevel},
	{DebugLevel, "debug", nil, logrus.DebugLevel},
}

func (level Level) String() string {
	if b, err := level.MarshalText(); err == nil {
		return string(b)
	}
	return "unknown"
}

// ParseLevel accepts the level names in any case, and "warn" for warning.
func ParseLevel(lvl string) (Level, error) {
	name := strings.ToLower(lvl)
	for _, l := range levels {
		if l.name == name {
			return l.level, nil
		}
		for _, alias := range l.aliases {
			if alias == name {
				return l.level, nil
			}
		}
	}
	return levelUnknown, fmt.Errorf("%q: %w", lvl, ErrInvalidLevel)
}

func (level *Level) UnmarshalText(text []byte) error {
	l, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*level = l
	return nil
}

func (level Level) MarshalText() ([]byte, error) {
	for _, l := range levels {
		if l.level == level {
			return []byte(l.name), nil
		}
	}
	return nil, fmt.Errorf("not a valid logging level %d", level)
}

// logrusLevel maps the level to logrus, an unknown level being an error.
func (level Level) logrusLevel() logrus.Level {
	for _, l := range levels {
		if l.level == level {
			return l.logrus
		}
	}
	return logrus.ErrorLevel
}
