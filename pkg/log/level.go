package log

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is the logging level type.
type Level uint32

const (
	// ErrorLevel level. Used for errors that should definitely be noted.
	ErrorLevel Level = iota
	// WarnLevel level. Non-critical entries that deserve eyes.
	WarnLevel
	// InfoLevel level. General operational entries about what's going on inside the application.
	InfoLevel
	// DebugLevel level. Usually only enabled when debugging. Very verbose logging.
	DebugLevel
	// TraceLevel level. Designates finer-grained informational events than Debug.
	TraceLevel
)

var levelNames = map[Level]string{
	ErrorLevel: "error",
	WarnLevel:  "warn",
	InfoLevel:  "info",
	DebugLevel: "debug",
	TraceLevel: "trace",
}

var levelToLogrus = map[Level]logrus.Level{
	ErrorLevel: logrus.ErrorLevel,
	WarnLevel:  logrus.WarnLevel,
	InfoLevel:  logrus.InfoLevel,
	DebugLevel: logrus.DebugLevel,
	TraceLevel: logrus.TraceLevel,
}

// ParseLevel parses the given string as a log level name.
func ParseLevel(str string) (Level, error) {
	for level, name := range levelNames {
		if name == strings.ToLower(str) {
			return level, nil
		}
	}

	return InfoLevel, fmt.Errorf("invalid log level %q, supported levels: error, warn, info, debug, trace", str)
}

// String implements fmt.Stringer.
func (level Level) String() string {
	return levelNames[level]
}

// ToLogrusLevel converts the level to the underlying logrus level.
func (level Level) ToLogrusLevel() logrus.Level {
	return levelToLogrus[level]
}
