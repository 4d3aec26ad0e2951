// Package log wraps logrus behind a narrow interface, grounded on
// otus-packet/pkg/log, so call sites depend on a small set of leveled
// methods rather than the concrete logging library.
package log

import (
	"fmt"
	"strings"
)

// Logger is the leveled logging surface every package in this module
// depends on.
type Logger interface {
	Print(args ...interface{})
	Printf(format string, args ...interface{})

	Trace(args ...interface{})
	Tracef(format string, args ...interface{})

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})

	Info(args ...interface{})
	Infof(format string, args ...interface{})

	Warn(args ...interface{})
	Warnf(format string, args ...interface{})

	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})

	Panic(args ...interface{})
	Panicf(format string, args ...interface{})

	WithField(field string, value interface{}) Logger
	WithFields(fields Fields) Logger
	WithError(err error) Logger

	IsTraceEnabled() bool
	IsDebugEnabled() bool
	IsInfoEnabled() bool
}

// Fields is a structured set of key/value pairs attached to a log line.
type Fields map[string]interface{}

func (f Fields) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, fmt.Sprintf("%s=%+v", k, v))
	}
	return strings.Join(parts, " ")
}

// WithFields merges newFields over f, newFields winning on key conflicts.
func (f Fields) WithFields(newFields Fields) Fields {
	merged := make(Fields, len(f)+len(newFields))
	for k, v := range f {
		merged[k] = v
	}
	for k, v := range newFields {
		merged[k] = v
	}
	return merged
}
