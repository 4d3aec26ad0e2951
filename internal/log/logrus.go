package log

import (
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var logger *logrusLogger

func init() {
	base := logrus.New()
	base.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   false,
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	logger = &logrusLogger{entry: logrus.NewEntry(base)}
}

// GetLogger returns the package-level Logger. Configure replaces its
// backing entry; call sites obtained before Configure keep logging
// through whatever entry was current when they called GetLogger, since
// loggers are handed out by value wrapping a *logrus.Entry, not a
// pointer to the package-level variable.
func GetLogger() Logger {
	return logger
}

// Configure rebuilds the package-level logger's output and level,
// grounded on otus-packet/pkg/log's single package-level logrusLogger but
// generalized to take explicit settings instead of hardcoding them at
// init time. cmd/root.go's configureLogging calls it with the --log-level
// flag's level and stdout; internal/config.LoggerConfig is not read here.
func Configure(level logrus.Level, out Writer, prefixed bool) {
	base := logrus.New()
	base.SetLevel(level)
	base.SetOutput(out)
	if prefixed {
		base.SetFormatter(&prefixedFormatter)
	} else {
		base.SetFormatter(&logrus.JSONFormatter{})
	}
	logger = &logrusLogger{entry: logrus.NewEntry(base)}
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l *logrusLogger) Print(args ...interface{})                 { l.entry.Print(args...) }
func (l *logrusLogger) Printf(format string, args ...interface{}) { l.entry.Printf(format, args...) }

func (l *logrusLogger) Trace(args ...interface{})                 { l.entry.Trace(args...) }
func (l *logrusLogger) Tracef(format string, args ...interface{}) { l.entry.Tracef(format, args...) }

func (l *logrusLogger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *logrusLogger) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l *logrusLogger) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *logrusLogger) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *logrusLogger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusLogger) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *logrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusLogger) Panic(args ...interface{})                 { l.entry.Panic(args...) }
func (l *logrusLogger) Panicf(format string, args ...interface{}) { l.entry.Panicf(format, args...) }

func (l *logrusLogger) WithField(field string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(field, value)}
}

func (l *logrusLogger) WithFields(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logrusLogger) WithError(err error) Logger {
	return &logrusLogger{entry: l.entry.WithError(err)}
}

func (l *logrusLogger) IsTraceEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.TraceLevel)
}

func (l *logrusLogger) IsDebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}

func (l *logrusLogger) IsInfoEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.InfoLevel)
}

var prefixedFormatter = prefixed.TextFormatter{FullTimestamp: true}
