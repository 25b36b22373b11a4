package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type jsonLogger struct {
	entry *logrus.Entry
}

// NewWithOptions builds a JSON logger writing to out at the given level.
// Unknown levels fall back to info.
func NewWithOptions(service, level string, out io.Writer) Logger {
	hostname, _ := os.Hostname()

	base := logrus.New()
	base.SetOutput(out)
	base.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000000000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	return &jsonLogger{
		entry: base.WithFields(logrus.Fields{
			"service":  service,
			"hostname": hostname,
		}),
	}
}

func (l *jsonLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.with(action, requestID, details, nil).Info(message)
}

func (l *jsonLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.with(action, requestID, details, nil).Debug(message)
}

func (l *jsonLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.with(action, requestID, details, err).Error(message)
}

func (l *jsonLogger) with(action, requestID string, details map[string]interface{}, err error) *logrus.Entry {
	fields := logrus.Fields{
		"action":     action,
		"request_id": requestID,
	}
	if len(details) > 0 {
		fields["details"] = details
	}
	if err != nil {
		fields["error"] = ErrorInfo{Msg: err.Error(), Stack: err.Error()}
	}
	return l.entry.WithFields(fields)
}

type nopLogger struct{}

// NewNop returns a logger that discards everything
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Info(string, string, string, map[string]interface{})         {}
func (nopLogger) Debug(string, string, string, map[string]interface{})        {}
func (nopLogger) Error(string, string, string, map[string]interface{}, error) {}
