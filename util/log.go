package util

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Severity is a syslog-style severity label for audit messages
type Severity string

// Audit severities
const (
	INFO   Severity = "INFO"
	NOTICE Severity = "NOTICE"
	WARN   Severity = "WARN"
	ERROR  Severity = "ERROR"
)

var logger = logrus.New()

// Logger exposes the underlying structured logger, e.g. to adjust
// its level or output in main
func Logger() *logrus.Logger {
	return logger
}

// LogContext carries app and session identity for every log entry
type LogContext interface {
	AppName() string
	SessionID() string
	LogRootDir() string
}

// BasicLogContext is a minimal LogContext with a lazily created session ID
type BasicLogContext struct {
	sessionID string
}

// AppName returns the application name
func (c *BasicLogContext) AppName() string {
	return "biomass-broker"
}

// SessionID returns a Session ID, creating one if needed
func (c *BasicLogContext) SessionID() string {
	if c.sessionID == "" {
		c.sessionID, _ = PsuUUID()
	}
	return c.sessionID
}

// LogRootDir returns an empty string
func (c *BasicLogContext) LogRootDir() string {
	return ""
}

func contextFields(context LogContext) logrus.Fields {
	return logrus.Fields{
		"app":     context.AppName(),
		"session": context.SessionID(),
	}
}

// LogInfo logs an informational message
func LogInfo(context LogContext, message string) {
	logger.WithFields(contextFields(context)).Info(message)
}

// LogAlert logs a condition that deserves attention but does not stop the run
func LogAlert(context LogContext, message string) {
	logger.WithFields(contextFields(context)).Warn(message)
}

// LogSimpleErr logs a message and its underlying error, returning an error
// that carries the message as its user-facing text
func LogSimpleErr(context LogContext, message string, err error) error {
	outErr := Error{LogMsg: fmt.Sprintf("%s %v", message, err), SimpleMsg: message}
	return outErr.Log(context, "")
}

// LogAuditInput is the set of fields for one audit record
type LogAuditInput struct {
	Actor    string
	Action   string
	Actee    string
	Message  string
	Severity Severity
}

// LogAudit logs a structured audit record of who did what to whom
func LogAudit(context LogContext, input LogAuditInput) {
	entry := logger.WithFields(contextFields(context)).WithFields(logrus.Fields{
		"actor":  input.Actor,
		"action": input.Action,
		"actee":  input.Actee,
	})
	switch input.Severity {
	case WARN:
		entry.Warn(input.Message)
	case ERROR:
		entry.Error(input.Message)
	default:
		entry.Info(input.Message)
	}
}

// Error holds both an operator-facing log message and a simpler
// user-facing message, plus optional HTTP exchange details
type Error struct {
	LogMsg     string
	SimpleMsg  string
	Response   string
	URL        string
	HTTPStatus int
}

// Error implements the error interface
func (e Error) Error() string {
	if e.SimpleMsg != "" {
		return e.SimpleMsg
	}
	return e.LogMsg
}

// Log writes the full detail of the error to the log and returns the
// error for propagation
func (e Error) Log(context LogContext, prefix string) error {
	entry := logger.WithFields(contextFields(context))
	if e.URL != "" {
		entry = entry.WithField("url", e.URL)
	}
	if e.HTTPStatus != 0 {
		entry = entry.WithField("httpStatus", e.HTTPStatus)
	}
	if e.Response != "" {
		entry = entry.WithField("response", e.Response)
	}
	message := e.LogMsg
	if prefix != "" {
		message = prefix + ": " + message
	}
	entry.Error(message)
	return e
}
