package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"quickfuel-admin/pkg/config"
)

// Logger wraps logrus with additional functionality
type Logger struct {
	*logrus.Logger
	fields logrus.Fields
	file   *lumberjack.Logger
}

// NewLogger creates a new logger instance writing to stdout and, when
// logFile is set, to a rotated log file
func NewLogger(level, logFile string) *Logger {
	return NewFromConfig(config.LoggingConfig{
		Level:      level,
		File:       logFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})
}

// NewFromConfig creates a logger from the logging section of the configuration
func NewFromConfig(cfg config.LoggingConfig) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	l := &Logger{
		Logger: log,
		fields: make(logrus.Fields),
	}
	l.SetFormatter(cfg.Format)

	if cfg.File != "" {
		logDir := filepath.Dir(cfg.File)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Printf("Failed to create log directory: %v\n", err)
		} else {
			fileLogger := &lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSize, // MB
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge, // days
				Compress:   cfg.Compress,
			}

			// Write to both file and stdout
			log.SetOutput(io.MultiWriter(os.Stdout, fileLogger))
			l.file = fileLogger
		}
	}

	return l
}

// NewWithWriter creates a logger that writes only to w
func NewWithWriter(level string, w io.Writer) *Logger {
	l := NewLogger(level, "")
	l.Logger.SetOutput(w)
	return l
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	newFields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value

	return &Logger{
		Logger: l.Logger,
		fields: newFields,
	}
}

// WithFields adds multiple fields to the logger context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	newFields := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	return &Logger{
		Logger: l.Logger,
		fields: newFields,
	}
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	entry := l.Logger.WithFields(l.fields)
	if len(args) > 0 {
		entry.Debugf(msg, args...)
	} else {
		entry.Debug(msg)
	}
}

// Info logs an info message. A message without format verbs takes its
// arguments as key-value pairs; otherwise they are format arguments.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(logrus.InfoLevel, msg, args)
}

// Warning logs a warning message
func (l *Logger) Warning(msg string, args ...interface{}) {
	l.log(logrus.WarnLevel, msg, args)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(logrus.ErrorLevel, msg, args)
}

func (l *Logger) log(level logrus.Level, msg string, args []interface{}) {
	entry := l.Logger.WithFields(l.fields)
	if len(args) == 0 {
		entry.Log(level, msg)
		return
	}
	if fields, ok := pairs(args); ok && !strings.Contains(msg, "%") {
		entry.WithFields(fields).Log(level, msg)
		return
	}
	entry.Logf(level, msg, args...)
}

func pairs(args []interface{}) (logrus.Fields, bool) {
	if len(args)%2 != 0 {
		return nil, false
	}
	fields := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return nil, false
		}
		fields[key] = args[i+1]
	}
	return fields, true
}

// Writer returns an io.Writer for the logger
func (l *Logger) Writer() io.Writer {
	return l.Logger.WithFields(l.fields).Writer()
}

// SecurityLogger logs security-related events
func (l *Logger) SecurityLogger(event, userID, details string) {
	l.WithFields(map[string]interface{}{
		"event_type": "security",
		"event":      event,
		"user_id":    userID,
		"details":    details,
		"timestamp":  time.Now().Unix(),
	}).Warning("Security event logged")
}

// AuditLogger logs audit events
func (l *Logger) AuditLogger(action, userID, resource, details string) {
	l.WithFields(map[string]interface{}{
		"event_type": "audit",
		"action":     action,
		"user_id":    userID,
		"resource":   resource,
		"details":    details,
		"timestamp":  time.Now().Unix(),
	}).Info("Audit event logged")
}

// StructuredError logs a structured error with context
func (l *Logger) StructuredError(err error, context map[string]interface{}) {
	fields := map[string]interface{}{
		"error":     err.Error(),
		"timestamp": time.Now().Unix(),
	}

	for k, v := range context {
		fields[k] = v
	}

	l.WithFields(fields).Error("Structured error logged")
}

// ContextKey is the gin context key holding the request-scoped logger
const ContextKey = "logger"

// GetLoggerFromContext retrieves the logger from Gin context, falling back to
// fallback when the request carries none
func GetLoggerFromContext(c *gin.Context, fallback *Logger) *Logger {
	if value, exists := c.Get(ContextKey); exists {
		if l, ok := value.(*Logger); ok {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return NewLogger("info", "")
}

// SetLogLevel dynamically sets the log level
func (l *Logger) SetLogLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.Logger.SetLevel(logLevel)
	return nil
}

// SetFormatter sets the log formatter
func (l *Logger) SetFormatter(format string) {
	switch format {
	case "json":
		l.Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		l.Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}

// Close closes any open log files
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
