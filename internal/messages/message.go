package messages

import (
	"fmt"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
)

var (
	loggerMu sync.RWMutex
	logger   = hclog.New(&hclog.LoggerOptions{
		Name:   "subxt",
		Level:  hclog.Info,
		Output: os.Stderr,
	})
)

// NewLogger builds the process logger from the log section of the config.
func NewLogger(level string, json bool) hclog.Logger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "subxt",
		Level:      lvl,
		JSONFormat: json,
		Output:     os.Stderr,
	})
}

func SetLogger(l hclog.Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = l
}

func Logger() hclog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

func NewClientMessage(level ClientLogLevel, component string, err error, formatString string, additionalInfo ...interface{}) *ClientMessage {
	return &ClientMessage{
		LogLevel:       level,
		Component:      component,
		Error:          err,
		FormatString:   formatString,
		AdditionalInfo: additionalInfo,
	}
}

// ConsoleLog writes the message through the process logger. Errors are only reported here,
// callers still return them.
func (msg *ClientMessage) ConsoleLog() {
	l := Logger()
	if msg.Component != "" {
		l = l.Named(msg.Component)
	}

	text := msg.String()
	var pairs []interface{}
	if msg.Error != nil {
		pairs = append(pairs, "error", msg.Error)
	}

	switch msg.LogLevel {
	case LOG_LEVEL_DEBUG:
		l.Debug(text, pairs...)
	case LOG_LEVEL_INFO:
		l.Info(text, pairs...)
	case LOG_LEVEL_SUCCESS:
		l.Info(text, append(pairs, "status", "success")...)
	case LOG_LEVEL_WARNING:
		l.Warn(text, pairs...)
	case LOG_LEVEL_ERROR:
		l.Error(text, pairs...)
	default:
		l.Info(text, pairs...)
	}
}

// String renders the formatted message without the error.
func (msg *ClientMessage) String() string {
	if len(msg.AdditionalInfo) == 0 {
		return msg.FormatString
	}
	return fmt.Sprintf(msg.FormatString, msg.AdditionalInfo...)
}

// ToError turns an error message into a returnable error, keeping the cause.
func (msg *ClientMessage) ToError() error {
	if msg.Error == nil {
		return fmt.Errorf("%s", msg.String())
	}
	return fmt.Errorf("%s: %w", msg.String(), msg.Error)
}
