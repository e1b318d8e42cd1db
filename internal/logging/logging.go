// Package logging is the process-wide leveled logger used by the trainer,
// storage and CLI. Nothing is written until a logger is installed with
// Default or SetLogger.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	unilogger "github.com/neuronlabs/uni-logger"
)

const (
	LDEBUG   = unilogger.DEBUG
	LINFO    = unilogger.INFO
	LWARNING = unilogger.WARNING
	LERROR   = unilogger.ERROR
	LUNKNOWN = unilogger.UNKNOWN
)

var (
	mu           sync.RWMutex
	logger       unilogger.LeveledLogger
	currentLevel = LINFO
)

// Default installs a basic logger writing to os.Stderr.
func Default() {
	SetLogger(New(os.Stderr))
}

// New builds the basic logger used by Default for an arbitrary writer.
func New(w io.Writer) unilogger.LeveledLogger {
	basic := unilogger.NewBasicLogger(w, "", log.Ldate|log.Ltime|log.Lshortfile)
	basic.SetOutputDepth(4)
	return basic
}

// SetLogger replaces the current logger and applies the current level to it.
func SetLogger(l unilogger.LeveledLogger) {
	mu.Lock()
	defer mu.Unlock()

	logger = l
	if setter, ok := l.(unilogger.LevelSetter); ok {
		setter.SetLevel(currentLevel)
	}
}

// Logger returns the installed logger, nil when none is set.
func Logger() unilogger.LeveledLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Level returns the current level.
func Level() unilogger.Level {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// SetLevel changes the level of the current and every future logger.
func SetLevel(level unilogger.Level) error {
	if level == LUNKNOWN {
		return fmt.Errorf("can't set unknown logger level")
	}

	mu.Lock()
	defer mu.Unlock()

	currentLevel = level
	if logger == nil {
		return nil
	}
	setter, ok := logger.(unilogger.LevelSetter)
	if !ok {
		return fmt.Errorf("logger doesn't implement LevelSetter interface")
	}
	setter.SetLevel(level)
	return nil
}

// ParseLevel maps a config value such as "debug" or "WARNING" to a level.
func ParseLevel(name string) (unilogger.Level, error) {
	level := unilogger.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if level == LUNKNOWN {
		return LUNKNOWN, fmt.Errorf("unknown log level: %q", name)
	}
	return level, nil
}

func current() unilogger.LeveledLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debugf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Debugf(format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Infof(format, args...)
	}
}

func Warningf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Warningf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.Errorf(format, args...)
	}
}
