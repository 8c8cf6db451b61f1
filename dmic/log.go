package dmic

import (
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Logging seam. ProgramConfig logs its register writes
 *		at debug level (coefficient RAM as one summary line);
 *		Device logs state transitions at info level.
 *		StartCapture and StopCapture log nothing. Callers that
 *		don't care supply NopLogger.
 *
 *------------------------------------------------------------------*/

// Logger is the minimal surface ProgramConfig, StartCapture and Device
// need. It is satisfied by *charmbracelet/log.Logger, so callers that
// want formatted, leveled, colorized output can pass one straight in.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// charmLogger adapts charmbracelet/log.Logger's With-style API to the
// printf-style Logger interface used throughout this package.
type charmLogger struct {
	l *charmlog.Logger
}

// NewLogger returns a Logger backed by charmbracelet/log, writing to w
// at the given level. cmd/dmicctl and cmd/dmictrigger both use this to
// get the teacher's usual timestamped, leveled console output.
func NewLogger(w io.Writer, level charmlog.Level) Logger {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return &charmLogger{l: l}
}

// NewDefaultLogger returns a Logger writing to stderr at info level.
func NewDefaultLogger() Logger {
	return NewLogger(os.Stderr, charmlog.InfoLevel)
}

func (c *charmLogger) Debugf(format string, args ...any) { c.l.Debugf(format, args...) }
func (c *charmLogger) Infof(format string, args ...any)  { c.l.Infof(format, args...) }
func (c *charmLogger) Warnf(format string, args ...any)  { c.l.Warnf(format, args...) }
func (c *charmLogger) Errorf(format string, args ...any) { c.l.Errorf(format, args...) }

// NopLogger discards everything; tests and callers that don't want
// register-write tracing pass this in.
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
