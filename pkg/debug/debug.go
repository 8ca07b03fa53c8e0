// Package debug builds the zerolog loggers used by the treehl
// commands. Stdout is reserved for protocol or tool output, so every
// logger here writes to the writer it is given, normally stderr.
package debug

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// TimestampHook stamps events with millisecond precision. The default
// zerolog timestamp carries a timezone offset that only adds noise in
// editor logs.
type TimestampHook struct {
	Format string
}

func (t TimestampHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	format := t.Format
	if format == "" {
		format = "2006-01-02T15:04:05.0000Z"
	}
	e.Str("time", time.Now().Format(format))
}

// CallerHook annotates events with package:file:line of the logging
// call site.
type CallerHook struct {
	WithColor bool
	// Skip adjusts the stack offset when the logger is wrapped
	Skip int
}

func (c CallerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	pc, file, line, ok := runtime.Caller(c.Skip + 3)
	if !ok {
		return
	}

	pkg, _ := splitFuncName(runtime.FuncForPC(pc).Name())
	e.Str("caller", formatCaller(pkg, file, line, c.WithColor))
}

// NewLogger builds the standard command logger: leveled, timestamped,
// caller-annotated, human-readable.
func NewLogger(out io.Writer, level zerolog.Level, colorize bool) zerolog.Logger {
	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    !colorize,
		PartsOrder: []string{"time", "level", "caller", "message"},
	}

	return zerolog.New(writer).
		Level(level).
		Hook(TimestampHook{}).
		Hook(CallerHook{WithColor: colorize})
}

func splitFuncName(name string) (pkg, function string) {
	lastSlash := strings.LastIndexByte(name, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}
	firstDot := strings.IndexByte(name[lastSlash:], '.') + lastSlash

	pkg = name[:firstDot]
	function = name[firstDot+1:]

	// method expressions keep the receiver with the function part
	if strings.Contains(pkg, ".(") {
		parts := strings.Split(pkg, ".(")
		pkg = parts[0]
		function = "(" + parts[1] + "." + function
	}

	return pkg, function
}

func formatCaller(pkg, path string, line int, colorize bool) string {
	file := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		file = path[i+1:]
	}

	if colorize {
		file = color.New(color.Bold).Sprint(file)
		num := color.New(color.FgHiRed, color.Bold).Sprintf("%d", line)
		sep := color.New(color.Faint).Sprint(":")
		return fmt.Sprintf("%s%s%s%s%s", pkg, sep, file, sep, num)
	}

	return fmt.Sprintf("%s:%s:%d", pkg, file, line)
}
