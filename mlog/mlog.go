// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mlog provides the logging context passed through every mpipe API.
//
// A Logger holds an opaque user value and an optional external trace
// callback. When the callback is unset, traces are written to standard
// output with an ANSI color per level. A nil *Logger is the null context:
// every trace through it is silently discarded, which lets the SHM-FIFO stay
// silent in production and chatty in tests without recompilation.
package mlog

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Level is a logging severity level.
type Level int

const (
	// LevelDebug is the normal-progress tracing level.
	LevelDebug Level = iota
	// LevelWarn is the warning tracing level.
	LevelWarn
	// LevelError is the error tracing level.
	LevelError

	levelMax
)

// levelColor maps a level to its terminal color escape.
var levelColor = [levelMax]string{
	LevelDebug: "\x1B[0m",    // normal
	LevelWarn:  "\x1B[33m",   // yellow
	LevelError: "\x1B[1;31m", // bold red
}

// TraceFunc is an externally supplied trace callback. It receives the
// opaque value given to Open, the trace site (file, line, function), the
// format string and the argument list of the trace call.
type TraceFunc func(opaque any, level Level, file string, line int,
	fn string, format string, args []any)

// Logger is a logging context instance. The zero value is usable and
// behaves like a context opened with Open(nil, nil).
type Logger struct {
	opaque any
	trace  TraceFunc
}

// Open creates a logging context. Both arguments may be nil: a nil trace
// callback selects the colored standard-output writer.
func Open(opaque any, trace TraceFunc) *Logger {
	return &Logger{opaque: opaque, trace: trace}
}

// Close releases a logging context obtained from Open and nils the given
// reference. Passing nil, or a reference to a nil context, is a no-op.
func Close(ref **Logger) {
	if ref == nil || *ref == nil {
		return
	}
	*ref = nil
}

// Trace emits one trace line. It is a no-op when the context is nil, the
// level is outside the known range, or any of file, fn or format is empty.
func (l *Logger) Trace(level Level, file string, line int, fn string,
	format string, args ...any) {
	if l == nil || level < LevelDebug || level >= levelMax ||
		file == "" || fn == "" || format == "" {
		return
	}
	if l.trace != nil {
		l.trace(l.opaque, level, file, line, fn, format, args)
		return
	}
	fmt.Fprintf(os.Stdout, "%s%s-%d: ", levelColor[level], file, line)
	fmt.Fprintf(os.Stdout, format, args...)
	fmt.Fprint(os.Stdout, levelColor[LevelDebug])
}

// Debugf traces at debug level, stamping the caller's file, line and
// function.
func (l *Logger) Debugf(format string, args ...any) {
	l.callerTrace(LevelDebug, format, args)
}

// Warnf traces at warning level, stamping the caller's file, line and
// function.
func (l *Logger) Warnf(format string, args ...any) {
	l.callerTrace(LevelWarn, format, args)
}

// Errorf traces at error level, stamping the caller's file, line and
// function.
func (l *Logger) Errorf(format string, args ...any) {
	l.callerTrace(LevelError, format, args)
}

func (l *Logger) callerTrace(level Level, format string, args []any) {
	if l == nil {
		return
	}
	pc, file, line, ok := runtime.Caller(2)
	if !ok {
		return
	}
	fn := "?"
	if f := runtime.FuncForPC(pc); f != nil {
		fn = f.Name()
		if i := strings.LastIndexByte(fn, '.'); i >= 0 {
			fn = fn[i+1:]
		}
	}
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	l.Trace(level, file, line, fn, format, args...)
}
