// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mlog_test

import (
	"io"
	"os"
	"strings"
	"testing"

	"code.hybscloud.com/mpipe/mlog"
)

// captureStdout runs fn with os.Stdout redirected into a pipe and returns
// everything written.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	done := make(chan string, 1)
	go func() {
		b, _ := io.ReadAll(r)
		done <- string(b)
	}()
	fn()
	_ = w.Close()
	os.Stdout = orig
	return <-done
}

func TestOpenClose(t *testing.T) {
	ctx := mlog.Open(nil, nil)
	if ctx == nil {
		t.Fatal("Open(nil, nil) = nil, want context")
	}
	mlog.Close(&ctx)
	if ctx != nil {
		t.Error("Close must nil the reference")
	}

	// Close tolerates nil references and nil contexts.
	mlog.Close(nil)
	var nilCtx *mlog.Logger
	mlog.Close(&nilCtx)
}

func TestTrace_NoOpCases(t *testing.T) {
	ctx := mlog.Open(nil, nil)
	out := captureStdout(t, func() {
		var nilCtx *mlog.Logger
		nilCtx.Trace(mlog.LevelDebug, "myfile.go", 22, "myfxn", "dropped %s\n", "a")
		ctx.Trace(mlog.Level(100), "myfile.go", 22, "myfxn", "dropped %s\n", "b")
		ctx.Trace(mlog.Level(-1), "myfile.go", 22, "myfxn", "dropped %s\n", "c")
		ctx.Trace(mlog.LevelDebug, "", 22, "myfxn", "dropped %s\n", "d")
		ctx.Trace(mlog.LevelDebug, "myfile.go", -1, "", "dropped %s\n", "e")
		ctx.Trace(mlog.LevelDebug, "myfile.go", 22, "myfxn", "")
	})
	if out != "" {
		t.Errorf("no-op traces wrote %q, want nothing", out)
	}
}

func TestTrace_StdoutFallback(t *testing.T) {
	ctx := mlog.Open(nil, nil)
	out := captureStdout(t, func() {
		ctx.Trace(mlog.LevelWarn, "myfile.go", 22, "myfxn", "hello %s\n", "world")
	})
	if !strings.Contains(out, "myfile.go-22: ") {
		t.Errorf("trace output %q lacks file-line prefix", out)
	}
	if !strings.Contains(out, "hello world") {
		t.Errorf("trace output %q lacks formatted message", out)
	}
	if !strings.HasPrefix(out, "\x1B[33m") {
		t.Errorf("warn trace %q must start with the yellow escape", out)
	}
	if !strings.HasSuffix(out, "\x1B[0m") {
		t.Errorf("trace %q must reset the color", out)
	}
}

func TestTrace_ExternalCallback(t *testing.T) {
	type record struct {
		opaque any
		level  mlog.Level
		file   string
		line   int
		fn     string
		format string
		args   []any
	}
	var got record
	marker := &struct{}{}
	ctx := mlog.Open(marker, func(opaque any, level mlog.Level, file string,
		line int, fn string, format string, args []any) {
		got = record{opaque, level, file, line, fn, format, args}
	})

	out := captureStdout(t, func() {
		ctx.Trace(mlog.LevelError, "myfile.go", 41, "myfxn", "oops %d %s\n", 7, "x")
	})
	if out != "" {
		t.Errorf("callback traces must not touch stdout, got %q", out)
	}
	if got.opaque != marker {
		t.Error("callback must receive the opaque value from Open")
	}
	if got.level != mlog.LevelError || got.file != "myfile.go" ||
		got.line != 41 || got.fn != "myfxn" {
		t.Errorf("callback site = %v/%v/%v/%v, want error/myfile.go/41/myfxn",
			got.level, got.file, got.line, got.fn)
	}
	if got.format != "oops %d %s\n" || len(got.args) != 2 {
		t.Errorf("callback payload = %q %v, want format with 2 args", got.format, got.args)
	}
}

func TestCallerCapture(t *testing.T) {
	var file string
	var line int
	ctx := mlog.Open(nil, func(_ any, _ mlog.Level, f string, l int,
		_ string, _ string, _ []any) {
		file, line = f, l
	})
	ctx.Debugf("probe\n")
	if file != "mlog_test.go" {
		t.Errorf("Debugf captured file %q, want mlog_test.go", file)
	}
	if line <= 0 {
		t.Errorf("Debugf captured line %d, want positive", line)
	}

	// Caller-capturing methods on the nil context are no-ops.
	var nilCtx *mlog.Logger
	nilCtx.Warnf("dropped\n")
	nilCtx.Errorf("dropped\n")
}
