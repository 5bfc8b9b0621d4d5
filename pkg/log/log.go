// Copyright 2020-2021 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package log provides the small structured logger used to report
// diagnostics during compression (the error-correction pass adjusting
// samples, the clip being declared wrap-looping, the size of the written
// blob). The chained Event API
// is carried over from the teacher's pkg/log; the sqlite-backed pub/sub
// fan-out is not, since this pipeline is single-threaded and synchronous
// (§5) and has no UI to subscribe from.
package log

// API inspired by zerolog https://github.com/rs/zerolog

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level defines log level.
type Level uint8

// Logging constants.
const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// Event defines a log event under construction.
type Event struct {
	level  Level
	src    string
	clip   string
	logger *Logger
}

// Src sets the event's component source, e.g. "bitrate-selector".
func (e *Event) Src(source string) *Event {
	e.src = source
	return e
}

// Clip sets the event's source clip name.
func (e *Event) Clip(name string) *Event {
	e.clip = name
	return e
}

// Msg writes msg as the event's message.
func (e *Event) Msg(msg string) {
	e.logger.write(Record{Level: e.level, Src: e.src, Clip: e.clip, Msg: msg})
}

// Msgf writes a formatted message.
func (e *Event) Msgf(format string, v ...interface{}) {
	e.Msg(fmt.Sprintf(format, v...))
}

// Record is one emitted log line.
type Record struct {
	Level Level
	Src   string
	Clip  string
	Msg   string
}

func (r Record) String() string {
	if r.Clip == "" {
		return fmt.Sprintf("[%s] %s: %s", r.Level, r.Src, r.Msg)
	}
	return fmt.Sprintf("[%s] %s(%s): %s", r.Level, r.Src, r.Clip, r.Msg)
}

// Logger writes Records to an io.Writer, filtering by minimum level.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
}

// NewLogger returns a Logger that writes records at minLevel or more severe
// to out.
func NewLogger(out io.Writer, minLevel Level) *Logger {
	return &Logger{out: out, minLevel: minLevel}
}

// NewStderrLogger returns a Logger writing to os.Stderr at LevelInfo.
func NewStderrLogger() *Logger {
	return NewLogger(os.Stderr, LevelInfo)
}

// NewDiscardLogger returns a Logger that drops every record, for tests and
// callers that don't want diagnostic output.
func NewDiscardLogger() *Logger {
	return NewLogger(io.Discard, LevelError)
}

func (l *Logger) write(r Record) {
	if l == nil || r.Level > l.minLevel {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, r.String())
}

// Error starts an error-level event.
func (l *Logger) Error() *Event { return &Event{level: LevelError, logger: l} }

// Warn starts a warning-level event.
func (l *Logger) Warn() *Event { return &Event{level: LevelWarning, logger: l} }

// Info starts an info-level event.
func (l *Logger) Info() *Event { return &Event{level: LevelInfo, logger: l} }

// Debug starts a debug-level event.
func (l *Logger) Debug() *Event { return &Event{level: LevelDebug, logger: l} }
