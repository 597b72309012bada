// Package logsink delivers product log lines ("[TAG] message\r\n") to the
// serial port and other targets without blocking the caller.
package logsink

import (
	"fmt"
	"time"
)

// Line is one product log entry.
type Line struct {
	Time    time.Time
	Tag     string
	Message string
}

// String returns the serial wire form of the line.
func (l Line) String() string {
	return FormatLine(l.Tag, l.Message)
}

// FormatLine returns "[<tag>] <message>\r\n".
func FormatLine(tag, message string) string {
	return fmt.Sprintf("[%s] %s\r\n", tag, message)
}

// Target receives delivered lines. WriteLine may block; it is only called
// from the delivery goroutine.
type Target interface {
	WriteLine(line Line) error
}

// TargetFunc adapts a function to Target.
type TargetFunc func(line Line) error

// WriteLine calls f(line).
func (f TargetFunc) WriteLine(line Line) error {
	return f(line)
}
