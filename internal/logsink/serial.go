package logsink

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Serial writes lines in wire form to a serial device or any writer.
type Serial struct {
	w io.Writer
}

// NewSerial creates a Serial target writing to w.
func NewSerial(w io.Writer) *Serial {
	return &Serial{w: w}
}

// WriteLine writes "[TAG] message\r\n".
func (s *Serial) WriteLine(line Line) error {
	if _, err := io.WriteString(s.w, line.String()); err != nil {
		return fmt.Errorf("write serial: %w", err)
	}
	return nil
}

// OpenSerial opens the serial device at path for writing. An empty path or
// "-" selects stdout. The port's line settings are left to the system
// (stty / udev).
func OpenSerial(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Zap mirrors lines into the diagnostics log at info level.
type Zap struct {
	log *zap.SugaredLogger
}

// NewZap creates a Zap target.
func NewZap(log *zap.SugaredLogger) *Zap {
	return &Zap{log: log}
}

// WriteLine logs the line with its tag as a field.
func (z *Zap) WriteLine(line Line) error {
	z.log.Infow(line.Message, "tag", line.Tag)
	return nil
}
