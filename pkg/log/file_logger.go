package log

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends events to a trace file. After a failed write it
// drops further events; Close reports the failure.
type FileLogger struct {
	mu  sync.Mutex
	f   *os.File
	enc *cbor.Encoder
	err error
}

// NewFileLogger opens path for appending, creating it if needed.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{f: f, enc: encMode.NewEncoder(f)}, nil
}

func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil || l.err != nil {
		return
	}
	if err := l.enc.Encode(event); err != nil {
		l.err = fmt.Errorf("write trace event: %w", err)
	}
}

// Close closes the file and returns the first write error, if any. Events
// logged afterwards are dropped and later calls return nil.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := errors.Join(l.err, l.f.Close())
	l.f = nil
	return err
}
