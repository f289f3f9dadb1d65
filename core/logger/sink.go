package logger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	coreconfig "github.com/m3rciful/directorbot/core/config"
)

// fanoutSink serialises log lines on a background goroutine and copies them to every output.
type fanoutSink struct {
	lines   chan []byte
	flushes chan chan error
	stopped chan struct{}
	once    sync.Once

	mu      sync.Mutex
	outs    []*bufio.Writer
	closers []io.Closer
	err     error
}

func newFanoutSink(writers []io.Writer, closers []io.Closer, bufSize int) *fanoutSink {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	s := &fanoutSink{
		lines:   make(chan []byte, 256),
		flushes: make(chan chan error),
		stopped: make(chan struct{}),
		closers: closers,
	}
	for _, w := range writers {
		if w != nil {
			s.outs = append(s.outs, bufio.NewWriterSize(w, bufSize))
		}
	}
	go s.run()
	return s
}

// openSink always writes to stdout and additionally to logging.dir/logging.bot_file when set.
// A log file that cannot be opened is reported on stderr and skipped.
func openSink(cfg *coreconfig.Config) (*fanoutSink, error) {
	writers := []io.Writer{os.Stdout}
	var closers []io.Closer
	if cfg != nil {
		dir := strings.TrimSpace(cfg.Logging.Dir)
		file := strings.TrimSpace(cfg.Logging.BotFile)
		if dir != "" && file != "" {
			f, err := openLogFile(dir, file)
			if err != nil {
				fmt.Fprintf(os.Stderr, "logger: %v\n", err)
			} else {
				writers = append(writers, f)
				closers = append(closers, f)
			}
		}
	}
	return newFanoutSink(writers, closers, 64*1024), nil
}

func openLogFile(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

func (s *fanoutSink) run() {
	defer close(s.stopped)
	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				_ = s.flush()
				return
			}
			s.write(line)
		case ack := <-s.flushes:
			ack <- s.flush()
		}
	}
}

// Write copies p and queues it; it blocks when the queue is full rather than dropping.
func (s *fanoutSink) Write(p []byte) error {
	if err := s.firstErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	s.lines <- append([]byte(nil), p...)
	return nil
}

// Flush blocks until every queued line has reached the outputs.
func (s *fanoutSink) Flush() error {
	select {
	case <-s.stopped:
		return s.firstErr()
	default:
	}
	ack := make(chan error, 1)
	s.flushes <- ack
	return <-ack
}

// Close drains the queue, then closes owned files.
func (s *fanoutSink) Close() error {
	s.once.Do(func() { close(s.lines) })
	<-s.stopped

	errs := []error{s.firstErr()}
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (s *fanoutSink) write(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, out := range s.outs {
		if _, err := out.Write(p); err != nil {
			s.keepErr(err)
			return
		}
		if err := out.Flush(); err != nil {
			s.keepErr(err)
			return
		}
	}
}

func (s *fanoutSink) flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, out := range s.outs {
		errs = append(errs, out.Flush())
	}
	return errors.Join(errs...)
}

func (s *fanoutSink) firstErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// keepErr must be called with mu held.
func (s *fanoutSink) keepErr(err error) {
	if s.err == nil {
		s.err = err
	}
}
