package logger

import (
	"errors"
	"io"
	"log"
	"os"
	"time"
)

type asyncWriter struct {
	w       io.Writer
	queue   chan []byte
	flushCh chan chan<- struct{}
}

func newAsyncWriter(w io.Writer) *asyncWriter {
	aw := &asyncWriter{
		w:       w,
		queue:   make(chan []byte, 512),
		flushCh: make(chan chan<- struct{}),
	}
	go aw.doWork()
	return aw
}

func (w *asyncWriter) Flush() error {
	ch := make(chan struct{})
	w.flushCh <- ch
	<-ch
	return nil
}

// Write copies p since log.Logger reuses its buffer after Write returns.
func (w *asyncWriter) Write(p []byte) (int, error) {
	b := make([]byte, len(p))
	copy(b, p)
	w.queue <- b
	return len(p), nil
}

func (w *asyncWriter) doFlush() {
	n := len(w.queue)
	for i := 0; i < n; i++ {
		select {
		case p := <-w.queue:
			_, _ = w.w.Write(p)
		default:
		}
	}
}

func (w *asyncWriter) doWork() {
	for {
		select {
		case c := <-w.flushCh:
			w.doFlush()
			close(c)
		case p := <-w.queue:
			_, _ = w.w.Write(p)
		}
	}
}

type asyncLogger struct {
	writer *asyncWriter
	log    *logger
}

// NewAsyncWriterLogger keeps slow writers (terminals, pipes) off the hashing
// goroutines. Pass "rfc3339" as the time format to get UTC RFC3339 stamps.
func NewAsyncWriterLogger(level LogLevel, ioWriter io.Writer, timeFormat_optional ...string) Logger {
	wout := newAsyncWriter(ioWriter)

	stdLogger := log.New(wout, "", log.LstdFlags)
	if len(timeFormat_optional) > 0 && timeFormat_optional[0] == "rfc3339" {
		stdLogger = log.New(&rfc3339Writer{w: wout}, "", 0)
	}

	return &asyncLogger{
		writer: wout,
		log: &logger{
			level:  level,
			logger: stdLogger,
		},
	}
}

func (l *asyncLogger) Flush() error {
	return l.writer.Flush()
}

func (l *asyncLogger) FlushTimeout(d time.Duration) error {
	ch := make(chan error, 1)
	go func() {
		ch <- l.Flush()
	}()
	select {
	case err := <-ch:
		return err
	case <-time.After(d):
		return errors.New("logger: flush timed out after " + d.String())
	}
}

func (l *asyncLogger) Debug(tag, msg string, args ...interface{}) {
	l.log.Debug(tag, msg, args...)
}

func (l *asyncLogger) DebugWithDetails(tag, msg string, args ...interface{}) {
	l.log.DebugWithDetails(tag, msg, args...)
}

func (l *asyncLogger) Info(tag, msg string, args ...interface{}) {
	l.log.Info(tag, msg, args...)
}

func (l *asyncLogger) Warn(tag, msg string, args ...interface{}) {
	l.log.Warn(tag, msg, args...)
}

func (l *asyncLogger) Error(tag, msg string, args ...interface{}) {
	l.log.Error(tag, msg, args...)
}

func (l *asyncLogger) ErrorWithDetails(tag, msg string, args ...interface{}) {
	l.log.ErrorWithDetails(tag, msg, args...)
}

func (l *asyncLogger) HandlePanic(tag string) {
	if r := recover(); r != nil {
		l.log.logPanic(tag, r)
		_ = l.FlushTimeout(time.Second * 30)
		os.Exit(2)
	}
}

func (l *asyncLogger) ToggleForcedDebug() {
	l.log.ToggleForcedDebug()
}

type rfc3339Writer struct {
	w io.Writer
}

func (w *rfc3339Writer) Write(p []byte) (int, error) {
	stamp := time.Now().UTC().Format(time.RFC3339Nano) + " "
	if _, err := w.w.Write(append([]byte(stamp), p...)); err != nil {
		return 0, err
	}
	return len(p), nil
}
