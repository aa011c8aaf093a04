// Package console reads operator input line by line in a way that can be
// abandoned when the surrounding context is cancelled.
package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Reader delivers lines from an underlying reader. A background goroutine
// performs the blocking reads so ReadLine can select on cancellation.
type Reader struct {
	lines  chan string
	errCh  chan error
	logger *zap.Logger

	err error
}

// NewReader starts reading lines from in. The goroutine exits when in returns
// an error, including io.EOF.
func NewReader(in io.Reader, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reader{
		lines:  make(chan string),
		errCh:  make(chan error, 1),
		logger: logger,
	}
	go r.readLoop(bufio.NewReader(in))
	return r
}

func (r *Reader) readLoop(in *bufio.Reader) {
	defer close(r.lines)
	for {
		line, err := in.ReadString('\n')
		if len(line) > 0 {
			r.lines <- strings.TrimRight(line, "\r\n")
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.logger.Debug("console read error", zap.Error(err))
			}
			r.errCh <- err
			return
		}
	}
}

// ReadLine waits for the next line, without its line terminator. It returns
// ctx.Err() if ctx is cancelled first and io.EOF once input is exhausted.
func (r *Reader) ReadLine(ctx context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-r.lines:
		if ok {
			return line, nil
		}
		r.err = <-r.errCh
		return "", r.err
	}
}
