// Package shell manages a long-lived interactive shell subprocess and runs
// commands through it one at a time, using a marker line to find where each
// command's output ends.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// closeTimeout bounds how long Close waits for the shell to exit after its
// stdin is closed before killing it.
const closeTimeout = 3 * time.Second

// ErrClosed is returned by Run after the session has been closed.
var ErrClosed = errors.New("shell session is closed")

// IOError reports a failure on one of the subprocess pipes. The session is
// not usable after an IOError and is never restarted automatically.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("shell %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Result is the output of one command.
type Result struct {
	Output string
	// Complete is false when the shell's output ended before the marker
	// line was seen. Output then holds whatever had been collected.
	Complete bool
}

// Options configures Open.
type Options struct {
	Dialect Dialect
	// Marker overrides the generated end-of-command marker.
	Marker string
	Dir    string
	Logger *zap.Logger
}

// Session owns one shell subprocess. Its standard input carries commands and
// its standard output carries results; standard error is left unread.
//
// A Session is not safe for concurrent use. Wrap it in Shared when more than
// one goroutine needs it.
type Session struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	writer  *bufio.Writer
	stdout  *bufio.Reader
	dialect Dialect
	marker  string
	logger  *zap.Logger

	closed   bool
	waitOnce sync.Once
	waitErr  error
	exited   chan struct{}
}

// NewMarker returns a fresh end-of-command marker. It embeds a random UUID so
// real command output will not reproduce it by accident.
func NewMarker() string {
	return "___COMMAND_END_" + strings.ReplaceAll(uuid.NewString(), "-", "") + "___"
}

// Open starts the shell described by opts.Dialect.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Dialect == nil {
		opts.Dialect = PowerShell{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	marker := opts.Marker
	if marker == "" {
		marker = NewMarker()
	}

	path, args := opts.Dialect.Command()
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = append(os.Environ(), opts.Dialect.Env()...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("failed to start %s: %w", path, err)
	}

	logger.Debug("shell session spawned",
		zap.String("shell", opts.Dialect.Name()),
		zap.String("path", path),
		zap.Strings("args", args),
		zap.Int("pid", cmd.Process.Pid))

	s := &Session{
		cmd:     cmd,
		stdin:   stdin,
		writer:  bufio.NewWriter(stdin),
		stdout:  bufio.NewReader(stdout),
		dialect: opts.Dialect,
		marker:  marker,
		logger:  logger,
		exited:  make(chan struct{}),
	}
	return s, nil
}

// Marker returns the end-of-command marker used by this session.
func (s *Session) Marker() string {
	return s.marker
}

// Dialect returns the dialect the session was opened with.
func (s *Session) Dialect() Dialect {
	return s.dialect
}

// Run sends one command to the shell and returns its output once the marker
// line appears. Comment lines are removed before sending, any echo of the
// submitted text is removed from the output, and the result is trimmed.
func (s *Session) Run(command string) (Result, error) {
	if s.closed {
		return Result{}, ErrClosed
	}

	wrapped := s.dialect.Wrap(StripComments(command), s.marker)

	s.logger.Debug("shell command sent", zap.String("command", command))

	if _, err := s.writer.WriteString(wrapped + "\n"); err != nil {
		return Result{}, &IOError{Op: "write", Err: err}
	}
	if err := s.writer.Flush(); err != nil {
		return Result{}, &IOError{Op: "flush", Err: err}
	}

	output, complete, err := s.collect()
	if err != nil {
		return Result{}, err
	}

	if !complete {
		s.logger.Warn("shell output ended before command marker",
			zap.String("command", command))
		return Result{Output: strings.TrimSpace(output), Complete: false}, nil
	}

	return Result{Output: strings.TrimSpace(stripEcho(output, wrapped)), Complete: true}, nil
}

// collect reads lines until one equals the marker exactly. It reports
// complete=false when the stream ends first.
func (s *Session) collect() (string, bool, error) {
	var output strings.Builder
	for {
		line, err := s.stdout.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return output.String(), false, &IOError{Op: "read", Err: err}
		}

		if strings.TrimRight(line, "\r\n") == s.marker {
			return output.String(), true, nil
		}
		output.WriteString(line)

		if err != nil {
			return output.String(), false, nil
		}
	}
}

// stripEcho drops everything up to and including an echoed copy of the
// submitted text, plus the newline that follows it.
func stripEcho(output, wrapped string) string {
	echo := strings.TrimRight(wrapped, "\r\n")
	idx := strings.Index(output, echo)
	if idx < 0 {
		return output
	}
	rest := output[idx+len(echo):]
	rest = strings.TrimPrefix(rest, "\r")
	return strings.TrimPrefix(rest, "\n")
}

// Close closes the shell's stdin and waits for it to exit, killing it if it
// does not exit promptly.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.logger.Debug("shell session closing")
	s.stdin.Close()

	go s.wait()

	select {
	case <-s.exited:
		s.logger.Debug("shell session exited", zap.NamedError("exitError", s.waitErr))
	case <-time.After(closeTimeout):
		s.logger.Debug("shell session kill after close timeout")
		_ = s.cmd.Process.Kill()
		<-s.exited
	}
	return nil
}

func (s *Session) wait() {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
		close(s.exited)
	})
}
