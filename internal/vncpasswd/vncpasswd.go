// Package vncpasswd sets the VNC password by driving the vncpasswd tool
// under a pseudo-terminal. vncpasswd refuses to read its prompts from a
// pipe, so the tool is run on a pty and its prompts are answered
// programmatically.
package vncpasswd

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/creack/pty"

	"github.com/vdesk-project/vdesk/internal/errors"
	"github.com/vdesk-project/vdesk/internal/logging"
)

// VNC authentication uses the first 8 bytes of the password; shorter
// than 6 is rejected by vncpasswd itself.
const (
	MinPasswordLen = 6
	MaxPasswordLen = 8
)

// promptTimeout bounds how long Set waits for each vncpasswd prompt.
const promptTimeout = 10 * time.Second

// startFunc launches cmd under a pty. Tests substitute a fake.
type startFunc func(cmd *exec.Cmd) (io.ReadWriteCloser, error)

// Setter writes VNC password files.
type Setter struct {
	logger *logging.Logger
	start  startFunc
}

// Option configures a Setter.
type Option func(*Setter)

// WithStart substitutes the pty launcher. Used in tests.
func WithStart(fn startFunc) Option {
	return func(s *Setter) { s.start = fn }
}

// NewSetter returns a Setter.
func NewSetter(logger *logging.Logger, opts ...Option) *Setter {
	s := &Setter{
		logger: logger,
		start: func(cmd *exec.Cmd) (io.ReadWriteCloser, error) {
			return pty.Start(cmd)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate checks a candidate password against VNC's length limits.
func Validate(password string) error {
	if len(password) < MinPasswordLen {
		return errors.NewValidationError("password too short").
			WithField("password").
			WithCause(errors.ErrInvalidInput)
	}
	if len(password) > MaxPasswordLen {
		// vncpasswd silently truncates to 8 bytes; reject instead so the
		// operator is not surprised by a shorter effective password.
		return errors.NewValidationError("password longer than 8 characters would be truncated").
			WithField("password").
			WithCause(errors.ErrInvalidInput)
	}
	return nil
}

// Set writes the password to passwordFile by driving vncpasswd. The
// parent directory is created and the file ends up mode 0600.
func (s *Setter) Set(ctx context.Context, passwordFile, password string) error {
	if err := Validate(password); err != nil {
		return err
	}

	if _, err := exec.LookPath("vncpasswd"); err != nil {
		return errors.NewNotFoundError("binary", "vncpasswd").WithCause(err)
	}

	dir := filepath.Dir(passwordFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	cmd := exec.CommandContext(ctx, "vncpasswd", passwordFile)
	tty, err := s.start(cmd)
	if err != nil {
		return errors.Wrap(err, "failed to start vncpasswd")
	}

	answerErr := answerPrompts(ctx, tty, password)
	_ = tty.Close()

	if err := cmd.Wait(); err != nil {
		if answerErr != nil {
			return errors.Wrap(answerErr, "vncpasswd prompt handling failed")
		}
		return errors.Wrap(err, "vncpasswd failed")
	}

	// vncpasswd writes 0600 itself, but enforce it in case of umask
	// oddities or an older tool.
	if err := os.Chmod(passwordFile, 0600); err != nil {
		return errors.Wrapf(err, "failed to set mode on %s", passwordFile)
	}

	s.logger.Info("VNC password updated", "file", passwordFile)
	return nil
}

// readResult carries one pty read off the reader goroutine.
type readResult struct {
	data []byte
	err  error
}

// answerPrompts reads vncpasswd's prompts from the pty and answers
// them: the password twice, then "n" to decline a view-only password.
// Reads happen on their own goroutine so a tool that hangs without
// emitting a prompt cannot block past the timeout or a canceled
// context. Set closes the pty afterwards, which unblocks the reader.
func answerPrompts(ctx context.Context, tty io.ReadWriter, password string) error {
	reads := make(chan readResult)
	go func() {
		for {
			buf := make([]byte, 256)
			n, err := tty.Read(buf)
			select {
			case reads <- readResult{data: buf[:n], err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	timeout := time.NewTimer(promptTimeout)
	defer timeout.Stop()

	var window strings.Builder
	answered := 0
	for answered < 3 {
		var res readResult
		select {
		case res = <-reads:
		case <-timeout.C:
			return errors.New("timed out waiting for vncpasswd prompt")
		case <-ctx.Done():
			return ctx.Err()
		}

		if len(res.data) > 0 {
			window.Write(res.data)
			text := strings.ToLower(window.String())
			switch {
			case answered < 2 && (strings.Contains(text, "password:") || strings.Contains(text, "verify:")):
				if _, werr := io.WriteString(tty, password+"\n"); werr != nil {
					return werr
				}
				answered++
				window.Reset()
			case answered == 2 && strings.Contains(text, "view-only"):
				if _, werr := io.WriteString(tty, "n\n"); werr != nil {
					return werr
				}
				answered++
				window.Reset()
			}
		}
		if res.err != nil {
			// EOF after both password prompts means the tool skipped the
			// view-only question, which some versions do.
			if res.err == io.EOF && answered >= 2 {
				return nil
			}
			return res.err
		}
	}
	return nil
}
