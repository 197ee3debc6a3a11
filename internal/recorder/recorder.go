// Package recorder supervises a single child process under a
// pseudo-terminal: it copies child output to the user's screen while
// persisting a timed transcript, forwards keystrokes to the child, and
// propagates window-resize signals to the PTY.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/tty-session/ttyrec/pkg/ttyrec"
)

// FrameWriter is the subset of *ttyrec.Writer the recorder depends on.
type FrameWriter interface {
	WriteFrame(t time.Time, data []byte) error
}

// Recorder spawns command under a PTY, teeing its output to Stdout and
// to Transcript, and forwarding Stdin to the child.
type Recorder struct {
	Command    string
	Stdin      io.Reader
	Stdout     io.Writer
	Transcript FrameWriter
	Logger     *slog.Logger

	// InFd, when non-nil, is queried for the controlling terminal's
	// current size; when nil, os.Stdin's descriptor is queried.
	InFd *int
}

// New builds a Recorder for command, reading keystrokes from stdin,
// writing child output to stdout, and persisting frames to transcript.
func New(command string, stdin io.Reader, stdout io.Writer, transcript FrameWriter) *Recorder {
	return &Recorder{
		Command:    command,
		Stdin:      stdin,
		Stdout:     stdout,
		Transcript: transcript,
		Logger:     slog.Default(),
	}
}

// Run starts the child under a PTY sized to the current terminal (or
// 24x80 if size cannot be determined), and supervises it until it
// exits or ctx is cancelled. It installs a SIGWINCH handler for the
// lifetime of the call and restores default handling on return.
func (r *Recorder) Run(ctx context.Context) error {
	shell := r.Command
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", "exec "+shell)
	cmd.Env = os.Environ()

	size := r.querySize()
	ptmx, err := pty.StartWithSize(cmd, size)
	if err != nil {
		return fmt.Errorf("recorder: start pty: %w", err)
	}
	defer ptmx.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return r.copyOutputFrom(ptmx) })
	g.Go(func() error { return r.copyInputTo(gctx, ptmx) })
	g.Go(func() error { return r.watchResize(gctx, ptmx, sigCh) })
	g.Go(func() error {
		err := cmd.Wait()
		_ = ptmx.Close()
		return err
	})

	if err := g.Wait(); err != nil && !isBenignExit(err) {
		return fmt.Errorf("recorder: %w", err)
	}
	return nil
}

// copyOutputFrom tees PTY output to Stdout and the transcript until the
// child closes its end. An EIO read error means the child has exited
// on some platforms; that is treated as clean end of stream rather
// than an error.
func (r *Recorder) copyOutputFrom(src io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			if _, werr := r.Stdout.Write(chunk); werr != nil {
				return fmt.Errorf("write stdout: %w", werr)
			}
			if werr := r.Transcript.WriteFrame(time.Now(), chunk); werr != nil {
				return fmt.Errorf("write transcript: %w", werr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) {
				return nil
			}
			return fmt.Errorf("read pty: %w", err)
		}
	}
}

// copyInputTo forwards Stdin keystrokes to dst until ctx is cancelled
// or Stdin reaches EOF.
func (r *Recorder) copyInputTo(ctx context.Context, dst io.Writer) error {
	buf := make([]byte, 1024)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := r.Stdin.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return nil
			}
		}
		if err != nil {
			return nil
		}
	}
}

// watchResize re-queries the controlling terminal's size on every
// SIGWINCH and propagates it to the PTY.
func (r *Recorder) watchResize(ctx context.Context, ptmx *os.File, sigCh <-chan os.Signal) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigCh:
			size := r.querySize()
			if err := pty.Setsize(ptmx, size); err != nil {
				r.Logger.Warn("failed to propagate resize", "error", err)
			}
		}
	}
}

func (r *Recorder) querySize() *pty.Winsize {
	fd := int(os.Stdin.Fd())
	if r.InFd != nil {
		fd = *r.InFd
	}
	if w, h, err := term.GetSize(fd); err == nil {
		return &pty.Winsize{Rows: uint16(h), Cols: uint16(w)}
	}
	if ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ); err == nil {
		return &pty.Winsize{Rows: ws.Row, Cols: ws.Col}
	}
	return &pty.Winsize{Rows: 24, Cols: 80}
}

// isBenignExit reports whether err is just the child's normal
// termination surfacing through cmd.Wait via errgroup, rather than a
// true I/O failure.
func isBenignExit(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
