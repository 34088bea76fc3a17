package tools

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
)

// stderrLimit bounds how much of a command's stderr is kept. ffmpeg prints
// a progress line per encoded chunk, and only the tail explains a failure.
const stderrLimit = 64 << 10

// RunOptions configures one ffmpeg or ffprobe invocation.
type RunOptions struct {
	Dir string
	Env []string
	// Stdin feeds the process, e.g. raw frames for an encoder or "q" to
	// stop a capture.
	Stdin io.Reader
	// Stdout replaces the captured stdout, for decoders streaming raw
	// frames into a buffer the caller owns.
	Stdout io.Writer
	// Stderr additionally receives the full stderr stream.
	Stderr io.Writer
}

// RunResult is what a finished command left behind. Stdout is empty when
// RunOptions.Stdout was set; Stderr holds at most the last 64 KiB.
type RunResult struct {
	Stdout []byte
	Stderr []byte
}

// Runner starts the media tools. Probe, decode, encode and capture all go
// through it so tests can stand in for ffmpeg.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error)
}

// CmdRunner runs the real binaries.
type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	cmd.Stdin = opts.Stdin

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	}

	stderr := &tailBuffer{limit: stderrLimit}
	cmd.Stderr = stderr
	if opts.Stderr != nil {
		cmd.Stderr = io.MultiWriter(stderr, opts.Stderr)
	}

	err := cmd.Run()
	return RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}

var _ Runner = CmdRunner{}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n >= t.limit {
		t.buf = append(t.buf[:0], p[n-t.limit:]...)
		return n, nil
	}
	if over := len(t.buf) + n - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

func (t *tailBuffer) Bytes() []byte {
	return t.buf
}
