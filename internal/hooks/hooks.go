// Package hooks runs a user-supplied command after the task list changes.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// maxStderr caps how much hook stderr is kept for error messages.
const maxStderr = 512

// queueSize is how many changes may wait for a busy hook before new ones are
// dropped.
const queueSize = 32

// Options describes one hook invocation.
type Options struct {
	// Command is the executable, optionally followed by arguments split on
	// whitespace.
	Command string
	// Label is appended as the final argument.
	Label string
	// Payload is written to the hook's stdin.
	Payload []byte
	// Dir is the working directory; empty uses the current one.
	Dir string
	// Timeout bounds the run; zero means no limit beyond ctx.
	Timeout time.Duration
}

// Result reports what happened.
type Result struct {
	Ran      bool
	ExitCode int
	Duration time.Duration
}

// Invoke runs the hook once and waits for it. An empty command does nothing.
// A non-zero exit is returned as an error with Ran set.
func Invoke(ctx context.Context, opts Options) (Result, error) {
	fields := strings.Fields(opts.Command)
	if len(fields) == 0 {
		return Result{}, nil
	}
	args := fields[1:]
	if opts.Label != "" {
		args = append(args, opts.Label)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Dir = opts.Dir
	cmd.WaitDelay = time.Second
	cmd.Stdin = bytes.NewReader(opts.Payload)
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start hook %s: %w", fields[0], err)
	}
	err := cmd.Wait()
	res := Result{Ran: true, ExitCode: exitCodeFromError(err), Duration: time.Since(start)}
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return res, fmt.Errorf("hook %s: %w", fields[0], ctx.Err())
	}
	msg := strings.TrimSpace(stderr.String())
	if len(msg) > maxStderr {
		msg = msg[:maxStderr] + "..."
	}
	if msg == "" {
		return res, fmt.Errorf("hook %s exited with code %d", fields[0], res.ExitCode)
	}
	return res, fmt.Errorf("hook %s exited with code %d: %s", fields[0], res.ExitCode, msg)
}

// exitCodeFromError extracts the process exit code, 0 for nil and -1 when
// the error did not come from the process exiting.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

type job struct {
	label   string
	payload []byte
}

// Runner invokes a hook for each queued change, one at a time and in order,
// on a background goroutine. Notify never blocks, so it is safe to call from
// a store subscriber.
type Runner struct {
	command string
	timeout time.Duration
	logger  *log.Logger

	ctx    context.Context
	queue  chan job
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	closed bool
}

// NewRunner starts a runner for command. Runs stop early when ctx is done.
func NewRunner(ctx context.Context, command string, timeout time.Duration, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	r := &Runner{
		command: command,
		timeout: timeout,
		logger:  logger,
		ctx:     ctx,
		queue:   make(chan job, queueSize),
		done:    make(chan struct{}),
	}
	go r.loop()
	return r
}

// Notify queues one run. When the queue is full or the runner is closed the
// change is dropped with a warning.
func (r *Runner) Notify(label string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- job{label: label, payload: payload}:
	default:
		r.logger.Warn("hook busy, dropping change", "label", label)
	}
}

// Close waits for queued runs to finish.
func (r *Runner) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
	})
	<-r.done
}

func (r *Runner) loop() {
	defer close(r.done)
	for j := range r.queue {
		res, err := Invoke(r.ctx, Options{
			Command: r.command,
			Label:   j.label,
			Payload: j.payload,
			Timeout: r.timeout,
		})
		if err != nil {
			r.logger.Error("hook failed", "label", j.label, "exit_code", res.ExitCode, "err", err)
			continue
		}
		r.logger.Debug("hook ran", "label", j.label, "duration", res.Duration)
	}
}
