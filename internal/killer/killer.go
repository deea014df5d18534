// Package killer terminates processes with an optional graceful phase that
// escalates to SIGKILL when the target outlives its timeout.
package killer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/productdevbook/portzap/internal/log"
	"github.com/productdevbook/portzap/internal/scanner"
)

var logger = log.Component("killer")

var (
	// ErrPermissionDenied means the caller may not signal the target.
	ErrPermissionDenied = errors.New("permission denied. Try running with sudo")
	// ErrProcessVanished means the target no longer exists.
	ErrProcessVanished = errors.New("process no longer exists")
	// ErrInvalidPID means the target pid is not a single process.
	ErrInvalidPID = errors.New("invalid pid")
	// ErrUnsupportedPlatform means signalling is not implemented on this OS.
	ErrUnsupportedPlatform = errors.New("process termination is not supported on this platform")
)

const (
	// PollInterval is how often liveness is checked during the graceful wait.
	PollInterval = 100 * time.Millisecond
	// SettleDelay is the pause after SIGKILL before reporting.
	SettleDelay = 100 * time.Millisecond
)

// Signal names a termination signal.
type Signal string

const (
	Term Signal = "SIGTERM"
	Kill Signal = "SIGKILL"
	Int  Signal = "SIGINT"
	Hup  Signal = "SIGHUP"
)

func (s Signal) String() string { return string(s) }

// Signals lists the accepted signals in flag order.
var Signals = []Signal{Term, Kill, Int, Hup}

// ParseSignal accepts "term", "TERM" or "SIGTERM" style names.
func ParseSignal(name string) (Signal, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if !strings.HasPrefix(n, "SIG") {
		n = "SIG" + n
	}
	for _, s := range Signals {
		if string(s) == n {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown signal %q (want term, kill, int or hup)", name)
}

// Config is the kill policy for one invocation.
type Config struct {
	Signal          Signal
	Graceful        bool
	GracefulTimeout time.Duration
	DryRun          bool
}

// DefaultConfig is SIGTERM with a five second graceful phase.
func DefaultConfig() Config {
	return Config{
		Signal:          Term,
		Graceful:        true,
		GracefulTimeout: 5 * time.Second,
	}
}

// Result is the outcome of one kill attempt.
type Result struct {
	Process    scanner.ProcessInfo `json:"process" yaml:"process"`
	Success    bool                `json:"success" yaml:"success"`
	SignalSent string              `json:"signal_sent" yaml:"signal_sent"`
	Error      string              `json:"error,omitempty" yaml:"error,omitempty"`
	Vanished   bool                `json:"vanished,omitempty" yaml:"vanished,omitempty"`
}

// signaler is the OS-specific half of the terminator.
type signaler interface {
	send(pid int, sig Signal) error
	alive(pid int) bool
}

// Terminator applies a Config to processes. It holds no per-attempt state.
type Terminator struct {
	sig          signaler
	pollInterval time.Duration
	settleDelay  time.Duration
}

// New returns a Terminator for the current platform.
func New() *Terminator {
	return newTerminator(newPlatformSignaler())
}

func newTerminator(sig signaler) *Terminator {
	return &Terminator{sig: sig, pollInterval: PollInterval, settleDelay: SettleDelay}
}

// Kill runs one attempt against p. It blocks for at most the graceful
// timeout plus two poll intervals and returns early when ctx is done.
func (t *Terminator) Kill(ctx context.Context, p scanner.ProcessInfo, cfg Config) Result {
	sig := cfg.Signal
	if sig == "" {
		sig = Term
	}
	entry := logger.WithFields(logrus.Fields{"pid": p.PID, "port": p.Port, "signal": sig})

	// Zero and negative pids address process groups.
	if p.PID <= 0 {
		entry.Warn("refusing to signal invalid pid")
		return Result{Process: p, SignalSent: sig.String(), Error: ErrInvalidPID.Error()}
	}

	if cfg.DryRun {
		entry.Debug("dry run, no signal sent")
		return Result{Process: p, Success: true, SignalSent: sig.String() + " (dry-run)"}
	}

	entry.Debug("sending signal")
	if err := t.sig.send(p.PID, sig); err != nil {
		return failure(p, sig.String(), err)
	}
	if !cfg.Graceful || sig == Kill {
		return Result{Process: p, Success: true, SignalSent: sig.String()}
	}

	if t.waitForExit(ctx, p.PID, cfg.GracefulTimeout) {
		return Result{Process: p, Success: true, SignalSent: sig.String()}
	}
	if err := ctx.Err(); err != nil {
		entry.WithError(err).Debug("graceful wait interrupted")
		return Result{Process: p, SignalSent: sig.String(), Error: "interrupted"}
	}

	entry.WithField("timeout", cfg.GracefulTimeout).Info("process outlived graceful timeout, escalating")
	if err := t.sig.send(p.PID, Kill); err != nil {
		// It exited between the last poll and the escalation.
		if errors.Is(err, ErrProcessVanished) {
			return Result{Process: p, Success: true, SignalSent: sig.String()}
		}
		return failure(p, Kill.String(), err)
	}
	sleep(ctx, t.settleDelay)
	return Result{Process: p, Success: true, SignalSent: fmt.Sprintf("%s -> %s", sig, Kill)}
}

// waitForExit polls liveness until pid is gone, timeout elapses on the
// wall clock, or ctx is done.
func (t *Terminator) waitForExit(ctx context.Context, pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !t.sig.alive(pid) {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		if !sleep(ctx, min(t.pollInterval, time.Until(deadline))) {
			return false
		}
	}
}

func failure(p scanner.ProcessInfo, label string, err error) Result {
	if errors.Is(err, ErrProcessVanished) {
		return Result{Process: p, Success: true, SignalSent: label, Vanished: true}
	}
	logger.WithFields(logrus.Fields{"pid": p.PID, "signal": label}).WithError(err).Debug("signal failed")
	return Result{Process: p, SignalSent: label, Error: err.Error()}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
