//go:generate go run go.uber.org/mock/mockgen -package commands -destination mock_test.go github.com/productdevbook/portzap/internal/commands Terminator

// Package commands drives the scanner and terminator for each CLI verb.
// Every method is sequential: one port, one scan, one kill at a time.
package commands

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/productdevbook/portzap/internal/killer"
	"github.com/productdevbook/portzap/internal/log"
	"github.com/productdevbook/portzap/internal/output"
	"github.com/productdevbook/portzap/internal/portspec"
	"github.com/productdevbook/portzap/internal/scanner"
)

var logger = log.Component("commands")

// ErrSelectionCancelled is returned by a Selector when the user backs out.
var ErrSelectionCancelled = errors.New("selection cancelled")

// Terminator is the part of killer.Terminator the commands use.
type Terminator interface {
	Kill(ctx context.Context, p scanner.ProcessInfo, cfg killer.Config) killer.Result
}

// Selector narrows the processes found on one port to the ones to kill.
type Selector func(ctx context.Context, ps []scanner.ProcessInfo) ([]scanner.ProcessInfo, error)

type Runner struct {
	Scanner    scanner.Scanner
	Terminator Terminator
	Printer    *output.Printer
	// Select is consulted for interactive kills.
	Select Selector
}

type KillOptions struct {
	Ports       []portspec.Spec
	Config      killer.Config
	Interactive bool
}

// Kill resolves every port and applies the kill policy to each process
// found. It reports false when any attempt failed; scan errors abort.
func (r *Runner) Kill(ctx context.Context, opts KillOptions) (bool, error) {
	allOK := true
	for port := range portspec.All(opts.Ports) {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		ps, err := r.Scanner.FindByPort(ctx, port)
		if err != nil {
			return false, err
		}
		if len(ps) == 0 {
			if err := r.Printer.NoProcess(port); err != nil {
				return false, err
			}
			continue
		}

		if opts.Interactive && r.Select != nil {
			if r.Printer.Format == output.Table {
				if err := r.Printer.Processes(ps); err != nil {
					return false, err
				}
			}
			ps, err = r.Select(ctx, ps)
			if errors.Is(err, ErrSelectionCancelled) {
				r.Printer.Info("Selection cancelled.")
				continue
			}
			if err != nil {
				return false, err
			}
			if len(ps) == 0 {
				continue
			}
		}

		results := make([]killer.Result, 0, len(ps))
		for _, p := range ps {
			res := r.Terminator.Kill(ctx, p, opts.Config)
			if !res.Success {
				allOK = false
			}
			results = append(results, res)
		}
		if err := r.Printer.KillResults(results); err != nil {
			return false, err
		}
	}
	return allOK, nil
}

// List prints every listening process, or the processes on each port.
func (r *Runner) List(ctx context.Context, specs []portspec.Spec) error {
	if len(specs) == 0 {
		ps, err := r.Scanner.FindAllListening(ctx)
		if err != nil {
			return err
		}
		if len(ps) == 0 {
			return r.Printer.NoListening()
		}
		return r.Printer.Processes(ps)
	}

	for port := range portspec.All(specs) {
		ps, err := r.Scanner.FindByPort(ctx, port)
		if err != nil {
			return err
		}
		if len(ps) == 0 {
			err = r.Printer.NoProcess(port)
		} else {
			err = r.Printer.Processes(ps)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type WatchOptions struct {
	Ports  []portspec.Spec
	Config killer.Config
	Poll   time.Duration
}

// Watch kills anything that binds one of the ports until ctx is cancelled.
func (r *Runner) Watch(ctx context.Context, opts WatchOptions) error {
	var ports []int
	for port := range portspec.All(opts.Ports) {
		ports = append(ports, port)
	}
	r.Printer.WatchStarted(ports, opts.Poll)

	for {
		for _, port := range ports {
			if ctx.Err() != nil {
				break
			}
			ps, err := r.Scanner.FindByPort(ctx, port)
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				return err
			}
			for _, p := range ps {
				logger.WithFields(logrus.Fields{"pid": p.PID, "port": port}).Debug("watched port is bound")
				res := r.Terminator.Kill(ctx, p, opts.Config)
				if err := r.Printer.KillResults([]killer.Result{res}); err != nil {
					return err
				}
			}
		}
		if !sleep(ctx, opts.Poll) {
			r.Printer.WatchStopped()
			return nil
		}
	}
}

// WaitCondition is the state a wait loop waits for.
type WaitCondition int

const (
	WaitFree WaitCondition = iota
	WaitOccupied
)

func (c WaitCondition) String() string {
	if c == WaitOccupied {
		return output.StatusOccupied
	}
	return output.StatusFree
}

type WaitOptions struct {
	Port  int
	Until WaitCondition
	// Timeout of zero waits forever.
	Timeout time.Duration
	Poll    time.Duration
}

// Wait polls the port until it reaches the wanted state. It reports false
// on timeout or cancellation.
func (r *Runner) Wait(ctx context.Context, opts WaitOptions) (bool, error) {
	want := opts.Until.String()
	r.Printer.WaitStarted(opts.Port, want, opts.Timeout, opts.Poll)

	start := time.Now()
	for {
		ps, err := r.Scanner.FindByPort(ctx, opts.Port)
		if err != nil {
			if ctx.Err() != nil {
				return false, r.Printer.WaitResult(opts.Port, output.StatusInterrupted, want)
			}
			return false, err
		}

		free := len(ps) == 0
		if free == (opts.Until == WaitFree) {
			status := output.StatusOccupied
			if free {
				status = output.StatusFree
			}
			return true, r.Printer.WaitResult(opts.Port, status, want)
		}

		if opts.Timeout > 0 && time.Since(start) >= opts.Timeout {
			return false, r.Printer.WaitResult(opts.Port, output.StatusTimeout, want)
		}

		if !sleep(ctx, opts.Poll) {
			return false, r.Printer.WaitResult(opts.Port, output.StatusInterrupted, want)
		}
	}
}

// Free prints the first port in [start, end] with nothing bound. It
// reports false when every port is taken.
func (r *Runner) Free(ctx context.Context, start, end int) (int, bool, error) {
	for port := start; port <= end; port++ {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		ps, err := r.Scanner.FindByPort(ctx, port)
		if err != nil {
			return 0, false, err
		}
		if len(ps) == 0 {
			return port, true, r.Printer.FreePort(port)
		}
	}
	return 0, false, r.Printer.NoFreePort(start, end)
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
