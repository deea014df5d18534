package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/productdevbook/portzap/internal/commands"
	"github.com/productdevbook/portzap/internal/config"
	"github.com/productdevbook/portzap/internal/killer"
	"github.com/productdevbook/portzap/internal/log"
	"github.com/productdevbook/portzap/internal/output"
	"github.com/productdevbook/portzap/internal/scanner"
	"github.com/productdevbook/portzap/internal/tui"
)

var version = "0.1.0"

// exitError carries a non-zero exit status for an outcome that has already
// been reported to the user.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

var errFailed = &exitError{code: 1}

// app holds the collaborators behind every command.
type app struct {
	out    io.Writer
	errOut io.Writer

	newScanner    func() scanner.Scanner
	newTerminator func() commands.Terminator
	newStore      func() config.Store
	runTUI        func(ctx context.Context, s scanner.Scanner, k tui.Terminator, store config.Store) error
	selector      func(a *app) (commands.Selector, error)
	isTerminal    func(f *os.File) bool

	format     string
	jsonOutput bool
	verbose    bool
}

func defaultApp() *app {
	return &app{
		out:           os.Stdout,
		errOut:        os.Stderr,
		newScanner:    scanner.New,
		newTerminator: func() commands.Terminator { return killer.New() },
		newStore:      config.NewStore,
		runTUI:        tui.Run,
		selector:      huhSelector,
		isTerminal:    isTerminal,
	}
}

func (a *app) printer() (*output.Printer, error) {
	name := a.format
	if a.jsonOutput {
		name = string(output.JSON)
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.New(a.out, a.errOut, format), nil
}

func (a *app) runner() (*commands.Runner, error) {
	p, err := a.printer()
	if err != nil {
		return nil, err
	}
	return &commands.Runner{
		Scanner:    a.newScanner(),
		Terminator: a.newTerminator(),
		Printer:    p,
	}, nil
}

func newRootCmd(a *app) *cobra.Command {
	kf := &killFlags{}
	root := &cobra.Command{
		Use:   "portzap [PORTS...]",
		Short: "Find and kill the processes bound to a port",
		Long: `portzap finds the processes listening on TCP and UDP ports and terminates them,
sending SIGTERM first and escalating to SIGKILL when they do not exit in time.

Ports are single numbers or inclusive ranges: portzap 3000 8080-8090`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := settings(cmd.Flags())
			if err != nil {
				return err
			}
			a.format = v.GetString("format")
			a.verbose = v.GetBool("verbose")
			log.Init(a.verbose, a.errOut)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runKill(cmd, a, kf, args)
		},
	}

	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().StringVar(&a.format, "format", string(output.Table), "Output format: table, json, plain or yaml")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format (same as --format json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log diagnostics to stderr")
	kf.register(root.Flags())

	root.AddCommand(
		newKillCmd(a),
		newListCmd(a),
		newWatchCmd(a),
		newWaitCmd(a),
		newFreeCmd(a),
		newGUICmd(a),
	)
	return root
}

// Execute runs the CLI and exits with its status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, defaultApp(), os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(a.errOut, "Error:", err)
	return 1
}
