package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/productdevbook/portzap/internal/commands"
	"github.com/productdevbook/portzap/internal/killer"
	"github.com/productdevbook/portzap/internal/portspec"
)

// killFlags are shared by the root command, kill and watch.
type killFlags struct {
	signal      string
	noGraceful  bool
	timeout     int
	dryRun      bool
	interactive bool
}

func (f *killFlags) register(fs *pflag.FlagSet) {
	def := killer.DefaultConfig()
	fs.StringVarP(&f.signal, "signal", "s", "term", "Signal to send first: term, kill, int or hup")
	fs.BoolVar(&f.noGraceful, "no-graceful", false, "Send the signal once without escalating to SIGKILL")
	fs.IntVarP(&f.timeout, "timeout", "t", int(def.GracefulTimeout/time.Second), "Seconds to wait before escalating to SIGKILL")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Show what would be killed without sending anything")
}

func (f *killFlags) registerInteractive(fs *pflag.FlagSet) {
	fs.BoolVarP(&f.interactive, "interactive", "i", false, "Choose which processes to kill")
}

func (f *killFlags) config(v *viper.Viper) (killer.Config, error) {
	sig, err := killer.ParseSignal(v.GetString("signal"))
	if err != nil {
		return killer.Config{}, err
	}
	timeout := v.GetInt("timeout")
	if timeout < 0 {
		timeout = 0
	}
	return killer.Config{
		Signal:          sig,
		Graceful:        !v.GetBool("no-graceful"),
		GracefulTimeout: time.Duration(timeout) * time.Second,
		DryRun:          v.GetBool("dry-run"),
	}, nil
}

func newKillCmd(a *app) *cobra.Command {
	kf := &killFlags{}
	cmd := &cobra.Command{
		Use:   "kill PORTS...",
		Short: "Kill the processes bound to one or more ports",
		Long: `Kill every process bound to the given ports. Sends SIGTERM by default and
escalates to SIGKILL after --timeout seconds unless --no-graceful is set.`,
		Example: "  portzap kill 3000\n  portzap kill 8000-8010 --signal kill\n  portzap kill 5173 -i",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKill(cmd, a, kf, args)
		},
	}
	kf.register(cmd.Flags())
	kf.registerInteractive(cmd.Flags())
	return cmd
}

func runKill(cmd *cobra.Command, a *app, kf *killFlags, args []string) error {
	specs, err := portspec.ParseAll(args)
	if err != nil {
		return err
	}
	v, err := settings(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := kf.config(v)
	if err != nil {
		return err
	}

	r, err := a.runner()
	if err != nil {
		return err
	}
	interactive := cmd.Flags().Lookup("interactive") != nil && v.GetBool("interactive")
	if interactive {
		if r.Select, err = a.selector(a); err != nil {
			return err
		}
	}

	ok, err := r.Kill(cmd.Context(), commands.KillOptions{
		Ports:       specs,
		Config:      cfg,
		Interactive: interactive,
	})
	if err != nil {
		return err
	}
	if !ok {
		return errFailed
	}
	return nil
}
