package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/productdevbook/portzap/internal/commands"
	"github.com/productdevbook/portzap/internal/portspec"
)

func newWatchCmd(a *app) *cobra.Command {
	kf := &killFlags{}
	var poll int
	cmd := &cobra.Command{
		Use:   "watch PORTS...",
		Short: "Keep ports free by killing whatever binds them",
		Long:  `Scan the given ports every --poll milliseconds and kill any process found, until interrupted.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			return r.Watch(cmd.Context(), commands.WatchOptions{
				Ports:  specs,
				Config: cfg,
				Poll:   pollInterval(v.GetInt("poll")),
			})
		},
	}
	kf.register(cmd.Flags())
	cmd.Flags().IntVar(&poll, "poll", 1000, "Milliseconds between scans")
	return cmd
}

func pollInterval(ms int) time.Duration {
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}
