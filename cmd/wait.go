package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/productdevbook/portzap/internal/commands"
	"github.com/productdevbook/portzap/internal/portspec"
)

func newWaitCmd(a *app) *cobra.Command {
	var (
		until   string
		timeout int
		poll    int
	)
	cmd := &cobra.Command{
		Use:   "wait PORT",
		Short: "Wait until a port is free or occupied",
		Long: `Poll PORT until it is free (--until down, the default) or has a process bound
(--until up). Exits non-zero on timeout or interruption.`,
		Example: "  portzap wait 5432 --until up --timeout 30",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := portspec.Parse(args[0])
			if err != nil {
				return err
			}
			if spec.IsRange() {
				return fmt.Errorf("wait takes a single port, got range %s", spec)
			}
			v, err := settings(cmd.Flags())
			if err != nil {
				return err
			}
			cond, err := parseCondition(v.GetString("until"))
			if err != nil {
				return err
			}
			r, err := a.runner()
			if err != nil {
				return err
			}
			ok, err := r.Wait(cmd.Context(), commands.WaitOptions{
				Port:    spec.Start,
				Until:   cond,
				Timeout: time.Duration(max(v.GetInt("timeout"), 0)) * time.Second,
				Poll:    pollInterval(v.GetInt("poll")),
			})
			if err != nil {
				return err
			}
			if !ok {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&until, "until", "down", "Condition to wait for: down (free) or up (occupied)")
	cmd.Flags().IntVar(&timeout, "timeout", 0, "Give up after this many seconds (0 waits forever)")
	cmd.Flags().IntVar(&poll, "poll", 500, "Milliseconds between checks")
	return cmd
}

func parseCondition(s string) (commands.WaitCondition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "down", "free":
		return commands.WaitFree, nil
	case "up", "occupied":
		return commands.WaitOccupied, nil
	}
	return 0, fmt.Errorf("unknown --until value %q (want down or up)", s)
}
