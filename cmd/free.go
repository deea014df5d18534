package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/productdevbook/portzap/internal/portspec"
)

const defaultFreeStart = 3000

func newFreeCmd(a *app) *cobra.Command {
	var maxPort int
	cmd := &cobra.Command{
		Use:   "free [START]",
		Short: "Print the first free port at or above START",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := defaultFreeStart
			if len(args) == 1 {
				spec, err := portspec.Parse(args[0])
				if err != nil {
					return err
				}
				if spec.IsRange() {
					return fmt.Errorf("free takes a single start port, got range %s", spec)
				}
				start = spec.Start
			}
			v, err := settings(cmd.Flags())
			if err != nil {
				return err
			}
			end := v.GetInt("max")
			if end < start || end > 65535 {
				return fmt.Errorf("--max must be between %d and 65535, got %d", start, end)
			}
			r, err := a.runner()
			if err != nil {
				return err
			}
			_, found, err := r.Free(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if !found {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxPort, "max", 65535, "Last port to try")
	return cmd
}
