package cmd

import (
	"github.com/spf13/cobra"

	"github.com/productdevbook/portzap/internal/portspec"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list [PORTS...]",
		Aliases: []string{"ls"},
		Short:   "List listening processes",
		Long:    `List every process with a listening TCP socket or bound UDP socket, or only those on the given ports.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := portspec.ParseAll(args)
			if err != nil {
				return err
			}
			r, err := a.runner()
			if err != nil {
				return err
			}
			return r.List(cmd.Context(), specs)
		},
	}
}
