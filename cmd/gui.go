package cmd

import (
	"errors"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var errNoTerminal = errors.New("this command needs an interactive terminal")

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newGUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "gui",
		Aliases: []string{"ui", "tui"},
		Short:   "Browse and kill listening processes interactively",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.isTerminal(os.Stdin) || !a.isTerminal(os.Stdout) {
				return errNoTerminal
			}
			return a.runTUI(cmd.Context(), a.newScanner(), a.newTerminator(), a.newStore())
		},
	}
}
