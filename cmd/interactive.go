package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/productdevbook/portzap/internal/commands"
	"github.com/productdevbook/portzap/internal/output"
	"github.com/productdevbook/portzap/internal/scanner"
)

// huhSelector asks which of the processes on a port to kill. Everything
// starts selected.
func huhSelector(a *app) (commands.Selector, error) {
	if !a.isTerminal(os.Stdin) {
		return nil, fmt.Errorf("--interactive: %w", errNoTerminal)
	}
	return func(ctx context.Context, ps []scanner.ProcessInfo) ([]scanner.ProcessInfo, error) {
		options := make([]huh.Option[int], 0, len(ps))
		for i, p := range ps {
			options = append(options, huh.NewOption(optionLabel(p), i).Selected(true))
		}

		var picked []int
		form := huh.NewForm(huh.NewGroup(
			huh.NewMultiSelect[int]().
				Title(fmt.Sprintf("Kill which processes on port %d?", ps[0].Port)).
				Options(options...).
				Value(&picked),
		)).WithOutput(a.errOut)

		if err := form.RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil, commands.ErrSelectionCancelled
			}
			return nil, err
		}

		chosen := make([]scanner.ProcessInfo, 0, len(picked))
		for _, i := range picked {
			chosen = append(chosen, ps[i])
		}
		return chosen, nil
	}, nil
}

func optionLabel(p scanner.ProcessInfo) string {
	label := fmt.Sprintf("%s (PID %d) %s", p.Name, p.PID, p.Protocol)
	if p.Command != "" {
		label += "  " + output.TruncateCommand(p.Command)
	}
	return label
}
