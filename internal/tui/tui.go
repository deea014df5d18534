package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/productdevbook/portzap/internal/config"
	"github.com/productdevbook/portzap/internal/scanner"
)

// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, s scanner.Scanner, k Terminator, store config.Store) error {
	m := New(ctx, s, k, store)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
