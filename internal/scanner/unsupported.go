//go:build !linux && !darwin && !windows

package scanner

import "context"

type unsupportedScanner struct{}

func newPlatformScanner() Scanner {
	return unsupportedScanner{}
}

func (unsupportedScanner) FindByPort(context.Context, int) ([]ProcessInfo, error) {
	return nil, ErrUnsupportedPlatform
}

func (unsupportedScanner) FindAllListening(context.Context) ([]ProcessInfo, error) {
	return nil, ErrUnsupportedPlatform
}
