//go:build !unix && !windows

package killer

type unsupportedSignaler struct{}

func newPlatformSignaler() signaler {
	return unsupportedSignaler{}
}

func (unsupportedSignaler) send(int, Signal) error { return ErrUnsupportedPlatform }

func (unsupportedSignaler) alive(int) bool { return false }
