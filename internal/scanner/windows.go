//go:build windows

package scanner

func newPlatformScanner() Scanner {
	return newConnectionScanner()
}
