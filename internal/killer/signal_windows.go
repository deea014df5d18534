//go:build windows

package killer

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// windowsSignaler maps SIGKILL to a forced taskkill and every other signal
// to a polite close request.
type windowsSignaler struct{}

func newPlatformSignaler() signaler {
	return windowsSignaler{}
}

func (windowsSignaler) send(pid int, sig Signal) error {
	args := []string{"/PID", strconv.Itoa(pid)}
	if sig == Kill {
		args = append(args, "/F")
	}
	var stderr bytes.Buffer
	cmd := exec.Command("taskkill", args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		lower := strings.ToLower(msg)
		switch {
		case strings.Contains(lower, "not found"):
			return ErrProcessVanished
		case strings.Contains(lower, "access is denied"):
			return ErrPermissionDenied
		case msg != "":
			return fmt.Errorf("taskkill: %s", msg)
		default:
			return fmt.Errorf("taskkill: %w", err)
		}
	}
	return nil
}

func (windowsSignaler) alive(pid int) bool {
	exists, err := process.PidExists(int32(pid))
	if err != nil {
		return true
	}
	return exists
}
