//go:generate go run go.uber.org/mock/mockgen -package mock -destination mock/mock.go github.com/productdevbook/portzap/internal/scanner Scanner

package scanner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/productdevbook/portzap/internal/log"
)

var logger = log.Component("scanner")

// ErrUnsupportedPlatform is returned by every call on hosts without a backend.
var ErrUnsupportedPlatform = errors.New("port scanning is not supported on " + runtime.GOOS)

// Protocol is the transport protocol of a binding.
type Protocol string

const (
	TCP Protocol = "tcp"
	UDP Protocol = "udp"
)

func (p Protocol) String() string {
	return strings.ToUpper(string(p))
}

// ProcessInfo is one observed (pid, port, protocol) binding.
type ProcessInfo struct {
	PID      int      `json:"pid" yaml:"pid"`
	Name     string   `json:"name" yaml:"name"`
	Port     int      `json:"port" yaml:"port"`
	Protocol Protocol `json:"protocol" yaml:"protocol"`
	Command  string   `json:"command,omitempty" yaml:"command,omitempty"`
	User     string   `json:"user,omitempty" yaml:"user,omitempty"`
	Address  string   `json:"address,omitempty" yaml:"address,omitempty"`
}

func (p ProcessInfo) String() string {
	return fmt.Sprintf("PID %d (%s) on port %d/%s", p.PID, p.Name, p.Port, p.Protocol)
}

// Scanner resolves ports to the processes bound to them.
type Scanner interface {
	// FindByPort returns the processes with a TCP/UDP, v4/v6 binding of
	// port, each process at most once. An empty result means nothing is
	// bound and is not an error.
	FindByPort(ctx context.Context, port int) ([]ProcessInfo, error)
	// FindAllListening returns every bound (port, protocol, process) on the
	// host in any socket state, unique
	// per (pid, port, protocol) and ordered by port, then pid.
	FindAllListening(ctx context.Context) ([]ProcessInfo, error)
}

// New returns the scanner for the current platform.
func New() Scanner {
	return newPlatformScanner()
}

const unknownName = "<unknown>"

type bindingKey struct {
	pid   int
	port  int
	proto Protocol
}

func keyOf(p ProcessInfo) bindingKey {
	return bindingKey{pid: p.PID, port: p.Port, proto: p.Protocol}
}

// finalize drops duplicate (pid, port, protocol) records, keeping the
// first, and sorts by port, pid, then protocol.
func finalize(in []ProcessInfo) []ProcessInfo {
	seen := make(map[bindingKey]bool, len(in))
	out := make([]ProcessInfo, 0, len(in))
	for _, p := range in {
		k := keyOf(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Port != out[j].Port {
			return out[i].Port < out[j].Port
		}
		if out[i].PID != out[j].PID {
			return out[i].PID < out[j].PID
		}
		return out[i].Protocol < out[j].Protocol
	})
	return out
}
