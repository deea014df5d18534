package scanner

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"
)

// Socket type tags reported by the OS connection table.
const (
	sockStream = 1
	sockDgram  = 2
)

// connectionScanner answers queries from a system-wide connection table
// that already carries owning PIDs, as Windows provides.
type connectionScanner struct {
	connections func(ctx context.Context) ([]net.ConnectionStat, error)
	processName func(ctx context.Context, pid int32) string
}

func newConnectionScanner() *connectionScanner {
	return &connectionScanner{
		connections: func(ctx context.Context) ([]net.ConnectionStat, error) {
			return net.ConnectionsWithContext(ctx, "inet")
		},
		processName: lookupProcessName,
	}
}

func (s *connectionScanner) FindByPort(ctx context.Context, port int) ([]ProcessInfo, error) {
	conns, err := s.connections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read connection table: %w", err)
	}
	return finalize(s.convert(ctx, conns, port)), nil
}

func (s *connectionScanner) FindAllListening(ctx context.Context) ([]ProcessInfo, error) {
	conns, err := s.connections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read connection table: %w", err)
	}
	return finalize(s.convert(ctx, conns, 0)), nil
}

// convert turns connection rows into bindings. port == 0 keeps every row
// with a local port; otherwise rows bound locally to port, one per process.
func (s *connectionScanner) convert(ctx context.Context, conns []net.ConnectionStat, port int) []ProcessInfo {
	names := make(map[int32]string)
	matched := make(map[int32]bool)
	var results []ProcessInfo
	for _, c := range conns {
		if c.Pid <= 0 || c.Laddr.Port == 0 {
			continue
		}

		var proto Protocol
		switch c.Type {
		case sockStream:
			proto = TCP
		case sockDgram:
			proto = UDP
		default:
			continue
		}

		if port > 0 {
			if int(c.Laddr.Port) != port || matched[c.Pid] {
				continue
			}
			matched[c.Pid] = true
		}

		name, ok := names[c.Pid]
		if !ok {
			name = s.processName(ctx, c.Pid)
			names[c.Pid] = name
		}

		address := c.Laddr.IP
		if address == "" || address == "0.0.0.0" || address == "::" {
			address = "*"
		}
		results = append(results, ProcessInfo{
			PID:      int(c.Pid),
			Name:     name,
			Port:     int(c.Laddr.Port),
			Protocol: proto,
			Address:  address,
		})
	}
	return results
}

func lookupProcessName(ctx context.Context, pid int32) string {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return unknownName
	}
	name, err := p.NameWithContext(ctx)
	if err != nil || name == "" {
		return unknownName
	}
	return name
}
