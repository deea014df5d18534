package scanner

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// lsofArgs asks for every internet socket in field output: pid, command,
// login, protocol and name. +c 0 keeps full command names.
var lsofArgs = []string{"-nP", "-iTCP", "-iUDP", "+c", "0", "-F", "pcLPn"}

// lsofResult interprets an lsof run. lsof exits 1 both when nothing
// matched and after per-file warnings, so a status of 1 with output is
// parsed like a clean run.
func lsofResult(output []byte, err error) ([]lsofProcess, error) {
	if err != nil {
		var exit interface{ ExitCode() int }
		if !errors.As(err, &exit) || exit.ExitCode() != 1 {
			return nil, fmt.Errorf("failed to list sockets with lsof: %w", err)
		}
		if len(output) == 0 {
			return nil, nil
		}
		logger.WithError(err).Debug("lsof reported warnings, using partial output")
	}
	return parseLsofFields(output), nil
}

type lsofSocket struct {
	proto   Protocol
	address string
	port    int
}

type lsofProcess struct {
	pid     int
	name    string
	user    string
	sockets []lsofSocket
}

// parseLsofFields parses `lsof -F pcLPn` output. Each line starts with a
// one-letter field tag: 'p' opens a process set, 'f' opens a file within
// it, and the remaining tags describe the current process or file.
func parseLsofFields(output []byte) []lsofProcess {
	var procs []lsofProcess
	var cur *lsofProcess
	var sock *lsofSocket

	flushSocket := func() {
		if cur != nil && sock != nil && sock.port > 0 {
			cur.sockets = append(cur.sockets, *sock)
		}
		sock = nil
	}
	flushProcess := func() {
		flushSocket()
		if cur != nil {
			procs = append(procs, *cur)
		}
		cur = nil
	}

	sc := bufio.NewScanner(bytes.NewReader(output))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		tag, value := line[0], line[1:]
		switch tag {
		case 'p':
			flushProcess()
			pid, err := strconv.Atoi(value)
			if err != nil {
				continue
			}
			cur = &lsofProcess{pid: pid}
		case 'c':
			if cur != nil {
				cur.name = unescapeProcessName(value)
			}
		case 'L':
			if cur != nil {
				cur.user = value
			}
		case 'f':
			flushSocket()
			if cur != nil {
				sock = &lsofSocket{}
			}
		case 'P':
			if sock != nil {
				switch strings.ToUpper(value) {
				case "TCP":
					sock.proto = TCP
				case "UDP":
					sock.proto = UDP
				}
			}
		case 'n':
			if sock != nil {
				local, _, _ := strings.Cut(value, "->")
				sock.address, sock.port = splitHostPort(local)
			}
		}
	}
	flushProcess()
	return procs
}

// splitHostPort splits lsof's "host:port" names, where host may be "*" or a
// bracketed IPv6 literal.
func splitHostPort(name string) (string, int) {
	host, portStr, err := net.SplitHostPort(name)
	if err != nil {
		i := strings.LastIndexByte(name, ':')
		if i < 0 {
			return "", 0
		}
		host, portStr = name[:i], name[i+1:]
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0
	}
	if host == "" {
		host = "*"
	}
	return host, port
}

// matchLsof walks each process's sockets. With port > 0 a process is
// reported once, at its first socket on that port; with port == 0 once
// per distinct bound (port, protocol), whatever the socket state.
func matchLsof(procs []lsofProcess, port int) []ProcessInfo {
	var results []ProcessInfo
	for _, p := range procs {
		name := p.name
		if name == "" {
			name = unknownName
		}
		seen := make(map[bindingKey]bool)
		for _, s := range p.sockets {
			if s.proto == "" {
				continue
			}
			if port > 0 && s.port != port {
				continue
			}
			rec := ProcessInfo{
				PID:      p.pid,
				Name:     name,
				Port:     s.port,
				Protocol: s.proto,
				User:     p.user,
				Address:  s.address,
			}
			if port > 0 {
				results = append(results, rec)
				break
			}
			k := keyOf(rec)
			if seen[k] {
				continue
			}
			seen[k] = true
			results = append(results, rec)
		}
	}
	return results
}

// unescapeProcessName decodes the \xHH escapes lsof uses for unprintable
// bytes in command names (e.g. "Code\x20Helper").
func unescapeProcessName(name string) string {
	if !strings.Contains(name, `\x`) {
		return name
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		if name[i] == '\\' && i+3 < len(name) && name[i+1] == 'x' {
			if v, err := strconv.ParseUint(name[i+2:i+4], 16, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(name[i])
	}
	return b.String()
}
