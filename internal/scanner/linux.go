//go:build linux

package scanner

import (
	"context"
	"fmt"
	"net"
	"os/user"
	"strconv"
	"strings"

	"github.com/prometheus/procfs"
	"github.com/sirupsen/logrus"
)

type linuxScanner struct {
	fs    procfs.FS
	fsErr error
}

func newPlatformScanner() Scanner {
	fs, err := procfs.NewDefaultFS()
	return &linuxScanner{fs: fs, fsErr: err}
}

func newProcScanner(mountPoint string) (*linuxScanner, error) {
	fs, err := procfs.NewFS(mountPoint)
	if err != nil {
		return nil, err
	}
	return &linuxScanner{fs: fs}, nil
}

// socketEntry is one row of a /proc/net socket table.
type socketEntry struct {
	inode   uint64
	port    int
	proto   Protocol
	address string
	uid     uint64
}

type binding struct {
	port    int
	proto   Protocol
	address string
	uid     uint64
}

func (s *linuxScanner) FindByPort(ctx context.Context, port int) ([]ProcessInfo, error) {
	sockets, err := s.socketIndex(func(e socketEntry) bool { return e.port == port })
	if err != nil {
		return nil, err
	}
	if len(sockets) == 0 {
		return []ProcessInfo{}, nil
	}
	results, err := s.join(ctx, sockets, true)
	if err != nil {
		return nil, err
	}
	return finalize(results), nil
}

func (s *linuxScanner) FindAllListening(ctx context.Context) ([]ProcessInfo, error) {
	sockets, err := s.socketIndex(func(e socketEntry) bool { return e.port > 0 })
	if err != nil {
		return nil, err
	}
	if len(sockets) == 0 {
		return []ProcessInfo{}, nil
	}
	results, err := s.join(ctx, sockets, false)
	if err != nil {
		return nil, err
	}
	return finalize(results), nil
}

// socketIndex reads every socket table and maps inode to binding for the
// entries accepted by keep. Sockets without an owner (inode 0, e.g.
// TIME_WAIT) are skipped. A missing table is tolerated; failing to read
// all of them is not.
func (s *linuxScanner) socketIndex(keep func(socketEntry) bool) (map[uint64]binding, error) {
	if s.fsErr != nil {
		return nil, fmt.Errorf("failed to open /proc: %w", s.fsErr)
	}

	tables := []struct {
		name string
		read func() ([]socketEntry, error)
	}{
		{"tcp", func() ([]socketEntry, error) { t, err := s.fs.NetTCP(); return tcpEntries(t), err }},
		{"tcp6", func() ([]socketEntry, error) { t, err := s.fs.NetTCP6(); return tcpEntries(t), err }},
		{"udp", func() ([]socketEntry, error) { t, err := s.fs.NetUDP(); return udpEntries(t), err }},
		{"udp6", func() ([]socketEntry, error) { t, err := s.fs.NetUDP6(); return udpEntries(t), err }},
	}

	index := make(map[uint64]binding)
	var failed []string
	var lastErr error
	for _, table := range tables {
		entries, err := table.read()
		if err != nil {
			logger.WithError(err).WithField("table", table.name).Debug("skipping unreadable socket table")
			failed = append(failed, table.name)
			lastErr = err
			continue
		}
		for _, e := range entries {
			if e.inode == 0 || !keep(e) {
				continue
			}
			index[e.inode] = binding{port: e.port, proto: e.proto, address: e.address, uid: e.uid}
		}
	}
	if len(failed) == len(tables) {
		return nil, fmt.Errorf("failed to read socket tables (%s): %w", strings.Join(failed, ", "), lastErr)
	}
	return index, nil
}

func tcpEntries(lines procfs.NetTCP) []socketEntry {
	entries := make([]socketEntry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, socketEntry{
			inode:   l.Inode,
			port:    int(l.LocalPort),
			proto:   TCP,
			address: formatAddr(l.LocalAddr),
			uid:     l.UID,
		})
	}
	return entries
}

func udpEntries(lines procfs.NetUDP) []socketEntry {
	entries := make([]socketEntry, 0, len(lines))
	for _, l := range lines {
		entries = append(entries, socketEntry{
			inode:   l.Inode,
			port:    int(l.LocalPort),
			proto:   UDP,
			address: formatAddr(l.LocalAddr),
			uid:     l.UID,
		})
	}
	return entries
}

func formatAddr(ip net.IP) string {
	if ip == nil || ip.IsUnspecified() {
		return "*"
	}
	return ip.String()
}

// join walks every process's descriptors and resolves socket inodes
// against sockets. With firstOnly a process is reported once; otherwise
// once per distinct (port, protocol).
func (s *linuxScanner) join(ctx context.Context, sockets map[uint64]binding, firstOnly bool) ([]ProcessInfo, error) {
	procs, err := s.fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	users := make(map[uint64]string)
	var results []ProcessInfo
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		targets, err := p.FileDescriptorTargets()
		if err != nil {
			logger.WithFields(logrus.Fields{"pid": p.PID, "error": err}).Debug("skipping process")
			continue
		}

		var seen map[bindingKey]bool
		var info *ProcessInfo
		for _, target := range targets {
			inode, ok := socketInode(target)
			if !ok {
				continue
			}
			b, ok := sockets[inode]
			if !ok {
				continue
			}

			if info == nil {
				info = &ProcessInfo{
					PID:     p.PID,
					Name:    procName(p),
					Command: procCommand(p),
				}
			}
			rec := *info
			rec.Port = b.port
			rec.Protocol = b.proto
			rec.Address = b.address
			rec.User = lookupUser(users, b.uid)

			if firstOnly {
				results = append(results, rec)
				break
			}
			if seen == nil {
				seen = make(map[bindingKey]bool)
			}
			k := keyOf(rec)
			if seen[k] {
				continue
			}
			seen[k] = true
			results = append(results, rec)
		}
	}
	return results, nil
}

// socketInode extracts N from an fd link target of the form "socket:[N]".
func socketInode(target string) (uint64, bool) {
	rest, ok := strings.CutPrefix(target, "socket:[")
	if !ok {
		return 0, false
	}
	num, ok := strings.CutSuffix(rest, "]")
	if !ok {
		return 0, false
	}
	inode, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0, false
	}
	return inode, true
}

func procName(p procfs.Proc) string {
	comm, err := p.Comm()
	if err != nil || comm == "" {
		return unknownName
	}
	return comm
}

func procCommand(p procfs.Proc) string {
	args, err := p.CmdLine()
	if err != nil {
		return ""
	}
	return strings.Join(args, " ")
}

func lookupUser(cache map[uint64]string, uid uint64) string {
	if name, ok := cache[uid]; ok {
		return name
	}
	id := strconv.FormatUint(uid, 10)
	name := id
	if u, err := user.LookupId(id); err == nil {
		name = u.Username
	}
	cache[uid] = name
	return name
}
