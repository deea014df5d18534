//go:build darwin

package scanner

import (
	"context"
	"os/exec"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/sirupsen/logrus"
)

type darwinScanner struct {
	lsof string
}

func newPlatformScanner() Scanner {
	return &darwinScanner{lsof: "lsof"}
}

func (s *darwinScanner) FindByPort(ctx context.Context, port int) ([]ProcessInfo, error) {
	procs, err := s.run(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, finalize(matchLsof(procs, port))), nil
}

func (s *darwinScanner) FindAllListening(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := s.run(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, finalize(matchLsof(procs, 0))), nil
}

func (s *darwinScanner) run(ctx context.Context) ([]lsofProcess, error) {
	cmd := exec.CommandContext(ctx, s.lsof, lsofArgs...)
	output, err := cmd.Output()
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return lsofResult(output, err)
}

// enrich fills in command lines. Processes that exit or deny access keep
// an empty command.
func (s *darwinScanner) enrich(ctx context.Context, infos []ProcessInfo) []ProcessInfo {
	cache := make(map[int]string)
	for i := range infos {
		pid := infos[i].PID
		cmdline, ok := cache[pid]
		if !ok {
			cmdline = commandLine(ctx, pid)
			cache[pid] = cmdline
		}
		infos[i].Command = cmdline
	}
	return infos
}

func commandLine(ctx context.Context, pid int) string {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		logger.WithFields(logrus.Fields{"pid": pid, "error": err}).Debug("process gone before command lookup")
		return ""
	}
	args, err := p.CmdlineSliceWithContext(ctx)
	if err != nil {
		logger.WithFields(logrus.Fields{"pid": pid, "error": err}).Debug("cannot read command line")
		return ""
	}
	return strings.Join(args, " ")
}
