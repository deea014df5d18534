package killer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/productdevbook/portzap/internal/scanner"
)

// fakeSignaler records sends and reports the process dead once deadAfter
// liveness probes have been answered.
type fakeSignaler struct {
	mu        sync.Mutex
	sent      []Signal
	sendErr   map[Signal]error
	deadAfter int // -1 never dies
	probes    int
	killDies  bool
	killed    bool
}

func (f *fakeSignaler) send(_ int, sig Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sig)
	if err := f.sendErr[sig]; err != nil {
		return err
	}
	if sig == Kill && f.killDies {
		f.killed = true
	}
	return nil
}

func (f *fakeSignaler) alive(int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	if f.killed {
		return false
	}
	return f.deadAfter < 0 || f.probes <= f.deadAfter
}

func fastTerminator(sig signaler) *Terminator {
	t := newTerminator(sig)
	t.pollInterval = time.Millisecond
	t.settleDelay = time.Millisecond
	return t
}

var target = scanner.ProcessInfo{PID: 4242, Name: "node", Port: 3000, Protocol: scanner.TCP}

func TestKillDryRunSendsNothing(t *testing.T) {
	f := &fakeSignaler{deadAfter: -1}
	cfg := DefaultConfig()
	cfg.DryRun = true

	res := fastTerminator(f).Kill(context.Background(), target, cfg)

	assert.True(t, res.Success)
	assert.Equal(t, "SIGTERM (dry-run)", res.SignalSent)
	assert.Empty(t, f.sent)
	assert.Zero(t, f.probes)
	assert.Equal(t, target, res.Process)
}

func TestKillRejectsNonPositivePID(t *testing.T) {
	for _, pid := range []int{0, -1, -4242} {
		f := &fakeSignaler{deadAfter: -1}
		p := target
		p.PID = pid

		res := fastTerminator(f).Kill(context.Background(), p, DefaultConfig())

		assert.False(t, res.Success, pid)
		assert.Equal(t, ErrInvalidPID.Error(), res.Error, pid)
		assert.Empty(t, f.sent, pid)
		assert.Zero(t, f.probes, pid)
	}
}

func TestKillNotGracefulSendsOnce(t *testing.T) {
	f := &fakeSignaler{deadAfter: -1}
	cfg := Config{Signal: Hup}

	res := fastTerminator(f).Kill(context.Background(), target, cfg)

	assert.True(t, res.Success)
	assert.Equal(t, "SIGHUP", res.SignalSent)
	assert.Equal(t, []Signal{Hup}, f.sent)
	assert.Zero(t, f.probes)
}

func TestKillGracefulExitsInTime(t *testing.T) {
	f := &fakeSignaler{deadAfter: 3}
	cfg := DefaultConfig()

	res := fastTerminator(f).Kill(context.Background(), target, cfg)

	assert.True(t, res.Success)
	assert.Equal(t, "SIGTERM", res.SignalSent)
	assert.Equal(t, []Signal{Term}, f.sent)
}

func TestKillGracefulEscalates(t *testing.T) {
	f := &fakeSignaler{deadAfter: -1, killDies: true}
	cfg := DefaultConfig()
	cfg.GracefulTimeout = 20 * time.Millisecond

	res := fastTerminator(f).Kill(context.Background(), target, cfg)

	assert.True(t, res.Success)
	assert.Equal(t, "SIGTERM -> SIGKILL", res.SignalSent)
	assert.Equal(t, []Signal{Term, Kill}, f.sent)
}

func TestKillGracefulUsesConfiguredSignal(t *testing.T) {
	f := &fakeSignaler{deadAfter: -1, killDies: true}
	cfg := Config{Signal: Int, Graceful: true, GracefulTimeout: 10 * time.Millisecond}

	res := fastTerminator(f).Kill(context.Background(), target, cfg)

	assert.Equal(t, "SIGINT -> SIGKILL", res.SignalSent)
	assert.Equal(t, []Signal{Int, Kill}, f.sent)
}

func TestKillGracefulWithSigkillDoesNotWait(t *testing.T) {
	f := &fakeSignaler{deadAfter: -1}
	cfg := Config{Signal: Kill, Graceful: true, GracefulTimeout: time.Hour}

	res := fastTerminator(f).Kill(context.Background(), target, cfg)

	assert.True(t, res.Success)
	assert.Equal(t, "SIGKILL", res.SignalSent)
	assert.Equal(t, []Signal{Kill}, f.sent)
	assert.Zero(t, f.probes)
}

func TestKillFirstSendFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		success  bool
		vanished bool
		msg      string
	}{
		{"permission", ErrPermissionDenied, false, false, "sudo"},
		{"vanished", ErrProcessVanished, true, true, ""},
		{"unsupported", ErrUnsupportedPlatform, false, false, "not supported"},
		{"other", errors.New("EINVAL"), false, false, "EINVAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeSignaler{deadAfter: -1, sendErr: map[Signal]error{Term: tt.err}}

			res := fastTerminator(f).Kill(context.Background(), target, DefaultConfig())

			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.vanished, res.Vanished)
			assert.Equal(t, "SIGTERM", res.SignalSent)
			if tt.msg == "" {
				assert.Empty(t, res.Error)
			} else {
				assert.Contains(t, res.Error, tt.msg)
			}
			assert.Zero(t, f.probes)
		})
	}
}

func TestKillEscalationFailure(t *testing.T) {
	f := &fakeSignaler{deadAfter: -1, sendErr: map[Signal]error{Kill: ErrPermissionDenied}}
	cfg := DefaultConfig()
	cfg.GracefulTimeout = 5 * time.Millisecond

	res := fastTerminator(f).Kill(context.Background(), target, cfg)

	assert.False(t, res.Success)
	assert.Equal(t, "SIGKILL", res.SignalSent)
	assert.Contains(t, res.Error, "permission denied")
}

func TestKillExitBeforeEscalation(t *testing.T) {
	f := &fakeSignaler{deadAfter: -1, sendErr: map[Signal]error{Kill: ErrProcessVanished}}
	cfg := DefaultConfig()
	cfg.GracefulTimeout = 5 * time.Millisecond

	res := fastTerminator(f).Kill(context.Background(), target, cfg)

	assert.True(t, res.Success)
	assert.Equal(t, "SIGTERM", res.SignalSent)
}

func TestKillInterrupted(t *testing.T) {
	f := &fakeSignaler{deadAfter: -1}
	term := newTerminator(f)
	cfg := DefaultConfig()
	cfg.GracefulTimeout = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := term.Kill(ctx, target, cfg)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, res.Success)
	assert.Equal(t, "interrupted", res.Error)
	assert.Equal(t, []Signal{Term}, f.sent)
}

func TestKillTwiceOnGoneProcessIsHarmless(t *testing.T) {
	f := &fakeSignaler{deadAfter: -1, sendErr: map[Signal]error{Term: ErrProcessVanished}}
	term := fastTerminator(f)

	first := term.Kill(context.Background(), target, DefaultConfig())
	second := term.Kill(context.Background(), target, DefaultConfig())

	assert.Equal(t, first, second)
	assert.True(t, second.Vanished)
}

func TestParseSignal(t *testing.T) {
	for in, want := range map[string]Signal{
		"term": Term, "KILL": Kill, "SIGINT": Int, "sighup": Hup, " term ": Term,
	} {
		got, err := ParseSignal(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSignal("usr1")
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, Term, cfg.Signal)
	assert.True(t, cfg.Graceful)
	assert.Equal(t, 5*time.Second, cfg.GracefulTimeout)
	assert.False(t, cfg.DryRun)
}
