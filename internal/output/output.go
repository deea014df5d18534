// Package output renders scan and kill results for the terminal or for
// machines. Data goes to Out; progress and per-kill status lines go to Err
// unless a structured format is selected.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/productdevbook/portzap/internal/killer"
	"github.com/productdevbook/portzap/internal/scanner"
)

// Format is an output format name.
type Format string

const (
	Table Format = "table"
	JSON  Format = "json"
	Plain Format = "plain"
	YAML  Format = "yaml"
)

// Formats lists the accepted formats.
var Formats = []Format{Table, JSON, Plain, YAML}

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want table, json, plain or yaml)", s)
}

func (f Format) structured() bool { return f == JSON || f == YAML }

const maxCommandWidth = 80

type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Format Format

	ok   lipgloss.Style
	fail lipgloss.Style
	bold lipgloss.Style
	dim  lipgloss.Style
}

// New returns a Printer. Colors are only emitted when errOut is a terminal.
func New(out, errOut io.Writer, format Format) *Printer {
	r := lipgloss.NewRenderer(errOut)
	return &Printer{
		Out:    out,
		Err:    errOut,
		Format: format,
		ok:     r.NewStyle().Foreground(lipgloss.Color("2")),
		fail:   r.NewStyle().Foreground(lipgloss.Color("1")),
		bold:   r.NewStyle().Bold(true),
		dim:    r.NewStyle().Faint(true),
	}
}

// Processes prints a process listing.
func (p *Printer) Processes(ps []scanner.ProcessInfo) error {
	if ps == nil {
		ps = []scanner.ProcessInfo{}
	}
	switch p.Format {
	case JSON, YAML:
		return p.encode(ps)
	case Plain:
		for _, proc := range ps {
			if _, err := fmt.Fprintf(p.Out, "%d\t%s\t%d\t%s\n", proc.PID, proc.Name, proc.Port, proc.Protocol); err != nil {
				return err
			}
		}
		return nil
	default:
		return p.processTable(ps)
	}
}

func (p *Printer) processTable(ps []scanner.ProcessInfo) error {
	if len(ps) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(p.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PORT\tPROTO\tPID\tPROCESS\tUSER\tADDRESS\tCOMMAND")
	fmt.Fprintln(w, "----\t-----\t---\t-------\t----\t-------\t-------")

	for _, proc := range ps {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			proc.Port, proc.Protocol, proc.PID, proc.Name,
			orDash(proc.User), orDash(proc.Address), orDash(TruncateCommand(proc.Command)))
	}

	return w.Flush()
}

type portProcesses struct {
	Port      int                   `json:"port" yaml:"port"`
	Processes []scanner.ProcessInfo `json:"processes" yaml:"processes"`
}

// NoProcess reports a port with nothing bound.
func (p *Printer) NoProcess(port int) error {
	if p.Format.structured() {
		return p.encode(portProcesses{Port: port, Processes: []scanner.ProcessInfo{}})
	}
	_, err := fmt.Fprintf(p.Err, "No processes found on port %d\n", port)
	return err
}

// NoListening reports an empty host-wide listing.
func (p *Printer) NoListening() error {
	if p.Format.structured() {
		return p.encode([]scanner.ProcessInfo{})
	}
	_, err := fmt.Fprintln(p.Err, "No listening processes found")
	return err
}

// KillResults prints one line per attempt, or the records themselves for
// structured formats.
func (p *Printer) KillResults(rs []killer.Result) error {
	if p.Format.structured() {
		if rs == nil {
			rs = []killer.Result{}
		}
		return p.encode(rs)
	}
	for _, r := range rs {
		var err error
		switch {
		case r.Success && r.Vanished:
			_, err = fmt.Fprintf(p.Err, "%s %s (PID %d) on port %d/%s had already exited\n",
				p.ok.Render("✓"), p.bold.Render(r.Process.Name), r.Process.PID, r.Process.Port, r.Process.Protocol)
		case r.Success:
			_, err = fmt.Fprintf(p.Err, "%s Killed %s (PID %d) on port %d/%s [%s]\n",
				p.ok.Render("✓"), p.bold.Render(r.Process.Name), r.Process.PID, r.Process.Port, r.Process.Protocol,
				p.dim.Render(r.SignalSent))
		default:
			msg := r.Error
			if msg == "" {
				msg = "unknown error"
			}
			_, err = fmt.Fprintf(p.Err, "%s Failed to kill %s (PID %d): %s\n",
				p.fail.Render("✗"), p.bold.Render(r.Process.Name), r.Process.PID, msg)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WaitStatus values.
const (
	StatusFree        = "free"
	StatusOccupied    = "occupied"
	StatusTimeout     = "timeout"
	StatusInterrupted = "interrupted"
)

type portStatus struct {
	Port   int    `json:"port" yaml:"port"`
	Status string `json:"status" yaml:"status"`
}

// WaitStarted announces a wait loop on stderr.
func (p *Printer) WaitStarted(port int, want string, timeout, poll time.Duration) {
	limit := "infinite"
	if timeout > 0 {
		limit = timeout.String()
	}
	fmt.Fprintf(p.Err, "Waiting for port %d to become %s (timeout: %s, poll: %dms)\n",
		port, want, limit, poll.Milliseconds())
}

// WaitResult reports how a wait loop ended. want is the state waited for.
func (p *Printer) WaitResult(port int, status, want string) error {
	if p.Format.structured() {
		return p.encode(portStatus{Port: port, Status: status})
	}
	var err error
	switch status {
	case StatusTimeout:
		_, err = fmt.Fprintf(p.Err, "Timeout: port %d did not become %s\n", port, want)
	case StatusInterrupted:
		_, err = fmt.Fprintln(p.Err, "Interrupted.")
	default:
		_, err = fmt.Fprintf(p.Err, "Port %d is %s\n", port, status)
	}
	return err
}

// WatchStarted announces a watch loop on stderr.
func (p *Printer) WatchStarted(ports []int, poll time.Duration) {
	names := make([]string, len(ports))
	for i, port := range ports {
		names[i] = fmt.Sprint(port)
	}
	plural := ""
	if len(ports) > 1 {
		plural = "s"
	}
	fmt.Fprintf(p.Err, "Watching port%s %s (poll every %dms, Ctrl+C to stop)\n",
		plural, strings.Join(names, ", "), poll.Milliseconds())
}

// WatchStopped is printed when a watch loop ends.
func (p *Printer) WatchStopped() {
	fmt.Fprintln(p.Err, "Watch mode stopped.")
}

type freePort struct {
	Port  *int   `json:"port" yaml:"port"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// FreePort prints the port found by a free search.
func (p *Printer) FreePort(port int) error {
	if p.Format.structured() {
		return p.encode(freePort{Port: &port})
	}
	_, err := fmt.Fprintln(p.Out, port)
	return err
}

// NoFreePort reports an exhausted free search.
func (p *Printer) NoFreePort(start, end int) error {
	msg := fmt.Sprintf("no free port found in range %d..=%d", start, end)
	if p.Format.structured() {
		return p.encode(freePort{Error: msg})
	}
	_, err := fmt.Fprintln(p.Err, strings.ToUpper(msg[:1])+msg[1:])
	return err
}

// Info writes a status line to stderr in human formats only.
func (p *Printer) Info(format string, args ...any) {
	if p.Format.structured() {
		return
	}
	fmt.Fprintf(p.Err, format+"\n", args...)
}

func (p *Printer) encode(v any) error {
	if p.Format == YAML {
		enc := yaml.NewEncoder(p.Out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(p.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// TruncateCommand shortens command lines longer than 80 characters.
func TruncateCommand(s string) string {
	r := []rune(s)
	if len(r) <= maxCommandWidth {
		return s
	}
	return string(r[:maxCommandWidth-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
