// Package portspec parses user supplied port tokens such as "3000" or
// "3000-3010" into inclusive, ascending port ranges.
package portspec

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

const (
	MinPort = 1
	MaxPort = 65535
)

// ParseError reports a single malformed port token.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid port %q: %s", e.Token, e.Reason)
}

// Spec is a single port (Start == End) or an inclusive range.
type Spec struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Single returns a Spec for exactly one port.
func Single(port int) Spec {
	return Spec{Start: port, End: port}
}

// Parse parses "N" or "N1-N2". Zero, values above 65535, non-digit content
// and descending ranges are rejected.
func Parse(token string) (Spec, error) {
	start, end, isRange := strings.Cut(token, "-")
	if !isRange {
		port, reason := parsePort(token)
		if reason != "" {
			return Spec{}, &ParseError{Token: token, Reason: reason}
		}
		return Single(port), nil
	}

	lo, reason := parsePort(start)
	if reason != "" {
		return Spec{}, &ParseError{Token: token, Reason: "range start " + reason}
	}
	hi, reason := parsePort(end)
	if reason != "" {
		return Spec{}, &ParseError{Token: token, Reason: "range end " + reason}
	}
	if lo > hi {
		return Spec{}, &ParseError{Token: token, Reason: fmt.Sprintf("start (%d) > end (%d)", lo, hi)}
	}
	return Spec{Start: lo, End: hi}, nil
}

// ParseAll parses every token and reports all offending tokens together.
func ParseAll(tokens []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(tokens))
	var errs []error
	for _, tok := range tokens {
		s, err := Parse(tok)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		specs = append(specs, s)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return specs, nil
}

func parsePort(s string) (int, string) {
	if s == "" {
		return 0, "is empty"
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, "is not a number"
		}
	}
	// Anything longer than 5 digits cannot be a port, and would risk
	// overflowing Atoi on absurd input.
	if len(strings.TrimLeft(s, "0")) > 5 {
		return 0, fmt.Sprintf("is out of range (%d-%d)", MinPort, MaxPort)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, "is not a number"
	}
	if n < MinPort || n > MaxPort {
		return 0, fmt.Sprintf("is out of range (%d-%d)", MinPort, MaxPort)
	}
	return n, ""
}

// IsRange reports whether s covers more than one port.
func (s Spec) IsRange() bool {
	return s.End > s.Start
}

// Len returns the number of ports covered.
func (s Spec) Len() int {
	return s.End - s.Start + 1
}

// Ports yields every port of s in ascending order.
func (s Spec) Ports() iter.Seq[int] {
	return func(yield func(int) bool) {
		for p := s.Start; p <= s.End; p++ {
			if !yield(p) {
				return
			}
		}
	}
}

// Expand materializes Ports into a slice.
func (s Spec) Expand() []int {
	out := make([]int, 0, s.Len())
	for p := range s.Ports() {
		out = append(out, p)
	}
	return out
}

func (s Spec) String() string {
	if s.IsRange() {
		return fmt.Sprintf("%d-%d", s.Start, s.End)
	}
	return strconv.Itoa(s.Start)
}

// All yields the ports of every spec in order. Overlapping specs yield
// their shared ports more than once.
func All(specs []Spec) iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, s := range specs {
			for p := range s.Ports() {
				if !yield(p) {
					return
				}
			}
		}
	}
}
