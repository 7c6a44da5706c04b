package layout

import (
	"strings"

	"github.com/matzehuels/schemagraph/pkg/errors"
)

// Mode selects a layout strategy.
type Mode int

const (
	Hierarchical Mode = iota
	Radial
	Grid
)

var modeNames = [...]string{
	Hierarchical: "hierarchical",
	Radial:       "radial",
	Grid:         "grid",
}

// Modes lists every mode in declaration order.
var Modes = []Mode{Hierarchical, Radial, Grid}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "grid"
	}
	return modeNames[m]
}

// ParseMode parses a mode name. "force" is accepted as a legacy alias for
// Grid. The empty string selects Hierarchical.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "hierarchical":
		return Hierarchical, nil
	case "radial":
		return Radial, nil
	case "grid", "force":
		return Grid, nil
	}
	return Hierarchical, errors.New(errors.ErrCodeInvalidLayout, "unknown layout %q (want hierarchical, radial or grid)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
