// Package table identifies the CSV tables emitted by the rcg/rcl to CSV
// converter and the columns they carry.
package table

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrUnrecognizedTableType = errors.New("unrecognized table type")

// Type is one of the fixed CSV schemas of the log converter.
type Type int

const (
	Dash Type = iota
	Kick
	Turn
	Tackle
	Match
	PlayerTypes
	PlayerParams
	ServerParams
)

var typeNames = [...]string{
	Dash:         "dash",
	Kick:         "kick",
	Turn:         "turn",
	Tackle:       "tackle",
	Match:        "match",
	PlayerTypes:  "playertypes",
	PlayerParams: "playerparams",
	ServerParams: "serverparams",
}

// Types returns every table type in classification order.
func Types() []Type {
	return []Type{Dash, Kick, Turn, Tackle, Match, PlayerTypes, PlayerParams, ServerParams}
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// IsCommand reports whether t is one of the four per-action command tables.
func (t Type) IsCommand() bool {
	switch t {
	case Dash, Kick, Turn, Tackle:
		return true
	}
	return false
}

// Suffix returns the file suffix of t, e.g. ".dash.csv" or ".dash.csv.gz".
func (t Type) Suffix(compress bool) string {
	s := "." + t.String() + ".csv"
	if compress {
		s += ".gz"
	}
	return s
}

// Classify returns the table type of a file by suffix matching its base name.
func Classify(name string) (Type, error) {
	base := filepath.Base(name)
	for _, t := range Types() {
		if strings.HasSuffix(base, t.Suffix(false)) || strings.HasSuffix(base, t.Suffix(true)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnrecognizedTableType, name)
}
