package rcss

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidSide    = errors.New("invalid field side")
	ErrInvalidUniform = errors.New("uniform number out of bounds")
)

// FieldSide identifies a side of the field.
type FieldSide string

const (
	Left  FieldSide = "l"
	Right FieldSide = "r"
)

// Sides returns both sides, left first.
func Sides() []FieldSide { return []FieldSide{Left, Right} }

func (s FieldSide) String() string { return string(s) }

// ParseFieldSide accepts l, r, left or right in any case.
func ParseFieldSide(s string) (FieldSide, error) {
	switch strings.ToLower(s) {
	case "l", "left":
		return Left, nil
	case "r", "right":
		return Right, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

// UniformNumber is a player's jersey number, 1 to 11.
type UniformNumber int

const (
	MinUniform UniformNumber = 1
	MaxUniform UniformNumber = 11
)

// UniformNumbers returns 1..11 in order.
func UniformNumbers() []UniformNumber {
	out := make([]UniformNumber, 0, MaxUniform)
	for u := MinUniform; u <= MaxUniform; u++ {
		out = append(out, u)
	}
	return out
}

// Valid reports whether u is in [1, 11].
func (u UniformNumber) Valid() bool {
	return u >= MinUniform && u <= MaxUniform
}

func (u UniformNumber) String() string { return strconv.Itoa(int(u)) }

// NewUniformNumber checks n against the team size.
func NewUniformNumber(n int) (UniformNumber, error) {
	u := UniformNumber(n)
	if !u.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidUniform, n)
	}
	return u, nil
}

// ParseUniformNumber parses a decimal uniform number.
func ParseUniformNumber(s string) (UniformNumber, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUniform, s)
	}
	return NewUniformNumber(n)
}
