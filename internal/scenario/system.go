package scenario

import (
	"errors"
	"fmt"
)

// ErrInvalidSystemType is returned for an unrecognized system identifier.
var ErrInvalidSystemType = errors.New("scenario: invalid system type")

// SystemType enumerates the simulated plants. The zero value is invalid.
type SystemType int

const (
	DCMotor SystemType = iota + 1
	InvertedPendulum
	RLCCircuit
)

// All returns every valid system type in display order.
func All() []SystemType {
	return []SystemType{DCMotor, InvertedPendulum, RLCCircuit}
}

func (s SystemType) String() string {
	switch s {
	case DCMotor:
		return "dc_motor"
	case InvertedPendulum:
		return "inverted_pendulum"
	case RLCCircuit:
		return "rlc_circuit"
	}
	return fmt.Sprintf("SystemType(%d)", int(s))
}

func (s SystemType) Valid() bool {
	return s >= DCMotor && s <= RLCCircuit
}

// ParseSystemType maps a wire identifier such as "dc_motor" to its type.
func ParseSystemType(name string) (SystemType, error) {
	for _, s := range All() {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSystemType, name)
}

func (s SystemType) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSystemType, int(s))
	}
	return []byte(s.String()), nil
}

func (s *SystemType) UnmarshalText(b []byte) error {
	parsed, err := ParseSystemType(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
