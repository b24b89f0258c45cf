// Package pin parses board pin names such as "A5" or "B12" and turns them
// into the expressions used by the firmware's pin tables.
package pin

import (
	"errors"
	"fmt"
	"strconv"
)

// maxIndex is the highest pin number of a single port.
const maxIndex = 31

var (
	ErrPinEmpty = errors.New("empty pin name")
	ErrPinPort  = errors.New("pin port must be a letter A-Z")
	ErrPinIndex = errors.New("pin index must be a number 0-31")
)

// A Pin is a physical I/O line: a port letter plus a numeric index.
type Pin struct {
	Port  byte
	Index int
}

// Parse parses a pin name, made of the port letter followed by the pin
// index in decimal.
func Parse(name string) (Pin, error) {
	if name == "" {
		return Pin{}, ErrPinEmpty
	}

	port := name[0]
	if port < 'A' || port > 'Z' {
		return Pin{}, fmt.Errorf("%w, got %q", ErrPinPort, name)
	}

	index, err := strconv.Atoi(name[1:])
	if err != nil || index < 0 || index > maxIndex {
		return Pin{}, fmt.Errorf("%w, got %q", ErrPinIndex, name)
	}

	return Pin{Port: port, Index: index}, nil
}

// String returns the pin name, e.g. "A5".
func (p Pin) String() string {
	return fmt.Sprintf("%c%d", p.Port, p.Index)
}

// Expr returns the C expression resolving to the pin number at runtime.
func (p Pin) Expr() string {
	return fmt.Sprintf("(Pin)(JSH_PORT%c_OFFSET + %d)", p.Port, p.Index)
}
