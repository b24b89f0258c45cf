// Package layout computes how the flash and RAM of an embedded board are
// split between code, the variable cache and its persistent copy in flash.
package layout

import (
	"errors"
	"fmt"

	"github.com/Abathargh/platconf/internal/board"
	"github.com/Abathargh/platconf/internal/chip"
)

const (
	// DefaultBootloaderSize is the space taken by the bootloader, in bytes.
	DefaultBootloaderSize = 10 * 1024

	// VarSize is the size of a variable slot, WideVarSize is used once the
	// variable count no longer fits 8 bit references.
	VarSize      = 16
	WideVarSize  = 20
	WideVarCount = 255

	// MagicSize is the validity marker stored after the saved variables.
	MagicSize = 4

	// stack reserve in KB, the larger one is for boards with more than
	// largeRAM KB of memory
	stackReserve      = 4
	largeStackReserve = 5
	largeRAM          = 20
)

var ErrHostTarget = errors.New("host targets allocate variables at runtime")

// A Layout is the memory budget of a board.
type Layout struct {
	// StackReserveKB and VariableStorageKB are informational only: the
	// variable count comes from the board file.
	StackReserveKB    int
	VariableStorageKB int

	Variables    int
	VarSize      int
	VarCacheSize int
	FlashNeeded  int

	FlashPageSize         int
	FlashPages            int
	FlashTotal            int
	FlashAvailableForCode int

	BootloaderSize int
}

// Compute builds the Layout for an embedded board. The board is expected to
// be resolved already, so that its subfamily is final.
func Compute(b board.Board) (*Layout, error) {
	if b.Chip.Family.IsHost() {
		return nil, ErrHostTarget
	}

	traits, err := chip.Lookup(b.Chip.Family)
	if err != nil {
		return nil, err
	}

	var l Layout

	l.StackReserveKB = stackReserve
	if b.Chip.RAM > largeRAM {
		l.StackReserveKB = largeStackReserve
	}
	l.VariableStorageKB = b.Chip.RAM - l.StackReserveKB

	l.Variables = b.Info.Variables
	l.VarSize = VarSize
	if l.Variables >= WideVarCount {
		l.VarSize = WideVarSize
	}

	l.VarCacheSize = l.VarSize * l.Variables
	l.FlashNeeded = l.VarCacheSize + MagicSize

	l.FlashPageSize = traits.FlashPageSize(b.Chip.Subfamily)
	l.FlashPages = (l.FlashNeeded + l.FlashPageSize - 1) / l.FlashPageSize
	l.FlashTotal = b.Chip.Flash * 1024
	l.FlashAvailableForCode = l.FlashTotal - l.FlashPages*l.FlashPageSize

	l.BootloaderSize = BootloaderSize(b)

	return &l, nil
}

// BootloaderSize returns the bytes reserved for the bootloader on the board.
func BootloaderSize(b board.Board) int {
	if b.Info.BootloaderSize > 0 {
		return b.Info.BootloaderSize
	}
	return DefaultBootloaderSize
}

// Overcommitted reports whether the saved variables leave no flash for code.
func (l Layout) Overcommitted() bool {
	return l.FlashAvailableForCode <= 0
}

// Entry is a single named value of the layout, used for reporting.
type Entry struct {
	Name  string
	Value int
}

// Entries returns the layout values in reporting order.
func (l Layout) Entries() []Entry {
	return []Entry{
		{"Stack reserve (KB)", l.StackReserveKB},
		{"Variable storage (KB)", l.VariableStorageKB},
		{"Variables", l.Variables},
		{"JsVar size", l.VarSize},
		{"VarCache size", l.VarCacheSize},
		{"Flash page size", l.FlashPageSize},
		{"Flash pages", l.FlashPages},
		{"Total flash", l.FlashTotal},
		{"Flash available for code", l.FlashAvailableForCode},
		{"Bootloader size", l.BootloaderSize},
	}
}

func (l Layout) String() string {
	return fmt.Sprintf("%d vars x %dB in %d page(s) of %dB, %dB left for code",
		l.Variables, l.VarSize, l.FlashPages, l.FlashPageSize, l.FlashAvailableForCode)
}
