package chip

import (
	"errors"
	"fmt"
	"sort"
)

// Family identifies a category of microcontroller silicon.
type Family string

const (
	Linux   Family = "LINUX"
	STM32F1 Family = "STM32F1"
	STM32F2 Family = "STM32F2"
	STM32F3 Family = "STM32F3"
	STM32F4 Family = "STM32F4"
	LPC1768 Family = "LPC1768"
)

// Class groups families that share the low level support code.
type Class string

const (
	ClassLinux Class = "LINUX"
	ClassSTM32 Class = "STM32"
	ClassMbed  Class = "MBED"
)

// SubfamilyMD marks medium density STM32F1 parts.
const SubfamilyMD = "MD"

// DefaultPageSize is used when a family does not declare its own page size.
const DefaultPageSize = 1024

// Traits holds everything the generator needs to know about a family.
type Traits struct {
	Class Class

	// Include is the vendor header pulled in by the generated file, empty if
	// the family has none.
	Include string

	// PageSize is the flash page size in bytes, MDPageSize replaces it for
	// parts of the medium density subfamily when non zero.
	PageSize   int
	MDPageSize int

	// API2 hints that the vendor peripheral library is the newer revision.
	API2 bool

	// USBIntDefault enables the default USB interrupt wiring.
	USBIntDefault bool
}

var (
	ErrUnknownFamily = errors.New("unknown chip family")

	Families = map[Family]Traits{
		Linux: {
			Class:    ClassLinux,
			PageSize: DefaultPageSize,
		},
		STM32F1: {
			Class:      ClassSTM32,
			Include:    "stm32f10x.h",
			PageSize:   2 * 1024,
			MDPageSize: 1024,
		},
		STM32F2: {
			Class:    ClassSTM32,
			Include:  "stm32f2xx.h",
			PageSize: 128 * 1024,
			API2:     true,
		},
		STM32F3: {
			Class:         ClassSTM32,
			Include:       "stm32f30x.h",
			PageSize:      2 * 1024,
			API2:          true,
			USBIntDefault: true,
		},
		STM32F4: {
			Class:    ClassSTM32,
			Include:  "stm32f4xx.h",
			PageSize: 128 * 1024,
			API2:     true,
		},
		LPC1768: {
			Class:    ClassMbed,
			PageSize: DefaultPageSize,
		},
	}

	// mdParts are the parts tagged as medium density regardless of what the
	// board file declares.
	mdParts = map[string]struct{}{
		"STM32F100RB": {},
		"STM32F103RB": {},
		"STM32F103TB": {},
	}
)

// UnknownFamilyError reports a family missing from Families.
type UnknownFamilyError struct {
	Family Family
}

func (e *UnknownFamilyError) Error() string {
	return fmt.Sprintf("unknown chip family %q (known: %v)", string(e.Family), Known())
}

func (e *UnknownFamilyError) Is(target error) bool {
	return target == ErrUnknownFamily
}

// Lookup returns the Traits for the passed family.
func Lookup(f Family) (Traits, error) {
	traits, ok := Families[f]
	if !ok {
		return Traits{}, &UnknownFamilyError{Family: f}
	}
	return traits, nil
}

// Known returns the names of the supported families, sorted.
func Known() []string {
	names := make([]string, 0, len(Families))
	for f := range Families {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// IsHost reports whether the family runs on a host operating system, where
// variables are allocated at runtime.
func (f Family) IsHost() bool {
	return f == Linux
}

// FlashPageSize returns the page size for the passed subfamily.
func (t Traits) FlashPageSize(subfamily string) int {
	if subfamily == SubfamilyMD && t.MDPageSize != 0 {
		return t.MDPageSize
	}
	if t.PageSize == 0 {
		return DefaultPageSize
	}
	return t.PageSize
}

// Subfamily returns the subfamily for a part, overriding declared with MD
// for the parts known to be medium density.
func Subfamily(part, declared string) string {
	if _, ok := mdParts[part]; ok {
		return SubfamilyMD
	}
	return declared
}
