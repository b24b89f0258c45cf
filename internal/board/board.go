// Package board describes a microcontroller board: its chip, the amount of
// memory set aside for the interpreter and the wiring of the on-board
// devices. Boards are declared in JSON, YAML or TOML files named after the
// board identifier.
package board

import (
	"errors"
	"fmt"
	"maps"
	"sort"

	"github.com/Abathargh/platconf/internal/chip"
	"github.com/Abathargh/platconf/internal/pin"
)

// DefaultConsole is the console device used when a board does not name one.
const DefaultConsole = "EV_SERIAL1"

// A Board is the declarative description of a single target.
type Board struct {
	Name    string            `json:"-" yaml:"-" toml:"-"`
	Chip    Chip              `json:"chip" yaml:"chip" toml:"chip"`
	Info    Info              `json:"info" yaml:"info" toml:"info"`
	Devices map[string]Device `json:"devices" yaml:"devices" toml:"devices"`
}

// Chip holds the silicon details. Memory sizes are in KB.
type Chip struct {
	Family    chip.Family `json:"family" yaml:"family" toml:"family"`
	Part      string      `json:"part" yaml:"part" toml:"part"`
	Subfamily string      `json:"subfamily,omitempty" yaml:"subfamily,omitempty" toml:"subfamily,omitempty"`
	RAM       int         `json:"ram" yaml:"ram" toml:"ram"`
	Flash     int         `json:"flash" yaml:"flash" toml:"flash"`
	USART     int         `json:"usart" yaml:"usart" toml:"usart"`
	SPI       int         `json:"spi" yaml:"spi" toml:"spi"`
	I2C       int         `json:"i2c" yaml:"i2c" toml:"i2c"`
	ADC       int         `json:"adc" yaml:"adc" toml:"adc"`
	DAC       int         `json:"dac" yaml:"dac" toml:"dac"`
}

// Info holds the firmware related settings.
type Info struct {
	Variables      int    `json:"variables" yaml:"variables" toml:"variables"`
	DefaultConsole string `json:"default_console,omitempty" yaml:"default_console,omitempty" toml:"default_console,omitempty"`

	// BootloaderSize overrides the default bootloader size, in bytes.
	BootloaderSize int `json:"bootloader_size,omitempty" yaml:"bootloader_size,omitempty" toml:"bootloader_size,omitempty"`
}

// A Device is something wired to the chip: a LED, a button, the USB port.
type Device struct {
	Pin      string `json:"pin,omitempty" yaml:"pin,omitempty" toml:"pin,omitempty"`
	Inverted bool   `json:"inverted,omitempty" yaml:"inverted,omitempty" toml:"inverted,omitempty"`
	PinDisc  string `json:"pin_disc,omitempty" yaml:"pin_disc,omitempty" toml:"pin_disc,omitempty"`
}

// PinDevices are the devices that get a pin index define, in output order.
var PinDevices = []string{
	"LED1", "LED2", "LED3", "LED4", "LED5", "LED6", "LED7", "LED8",
	"BTN1", "BTN2", "BTN3", "BTN4",
}

var (
	ErrMemorySize    = errors.New("ram and flash must be positive")
	ErrVariables     = errors.New("variables must be positive")
	ErrPeripherals   = errors.New("peripheral counts must not be negative")
	ErrDevicePinless = errors.New("device has no pin")
)

// Validate checks the board against the schema, reporting every problem it
// finds.
func (b Board) Validate() error {
	var errs []error

	_, err := chip.Lookup(b.Chip.Family)
	if err != nil {
		errs = append(errs, err)
	}

	if !b.Chip.Family.IsHost() {
		if b.Chip.RAM <= 0 || b.Chip.Flash <= 0 {
			errs = append(errs, fmt.Errorf("%w, got ram=%d flash=%d",
				ErrMemorySize, b.Chip.RAM, b.Chip.Flash))
		}
		if b.Info.Variables <= 0 {
			errs = append(errs, fmt.Errorf("%w, got %d", ErrVariables, b.Info.Variables))
		}
	}

	counts := []int{b.Chip.USART, b.Chip.SPI, b.Chip.I2C, b.Chip.ADC, b.Chip.DAC}
	for _, count := range counts {
		if count < 0 {
			errs = append(errs, ErrPeripherals)
			break
		}
	}

	required := make(map[string]struct{}, len(PinDevices))
	for _, name := range PinDevices {
		required[name] = struct{}{}
	}

	for _, name := range b.DeviceNames() {
		dev := b.Devices[name]
		if _, ok := required[name]; ok && dev.Pin == "" {
			errs = append(errs, fmt.Errorf("%s: %w", name, ErrDevicePinless))
		}
		if dev.Pin != "" {
			if _, err := pin.Parse(dev.Pin); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
		if dev.PinDisc != "" {
			if _, err := pin.Parse(dev.PinDisc); err != nil {
				errs = append(errs, fmt.Errorf("%s pin_disc: %w", name, err))
			}
		}
	}

	return errors.Join(errs...)
}

// Resolve returns a copy of the board with every default applied. The
// receiver is left untouched.
func (b Board) Resolve() Board {
	resolved := b
	resolved.Devices = maps.Clone(b.Devices)

	if resolved.Info.DefaultConsole == "" {
		resolved.Info.DefaultConsole = DefaultConsole
	}

	if !b.Chip.Family.IsHost() {
		resolved.Chip.Subfamily = chip.Subfamily(b.Chip.Part, b.Chip.Subfamily)
	}

	return resolved
}

// DeviceNames returns the names of the board devices, sorted.
func (b Board) DeviceNames() []string {
	names := make([]string, 0, len(b.Devices))
	for name := range b.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
