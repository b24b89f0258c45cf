// Package header renders the platform configuration header included by the
// firmware build.
package header

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Abathargh/platconf/internal/board"
	"github.com/Abathargh/platconf/internal/chip"
	"github.com/Abathargh/platconf/internal/layout"
	"github.com/Abathargh/platconf/internal/pin"
)

const (
	Guard     = "_PLATFORM_CONFIG_H"
	Generator = "platconf"

	// DefaultPath is where the firmware build expects the header.
	DefaultPath = "gen/platform_config.h"

	// values start at this column, as in the hand written headers
	defineWidth = 31
)

var ErrMissingLayout = errors.New("embedded target rendered without a layout")

const mbedPragmas = `
#pragma diag_suppress 1295 // deprecated decl
#pragma diag_suppress 188 // enumerated type mixed with another type
#pragma diag_suppress 111 // statement is unreachable
#pragma diag_suppress 68 // integer conversion resulted in a change of sign
`

const timing = `

// SYSTICK is the counter that counts up and that we use as the real-time clock
// The smaller this is, the longer we spend in interrupts, but also the more we can sleep!
#define SYSTICK_RANGE 0x1000000 // the Maximum (it is a 24 bit counter) - on Olimexino this is about 0.6 sec
#define SYSTICKS_BEFORE_USB_DISCONNECT 2

#define DEFAULT_BUSY_PIN_INDICATOR (Pin)-1 // no indicator
#define DEFAULT_SLEEP_PIN_INDICATOR (Pin)-1 // no indicator

// When to send the message that the IO buffer is getting full
#define IOBUFFER_XOFF ((TXBUFFERMASK)*6/8)
// When to send the message that we can start receiving again
#define IOBUFFER_XON ((TXBUFFERMASK)*3/8)
`

const mdTimer = `
// frustratingly the 103_MD (non-VL) chips in Olimexino don't have any timers other than 1-4
#define UTIL_TIMER TIM4
#define UTIL_TIMER_IRQn TIM4_IRQn
#define UTIL_TIMER_IRQHandler TIM4_IRQHandler
#define UTIL_TIMER_APB1 RCC_APB1Periph_TIM4
`

const utilTimer = `
// nice timer not used by anything else
#define UTIL_TIMER TIM7
#define UTIL_TIMER_IRQn TIM7_IRQn
#define UTIL_TIMER_IRQHandler TIM7_IRQHandler
#define UTIL_TIMER_APB1 RCC_APB1Periph_TIM7
`

// Generate renders the header for a resolved board and writes it to w. The
// layout must be nil for host targets only. Nothing is written unless the
// whole header could be rendered.
func Generate(w io.Writer, b board.Board, l *layout.Layout) error {
	out, err := Render(b, l)
	if err != nil {
		return err
	}

	_, err = w.Write(out)
	return err
}

// Render returns the header for a resolved board.
func Render(b board.Board, l *layout.Layout) ([]byte, error) {
	traits, err := chip.Lookup(b.Chip.Family)
	if err != nil {
		return nil, err
	}

	host := b.Chip.Family.IsHost()
	if !host && l == nil {
		return nil, ErrMissingLayout
	}

	var hb headerBuilder

	hb.line("")
	hb.line("// Automatically generated header file for %s", b.Name)
	hb.line("// Generated by %s", Generator)
	hb.line("")
	hb.line("#ifndef %s", Guard)
	hb.line("#define %s", Guard)
	hb.line("")
	hb.line("")

	if traits.Include != "" {
		hb.line("#include %q", traits.Include)
	}
	if traits.API2 {
		hb.line("#define STM32API2 // hint to jshardware that the API is a lot different")
	}
	if traits.USBIntDefault {
		hb.line("#define USB_INT_DEFAULT")
	}
	if traits.Class == chip.ClassMbed {
		hb.block(mbedPragmas)
	}

	hb.block(timing)

	if traits.Class == chip.ClassSTM32 {
		if b.Chip.Subfamily == chip.SubfamilyMD {
			hb.block(mdTimer)
		} else {
			hb.block(utilTimer)
		}
	}

	hb.line("")
	hb.line("#define RAM_TOTAL (%d*1024)", b.Chip.RAM)
	hb.line("#define FLASH_TOTAL (%d*1024)", b.Chip.Flash)
	hb.line("")

	if host {
		hb.line("#define RESIZABLE_JSVARS // Allocate variables in blocks using malloc")
	} else {
		hb.line("#define %-*s %d // Number of JavaScript variables in RAM",
			defineWidth, "JSVAR_CACHE_SIZE", l.Variables)
		hb.define("FLASH_AVAILABLE_FOR_CODE", l.FlashAvailableForCode)
		hb.define("FLASH_PAGE_SIZE", l.FlashPageSize)
		hb.define("FLASH_PAGES", l.FlashPages)
		hb.define("BOOTLOADER_SIZE", l.BootloaderSize)
	}
	hb.line("")

	hb.define("USARTS", b.Chip.USART)
	hb.define("SPIS", b.Chip.SPI)
	hb.define("I2CS", b.Chip.I2C)
	hb.define("ADCS", b.Chip.ADC)
	hb.define("DACS", b.Chip.DAC)
	hb.line("")
	hb.define("DEFAULT_CONSOLE_DEVICE", b.Info.DefaultConsole)
	hb.line("")
	hb.line("#define IOBUFFERMASK 31 // (max 255) amount of items in event buffer - events take ~9 bytes each")
	hb.line("#define TXBUFFERMASK 31 // (max 255)")
	hb.line("")

	for _, name := range board.PinDevices {
		dev, ok := b.Devices[name]
		if !ok {
			continue
		}

		expr, err := pinExpr(name, dev.Pin)
		if err != nil {
			return nil, err
		}
		hb.line("#define %s_PININDEX %s", name, expr)

		if name == "BTN1" {
			onState := 1
			if dev.Inverted {
				onState = 0
			}
			hb.line("#define %s_ONSTATE %d", name, onState)
		}
	}

	if usb, ok := b.Devices["USB"]; ok && usb.PinDisc != "" {
		expr, err := pinExpr("USB", usb.PinDisc)
		if err != nil {
			return nil, err
		}
		hb.line("#define USB_DISCONNECT_PIN %s", expr)
	}

	hb.line("")
	hb.line("#endif // %s", Guard)
	hb.line("")

	return hb.Bytes(), nil
}

func pinExpr(device, name string) (string, error) {
	p, err := pin.Parse(name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", device, err)
	}
	return p.Expr(), nil
}

type headerBuilder struct {
	bytes.Buffer
}

func (hb *headerBuilder) line(format string, args ...any) {
	fmt.Fprintf(&hb.Buffer, format, args...)
	hb.WriteByte('\n')
}

func (hb *headerBuilder) block(text string) {
	hb.WriteString(text)
	hb.WriteByte('\n')
}

func (hb *headerBuilder) define(name string, value any) {
	hb.line("#define %-*s %v", defineWidth, name, value)
}
