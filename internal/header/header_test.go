package header

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Abathargh/platconf/internal/board"
	"github.com/Abathargh/platconf/internal/chip"
	"github.com/Abathargh/platconf/internal/layout"
)

func olimexino() board.Board {
	b := board.Board{
		Name: "OLIMEXINO_STM32",
		Chip: board.Chip{
			Family: chip.STM32F1,
			Part:   "STM32F103RB",
			RAM:    20,
			Flash:  128,
			USART:  3,
			SPI:    2,
			I2C:    2,
			ADC:    3,
		},
		Info: board.Info{Variables: 715},
		Devices: map[string]board.Device{
			"LED1": {Pin: "A5"},
			"LED2": {Pin: "A1"},
			"BTN1": {Pin: "C9", Inverted: true},
			"USB":  {PinDisc: "C12"},
		},
	}
	return b.Resolve()
}

func linux() board.Board {
	b := board.Board{
		Name: "LINUX",
		Chip: board.Chip{Family: chip.Linux, Part: "LINUX", RAM: 256, Flash: 256, USART: 1},
		Devices: map[string]board.Device{
			"LED1": {Pin: "A0"},
		},
	}
	return b.Resolve()
}

func render(t *testing.T, b board.Board) string {
	t.Helper()

	var l *layout.Layout
	if !b.Chip.Family.IsHost() {
		var err error
		l, err = layout.Compute(b)
		require.NoError(t, err)
	}

	out, err := Render(b, l)
	require.NoError(t, err)
	return string(out)
}

func TestRenderGolden(t *testing.T) {
	expected, err := os.ReadFile(filepath.Join("testdata", "OLIMEXINO_STM32.h"))
	require.NoError(t, err)
	require.Equal(t, string(expected), render(t, olimexino()))
}

func TestRenderIdempotent(t *testing.T) {
	b := olimexino()
	b.Devices["LED3"] = board.Device{Pin: "B3"}
	b.Devices["BTN2"] = board.Device{Pin: "B4"}
	b.Devices["LED8"] = board.Device{Pin: "B8"}

	first := render(t, b)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, render(t, b))
	}
}

func TestRenderHost(t *testing.T) {
	out := render(t, linux())

	require.Contains(t, out, "#define RESIZABLE_JSVARS")
	require.Contains(t, out, "#define USARTS                          1\n")
	require.Contains(t, out, "#define LED1_PININDEX (Pin)(JSH_PORTA_OFFSET + 0)\n")
	for _, define := range []string{
		"JSVAR_CACHE_SIZE", "FLASH_AVAILABLE_FOR_CODE", "FLASH_PAGE_SIZE",
		"FLASH_PAGES", "BOOTLOADER_SIZE", "UTIL_TIMER", "#include",
		"STM32API2", "diag_suppress",
	} {
		require.NotContains(t, out, define)
	}
}

func TestRenderFamilies(t *testing.T) {
	testCases := []struct {
		family   chip.Family
		part     string
		contains []string
		missing  []string
	}{
		{
			chip.STM32F1, "STM32F103RC",
			[]string{`#include "stm32f10x.h"`, "#define UTIL_TIMER TIM7\n", "FLASH_PAGE_SIZE                 2048\n"},
			[]string{"STM32API2", "USB_INT_DEFAULT", "TIM4"},
		},
		{
			chip.STM32F2, "STM32F205RG",
			[]string{`#include "stm32f2xx.h"`, "#define STM32API2", "TIM7", "FLASH_PAGE_SIZE                 131072\n"},
			[]string{"USB_INT_DEFAULT"},
		},
		{
			chip.STM32F3, "STM32F303VC",
			[]string{`#include "stm32f30x.h"`, "#define STM32API2", "#define USB_INT_DEFAULT\n", "TIM7"},
			nil,
		},
		{
			chip.STM32F4, "STM32F407VG",
			[]string{`#include "stm32f4xx.h"`, "#define STM32API2", "TIM7"},
			[]string{"USB_INT_DEFAULT"},
		},
		{
			chip.LPC1768, "LPC1768",
			[]string{"#pragma diag_suppress 1295", "#pragma diag_suppress 68", "FLASH_PAGE_SIZE                 1024\n"},
			[]string{"#include", "UTIL_TIMER", "STM32API2"},
		},
	}

	for _, tc := range testCases {
		t.Run(string(tc.family), func(t *testing.T) {
			b := board.Board{
				Name: "TEST",
				Chip: board.Chip{Family: tc.family, Part: tc.part, RAM: 64, Flash: 512},
				Info: board.Info{Variables: 300},
			}
			out := render(t, b.Resolve())

			for _, s := range tc.contains {
				require.Contains(t, out, s)
			}
			for _, s := range tc.missing {
				require.NotContains(t, out, s)
			}
		})
	}
}

func TestRenderButtonState(t *testing.T) {
	b := olimexino()
	require.Contains(t, render(t, b), "#define BTN1_ONSTATE 0\n")

	b.Devices["BTN1"] = board.Device{Pin: "C9"}
	require.Contains(t, render(t, b), "#define BTN1_ONSTATE 1\n")

	b.Devices["BTN2"] = board.Device{Pin: "C10", Inverted: true}
	out := render(t, b)
	require.Contains(t, out, "#define BTN2_PININDEX (Pin)(JSH_PORTC_OFFSET + 10)\n")
	require.NotContains(t, out, "BTN2_ONSTATE")
}

func TestRenderAbsentDevices(t *testing.T) {
	out := render(t, olimexino())

	for _, name := range []string{"LED3", "LED4", "LED5", "LED6", "LED7", "LED8", "BTN2", "BTN3", "BTN4"} {
		require.NotContains(t, out, name+"_PININDEX")
	}

	b := olimexino()
	delete(b.Devices, "USB")
	require.NotContains(t, render(t, b), "USB_DISCONNECT_PIN")

	b.Devices["USB"] = board.Device{Pin: "A12"}
	require.NotContains(t, render(t, b), "USB_DISCONNECT_PIN")
}

func TestRenderDeviceOrder(t *testing.T) {
	b := olimexino()
	b.Devices = map[string]board.Device{
		"BTN4": {Pin: "D4"},
		"LED8": {Pin: "D8"},
		"BTN1": {Pin: "D1"},
		"LED1": {Pin: "D0"},
	}
	out := render(t, b)

	order := []string{"LED1_PININDEX", "LED8_PININDEX", "BTN1_PININDEX", "BTN1_ONSTATE", "BTN4_PININDEX"}
	last := -1
	for _, s := range order {
		idx := strings.Index(out, s)
		require.Greater(t, idx, last, s)
		last = idx
	}
}

func TestRenderErrors(t *testing.T) {
	b := olimexino()
	b.Chip.Family = "AVR"
	_, err := Render(b, &layout.Layout{})
	require.ErrorIs(t, err, chip.ErrUnknownFamily)

	_, err = Render(olimexino(), nil)
	require.ErrorIs(t, err, ErrMissingLayout)

	b = olimexino()
	b.Devices["LED4"] = board.Device{Pin: "4"}
	l, err := layout.Compute(b)
	require.NoError(t, err)
	_, err = Render(b, l)
	require.Error(t, err)
	require.Contains(t, err.Error(), "LED4")
}

func TestGenerateWritesNothingOnError(t *testing.T) {
	b := olimexino()
	b.Chip.Family = "AVR"

	var buf bytes.Buffer
	err := Generate(&buf, b, &layout.Layout{})
	require.ErrorIs(t, err, chip.ErrUnknownFamily)
	require.Zero(t, buf.Len())

	buf.Reset()
	b = olimexino()
	l, err := layout.Compute(b)
	require.NoError(t, err)
	require.NoError(t, Generate(&buf, b, l))
	require.True(t, strings.HasSuffix(buf.String(), "#endif // _PLATFORM_CONFIG_H\n\n"))
}
