package chip

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	testCases := []struct {
		family  Family
		class   Class
		include string
		api2    bool
	}{
		{Linux, ClassLinux, "", false},
		{STM32F1, ClassSTM32, "stm32f10x.h", false},
		{STM32F2, ClassSTM32, "stm32f2xx.h", true},
		{STM32F3, ClassSTM32, "stm32f30x.h", true},
		{STM32F4, ClassSTM32, "stm32f4xx.h", true},
		{LPC1768, ClassMbed, "", false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.family), func(t *testing.T) {
			traits, err := Lookup(tc.family)
			require.NoError(t, err)
			require.Equal(t, tc.class, traits.Class)
			require.Equal(t, tc.include, traits.Include)
			require.Equal(t, tc.api2, traits.API2)
		})
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("ESP8266")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnknownFamily))

	var famErr *UnknownFamilyError
	require.ErrorAs(t, err, &famErr)
	require.Equal(t, Family("ESP8266"), famErr.Family)
	require.Contains(t, err.Error(), "STM32F4")
}

func TestFlashPageSize(t *testing.T) {
	testCases := []struct {
		family    Family
		subfamily string
		expected  int
	}{
		{STM32F1, "", 2048},
		{STM32F1, SubfamilyMD, 1024},
		{STM32F2, "", 131072},
		{STM32F3, "", 2048},
		{STM32F3, SubfamilyMD, 2048},
		{STM32F4, "", 131072},
		{LPC1768, "", 1024},
		{Linux, "", 1024},
	}

	for _, tc := range testCases {
		traits, err := Lookup(tc.family)
		require.NoError(t, err)
		require.Equal(t, tc.expected, traits.FlashPageSize(tc.subfamily),
			"%s/%q", tc.family, tc.subfamily)
	}
}

func TestSubfamily(t *testing.T) {
	require.Equal(t, SubfamilyMD, Subfamily("STM32F100RB", ""))
	require.Equal(t, SubfamilyMD, Subfamily("STM32F103RB", ""))
	require.Equal(t, SubfamilyMD, Subfamily("STM32F103TB", "HD"))
	require.Equal(t, "", Subfamily("STM32F103RC", ""))
	require.Equal(t, "XL", Subfamily("STM32F103ZG", "XL"))
}

func TestKnownSorted(t *testing.T) {
	require.Equal(t, []string{
		"LINUX", "LPC1768", "STM32F1", "STM32F2", "STM32F3", "STM32F4",
	}, Known())
	require.True(t, Linux.IsHost())
	require.False(t, STM32F4.IsHost())
}
