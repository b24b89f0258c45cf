package pin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		expected Pin
		expr     string
	}{
		{"A5", Pin{'A', 5}, "(Pin)(JSH_PORTA_OFFSET + 5)"},
		{"C0", Pin{'C', 0}, "(Pin)(JSH_PORTC_OFFSET + 0)"},
		{"B12", Pin{'B', 12}, "(Pin)(JSH_PORTB_OFFSET + 12)"},
		{"D31", Pin{'D', 31}, "(Pin)(JSH_PORTD_OFFSET + 31)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(tc.name)
			require.NoError(t, err)
			require.Equal(t, tc.expected, p)
			require.Equal(t, tc.expr, p.Expr())
			require.Equal(t, tc.name, p.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name     string
		expected error
	}{
		{"", ErrPinEmpty},
		{"a5", ErrPinPort},
		{"55", ErrPinPort},
		{"A", ErrPinIndex},
		{"Ax", ErrPinIndex},
		{"A-1", ErrPinIndex},
		{"A32", ErrPinIndex},
	}

	for _, tc := range testCases {
		_, err := Parse(tc.name)
		require.ErrorIs(t, err, tc.expected, "pin %q", tc.name)
	}
}
