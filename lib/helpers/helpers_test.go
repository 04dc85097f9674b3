package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEscapeMarkdownV2(t *testing.T) {
	require.Equal(t, `id: a1\-b2\.c3`, EscapeMarkdownV2("id: a1-b2.c3"))
	require.Equal(t, "plain text", EscapeMarkdownV2("plain text"))
}

func TestFormatPriceUS(t *testing.T) {
	require.Equal(t, "100,000", FormatPriceUS(100000, false))
	require.Equal(t, "3.50", FormatPriceUS(3.5, false))
	require.Equal(t, "0.123457", FormatPriceUS(0.1234567, false))
	require.Equal(t, `100,000`, FormatPriceUS(100000, true))
	require.Equal(t, `3\.50`, FormatPriceUS(3.5, true))
}
