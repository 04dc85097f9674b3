package translation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranslate_FallsBackToMessageID(t *testing.T) {
	require.Equal(t, "Alert set", Translate("Alert set"))
	require.Equal(t, "Price for BTC", Translate("Price for %s", "BTC"))
}
