package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pricewatch-telegram-bot/internal/database"
	"pricewatch-telegram-bot/internal/types"
	"pricewatch-telegram-bot/lib/helpers"
)

type fakeStore struct {
	alerts map[string]types.Alert
}

func newFakeStore() *fakeStore {
	return &fakeStore{alerts: make(map[string]types.Alert)}
}

func (s *fakeStore) Insert(_ context.Context, alert types.Alert) error {
	s.alerts[alert.ID] = alert
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (types.Alert, error) {
	a, ok := s.alerts[id]
	if !ok {
		return types.Alert{}, database.ErrNotFound
	}
	return a, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	delete(s.alerts, id)
	return nil
}

func (s *fakeStore) ListByChatID(_ context.Context, chatID int64) ([]types.Alert, error) {
	var out []types.Alert
	for _, a := range s.alerts {
		if a.ChatID == chatID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeOracle struct {
	prices map[string]float64
}

func (o *fakeOracle) Quote(_ context.Context, symbol string) (float64, bool) {
	p, ok := o.prices[symbol]
	return p, ok
}

func TestCommandSet_CreatesAlertVisibleInList(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	reply, err := CommandSet(ctx, store, 7, "btc 100000")
	require.NoError(t, err)
	require.Contains(t, reply, "BTC")
	require.Len(t, store.alerts, 1)

	var created types.Alert
	for _, a := range store.alerts {
		created = a
	}
	require.NotEmpty(t, created.ID)
	require.Equal(t, int64(7), created.ChatID)
	require.Equal(t, "BTC", created.Symbol)
	require.Equal(t, float64(100000), created.Target)

	// Reply text is MarkdownV2-escaped, so compare against the escaped id.
	list, err := CommandList(ctx, store, 7)
	require.NoError(t, err)
	require.Contains(t, list, helpers.EscapeMarkdownV2(created.ID))
}

func TestCommandSet_GeneratesUniqueIDs(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := CommandSet(ctx, store, 7, "BTC 100000")
		require.NoError(t, err)
	}
	require.Len(t, store.alerts, 5)
}

func TestCommandSet_MalformedArgumentsGiveUsageHint(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	for _, args := range []string{"", "BTC", "BTC abc", "BTC NaN", "BTC -5", "BTC 0"} {
		reply, err := CommandSet(ctx, store, 7, args)
		require.NoError(t, err)
		require.NotEmpty(t, reply)
		require.Empty(t, store.alerts, "args %q must not create an alert", args)
	}
}

func TestCommandSet_AcceptsThousandsSeparators(t *testing.T) {
	store := newFakeStore()

	_, err := CommandSet(context.Background(), store, 7, "BTC 100,000")
	require.NoError(t, err)
	require.Len(t, store.alerts, 1)
	for _, a := range store.alerts {
		require.Equal(t, float64(100000), a.Target)
	}
}

func TestCommandRemove_DeniesForeignAlert(t *testing.T) {
	store := newFakeStore()
	store.alerts["a1"] = types.Alert{ID: "a1", ChatID: 7, Symbol: "BTC", Target: 1}
	ctx := context.Background()

	reply, err := CommandRemove(ctx, store, 8, "a1")
	require.NoError(t, err)
	require.Contains(t, reply, "does not belong to you")
	require.Len(t, store.alerts, 1)

	reply, err = CommandRemove(ctx, store, 7, "a1")
	require.NoError(t, err)
	require.Contains(t, reply, "removed")
	require.Empty(t, store.alerts)
}

func TestCommandRemove_MissingIDIsHarmless(t *testing.T) {
	store := newFakeStore()

	reply, err := CommandRemove(context.Background(), store, 7, "nope")
	require.NoError(t, err)
	require.Contains(t, reply, "No alert found")
}

func TestCommandPrice_ReportsUnavailable(t *testing.T) {
	oracle := &fakeOracle{prices: map[string]float64{"BTC": 60000}}
	ctx := context.Background()

	reply, err := CommandPrice(ctx, oracle, "btc")
	require.NoError(t, err)
	require.Contains(t, reply, "BTC")
	require.Contains(t, reply, "60,000")

	reply, err = CommandPrice(ctx, oracle, "DOGE")
	require.NoError(t, err)
	require.Contains(t, reply, "unavailable")
}
