package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"pricewatch-telegram-bot/internal/database"
	"pricewatch-telegram-bot/internal/types"
)

type fakeRegistry struct {
	confirmed map[int64]bool
}

func (r *fakeRegistry) IsConfirmed(_ context.Context, chatID int64) (bool, error) {
	return r.confirmed[chatID], nil
}

type fakeMachine struct {
	messages  []string
	decisions []string
}

func (m *fakeMachine) HandleMessage(_ context.Context, _ int64, text string) (string, error) {
	m.messages = append(m.messages, text)
	return "registration reply", nil
}

func (m *fakeMachine) HandleAdminDecision(_ context.Context, text string) (string, error) {
	m.decisions = append(m.decisions, text)
	return "decision reply", nil
}

type fakeAlertStore struct {
	alerts map[string]types.Alert
}

func (s *fakeAlertStore) Insert(_ context.Context, alert types.Alert) error {
	s.alerts[alert.ID] = alert
	return nil
}

func (s *fakeAlertStore) Get(_ context.Context, id string) (types.Alert, error) {
	a, ok := s.alerts[id]
	if !ok {
		return types.Alert{}, database.ErrNotFound
	}
	return a, nil
}

func (s *fakeAlertStore) Delete(_ context.Context, id string) error {
	delete(s.alerts, id)
	return nil
}

func (s *fakeAlertStore) ListByChatID(_ context.Context, chatID int64) ([]types.Alert, error) {
	var out []types.Alert
	for _, a := range s.alerts {
		if a.ChatID == chatID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeOracle struct{}

func (fakeOracle) Quote(_ context.Context, _ string) (float64, bool) { return 0, false }

func update(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: chatID},
			Text: text,
		},
	}
}

func newTestRouter() (*Router, *fakeMachine, *fakeAlertStore) {
	machine := &fakeMachine{}
	alerts := &fakeAlertStore{alerts: make(map[string]types.Alert)}
	router := &Router{
		Alerts:      alerts,
		Oracle:      fakeOracle{},
		Registry:    &fakeRegistry{confirmed: map[int64]bool{7: true}},
		Machine:     machine,
		AdminChatID: 999,
	}
	return router, machine, alerts
}

func TestHandleUpdate_AdminChannelGoesToDecisionBranch(t *testing.T) {
	router, machine, _ := newTestRouter()

	reply := router.HandleUpdate(context.Background(), update(999, "accept 1"))
	require.Equal(t, "decision reply", reply)
	require.Equal(t, []string{"accept 1"}, machine.decisions)
	require.Empty(t, machine.messages)
}

func TestHandleUpdate_UnconfirmedChatGoesToRegistration(t *testing.T) {
	router, machine, _ := newTestRouter()

	for _, text := range []string{"/start", "/set BTC 1", "hello"} {
		reply := router.HandleUpdate(context.Background(), update(5, text))
		require.Equal(t, "registration reply", reply)
	}
	require.Equal(t, []string{"/start", "/set BTC 1", "hello"}, machine.messages)
}

func TestHandleUpdate_ConfirmedChatRunsCommands(t *testing.T) {
	router, machine, alerts := newTestRouter()
	ctx := context.Background()

	reply := router.HandleUpdate(ctx, update(7, "/set BTC 100000"))
	require.Contains(t, reply, "BTC")
	require.Len(t, alerts.alerts, 1)
	require.Empty(t, machine.messages)

	reply = router.HandleUpdate(ctx, update(7, "/list"))
	require.Contains(t, reply, "BTC")

	reply = router.HandleUpdate(ctx, update(7, "/help"))
	require.Contains(t, reply, "/set SYMBOL PRICE")
}

func TestHandleUpdate_ConfirmedStartSkipsRegistration(t *testing.T) {
	router, machine, _ := newTestRouter()

	reply := router.HandleUpdate(context.Background(), update(7, "/start"))
	require.Contains(t, reply, "already registered and approved")
	require.Contains(t, reply, "/set SYMBOL PRICE")
	require.Empty(t, machine.messages)
}

func TestHandleUpdate_UnknownCommandRepliesWithHelp(t *testing.T) {
	router, _, _ := newTestRouter()

	reply := router.HandleUpdate(context.Background(), update(7, "/frob"))
	require.Contains(t, reply, "/set SYMBOL PRICE")
}

func TestHandleUpdate_IgnoresNonMessages(t *testing.T) {
	router, _, _ := newTestRouter()

	require.Empty(t, router.HandleUpdate(context.Background(), tgbotapi.Update{}))
	require.Empty(t, router.HandleUpdate(context.Background(), update(7, "   ")))
}

func TestSplitCommand(t *testing.T) {
	for _, tc := range []struct {
		in, command, args string
	}{
		{"/set BTC 100000", "/set", "BTC 100000"},
		{"/list", "/list", ""},
		{"/set@pricebot BTC 1", "/set", "BTC 1"},
		{"/remove  a1 ", "/remove", "a1"},
	} {
		command, args := splitCommand(tc.in)
		require.Equal(t, tc.command, command, tc.in)
		require.Equal(t, tc.args, args, tc.in)
	}
}
