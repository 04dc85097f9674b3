package telegram

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []Message
	fail bool
}

func (s *fakeSender) SendMessage(m Message) error {
	if s.fail {
		return http.ErrHandlerTimeout
	}
	s.sent = append(s.sent, m)
	return nil
}

func newTestHandler() (*WebhookHandler, *fakeSender) {
	router, _, _ := newTestRouter()
	sender := &fakeSender{}
	return &WebhookHandler{Router: router, Notifier: sender}, sender
}

func TestWebhook_GetReturnsLiveness(t *testing.T) {
	handler, _ := newTestHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "up")
}

func TestWebhook_MalformedBodyIsAcknowledged(t *testing.T) {
	handler, sender := newTestHandler()

	for _, body := range []string{"", "not json", `{"message": 42}`} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code, "body %q", body)
		require.Equal(t, "ok", rec.Body.String())
	}
	require.Empty(t, sender.sent)
}

func TestWebhook_RoutesUpdateAndReplies(t *testing.T) {
	handler, sender := newTestHandler()

	body := `{"update_id":1,"message":{"message_id":5,"chat":{"id":7},"text":"/help"}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, sender.sent, 1)
	require.Equal(t, int64(7), sender.sent[0].ChatID)
	require.Equal(t, 5, sender.sent[0].MessageID)
	require.Contains(t, sender.sent[0].Text, "/set SYMBOL PRICE")
}

func TestWebhook_SendFailureStillAcknowledges(t *testing.T) {
	handler, sender := newTestHandler()
	sender.fail = true

	body := `{"update_id":1,"message":{"message_id":5,"chat":{"id":7},"text":"/help"}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
