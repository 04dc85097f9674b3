package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

// handlerTimeout bounds one webhook invocation end to end.
const handlerTimeout = 25 * time.Second

// Notifier delivers the router's reply back to the chat.
type Notifier interface {
	SendMessage(m Message) error
}

// WebhookHandler is the HTTP face of the bot. POST bodies are decoded as
// Telegram updates and routed; anything malformed is acknowledged with a
// plain 200 so the platform does not retry it. GET returns a liveness
// string.
type WebhookHandler struct {
	Router   *Router
	Notifier Notifier

	// Optional counters, registered by the caller.
	MessagesHandled  prometheus.Counter
	RepliesDelivered prometheus.Counter
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Telegram price alert bot — up"))
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", rec, stackTrace)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}()

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Debugf("ignoring malformed update: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if h.MessagesHandled != nil {
		h.MessagesHandled.Inc()
	}

	reply := h.Router.HandleUpdate(ctx, update)
	if reply == "" || update.Message == nil {
		return
	}

	err := h.Notifier.SendMessage(Message{
		ChatID:    update.Message.Chat.ID,
		MessageID: update.Message.MessageID,
		Text:      reply,
	})
	if err != nil {
		log.Errorf("Failed to send message: %v", err)
	} else if h.RepliesDelivered != nil {
		h.RepliesDelivered.Inc()
	}
}
