package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"pricewatch-telegram-bot/internal/commands"
	"pricewatch-telegram-bot/lib/helpers"
	"pricewatch-telegram-bot/lib/translation"
)

// Registry is the confirmed-user lookup the router gates commands with.
type Registry interface {
	IsConfirmed(ctx context.Context, chatID int64) (bool, error)
}

// RegistrationMachine drives unregistered chats and administrator decisions.
type RegistrationMachine interface {
	HandleMessage(ctx context.Context, chatID int64, text string) (string, error)
	HandleAdminDecision(ctx context.Context, text string) (string, error)
}

// Router dispatches one inbound message: administrator channel traffic goes
// to the decision branch, unconfirmed chats to the registration machine, and
// confirmed chats to the alert commands. Command prefixes are matched
// case-sensitively on the first whitespace-separated token.
type Router struct {
	Alerts      commands.AlertStore
	Oracle      commands.Oracle
	Registry    Registry
	Machine     RegistrationMachine
	AdminChatID int64
}

// HandleUpdate returns the reply text for an update, or an empty string
// when no reply is due. It never panics to its caller; store failures are
// logged and end the invocation with no reply.
func (r *Router) HandleUpdate(ctx context.Context, u tgbotapi.Update) string {
	if u.Message == nil || u.Message.Chat == nil {
		log.Debug("received non-message update")
		return ""
	}

	chatID := u.Message.Chat.ID
	text := strings.TrimSpace(u.Message.Text)
	if text == "" {
		return ""
	}

	if chatID == r.AdminChatID {
		reply, err := r.Machine.HandleAdminDecision(ctx, text)
		if err != nil {
			log.Errorf("admin decision failed: %v", err)
			return ""
		}
		return reply
	}

	confirmed, err := r.Registry.IsConfirmed(ctx, chatID)
	if err != nil {
		log.Errorf("confirmed lookup failed for chat %d: %v", chatID, err)
		return ""
	}

	if !confirmed {
		reply, err := r.Machine.HandleMessage(ctx, chatID, text)
		if err != nil {
			log.Errorf("registration step failed for chat %d: %v", chatID, err)
			return ""
		}
		return reply
	}

	command, args := splitCommand(text)
	log.Debugf("received command: %s", command)

	var reply string
	switch command {
	case "/start":
		reply = helpers.EscapeMarkdownV2(translation.Translate("You are already registered and approved.")) + "\n" + commands.CommandHelp()
	case "/help":
		reply = commands.CommandHelp()
	case "/set":
		reply, err = commands.CommandSet(ctx, r.Alerts, chatID, args)
	case "/list":
		reply, err = commands.CommandList(ctx, r.Alerts, chatID)
	case "/remove":
		reply, err = commands.CommandRemove(ctx, r.Alerts, chatID, args)
	case "/price":
		reply, err = commands.CommandPrice(ctx, r.Oracle, args)
	default:
		reply = commands.CommandHelp()
	}

	if err != nil {
		log.Errorf("command %s failed for chat %d: %v", command, chatID, err)
		return ""
	}
	return reply
}

func splitCommand(text string) (string, string) {
	fields := strings.SplitN(text, " ", 2)
	command := fields[0]
	// Strip the @botname suffix groups attach to commands.
	if at := strings.Index(command, "@"); at > 0 {
		command = command[:at]
	}
	args := ""
	if len(fields) == 2 {
		args = strings.TrimSpace(fields[1])
	}
	return command, args
}
