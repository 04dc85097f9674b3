package registration

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"pricewatch-telegram-bot/internal/database"
	"pricewatch-telegram-bot/internal/types"
	"pricewatch-telegram-bot/lib/helpers"
	"pricewatch-telegram-bot/lib/translation"
)

// Decision keywords the administrator channel may reply with.
const (
	KeywordAccept  = "accept"
	KeywordDecline = "decline"
)

// Store is the slice of the user registry the machine needs.
type Store interface {
	GetPending(ctx context.Context, chatID int64) (types.UserProfile, error)
	PutPending(ctx context.Context, profile types.UserProfile) error
	DeletePending(ctx context.Context, chatID int64) error
	PendingChatIDs(ctx context.Context) ([]int64, error)
	PutConfirmed(ctx context.Context, profile types.UserProfile) error
	GetProgress(ctx context.Context, chatID int64) (types.RegistrationProgress, error)
	PutProgress(ctx context.Context, progress types.RegistrationProgress) error
	ClearProgress(ctx context.Context, chatID int64) error
}

// Notifier delivers a text message to a chat.
type Notifier interface {
	Send(chatID int64, text string) error
}

// Machine walks a chat from first contact through field collection into the
// pending store, and applies the administrator's accept/decline decision.
// One field is collected per message: name, then surname, then phone.
type Machine struct {
	store       Store
	notifier    Notifier
	adminChatID int64
}

func NewMachine(store Store, notifier Notifier, adminChatID int64) *Machine {
	return &Machine{
		store:       store,
		notifier:    notifier,
		adminChatID: adminChatID,
	}
}

// HandleMessage processes one inbound message from an unconfirmed chat and
// returns the reply text. Pending chats get a waiting notice; everything
// else advances the collection cursor. Confirmed chats never reach the
// machine, the router dispatches them to the command handlers.
func (m *Machine) HandleMessage(ctx context.Context, chatID int64, text string) (string, error) {
	if _, err := m.store.GetPending(ctx, chatID); err == nil {
		return helpers.EscapeMarkdownV2(translation.Translate("Your registration is waiting for approval. You will be notified once it is reviewed.")), nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return "", errors.Wrap(err, "pending lookup failed")
	}

	progress, err := m.store.GetProgress(ctx, chatID)
	if errors.Is(err, database.ErrNotFound) {
		return m.startCollecting(ctx, chatID)
	} else if err != nil {
		return "", errors.Wrap(err, "progress lookup failed")
	}

	return m.advance(ctx, progress, strings.TrimSpace(text))
}

func (m *Machine) startCollecting(ctx context.Context, chatID int64) (string, error) {
	progress := types.RegistrationProgress{ChatID: chatID, Step: types.StepName}
	if err := m.store.PutProgress(ctx, progress); err != nil {
		return "", errors.Wrap(err, "could not start registration")
	}
	return helpers.EscapeMarkdownV2(translation.Translate("Welcome! To use this bot you need to register first.\nPlease enter your name:")), nil
}

// advance stores the answer to the current step's prompt and moves the
// cursor forward; the final answer assembles the profile and submits it.
func (m *Machine) advance(ctx context.Context, progress types.RegistrationProgress, answer string) (string, error) {
	if answer == "" {
		return helpers.EscapeMarkdownV2(translation.Translate("Please send a non-empty value.")), nil
	}

	switch progress.Step {
	case types.StepName:
		progress.Name = answer
		progress.Step = types.StepSurname
		if err := m.store.PutProgress(ctx, progress); err != nil {
			return "", errors.Wrap(err, "could not save registration progress")
		}
		return helpers.EscapeMarkdownV2(translation.Translate("Thanks! Now enter your surname:")), nil

	case types.StepSurname:
		progress.Surname = answer
		progress.Step = types.StepPhone
		if err := m.store.PutProgress(ctx, progress); err != nil {
			return "", errors.Wrap(err, "could not save registration progress")
		}
		return helpers.EscapeMarkdownV2(translation.Translate("Almost done. Enter your phone number:")), nil

	case types.StepPhone:
		profile := types.UserProfile{
			ChatID:  progress.ChatID,
			Name:    progress.Name,
			Surname: progress.Surname,
			Phone:   answer,
		}
		return m.submit(ctx, profile)
	}

	// Unknown cursor value, start over.
	if err := m.store.ClearProgress(ctx, progress.ChatID); err != nil {
		return "", errors.Wrap(err, "could not reset registration progress")
	}
	return m.startCollecting(ctx, progress.ChatID)
}

// submit moves the assembled profile into the pending store, clears the
// cursor so nothing can be resubmitted mid-flight, and asks the
// administrator channel for a decision.
func (m *Machine) submit(ctx context.Context, profile types.UserProfile) (string, error) {
	if err := m.store.PutPending(ctx, profile); err != nil {
		return "", errors.Wrap(err, "could not save pending registration")
	}
	if err := m.store.ClearProgress(ctx, profile.ChatID); err != nil {
		return "", errors.Wrap(err, "could not clear registration progress")
	}

	request := helpers.EscapeMarkdownV2(fmt.Sprintf(
		translation.Translate("New registration request:\nName: %s %s\nPhone: %s\nChat ID: %d\n\nReply \"accept %d\" or \"decline %d\"."),
		profile.Name, profile.Surname, profile.Phone, profile.ChatID, profile.ChatID, profile.ChatID,
	))
	if err := m.notifier.Send(m.adminChatID, request); err != nil {
		// The profile stays pending; the administrator can still act on it.
		log.Errorf("failed to send decision request for chat %d: %v", profile.ChatID, err)
	}

	return helpers.EscapeMarkdownV2(translation.Translate("Registration submitted. You will be notified once an administrator reviews it.")), nil
}

// HandleAdminDecision interprets a free-text reply from the administrator
// channel. Recognized forms are "accept", "decline", "accept <chat id>" and
// "decline <chat id>", case-insensitive; any other text is ignored and
// produces no reply. A bare keyword only resolves when exactly one
// registration is pending; with several pending the administrator is asked
// to repeat the decision with an explicit chat id.
func (m *Machine) HandleAdminDecision(ctx context.Context, text string) (string, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) == 0 {
		return "", nil
	}

	keyword := fields[0]
	if keyword != KeywordAccept && keyword != KeywordDecline {
		return "", nil
	}

	pending, err := m.store.PendingChatIDs(ctx)
	if err != nil {
		return "", errors.Wrap(err, "pending scan failed")
	}
	if len(pending) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("No registrations are waiting for review.")), nil
	}

	var target int64
	switch {
	case len(fields) >= 2:
		target, err = strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return helpers.EscapeMarkdownV2(fmt.Sprintf(translation.Translate("Could not parse chat id %q. Reply with %s followed by the chat id."), fields[1], keyword)), nil
		}
	case len(pending) == 1:
		target = pending[0]
	default:
		return helpers.EscapeMarkdownV2(fmt.Sprintf(
			translation.Translate("%d registrations are pending. Reply with accept or decline followed by the chat id."), len(pending))), nil
	}

	profile, err := m.store.GetPending(ctx, target)
	if errors.Is(err, database.ErrNotFound) {
		return helpers.EscapeMarkdownV2(fmt.Sprintf(translation.Translate("No pending registration for chat %d."), target)), nil
	} else if err != nil {
		return "", errors.Wrap(err, "pending lookup failed")
	}

	if keyword == KeywordAccept {
		return m.accept(ctx, profile)
	}
	return m.decline(ctx, profile)
}

func (m *Machine) accept(ctx context.Context, profile types.UserProfile) (string, error) {
	if err := m.store.PutConfirmed(ctx, profile); err != nil {
		return "", errors.Wrap(err, "could not confirm user")
	}
	if err := m.store.DeletePending(ctx, profile.ChatID); err != nil {
		return "", errors.Wrap(err, "could not remove pending record")
	}

	if err := m.notifier.Send(profile.ChatID, helpers.EscapeMarkdownV2(translation.Translate(
		"🎉 Your registration has been approved! Use /help to see the available commands."))); err != nil {
		log.Errorf("failed to send approval notice to chat %d: %v", profile.ChatID, err)
	}

	return helpers.EscapeMarkdownV2(fmt.Sprintf(translation.Translate("Approved %s %s (chat %d)."), profile.Name, profile.Surname, profile.ChatID)), nil
}

func (m *Machine) decline(ctx context.Context, profile types.UserProfile) (string, error) {
	if err := m.store.DeletePending(ctx, profile.ChatID); err != nil {
		return "", errors.Wrap(err, "could not remove pending record")
	}

	if err := m.notifier.Send(profile.ChatID, helpers.EscapeMarkdownV2(translation.Translate(
		"Your registration has been declined by the administrator."))); err != nil {
		log.Errorf("failed to send rejection notice to chat %d: %v", profile.ChatID, err)
	}

	return helpers.EscapeMarkdownV2(fmt.Sprintf(translation.Translate("Declined %s %s (chat %d)."), profile.Name, profile.Surname, profile.ChatID)), nil
}
