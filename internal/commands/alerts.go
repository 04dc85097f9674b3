package commands

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"pricewatch-telegram-bot/internal/database"
	"pricewatch-telegram-bot/internal/types"
	"pricewatch-telegram-bot/lib/helpers"
	"pricewatch-telegram-bot/lib/translation"
)

// AlertStore is the slice of the alert repository the commands need.
type AlertStore interface {
	Insert(ctx context.Context, alert types.Alert) error
	Get(ctx context.Context, id string) (types.Alert, error)
	Delete(ctx context.Context, id string) error
	ListByChatID(ctx context.Context, chatID int64) ([]types.Alert, error)
}

// Oracle resolves a symbol to a current price, or reports it unavailable.
type Oracle interface {
	Quote(ctx context.Context, symbol string) (float64, bool)
}

// CommandSet handles `/set SYMBOL PRICE`: it validates the arguments and
// stores a new alert owned by the chat. Malformed input yields a usage hint,
// never an error.
func CommandSet(ctx context.Context, store AlertStore, chatID int64, args string) (string, error) {
	log.Debugf("processing command /set with arguments: %s", args)

	parts := strings.Fields(args)
	if len(parts) < 2 {
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /set SYMBOL PRICE — example: /set BTC 100000")), nil
	}

	symbol := strings.ToUpper(parts[0])
	target, err := strconv.ParseFloat(strings.ReplaceAll(parts[1], ",", ""), 64)
	if err != nil || math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("Invalid price. Example: /set BTC 100000")), nil
	}

	a := types.Alert{
		ID:     uuid.NewString(),
		ChatID: chatID,
		Symbol: symbol,
		Target: target,
	}
	if err := store.Insert(ctx, a); err != nil {
		return "", errors.Wrap(err, "command /set")
	}

	return helpers.EscapeMarkdownV2(fmt.Sprintf(
		translation.Translate("Alert set:\n%s → %s USD\nid: %s"),
		symbol, helpers.FormatPriceUS(target, false), a.ID)), nil
}

// CommandList handles `/list`: it replies with the chat's own alerts only.
func CommandList(ctx context.Context, store AlertStore, chatID int64) (string, error) {
	alerts, err := store.ListByChatID(ctx, chatID)
	if err != nil {
		return "", errors.Wrap(err, "command /list")
	}

	if len(alerts) == 0 {
		return helpers.EscapeMarkdownV2(translation.Translate("You have no active alerts. Use /set SYMBOL PRICE to create one.")), nil
	}

	var b strings.Builder
	b.WriteString(translation.Translate("Your active alerts:") + "\n")
	for _, a := range alerts {
		b.WriteString(fmt.Sprintf(translation.Translate("%s → %s @ %s USD"), a.ID, a.Symbol, helpers.FormatPriceUS(a.Target, false)) + "\n")
	}
	return helpers.EscapeMarkdownV2(b.String()), nil
}

// CommandRemove handles `/remove ID`: only the owning chat may delete an
// alert; anyone else gets an ownership denial and the record stays put.
func CommandRemove(ctx context.Context, store AlertStore, chatID int64, args string) (string, error) {
	id := strings.TrimSpace(args)
	if id == "" {
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /remove ID")), nil
	}

	a, err := store.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return helpers.EscapeMarkdownV2(translation.Translate("No alert found with this ID.")), nil
	} else if err != nil {
		return "", errors.Wrap(err, "command /remove")
	}

	if a.ChatID != chatID {
		return helpers.EscapeMarkdownV2(translation.Translate("This alert does not belong to you.")), nil
	}

	if err := store.Delete(ctx, id); err != nil {
		return "", errors.Wrap(err, "command /remove")
	}
	return helpers.EscapeMarkdownV2(fmt.Sprintf(translation.Translate("Alert %s removed."), id)), nil
}

// CommandPrice handles `/price SYMBOL`: a one-off quote with no alert.
func CommandPrice(ctx context.Context, oracle Oracle, args string) (string, error) {
	log.Debugf("processing command /price with argument: %s", args)

	symbol := strings.ToUpper(strings.TrimSpace(args))
	if symbol == "" {
		return helpers.EscapeMarkdownV2(translation.Translate("Usage: /price SYMBOL — example: /price BTC")), nil
	}

	p, ok := oracle.Quote(ctx, symbol)
	if !ok {
		return helpers.EscapeMarkdownV2(fmt.Sprintf(translation.Translate("Price for %s is currently unavailable."), symbol)), nil
	}

	return fmt.Sprintf(translation.Translate("*%s price:* `$%s`"), helpers.EscapeMarkdownV2(symbol), helpers.FormatPriceUS(p, true)), nil
}

// CommandHelp returns the command overview.
func CommandHelp() string {
	return helpers.EscapeMarkdownV2(translation.Translate("Commands:\n" +
		"/set SYMBOL PRICE — alert once the price reaches the target\n" +
		"/list — show your alerts\n" +
		"/remove ID — delete an alert\n" +
		"/price SYMBOL — current price\n" +
		"/help — this message"))
}
