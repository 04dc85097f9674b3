package alert

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"pricewatch-telegram-bot/internal/types"
	"pricewatch-telegram-bot/lib/helpers"
	"pricewatch-telegram-bot/lib/translation"
)

// scanPageSize bounds one page of the alert scan.
const scanPageSize = 100

// Store is the slice of the alert repository the engine needs.
type Store interface {
	ListPage(ctx context.Context, cursor string, limit int) ([]types.Alert, string, error)
	Delete(ctx context.Context, id string) error
}

// Oracle resolves a symbol to a current price, or reports it unavailable.
type Oracle interface {
	Quote(ctx context.Context, symbol string) (float64, bool)
}

// Notifier delivers a text message to a chat.
type Notifier interface {
	Send(chatID int64, text string) error
}

// Metrics are the engine's sweep counters. Any field may be nil.
type Metrics struct {
	SweepsRun       Counter
	AlertsTriggered Counter
	OracleMisses    Counter
}

// Counter is the increment-only slice of prometheus.Counter.
type Counter interface {
	Inc()
}

// Engine runs alert sweeps: it scans every stored alert, groups them by
// symbol so each distinct symbol costs one oracle call, and fires each
// satisfied alert exactly once per observation by notifying the owner and
// then deleting the record. A crash between notify and delete re-fires the
// alert on the next sweep; that is the chosen failure mode.
type Engine struct {
	store    Store
	oracle   Oracle
	notifier Notifier
	metrics  Metrics

	sweepMutex sync.Mutex
}

func NewEngine(store Store, oracle Oracle, notifier Notifier, metrics Metrics) *Engine {
	return &Engine{
		store:    store,
		oracle:   oracle,
		notifier: notifier,
		metrics:  metrics,
	}
}

// RunSweep performs one full pass over all alerts. It never returns an
// error: oracle failures skip the affected symbol group for this sweep, and
// a store failure abandons the sweep until the next tick. Sweeps are
// serialized in-process; deletes stay idempotent so an overlapping process
// racing on the same alert cannot fail either side.
func (e *Engine) RunSweep(ctx context.Context) {
	e.sweepMutex.Lock()
	defer e.sweepMutex.Unlock()

	log.Debug("starting alert sweep")
	inc(e.metrics.SweepsRun)

	bySymbol, err := e.collectAlerts(ctx)
	if err != nil {
		log.Errorf("failed to scan alerts, abandoning sweep: %v", err)
		return
	}

	for symbol, alerts := range bySymbol {
		currentPrice, ok := e.oracle.Quote(ctx, symbol)
		if !ok {
			log.Debugf("no price available for %s, skipping %d alert(s)", symbol, len(alerts))
			inc(e.metrics.OracleMisses)
			continue
		}

		for _, a := range alerts {
			if currentPrice >= a.Target {
				e.fire(ctx, a, currentPrice)
			}
		}
	}

	log.Debug("alert sweep completed")
}

// collectAlerts walks the full paginated scan and groups records by symbol.
func (e *Engine) collectAlerts(ctx context.Context) (map[string][]types.Alert, error) {
	bySymbol := make(map[string][]types.Alert)

	cursor := ""
	for {
		alerts, next, err := e.store.ListPage(ctx, cursor, scanPageSize)
		if err != nil {
			return nil, err
		}
		for _, a := range alerts {
			bySymbol[a.Symbol] = append(bySymbol[a.Symbol], a)
		}
		if next == "" {
			return bySymbol, nil
		}
		cursor = next
	}
}

// fire notifies the owner and deletes the alert. Deletion only happens
// after a confirmed send, so a failed delivery leaves the alert in place
// for the next sweep.
func (e *Engine) fire(ctx context.Context, a types.Alert, currentPrice float64) {
	message := fmt.Sprintf(
		translation.Translate("🚨 *Price Alert Triggered*\n\n*%s* has reached the target price of *$%s*\nCurrent Price: *$%s*"),
		helpers.EscapeMarkdownV2(a.Symbol),
		helpers.FormatPriceUS(a.Target, true),
		helpers.FormatPriceUS(currentPrice, true),
	)

	if err := e.notifier.Send(a.ChatID, message); err != nil {
		log.Errorf("failed to send alert notification for %s: %v", a.ID, err)
		return
	}

	if err := e.store.Delete(ctx, a.ID); err != nil {
		log.Errorf("failed to delete triggered alert %s: %v", a.ID, err)
		return
	}

	inc(e.metrics.AlertsTriggered)
	log.Debugf("alert %s fired for chat %d (%s at %.2f)", a.ID, a.ChatID, a.Symbol, currentPrice)
}

func inc(c Counter) {
	if c != nil {
		c.Inc()
	}
}
