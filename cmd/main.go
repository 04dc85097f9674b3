package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/leonelquinteros/gotext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"pricewatch-telegram-bot/config"
	"pricewatch-telegram-bot/internal/alert"
	"pricewatch-telegram-bot/internal/database"
	"pricewatch-telegram-bot/internal/price"
	"pricewatch-telegram-bot/internal/registration"
	"pricewatch-telegram-bot/internal/telegram"
)

type BotMetrics struct {
	MessagesHandled  prometheus.Counter
	RepliesDelivered prometheus.Counter
	SweepsRun        prometheus.Counter
	AlertsTriggered  prometheus.Counter
	OracleMisses     prometheus.Counter
}

var metrics = NewBotMetrics()

func init() {
	config.InitConfig()
	setupLogging()
}

func NewBotMetrics() *BotMetrics {
	m := &BotMetrics{
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricewatch",
			Subsystem: "telegram_bot",
			Name:      "messages_handled",
			Help:      "The total number of handled webhook messages",
		}),
		RepliesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricewatch",
			Subsystem: "telegram_bot",
			Name:      "replies_delivered",
			Help:      "The total number of replies delivered to chats",
		}),
		SweepsRun: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricewatch",
			Subsystem: "telegram_bot",
			Name:      "sweeps_run",
			Help:      "The total number of alert sweeps executed",
		}),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricewatch",
			Subsystem: "telegram_bot",
			Name:      "alerts_triggered",
			Help:      "The total number of alerts fired and deleted",
		}),
		OracleMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricewatch",
			Subsystem: "telegram_bot",
			Name:      "oracle_misses",
			Help:      "The total number of symbol groups skipped for missing prices",
		}),
	}

	prometheus.MustRegister(m.MessagesHandled)
	prometheus.MustRegister(m.RepliesDelivered)
	prometheus.MustRegister(m.SweepsRun)
	prometheus.MustRegister(m.AlertsTriggered)
	prometheus.MustRegister(m.OracleMisses)

	return m
}

func main() {
	gotext.Configure("locales", strings.ToLower(config.GetString("lang")), "default")

	db, err := database.Open(config.GetString("database_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	alerts := database.NewAlertStore(db)
	users := database.NewUserStore(db)
	metricStore := database.NewMetricStore(db)

	loadMetricsFromDB(metricStore)

	bot, err := telegram.NewBot(telegram.BotConfig{
		Token: config.GetString("telegram_bot_token"),
		Debug: config.GetBool("debug"),
	})
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	oracle := price.NewClient(config.GetString("primary_quote_url"))
	adminChatID := config.GetInt64("admin_chat_id")

	machine := registration.NewMachine(users, bot, adminChatID)
	engine := alert.NewEngine(alerts, oracle, bot, alert.Metrics{
		SweepsRun:       metrics.SweepsRun,
		AlertsTriggered: metrics.AlertsTriggered,
		OracleMisses:    metrics.OracleMisses,
	})

	scheduler := cron.New()
	_, err = scheduler.AddFunc(fmt.Sprintf("@every %dm", config.GetInt("sweep_interval_minutes")), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		engine.RunSweep(ctx)
	})
	if err != nil {
		log.Fatalf("Failed to schedule alert sweep: %v", err)
	}
	scheduler.Start()

	go func() {
		for {
			time.Sleep(5 * time.Minute)
			saveMetricsToDB(metricStore)
		}
	}()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		saveMetricsToDB(metricStore)
		log.Println("Metrics saved, shutting down...")
		os.Exit(0)
	}()

	webhook := &telegram.WebhookHandler{
		Router: &telegram.Router{
			Alerts:      alerts,
			Oracle:      oracle,
			Registry:    users,
			Machine:     machine,
			AdminChatID: adminChatID,
		},
		Notifier:         bot,
		MessagesHandled:  metrics.MessagesHandled,
		RepliesDelivered: metrics.RepliesDelivered,
	}

	if err := launchServer(config.GetInt("listen_port"), webhook); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting telegram bot...")
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchServer(port int, webhook *telegram.WebhookHandler) error {
	http.Handle("/webhook", webhook)
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching webhook and metrics endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}

func loadMetricsFromDB(store *database.MetricStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for name, counter := range persistedCounters() {
		value, err := store.GetMetric(ctx, name)
		if err != nil {
			log.Errorf("Failed to load metric %s: %v", name, err)
			continue
		}
		counter.Add(value)
	}
	log.Println("Metrics loaded from database.")
}

func saveMetricsToDB(store *database.MetricStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for name, counter := range persistedCounters() {
		if err := store.SaveMetric(ctx, name, getMetricValue(counter)); err != nil {
			log.Errorf("Failed to save metric %s: %v", name, err)
		}
	}
	log.Println("Metrics saved to database.")
}

func persistedCounters() map[string]prometheus.Counter {
	return map[string]prometheus.Counter{
		"messages_handled":  metrics.MessagesHandled,
		"replies_delivered": metrics.RepliesDelivered,
		"sweeps_run":        metrics.SweepsRun,
		"alerts_triggered":  metrics.AlertsTriggered,
		"oracle_misses":     metrics.OracleMisses,
	}
}

func getMetricValue(metric prometheus.Collector) float64 {
	metricChan := make(chan prometheus.Metric, 1)
	metric.Collect(metricChan)
	close(metricChan)

	metricProto := &dto.Metric{}
	if err := (<-metricChan).Write(metricProto); err != nil {
		log.Printf("Failed to read metric value: %v", err)
		return 0
	}

	if metricProto.Counter != nil {
		return metricProto.Counter.GetValue()
	}
	return 0
}
