package config

import (
	"github.com/spf13/viper"
	"sync"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("listen_port", "LISTEN_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("admin_chat_id", "ADMIN_CHAT_ID")
		viper.BindEnv("database_path", "DATABASE_PATH")
		viper.BindEnv("primary_quote_url", "PRIMARY_QUOTE_URL")
		viper.BindEnv("sweep_interval_minutes", "SWEEP_INTERVAL_MINUTES")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.SetDefault("listen_port", 8080)
		viper.SetDefault("database_path", "/app/data/bot.db")
		viper.SetDefault("primary_quote_url", "https://api.binance.com/api/v3/ticker/price")
		viper.SetDefault("sweep_interval_minutes", 1)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetInt64(key string) int64 {
	InitConfig()
	return viper.GetInt64(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
