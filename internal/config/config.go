package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Admin    AdminConfig
	WhatsApp WhatsAppConfig
	Bot      BotConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// AdminConfig holds the demo dashboard credentials
type AdminConfig struct {
	Username string
	Password string
}

// WhatsAppConfig holds Twilio WhatsApp gateway configuration
type WhatsAppConfig struct {
	AccountSID  string
	AuthToken   string
	FromNumber  string
	VerifyToken string
	MockGateway bool
}

// BotConfig holds bot behavior configuration
type BotConfig struct {
	TopicListLimit     int           // topics shown in the registration prompt
	FreeDailyLimit     int           // free lessons per day for non-subscribers
	DailyHour          int           // daily delivery trigger, local time
	DailyMinute        int
	WeeklyWeekday      int           // 0 = Sunday
	WeeklyHour         int
	WeeklyMinute       int
	DeliveryDelay      time.Duration // inter-user throttle during daily delivery
	ReportDelay        time.Duration // inter-user throttle during weekly reports
	SessionTTL         time.Duration // registration session eviction
	SubscribeURL       string
	CertificateBaseURL string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if the config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "5000")
	viper.SetDefault("Server.AllowedOrigins", []string{"*"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "microlearn")
	viper.SetDefault("JWT.Secret", "demo-secret")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("Admin.Username", "admin")
	viper.SetDefault("Admin.Password", "admin123")
	viper.SetDefault("WhatsApp.VerifyToken", "demo-verify-token")
	viper.SetDefault("WhatsApp.MockGateway", true)
	viper.SetDefault("Bot.TopicListLimit", 8)
	viper.SetDefault("Bot.FreeDailyLimit", 3)
	viper.SetDefault("Bot.DailyHour", 9)
	viper.SetDefault("Bot.DailyMinute", 0)
	viper.SetDefault("Bot.WeeklyWeekday", 0) // Sunday
	viper.SetDefault("Bot.WeeklyHour", 18)
	viper.SetDefault("Bot.WeeklyMinute", 0)
	viper.SetDefault("Bot.DeliveryDelay", "2s")
	viper.SetDefault("Bot.ReportDelay", "3s")
	viper.SetDefault("Bot.SessionTTL", "24h")
	viper.SetDefault("Bot.SubscribeURL", "https://microlearn.example.com/pay")
	viper.SetDefault("Bot.CertificateBaseURL", "https://microlearn.example.com/certificates")
	viper.SetDefault("LogLevel", "info")
}
