package config

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Auth     AuthConfig     `json:"auth"`
	Redis    RedisConfig    `json:"redis"`
	Kafka    KafkaConfig    `json:"kafka"`
	Telegram TelegramConfig `json:"telegram"`
	Chat     ChatConfig     `json:"chat"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type DatabaseConfig struct {
	DSN string `json:"dsn"`
}

type AuthConfig struct {
	JWTSecret     string `json:"jwt_secret"`
	TokenExpiry   int    `json:"token_expiry"`   // in hours
	RefreshExpiry int    `json:"refresh_expiry"` // in hours
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

type KafkaConfig struct {
	Enabled       bool     `json:"enabled"`
	Brokers       []string `json:"brokers"`
	Username      string   `json:"username"`
	Password      string   `json:"password"`
	UseTLS        bool     `json:"use_tls"`
	CertFile      string   `json:"cert_file"`
	KeyFile       string   `json:"key_file"`
	CAFile        string   `json:"ca_file"`
	OrdersTopic   string   `json:"orders_topic"`
	ConsumerGroup string   `json:"consumer_group"`
}

type TelegramConfig struct {
	BotToken string `json:"bot_token"`
	GroupID  string `json:"group_id"`
}

type ChatConfig struct {
	AutoReplyDelaySeconds int `json:"auto_reply_delay_seconds"`
}

// AutoReplyDelay is the pause between a visitor's first message and the
// canned manager reply. Defaults to 3 seconds when unset.
func (c *ChatConfig) AutoReplyDelay() time.Duration {
	if c.AutoReplyDelaySeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.AutoReplyDelaySeconds) * time.Second
}

func LoadConfig(path string) (config Config, err error) {
	if path == "" {
		path = "config/config.json"
	}
	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer func(file *os.File) {
		closeErr := file.Close()
		if closeErr != nil {
			log.Printf("Error closing config file: %v", closeErr)
		}
	}(file)
	decoder := json.NewDecoder(file)
	err = decoder.Decode(&config)
	if err != nil {
		return config, err
	}
	config.applyEnvOverrides()
	return config, nil
}

// Secrets come from the environment so config.json stays committable.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_GROUP_ID"); v != "" {
		c.Telegram.GroupID = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
}
