package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AuthConfig struct {
	JWTSecret           string   `yaml:"jwt_secret"`
	TokenTTLMinutes     int      `yaml:"token_ttl_minutes"`
	OTPTTLMinutes       int      `yaml:"otp_ttl_minutes"`
	AdminKey            string   `yaml:"admin_key"`
	AdminEmailDomain    string   `yaml:"admin_email_domain"`
	AdminEmailAllowlist []string `yaml:"admin_email_allowlist"`
}

type EmailConfig struct {
	SMTPHost           string `yaml:"smtp_host"`
	SMTPPort           int    `yaml:"smtp_port"`
	SMTPUser           string `yaml:"smtp_user"`
	SMTPPassword       string `yaml:"smtp_password"`
	FromEmail          string `yaml:"from_email"`
	SendTimeoutSeconds int    `yaml:"send_timeout_seconds"`
	// Если true — неудачная отправка письма при создании аккаунта
	// откатывает создание. По умолчанию false: создание остаётся,
	// наружу уходит флаг emailSent=false.
	RequireDelivery bool `yaml:"require_delivery"`
}

type TelegramConfig struct {
	BotToken  string `yaml:"bot_token"`
	OpsChatID int64  `yaml:"ops_chat_id"`
}

type Config struct {
	Server struct {
		Port          int    `yaml:"port"`
		PublicBaseURL string `yaml:"public_base_url"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email    EmailConfig    `yaml:"email"`
	Auth     AuthConfig     `yaml:"auth"`
	Telegram TelegramConfig `yaml:"telegram"`
}

func LoadConfig() *Config {
	path := os.Getenv("DEEPTECH_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	f, err := os.Open(path)
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	// секреты можно переопределить окружением
	if v := os.Getenv("DEEPTECH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("DEEPTECH_ADMIN_KEY"); v != "" {
		cfg.Auth.AdminKey = v
	}
	if v := os.Getenv("DEEPTECH_SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}

	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 24 * 60
	}
	if cfg.Auth.OTPTTLMinutes <= 0 {
		cfg.Auth.OTPTTLMinutes = 15
	}
	if cfg.Email.SendTimeoutSeconds <= 0 {
		cfg.Email.SendTimeoutSeconds = 5
	}
	return &cfg
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

func (c *Config) OTPTTL() time.Duration {
	return time.Duration(c.Auth.OTPTTLMinutes) * time.Minute
}

func (c *Config) EmailSendTimeout() time.Duration {
	return time.Duration(c.Email.SendTimeoutSeconds) * time.Second
}
