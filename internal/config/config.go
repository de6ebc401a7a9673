package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

type Config struct {
	AppPort string

	RedisURL       string
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	UserAgent      string

	DefaultScrapeURL string
	SitesFile        string

	PostgresDSN string
	CronSpec    string

	// Discord 通知，未配置 webhook 时不推送
	DiscordWebhookURL string
	DiscordUsername   string
	NotifyMaxPerRun   int

	NATSURL     string
	NATSSubject string

	CORSOrigins []string
}

// Load 从环境变量读取配置，当前目录存在 .env 时先加载
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppPort:           getEnv("APP_PORT", "9000"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		UserAgent:         getEnv("USER_AGENT", "trendscraper/0.1.0"),
		DefaultScrapeURL:  getEnv("DEFAULT_SCRAPE_URL", "https://techcrunch.com/"),
		SitesFile:         getEnv("SITES_FILE", ""),
		PostgresDSN:       getEnv("POSTGRES_DSN", ""),
		CronSpec:          getEnv("CRON_SPEC", "*/30 * * * *"),
		DiscordWebhookURL: getEnv("DISCORD_WEBHOOK_URL", ""),
		DiscordUsername:   getEnv("DISCORD_USERNAME", "TrendScraper Bot"),
		NATSURL:           getEnv("NATS_URL", ""),
		NATSSubject:       getEnv("NATS_SUBJECT", "trends"),
		CORSOrigins:       getEnvAsSlice("CORS_ORIGINS", []string{"*"}),
	}

	ttl, err := getEnvAsInt("CACHE_TTL", 3600)
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = time.Duration(ttl) * time.Second

	timeout, err := getEnvAsInt("REQUEST_TIMEOUT", 30)
	if err != nil {
		return nil, err
	}
	cfg.RequestTimeout = time.Duration(timeout) * time.Second

	cfg.NotifyMaxPerRun, err = getEnvAsInt("NOTIFY_MAX_PER_RUN", 5)
	if err != nil {
		return nil, err
	}

	log.Printf("config loaded: port=%s cron=%s redis=%t postgres=%t", cfg.AppPort, cfg.CronSpec, cfg.RedisURL != "", cfg.PostgresDSN != "")
	return cfg, nil
}

// Validate 检查配置取值是否合法
func (c *Config) Validate() error {
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.NotifyMaxPerRun < 0 {
		return fmt.Errorf("NOTIFY_MAX_PER_RUN must not be negative")
	}
	if c.DefaultScrapeURL == "" {
		return fmt.Errorf("DEFAULT_SCRAPE_URL is required")
	}
	if _, err := cron.ParseStandard(c.CronSpec); err != nil {
		return fmt.Errorf("invalid CRON_SPEC %q: %w", c.CronSpec, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// getEnvAsSlice 逗号分隔，忽略空项
func getEnvAsSlice(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
