package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PlanLimit caps requests per sliding window for one plan tier.
type PlanLimit struct {
	Minute int `yaml:"minute" json:"minute"`
	Day    int `yaml:"day" json:"day"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Auth struct {
		Secret     string               `yaml:"secret"`
		AdminToken string               `yaml:"admin_token"`
		TokenTTL   time.Duration        `yaml:"token_ttl"`
		PlanLimits map[string]PlanLimit `yaml:"plan_limits"`
	} `yaml:"auth"`
	Cron struct {
		Enabled bool   `yaml:"enabled"`
		Secret  string `yaml:"secret"`
	} `yaml:"cron"`
	Sources struct {
		HackerNewsURL  string        `yaml:"hackernews_url"`
		RedditURL      string        `yaml:"reddit_url"`
		Subreddits     []string      `yaml:"subreddits"`
		UserAgent      string        `yaml:"user_agent"`
		Timeout        time.Duration `yaml:"timeout"`
		PerSourceLimit int           `yaml:"per_source_limit"`
		CacheTTL       time.Duration `yaml:"cache_ttl"`
	} `yaml:"sources"`
	OpenAI struct {
		APIKey  string        `yaml:"api_key"`
		Model   string        `yaml:"model"`
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"openai"`
	Analytics struct {
		BaseURL string        `yaml:"base_url"`
		SiteID  string        `yaml:"site_id"`
		Token   string        `yaml:"token"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"analytics"`
	Autopilot struct {
		Market         string   `yaml:"market"`
		Keywords       []string `yaml:"keywords"`
		Channels       []string `yaml:"channels"`
		Budget         float64  `yaml:"budget"`
		MaxBudget      float64  `yaml:"max_budget"`
		AutoDiscover   bool     `yaml:"auto_discover"`
		DryRun         bool     `yaml:"dry_run"`
		DestinationURL string   `yaml:"destination_url"`
		Publish        struct {
			Enabled bool   `yaml:"enabled"`
			Token   string `yaml:"token"`
			Repo    string `yaml:"repo"` // owner/name
			Branch  string `yaml:"branch"`
			Prefix  string `yaml:"prefix"`
			APIURL  string `yaml:"api_url"`
		} `yaml:"publish"`
		Deploy struct {
			Enabled bool   `yaml:"enabled"`
			Token   string `yaml:"token"`
			Project string `yaml:"project"`
			APIURL  string `yaml:"api_url"`
		} `yaml:"deploy"`
		Promotion struct {
			Enabled    bool   `yaml:"enabled"`
			WebhookURL string `yaml:"webhook_url"`
		} `yaml:"promotion"`
	} `yaml:"autopilot"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func parse(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Validation runs after the overrides so secrets may come
// from the environment alone.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MONEY_LOOP_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("MONEY_LOOP_ADMIN_TOKEN"); v != "" {
		c.Auth.AdminToken = v
	}
	if v := firstEnv("MONEY_AUTOPILOT_CRON_SECRET", "CRON_SECRET"); v != "" {
		c.Cron.Secret = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Autopilot.Publish.Token = v
	}
	if v := os.Getenv("VERCEL_TOKEN"); v != "" {
		c.Autopilot.Deploy.Token = v
	}
	if v := os.Getenv("PROMOTION_WEBHOOK_URL"); v != "" {
		c.Autopilot.Promotion.WebhookURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required")
	}
	if c.Sources.HackerNewsURL == "" {
		return fmt.Errorf("sources.hackernews_url is required")
	}
	if c.Sources.RedditURL == "" {
		return fmt.Errorf("sources.reddit_url is required")
	}
	if c.Autopilot.MaxBudget <= 0 {
		return fmt.Errorf("autopilot.max_budget must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
