package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance. A .env file in the working
// directory is loaded into the environment first when present.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/cx-agent/")
	v.AddConfigPath("$HOME/.cx-agent")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromFile loads configuration from an explicit file path
func NewFromFile(path string) (*Config, error) {
	v := NewEmptyViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults and environment
// binding but no file
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	return v
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("CX_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.max_body_size", 8000)
	v.SetDefault("llm.max_resolution_size", 10000)
	v.SetDefault("llm.timeout", "60s")

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.max_tokens", 2048)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 2048)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 2048)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)

	// Routing defaults
	v.SetDefault("routing.stations", map[string]string{
		"DEL": "BASEOPSDELHI@minfytech.com",
		"BOM": "BASEOPSMUMBAI@minfytech.com",
		"BLR": "BASEOPSBANGALORE@minfytech.com",
		"HYD": "BASEOPSHYDERABAD@minfytech.com",
		"CCU": "BASEOPSKOLKATA@minfytech.com",
	})
	v.SetDefault("routing.customer_mailbox", "CXINDIGO@minfytech.com")
	v.SetDefault("routing.case_review_mailbox", "CRINDIGO@minfytech.com")
	v.SetDefault("routing.draft_mailbox", "")

	// Mailbox defaults
	v.SetDefault("mailbox.type", "graph")
	v.SetDefault("mailbox.verbose", false)

	v.SetDefault("graph.tenant_id", "")
	v.SetDefault("graph.client_id", "")
	v.SetDefault("graph.client_secret", "")
	v.SetDefault("graph.base_url", "https://graph.microsoft.com/v1.0")
	v.SetDefault("graph.mailbox", "")

	v.SetDefault("smtp.host", "localhost")
	v.SetDefault("smtp.port", 25)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "cx-agent@localhost")
	v.SetDefault("smtp.start_tls", false)
	v.SetDefault("smtp.timeout", "30s")

	// Intake defaults
	v.SetDefault("intake.type", "poller")
	v.SetDefault("intake.listen_address", "0.0.0.0:10025")
	v.SetDefault("intake.domain", "localhost")
	v.SetDefault("intake.complaint_address", "")
	v.SetDefault("intake.resolution_address", "")
	v.SetDefault("intake.max_message_bytes", 30*1024*1024)
	v.SetDefault("intake.trusted_sender_domains", []string{})

	// Poller defaults
	v.SetDefault("poller.enabled", true)
	v.SetDefault("poller.interval", "10s")
	v.SetDefault("poller.batch_size", 10)
	v.SetDefault("poller.complaints_folder", "Complaints")
	v.SetDefault("poller.resolutions_folder", "Resolutions")

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.sqlite_path", "/data/cx_agent.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/cx_agent?parseTime=true")
	v.SetDefault("store.postgres_url", "postgres://localhost:5432/cx_agent")
	v.SetDefault("store.firestore_project", "")
	v.SetDefault("store.credentials_file", "")

	// Queue defaults
	v.SetDefault("queue.type", "memory")
	v.SetDefault("queue.buffer", 256)
	v.SetDefault("queue.max_attempts", 5)
	v.SetDefault("queue.redis_url", "redis://localhost:6379/0")
	v.SetDefault("queue.namespace", "cx")
	v.SetDefault("queue.pubsub_project", "")
	v.SetDefault("queue.credentials_file", "")
	v.SetDefault("queue.subscription_prefix", "cx-agent")
	v.SetDefault("queue.ack_deadline", "60s")

	// Server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetStringMapString gets a string map from the configuration
func (c *Config) GetStringMapString(key string) map[string]string {
	return c.v.GetStringMapString(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
