package config

import (
	"time"

	"github.com/yash2163/ComplaintHandling-POC/internal/core"
)

// LLMConfig represents the provider-independent LLM settings
type LLMConfig struct {
	Provider          string
	MaxBodySize       int
	MaxResolutionSize int
	Timeout           time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI or a compatible API
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// RoutingConfig holds the station table and the fixed mailboxes
type RoutingConfig struct {
	Stations          map[string]string
	CustomerMailbox   string
	CaseReviewMailbox string
	DraftMailbox      string
}

// GraphConfig holds Microsoft Graph credentials for the shared mailbox
type GraphConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	BaseURL      string
	Mailbox      string
}

// SMTPConfig holds the relay used when drafts are delivered by mail
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	StartTLS bool
	Timeout  time.Duration
}

// IntakeConfig selects how inbound mail reaches the agent
type IntakeConfig struct {
	Type              string
	ListenAddress     string
	Domain            string
	ComplaintAddress  string
	ResolutionAddress string
	MaxMessageBytes   int64

	// TrustedSenderDomains limits who may send resolutions; empty trusts all
	TrustedSenderDomains []string
}

// PollerConfig controls the mailbox poller
type PollerConfig struct {
	Enabled           bool
	Interval          time.Duration
	BatchSize         int
	ComplaintsFolder  string
	ResolutionsFolder string
}

// StoreConfig selects the document store backend
type StoreConfig struct {
	Type             string
	SQLitePath       string
	MySQLDSN         string
	PostgresURL      string
	FirestoreProject string
	CredentialsFile  string
}

// QueueConfig selects the event transport
type QueueConfig struct {
	Type               string
	Buffer             int
	MaxAttempts        int
	RedisURL           string
	Namespace          string
	PubSubProject      string
	CredentialsFile    string
	SubscriptionPrefix string
	AckDeadline        time.Duration
}

// ServerConfig controls the health and metrics listener
type ServerConfig struct {
	ListenAddress   string
	ShutdownTimeout time.Duration
}

// LoggingConfig controls the logger
type LoggingConfig struct {
	Level  string
	Format string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() (LLMConfig, error) {
	timeout, err := c.GetDuration("llm.timeout")
	if err != nil {
		return LLMConfig{}, err
	}
	return LLMConfig{
		Provider:          c.GetString("llm.provider"),
		MaxBodySize:       c.GetInt("llm.max_body_size"),
		MaxResolutionSize: c.GetInt("llm.max_resolution_size"),
		Timeout:           timeout,
	}, nil
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetRouting returns the routing configuration
func (c *Config) GetRouting() RoutingConfig {
	return RoutingConfig{
		Stations:          c.GetStringMapString("routing.stations"),
		CustomerMailbox:   c.GetString("routing.customer_mailbox"),
		CaseReviewMailbox: c.GetString("routing.case_review_mailbox"),
		DraftMailbox:      c.GetString("routing.draft_mailbox"),
	}
}

// RoutingTable builds the immutable routing table from the routing section
func (c *Config) RoutingTable() (core.RoutingTable, error) {
	r := c.GetRouting()
	return core.NewRoutingTable(r.Stations, r.CustomerMailbox, r.CaseReviewMailbox)
}

// GetGraph returns the Microsoft Graph configuration
func (c *Config) GetGraph() GraphConfig {
	return GraphConfig{
		TenantID:     c.GetString("graph.tenant_id"),
		ClientID:     c.GetString("graph.client_id"),
		ClientSecret: c.GetString("graph.client_secret"),
		BaseURL:      c.GetString("graph.base_url"),
		Mailbox:      c.GetString("graph.mailbox"),
	}
}

// GetSMTP returns the SMTP relay configuration
func (c *Config) GetSMTP() (SMTPConfig, error) {
	timeout, err := c.GetDuration("smtp.timeout")
	if err != nil {
		return SMTPConfig{}, err
	}
	return SMTPConfig{
		Host:     c.GetString("smtp.host"),
		Port:     c.GetInt("smtp.port"),
		Username: c.GetString("smtp.username"),
		Password: c.GetString("smtp.password"),
		From:     c.GetString("smtp.from"),
		StartTLS: c.GetBool("smtp.start_tls"),
		Timeout:  timeout,
	}, nil
}

// GetIntake returns the inbound mail configuration
func (c *Config) GetIntake() IntakeConfig {
	return IntakeConfig{
		Type:              c.GetString("intake.type"),
		ListenAddress:     c.GetString("intake.listen_address"),
		Domain:            c.GetString("intake.domain"),
		ComplaintAddress:  c.GetString("intake.complaint_address"),
		ResolutionAddress: c.GetString("intake.resolution_address"),
		MaxMessageBytes:   c.GetInt64("intake.max_message_bytes"),

		TrustedSenderDomains: c.GetStringSlice("intake.trusted_sender_domains"),
	}
}

// GetPoller returns the poller configuration
func (c *Config) GetPoller() (PollerConfig, error) {
	interval, err := c.GetDuration("poller.interval")
	if err != nil {
		return PollerConfig{}, err
	}
	return PollerConfig{
		Enabled:           c.GetBool("poller.enabled"),
		Interval:          interval,
		BatchSize:         c.GetInt("poller.batch_size"),
		ComplaintsFolder:  c.GetString("poller.complaints_folder"),
		ResolutionsFolder: c.GetString("poller.resolutions_folder"),
	}, nil
}

// GetStore returns the document store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:             c.GetString("store.type"),
		SQLitePath:       c.GetString("store.sqlite_path"),
		MySQLDSN:         c.GetString("store.mysql_dsn"),
		PostgresURL:      c.GetString("store.postgres_url"),
		FirestoreProject: c.GetString("store.firestore_project"),
		CredentialsFile:  c.GetString("store.credentials_file"),
	}
}

// GetQueue returns the event transport configuration
func (c *Config) GetQueue() (QueueConfig, error) {
	ackDeadline, err := c.GetDuration("queue.ack_deadline")
	if err != nil {
		return QueueConfig{}, err
	}
	return QueueConfig{
		Type:               c.GetString("queue.type"),
		Buffer:             c.GetInt("queue.buffer"),
		MaxAttempts:        c.GetInt("queue.max_attempts"),
		RedisURL:           c.GetString("queue.redis_url"),
		Namespace:          c.GetString("queue.namespace"),
		PubSubProject:      c.GetString("queue.pubsub_project"),
		CredentialsFile:    c.GetString("queue.credentials_file"),
		SubscriptionPrefix: c.GetString("queue.subscription_prefix"),
		AckDeadline:        ackDeadline,
	}, nil
}

// GetServer returns the health and metrics server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	timeout, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		ShutdownTimeout: timeout,
	}, nil
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}
