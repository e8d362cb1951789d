package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

type Config struct {
	Port   int    `yaml:"port" validate:"min=1,max=65535"`
	Log    Log    `yaml:"log"`
	Oracle Oracle `yaml:"oracle"`
	// Origins allowed to call the chat API from a browser
	CORSOrigins []string `yaml:"cors_origins" validate:"dive,url"`
	// Let the oracle rephrase the recommendation template
	StyleRecommendations bool `yaml:"style_recommendations"`

	// Outcome sinks, each disabled when empty
	DatabaseURL   string `yaml:"database_url"`
	NatsURL       string `yaml:"nats_url"`
	NatsToken     string `yaml:"nats_token"`
	SlackBotToken string `yaml:"slack_bot_token"`
	SlackChannel  string `yaml:"slack_leads_channel" validate:"required_with=SlackBotToken"`
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
	// Error records are also appended to this file when set
	ErrorFile string `yaml:"error_file"`
}

type Oracle struct {
	Provider string `yaml:"provider" validate:"oneof=gemini anthropic openai"`
	// Empty means the provider's default model
	Model           string `yaml:"model"`
	GeminiAPIKey    string `yaml:"gemini_api_key" validate:"required_if=Provider gemini"`
	AnthropicAPIKey string `yaml:"anthropic_api_key" validate:"required_if=Provider anthropic"`
	OpenAIAPIKey    string `yaml:"openai_api_key" validate:"required_if=Provider openai"`
	OpenAIBaseURL   string `yaml:"openai_base_url" validate:"omitempty,url"`
	MaxRetries      int    `yaml:"max_retries" validate:"min=0,max=10"`
}

func defaults() Config {
	return Config{
		Port: 8000,
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Oracle: Oracle{
			Provider:      ProviderGemini,
			OpenAIBaseURL: "https://api.openai.com/v1",
			MaxRetries:    5,
		},
		CORSOrigins: []string{"http://localhost:5173"},
	}
}

// Load builds the config from defaults, the optional YAML file named by
// TINA_CONFIG, and finally the environment.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("TINA_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, oops.In("config").With("path", path).Wrapf(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, oops.In("config").With("path", path).Wrapf(err, "failed to parse YAML config")
		}
	}

	cfg.Port = envInt("TINA_PORT", cfg.Port)
	cfg.Log.Level = strings.ToLower(envStr("LOG_LEVEL", cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(envStr("LOG_FORMAT", cfg.Log.Format))
	cfg.Log.ErrorFile = envStr("LOG_ERROR_FILE", cfg.Log.ErrorFile)

	cfg.Oracle.Provider = strings.ToLower(envStr("TINA_ORACLE", cfg.Oracle.Provider))
	cfg.Oracle.Model = envStr("TINA_MODEL", cfg.Oracle.Model)
	cfg.Oracle.GeminiAPIKey = envStr("GEMINI_API_KEY", cfg.Oracle.GeminiAPIKey)
	cfg.Oracle.AnthropicAPIKey = envStr("ANTHROPIC_API_KEY", cfg.Oracle.AnthropicAPIKey)
	cfg.Oracle.OpenAIAPIKey = envStr("OPENAI_API_KEY", cfg.Oracle.OpenAIAPIKey)
	cfg.Oracle.OpenAIBaseURL = envStr("OPENAI_BASE_URL", cfg.Oracle.OpenAIBaseURL)
	cfg.Oracle.MaxRetries = envInt("TINA_ORACLE_MAX_RETRIES", cfg.Oracle.MaxRetries)

	cfg.StyleRecommendations = envBool("TINA_STYLE_RECOMMENDATIONS", cfg.StyleRecommendations)
	cfg.CORSOrigins = envList("TINA_CORS_ORIGINS", cfg.CORSOrigins)

	cfg.DatabaseURL = envStr("DATABASE_URL", cfg.DatabaseURL)
	cfg.NatsURL = envStr("NATS_URL", cfg.NatsURL)
	cfg.NatsToken = envStr("NATS_TOKEN", cfg.NatsToken)
	cfg.SlackBotToken = envStr("SLACK_BOT_TOKEN", cfg.SlackBotToken)
	cfg.SlackChannel = envStr("SLACK_LEADS_CHANNEL", cfg.SlackChannel)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return Config{}, oops.In("config").Wrapf(err, "failed to validate config")
	}

	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
