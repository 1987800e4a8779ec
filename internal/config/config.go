package config

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Inference     InferenceConfig     `mapstructure:"inference"`
	Speech        SpeechConfig        `mapstructure:"speech"`
	KnowledgeBase KnowledgeBaseConfig `mapstructure:"knowledge_base"`
}

type ServerConfig struct {
	Port           int        `mapstructure:"port" validate:"min=1,max=65535"`
	CORS           CORSConfig `mapstructure:"cors"`
	MaxUploadBytes int64      `mapstructure:"max_upload_bytes" validate:"min=1"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver          string            `mapstructure:"driver" validate:"oneof=mysql sqlite"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
	// Path is the database file used by the sqlite driver.
	Path          string `mapstructure:"path"`
	AutoMigrate   bool   `mapstructure:"auto_migrate"`
	ReadyAttempts uint   `mapstructure:"ready_attempts"`
}

type InferenceConfig struct {
	Provider       string       `mapstructure:"provider" validate:"oneof=gemini openai"`
	TimeoutSeconds int          `mapstructure:"timeout_seconds" validate:"min=0"`
	Gemini         GeminiConfig `mapstructure:"gemini"`
	OpenAI         OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type SpeechConfig struct {
	Backend        string             `mapstructure:"backend" validate:"oneof=google openai none"`
	TimeoutSeconds int                `mapstructure:"timeout_seconds" validate:"min=0"`
	Google         GoogleSpeechConfig `mapstructure:"google"`
	OpenAI         OpenAISpeechConfig `mapstructure:"openai"`
}

type GoogleSpeechConfig struct {
	CredentialsFile string  `mapstructure:"credentials_file" validate:"omitempty,file"`
	LanguageCode    string  `mapstructure:"language_code"`
	Voice           string  `mapstructure:"voice"`
	SpeakingRate    float64 `mapstructure:"speaking_rate" validate:"min=0,max=4"`
}

type OpenAISpeechConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Voice   string `mapstructure:"voice"`
}

type KnowledgeBaseConfig struct {
	// Path is a CSV or XLSX file. Empty disables grounding.
	Path string `mapstructure:"path" validate:"omitempty,tabular"`
	// Sheet selects the XLSX sheet; the first sheet is used when empty.
	Sheet string `mapstructure:"sheet"`
	// Strict makes a knowledge base that fails to load stop the process
	// instead of degrading to an empty one.
	Strict bool `mapstructure:"strict"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
	envFile    string
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/arbackend")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
		envFile:    ".env",
	}, nil
}

// WithEnvFile changes the dotenv file read before environment bindings are resolved.
func (loader *ConfigLoader) WithEnvFile(path string) *ConfigLoader {
	loader.envFile = path
	return loader
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	// Variables already present in the environment win over the dotenv file.
	if loader.envFile != "" {
		_ = godotenv.Load(loader.envFile)
	}

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "arbackend")
	v.SetDefault("database.username", "user")
	v.SetDefault("database.path", "arbackend.db")
	v.SetDefault("database.auto_migrate", false)
	v.SetDefault("database.ready_attempts", 5)
	v.SetDefault("inference.provider", "gemini")
	v.SetDefault("inference.timeout_seconds", 60)
	v.SetDefault("inference.gemini.model", "gemini-2.5-flash-lite")
	v.SetDefault("inference.openai.model", "gpt-4o-mini")
	v.SetDefault("inference.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("speech.backend", "google")
	v.SetDefault("speech.timeout_seconds", 30)
	v.SetDefault("speech.google.language_code", "en-US")
	v.SetDefault("speech.google.voice", "en-US-Neural2-F")
	v.SetDefault("speech.google.speaking_rate", 1.0)
	v.SetDefault("speech.openai.base_url", "http://localhost:8102/v1")
	v.SetDefault("speech.openai.model", "kokoro")
	v.SetDefault("speech.openai.voice", "af_nova")
	v.SetDefault("knowledge_base.strict", false)

	// Secrets and deployment-specific values are bound to environment variables
	envBindings := []struct {
		key string
		env string
	}{
		{"server.port", "PORT"},
		{"database.host", "DB_HOST"},
		{"database.port", "DB_PORT"},
		{"database.database", "DB_NAME"},
		{"database.username", "DB_USER"},
		{"database.password", "DB_PASS"},
		{"inference.gemini.api_key", "GEMINI_API_KEY"},
		{"inference.gemini.model", "GEMINI_MODEL"},
		{"inference.openai.api_key", "OPENAI_API_KEY"},
		{"inference.openai.model", "OPENAI_MODEL"},
		{"speech.google.credentials_file", "GOOGLE_APPLICATION_CREDENTIALS"},
		{"speech.openai.api_key", "TTS_API_KEY"},
		{"knowledge_base.path", "KNOWLEDGE_BASE_PATH"},
	}
	for _, b := range envBindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", b.env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}

// InferenceAPIKey returns the API key of the selected model provider.
func (cfg *Config) InferenceAPIKey() string {
	switch cfg.Inference.Provider {
	case "openai":
		return cfg.Inference.OpenAI.APIKey
	default:
		return cfg.Inference.Gemini.APIKey
	}
}
