package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AIProviderGemini   = "gemini"
	AIProviderGigaChat = "gigachat"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	WhatsApp WhatsAppConfig
	Storage  StorageConfig
	AI       AIConfig
	Gemini   GeminiConfig
	GigaChat GigaChatConfig
	Receipt  ReceiptConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	WebhookTimeout time.Duration
	Swagger        bool
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns URL when set, otherwise a keyword/value connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type WhatsAppConfig struct {
	GraphURL      string
	PhoneID       string
	APIToken      string
	VerifyToken   string
	AppSecret     string
	MaxMediaBytes int64
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	PublicURL string
}

type AIConfig struct {
	Provider string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
}

type ReceiptConfig struct {
	CurrencySymbol string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work for containers.
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	webhookTimeout, _ := strconv.Atoi(getEnv("WEBHOOK_TIMEOUT", "60"))
	maxMedia, _ := strconv.ParseInt(getEnv("WHATSAPP_MAX_MEDIA_BYTES", "16777216"), 10, 64)
	useSSL := getEnv("STORAGE_USE_SSL", "true") == "true"
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			ReadTimeout:    time.Duration(readTimeout) * time.Second,
			WriteTimeout:   time.Duration(writeTimeout) * time.Second,
			WebhookTimeout: time.Duration(webhookTimeout) * time.Second,
			Swagger:        getEnv("SWAGGER_ENABLED", "true") == "true",
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "expense_bot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		WhatsApp: WhatsAppConfig{
			GraphURL:      strings.TrimRight(getEnv("WHATSAPP_GRAPH_URL", "https://graph.facebook.com/v21.0"), "/"),
			PhoneID:       getEnv("WHATSAPP_PHONE_ID", ""),
			APIToken:      getEnv("WHATSAPP_API_TOKEN", ""),
			VerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
			AppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
			MaxMediaBytes: maxMedia,
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("STORAGE_BUCKET", "receipts"),
			Region:    getEnv("STORAGE_REGION", ""),
			UseSSL:    useSSL,
			PublicURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_URL", ""), "/"),
		},
		AI: AIConfig{
			Provider: strings.ToLower(getEnv("AI_PROVIDER", AIProviderGemini)),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		Receipt: ReceiptConfig{
			CurrencySymbol: getEnv("CURRENCY_SYMBOL", "₹"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

// Validate reports every missing setting the webhook cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.WhatsApp.VerifyToken == "" {
		errs = append(errs, errors.New("WHATSAPP_VERIFY_TOKEN is required"))
	}
	if c.WhatsApp.PhoneID == "" {
		errs = append(errs, errors.New("WHATSAPP_PHONE_ID is required"))
	}
	if c.WhatsApp.APIToken == "" {
		errs = append(errs, errors.New("WHATSAPP_API_TOKEN is required"))
	}
	if c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("STORAGE_ENDPOINT is required"))
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("STORAGE_BUCKET is required"))
	}
	switch c.AI.Provider {
	case AIProviderGemini:
		if c.Gemini.APIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required"))
		}
	case AIProviderGigaChat:
		if c.GigaChat.APIKey == "" {
			errs = append(errs, errors.New("GIGACHAT_API_KEY is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported AI_PROVIDER %q", c.AI.Provider))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
