package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers understood by STORAGE_DRIVER.
const (
	StorageMongoDB = "mongodb"
	StorageMemory  = "memory"
)

// Config represents the full application configuration surface.
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Restaurant RestaurantConfig
	Reporting  ReportingConfig
	WhatsApp   WhatsAppConfig
	Sheets     SheetsConfig
	RabbitMQ   RabbitMQConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// StorageConfig selects and configures the persistence provider.
type StorageConfig struct {
	Driver  string
	MongoDB MongoDBConfig
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RestaurantConfig describes the floor and the business day.
type RestaurantConfig struct {
	TableCount      int
	ACTableSplit    int
	Timezone        string
	OrderMaxRetries int
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule          string
	ReconcileCronSchedule string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
// The notifier is disabled unless AccessToken, PhoneNumberID and ManagerNumber are set.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	ManagerNumber string
}

// Enabled reports whether end-of-day summaries can be sent.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.ManagerNumber != ""
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	BillsRange      string
}

// Enabled reports whether bills are mirrored to a spreadsheet.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// RabbitMQConfig configures the bill event publisher.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// Enabled reports whether bill events are published.
func (c RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when everything comes from the environment.
		_ = godotenv.Load()
	}

	var errs []error
	intVar := func(key string, fallback int) int {
		value, err := getenvInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return value
	}
	durationVar := func(key string, fallback time.Duration) time.Duration {
		value, err := getenvDuration(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return value
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getenvWithDefault("APP_PORT", "8080"),
			ShutdownTimeout: durationVar("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Storage: StorageConfig{
			Driver: getenvWithDefault("STORAGE_DRIVER", StorageMongoDB),
			MongoDB: MongoDBConfig{
				URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
				DBName: getenvWithDefault("MONGODB_DB_NAME", "restopos"),
			},
		},
		Restaurant: RestaurantConfig{
			TableCount:      intVar("TABLE_COUNT", 40),
			ACTableSplit:    intVar("AC_TABLE_SPLIT", 20),
			Timezone:        getenvWithDefault("TIMEZONE", "Asia/Kolkata"),
			OrderMaxRetries: intVar("ORDER_MAX_RETRIES", 5),
		},
		Reporting: ReportingConfig{
			CronSchedule:          getenvWithDefault("REPORT_CRON_SCHEDULE", "0 23 * * *"),
			ReconcileCronSchedule: getenvWithDefault("RECONCILE_CRON_SCHEDULE", "*/15 * * * *"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			ManagerNumber: os.Getenv("WHATSAPP_MANAGER_NUMBER"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_BILLS_ID"),
			BillsRange:      getenvWithDefault("GOOGLE_SHEET_BILLS_RANGE", "Bills!A:I"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      os.Getenv("RABBITMQ_URL"),
			Exchange: getenvWithDefault("RABBITMQ_EXCHANGE", "pos_events"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageMongoDB:
		if c.Storage.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided")
		}
		if c.Storage.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must be provided")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMongoDB, StorageMemory, c.Storage.Driver)
	}

	if c.Restaurant.TableCount < 1 {
		return errors.New("TABLE_COUNT must be at least 1")
	}

	if c.Restaurant.ACTableSplit < 0 || c.Restaurant.ACTableSplit > c.Restaurant.TableCount {
		return fmt.Errorf("AC_TABLE_SPLIT must be between 0 and TABLE_COUNT (%d)", c.Restaurant.TableCount)
	}

	if c.Restaurant.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.Restaurant.OrderMaxRetries < 1 {
		return errors.New("ORDER_MAX_RETRIES must be at least 1")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.ReconcileCronSchedule == "" {
		return errors.New("RECONCILE_CRON_SCHEDULE must be provided")
	}

	// Optional integrations are validated only once partially configured.
	if c.WhatsApp.AccessToken != "" || c.WhatsApp.ManagerNumber != "" {
		switch {
		case c.WhatsApp.AccessToken == "":
			return errors.New("WHATSAPP_TOKEN must be provided")
		case c.WhatsApp.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case c.WhatsApp.ManagerNumber == "":
			return errors.New("WHATSAPP_MANAGER_NUMBER must be provided")
		case c.WhatsApp.BaseURL == "":
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		case c.WhatsApp.APIVersion == "":
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_BILLS_ID must be provided together")
	}

	if c.RabbitMQ.URL != "" && c.RabbitMQ.Exchange == "" {
		return errors.New("RABBITMQ_EXCHANGE must not be empty")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return parsed, nil
}
