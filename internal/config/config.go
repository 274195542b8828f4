// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"cardledger/pkg/db"
)

// Storage drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// AppConfig holds all application-wide configurations.
// Values come from environment variables and, optionally, a YAML file
// named by LEDGER_CONFIG_FILE. Environment variables win.
type AppConfig struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	DataDir       string `mapstructure:"DATA_DIR"`
	CardsFile     string `mapstructure:"CARDS_FILE"`
	CooldownsFile string `mapstructure:"COOLDOWNS_FILE"`
	SkinsFile     string `mapstructure:"SKINS_FILE"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
	DBHost        string `mapstructure:"DB_HOST"`
	DBPort        int    `mapstructure:"DB_PORT"`
	DBUser        string `mapstructure:"DB_USER"`
	DBPassword    string `mapstructure:"DB_PASSWORD"`
	DBName        string `mapstructure:"DB_NAME"`
	DBSSLMode     string `mapstructure:"DB_SSLMODE"`

	AutosaveIntervalSeconds int  `mapstructure:"AUTOSAVE_INTERVAL"`
	CooldownHours           int  `mapstructure:"COOLDOWN_HOURS"`
	DestroyRequiresEmpty    bool `mapstructure:"DESTROY_REQUIRES_EMPTY"`

	NATSURL           string `mapstructure:"NATS_URL"`
	NATSToken         string `mapstructure:"NATS_TOKEN"`
	NATSSubjectPrefix string `mapstructure:"NATS_SUBJECT_PREFIX"`

	// SkinNames maps skin id to display name. From the file key skin_names
	// or SKIN_NAMES as a JSON object.
	SkinNames map[string]string `mapstructure:"-"`
}

var defaults = map[string]any{
	"SERVER_PORT":            "8080",
	"LOG_LEVEL":              "info",
	"DATA_DIR":               "./data",
	"CARDS_FILE":             "cards.yml",
	"COOLDOWNS_FILE":         "cooldowns.yml",
	"SKINS_FILE":             "skins.yml",
	"STORAGE_DRIVER":         DriverFile,
	"SQLITE_PATH":            "",
	"DB_HOST":                "localhost",
	"DB_PORT":                5432,
	"DB_USER":                "user",
	"DB_PASSWORD":            "password",
	"DB_NAME":                "ledgerdb",
	"DB_SSLMODE":             "disable",
	"AUTOSAVE_INTERVAL":      300,
	"COOLDOWN_HOURS":         24,
	"DESTROY_REQUIRES_EMPTY": false,
	"NATS_URL":               "",
	"NATS_TOKEN":             "",
	"NATS_SUBJECT_PREFIX":    "ledger",
}

// LoadConfig loads configuration from the environment and the optional config file.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key)
	}
	_ = v.BindEnv("SKIN_NAMES")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if path := os.Getenv("LEDGER_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SkinNames = v.GetStringMapString("SKIN_NAMES")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the ledger cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case DriverFile, DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("invalid STORAGE_DRIVER %q", c.StorageDriver))
	}
	if c.AutosaveIntervalSeconds < 0 {
		errs = append(errs, fmt.Errorf("AUTOSAVE_INTERVAL must not be negative"))
	}
	if c.CooldownHours < 0 {
		errs = append(errs, fmt.Errorf("COOLDOWN_HOURS must not be negative"))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("DATA_DIR is required"))
	}
	return errors.Join(errs...)
}

// DB returns the PostgreSQL connection settings.
func (c *AppConfig) DB() db.Config {
	return db.Config{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
	}
}

// AutosaveInterval is zero when autosave is disabled.
func (c *AppConfig) AutosaveInterval() time.Duration {
	return time.Duration(c.AutosaveIntervalSeconds) * time.Second
}

// Cooldown is the time an owner waits between card creations.
func (c *AppConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownHours) * time.Hour
}
