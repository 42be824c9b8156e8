package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/small-frappuccino/embedbuilder/pkg/util"
)

// TokenEnv is the environment variable holding the bot token.
const TokenEnv = "EMBEDBUILDER_TOKEN"

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Config is the static configuration read from the environment.
type Config struct {
	Token string `env:"EMBEDBUILDER_TOKEN"`

	StoreDriver string `env:"EMBEDBUILDER_STORE_DRIVER" envDefault:"mongo" validate:"oneof=mongo sqlite"`
	MongoURI    string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017" validate:"required_if=StoreDriver mongo"`
	DBName      string `env:"DB_NAME" envDefault:"Betterment" validate:"required_if=StoreDriver mongo"`
	SQLitePath  string `env:"EMBEDBUILDER_SQLITE_PATH"`

	LogDir   string `env:"EMBEDBUILDER_LOG_DIR"`
	LogLevel string `env:"EMBEDBUILDER_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn warning error"`
	Theme    string `env:"EMBEDBUILDER_THEME"`

	WizardTTL         time.Duration `env:"EMBEDBUILDER_WIZARD_TTL" envDefault:"15m" validate:"gt=0"`
	WizardMaxSessions int           `env:"EMBEDBUILDER_WIZARD_MAX_SESSIONS" envDefault:"512" validate:"gt=0"`

	// GuildID registers commands in one guild instead of globally.
	GuildID      string `env:"EMBEDBUILDER_GUILD_ID"`
	WebhookName  string `env:"EMBEDBUILDER_WEBHOOK_NAME" envDefault:"EmbedSender" validate:"min=1,max=80"`
	RestoreViews bool   `env:"EMBEDBUILDER_RESTORE_VIEWS" envDefault:"true"`
}

// Load reads the .env fallbacks, parses the environment and fills the
// per-user paths that were left empty. The token is required.
func Load(appName string) (*Config, error) {
	token, err := util.LoadEnvWithLocalBinFallback(TokenEnv)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}
	cfg.Token = token
	cfg.applyPaths(appName)
	return cfg, nil
}

// Parse reads Config from the environment without touching any .env file.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the parsed values.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func (c *Config) applyPaths(appName string) {
	if c.LogDir == "" {
		c.LogDir = util.LogDir(appName)
	}
	if c.SQLitePath == "" {
		c.SQLitePath = util.SQLitePath(appName)
	}
}
