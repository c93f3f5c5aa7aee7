// Package config manages application configuration from config.yaml,
// BOT_* environment variables, and default values.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration for all components.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds transport settings. BotInfo is populated at
// startup from GetMe, not from the config file.
type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required,gt=0"`

	BotInfo *models.User `mapstructure:"-"`
}

// GeminiConfig holds backend client settings and generation parameters.
type GeminiConfig struct {
	APIKey            string  `mapstructure:"api_key" validate:"required"`
	ModelName         string  `mapstructure:"model_name"`
	Temperature       float32 `mapstructure:"temperature" validate:"min=0,max=2"`
	TopP              float32 `mapstructure:"top_p"       validate:"min=0,max=1"`
	TopK              float32 `mapstructure:"top_k"       validate:"min=0"`
	MaxOutputTokens   int32   `mapstructure:"max_output_tokens" validate:"min=0"`
	SystemInstruction string  `mapstructure:"system_instruction"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// DispatchConfig tunes the dispatch queue, the global rate limiter, and
// the retry backoff.
type DispatchConfig struct {
	MinInterval time.Duration `mapstructure:"min_interval" validate:"min=0"`
	BackoffBase time.Duration `mapstructure:"backoff_base" validate:"min=0"`
	QueueSize   int           `mapstructure:"queue_size"   validate:"min=0"`
}

// TaskConfig configures one scheduled task.
type TaskConfig struct {
	Schedule string `mapstructure:"schedule"`
	Enabled  bool   `mapstructure:"enabled"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// MessagesConfig holds user-facing message texts.
type MessagesConfig struct {
	Welcome           string `mapstructure:"welcome"            validate:"required"`
	Help              string `mapstructure:"help"               validate:"required"`
	NotAuthorized     string `mapstructure:"not_authorized"     validate:"required"`
	RateLimited       string `mapstructure:"rate_limited"       validate:"required"`
	ConnectionTrouble string `mapstructure:"connection_trouble" validate:"required"`
	GeneralError      string `mapstructure:"general_error"      validate:"required"`
	EmptyReply        string `mapstructure:"empty_reply"        validate:"required"`
}

// LoadConfig loads and validates configuration from:
//  1. Default values
//  2. The YAML file at path
//  3. BOT_* environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; environment variables can carry everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.9)
	v.SetDefault("gemini.top_p", 0.95)
	v.SetDefault("gemini.top_k", 40)
	v.SetDefault("gemini.max_output_tokens", 1024)

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("dispatch.min_interval", 10*time.Second)
	v.SetDefault("dispatch.backoff_base", time.Second)
	v.SetDefault("dispatch.queue_size", 128)

	v.SetDefault("scheduler.tasks", map[string]TaskConfig{
		"sql_maintenance": {Schedule: "0 0 3 * * *", Enabled: true},
	})

	v.SetDefault("messages.welcome", "Hi! Send me a message and I'll answer. Admins can manage auto-reply rules with /rules.")
	v.SetDefault("messages.help", "Commands:\n/rules - list auto-reply rules\n/rule_add <pattern> | <response> - add a rule\n/rule_del <id> - delete a rule\n/rule_toggle <id> <on|off> - enable or disable a rule")
	v.SetDefault("messages.not_authorized", "You are not authorized to use this command.")
	v.SetDefault("messages.rate_limited", "Sorry, I'm getting too many requests right now. Please try again in a bit.")
	v.SetDefault("messages.connection_trouble", "Sorry, I'm having trouble connecting right now. Please try again later.")
	v.SetDefault("messages.general_error", "Something went wrong. Please try again later.")
	v.SetDefault("messages.empty_reply", "I don't have a good answer for that one.")
}
