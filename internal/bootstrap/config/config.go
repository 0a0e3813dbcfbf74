package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"casetrack/internal/bootstrap/logging"
	"casetrack/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// WorkflowConfig holds the default workflow knobs. The database-backed
// settings store can override them at runtime.
type WorkflowConfig struct {
	WorkdayHours       float64 `mapstructure:"workday_hours"`
	WIPLimit           int     `mapstructure:"wip_limit"`
	AutoTimeoutMinutes int     `mapstructure:"auto_timeout_minutes"`
	AdminBootstrapKey  string  `mapstructure:"admin_bootstrap_key"`
}

type NotifyConfig struct {
	TimeoutSeconds int        `mapstructure:"timeout_seconds"`
	NATS           NATSConfig `mapstructure:"nats"`
	SMTP           SMTPConfig `mapstructure:"smtp"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

// WatchConfig points the qc watcher at a drop directory of summary files.
type WatchConfig struct {
	Dir string `mapstructure:"dir"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(logCtx, v)

	v.SetEnvPrefix("CASETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if cfg.Workflow.WorkdayHours <= 0 {
		return Config{}, errors.New("workflow.workday_hours must be positive")
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("server_addr", cfg.Server.Addr),
	)

	return cfg, nil
}

func setDefaults(ctx context.Context, v *viper.Viper) {
	if ctx == nil {
		return
	}

	v.SetDefault("app.name", "casetrack")
	v.SetDefault("app.env", "local")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/casetrack.sqlite")
	v.SetDefault("workflow.workday_hours", 8.0)
	v.SetDefault("workflow.wip_limit", 3)
	v.SetDefault("workflow.auto_timeout_minutes", 30)
	v.SetDefault("notify.timeout_seconds", 5)
	v.SetDefault("notify.nats.subject", "casetrack.transitions")
	v.SetDefault("watch.dir", "")
}
