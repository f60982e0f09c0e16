package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key when read from the environment.
const EnvPrefix = "TIMETRACKER"

// Config captures environment driven configuration values for the time tracker service.
type Config struct {
	HTTPPort           int
	SQLitePath         string
	SQLiteBusyTimeout  time.Duration
	SQLiteMaxOpenConns int
	LogLevel           string
	LogPretty          bool
	DefaultUserID      string
	DefaultUserEmail   string
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
}

// Load parses configuration values from the current process environment.
//
// Values may also come from a file named by TIMETRACKER_CONFIG_FILE; environment
// variables win over file values. Missing required keys and unparsable values are
// collected and reported together.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_port", "8080")
	v.SetDefault("sqlite_path", "timetracker.db")
	v.SetDefault("sqlite_busy_timeout", "5s")
	v.SetDefault("sqlite_max_open_conns", "4")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", "false")
	v.SetDefault("default_user_id", "local")
	v.SetDefault("default_user_email", "local@localhost")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("request_timeout", "15s")

	if file := strings.TrimSpace(v.GetString("config_file")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := Config{}
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	port, err := strconv.Atoi(strings.TrimSpace(v.GetString("http_port")))
	if err != nil || port <= 0 || port > 65535 {
		invalid = append(invalid, envName("http_port"))
	} else {
		cfg.HTTPPort = port
	}

	if path := strings.TrimSpace(v.GetString("sqlite_path")); path == "" {
		missing = append(missing, envName("sqlite_path"))
	} else {
		cfg.SQLitePath = path
	}

	if timeout, err := time.ParseDuration(strings.TrimSpace(v.GetString("sqlite_busy_timeout"))); err != nil || timeout < 0 {
		invalid = append(invalid, envName("sqlite_busy_timeout"))
	} else {
		cfg.SQLiteBusyTimeout = timeout
	}

	if conns, err := strconv.Atoi(strings.TrimSpace(v.GetString("sqlite_max_open_conns"))); err != nil || conns <= 0 {
		invalid = append(invalid, envName("sqlite_max_open_conns"))
	} else {
		cfg.SQLiteMaxOpenConns = conns
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(v.GetString("log_level")))
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, envName("log_level"))
	}

	if pretty, err := strconv.ParseBool(strings.TrimSpace(v.GetString("log_pretty"))); err != nil {
		invalid = append(invalid, envName("log_pretty"))
	} else {
		cfg.LogPretty = pretty
	}

	if id := strings.TrimSpace(v.GetString("default_user_id")); id == "" {
		missing = append(missing, envName("default_user_id"))
	} else {
		cfg.DefaultUserID = id
	}

	if email := strings.TrimSpace(v.GetString("default_user_email")); email == "" {
		missing = append(missing, envName("default_user_email"))
	} else if !strings.Contains(email, "@") {
		invalid = append(invalid, envName("default_user_email"))
	} else {
		cfg.DefaultUserEmail = email
	}

	cfg.CORSAllowedOrigins = splitList(v.GetString("cors_allowed_origins"))

	if timeout, err := time.ParseDuration(strings.TrimSpace(v.GetString("request_timeout"))); err != nil || timeout <= 0 {
		invalid = append(invalid, envName("request_timeout"))
	} else {
		cfg.RequestTimeout = timeout
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
