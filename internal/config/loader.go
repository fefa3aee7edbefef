package config

import (
	"fmt"
	"strings"

	"github.com/sheetflow/sheetflow/internal/db"
	"github.com/spf13/viper"
)

// JiraConfig holds the tracker connection settings. URL, Username and
// APIToken are required before any import runs.
type JiraConfig struct {
	URL        string
	Username   string
	APIToken   string
	ProjectKey string
}

// MissingKeys lists the required credential keys that are not set.
func (c JiraConfig) MissingKeys() []string {
	var missing []string
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(c.APIToken) == "" {
		missing = append(missing, "apiToken")
	}
	return missing
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// Config is the full application configuration.
type Config struct {
	Jira     JiraConfig
	Server   ServerConfig
	Database db.Config
	// DatabaseEnabled turns on the import-log repository. Off by default so
	// the service runs without any database.
	DatabaseEnabled bool
}

// Load reads config.yaml from configPath (optional) and applies environment
// overrides (JIRA_URL, JIRA_USERNAME, JIRA_API_TOKEN, JIRA_PROJECT_KEY,
// SERVER_ADDR, DB_*).
func Load(configPath string) (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: db.DefaultConfig(),
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()

	// Map nested keys to the flat env vars the deployment provides.
	v.BindEnv("jira.url", "JIRA_URL")
	v.BindEnv("jira.username", "JIRA_USERNAME")
	v.BindEnv("jira.api_token", "JIRA_API_TOKEN")
	v.BindEnv("jira.project_key", "JIRA_PROJECT_KEY")
	v.BindEnv("server.addr", "SERVER_ADDR")
	v.BindEnv("database.enabled", "DB_ENABLED")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	cfg.Jira.URL = v.GetString("jira.url")
	cfg.Jira.Username = v.GetString("jira.username")
	cfg.Jira.APIToken = v.GetString("jira.api_token")
	cfg.Jira.ProjectKey = v.GetString("jira.project_key")

	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	cfg.DatabaseEnabled = v.GetBool("database.enabled")
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
