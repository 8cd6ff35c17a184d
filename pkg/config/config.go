package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig represents server configuration
type ServerConfig struct {
	Address  string         `yaml:"address"`
	Database DatabaseConfig `yaml:"database"`
	Sessions SessionsConfig `yaml:"sessions"`
	Admin    AdminConfig    `yaml:"admin"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig represents database settings
type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite | mysql
	Path string `yaml:"path"` // file path for sqlite, DSN for mysql
}

// SessionsConfig represents the device session policy
type SessionsConfig struct {
	MaxPerUser int `yaml:"max_per_user"`
}

// AdminConfig seeds the initial administrator account
type AdminConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ClientConfig represents admin client configuration
type ClientConfig struct {
	ServerURL string        `yaml:"server_url"`
	CacheDir  string        `yaml:"cache_dir"`
	Logging   LoggingConfig `yaml:"logging"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address: ":8080",
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: "./shareadmin.db",
		},
		Sessions: SessionsConfig{
			MaxPerUser: 3,
		},
		Admin: AdminConfig{
			Email:    "admin@local",
			Password: "Admin123",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		ServerURL: "http://localhost:8080",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadServerConfig loads server configuration from file and environment
// variables.
func LoadServerConfig(configPath string) (*ServerConfig, error) {
	config := DefaultServerConfig()

	if configPath != "" {
		if err := loadFromFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyServerEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// LoadClientConfig loads client configuration from file and environment
// variables.
func LoadClientConfig(configPath string) (*ClientConfig, error) {
	config := DefaultClientConfig()

	if configPath != "" {
		if err := loadFromFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyClientEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(path string, config any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

func applyServerEnvOverrides(config *ServerConfig) {
	if addr := os.Getenv("SHAREADMIN_ADDR"); addr != "" {
		config.Address = addr
	}
	if dbType := os.Getenv("SHAREADMIN_DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}
	if dbPath := os.Getenv("SHAREADMIN_DB_PATH"); dbPath != "" {
		config.Database.Path = dbPath
	}
	if maxSessions := os.Getenv("SHAREADMIN_MAX_SESSIONS"); maxSessions != "" {
		if val, err := strconv.Atoi(maxSessions); err == nil {
			config.Sessions.MaxPerUser = val
		}
	}
	if email := os.Getenv("SHAREADMIN_ADMIN_EMAIL"); email != "" {
		config.Admin.Email = email
	}
	if password := os.Getenv("SHAREADMIN_ADMIN_PASSWORD"); password != "" {
		config.Admin.Password = password
	}
	applyLoggingEnvOverrides(&config.Logging)
}

func applyClientEnvOverrides(config *ClientConfig) {
	if url := os.Getenv("SHAREADMIN_SERVER_URL"); url != "" {
		config.ServerURL = url
	}
	if dir := os.Getenv("SHAREADMIN_CACHE_DIR"); dir != "" {
		config.CacheDir = dir
	}
	applyLoggingEnvOverrides(&config.Logging)
}

func applyLoggingEnvOverrides(config *LoggingConfig) {
	if logLevel := os.Getenv("SHAREADMIN_LOG_LEVEL"); logLevel != "" {
		config.Level = logLevel
	}
	if logFormat := os.Getenv("SHAREADMIN_LOG_FORMAT"); logFormat != "" {
		config.Format = logFormat
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}
	if c.Database.Type != "" && c.Database.Type != "sqlite" && c.Database.Type != "mysql" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Sessions.MaxPerUser < 1 {
		return fmt.Errorf("sessions.max_per_user must be at least 1")
	}
	return nil
}

// Validate validates the client configuration
func (c *ClientConfig) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL cannot be empty")
	}
	return nil
}
