package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Coordinator holds all configuration for the login coordinator.
type Coordinator struct {
	// Network
	ListenHost string `yaml:"listen_host"`
	ListenPort int    `yaml:"listen_port"`

	// Database
	Database DatabaseConfig `yaml:"database"`

	// Save storage root. Per-player blobs live under
	// <saves_root>/<profile>/<username>.sav
	SavesRoot string `yaml:"saves_root"`

	// Security
	AutoCreateAccounts bool `yaml:"auto_create_accounts"`
	BcryptCost         int  `yaml:"bcrypt_cost"`

	// Wire limits
	MaxEventSize int `yaml:"max_event_size"` // bytes, one JSON line
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultCoordinator returns Coordinator config with sensible defaults.
func DefaultCoordinator() Coordinator {
	return Coordinator{
		ListenHost:         "0.0.0.0",
		ListenPort:         9014,
		SavesRoot:          "data/players",
		AutoCreateAccounts: true,
		BcryptCost:         10,
		MaxEventSize:       4 << 20,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "worldgate",
			Password: "worldgate",
			DBName:   "worldgate",
			SSLMode:  "disable",
		},
	}
}

// LoadCoordinator loads coordinator config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadCoordinator(path string) (Coordinator, error) {
	cfg := DefaultCoordinator()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
