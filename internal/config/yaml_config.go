package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the structure of the config.yaml file.
// Marketplace tunables and seed data that are easier to manage in YAML than env vars.
type YAMLConfig struct {
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Pagination  PaginationConfig  `yaml:"pagination"`
	SeedAdmins  []SeedAdmin       `yaml:"seed_admins"`
}

// MarketplaceConfig holds listing thresholds.
type MarketplaceConfig struct {
	HighPerforming HighPerformingConfig `yaml:"high_performing"`
}

// HighPerformingConfig defines when an approved listing counts as high performing.
type HighPerformingConfig struct {
	MinTrustScore     int   `yaml:"min_trust_score"`
	MinMonthlyTraffic int64 `yaml:"min_monthly_traffic"`
}

// PaginationConfig bounds list endpoints.
type PaginationConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// SeedAdmin is an admin account ensured at startup.
type SeedAdmin struct {
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
}

// LoadYAMLConfig loads the YAML configuration file at path.
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	for i := range cfg.SeedAdmins {
		cfg.SeedAdmins[i].Email = strings.ToLower(strings.TrimSpace(cfg.SeedAdmins[i].Email))
		if cfg.SeedAdmins[i].FullName == "" {
			cfg.SeedAdmins[i].FullName = "Administrator"
		}
	}

	return &cfg, nil
}

// GetSeedAdmins returns the admins to ensure at startup, skipping blank emails.
func (c *YAMLConfig) GetSeedAdmins() []SeedAdmin {
	if c == nil {
		return nil
	}
	var admins []SeedAdmin
	for _, a := range c.SeedAdmins {
		if a.Email != "" {
			admins = append(admins, a)
		}
	}
	return admins
}
