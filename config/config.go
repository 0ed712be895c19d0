// Package config loads daemon configuration from a TOML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Domain DomainConfig `toml:"domain"`
	Store  StoreConfig  `toml:"store"`
	DB     DBConfig     `toml:"db"`
	Tokens TokensConfig `toml:"tokens"`
	API    APIConfig    `toml:"api"`
	Logger LoggerConfig `toml:"logger"`
}

// DomainConfig carries the immutable domain-separation parameters. They are
// fixed per deployment; changing any of them invalidates every outstanding
// signature.
type DomainConfig struct {
	Name              string `toml:"name"`
	Version           string `toml:"version"`
	ChainID           uint64 `toml:"chain_id" envconfig:"DOMAIN_CHAIN_ID"`
	VerifyingContract string `toml:"verifying_contract" envconfig:"DOMAIN_VERIFYING_CONTRACT"`
}

// StoreConfig selects the persistence backend for offers, nonces and
// delegations.
type StoreConfig struct {
	// Backend is "memory" or "mysql".
	Backend string `toml:"backend" envconfig:"STORE_BACKEND"`
}

type DBConfig struct {
	Host       string `toml:"host" envconfig:"DB_HOST"`
	Port       int    `toml:"port" envconfig:"DB_PORT"`
	Database   string `toml:"database" envconfig:"DB_DATABASE"`
	Username   string `toml:"username" envconfig:"DB_USERNAME"`
	Password   string `toml:"password" envconfig:"DB_PASSWORD"`
	LogQueries bool   `toml:"log_queries"`
}

// TokensConfig selects the value-transfer collaborator.
type TokensConfig struct {
	// Backend is "memory" or "erc20".
	Backend string `toml:"backend" envconfig:"TOKENS_BACKEND"`

	// NodeURL is the RPC endpoint for the erc20 backend.
	NodeURL string `toml:"node_url" envconfig:"TOKENS_NODE_URL"`

	// AuthorityKey is the hex private key the erc20 backend transacts with.
	AuthorityKey string `toml:"authority_key" envconfig:"TOKENS_AUTHORITY_KEY"`
}

type APIConfig struct {
	Address string `toml:"address" envconfig:"API_ADDRESS"`
}

type LoggerConfig struct {
	Level       string `toml:"level"` // valid values are: DEBUG, INFO, WARN, ERROR, DPANIC, PANIC, FATAL (zap)
	File        string `toml:"file"`
	MaxFileSize int    `toml:"max_file_size"` // In megabytes
	Console     bool   `toml:"console"`
}

func BuildConfig(fileName string) (*Config, error) {
	cfg := &Config{}
	if err := ParseConfigFile(cfg, fileName); err != nil {
		return nil, err
	}
	if err := ReadEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ParseConfigFile(cfg *Config, fileName string) error {
	content, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("error opening config file: %w", err)
	}

	_, err = toml.Decode(string(content), cfg)
	if err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	return nil
}

func ReadEnv(cfg interface{}) error {
	err := envconfig.Process("", cfg)
	if err != nil {
		return fmt.Errorf("error reading env config: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.Domain.Name == "" || c.Domain.Version == "" {
		return fmt.Errorf("domain name and version must be set")
	}
	if !common.IsHexAddress(c.Domain.VerifyingContract) {
		return fmt.Errorf("invalid verifying contract address: %q", c.Domain.VerifyingContract)
	}
	switch c.Store.Backend {
	case "", "memory", "mysql":
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}
	switch c.Tokens.Backend {
	case "", "memory", "erc20":
	default:
		return fmt.Errorf("unknown tokens backend: %q", c.Tokens.Backend)
	}
	return nil
}
