package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fundify/indexer/internal/common"
	pkgconfig "github.com/fundify/indexer/pkg/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file values.
const (
	EnvContractAddress = "CONTRACT_ADDRESS"
	EnvRPCURL          = "RPC_URL"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvDatabasePath    = "DATABASE_PATH"
	EnvStartBlock      = "START_BLOCK"
)

// LoadFromFile loads configuration from a file, auto-detecting the format by extension.
// Supported formats: .yaml, .yml, .json, .toml
// A .env file next to the config file is loaded into the environment first, and
// environment overrides are applied before defaults and validation.
func LoadFromFile(path string) (*pkgconfig.Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	if err := LoadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	return processConfig(cfg)
}

// LoadFromEnv builds a configuration from environment variables only.
// Used when no config file is given.
func LoadFromEnv() (*pkgconfig.Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	return processConfig(&pkgconfig.Config{})
}

// LoadDotEnv loads variables from the given .env file without overriding
// variables already present in the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	return nil
}

func decodeFile(path string) (*pkgconfig.Config, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var cfg pkgconfig.Config

	switch ext {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json, .toml)", ext)
	}

	return &cfg, nil
}

// applyEnvOverrides copies the well-known environment variables over file values.
func applyEnvOverrides(cfg *pkgconfig.Config) error {
	if v := os.Getenv(EnvContractAddress); v != "" {
		cfg.Contract.Address = v
	}
	if v := os.Getenv(EnvRPCURL); v != "" {
		cfg.Downloader.RPCURL = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv(EnvDatabasePath); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv(EnvStartBlock); v != "" {
		block, err := common.ParseBlockNumber(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvStartBlock, err)
		}
		cfg.Contract.StartBlock = block
	}

	return nil
}

// processConfig applies environment overrides and defaults, then validates the configuration.
func processConfig(cfg *pkgconfig.Config) (*pkgconfig.Config, error) {
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
