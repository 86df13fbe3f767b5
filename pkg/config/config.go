// Package config loads deployment-time configuration for the escrow
// engine: the fixed supported-token list, the resolution window, the
// verifying key to pin, and the drand network used for checkpoints and
// witness sealing. Everything here is immutable once the engine is built.
package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"zkbounty/pkg/escrow"
	"zkbounty/pkg/timeseal"
)

// Config mirrors the TOML layout.
type Config struct {
	// Engine is the custody identity the engine transfers under.
	Engine string `toml:"engine"`
	// Window is the resolution window in checkpoint units; 0 means the
	// engine default.
	Window uint64 `toml:"window"`
	// VerifyingKeyFile points at the serialized Groth16 verifying key.
	VerifyingKeyFile string `toml:"verifying_key_file"`

	Tokens []TokenConfig `toml:"tokens"`
	Drand  DrandConfig   `toml:"drand"`
}

// TokenConfig names one supported reward asset.
type TokenConfig struct {
	Address string `toml:"address"`
	Symbol  string `toml:"symbol"`
}

// DrandConfig selects the beacon network backing the round clock and
// witness sealing. Empty values fall back to Quicknet.
type DrandConfig struct {
	ChainHash string   `toml:"chain_hash"`
	Genesis   int64    `toml:"genesis"`
	Period    int64    `toml:"period"`
	Scheme    string   `toml:"scheme"`
	Endpoints []string `toml:"endpoints"`
}

// Load reads and validates a TOML config file.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the parts the engine cannot check itself.
func (c *Config) Validate() error {
	if _, err := c.EngineAddress(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if len(c.Tokens) == 0 {
		return fmt.Errorf("at least one supported token is required")
	}
	for i, t := range c.Tokens {
		if _, err := escrow.ParseAddress(t.Address); err != nil {
			return fmt.Errorf("tokens[%d]: %w", i, err)
		}
	}
	return nil
}

// EngineAddress parses the engine's custody identity.
func (c *Config) EngineAddress() (escrow.Address, error) {
	return escrow.ParseAddress(c.Engine)
}

// TokenAddresses parses the supported asset identifiers in declared order.
func (c *Config) TokenAddresses() ([]escrow.Address, error) {
	out := make([]escrow.Address, 0, len(c.Tokens))
	for i, t := range c.Tokens {
		a, err := escrow.ParseAddress(t.Address)
		if err != nil {
			return nil, fmt.Errorf("tokens[%d]: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// Network resolves the drand parameters, defaulting to Quicknet.
func (c *Config) Network() (timeseal.NetworkInfo, error) {
	network := timeseal.DefaultQuicknet()
	if c.Drand.ChainHash != "" {
		raw, err := hex.DecodeString(c.Drand.ChainHash)
		if err != nil {
			return timeseal.NetworkInfo{}, fmt.Errorf("invalid drand chain hash: %w", err)
		}
		network.ChainHash = raw
	}
	if c.Drand.Genesis != 0 {
		network.GenesisTime = c.Drand.Genesis
	}
	if c.Drand.Period != 0 {
		network.Period = c.Drand.Period
	}
	if c.Drand.Scheme != "" {
		network.SchemeID = c.Drand.Scheme
	}
	if len(c.Drand.Endpoints) > 0 {
		network.Endpoints = c.Drand.Endpoints
	}
	return network, nil
}

// VerifyingKey loads the pinned verifying key bytes.
func (c *Config) VerifyingKey() ([]byte, error) {
	if c.VerifyingKeyFile == "" {
		return nil, fmt.Errorf("verifying_key_file is not set")
	}
	raw, err := os.ReadFile(c.VerifyingKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read verifying key: %w", err)
	}
	return raw, nil
}
