package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/params"
)

// DefaultContractAddress is the deployed crowdfunding campaign on Sepolia
const DefaultContractAddress = "0x87204075Cb6392d20F9C9621536FbA857E38c5Af"

// RequiredChainID is the only chain the client will sign for (Sepolia)
var RequiredChainID = params.SepoliaChainConfig.ChainID.Uint64()

// Config represents the application configuration
type Config struct {
	RPCURLs  []RPCUrl `json:"rpc_urls"`
	Contract string   `json:"contract"`
	Keystore string   `json:"keystore,omitempty"`
	Logger   bool     `json:"logger"`
}

// RPCUrl represents an RPC endpoint
type RPCUrl struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
	// Transient entries come from ETH_RPC_URL and are never saved
	Transient bool `json:"-"`
}

// Env holds overrides read from the process environment
type Env struct {
	ConfigPath        string        `env:"CROWDFUND_CONFIG"`
	RPCURL            string        `env:"ETH_RPC_URL"`
	PrivateKeys       []string      `env:"CROWDFUND_PRIVATE_KEYS" envSeparator:","`
	Keystore          string        `env:"CROWDFUND_KEYSTORE"`
	KeystorePassword  string        `env:"CROWDFUND_KEYSTORE_PASSWORD"`
	Contract          string        `env:"CROWDFUND_CONTRACT"`
	SettlementTimeout time.Duration `env:"CROWDFUND_SETTLEMENT_TIMEOUT" envDefault:"5m"`
	ChainPoll         time.Duration `env:"CROWDFUND_CHAIN_POLL" envDefault:"4s"`
}

// ParseEnv loads overrides from environment variables
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// DefaultPath returns the config file location in the user's home directory
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".crowdfund-config.json")
}

// Load reads the config from the specified path
func Load(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}

	return cfg
}

// Save writes the config to the specified path
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// DefaultConfig returns a new configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		RPCURLs: []RPCUrl{
			{
				Name:   "Public Sepolia",
				URL:    "https://ethereum-sepolia-rpc.publicnode.com",
				Active: true,
			},
		},
		Contract: DefaultContractAddress,
		Logger:   false,
	}
}

// LoadOrCreate loads config from path, or creates a default one if not found
func LoadOrCreate(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		cfg := DefaultConfig()
		_ = Save(path, cfg)
		return cfg
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig()
	}
	if cfg.Contract == "" {
		cfg.Contract = DefaultContractAddress
	}

	return cfg
}

// Apply layers environment overrides on top of the file config
func (c Config) Apply(e Env) Config {
	c.RPCURLs = append([]RPCUrl(nil), c.RPCURLs...)
	if e.RPCURL != "" {
		found := false
		for i := range c.RPCURLs {
			c.RPCURLs[i].Active = c.RPCURLs[i].URL == e.RPCURL
			found = found || c.RPCURLs[i].Active
		}
		if !found {
			c.RPCURLs = append(c.RPCURLs, RPCUrl{Name: "Environment", URL: e.RPCURL, Active: true, Transient: true})
		}
	}
	if e.Contract != "" {
		c.Contract = e.Contract
	}
	if e.Keystore != "" {
		c.Keystore = e.Keystore
	}
	return c
}

// Persistent undoes the overrides Apply(e) made to c, keeping every change
// made since. file is the config as loaded from disk.
func (c Config) Persistent(file Config, e Env) Config {
	out := c
	out.RPCURLs = make([]RPCUrl, 0, len(c.RPCURLs))
	for _, r := range c.RPCURLs {
		if !r.Transient {
			out.RPCURLs = append(out.RPCURLs, r)
		}
	}
	if e.RPCURL != "" && c.ActiveRPC() == strings.TrimSpace(e.RPCURL) {
		active := file.ActiveRPC()
		for i := range out.RPCURLs {
			out.RPCURLs[i].Active = strings.TrimSpace(out.RPCURLs[i].URL) == active
		}
	}
	if e.Contract != "" && c.Contract == e.Contract {
		out.Contract = file.Contract
	}
	if e.Keystore != "" && c.Keystore == e.Keystore {
		out.Keystore = file.Keystore
	}
	return out
}

// ActiveRPC returns the URL of the active endpoint, or "" if none
func (c Config) ActiveRPC() string {
	for _, r := range c.RPCURLs {
		if r.Active {
			return strings.TrimSpace(r.URL)
		}
	}
	return ""
}

// SetActiveRPC marks the endpoint at idx as the only active one
func (c *Config) SetActiveRPC(idx int) {
	if idx < 0 || idx >= len(c.RPCURLs) {
		return
	}
	for i := range c.RPCURLs {
		c.RPCURLs[i].Active = i == idx
	}
}
