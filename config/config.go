package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config carries the node's construction parameters. The two timeouts and the
// protocol version are immutable once the node starts.
type Config struct {
	// ProtocolVersion is reserved protocol configuration carried from the
	// reference deployments (value 10). It gates no behavior today but is
	// validated and echoed through net_info so operators can confirm it.
	ProtocolVersion uint64 `toml:"ProtocolVersion"`
	// FundTimeoutSeconds is how long an under-funded question must age before
	// it becomes refundable.
	FundTimeoutSeconds int64 `toml:"FundTimeoutSeconds"`
	// AnswerTimeoutSeconds is how long a fully funded question may sit
	// unanswered before it becomes refundable.
	AnswerTimeoutSeconds int64  `toml:"AnswerTimeoutSeconds"`
	RPCAddress           string `toml:"RPCAddress"`
	GatewayAddress       string `toml:"GatewayAddress"`
	MetricsAddress       string `toml:"MetricsAddress"`
	DataDir              string `toml:"DataDir"`
	// TokenOwner is the bech32 address allowed to mint token supply.
	TokenOwner string `toml:"TokenOwner"`
	LogDir     string `toml:"LogDir"`
	Env        string `toml:"Env"`
}

const defaultTimeoutSeconds = 48 * 3600

func defaultConfig() *Config {
	return &Config{
		ProtocolVersion:      10,
		FundTimeoutSeconds:   defaultTimeoutSeconds,
		AnswerTimeoutSeconds: defaultTimeoutSeconds,
		RPCAddress:           ":8645",
		GatewayAddress:       ":8080",
		MetricsAddress:       ":9090",
		DataDir:              "./amad-data",
		Env:                  "dev",
	}
}

// Load loads the configuration from the given path, writing a default file
// when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := defaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations a node cannot safely start with.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}
	if c.ProtocolVersion == 0 {
		return fmt.Errorf("ProtocolVersion must be positive")
	}
	if c.FundTimeoutSeconds <= 0 {
		return fmt.Errorf("FundTimeoutSeconds must be positive")
	}
	if c.AnswerTimeoutSeconds <= 0 {
		return fmt.Errorf("AnswerTimeoutSeconds must be positive")
	}
	if c.RPCAddress == "" {
		return fmt.Errorf("RPCAddress required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DataDir required")
	}
	return nil
}
