package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"go-subxt/internal/messages"
)

const (
	defaultConfigFilePath = "config.json"
	defaultEnvFilePath    = ".env"

	DefaultWsRpcEndpoint = "ws://127.0.0.1:9944"

	envWsRpcEndpoint = "SUBXT_WS_RPC_ENDPOINT"
	envSignerSeed    = "SUBXT_SIGNER_SEED"
	envLogLevel      = "SUBXT_LOG_LEVEL"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		NodeConfig: NodeConfig{
			WsRpcEndpoint:    DefaultWsRpcEndpoint,
			DialRetries:      3,
			DialTimeoutMs:    10000,
			RequestTimeoutMs: 30000,
		},
		ChainConfig: ChainConfig{
			AddressFormat:       "multiaddress",
			StoragePrefixScheme: "modern",
			WatchUntil:          "finalized",
			SS58Prefix:          42,
		},
		SignerConfig: SignerConfig{
			Scheme: "sr25519",
		},
		LogConfig: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig tries to load the client config from a config file given as a parameter. If the filename is a nil
// string pointer, it defaults to a constant file path "config.json". A missing file is not an error: defaults
// are used. Values from the environment (and a .env file next to the binary) override the file.
func LoadConfig(configFilePath *string) (Config, error) {
	cfg := Default()

	configPath := defaultConfigFilePath
	if configFilePath != nil && *configFilePath != "" {
		configPath = *configFilePath
	} else {
		messages.NewClientMessage(messages.LOG_LEVEL_INFO, "", nil, messages.CONFIG_NO_CUSTOM_PATH_SPECIFIED).ConsoleLog()
	}
	messages.NewClientMessage(messages.LOG_LEVEL_INFO, "", nil, messages.CONFIG_STARTED_LOADING, configPath).ConsoleLog()

	configFile, err := os.Open(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		messages.NewClientMessage(messages.LOG_LEVEL_WARNING, "", nil, messages.CONFIG_FILE_MISSING, configPath).ConsoleLog()
	case err != nil:
		return cfg, fmt.Errorf("open config %s: %w", configPath, err)
	default:
		defer configFile.Close()
		jsonParser := json.NewDecoder(configFile)
		if err := jsonParser.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", configPath, err)
		}
	}

	if err := godotenv.Load(defaultEnvFilePath); err == nil {
		messages.NewClientMessage(messages.LOG_LEVEL_INFO, "", nil, messages.CONFIG_ENV_FILE_LOADED, defaultEnvFilePath).ConsoleLog()
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	messages.NewClientMessage(messages.LOG_LEVEL_SUCCESS, "", nil, messages.CONFIG_FINISHED_LOADING).ConsoleLog()
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envWsRpcEndpoint); v != "" {
		cfg.NodeConfig.WsRpcEndpoint = v
	}
	if v := os.Getenv(envSignerSeed); v != "" {
		cfg.SignerConfig.Seed = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogConfig.Level = v
	}
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.ChainConfig.AddressFormat {
	case "multiaddress", "indices", "id":
	default:
		return fmt.Errorf("chain_config.address_format: unknown value %q", c.ChainConfig.AddressFormat)
	}
	switch c.ChainConfig.StoragePrefixScheme {
	case "modern", "legacy":
	default:
		return fmt.Errorf("chain_config.storage_prefix_scheme: unknown value %q", c.ChainConfig.StoragePrefixScheme)
	}
	switch c.ChainConfig.WatchUntil {
	case "finalized", "inBlock":
	default:
		return fmt.Errorf("chain_config.watch_until: unknown value %q", c.ChainConfig.WatchUntil)
	}
	switch c.SignerConfig.Scheme {
	case "sr25519", "ed25519", "ecdsa":
	default:
		return fmt.Errorf("signer_config.scheme: unknown value %q", c.SignerConfig.Scheme)
	}
	if c.NodeConfig.WsRpcEndpoint == "" {
		return errors.New("node_config.ws_rpc_endpoint is empty")
	}
	return nil
}
