package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// legacyEnv maps config keys to the unprefixed variables the agent's compose
// deployment already sets. The AFRO_ form always wins when both are present.
var legacyEnv = map[string]string{
	"server.port":                  "PORT",
	"ollama.base_url":              "OLLAMA_BASE_URL",
	"ollama.model":                 "OLLAMA_MODEL",
	"github.token":                 "GITHUB_TOKEN",
	"github.repo":                  "GITHUB_REPO",
	"network.mainnet_rpc_url":      "MAINNET_RPC_URL",
	"network.testnet_rpc_url":      "TESTNET_RPC_URL",
	"network.mainnet_explorer_url": "MAINNET_EXPLORER_URL",
	"network.testnet_explorer_url": "TESTNET_EXPLORER_URL",
	"logging.level":                "LOG_LEVEL",
}

// bindLegacyEnv binds every legacy variable alongside its prefixed name
func bindLegacyEnv() error {
	for key, legacy := range legacyEnv {
		if err := viper.BindEnv(key, EnvName(key), legacy); err != nil {
			return fmt.Errorf("failed to bind %s: %w", legacy, err)
		}
	}
	return nil
}

// EnvName returns the prefixed environment variable for a config key
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
