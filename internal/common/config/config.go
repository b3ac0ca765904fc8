package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

const (
	mainnetConfigURL = "https://ton.org/global.config.json"
	testnetConfigURL = "https://ton-blockchain.github.io/testnet-global.config.json"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	TON struct {
		// Master secret of the escrow key tree. The service refuses to start
		// without it.
		Mnemonic string `env:"ESCROW_MNEMONIC,required"`

		Network   string `env:"TON_NETWORK" envDefault:"mainnet"`
		ConfigURL string `env:"TON_CONFIG_URL"`
		APIKey    string `env:"TON_API_KEY"`

		// Address of the on-chain deal registry. When empty the service runs
		// in wallet-derivation-only mode.
		RegistryAddress string `env:"DEAL_REGISTRY_ADDRESS"`
	}

	Telegram struct {
		BotToken           string `env:"BOT_TOKEN"`
		VerificationChatID int64  `env:"VERIFICATION_CHAT_ID"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}
}

func Load() (*Config, error) {
	// Missing .env is fine, variables may be set directly in the environment.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// LiteserverConfigURL resolves the global config location from the network
// selector, honoring an explicit override. Providers that gate config
// downloads by key receive it as a query parameter.
func (c *Config) LiteserverConfigURL() string {
	url := c.TON.ConfigURL
	if url == "" {
		if c.TON.Network == "testnet" {
			url = testnetConfigURL
		} else {
			url = mainnetConfigURL
		}
	}
	if c.TON.APIKey != "" {
		url += "?api_key=" + c.TON.APIKey
	}
	return url
}

// ChainConfigured reports whether registration and settlement can work.
// Derivation-only mode still serves createEscrowWallet.
func (c *Config) ChainConfigured() bool {
	return c.TON.RegistryAddress != ""
}
