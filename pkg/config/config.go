// Package config loads the facilitator's runtime configuration from the
// environment (optionally via a .env file) and wires the concrete
// facilitator, nonce store, and settlers it describes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"crypto/ecdsa"

	"github.com/x402-network/facilitator/pkg/facilitator"
	"github.com/x402-network/facilitator/pkg/network"
	"github.com/x402-network/facilitator/pkg/noncestore"
	"github.com/x402-network/facilitator/pkg/settlement"
	"github.com/x402-network/facilitator/pkg/types"
	"github.com/x402-network/facilitator/pkg/verify"
)

// Config holds the application configuration.
type Config struct {
	BindAddress             string
	StorageBackend          string // "memory" or "redis"
	RedisURL                string
	RedisKeyPrefix          string
	EVMPrivateKeys          []string
	RPCURLs                 map[types.Network]string
	SettlementConfirmations uint64
	LogFormat               string
}

// Load reads configuration from the environment, falling back to a .env
// file in the working directory if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BindAddress:             getEnvOrDefault("BIND_ADDRESS", "0.0.0.0:3000"),
		StorageBackend:          getEnvOrDefault("STORAGE_BACKEND", "memory"),
		RedisURL:                os.Getenv("KV_URL"),
		RedisKeyPrefix:          getEnvOrDefault("KV_KEY_PREFIX", noncestore.DefaultKeyPrefix),
		RPCURLs:                 make(map[types.Network]string),
		SettlementConfirmations: 1,
		LogFormat:               getEnvOrDefault("LOG_FORMAT", "detailed"),
	}

	if keys := os.Getenv("EVM_PRIVATE_KEYS"); keys != "" {
		cfg.EVMPrivateKeys = strings.Split(keys, ",")
	} else if key := os.Getenv("EVM_PRIVATE_KEY"); key != "" {
		cfg.EVMPrivateKeys = []string{key}
	}

	if n := os.Getenv("SETTLEMENT_CONFIRMATIONS"); n != "" {
		if parsed, err := strconv.ParseUint(n, 10, 64); err == nil && parsed > 0 {
			cfg.SettlementConfirmations = parsed
		}
	}

	rpcMapping := map[types.Network]string{
		types.NetworkBase:          "RPC_URL_BASE",
		types.NetworkBaseSepolia:   "RPC_URL_BASE_SEPOLIA",
		types.NetworkAvalanche:     "RPC_URL_AVALANCHE",
		types.NetworkAvalancheFuji: "RPC_URL_AVALANCHE_FUJI",
	}
	for n, envKey := range rpcMapping {
		if url := os.Getenv(envKey); url != "" {
			cfg.RPCURLs[n] = url
		}
	}

	return cfg, nil
}

// BuildNonceStore constructs the configured nonce store backend.
func (c *Config) BuildNonceStore() (noncestore.Store, error) {
	switch c.StorageBackend {
	case "redis":
		if c.RedisURL == "" {
			return nil, fmt.Errorf("config: STORAGE_BACKEND=redis requires KV_URL")
		}
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("config: invalid KV_URL: %w", err)
		}
		client := redis.NewClient(opts)
		return noncestore.NewRedisStore(client, c.RedisKeyPrefix), nil
	case "memory", "":
		return noncestore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
}

// BuildFacilitator wires a LocalFacilitator: one verify.Engine over the
// configured nonce store, with one settlement.EVMSettler per network that
// has an RPC URL configured, all sharing the same relayer keys. Having no
// relayer key at all is an error; networks without an RPC URL are simply
// absent from Supported(), not errors.
func (c *Config) BuildFacilitator() (*facilitator.LocalFacilitator, error) {
	store, err := c.BuildNonceStore()
	if err != nil {
		return nil, err
	}
	engine := verify.NewEngine(store)
	fac := facilitator.NewLocalFacilitator(engine)

	if len(c.EVMPrivateKeys) == 0 {
		return nil, fmt.Errorf("config: no EVM relayer keys configured")
	}
	signers := make([]*ecdsa.PrivateKey, 0, len(c.EVMPrivateKeys))
	for _, hexKey := range c.EVMPrivateKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
		if err != nil {
			return nil, fmt.Errorf("config: invalid relayer key: %w", err)
		}
		signers = append(signers, key)
	}

	for _, n := range network.Supported() {
		rpcURL, ok := c.RPCURLs[n]
		if !ok {
			continue
		}
		client, err := ethclient.Dial(rpcURL)
		if err != nil {
			return nil, fmt.Errorf("config: dial RPC for %s: %w", n, err)
		}
		settler, err := settlement.NewEVMSettler(client, signers, c.SettlementConfirmations)
		if err != nil {
			return nil, fmt.Errorf("config: build settler for %s: %w", n, err)
		}
		fac.AddSettler(n, settler)
	}

	return fac, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
