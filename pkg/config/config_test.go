package config

import (
	"os"
	"testing"

	"github.com/x402-network/facilitator/pkg/types"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"BIND_ADDRESS", "STORAGE_BACKEND", "KV_URL", "KV_KEY_PREFIX", "EVM_PRIVATE_KEYS", "EVM_PRIVATE_KEY", "SETTLEMENT_CONFIRMATIONS", "RPC_URL_BASE", "RPC_URL_BASE_SEPOLIA", "RPC_URL_AVALANCHE", "RPC_URL_AVALANCHE_FUJI", "LOG_FORMAT"} {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BindAddress != "0.0.0.0:3000" {
		t.Fatalf("unexpected bind address: %s", cfg.BindAddress)
	}
	if cfg.StorageBackend != "memory" {
		t.Fatalf("expected default storage backend memory, got %s", cfg.StorageBackend)
	}
	if cfg.SettlementConfirmations != 1 {
		t.Fatalf("expected default confirmations 1, got %d", cfg.SettlementConfirmations)
	}
}

func TestLoadHonorsBindAddressOverride(t *testing.T) {
	clearEnv(t)
	os.Setenv("BIND_ADDRESS", "127.0.0.1:9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BindAddress != "127.0.0.1:9000" {
		t.Fatalf("unexpected bind address: %s", cfg.BindAddress)
	}
}

func TestLoadParsesMultipleEVMKeys(t *testing.T) {
	clearEnv(t)
	os.Setenv("EVM_PRIVATE_KEYS", "aaa,bbb,ccc")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.EVMPrivateKeys) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(cfg.EVMPrivateKeys))
	}
}

func TestLoadMapsRPCURLsByNetwork(t *testing.T) {
	clearEnv(t)
	os.Setenv("RPC_URL_BASE", "https://base.example.com")
	os.Setenv("RPC_URL_AVALANCHE_FUJI", "https://fuji.example.com")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RPCURLs[types.NetworkBase] != "https://base.example.com" {
		t.Fatalf("unexpected base RPC URL: %s", cfg.RPCURLs[types.NetworkBase])
	}
	if cfg.RPCURLs[types.NetworkAvalancheFuji] != "https://fuji.example.com" {
		t.Fatalf("unexpected fuji RPC URL: %s", cfg.RPCURLs[types.NetworkAvalancheFuji])
	}
	if len(cfg.RPCURLs) != 2 {
		t.Fatalf("expected exactly 2 configured RPC URLs, got %d", len(cfg.RPCURLs))
	}
}

func TestBuildNonceStoreDefaultsToMemory(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store, err := cfg.BuildNonceStore()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store == nil {
		t.Fatal("expected a non-nil store")
	}
}

func TestBuildNonceStoreRejectsRedisWithoutURL(t *testing.T) {
	clearEnv(t)
	os.Setenv("STORAGE_BACKEND", "redis")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cfg.BuildNonceStore(); err == nil {
		t.Fatal("expected an error when redis backend is selected without KV_URL")
	}
}

func TestBuildFacilitatorRequiresRelayerKeys(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cfg.BuildFacilitator(); err == nil {
		t.Fatal("expected an error when no relayer keys are configured")
	}
}
