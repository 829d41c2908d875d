package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingAndInvalid(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, Config{}, Load(filepath.Join(dir, "missing.json")))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0600))
	assert.Equal(t, Config{}, Load(bad))
}

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")

	cfg := LoadOrCreate(path)
	assert.Equal(t, DefaultConfig(), cfg)

	// second load reads the file that was just written
	again := Load(path)
	assert.Equal(t, DefaultContractAddress, again.Contract)
	assert.Equal(t, "https://ethereum-sepolia-rpc.publicnode.com", again.ActiveRPC())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.json")
	cfg := Config{
		RPCURLs:  []RPCUrl{{Name: "a", URL: "http://a"}, {Name: "b", URL: "http://b", Active: true}},
		Contract: "0x0000000000000000000000000000000000000001",
		Logger:   true,
	}
	require.NoError(t, Save(path, cfg))
	assert.Equal(t, cfg, Load(path))
}

func TestApplyEnv(t *testing.T) {
	t.Run("known rpc becomes active", func(t *testing.T) {
		cfg := Config{RPCURLs: []RPCUrl{{Name: "a", URL: "http://a", Active: true}, {Name: "b", URL: "http://b"}}}
		got := cfg.Apply(Env{RPCURL: "http://b"})
		assert.Equal(t, "http://b", got.ActiveRPC())
		assert.Len(t, got.RPCURLs, 2)
	})

	t.Run("unknown rpc is appended", func(t *testing.T) {
		cfg := Config{RPCURLs: []RPCUrl{{Name: "a", URL: "http://a", Active: true}}}
		got := cfg.Apply(Env{RPCURL: "http://c"})
		assert.Equal(t, "http://c", got.ActiveRPC())
		assert.Len(t, got.RPCURLs, 2)
	})

	t.Run("contract and keystore", func(t *testing.T) {
		got := DefaultConfig().Apply(Env{Contract: "0xabc", Keystore: "/tmp/key.json"})
		assert.Equal(t, "0xabc", got.Contract)
		assert.Equal(t, "/tmp/key.json", got.Keystore)
	})
}

func TestParseEnv(t *testing.T) {
	t.Setenv("ETH_RPC_URL", "http://localhost:8545")
	t.Setenv("CROWDFUND_PRIVATE_KEYS", "aa,bb")
	t.Setenv("CROWDFUND_SETTLEMENT_TIMEOUT", "90s")

	e, err := ParseEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8545", e.RPCURL)
	assert.Equal(t, []string{"aa", "bb"}, e.PrivateKeys)
	assert.Equal(t, 90*time.Second, e.SettlementTimeout)
	assert.Equal(t, 4*time.Second, e.ChainPoll)
}

func TestSetActiveRPC(t *testing.T) {
	cfg := Config{RPCURLs: []RPCUrl{{URL: "a", Active: true}, {URL: "b"}}}
	cfg.SetActiveRPC(1)
	assert.Equal(t, "b", cfg.ActiveRPC())
	cfg.SetActiveRPC(5)
	assert.Equal(t, "b", cfg.ActiveRPC())
}

func TestRequiredChainIsSepolia(t *testing.T) {
	assert.Equal(t, uint64(11155111), RequiredChainID)
}

func TestPersistentDropsEnvOverrides(t *testing.T) {
	file := Config{
		RPCURLs:  []RPCUrl{{Name: "a", URL: "http://a", Active: true}, {Name: "b", URL: "http://b"}},
		Contract: DefaultContractAddress,
		Keystore: "/home/me/key.json",
	}

	t.Run("unknown rpc, contract and keystore", func(t *testing.T) {
		e := Env{RPCURL: "http://env", Contract: "0x0000000000000000000000000000000000000001", Keystore: "/tmp/key.json"}
		cfg := file.Apply(e)
		require.Equal(t, "http://env", cfg.ActiveRPC())
		assert.Equal(t, "http://a", file.ActiveRPC(), "Apply leaves the file config alone")

		cfg.Logger = true
		got := cfg.Persistent(file, e)
		assert.Equal(t, file.RPCURLs, got.RPCURLs)
		assert.Equal(t, file.Contract, got.Contract)
		assert.Equal(t, file.Keystore, got.Keystore)
		assert.True(t, got.Logger)
	})

	t.Run("known rpc keeps the file's active entry", func(t *testing.T) {
		e := Env{RPCURL: "http://b"}
		got := file.Apply(e).Persistent(file, e)
		assert.Equal(t, "http://a", got.ActiveRPC())
	})

	t.Run("user switch is kept", func(t *testing.T) {
		e := Env{RPCURL: "http://env"}
		cfg := file.Apply(e)
		cfg.SetActiveRPC(1)
		got := cfg.Persistent(file, e)
		assert.Equal(t, "http://b", got.ActiveRPC())
		assert.Len(t, got.RPCURLs, 2)
	})

	t.Run("saved file has no transient entry", func(t *testing.T) {
		e := Env{RPCURL: "http://env"}
		path := filepath.Join(t.TempDir(), "cfg.json")
		require.NoError(t, Save(path, file.Apply(e).Persistent(file, e)))
		assert.Equal(t, file, Load(path))
	})
}
