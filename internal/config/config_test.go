package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Environment:  EnvDevelopment,
		Network:      NetworkConfig{Name: "testnet"},
		RPC:          RPCConfig{TimeoutSeconds: 10},
		ContentStore: ContentStoreConfig{Mode: StoreModeMock, TimeoutSeconds: 10},
		Gas:          GasConfig{BufferPercent: 20},
		RateLimit:    RateLimitConfig{Requests: 30, WindowSeconds: 60},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := map[string]func(c *Config){
		"mock store in production": func(c *Config) { c.Environment = EnvProduction },
		"unknown network":          func(c *Config) { c.Network.Name = "devnet" },
		"unknown store":            func(c *Config) { c.ContentStore.Mode = "ftp" },
		"negative gas buffer":      func(c *Config) { c.Gas.BufferPercent = -1 },
		"gas buffer over 100":      func(c *Config) { c.Gas.BufferPercent = 101 },
		"zero rate limit":          func(c *Config) { c.RateLimit.Requests = 0 },
		"zero rpc timeout":         func(c *Config) { c.RPC.TimeoutSeconds = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateRejectsBadContractOverride(t *testing.T) {
	t.Setenv("SPG_NFT_CONTRACT", "0x123")
	assert.ErrorContains(t, validConfig().Validate(), "SPG_NFT_CONTRACT")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONTENT_STORE", "mock")
	t.Setenv("STORY_NETWORK", "TESTNET")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "testnet", cfg.Network.Name)
	require.NotNil(t, cfg.Network.Active)
	assert.Equal(t, int64(1315), cfg.Network.Active.ChainID)
	assert.Equal(t, 20, cfg.Gas.BufferPercent)
	assert.Equal(t, int64(150<<20), cfg.Security.MaxBodyBytes)
}

func TestResolveNetworkAppliesOverrides(t *testing.T) {
	override := "0x9999999999999999999999999999999999999999"
	net, err := ResolveNetwork("mainnet", map[string]string{ContractSPGNFT: override})
	require.NoError(t, err)

	addr, ok := net.Contract(ContractSPGNFT)
	require.True(t, ok)
	assert.Equal(t, override, addr.Hex())

	// the shared table is not modified
	plain, err := ResolveNetwork("mainnet", nil)
	require.NoError(t, err)
	_, ok = plain.Contract(ContractSPGNFT)
	assert.False(t, ok)

	_, err = ResolveNetwork("mainnet", map[string]string{ContractSPGNFT: "nope"})
	assert.Error(t, err)
	_, err = ResolveNetwork("devnet", nil)
	assert.Error(t, err)
}

func TestNetworkTables(t *testing.T) {
	for _, name := range []string{"testnet", "mainnet"} {
		net, err := ResolveNetwork(name, nil)
		require.NoError(t, err)
		for _, key := range []string{ContractRegistrationWorkflows, ContractDerivativeWorkflows, ContractLicensingModule,
			ContractRoyaltyModule, ContractRoyaltyWorkflows, ContractDisputeModule, ContractPILicenseTemplate,
			ContractRoyaltyPolicyLAP, ContractWIPToken} {
			_, ok := net.Contract(key)
			assert.True(t, ok, "%s %s", name, key)
		}
	}

	testnet, err := ResolveNetwork("testnet", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://aeneid.storyscan.io/address/0xabc", testnet.AddressURL("0xabc"))
}

func TestRPCURLsDeduplicates(t *testing.T) {
	c := validConfig()
	net, err := ResolveNetwork("testnet", nil)
	require.NoError(t, err)
	c.Network.Active = net
	c.RPC.URL = "https://aeneid.storyrpc.io"
	c.RPC.FallbackURLs = []string{" https://backup.example ", "https://aeneid.storyrpc.io"}

	assert.Equal(t, []string{
		"https://aeneid.storyrpc.io",
		"https://backup.example",
		"https://story-aeneid-rpc.publicnode.com",
	}, c.RPCURLs())
}
