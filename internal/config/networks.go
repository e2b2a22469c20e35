// internal/config/networks.go
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-yaml/yaml"
)

//go:embed networks.yaml
var networksYAML []byte

// Contract keys used in networks.yaml and by the parameter assemblers.
const (
	ContractSPGNFT                = "spgNftContract"
	ContractRegistrationWorkflows = "registrationWorkflows"
	ContractDerivativeWorkflows   = "derivativeWorkflows"
	ContractLicensingModule       = "licensingModule"
	ContractRoyaltyModule         = "royaltyModule"
	ContractRoyaltyWorkflows      = "royaltyWorkflows"
	ContractDisputeModule         = "disputeModule"
	ContractPILicenseTemplate     = "piLicenseTemplate"
	ContractRoyaltyPolicyLAP      = "royaltyPolicyLAP"
	ContractWIPToken              = "wipToken"
)

// env var -> contract key
var contractEnvKeys = map[string]string{
	"SPG_NFT_CONTRACT":               ContractSPGNFT,
	"REGISTRATION_WORKFLOWS_ADDRESS": ContractRegistrationWorkflows,
	"DERIVATIVE_WORKFLOWS_ADDRESS":   ContractDerivativeWorkflows,
	"LICENSING_MODULE_ADDRESS":       ContractLicensingModule,
	"ROYALTY_MODULE_ADDRESS":         ContractRoyaltyModule,
	"ROYALTY_WORKFLOWS_ADDRESS":      ContractRoyaltyWorkflows,
	"DISPUTE_MODULE_ADDRESS":         ContractDisputeModule,
}

// Network describes one protocol deployment.
type Network struct {
	Name            string            `yaml:"-" json:"name"`
	DisplayName     string            `yaml:"displayName" json:"displayName"`
	ChainID         int64             `yaml:"chainId" json:"chainId"`
	RPCURL          string            `yaml:"rpcUrl" json:"-"`
	FallbackRPCURLs []string          `yaml:"fallbackRpcUrls" json:"-"`
	ExplorerURL     string            `yaml:"explorerUrl" json:"explorerUrl"`
	FaucetURL       string            `yaml:"faucetUrl" json:"faucetUrl,omitempty"`
	NativeSymbol    string            `yaml:"nativeSymbol" json:"nativeSymbol"`
	Contracts       map[string]string `yaml:"contracts" json:"contracts"`
}

var (
	networksOnce sync.Once
	networks     map[string]Network
)

func defaultNetworks() map[string]Network {
	networksOnce.Do(func() {
		parsed := map[string]Network{}
		if err := yaml.Unmarshal(networksYAML, &parsed); err != nil {
			panic(fmt.Sprintf("config: malformed embedded networks.yaml: %v", err))
		}
		for name, n := range parsed {
			n.Name = name
			parsed[name] = n
		}
		networks = parsed
	})
	return networks
}

// ResolveNetwork returns a copy of the named network with the given
// contract overrides (contract key -> address) applied.
func ResolveNetwork(name string, overrides map[string]string) (*Network, error) {
	base, ok := defaultNetworks()[name]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", name)
	}

	n := base
	n.FallbackRPCURLs = append([]string(nil), base.FallbackRPCURLs...)
	n.Contracts = make(map[string]string, len(base.Contracts)+len(overrides))
	for k, v := range base.Contracts {
		n.Contracts[k] = v
	}
	for k, v := range overrides {
		n.Contracts[k] = v
	}

	for k, v := range n.Contracts {
		if !common.IsHexAddress(v) {
			return nil, fmt.Errorf("network %s: contract %s has invalid address %q", name, k, v)
		}
	}

	return &n, nil
}

// Contract returns the configured address for key. The second return is
// false when the network has no deployment for it.
func (n *Network) Contract(key string) (common.Address, bool) {
	if n == nil {
		return common.Address{}, false
	}
	v, ok := n.Contracts[key]
	if !ok || v == "" {
		return common.Address{}, false
	}
	addr := common.HexToAddress(v)
	if addr == (common.Address{}) {
		return common.Address{}, false
	}
	return addr, true
}

// AddressURL links an account page on the block explorer.
func (n *Network) AddressURL(addr string) string {
	if n == nil || n.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s", n.ExplorerURL, addr)
}

func contractOverridesFromEnv() map[string]string {
	overrides := map[string]string{}
	for env, key := range contractEnvKeys {
		if v := os.Getenv(env); v != "" {
			overrides[key] = v
		}
	}
	return overrides
}
