// internal/services/blockchain_service.go
package services

import (
	"context"
	"math/big"
	"net/url"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/contracts"
)

const chainRPCService = "chain-rpc"

// ChainClient is the read-only chain surface the pipeline needs.
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	Balance(ctx context.Context, account common.Address) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
	RoyaltyVault(ctx context.Context, royaltyModule, ipID common.Address) (common.Address, error)
}

const (
	cacheKeyChainID  = "chain_id"
	cacheKeyGasPrice = "gas_price"
	gasPriceTTL      = 15 * time.Second
)

// BlockchainService queries the chain over JSON-RPC, failing over across the
// configured endpoints and remembering the last one that answered.
type BlockchainService struct {
	urls    []string
	timeout time.Duration
	cache   *cache.Cache

	mu      sync.Mutex
	clients map[string]*ethclient.Client
	healthy int
}

func NewBlockchainService(cfg *config.Config) (*BlockchainService, error) {
	urls := cfg.RPCURLs()
	if len(urls) == 0 {
		return nil, errors.New("no chain RPC endpoints configured")
	}
	return &BlockchainService{
		urls:    urls,
		timeout: time.Duration(cfg.RPC.TimeoutSeconds) * time.Second,
		cache:   cache.New(gasPriceTTL, time.Minute),
		clients: make(map[string]*ethclient.Client),
	}, nil
}

func (s *BlockchainService) client(ctx context.Context, endpoint string) (*ethclient.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[endpoint]; ok {
		return c, nil
	}
	c, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	s.clients[endpoint] = c
	return c, nil
}

func (s *BlockchainService) startIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.healthy
}

func (s *BlockchainService) markHealthy(i int) {
	s.mu.Lock()
	s.healthy = i
	s.mu.Unlock()
}

// isNodeError reports whether the node answered with a JSON-RPC error, as
// opposed to the endpoint being unreachable.
func isNodeError(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr)
}

func (s *BlockchainService) call(ctx context.Context, op string, fn func(ctx context.Context, c *ethclient.Client) error) error {
	start := s.startIndex()
	var lastErr error

	for n := 0; n < len(s.urls); n++ {
		if ctx.Err() != nil {
			break
		}
		i := (start + n) % len(s.urls)
		endpoint := s.urls[i]

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		c, err := s.client(callCtx, endpoint)
		if err == nil {
			err = fn(callCtx, c)
		}
		cancel()

		if err == nil {
			if i != start {
				logrus.WithFields(logrus.Fields{"endpoint": endpointHost(endpoint), "op": op}).Info("Chain RPC failed over")
				s.markHealthy(i)
			}
			return nil
		}
		if isNodeError(err) {
			return errors.Wrapf(err, "%s", op)
		}

		lastErr = err
		logrus.WithFields(logrus.Fields{
			"endpoint": endpointHost(endpoint),
			"op":       op,
			"error":    err.Error(),
		}).Warn("Chain RPC endpoint failed")
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return NewExternalServiceError(chainRPCService, "chain RPC is unreachable", errors.Wrapf(lastErr, "%s", op))
}

func (s *BlockchainService) ChainID(ctx context.Context) (*big.Int, error) {
	if v, ok := s.cache.Get(cacheKeyChainID); ok {
		return new(big.Int).Set(v.(*big.Int)), nil
	}
	var id *big.Int
	err := s.call(ctx, "chain_id", func(ctx context.Context, c *ethclient.Client) (err error) {
		id, err = c.ChainID(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.Set(cacheKeyChainID, id, cache.NoExpiration)
	return new(big.Int).Set(id), nil
}

func (s *BlockchainService) GasPrice(ctx context.Context) (*big.Int, error) {
	if v, ok := s.cache.Get(cacheKeyGasPrice); ok {
		return new(big.Int).Set(v.(*big.Int)), nil
	}
	var price *big.Int
	err := s.call(ctx, "gas_price", func(ctx context.Context, c *ethclient.Client) (err error) {
		price, err = c.SuggestGasPrice(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.Set(cacheKeyGasPrice, price, gasPriceTTL)
	return new(big.Int).Set(price), nil
}

func (s *BlockchainService) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := s.call(ctx, "balance", func(ctx context.Context, c *ethclient.Client) (err error) {
		balance, err = c.BalanceAt(ctx, account, nil)
		return err
	})
	return balance, err
}

func (s *BlockchainService) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := s.call(ctx, "estimate_gas", func(ctx context.Context, c *ethclient.Client) (err error) {
		gas, err = c.EstimateGas(ctx, msg)
		return err
	})
	return gas, err
}

func (s *BlockchainService) BlockNumber(ctx context.Context) (uint64, error) {
	var n uint64
	err := s.call(ctx, "block_number", func(ctx context.Context, c *ethclient.Client) (err error) {
		n, err = c.BlockNumber(ctx)
		return err
	})
	return n, err
}

// RoyaltyVault reads the royalty vault (royalty token) address of an IP.
func (s *BlockchainService) RoyaltyVault(ctx context.Context, royaltyModule, ipID common.Address) (common.Address, error) {
	data, err := contracts.RoyaltyModule.Pack(contracts.MethodRoyaltyVault, ipID)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "pack ipRoyaltyVaults")
	}

	var out []byte
	err = s.call(ctx, "royalty_vault", func(ctx context.Context, c *ethclient.Client) (err error) {
		out, err = c.CallContract(ctx, ethereum.CallMsg{To: &royaltyModule, Data: data}, nil)
		return err
	})
	if err != nil {
		return common.Address{}, err
	}

	values, err := contracts.RoyaltyModule.Unpack(contracts.MethodRoyaltyVault, out)
	if err != nil || len(values) != 1 {
		return common.Address{}, NewExternalServiceError(chainRPCService, "royalty vault lookup returned malformed data",
			errors.Wrap(err, "unpack ipRoyaltyVaults"))
	}
	vault, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, NewExternalServiceError(chainRPCService, "royalty vault lookup returned malformed data", nil)
	}
	return vault, nil
}

// EndpointStatus is one row of a health probe.
type EndpointStatus struct {
	Endpoint    string `json:"endpoint"`
	Healthy     bool   `json:"healthy"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	LatencyMs   int64  `json:"latencyMs"`
	Error       string `json:"error,omitempty"`
}

// Probe asks every endpoint for its head block.
func (s *BlockchainService) Probe(ctx context.Context) []EndpointStatus {
	statuses := make([]EndpointStatus, len(s.urls))
	var wg sync.WaitGroup
	for i, endpoint := range s.urls {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started := time.Now()
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			st := EndpointStatus{Endpoint: endpointHost(endpoint)}
			c, err := s.client(callCtx, endpoint)
			if err == nil {
				st.BlockNumber, err = c.BlockNumber(callCtx)
			}
			st.LatencyMs = time.Since(started).Milliseconds()
			if err != nil {
				st.Error = err.Error()
			} else {
				st.Healthy = true
			}
			statuses[i] = st
		}()
	}
	wg.Wait()
	return statuses
}

func (s *BlockchainService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range s.clients {
		c.Close()
		delete(s.clients, k)
	}
}

// endpointHost hides paths and query strings, which often carry API keys.
func endpointHost(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "invalid-endpoint"
	}
	return u.Scheme + "://" + u.Host
}
