package services

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/models"
	"github.com/javajoker/story-txprep/internal/utils"
)

const (
	userAddr    = "0x1111111111111111111111111111111111111111"
	ipAddr      = "0x2222222222222222222222222222222222222222"
	creatorAddr = "0x3333333333333333333333333333333333333333"
	tokenAddr   = "0x1514000000000000000000000000000000000000"
	vaultAddr   = "0x4444444444444444444444444444444444444444"
)

// fakeChain answers chain reads from fields and counts estimate calls.
type fakeChain struct {
	mu sync.Mutex

	gas       uint64
	gasErr    error
	gasPrice  *big.Int
	priceErr  error
	balance   *big.Int
	vault     common.Address
	vaultErr  error
	estimates int
	lastMsg   ethereum.CallMsg
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		gas:      100_000,
		gasPrice: big.NewInt(1_000_000_000),
		balance:  utils.Ether(100),
	}
}

func (f *fakeChain) ChainID(ctx context.Context) (*big.Int, error) { return big.NewInt(1315), nil }

func (f *fakeChain) GasPrice(ctx context.Context) (*big.Int, error) {
	return f.gasPrice, f.priceErr
}

func (f *fakeChain) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeChain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.estimates++
	f.lastMsg = msg
	return f.gas, f.gasErr
}

func (f *fakeChain) BlockNumber(ctx context.Context) (uint64, error) { return 1, nil }

func (f *fakeChain) RoyaltyVault(ctx context.Context, royaltyModule, ipID common.Address) (common.Address, error) {
	return f.vault, f.vaultErr
}

// scriptedStore wraps the mock store and can be told to fail.
type scriptedStore struct {
	*MockStore

	mu      sync.Mutex
	failErr error
	pins    int
}

func newScriptedStore() *scriptedStore {
	return &scriptedStore{MockStore: NewMockStore("")}
}

func (s *scriptedStore) PinJSON(ctx context.Context, v any, name string) (string, error) {
	s.mu.Lock()
	s.pins++
	err := s.failErr
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return s.MockStore.PinJSON(ctx, v, name)
}

func (s *scriptedStore) PinFile(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	s.mu.Lock()
	s.pins++
	err := s.failErr
	s.mu.Unlock()
	if err != nil {
		return "", err
	}
	return s.MockStore.PinFile(ctx, data, filename, contentType)
}

func (s *scriptedStore) pinCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pins
}

var errPinataDown = errors.New("pinata: 503 service unavailable")

func testnet(t *testing.T) *config.Network {
	t.Helper()
	net, err := config.ResolveNetwork("testnet", nil)
	require.NoError(t, err)
	return net
}

func mainnet(t *testing.T) *config.Network {
	t.Helper()
	net, err := config.ResolveNetwork("mainnet", nil)
	require.NoError(t, err)
	return net
}

func contractOf(t *testing.T, net *config.Network, key string) common.Address {
	t.Helper()
	addr, ok := net.Contract(key)
	require.True(t, ok, key)
	return addr
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	chain    *fakeChain
	store    *scriptedStore
	net      *config.Network
	pipeline *Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		chain: newFakeChain(),
		store: newScriptedStore(),
		net:   testnet(t),
	}
	deps := &StageDeps{
		Store:   h.store,
		Chain:   h.chain,
		Network: h.net,
		Now:     func() time.Time { return fixedNow },
	}
	h.pipeline = NewPipeline(NewSchemaValidator(), deps, NewTransactionBuilder(h.chain, h.net, 20))
	return h
}

func (h *harness) run(t *testing.T, kind models.OperationKind, body string) (*models.SuccessResponse, error) {
	t.Helper()
	op, ok := LookupOperation(kind)
	require.True(t, ok, kind)
	return h.pipeline.Execute(context.Background(), op, []byte(body))
}

// requireAppError asserts err is an *AppError with the given code.
func requireAppError(t *testing.T, err error, code string) *AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *AppError
	require.True(t, errors.As(err, &appErr), "not an AppError: %v", err)
	require.Equal(t, code, appErr.Code, appErr.Error())
	return appErr
}
