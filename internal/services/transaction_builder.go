// internal/services/transaction_builder.go
package services

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/models"
	"github.com/javajoker/story-txprep/internal/utils"
)

const (
	GasSourceNetwork = "network"
	GasSourceDefault = "default"
)

// TransactionBuilder encodes assembled calls and attaches an advisory gas
// estimate. It never signs.
type TransactionBuilder struct {
	chain         ChainClient
	network       *config.Network
	bufferPercent int
}

func NewTransactionBuilder(chain ChainClient, network *config.Network, bufferPercent int) *TransactionBuilder {
	return &TransactionBuilder{
		chain:         chain,
		network:       network,
		bufferPercent: bufferPercent,
	}
}

// Built is a prepared transaction plus what the builder learned on the way.
type Built struct {
	Transaction *models.PreparedTransaction
	Additional  map[string]any
}

// Build encodes call, estimates gas as from and checks from can afford it.
func (b *TransactionBuilder) Build(ctx context.Context, call *ProtocolCall, from common.Address, defaultGas uint64) (*Built, error) {
	data, err := call.ABI.Pack(call.Method, call.Args...)
	if err != nil {
		return nil, NewInternalError(errors.Wrapf(err, "encode %s", call.Method))
	}
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}

	log := utils.Logger(ctx).WithFields(logrus.Fields{"method": call.Method, "to": call.To.Hex()})
	additional := map[string]any{}

	gas, source := b.estimateGas(ctx, log, from, call.To, value, data, defaultGas)
	additional["gasEstimateSource"] = source

	if err := b.checkFunds(ctx, log, from, value, gas, additional); err != nil {
		return nil, err
	}

	return &Built{
		Transaction: &models.PreparedTransaction{
			To:          call.To.Hex(),
			Data:        hexutil.Encode(data),
			Value:       value.String(),
			GasEstimate: strconv.FormatUint(gas, 10),
			ChainID:     b.chainID(ctx),
			From:        from.Hex(),
		},
		Additional: additional,
	}, nil
}

func (b *TransactionBuilder) estimateGas(ctx context.Context, log *logrus.Entry, from, to common.Address, value *big.Int, data []byte, defaultGas uint64) (uint64, string) {
	raw, err := b.chain.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil || raw == 0 {
		log.WithError(err).Debug("Gas estimation failed, using operation default")
		return defaultGas, GasSourceDefault
	}
	return raw + raw*uint64(b.bufferPercent)/100, GasSourceNetwork
}

// checkFunds compares balance against value plus the gas budget. Read
// failures skip the check; the wallet simulates again at signing time.
func (b *TransactionBuilder) checkFunds(ctx context.Context, log *logrus.Entry, from common.Address, value *big.Int, gas uint64, additional map[string]any) error {
	gasPrice, err := b.chain.GasPrice(ctx)
	if err != nil {
		log.WithError(err).Warn("Gas price unavailable, skipping funds check")
		return nil
	}
	balance, err := b.chain.Balance(ctx, from)
	if err != nil {
		log.WithError(err).Warn("Balance unavailable, skipping funds check")
		return nil
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPrice)
	required := new(big.Int).Add(value, fee)
	symbol := b.network.NativeSymbol

	additional["gasPrice"] = gasPrice.String()
	additional["estimatedFee"] = utils.FormatWei(fee, symbol)

	if balance.Cmp(required) >= 0 {
		return nil
	}

	shortfall := new(big.Int).Sub(required, balance)
	details := map[string]any{
		"address":            from.Hex(),
		"balance":            balance.String(),
		"required":           required.String(),
		"shortfall":          shortfall.String(),
		"balanceFormatted":   utils.FormatWei(balance, symbol),
		"requiredFormatted":  utils.FormatWei(required, symbol),
		"shortfallFormatted": utils.FormatWei(shortfall, symbol),
		"explorerUrl":        b.network.AddressURL(from.Hex()),
	}
	remediation := "fund the address with at least " + utils.FormatWei(shortfall, symbol) + " and retry"
	if b.network.FaucetURL != "" {
		details["faucetUrl"] = b.network.FaucetURL
		remediation += "; testnet funds are available from the faucet"
	}
	details["remediation"] = remediation
	return NewInsufficientFundsError("insufficient balance for value plus gas", details)
}

func (b *TransactionBuilder) chainID(ctx context.Context) string {
	if id, err := b.chain.ChainID(ctx); err == nil {
		return id.String()
	}
	return strconv.FormatInt(b.network.ChainID, 10)
}
