package services

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/contracts"
	"github.com/javajoker/story-txprep/internal/models"
)

func stagedAsset() *Staged {
	return &Staged{Metadata: models.ResultMetadata{
		IPMetadataURI:  "https://ipfs.io/ipfs/ip",
		IPHash:         strings.Repeat("1", 64),
		NFTMetadataURI: "https://ipfs.io/ipfs/nft",
		NFTHash:        strings.Repeat("2", 64),
	}}
}

func TestAssembleDerivativeChecksArity(t *testing.T) {
	net := testnet(t)
	req := &models.DerivativeRequest{
		UserAddress:     userAddr,
		ParentIPIDs:     []string{ipAddr, creatorAddr},
		LicenseTermsIDs: []models.NumericString{"1"},
	}

	_, err := AssembleDerivative(net, req, stagedAsset())
	requireAppError(t, err, CodeParameter)

	req.ParentIPIDs = []string{ipAddr}
	req.LicenseTermsIDs = []models.NumericString{"1", "2"}
	_, err = AssembleDerivative(net, req, stagedAsset())
	requireAppError(t, err, CodeParameter)

	req.LicenseTermsIDs = []models.NumericString{"5"}
	call, err := AssembleDerivative(net, req, stagedAsset())
	require.NoError(t, err)
	assert.Equal(t, contractOf(t, net, config.ContractDerivativeWorkflows), call.To)

	deriv := call.Args[1].(contracts.MakeDerivative)
	assert.Equal(t, contractOf(t, net, config.ContractPILicenseTemplate), deriv.LicenseTemplate)
	assert.Equal(t, uint32(100_000_000), deriv.MaxRts)
	assert.Equal(t, uint32(100_000_000), deriv.MaxRevenueShare)
	assert.Equal(t, "5", deriv.LicenseTermsIDs[0].String())
	assert.Equal(t, common.HexToAddress(userAddr), call.Args[3])

	_, err = call.ABI.Pack(call.Method, call.Args...)
	assert.NoError(t, err)
}

func TestAssembleDisputeBounds(t *testing.T) {
	net := testnet(t)
	st := &Staged{Metadata: models.ResultMetadata{EvidenceHash: strings.Repeat("c", 64)}}
	req := func(liveness int64, bond string) *models.DisputeRequest {
		return &models.DisputeRequest{
			UserAddress: userAddr,
			TargetIPID:  ipAddr,
			TargetTag:   models.DisputeTagPlagiarism,
			Bond:        models.NumericString(bond),
			Liveness:    liveness,
		}
	}

	for _, liveness := range []int64{3599, 2592001} {
		_, err := AssembleDispute(net, req(liveness, "1"), st)
		requireAppError(t, err, CodeParameter)
	}
	_, err := AssembleDispute(net, req(3600, "0"), st)
	requireAppError(t, err, CodeParameter)

	for _, liveness := range []int64{3600, 2592000} {
		call, err := AssembleDispute(net, req(liveness, "1"), st)
		require.NoError(t, err)
		tag := call.Args[2].([32]byte)
		assert.Equal(t, "PLAGIARISM", strings.TrimRight(string(tag[:]), "\x00"))
		hash := call.Args[1].([32]byte)
		assert.Equal(t, byte(0xcc), hash[0])
	}
}

func TestAssembleRoyaltyPay(t *testing.T) {
	net := testnet(t)
	req := &models.RoyaltyRequest{
		UserAddress: userAddr,
		Operation:   models.RoyaltyPay,
		IPID:        ipAddr,
		Amount:      "2500",
	}

	_, err := AssembleRoyalty(net, req, &Staged{})
	appErr := requireAppError(t, err, CodeParameter)
	assert.False(t, appErr.Retryable)

	req.Token = tokenAddr
	call, err := AssembleRoyalty(net, req, &Staged{})
	require.NoError(t, err)
	assert.Equal(t, contractOf(t, net, config.ContractRoyaltyModule), call.To)
	assert.Equal(t, "2500", call.Value.String())
	assert.Equal(t, common.Address{}, call.Args[1])
}

func TestAssembleRoyaltyClaimDefaultsPolicies(t *testing.T) {
	net := testnet(t)
	lap := contractOf(t, net, config.ContractRoyaltyPolicyLAP)
	req := &models.RoyaltyRequest{
		UserAddress:    userAddr,
		Operation:      models.RoyaltyClaim,
		IPID:           ipAddr,
		ChildIPIDs:     []string{creatorAddr, vaultAddr},
		CurrencyTokens: []string{tokenAddr},
	}

	call, err := AssembleRoyalty(net, req, &Staged{})
	require.NoError(t, err)
	assert.Equal(t, []common.Address{lap, lap}, call.Args[3])
	// claimer defaults to the ancestor IP
	assert.Equal(t, common.HexToAddress(ipAddr), call.Args[1])

	req.RoyaltyPolicies = []string{tokenAddr}
	_, err = AssembleRoyalty(net, req, &Staged{})
	requireAppError(t, err, CodeParameter)
}

func TestAssembleRoyaltyTransferPrefersRequestVault(t *testing.T) {
	req := &models.RoyaltyRequest{
		UserAddress:  userAddr,
		Operation:    models.RoyaltyTransfer,
		IPID:         ipAddr,
		Amount:       "10",
		Recipient:    creatorAddr,
		VaultAddress: vaultAddr,
	}
	call, err := AssembleRoyalty(testnet(t), req, &Staged{Vault: common.HexToAddress(tokenAddr)})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(vaultAddr), call.To)
	assert.Equal(t, contracts.MethodTransfer, call.Method)
}

func TestAssembleCollectionDefaults(t *testing.T) {
	net := testnet(t)
	yes := true
	req := &models.CollectionRequest{
		UserAddress:     userAddr,
		Name:            "Harbor",
		Symbol:          "HARBOR",
		IsPublicMinting: &yes,
		MintOpen:        &yes,
	}
	st := &Staged{Metadata: models.ResultMetadata{ContractURI: "https://ipfs.io/ipfs/contract"}}

	call, err := AssembleCollection(net, req, st)
	require.NoError(t, err)
	params := call.Args[0].(contracts.SPGNFTInitParams)
	assert.Equal(t, uint32(defaultCollectionSupply), params.MaxSupply)
	assert.Equal(t, contractOf(t, net, config.ContractWIPToken), params.MintFeeToken)
	assert.Equal(t, common.HexToAddress(userAddr), params.Owner)
	assert.Equal(t, common.HexToAddress(userAddr), params.MintFeeRecipient)
	assert.Equal(t, "https://ipfs.io/ipfs/contract", params.ContractURI)

	noWIP := *net
	noWIP.Contracts = map[string]string{
		config.ContractRegistrationWorkflows: net.Contracts[config.ContractRegistrationWorkflows],
	}
	req.MintFee = "1000"
	_, err = AssembleCollection(&noWIP, req, st)
	requireAppError(t, err, CodeParameter)
}

func TestAssembleLicenseRejectsOutOfRangeAmount(t *testing.T) {
	net := testnet(t)
	req := &models.LicenseRequest{
		UserAddress:    userAddr,
		LicensorIPID:   ipAddr,
		LicenseTermsID: "3",
		MintingFee:     "250",
	}
	for _, amount := range []int64{0, 10001} {
		req.Amount = amount
		_, err := AssembleLicense(net, req, nil)
		requireAppError(t, err, CodeParameter)
	}

	req.Amount = 4
	call, err := AssembleLicense(net, req, nil)
	require.NoError(t, err)
	assert.Equal(t, "1000", call.Value.String())
	assert.Equal(t, "250", call.Additional["perLicenseFee"])
}
