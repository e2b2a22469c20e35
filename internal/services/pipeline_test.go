package services

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/contracts"
	"github.com/javajoker/story-txprep/internal/models"
	"github.com/javajoker/story-txprep/internal/utils"
)

var registerBody = fmt.Sprintf(`{
	"userAddress": %q,
	"ipMetadata": {
		"title": "Sunset Over Harbor",
		"description": "Original photograph",
		"creators": [{"name": "Alice", "address": %q, "contributionPercent": 100}]
	},
	"nftMetadata": {"name": "Sunset #1", "description": "Original photograph"}
}`, userAddr, creatorAddr)

func TestRegisterPreparesMintAndAttach(t *testing.T) {
	h := newHarness(t)

	resp, err := h.run(t, models.OperationRegister, registerBody)
	require.NoError(t, err)
	require.True(t, resp.Success)

	tx := resp.Transaction
	spg := contractOf(t, h.net, config.ContractSPGNFT)
	assert.Equal(t, spg.Hex(), tx.To)
	assert.Equal(t, "0", tx.Value)
	assert.Equal(t, "120000", tx.GasEstimate)
	assert.Equal(t, "1315", tx.ChainID)
	assert.Equal(t, common.HexToAddress(userAddr).Hex(), tx.From)

	selector := hexutil.Encode(contracts.LicenseAttachment.Methods[contracts.MethodMintRegisterAttach].ID)
	assert.True(t, strings.HasPrefix(tx.Data, selector), tx.Data[:10])

	meta := resp.Metadata
	assert.Regexp(t, `^[0-9a-f]{64}$`, meta.IPHash)
	assert.Regexp(t, `^[0-9a-f]{64}$`, meta.NFTHash)
	assert.True(t, strings.HasPrefix(meta.IPMetadataURI, "https://ipfs.io/ipfs/bafkrei"))
	assert.True(t, strings.HasPrefix(meta.NFTMetadataURI, "https://ipfs.io/ipfs/bafkrei"))

	ipHash, err := utils.HashMetadata(meta.IPMetadata)
	require.NoError(t, err)
	assert.Equal(t, meta.IPHash, ipHash)

	assert.Equal(t, "register", resp.AdditionalData["operation"])
	assert.Equal(t, "testnet", resp.AdditionalData["network"])
	assert.Equal(t, config.StoreModeMock, resp.AdditionalData["contentStore"])
	assert.Equal(t, GasSourceNetwork, resp.AdditionalData["gasEstimateSource"])
	assert.Equal(t, spg.Hex(), resp.AdditionalData["spgNftContract"])

	// the estimate simulated the encoded call from the signer
	assert.Equal(t, common.HexToAddress(userAddr), h.chain.lastMsg.From)
	assert.Equal(t, spg, *h.chain.lastMsg.To)
}

func TestRegisterIsDeterministic(t *testing.T) {
	h := newHarness(t)

	first, err := h.run(t, models.OperationRegister, registerBody)
	require.NoError(t, err)
	second, err := h.run(t, models.OperationRegister, registerBody)
	require.NoError(t, err)

	assert.Equal(t, first.Metadata.IPHash, second.Metadata.IPHash)
	assert.Equal(t, first.Metadata.NFTHash, second.Metadata.NFTHash)
	assert.Equal(t, first.Transaction.Data, second.Transaction.Data)
}

func TestRegisterOnNetworkWithoutCollectionNeedsOverride(t *testing.T) {
	net := mainnet(t)
	st := &Staged{Metadata: models.ResultMetadata{IPHash: strings.Repeat("a", 64), NFTHash: strings.Repeat("b", 64)}}
	req := &models.RegisterRequest{UserAddress: userAddr}

	_, err := AssembleRegister(net, req, st)
	appErr := requireAppError(t, err, CodeParameter)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.False(t, appErr.Retryable)
	assert.Equal(t, config.ContractSPGNFT, appErr.Details["contract"])

	req.SPGNFTContract = vaultAddr
	call, err := AssembleRegister(net, req, st)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(vaultAddr), call.To)
}

func TestGasEstimateFallsBackToOperationDefault(t *testing.T) {
	h := newHarness(t)
	h.chain.gasErr = fmt.Errorf("execution reverted")

	resp, err := h.run(t, models.OperationRegister, registerBody)
	require.NoError(t, err)
	assert.Equal(t, "500000", resp.Transaction.GasEstimate)
	assert.Equal(t, GasSourceDefault, resp.AdditionalData["gasEstimateSource"])
}

func TestInsufficientFundsIsReportedWithShortfall(t *testing.T) {
	h := newHarness(t)
	h.chain.balance = utils.Ether(0)

	_, err := h.run(t, models.OperationRegister, registerBody)
	appErr := requireAppError(t, err, CodeInsufficientFunds)
	assert.False(t, appErr.Retryable)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)

	// 120000 gas at 1 gwei
	assert.Equal(t, "120000000000000", appErr.Details["required"])
	assert.Equal(t, "120000000000000", appErr.Details["shortfall"])
	assert.Equal(t, h.net.FaucetURL, appErr.Details["faucetUrl"])
	assert.Contains(t, appErr.Details["explorerUrl"], "/address/")
}

func TestFundsCheckSkippedWhenGasPriceUnavailable(t *testing.T) {
	h := newHarness(t)
	h.chain.balance = utils.Ether(0)
	h.chain.priceErr = fmt.Errorf("rpc timeout")

	resp, err := h.run(t, models.OperationRegister, registerBody)
	require.NoError(t, err)
	assert.NotContains(t, resp.AdditionalData, "estimatedFee")
}

func TestStoreFailureFailsClosed(t *testing.T) {
	h := newHarness(t)
	h.store.failErr = errPinataDown

	_, err := h.run(t, models.OperationRegister, registerBody)
	appErr := requireAppError(t, err, CodeExternalService)
	assert.True(t, appErr.Retryable)
	assert.Equal(t, http.StatusBadGateway, appErr.Status)
	assert.Equal(t, contentStoreService, appErr.Details["service"])

	// nothing was encoded or estimated
	assert.Zero(t, h.chain.estimates)
}

func TestValidationFailsBeforeAnyIO(t *testing.T) {
	h := newHarness(t)

	body := fmt.Sprintf(`{"userAddress":%q,"operation":"pay","ipId":%q,"amount":"1000"}`, userAddr, ipAddr)
	_, err := h.run(t, models.OperationRoyalty, body)
	appErr := requireAppError(t, err, CodeValidation)
	assert.False(t, appErr.Retryable)
	assert.Contains(t, appErr.Message, "token is required for pay operations")

	assert.Zero(t, h.store.pinCount())
	assert.Zero(t, h.chain.estimates)
}

func TestMalformedBodyIsAValidationError(t *testing.T) {
	h := newHarness(t)

	for _, body := range []string{``, `{`, `{"userAddress": 42}`} {
		_, err := h.run(t, models.OperationRegister, body)
		requireAppError(t, err, CodeValidation)
	}
}

func TestCollectionSymbolThroughPipeline(t *testing.T) {
	h := newHarness(t)
	body := func(symbol string) string {
		return fmt.Sprintf(`{"userAddress":%q,"name":"Harbor","symbol":%q,"isPublicMinting":false,"mintOpen":true}`, userAddr, symbol)
	}

	_, err := h.run(t, models.OperationCollection, body("my-coin"))
	appErr := requireAppError(t, err, CodeValidation)
	assert.Contains(t, appErr.Message, "uppercase letters A-Z and digits 0-9")

	resp, err := h.run(t, models.OperationCollection, body("MYCOIN1"))
	require.NoError(t, err)
	assert.Equal(t, contractOf(t, h.net, config.ContractRegistrationWorkflows).Hex(), resp.Transaction.To)
	assert.NotEmpty(t, resp.Metadata.ContractURI)
	assert.EqualValues(t, defaultCollectionSupply, resp.AdditionalData["maxSupply"])
}

func TestDisputeThroughPipeline(t *testing.T) {
	h := newHarness(t)
	body := func(liveness int, bond string) string {
		return fmt.Sprintf(`{"userAddress":%q,"targetIpId":%q,"evidence":"The image is a copy of my 2019 work","targetTag":"PLAGIARISM","bond":%q,"liveness":%d}`,
			userAddr, ipAddr, bond, liveness)
	}

	for _, liveness := range []int{3599, 2592001} {
		_, err := h.run(t, models.OperationDispute, body(liveness, "1"))
		requireAppError(t, err, CodeValidation)
	}
	_, err := h.run(t, models.OperationDispute, body(3600, "0"))
	requireAppError(t, err, CodeValidation)

	for _, liveness := range []int{3600, 2592000} {
		resp, err := h.run(t, models.OperationDispute, body(liveness, "1"))
		require.NoError(t, err)
		assert.Equal(t, contractOf(t, h.net, config.ContractDisputeModule).Hex(), resp.Transaction.To)
		assert.Regexp(t, `^[0-9a-f]{64}$`, resp.Metadata.EvidenceHash)
		assert.NotEmpty(t, resp.Metadata.EvidenceURI)
	}
}

func TestLicenseValueIsFeeTimesAmount(t *testing.T) {
	h := newHarness(t)
	body := fmt.Sprintf(`{"userAddress":%q,"licensorIpId":%q,"licenseTermsId":"7","amount":3}`, userAddr, ipAddr)

	resp, err := h.run(t, models.OperationLicense, body)
	require.NoError(t, err)
	assert.Equal(t, "3000000000000000000", resp.Transaction.Value)
	assert.Equal(t, contractOf(t, h.net, config.ContractLicensingModule).Hex(), resp.Transaction.To)
	assert.Equal(t, "3 IP", resp.AdditionalData["totalFeeFormatted"])

	for _, amount := range []int{0, 10001} {
		body := fmt.Sprintf(`{"userAddress":%q,"licensorIpId":%q,"licenseTermsId":"7","amount":%d}`, userAddr, ipAddr, amount)
		_, err := h.run(t, models.OperationLicense, body)
		requireAppError(t, err, CodeValidation)
	}
}

func TestRoyaltyTransferUsesLookedUpVault(t *testing.T) {
	h := newHarness(t)
	body := fmt.Sprintf(`{"userAddress":%q,"operation":"transfer","ipId":%q,"amount":"500","recipient":%q}`, userAddr, ipAddr, creatorAddr)

	h.chain.vault = common.HexToAddress(vaultAddr)
	resp, err := h.run(t, models.OperationRoyalty, body)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(vaultAddr).Hex(), resp.Transaction.To)
	assert.Equal(t, "royaltyVault", resp.AdditionalData["contract"])

	h.chain.vault = common.Address{}
	_, err = h.run(t, models.OperationRoyalty, body)
	appErr := requireAppError(t, err, CodeParameter)
	assert.Contains(t, appErr.Message, "no royalty vault")

	h.chain.vaultErr = fmt.Errorf("dial tcp: connection refused")
	_, err = h.run(t, models.OperationRoyalty, body)
	appErr = requireAppError(t, err, CodeExternalService)
	assert.True(t, appErr.Retryable)
	assert.Equal(t, chainRPCService, appErr.Details["service"])
}

func TestCLIMintDerivesMetadataFromFile(t *testing.T) {
	h := newHarness(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	body := fmt.Sprintf(`{"userAddress":%q,"filePath":"./art/sunset_harbor.png","fileData":%q,"filename":"sunset_harbor.png","contentType":"image/png"}`,
		userAddr, base64.StdEncoding.EncodeToString(png))

	resp, err := h.run(t, models.OperationCLIMint, body)
	require.NoError(t, err)

	require.Len(t, resp.UploadedFiles, 1)
	ref := resp.UploadedFiles[0]
	assert.Equal(t, string(models.FilePurposeImage), ref.Purpose)
	assert.Equal(t, utils.HashContent(png), ref.ContentHash)

	ip := resp.Metadata.IPMetadata
	require.NotNil(t, ip)
	assert.Equal(t, "Sunset Harbor", ip.Title)
	assert.Equal(t, "Image file: sunset_harbor.png", ip.Description)
	assert.Equal(t, ref.URL, ip.Image)
	assert.Equal(t, "0x"+ref.ContentHash, ip.ImageHash)
	require.Len(t, ip.Creators, 1)
	assert.Equal(t, userAddr, ip.Creators[0].Address)
	assert.Equal(t, "2025-03-01T12:00:00Z", ip.CreatedAt)

	assert.Equal(t, "./art/sunset_harbor.png", resp.AdditionalData["filePath"])
}

func TestCLIMintRejectsMismatchedContent(t *testing.T) {
	h := newHarness(t)
	body := fmt.Sprintf(`{"userAddress":%q,"filePath":"notes.png","fileData":%q,"filename":"notes.png","contentType":"image/png"}`,
		userAddr, base64.StdEncoding.EncodeToString([]byte("just some text")))

	_, err := h.run(t, models.OperationCLIMint, body)
	appErr := requireAppError(t, err, CodeValidation)
	assert.Contains(t, appErr.Message, "plain text")
	assert.Zero(t, h.store.pinCount())
}

func TestEveryOperationIsRegistered(t *testing.T) {
	kinds := []models.OperationKind{
		models.OperationRegister, models.OperationDerivative, models.OperationLicense,
		models.OperationRoyalty, models.OperationCollection, models.OperationDispute,
		models.OperationCLIMint,
	}
	require.Len(t, Operations(), len(kinds))
	for _, kind := range kinds {
		op, ok := LookupOperation(kind)
		require.True(t, ok, kind)
		assert.Equal(t, "/api/v1/prepare/"+string(kind), op.Doc.Path)
		assert.Equal(t, "POST", op.Doc.Method)
		assert.NotZero(t, op.DefaultGas)
		assert.NotEmpty(t, op.Doc.Example)
	}
	_, ok := LookupOperation("bridge")
	assert.False(t, ok)
}
