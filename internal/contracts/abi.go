// Package contracts holds the protocol ABI fragments the transaction
// builder encodes against. Only the functions this service prepares calls
// for are included.
package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const ipMetadataTuple = `{"name":"ipMetadata","type":"tuple","components":[
	{"name":"ipMetadataURI","type":"string"},
	{"name":"ipMetadataHash","type":"bytes32"},
	{"name":"nftMetadataURI","type":"string"},
	{"name":"nftMetadataHash","type":"bytes32"}]}`

const pilTermsComponents = `[
	{"name":"transferable","type":"bool"},
	{"name":"royaltyPolicy","type":"address"},
	{"name":"defaultMintingFee","type":"uint256"},
	{"name":"expiration","type":"uint256"},
	{"name":"commercialUse","type":"bool"},
	{"name":"commercialAttribution","type":"bool"},
	{"name":"commercializerChecker","type":"address"},
	{"name":"commercializerCheckerData","type":"bytes"},
	{"name":"commercialRevShare","type":"uint32"},
	{"name":"commercialRevCeiling","type":"uint256"},
	{"name":"derivativesAllowed","type":"bool"},
	{"name":"derivativesAttribution","type":"bool"},
	{"name":"derivativesApproval","type":"bool"},
	{"name":"derivativesReciprocal","type":"bool"},
	{"name":"derivativeRevCeiling","type":"uint256"},
	{"name":"currency","type":"address"},
	{"name":"uri","type":"string"}]`

const licensingConfigComponents = `[
	{"name":"isSet","type":"bool"},
	{"name":"mintingFee","type":"uint256"},
	{"name":"licensingHook","type":"address"},
	{"name":"hookData","type":"bytes"},
	{"name":"commercialRevShare","type":"uint32"},
	{"name":"disabled","type":"bool"},
	{"name":"expectMinimumGroupRewardShare","type":"uint32"},
	{"name":"expectGroupRewardPool","type":"address"}]`

// LicenseAttachmentABI exposes the mint-register-attach workflow used by
// register and cli-mint.
var LicenseAttachmentABI = `[{"type":"function","name":"mintAndRegisterIpAndAttachPILTerms","stateMutability":"nonpayable",
	"inputs":[
		{"name":"spgNftContract","type":"address"},
		{"name":"recipient","type":"address"},
		` + ipMetadataTuple + `,
		{"name":"licenseTermsData","type":"tuple[]","components":[
			{"name":"terms","type":"tuple","components":` + pilTermsComponents + `},
			{"name":"licensingConfig","type":"tuple","components":` + licensingConfigComponents + `}]},
		{"name":"allowDuplicates","type":"bool"}],
	"outputs":[{"name":"ipId","type":"address"},{"name":"tokenId","type":"uint256"},{"name":"licenseTermsIds","type":"uint256[]"}]}]`

var DerivativeWorkflowsABI = `[{"type":"function","name":"mintAndRegisterIpAndMakeDerivative","stateMutability":"nonpayable",
	"inputs":[
		{"name":"spgNftContract","type":"address"},
		{"name":"derivData","type":"tuple","components":[
			{"name":"parentIpIds","type":"address[]"},
			{"name":"licenseTemplate","type":"address"},
			{"name":"licenseTermsIds","type":"uint256[]"},
			{"name":"royaltyContext","type":"bytes"},
			{"name":"maxMintingFee","type":"uint256"},
			{"name":"maxRts","type":"uint32"},
			{"name":"maxRevenueShare","type":"uint32"}]},
		` + ipMetadataTuple + `,
		{"name":"recipient","type":"address"},
		{"name":"allowDuplicates","type":"bool"}],
	"outputs":[{"name":"ipId","type":"address"},{"name":"tokenId","type":"uint256"}]}]`

var LicensingModuleABI = `[{"type":"function","name":"mintLicenseTokens","stateMutability":"nonpayable",
	"inputs":[
		{"name":"licensorIpId","type":"address"},
		{"name":"licenseTemplate","type":"address"},
		{"name":"licenseTermsId","type":"uint256"},
		{"name":"amount","type":"uint256"},
		{"name":"receiver","type":"address"},
		{"name":"royaltyContext","type":"bytes"},
		{"name":"maxMintingFee","type":"uint256"},
		{"name":"maxRevenueShare","type":"uint32"}],
	"outputs":[{"name":"startLicenseTokenId","type":"uint256"}]}]`

var RoyaltyModuleABI = `[
	{"type":"function","name":"payRoyaltyOnBehalf","stateMutability":"nonpayable",
	"inputs":[
		{"name":"receiverIpId","type":"address"},
		{"name":"payerIpId","type":"address"},
		{"name":"token","type":"address"},
		{"name":"amount","type":"uint256"}],
	"outputs":[]},
	{"type":"function","name":"ipRoyaltyVaults","stateMutability":"view",
	"inputs":[{"name":"ipId","type":"address"}],
	"outputs":[{"name":"","type":"address"}]}]`

var RoyaltyWorkflowsABI = `[{"type":"function","name":"claimAllRevenue","stateMutability":"nonpayable",
	"inputs":[
		{"name":"ancestorIpId","type":"address"},
		{"name":"claimer","type":"address"},
		{"name":"childIpIds","type":"address[]"},
		{"name":"royaltyPolicies","type":"address[]"},
		{"name":"currencyTokens","type":"address[]"}],
	"outputs":[{"name":"amountsClaimed","type":"uint256[]"}]}]`

var ERC20ABI = `[{"type":"function","name":"transfer","stateMutability":"nonpayable",
	"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	"outputs":[{"name":"","type":"bool"}]}]`

var RegistrationWorkflowsABI = `[{"type":"function","name":"createCollection","stateMutability":"nonpayable",
	"inputs":[
		{"name":"spgNftInitParams","type":"tuple","components":[
			{"name":"name","type":"string"},
			{"name":"symbol","type":"string"},
			{"name":"baseURI","type":"string"},
			{"name":"contractURI","type":"string"},
			{"name":"maxSupply","type":"uint32"},
			{"name":"mintFee","type":"uint256"},
			{"name":"mintFeeToken","type":"address"},
			{"name":"mintFeeRecipient","type":"address"},
			{"name":"owner","type":"address"},
			{"name":"mintOpen","type":"bool"},
			{"name":"isPublicMinting","type":"bool"}]}],
	"outputs":[{"name":"spgNftContract","type":"address"}]}]`

var DisputeModuleABI = `[{"type":"function","name":"raiseDispute","stateMutability":"nonpayable",
	"inputs":[
		{"name":"targetIpId","type":"address"},
		{"name":"disputeEvidenceHash","type":"bytes32"},
		{"name":"targetTag","type":"bytes32"},
		{"name":"data","type":"bytes"}],
	"outputs":[{"name":"disputeId","type":"uint256"}]}]`

// Method names.
const (
	MethodMintRegisterAttach = "mintAndRegisterIpAndAttachPILTerms"
	MethodMintDerivative     = "mintAndRegisterIpAndMakeDerivative"
	MethodMintLicenseTokens  = "mintLicenseTokens"
	MethodPayRoyalty         = "payRoyaltyOnBehalf"
	MethodRoyaltyVault       = "ipRoyaltyVaults"
	MethodClaimAllRevenue    = "claimAllRevenue"
	MethodTransfer           = "transfer"
	MethodCreateCollection   = "createCollection"
	MethodRaiseDispute       = "raiseDispute"
)

// Parsed ABIs.
var (
	LicenseAttachment     = mustParse("LicenseAttachmentWorkflows", LicenseAttachmentABI)
	DerivativeWorkflows   = mustParse("DerivativeWorkflows", DerivativeWorkflowsABI)
	LicensingModule       = mustParse("LicensingModule", LicensingModuleABI)
	RoyaltyModule         = mustParse("RoyaltyModule", RoyaltyModuleABI)
	RoyaltyWorkflows      = mustParse("RoyaltyWorkflows", RoyaltyWorkflowsABI)
	ERC20                 = mustParse("ERC20", ERC20ABI)
	RegistrationWorkflows = mustParse("RegistrationWorkflows", RegistrationWorkflowsABI)
	DisputeModule         = mustParse("DisputeModule", DisputeModuleABI)
)

func mustParse(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("contracts: invalid %s ABI: %v", name, err))
	}
	return parsed
}
