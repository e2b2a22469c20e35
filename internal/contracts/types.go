package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// PercentScale converts a 0..100 percentage into the protocol's integer
// representation (100% = 100_000_000).
const PercentScale = 1_000_000

type IPMetadata struct {
	IPMetadataURI   string   `abi:"ipMetadataURI"`
	IPMetadataHash  [32]byte `abi:"ipMetadataHash"`
	NFTMetadataURI  string   `abi:"nftMetadataURI"`
	NFTMetadataHash [32]byte `abi:"nftMetadataHash"`
}

type PILTerms struct {
	Transferable              bool           `abi:"transferable"`
	RoyaltyPolicy             common.Address `abi:"royaltyPolicy"`
	DefaultMintingFee         *big.Int       `abi:"defaultMintingFee"`
	Expiration                *big.Int       `abi:"expiration"`
	CommercialUse             bool           `abi:"commercialUse"`
	CommercialAttribution     bool           `abi:"commercialAttribution"`
	CommercializerChecker     common.Address `abi:"commercializerChecker"`
	CommercializerCheckerData []byte         `abi:"commercializerCheckerData"`
	CommercialRevShare        uint32         `abi:"commercialRevShare"`
	CommercialRevCeiling      *big.Int       `abi:"commercialRevCeiling"`
	DerivativesAllowed        bool           `abi:"derivativesAllowed"`
	DerivativesAttribution    bool           `abi:"derivativesAttribution"`
	DerivativesApproval       bool           `abi:"derivativesApproval"`
	DerivativesReciprocal     bool           `abi:"derivativesReciprocal"`
	DerivativeRevCeiling      *big.Int       `abi:"derivativeRevCeiling"`
	Currency                  common.Address `abi:"currency"`
	URI                       string         `abi:"uri"`
}

type LicensingConfig struct {
	IsSet                         bool           `abi:"isSet"`
	MintingFee                    *big.Int       `abi:"mintingFee"`
	LicensingHook                 common.Address `abi:"licensingHook"`
	HookData                      []byte         `abi:"hookData"`
	CommercialRevShare            uint32         `abi:"commercialRevShare"`
	Disabled                      bool           `abi:"disabled"`
	ExpectMinimumGroupRewardShare uint32         `abi:"expectMinimumGroupRewardShare"`
	ExpectGroupRewardPool         common.Address `abi:"expectGroupRewardPool"`
}

type LicenseTermsData struct {
	Terms           PILTerms        `abi:"terms"`
	LicensingConfig LicensingConfig `abi:"licensingConfig"`
}

type MakeDerivative struct {
	ParentIPIDs     []common.Address `abi:"parentIpIds"`
	LicenseTemplate common.Address   `abi:"licenseTemplate"`
	LicenseTermsIDs []*big.Int       `abi:"licenseTermsIds"`
	RoyaltyContext  []byte           `abi:"royaltyContext"`
	MaxMintingFee   *big.Int         `abi:"maxMintingFee"`
	MaxRts          uint32           `abi:"maxRts"`
	MaxRevenueShare uint32           `abi:"maxRevenueShare"`
}

type SPGNFTInitParams struct {
	Name             string         `abi:"name"`
	Symbol           string         `abi:"symbol"`
	BaseURI          string         `abi:"baseURI"`
	ContractURI      string         `abi:"contractURI"`
	MaxSupply        uint32         `abi:"maxSupply"`
	MintFee          *big.Int       `abi:"mintFee"`
	MintFeeToken     common.Address `abi:"mintFeeToken"`
	MintFeeRecipient common.Address `abi:"mintFeeRecipient"`
	Owner            common.Address `abi:"owner"`
	MintOpen         bool           `abi:"mintOpen"`
	IsPublicMinting  bool           `abi:"isPublicMinting"`
}

var disputeDataArgs abi.Arguments

func init() {
	u64, _ := abi.NewType("uint64", "", nil)
	addr, _ := abi.NewType("address", "", nil)
	u256, _ := abi.NewType("uint256", "", nil)
	disputeDataArgs = abi.Arguments{{Type: u64}, {Type: addr}, {Type: u256}}
}

// EncodeDisputeData packs the arbitration policy payload passed as the data
// argument of raiseDispute.
func EncodeDisputeData(liveness uint64, currency common.Address, bond *big.Int) ([]byte, error) {
	return disputeDataArgs.Pack(liveness, currency, bond)
}

// Bytes32Tag right-pads an ASCII tag into a bytes32.
func Bytes32Tag(tag string) ([32]byte, error) {
	var out [32]byte
	if len(tag) > 32 {
		return out, fmt.Errorf("tag %q longer than 32 bytes", tag)
	}
	copy(out[:], tag)
	return out, nil
}

// ScalePercent converts a percentage to protocol units, rounding to the
// nearest unit.
func ScalePercent(p float64) uint32 {
	return uint32(p*PercentScale + 0.5)
}
