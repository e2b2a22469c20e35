// internal/services/assembler.go
package services

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/contracts"
	"github.com/javajoker/story-txprep/internal/models"
	"github.com/javajoker/story-txprep/internal/utils"
)

const (
	defaultCollectionSupply = 10000
	fullShare               = 100.0
)

// ProtocolCall is an assembled, not yet encoded, contract call.
type ProtocolCall struct {
	Contract   string
	To         common.Address
	ABI        abi.ABI
	Method     string
	Args       []any
	Value      *big.Int
	Additional map[string]any
}

func joinProblems(prefix string, problems []string) string {
	return prefix + ": " + strings.Join(problems, "; ")
}

// resolveContract prefers the caller's address and falls back to the
// network default.
func resolveContract(net *config.Network, key, override, field string) (common.Address, error) {
	if override != "" {
		if !utils.IsAddress(override) {
			return common.Address{}, NewParameterError(field+" is not a valid address", map[string]any{"field": field})
		}
		return common.HexToAddress(override), nil
	}
	if addr, ok := net.Contract(key); ok {
		return addr, nil
	}
	msg := fmt.Sprintf("no default %s address for network %s", key, net.Name)
	if field != "" {
		msg += "; supply " + field
	}
	return common.Address{}, NewParameterError(msg, map[string]any{"network": net.Name, "contract": key})
}

func addressOr(s string, fallback common.Address) common.Address {
	if s == "" {
		return fallback
	}
	return common.HexToAddress(s)
}

func addresses(in []string) []common.Address {
	out := make([]common.Address, len(in))
	for i, s := range in {
		out[i] = common.HexToAddress(s)
	}
	return out
}

func parseAmount(field, s string, fallback *big.Int) (*big.Int, error) {
	v, err := utils.ParseWei(s, fallback)
	if err != nil {
		return nil, NewParameterError(field+": "+err.Error(), map[string]any{"field": field})
	}
	return v, nil
}

func sharePercent(field string, p *float64) (uint32, error) {
	if p == nil {
		return contracts.ScalePercent(fullShare), nil
	}
	if *p < 0 || *p > 100 {
		return 0, NewParameterError(field+" must be between 0 and 100", map[string]any{"field": field})
	}
	return contracts.ScalePercent(*p), nil
}

// ipMetadataArg converts staged hashes into the protocol tuple, normalizing
// them to 32-byte digests.
func ipMetadataArg(st *Staged) (contracts.IPMetadata, error) {
	var out contracts.IPMetadata
	ipHash, err := utils.Hash32Bytes(st.Metadata.IPHash)
	if err != nil {
		return out, NewInternalError(err)
	}
	nftHash, err := utils.Hash32Bytes(st.Metadata.NFTHash)
	if err != nil {
		return out, NewInternalError(err)
	}
	out.IPMetadataURI = st.Metadata.IPMetadataURI
	out.IPMetadataHash = ipHash
	out.NFTMetadataURI = st.Metadata.NFTMetadataURI
	out.NFTMetadataHash = nftHash
	return out, nil
}

// assembleRegistration is shared by register and cli-mint: mint from the
// collection, register the IP and attach license terms in one call.
func assembleRegistration(net *config.Network, user, spgOverride, recipient string, cfg *models.LicenseTermsConfig, allowDuplicates bool, st *Staged) (*ProtocolCall, error) {
	spg, err := resolveContract(net, config.ContractSPGNFT, spgOverride, "spgNftContract")
	if err != nil {
		return nil, err
	}
	terms, err := ResolveLicenseTerms(cfg, net)
	if err != nil {
		return nil, err
	}
	termsData, err := ToTermsData(terms)
	if err != nil {
		return nil, err
	}
	meta, err := ipMetadataArg(st)
	if err != nil {
		return nil, err
	}

	return &ProtocolCall{
		Contract: config.ContractSPGNFT,
		To:       spg,
		ABI:      contracts.LicenseAttachment,
		Method:   contracts.MethodMintRegisterAttach,
		Args: []any{
			spg,
			addressOr(recipient, common.HexToAddress(user)),
			meta,
			[]contracts.LicenseTermsData{termsData},
			allowDuplicates,
		},
		Additional: map[string]any{
			"spgNftContract": spg.Hex(),
			"licenseTerms":   terms,
		},
	}, nil
}

func AssembleRegister(net *config.Network, req *models.RegisterRequest, st *Staged) (*ProtocolCall, error) {
	return assembleRegistration(net, req.UserAddress, req.SPGNFTContract, req.Recipient, req.LicenseTerms, req.AllowDuplicates, st)
}

func AssembleCLIMint(net *config.Network, req *models.CLIMintRequest, st *Staged) (*ProtocolCall, error) {
	call, err := assembleRegistration(net, req.UserAddress, req.SPGNFTContract, "", req.LicenseTerms, false, st)
	if err != nil {
		return nil, err
	}
	call.Additional["filePath"] = req.FilePath
	return call, nil
}

func AssembleDerivative(net *config.Network, req *models.DerivativeRequest, st *Staged) (*ProtocolCall, error) {
	if len(req.ParentIPIDs) != len(req.LicenseTermsIDs) {
		return nil, NewParameterError("parentIpIds and licenseTermsIds must have the same length", map[string]any{
			"parentIpIds":     len(req.ParentIPIDs),
			"licenseTermsIds": len(req.LicenseTermsIDs),
		})
	}
	workflows, err := resolveContract(net, config.ContractDerivativeWorkflows, "", "")
	if err != nil {
		return nil, err
	}
	spg, err := resolveContract(net, config.ContractSPGNFT, req.SPGNFTContract, "spgNftContract")
	if err != nil {
		return nil, err
	}
	template, err := resolveContract(net, config.ContractPILicenseTemplate, "", "")
	if err != nil {
		return nil, err
	}

	termsIDs := make([]*big.Int, len(req.LicenseTermsIDs))
	for i, id := range req.LicenseTermsIDs {
		if termsIDs[i], err = parseAmount(fmt.Sprintf("licenseTermsIds[%d]", i), id.String(), nil); err != nil {
			return nil, err
		}
	}
	maxFee, err := parseAmount("maxMintingFee", req.MaxMintingFee.String(), nil)
	if err != nil {
		return nil, err
	}
	maxRts, err := sharePercent("maxRts", req.MaxRts)
	if err != nil {
		return nil, err
	}
	maxRevShare, err := sharePercent("maxRevenueShare", req.MaxRevenueShare)
	if err != nil {
		return nil, err
	}
	meta, err := ipMetadataArg(st)
	if err != nil {
		return nil, err
	}

	deriv := contracts.MakeDerivative{
		ParentIPIDs:     addresses(req.ParentIPIDs),
		LicenseTemplate: template,
		LicenseTermsIDs: termsIDs,
		RoyaltyContext:  []byte{},
		MaxMintingFee:   maxFee,
		MaxRts:          maxRts,
		MaxRevenueShare: maxRevShare,
	}
	return &ProtocolCall{
		Contract: config.ContractDerivativeWorkflows,
		To:       workflows,
		ABI:      contracts.DerivativeWorkflows,
		Method:   contracts.MethodMintDerivative,
		Args: []any{
			spg,
			deriv,
			meta,
			addressOr(req.Recipient, common.HexToAddress(req.UserAddress)),
			req.AllowDuplicates,
		},
		Additional: map[string]any{
			"spgNftContract": spg.Hex(),
			"parentCount":    len(req.ParentIPIDs),
		},
	}, nil
}

// AssembleLicense mints license tokens. The attached value is the per-license
// fee times the amount; the fee defaults to one whole token.
func AssembleLicense(net *config.Network, req *models.LicenseRequest, _ *Staged) (*ProtocolCall, error) {
	if req.Amount < models.MinLicenseAmount || req.Amount > models.MaxLicenseAmount {
		return nil, NewParameterError(fmt.Sprintf("amount must be between %d and %d", models.MinLicenseAmount, models.MaxLicenseAmount),
			map[string]any{"field": "amount"})
	}
	module, err := resolveContract(net, config.ContractLicensingModule, "", "")
	if err != nil {
		return nil, err
	}
	template, err := resolveContract(net, config.ContractPILicenseTemplate, req.LicenseTemplate, "licenseTemplate")
	if err != nil {
		return nil, err
	}
	termsID, err := parseAmount("licenseTermsId", req.LicenseTermsID.String(), nil)
	if err != nil {
		return nil, err
	}
	if termsID.Sign() <= 0 {
		return nil, NewParameterError("licenseTermsId must be greater than zero", map[string]any{"field": "licenseTermsId"})
	}
	fee, err := parseAmount("mintingFee", req.MintingFee.String(), DefaultMintingFee())
	if err != nil {
		return nil, err
	}
	maxFee, err := parseAmount("maxMintingFee", req.MaxMintingFee.String(), nil)
	if err != nil {
		return nil, err
	}
	maxRevShare, err := sharePercent("maxRevenueShare", req.MaxRevenueShare)
	if err != nil {
		return nil, err
	}

	amount := big.NewInt(req.Amount)
	total := new(big.Int).Mul(fee, amount)

	return &ProtocolCall{
		Contract: config.ContractLicensingModule,
		To:       module,
		ABI:      contracts.LicensingModule,
		Method:   contracts.MethodMintLicenseTokens,
		Args: []any{
			common.HexToAddress(req.LicensorIPID),
			template,
			termsID,
			amount,
			addressOr(req.Receiver, common.HexToAddress(req.UserAddress)),
			[]byte{},
			maxFee,
			maxRevShare,
		},
		Value: total,
		Additional: map[string]any{
			"perLicenseFee":     fee.String(),
			"totalFee":          total.String(),
			"totalFeeFormatted": utils.FormatWei(total, net.NativeSymbol),
		},
	}, nil
}

func AssembleRoyalty(net *config.Network, req *models.RoyaltyRequest, st *Staged) (*ProtocolCall, error) {
	switch req.Operation {
	case models.RoyaltyPay:
		return assembleRoyaltyPay(net, req)
	case models.RoyaltyClaim:
		return assembleRoyaltyClaim(net, req)
	case models.RoyaltyTransfer:
		return assembleRoyaltyTransfer(req, st)
	}
	return nil, NewParameterError(fmt.Sprintf("unknown royalty operation %q", req.Operation), map[string]any{"field": "operation"})
}

func assembleRoyaltyPay(net *config.Network, req *models.RoyaltyRequest) (*ProtocolCall, error) {
	if req.Token == "" {
		return nil, NewParameterError("token is required for pay", map[string]any{"field": "token"})
	}
	module, err := resolveContract(net, config.ContractRoyaltyModule, "", "")
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", req.Amount.String(), nil)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, NewParameterError("amount must be greater than zero", map[string]any{"field": "amount"})
	}
	return &ProtocolCall{
		Contract: config.ContractRoyaltyModule,
		To:       module,
		ABI:      contracts.RoyaltyModule,
		Method:   contracts.MethodPayRoyalty,
		Args: []any{
			common.HexToAddress(req.IPID),
			addressOr(req.PayerIPID, common.Address{}),
			common.HexToAddress(req.Token),
			amount,
		},
		Value: amount,
		Additional: map[string]any{
			"royaltyOperation": string(req.Operation),
			"amountFormatted":  utils.FormatWei(amount, net.NativeSymbol),
		},
	}, nil
}

func assembleRoyaltyClaim(net *config.Network, req *models.RoyaltyRequest) (*ProtocolCall, error) {
	if len(req.CurrencyTokens) == 0 {
		return nil, NewParameterError("currencyTokens is required for claim", map[string]any{"field": "currencyTokens"})
	}
	workflows, err := resolveContract(net, config.ContractRoyaltyWorkflows, "", "")
	if err != nil {
		return nil, err
	}

	policies := addresses(req.RoyaltyPolicies)
	if len(policies) == 0 && len(req.ChildIPIDs) > 0 {
		lap, err := resolveContract(net, config.ContractRoyaltyPolicyLAP, "", "royaltyPolicies")
		if err != nil {
			return nil, err
		}
		policies = make([]common.Address, len(req.ChildIPIDs))
		for i := range policies {
			policies[i] = lap
		}
	}
	if len(policies) != len(req.ChildIPIDs) {
		return nil, NewParameterError("royaltyPolicies must pair one policy with each child IP", map[string]any{
			"childIpIds":      len(req.ChildIPIDs),
			"royaltyPolicies": len(policies),
		})
	}

	return &ProtocolCall{
		Contract: config.ContractRoyaltyWorkflows,
		To:       workflows,
		ABI:      contracts.RoyaltyWorkflows,
		Method:   contracts.MethodClaimAllRevenue,
		Args: []any{
			common.HexToAddress(req.IPID),
			addressOr(req.Claimer, common.HexToAddress(req.IPID)),
			addresses(req.ChildIPIDs),
			policies,
			addresses(req.CurrencyTokens),
		},
		Additional: map[string]any{
			"royaltyOperation": string(req.Operation),
		},
	}, nil
}

func assembleRoyaltyTransfer(req *models.RoyaltyRequest, st *Staged) (*ProtocolCall, error) {
	if req.Recipient == "" {
		return nil, NewParameterError("recipient is required for transfer", map[string]any{"field": "recipient"})
	}
	vault := st.Vault
	if req.VaultAddress != "" {
		vault = common.HexToAddress(req.VaultAddress)
	}
	if vault == (common.Address{}) {
		return nil, NewParameterError("IP has no royalty vault", map[string]any{"ipId": req.IPID})
	}
	amount, err := parseAmount("amount", req.Amount.String(), nil)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, NewParameterError("amount must be greater than zero", map[string]any{"field": "amount"})
	}
	return &ProtocolCall{
		Contract: "royaltyVault",
		To:       vault,
		ABI:      contracts.ERC20,
		Method:   contracts.MethodTransfer,
		Args:     []any{common.HexToAddress(req.Recipient), amount},
		Additional: map[string]any{
			"royaltyOperation": string(req.Operation),
			"vaultAddress":     vault.Hex(),
		},
	}, nil
}

func AssembleCollection(net *config.Network, req *models.CollectionRequest, st *Staged) (*ProtocolCall, error) {
	workflows, err := resolveContract(net, config.ContractRegistrationWorkflows, "", "")
	if err != nil {
		return nil, err
	}
	user := common.HexToAddress(req.UserAddress)
	owner := addressOr(req.Owner, user)

	mintFee, err := parseAmount("mintFee", req.MintFee.String(), nil)
	if err != nil {
		return nil, err
	}
	var feeToken common.Address
	if req.MintFeeToken != "" {
		feeToken = common.HexToAddress(req.MintFeeToken)
	} else if wip, ok := net.Contract(config.ContractWIPToken); ok {
		feeToken = wip
	}
	if mintFee.Sign() > 0 && feeToken == (common.Address{}) {
		return nil, NewParameterError("mintFee requires a mintFeeToken", map[string]any{"field": "mintFeeToken"})
	}

	supply := req.MaxSupply
	if supply == 0 {
		supply = defaultCollectionSupply
	}
	if supply < 1 || supply > 1<<32-1 {
		return nil, NewParameterError("maxSupply is out of range", map[string]any{"field": "maxSupply"})
	}

	params := contracts.SPGNFTInitParams{
		Name:             req.Name,
		Symbol:           req.Symbol,
		BaseURI:          req.BaseURI,
		ContractURI:      st.Metadata.ContractURI,
		MaxSupply:        uint32(supply),
		MintFee:          mintFee,
		MintFeeToken:     feeToken,
		MintFeeRecipient: addressOr(req.MintFeeRecipient, owner),
		Owner:            owner,
		MintOpen:         req.MintOpen != nil && *req.MintOpen,
		IsPublicMinting:  req.IsPublicMinting != nil && *req.IsPublicMinting,
	}
	return &ProtocolCall{
		Contract: config.ContractRegistrationWorkflows,
		To:       workflows,
		ABI:      contracts.RegistrationWorkflows,
		Method:   contracts.MethodCreateCollection,
		Args:     []any{params},
		Additional: map[string]any{
			"maxSupply": supply,
			"owner":     owner.Hex(),
		},
	}, nil
}

// AssembleDispute enforces the bond and liveness windows before anything is
// estimated.
func AssembleDispute(net *config.Network, req *models.DisputeRequest, st *Staged) (*ProtocolCall, error) {
	if req.Liveness < models.MinDisputeLiveness || req.Liveness > models.MaxDisputeLiveness {
		return nil, NewParameterError(fmt.Sprintf("liveness must be between %d and %d seconds", models.MinDisputeLiveness, models.MaxDisputeLiveness),
			map[string]any{"field": "liveness"})
	}
	bond, err := parseAmount("bond", req.Bond.String(), nil)
	if err != nil {
		return nil, err
	}
	if bond.Sign() <= 0 {
		return nil, NewParameterError("bond must be a positive integer amount", map[string]any{"field": "bond"})
	}
	module, err := resolveContract(net, config.ContractDisputeModule, "", "")
	if err != nil {
		return nil, err
	}
	currency, err := resolveContract(net, config.ContractWIPToken, "", "")
	if err != nil {
		return nil, err
	}
	tag, err := contracts.Bytes32Tag(string(req.TargetTag))
	if err != nil {
		return nil, NewParameterError(err.Error(), map[string]any{"field": "targetTag"})
	}
	evidenceHash, err := utils.Hash32Bytes(st.Metadata.EvidenceHash)
	if err != nil {
		return nil, NewInternalError(err)
	}
	data, err := contracts.EncodeDisputeData(uint64(req.Liveness), currency, bond)
	if err != nil {
		return nil, NewInternalError(err)
	}

	return &ProtocolCall{
		Contract: config.ContractDisputeModule,
		To:       module,
		ABI:      contracts.DisputeModule,
		Method:   contracts.MethodRaiseDispute,
		Args: []any{
			common.HexToAddress(req.TargetIPID),
			evidenceHash,
			tag,
			data,
		},
		Additional: map[string]any{
			"targetTag":     string(req.TargetTag),
			"bond":          bond.String(),
			"bondFormatted": utils.FormatWei(bond, net.NativeSymbol),
			"liveness":      req.Liveness,
		},
	}, nil
}
