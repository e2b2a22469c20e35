// internal/services/license_service.go
package services

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/contracts"
	"github.com/javajoker/story-txprep/internal/models"
	"github.com/javajoker/story-txprep/internal/utils"
)

const (
	FlavorCommercialRemix = "commercial_remix"
	FlavorNonCommercial   = "non_commercial_social_remixing"
)

const (
	defaultCommercialRevShare = 5.0

	commercialRemixTermsURI = "https://github.com/piplabs/pil-document/blob/ad67bb632a310d2557f8abcccd428e4c9c798db1/off-chain-terms/CommercialRemix.json"
	nonCommercialTermsURI   = "https://github.com/piplabs/pil-document/blob/998c13e6ee1d04eb817aefd1fe16dfe8be3cd7a2/off-chain-terms/NCSR.json"
)

var zeroAddress = common.Address{}.Hex()

// DefaultMintingFee is the commercial flavor's fee: one whole token.
func DefaultMintingFee() *big.Int {
	return utils.Ether(1)
}

func commercialRemixFlavor(net *config.Network) models.LicenseTerms {
	lap, _ := net.Contract(config.ContractRoyaltyPolicyLAP)
	wip, _ := net.Contract(config.ContractWIPToken)
	return models.LicenseTerms{
		Flavor:                 FlavorCommercialRemix,
		Transferable:           true,
		CommercialUse:          true,
		CommercialAttribution:  true,
		DerivativesAllowed:     true,
		DerivativesAttribution: true,
		DerivativesReciprocal:  true,
		CommercialRevShare:     defaultCommercialRevShare,
		Currency:               wip.Hex(),
		RoyaltyPolicy:          lap.Hex(),
		CommercializerChecker:  zeroAddress,
		DefaultMintingFee:      DefaultMintingFee().String(),
		Expiration:             "0",
		CommercialRevCeiling:   "0",
		DerivativeRevCeiling:   "0",
		URI:                    commercialRemixTermsURI,
	}
}

func nonCommercialFlavor() models.LicenseTerms {
	return models.LicenseTerms{
		Flavor:                 FlavorNonCommercial,
		Transferable:           true,
		DerivativesAllowed:     true,
		DerivativesAttribution: true,
		DerivativesReciprocal:  true,
		Currency:               zeroAddress,
		RoyaltyPolicy:          zeroAddress,
		CommercializerChecker:  zeroAddress,
		DefaultMintingFee:      "0",
		Expiration:             "0",
		CommercialRevCeiling:   "0",
		DerivativeRevCeiling:   "0",
		URI:                    nonCommercialTermsURI,
	}
}

// wantsCommercial picks the flavor: anything asking for revenue or
// commercial use gets the commercial remix defaults.
func wantsCommercial(cfg *models.LicenseTermsConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.CommercialUse != nil {
		return *cfg.CommercialUse
	}
	if cfg.CommercialRevShare != nil && *cfg.CommercialRevShare > 0 {
		return true
	}
	if cfg.DerivativeRevShare != nil && *cfg.DerivativeRevShare > 0 {
		return true
	}
	return cfg.DefaultMintingFee != "" && utils.IsWei(cfg.DefaultMintingFee) && !isZeroAmount(cfg.DefaultMintingFee)
}

func isZeroAddress(s string) bool {
	return common.HexToAddress(s) == common.Address{}
}

func isZeroAmount(s string) bool {
	for _, r := range s {
		if r != '0' {
			return false
		}
	}
	return true
}

// ResolveLicenseTerms merges caller overrides over the matching flavor and
// enforces the protocol's consistency rules.
func ResolveLicenseTerms(cfg *models.LicenseTermsConfig, net *config.Network) (*models.LicenseTerms, error) {
	var terms models.LicenseTerms
	if wantsCommercial(cfg) {
		terms = commercialRemixFlavor(net)
	} else {
		terms = nonCommercialFlavor()
	}
	if cfg == nil {
		return &terms, nil
	}

	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setString := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}

	setBool(&terms.Transferable, cfg.Transferable)
	setBool(&terms.CommercialUse, cfg.CommercialUse)
	setBool(&terms.CommercialAttribution, cfg.CommercialAttribution)
	setBool(&terms.DerivativesAllowed, cfg.DerivativesAllowed)
	setBool(&terms.DerivativesAttribution, cfg.DerivativesAttribution)
	setBool(&terms.DerivativesApproval, cfg.DerivativesApproval)
	setBool(&terms.DerivativesReciprocal, cfg.DerivativesReciprocal)
	if cfg.CommercialRevShare != nil {
		terms.CommercialRevShare = *cfg.CommercialRevShare
	}
	if cfg.DerivativeRevShare != nil {
		terms.DerivativeRevShare = *cfg.DerivativeRevShare
	}
	setString(&terms.Currency, cfg.Currency)
	setString(&terms.RoyaltyPolicy, cfg.RoyaltyPolicy)
	setString(&terms.CommercializerChecker, cfg.CommercializerChecker)
	setString(&terms.DefaultMintingFee, cfg.DefaultMintingFee)
	setString(&terms.Expiration, cfg.Expiration)
	setString(&terms.CommercialRevCeiling, cfg.CommercialRevCeiling)
	setString(&terms.DerivativeRevCeiling, cfg.DerivativeRevCeiling)
	setString(&terms.URI, cfg.URI)

	// Derivative flags follow derivativesAllowed unless set explicitly.
	if !terms.DerivativesAllowed {
		if cfg.DerivativesAttribution == nil {
			terms.DerivativesAttribution = false
		}
		if cfg.DerivativesReciprocal == nil {
			terms.DerivativesReciprocal = false
		}
	}

	if err := checkLicenseTerms(&terms); err != nil {
		return nil, err
	}
	return &terms, nil
}

func checkLicenseTerms(t *models.LicenseTerms) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if t.CommercialRevShare < 0 || t.CommercialRevShare > 100 {
		add("commercialRevShare must be between 0 and 100")
	}
	if t.DerivativeRevShare < 0 || t.DerivativeRevShare > 100 {
		add("derivativeRevShare must be between 0 and 100")
	}

	if !t.CommercialUse {
		if t.CommercialRevShare > 0 {
			add("commercialRevShare requires commercialUse")
		}
		if t.DerivativeRevShare > 0 {
			add("derivativeRevShare requires commercialUse")
		}
		if t.CommercialAttribution {
			add("commercialAttribution requires commercialUse")
		}
		if !isZeroAddress(t.RoyaltyPolicy) {
			add("royaltyPolicy requires commercialUse")
		}
		if !isZeroAddress(t.CommercializerChecker) {
			add("commercializerChecker requires commercialUse")
		}
	} else {
		if isZeroAddress(t.RoyaltyPolicy) {
			add("commercialUse requires a royaltyPolicy")
		}
		if isZeroAddress(t.Currency) {
			add("commercialUse requires a currency token")
		}
	}

	if !t.DerivativesAllowed {
		if t.DerivativesReciprocal {
			add("derivativesReciprocal requires derivativesAllowed")
		}
		if t.DerivativesAttribution {
			add("derivativesAttribution requires derivativesAllowed")
		}
		if t.DerivativesApproval {
			add("derivativesApproval requires derivativesAllowed")
		}
	}

	if len(problems) > 0 {
		return NewParameterError(joinProblems("license terms", problems), map[string]any{"licenseTerms": problems})
	}
	return nil
}

// ToTermsData converts resolved terms into the protocol tuple.
func ToTermsData(t *models.LicenseTerms) (contracts.LicenseTermsData, error) {
	var out contracts.LicenseTermsData

	fee, err := utils.ParseWei(t.DefaultMintingFee, nil)
	if err != nil {
		return out, NewParameterError("license terms: "+err.Error(), nil)
	}
	expiration, err := utils.ParseWei(t.Expiration, nil)
	if err != nil {
		return out, NewParameterError("license terms: "+err.Error(), nil)
	}
	commercialCeiling, err := utils.ParseWei(t.CommercialRevCeiling, nil)
	if err != nil {
		return out, NewParameterError("license terms: "+err.Error(), nil)
	}
	derivativeCeiling, err := utils.ParseWei(t.DerivativeRevCeiling, nil)
	if err != nil {
		return out, NewParameterError("license terms: "+err.Error(), nil)
	}

	out.Terms = contracts.PILTerms{
		Transferable:              t.Transferable,
		RoyaltyPolicy:             common.HexToAddress(t.RoyaltyPolicy),
		DefaultMintingFee:         fee,
		Expiration:                expiration,
		CommercialUse:             t.CommercialUse,
		CommercialAttribution:     t.CommercialAttribution,
		CommercializerChecker:     common.HexToAddress(t.CommercializerChecker),
		CommercializerCheckerData: []byte{},
		CommercialRevShare:        contracts.ScalePercent(t.CommercialRevShare),
		CommercialRevCeiling:      commercialCeiling,
		DerivativesAllowed:        t.DerivativesAllowed,
		DerivativesAttribution:    t.DerivativesAttribution,
		DerivativesApproval:       t.DerivativesApproval,
		DerivativesReciprocal:     t.DerivativesReciprocal,
		DerivativeRevCeiling:      derivativeCeiling,
		Currency:                  common.HexToAddress(t.Currency),
		URI:                       t.URI,
	}

	out.LicensingConfig = contracts.LicensingConfig{
		MintingFee: new(big.Int),
		HookData:   []byte{},
	}
	if t.DerivativeRevShare > 0 {
		out.LicensingConfig.IsSet = true
		out.LicensingConfig.MintingFee = new(big.Int).Set(fee)
		out.LicensingConfig.CommercialRevShare = contracts.ScalePercent(t.DerivativeRevShare)
	}
	return out, nil
}
