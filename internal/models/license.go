// internal/models/license.go
package models

// LicenseTermsConfig is the caller-facing form of a Programmable IP License.
// Every field is optional; absent fields are filled from a default flavor.
// Percentages are 0..100, amounts are base-10 wei strings.
type LicenseTermsConfig struct {
	Transferable           *bool    `json:"transferable,omitempty"`
	CommercialUse          *bool    `json:"commercialUse,omitempty"`
	CommercialAttribution  *bool    `json:"commercialAttribution,omitempty"`
	DerivativesAllowed     *bool    `json:"derivativesAllowed,omitempty"`
	DerivativesAttribution *bool    `json:"derivativesAttribution,omitempty"`
	DerivativesApproval    *bool    `json:"derivativesApproval,omitempty"`
	DerivativesReciprocal  *bool    `json:"derivativesReciprocal,omitempty"`
	CommercialRevShare     *float64 `json:"commercialRevShare,omitempty" validate:"omitempty,gte=0,lte=100"`
	DerivativeRevShare     *float64 `json:"derivativeRevShare,omitempty" validate:"omitempty,gte=0,lte=100"`
	Currency               string   `json:"currency,omitempty" validate:"omitempty,address"`
	RoyaltyPolicy          string   `json:"royaltyPolicy,omitempty" validate:"omitempty,address"`
	CommercializerChecker  string   `json:"commercializerChecker,omitempty" validate:"omitempty,address"`
	DefaultMintingFee      string   `json:"defaultMintingFee,omitempty" validate:"omitempty,wei"`
	Expiration             string   `json:"expiration,omitempty" validate:"omitempty,wei"`
	CommercialRevCeiling   string   `json:"commercialRevCeiling,omitempty" validate:"omitempty,wei"`
	DerivativeRevCeiling   string   `json:"derivativeRevCeiling,omitempty" validate:"omitempty,wei"`
	URI                    string   `json:"uri,omitempty" validate:"omitempty,url"`
}

// LicenseTerms is the complete record after merging a flavor with overrides.
type LicenseTerms struct {
	Flavor                 string  `json:"flavor"`
	Transferable           bool    `json:"transferable"`
	CommercialUse          bool    `json:"commercialUse"`
	CommercialAttribution  bool    `json:"commercialAttribution"`
	DerivativesAllowed     bool    `json:"derivativesAllowed"`
	DerivativesAttribution bool    `json:"derivativesAttribution"`
	DerivativesApproval    bool    `json:"derivativesApproval"`
	DerivativesReciprocal  bool    `json:"derivativesReciprocal"`
	CommercialRevShare     float64 `json:"commercialRevShare"`
	DerivativeRevShare     float64 `json:"derivativeRevShare"`
	Currency               string  `json:"currency"`
	RoyaltyPolicy          string  `json:"royaltyPolicy"`
	CommercializerChecker  string  `json:"commercializerChecker"`
	DefaultMintingFee      string  `json:"defaultMintingFee"`
	Expiration             string  `json:"expiration"`
	CommercialRevCeiling   string  `json:"commercialRevCeiling"`
	DerivativeRevCeiling   string  `json:"derivativeRevCeiling"`
	URI                    string  `json:"uri"`
}
