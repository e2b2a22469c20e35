// internal/models/common.go
package models

// Enums
type OperationKind string

const (
	OperationRegister   OperationKind = "register"
	OperationDerivative OperationKind = "derivative"
	OperationLicense    OperationKind = "license"
	OperationRoyalty    OperationKind = "royalty"
	OperationCollection OperationKind = "collection"
	OperationDispute    OperationKind = "dispute"
	OperationCLIMint    OperationKind = "cli-mint"
)

type RoyaltyOperation string

const (
	RoyaltyPay      RoyaltyOperation = "pay"
	RoyaltyClaim    RoyaltyOperation = "claim"
	RoyaltyTransfer RoyaltyOperation = "transfer"
)

type DisputeTag string

const (
	DisputeTagPlagiarism       DisputeTag = "PLAGIARISM"
	DisputeTagNonCommercialUse DisputeTag = "NON_COMMERCIAL_USE"
	DisputeTagAttribution      DisputeTag = "ATTRIBUTION"
	DisputeTagCommercialUse    DisputeTag = "COMMERCIAL_USE"
	DisputeTagOther            DisputeTag = "OTHER"
)

// DisputeTags is the closed set accepted by the dispute schema.
var DisputeTags = []DisputeTag{
	DisputeTagPlagiarism,
	DisputeTagNonCommercialUse,
	DisputeTagAttribution,
	DisputeTagCommercialUse,
	DisputeTagOther,
}

type FilePurpose string

const (
	FilePurposeImage FilePurpose = "image"
	FilePurposeMedia FilePurpose = "media"
)

// Dispute liveness window in seconds.
const (
	MinDisputeLiveness = 3600
	MaxDisputeLiveness = 2592000
)

// License token mint bounds.
const (
	MinLicenseAmount = 1
	MaxLicenseAmount = 10000
)
