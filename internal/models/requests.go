// internal/models/requests.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NumericString holds a base-10 integer that may arrive as a JSON string or
// a bare JSON number. The raw digits are kept so large values never pass
// through float64.
type NumericString string

func (n *NumericString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericString(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected a decimal string or number, got %s", string(data))
	}
	*n = NumericString(num.String())
	return nil
}

func (n NumericString) String() string { return string(n) }

type RegisterRequest struct {
	UserAddress     string              `json:"userAddress" validate:"required,address"`
	IPMetadata      *IPMetadata         `json:"ipMetadata" validate:"required"`
	NFTMetadata     *NFTMetadata        `json:"nftMetadata" validate:"required"`
	LicenseTerms    *LicenseTermsConfig `json:"licenseTerms,omitempty"`
	SPGNFTContract  string              `json:"spgNftContract,omitempty" validate:"omitempty,address"`
	Recipient       string              `json:"recipient,omitempty" validate:"omitempty,address"`
	AllowDuplicates bool                `json:"allowDuplicates,omitempty"`
	Files           []FileUpload        `json:"files,omitempty" validate:"omitempty,max=10,dive"`
}

// DerivativeRequest registers a new IP as a child of parentIpIds. Each parent
// is paired with the license terms id at the same index.
type DerivativeRequest struct {
	UserAddress     string          `json:"userAddress" validate:"required,address"`
	ParentIPIDs     []string        `json:"parentIpIds" validate:"required,min=1,max=16,dive,address"`
	LicenseTermsIDs []NumericString `json:"licenseTermsIds" validate:"required,min=1,max=16,dive,positive_wei"`
	IPMetadata      *IPMetadata     `json:"ipMetadata" validate:"required"`
	NFTMetadata     *NFTMetadata    `json:"nftMetadata,omitempty"`
	SPGNFTContract  string          `json:"spgNftContract,omitempty" validate:"omitempty,address"`
	Recipient       string          `json:"recipient,omitempty" validate:"omitempty,address"`
	MaxMintingFee   NumericString   `json:"maxMintingFee,omitempty" validate:"omitempty,wei"`
	MaxRts          *float64        `json:"maxRts,omitempty" validate:"omitempty,gte=0,lte=100"`
	MaxRevenueShare *float64        `json:"maxRevenueShare,omitempty" validate:"omitempty,gte=0,lte=100"`
	AllowDuplicates bool            `json:"allowDuplicates,omitempty"`
	Files           []FileUpload    `json:"files,omitempty" validate:"omitempty,max=10,dive"`
}

type LicenseRequest struct {
	UserAddress     string        `json:"userAddress" validate:"required,address"`
	LicensorIPID    string        `json:"licensorIpId" validate:"required,address"`
	LicenseTermsID  NumericString `json:"licenseTermsId" validate:"required,positive_wei"`
	Amount          int64         `json:"amount" validate:"required,min=1,max=10000"`
	Receiver        string        `json:"receiver,omitempty" validate:"omitempty,address"`
	LicenseTemplate string        `json:"licenseTemplate,omitempty" validate:"omitempty,address"`
	MintingFee      NumericString `json:"mintingFee,omitempty" validate:"omitempty,wei"`
	MaxMintingFee   NumericString `json:"maxMintingFee,omitempty" validate:"omitempty,wei"`
	MaxRevenueShare *float64      `json:"maxRevenueShare,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// RoyaltyRequest covers the three royalty sub-operations. Which optional
// fields are required depends on Operation.
type RoyaltyRequest struct {
	UserAddress     string           `json:"userAddress" validate:"required,address"`
	Operation       RoyaltyOperation `json:"operation" validate:"required,oneof=pay claim transfer"`
	IPID            string           `json:"ipId" validate:"required,address"`
	Amount          NumericString    `json:"amount,omitempty" validate:"omitempty,positive_wei"`
	Token           string           `json:"token,omitempty" validate:"omitempty,address"`
	PayerIPID       string           `json:"payerIpId,omitempty" validate:"omitempty,address"`
	Claimer         string           `json:"claimer,omitempty" validate:"omitempty,address"`
	CurrencyTokens  []string         `json:"currencyTokens,omitempty" validate:"omitempty,max=20,dive,address"`
	ChildIPIDs      []string         `json:"childIpIds,omitempty" validate:"omitempty,max=50,dive,address"`
	RoyaltyPolicies []string         `json:"royaltyPolicies,omitempty" validate:"omitempty,max=50,dive,address"`
	Recipient       string           `json:"recipient,omitempty" validate:"omitempty,address"`
	VaultAddress    string           `json:"vaultAddress,omitempty" validate:"omitempty,address"`
}

type CollectionRequest struct {
	UserAddress      string        `json:"userAddress" validate:"required,address"`
	Name             string        `json:"name" validate:"required,max=100"`
	Symbol           string        `json:"symbol" validate:"required,symbol"`
	Description      string        `json:"description,omitempty" validate:"omitempty,max=2000"`
	Image            string        `json:"image,omitempty" validate:"omitempty,url"`
	ExternalLink     string        `json:"externalLink,omitempty" validate:"omitempty,url"`
	BaseURI          string        `json:"baseURI,omitempty" validate:"omitempty,max=500"`
	MaxSupply        int64         `json:"maxSupply,omitempty" validate:"omitempty,min=1,max=4294967295"`
	MintFee          NumericString `json:"mintFee,omitempty" validate:"omitempty,wei"`
	MintFeeToken     string        `json:"mintFeeToken,omitempty" validate:"omitempty,address"`
	MintFeeRecipient string        `json:"mintFeeRecipient,omitempty" validate:"omitempty,address"`
	Owner            string        `json:"owner,omitempty" validate:"omitempty,address"`
	IsPublicMinting  *bool         `json:"isPublicMinting" validate:"required"`
	MintOpen         *bool         `json:"mintOpen" validate:"required"`
}

type DisputeRequest struct {
	UserAddress  string        `json:"userAddress" validate:"required,address"`
	TargetIPID   string        `json:"targetIpId" validate:"required,address"`
	Evidence     string        `json:"evidence" validate:"required,min=10,max=10000"`
	EvidenceURLs []string      `json:"evidenceUrls,omitempty" validate:"omitempty,max=20,dive,url"`
	TargetTag    DisputeTag    `json:"targetTag" validate:"required,oneof=PLAGIARISM NON_COMMERCIAL_USE ATTRIBUTION COMMERCIAL_USE OTHER"`
	Bond         NumericString `json:"bond" validate:"required,positive_wei"`
	Liveness     int64         `json:"liveness" validate:"required,min=3600,max=2592000"`
}

// CLIMintRequest is the unattended path: a single file plus the uploader's
// address, with metadata derived from the file.
type CLIMintRequest struct {
	UserAddress    string              `json:"userAddress" validate:"required,address"`
	FilePath       string              `json:"filePath" validate:"required,max=1024"`
	FileData       string              `json:"fileData" validate:"required,base64"`
	Filename       string              `json:"filename" validate:"required,max=255"`
	ContentType    string              `json:"contentType" validate:"required,max=100"`
	Title          string              `json:"title,omitempty" validate:"omitempty,max=200"`
	Description    string              `json:"description,omitempty" validate:"omitempty,max=5000"`
	LicenseTerms   *LicenseTermsConfig `json:"licenseTerms,omitempty"`
	SPGNFTContract string              `json:"spgNftContract,omitempty" validate:"omitempty,address"`
}

// SignerAddress is the wallet expected to sign the prepared transaction.
func (r *RegisterRequest) SignerAddress() string   { return r.UserAddress }
func (r *DerivativeRequest) SignerAddress() string { return r.UserAddress }
func (r *LicenseRequest) SignerAddress() string    { return r.UserAddress }
func (r *RoyaltyRequest) SignerAddress() string    { return r.UserAddress }
func (r *CollectionRequest) SignerAddress() string { return r.UserAddress }
func (r *DisputeRequest) SignerAddress() string    { return r.UserAddress }
func (r *CLIMintRequest) SignerAddress() string    { return r.UserAddress }
