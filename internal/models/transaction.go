// internal/models/transaction.go
package models

// PreparedTransaction is returned to the caller for signing. Value and
// GasEstimate are base-10 strings; Data is 0x-prefixed call data.
type PreparedTransaction struct {
	To          string `json:"to"`
	Data        string `json:"data"`
	Value       string `json:"value"`
	GasEstimate string `json:"gasEstimate,omitempty"`
	ChainID     string `json:"chainId,omitempty"`
	From        string `json:"from,omitempty"`
}

// ResultMetadata carries the pinned metadata references of an operation.
// Operations without metadata return it empty.
type ResultMetadata struct {
	IPMetadataURI  string       `json:"ipMetadataURI,omitempty"`
	IPHash         string       `json:"ipHash,omitempty"`
	NFTMetadataURI string       `json:"nftMetadataURI,omitempty"`
	NFTHash        string       `json:"nftHash,omitempty"`
	ContractURI    string       `json:"contractURI,omitempty"`
	EvidenceURI    string       `json:"evidenceURI,omitempty"`
	EvidenceHash   string       `json:"evidenceHash,omitempty"`
	IPMetadata     *IPMetadata  `json:"ipMetadata,omitempty"`
	NFTMetadata    *NFTMetadata `json:"nftMetadata,omitempty"`
}

type SuccessResponse struct {
	Success        bool                 `json:"success"`
	Transaction    *PreparedTransaction `json:"transaction"`
	Metadata       ResultMetadata       `json:"metadata"`
	UploadedFiles  []UploadedContentRef `json:"uploadedFiles,omitempty"`
	AdditionalData map[string]any       `json:"additionalData,omitempty"`
}

type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}
