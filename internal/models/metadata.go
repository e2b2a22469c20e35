// internal/models/metadata.go
package models

import "math"

type Creator struct {
	Name                string  `json:"name" validate:"required,max=100"`
	Address             string  `json:"address" validate:"required,address"`
	ContributionPercent float64 `json:"contributionPercent" validate:"gte=0,lte=100"`
}

// IPMetadata is the off-chain document referenced by ipMetadataURI.
// Creator shares must sum to 100.
type IPMetadata struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required,max=5000"`
	CreatedAt   string    `json:"createdAt,omitempty"`
	Creators    []Creator `json:"creators" validate:"required,min=1,max=50,dive"`
	Image       string    `json:"image,omitempty" validate:"omitempty,url"`
	ImageHash   string    `json:"imageHash,omitempty" validate:"omitempty,hash32"`
	MediaURL    string    `json:"mediaUrl,omitempty" validate:"omitempty,url"`
	MediaHash   string    `json:"mediaHash,omitempty" validate:"omitempty,hash32"`
	MediaType   string    `json:"mediaType,omitempty" validate:"omitempty,max=100"`
}

type Attribute struct {
	Key   string `json:"key" validate:"required,max=100"`
	Value string `json:"value" validate:"required,max=1000"`
}

// NFTMetadata is the ERC-721 token metadata referenced by nftMetadataURI.
type NFTMetadata struct {
	Name         string      `json:"name" validate:"required,max=200"`
	Description  string      `json:"description" validate:"required,max=5000"`
	Image        string      `json:"image,omitempty" validate:"omitempty,url"`
	AnimationURL string      `json:"animation_url,omitempty" validate:"omitempty,url"`
	Attributes   []Attribute `json:"attributes,omitempty" validate:"omitempty,max=100,dive"`
}

// FileUpload is an inline base64 file attached to a request.
type FileUpload struct {
	Filename    string      `json:"filename" validate:"required,max=255"`
	ContentType string      `json:"contentType" validate:"required,max=100"`
	Data        string      `json:"data" validate:"required,base64"`
	Purpose     FilePurpose `json:"purpose" validate:"required,oneof=image media"`
}

// UploadedContentRef points at content pinned to the off-chain store.
type UploadedContentRef struct {
	ContentID   string `json:"contentId"`
	URL         string `json:"url"`
	Purpose     string `json:"purpose"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentHash string `json:"contentHash,omitempty"`
}

// ShareTolerance is the allowed distance of the creator share total from 100.
const ShareTolerance = 0.01

// ContributionTotal sums the creators' contribution percentages.
func (m *IPMetadata) ContributionTotal() float64 {
	var total float64
	for _, c := range m.Creators {
		total += c.ContributionPercent
	}
	return total
}

// SharesBalanced reports whether the creator shares sum to 100 within
// ShareTolerance (exclusive).
func (m *IPMetadata) SharesBalanced() bool {
	return math.Abs(m.ContributionTotal()-100) < ShareTolerance
}
