// internal/services/metadata_builder.go
package services

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/javajoker/story-txprep/internal/models"
)

// IPMetadataBuilder assembles IP metadata with chained setters.
type IPMetadataBuilder struct {
	m models.IPMetadata
}

func NewIPMetadataBuilder() *IPMetadataBuilder {
	return &IPMetadataBuilder{}
}

func (b *IPMetadataBuilder) Title(title string) *IPMetadataBuilder {
	b.m.Title = title
	return b
}

func (b *IPMetadataBuilder) Description(description string) *IPMetadataBuilder {
	b.m.Description = description
	return b
}

func (b *IPMetadataBuilder) CreatedAt(t time.Time) *IPMetadataBuilder {
	b.m.CreatedAt = t.UTC().Format(time.RFC3339)
	return b
}

func (b *IPMetadataBuilder) AddCreator(name, address string, contributionPercent float64) *IPMetadataBuilder {
	b.m.Creators = append(b.m.Creators, models.Creator{
		Name:                name,
		Address:             address,
		ContributionPercent: contributionPercent,
	})
	return b
}

func (b *IPMetadataBuilder) Image(url, hash string) *IPMetadataBuilder {
	b.m.Image = url
	b.m.ImageHash = hash
	return b
}

func (b *IPMetadataBuilder) Media(url, hash, mediaType string) *IPMetadataBuilder {
	b.m.MediaURL = url
	b.m.MediaHash = hash
	b.m.MediaType = mediaType
	return b
}

// Build fails on the first missing required field, then on unbalanced
// creator shares.
func (b *IPMetadataBuilder) Build() (*models.IPMetadata, error) {
	switch {
	case strings.TrimSpace(b.m.Title) == "":
		return nil, NewValidationError("ip metadata: title is required", nil)
	case strings.TrimSpace(b.m.Description) == "":
		return nil, NewValidationError("ip metadata: description is required", nil)
	case len(b.m.Creators) == 0:
		return nil, NewValidationError("ip metadata: creators is required", nil)
	}
	if !b.m.SharesBalanced() {
		return nil, NewValidationError(
			fmt.Sprintf("ip metadata: creator contributionPercent values must sum to 100 (got %g)", b.m.ContributionTotal()), nil)
	}

	out := b.m
	out.Creators = append([]models.Creator(nil), b.m.Creators...)
	return &out, nil
}

// NFTMetadataBuilder assembles ERC-721 token metadata.
type NFTMetadataBuilder struct {
	m models.NFTMetadata
}

func NewNFTMetadataBuilder() *NFTMetadataBuilder {
	return &NFTMetadataBuilder{}
}

func (b *NFTMetadataBuilder) Name(name string) *NFTMetadataBuilder {
	b.m.Name = name
	return b
}

func (b *NFTMetadataBuilder) Description(description string) *NFTMetadataBuilder {
	b.m.Description = description
	return b
}

func (b *NFTMetadataBuilder) Image(url string) *NFTMetadataBuilder {
	b.m.Image = url
	return b
}

func (b *NFTMetadataBuilder) AnimationURL(url string) *NFTMetadataBuilder {
	b.m.AnimationURL = url
	return b
}

func (b *NFTMetadataBuilder) Attribute(key, value string) *NFTMetadataBuilder {
	b.m.Attributes = append(b.m.Attributes, models.Attribute{Key: key, Value: value})
	return b
}

func (b *NFTMetadataBuilder) Build() (*models.NFTMetadata, error) {
	switch {
	case strings.TrimSpace(b.m.Name) == "":
		return nil, NewValidationError("nft metadata: name is required", nil)
	case strings.TrimSpace(b.m.Description) == "":
		return nil, NewValidationError("nft metadata: description is required", nil)
	}
	for i, a := range b.m.Attributes {
		if a.Key == "" || a.Value == "" {
			return nil, NewValidationError(fmt.Sprintf("nft metadata: attribute %d needs a key and a value", i), nil)
		}
	}

	out := b.m
	out.Attributes = append([]models.Attribute(nil), b.m.Attributes...)
	return &out, nil
}

// FileProperties describes an uploaded file for metadata derivation.
type FileProperties struct {
	Filename    string
	ContentType string
	Size        int64
	ContentHash string
	URL         string
	MintedAt    time.Time
}

// DeriveTitle turns "my_cool-song.v2.mp3" into "My Cool Song V2".
func DeriveTitle(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Untitled"
	}
	// Casers carry state; one per call.
	return cases.Title(language.English).String(base)
}

// DeriveDescription prefixes the filename with a label chosen by MIME type.
func DeriveDescription(filename, contentType string) string {
	var prefix string
	switch {
	case strings.HasPrefix(contentType, "image/"):
		prefix = "Image file: "
	case strings.HasPrefix(contentType, "video/"):
		prefix = "Video file: "
	case strings.HasPrefix(contentType, "audio/"):
		prefix = "Audio file: "
	case isDocumentType(contentType):
		prefix = "Document file: "
	default:
		prefix = "File: "
	}
	return prefix + filepath.Base(filename)
}

// AutoGenerate derives IP and NFT metadata from a file and the uploader's
// address. The uploader is credited with the full share.
func AutoGenerate(props FileProperties, uploader string) (*models.IPMetadata, *models.NFTMetadata, error) {
	mintedAt := props.MintedAt
	if mintedAt.IsZero() {
		mintedAt = time.Now()
	}
	title := DeriveTitle(props.Filename)
	description := DeriveDescription(props.Filename, props.ContentType)

	ipb := NewIPMetadataBuilder().
		Title(title).
		Description(description).
		CreatedAt(mintedAt).
		AddCreator(shortAddress(uploader), uploader, 100)

	nftb := NewNFTMetadataBuilder().
		Name(title).
		Description(description).
		Attribute("Filename", filepath.Base(props.Filename)).
		Attribute("MIME Type", props.ContentType).
		Attribute("Extension", extensionOf(props.Filename)).
		Attribute("File Size", humanize.IBytes(uint64(props.Size))).
		Attribute("Content Hash", props.ContentHash).
		Attribute("Minted At", mintedAt.UTC().Format(time.RFC3339))

	if props.URL != "" {
		hash := "0x" + props.ContentHash
		switch {
		case strings.HasPrefix(props.ContentType, "image/"):
			ipb.Image(props.URL, hash)
			nftb.Image(props.URL)
		case strings.HasPrefix(props.ContentType, "video/"), strings.HasPrefix(props.ContentType, "audio/"):
			ipb.Media(props.URL, hash, props.ContentType)
			nftb.AnimationURL(props.URL)
		default:
			ipb.Media(props.URL, hash, props.ContentType)
		}
	}

	ip, err := ipb.Build()
	if err != nil {
		return nil, nil, err
	}
	nft, err := nftb.Build()
	if err != nil {
		return nil, nil, err
	}
	return ip, nft, nil
}

func extensionOf(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "none"
	}
	return ext
}

func shortAddress(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
