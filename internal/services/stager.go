// internal/services/stager.go
package services

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/models"
	"github.com/javajoker/story-txprep/internal/utils"
)

// StageDeps are the collaborators the I/O stage may touch.
type StageDeps struct {
	Store   ContentStore
	Chain   ChainClient
	Network *config.Network
	Now     func() time.Time
}

func (d *StageDeps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Staged is everything the I/O stage produced for the assembler.
type Staged struct {
	Metadata      models.ResultMetadata
	UploadedFiles []models.UploadedContentRef
	Vault         common.Address
}

type contractMetadata struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Image        string `json:"image,omitempty"`
	ExternalLink string `json:"external_link,omitempty"`
}

type disputeEvidence struct {
	TargetIPID   string   `json:"targetIpId"`
	TargetTag    string   `json:"targetTag"`
	Evidence     string   `json:"evidence"`
	EvidenceURLs []string `json:"evidenceUrls,omitempty"`
	SubmittedBy  string   `json:"submittedBy"`
}

// applyUploads writes uploaded file locations into copies of the metadata.
func applyUploads(ip *models.IPMetadata, nft *models.NFTMetadata, refs []models.UploadedContentRef) {
	for _, ref := range refs {
		switch models.FilePurpose(ref.Purpose) {
		case models.FilePurposeImage:
			ip.Image = ref.URL
			ip.ImageHash = "0x" + ref.ContentHash
			nft.Image = ref.URL
		case models.FilePurposeMedia:
			ip.MediaURL = ref.URL
			ip.MediaHash = "0x" + ref.ContentHash
			ip.MediaType = ref.ContentType
			nft.AnimationURL = ref.URL
		}
	}
}

// normalizeContentHashes rewrites caller-supplied content hashes to 0x plus
// lowercase hex so the metadata hash does not depend on notation.
func normalizeContentHashes(ip *models.IPMetadata) error {
	for _, h := range []*string{&ip.ImageHash, &ip.MediaHash} {
		if *h == "" {
			continue
		}
		norm, err := utils.NormalizeHash32(*h)
		if err != nil {
			return NewValidationError(err.Error(), nil)
		}
		*h = norm
	}
	return nil
}

// stageIPAsset hashes and pins the IP and NFT metadata documents.
func stageIPAsset(ctx context.Context, deps *StageDeps, ip *models.IPMetadata, nft *models.NFTMetadata, refs []models.UploadedContentRef) (*Staged, error) {
	ipCopy := *ip
	ipCopy.Creators = append([]models.Creator(nil), ip.Creators...)
	nftCopy := *nft
	nftCopy.Attributes = append([]models.Attribute(nil), nft.Attributes...)
	applyUploads(&ipCopy, &nftCopy, refs)
	if err := normalizeContentHashes(&ipCopy); err != nil {
		return nil, err
	}

	ipHash, err := utils.HashMetadata(&ipCopy)
	if err != nil {
		return nil, NewInternalError(err)
	}
	nftHash, err := utils.HashMetadata(&nftCopy)
	if err != nil {
		return nil, NewInternalError(err)
	}

	var ipRef, nftRef models.UploadedContentRef
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ipRef, err = PinMetadata(gctx, deps.Store, &ipCopy, "ip-metadata-"+ipHash[:12], "ip-metadata")
		return err
	})
	g.Go(func() (err error) {
		nftRef, err = PinMetadata(gctx, deps.Store, &nftCopy, "nft-metadata-"+nftHash[:12], "nft-metadata")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Staged{
		Metadata: models.ResultMetadata{
			IPMetadataURI:  ipRef.URL,
			IPHash:         ipHash,
			NFTMetadataURI: nftRef.URL,
			NFTHash:        nftHash,
			IPMetadata:     &ipCopy,
			NFTMetadata:    &nftCopy,
		},
		UploadedFiles: refs,
	}, nil
}

func StageRegister(ctx context.Context, deps *StageDeps, req *models.RegisterRequest) (*Staged, error) {
	refs, _, err := UploadBatch(ctx, deps.Store, req.Files)
	if err != nil {
		return nil, err
	}
	return stageIPAsset(ctx, deps, req.IPMetadata, req.NFTMetadata, refs)
}

// StageDerivative derives the NFT metadata from the IP metadata when the
// caller omits it.
func StageDerivative(ctx context.Context, deps *StageDeps, req *models.DerivativeRequest) (*Staged, error) {
	refs, _, err := UploadBatch(ctx, deps.Store, req.Files)
	if err != nil {
		return nil, err
	}
	nft := req.NFTMetadata
	if nft == nil {
		nft = &models.NFTMetadata{
			Name:        req.IPMetadata.Title,
			Description: req.IPMetadata.Description,
			Image:       req.IPMetadata.Image,
		}
	}
	return stageIPAsset(ctx, deps, req.IPMetadata, nft, refs)
}

// StageCLIMint pins the single file and derives both metadata documents
// from it.
func StageCLIMint(ctx context.Context, deps *StageDeps, req *models.CLIMintRequest) (*Staged, error) {
	data, err := base64.StdEncoding.DecodeString(req.FileData)
	if err != nil {
		return nil, violationsError([]utils.ValidationError{{Field: "fileData", Tag: "base64", Message: "fileData must be valid base64"}})
	}
	vf, err := ValidateFile(data, req.Filename, req.ContentType)
	if err != nil {
		return nil, violationsError([]utils.ValidationError{{Field: "fileData", Tag: "file", Message: err.Error()}})
	}

	cid, err := deps.Store.PinFile(ctx, vf.Data, vf.Filename, vf.ContentType)
	if err != nil {
		return nil, classifyStoreError(err)
	}
	purpose := models.FilePurposeMedia
	if vf.Category == CategoryImage {
		purpose = models.FilePurposeImage
	}
	ref := models.UploadedContentRef{
		ContentID:   cid,
		URL:         deps.Store.URL(cid),
		Purpose:     string(purpose),
		Filename:    vf.Filename,
		ContentType: vf.ContentType,
		Size:        vf.Size,
		ContentHash: vf.ContentHash,
	}

	ip, nft, err := AutoGenerate(FileProperties{
		Filename:    vf.Filename,
		ContentType: vf.ContentType,
		Size:        vf.Size,
		ContentHash: vf.ContentHash,
		URL:         ref.URL,
		MintedAt:    deps.now(),
	}, req.UserAddress)
	if err != nil {
		return nil, err
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		ip.Title = title
		nft.Name = title
	}
	if desc := strings.TrimSpace(req.Description); desc != "" {
		ip.Description = desc
		nft.Description = desc
	}

	// The file is already placed in the metadata; only report it.
	st, err := stageIPAsset(ctx, deps, ip, nft, nil)
	if err != nil {
		return nil, err
	}
	st.UploadedFiles = []models.UploadedContentRef{ref}
	return st, nil
}

func StageCollection(ctx context.Context, deps *StageDeps, req *models.CollectionRequest) (*Staged, error) {
	doc := contractMetadata{
		Name:         req.Name,
		Description:  req.Description,
		Image:        req.Image,
		ExternalLink: req.ExternalLink,
	}
	ref, err := PinMetadata(ctx, deps.Store, doc, "collection-"+strings.ToLower(req.Symbol), "contract-metadata")
	if err != nil {
		return nil, err
	}
	return &Staged{Metadata: models.ResultMetadata{ContractURI: ref.URL}}, nil
}

// StageDispute pins the evidence document. Its canonical hash becomes the
// on-chain evidence hash.
func StageDispute(ctx context.Context, deps *StageDeps, req *models.DisputeRequest) (*Staged, error) {
	doc := disputeEvidence{
		TargetIPID:   req.TargetIPID,
		TargetTag:    string(req.TargetTag),
		Evidence:     req.Evidence,
		EvidenceURLs: req.EvidenceURLs,
		SubmittedBy:  req.UserAddress,
	}
	hash, err := utils.HashMetadata(doc)
	if err != nil {
		return nil, NewInternalError(err)
	}
	ref, err := PinMetadata(ctx, deps.Store, doc, "dispute-evidence-"+hash[:12], "dispute-evidence")
	if err != nil {
		return nil, err
	}
	return &Staged{Metadata: models.ResultMetadata{
		EvidenceURI:  ref.URL,
		EvidenceHash: hash,
	}}, nil
}

// StageRoyalty looks up the IP's royalty vault for transfers that do not
// name one.
func StageRoyalty(ctx context.Context, deps *StageDeps, req *models.RoyaltyRequest) (*Staged, error) {
	st := &Staged{}
	if req.Operation != models.RoyaltyTransfer || req.VaultAddress != "" {
		return st, nil
	}
	module, err := resolveContract(deps.Network, config.ContractRoyaltyModule, "", "vaultAddress")
	if err != nil {
		return nil, err
	}
	vault, err := deps.Chain.RoyaltyVault(ctx, module, common.HexToAddress(req.IPID))
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, NewExternalServiceError(chainRPCService, "royalty vault lookup failed", err)
	}
	st.Vault = vault
	return st, nil
}
