// internal/services/operations.go
package services

import (
	"context"
	"fmt"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/contracts"
	"github.com/javajoker/story-txprep/internal/models"
)

// Default gas limits used when live estimation fails.
const (
	GasLicense    uint64 = 300_000
	GasCollection uint64 = 600_000
	GasRegister   uint64 = 500_000
	GasCLIMint    uint64 = 800_000
	GasDerivative uint64 = 600_000
	GasRoyalty    uint64 = 400_000
	GasDispute    uint64 = 400_000
)

// OperationDoc is served on GET for each prepare endpoint.
type OperationDoc struct {
	Operation   models.OperationKind `json:"operation"`
	Description string               `json:"description"`
	Method      string               `json:"method"`
	Path        string               `json:"path"`
	Required    []string             `json:"requiredFields"`
	Optional    []string             `json:"optionalFields,omitempty"`
	Contract    string               `json:"contract"`
	Function    string               `json:"function"`
	Example     map[string]any       `json:"example"`
}

type (
	StageFunc    func(ctx context.Context, deps *StageDeps, input any) (*Staged, error)
	AssembleFunc func(net *config.Network, input any, st *Staged) (*ProtocolCall, error)
)

// Operation describes one prepare endpoint: how to validate the body, what
// I/O to run before assembly and how to assemble the contract call.
type Operation struct {
	Kind       models.OperationKind
	Schema     SchemaID
	DefaultGas uint64
	Doc        OperationDoc
	Stage      StageFunc
	Assemble   AssembleFunc
}

type signer interface {
	SignerAddress() string
}

func newOperation[T any](
	kind models.OperationKind,
	schema SchemaID,
	gas uint64,
	doc OperationDoc,
	stage func(context.Context, *StageDeps, *T) (*Staged, error),
	assemble func(*config.Network, *T, *Staged) (*ProtocolCall, error),
) *Operation {
	cast := func(input any) (*T, error) {
		req, ok := input.(*T)
		if !ok {
			return nil, NewInternalError(fmt.Errorf("%s: unexpected input %T", kind, input))
		}
		return req, nil
	}

	doc.Operation = kind
	doc.Method = "POST"
	doc.Path = "/api/v1/prepare/" + string(kind)

	return &Operation{
		Kind:       kind,
		Schema:     schema,
		DefaultGas: gas,
		Doc:        doc,
		Stage: func(ctx context.Context, deps *StageDeps, input any) (*Staged, error) {
			req, err := cast(input)
			if err != nil {
				return nil, err
			}
			if stage == nil {
				return &Staged{}, nil
			}
			return stage(ctx, deps, req)
		},
		Assemble: func(net *config.Network, input any, st *Staged) (*ProtocolCall, error) {
			req, err := cast(input)
			if err != nil {
				return nil, err
			}
			return assemble(net, req, st)
		},
	}
}

const (
	exampleUser    = "0x1111111111111111111111111111111111111111"
	exampleIP      = "0x2222222222222222222222222222222222222222"
	exampleToken   = "0x1514000000000000000000000000000000000000"
	exampleCreator = "0x3333333333333333333333333333333333333333"
)

var exampleIPMetadata = map[string]any{
	"title":       "Sunset Over Harbor",
	"description": "Original photograph",
	"creators": []map[string]any{
		{"name": "Alice", "address": exampleCreator, "contributionPercent": 100},
	},
}

var operations = []*Operation{
	newOperation(models.OperationRegister, SchemaRegister, GasRegister, OperationDoc{
		Description: "Mint an NFT from a collection, register it as an IP asset and attach license terms",
		Required:    []string{"userAddress", "ipMetadata", "nftMetadata"},
		Optional:    []string{"licenseTerms", "spgNftContract", "recipient", "allowDuplicates", "files"},
		Contract:    config.ContractSPGNFT,
		Function:    contracts.MethodMintRegisterAttach,
		Example: map[string]any{
			"userAddress": exampleUser,
			"ipMetadata":  exampleIPMetadata,
			"nftMetadata": map[string]any{"name": "Sunset #1", "description": "Original photograph"},
		},
	}, StageRegister, AssembleRegister),

	newOperation(models.OperationDerivative, SchemaDerivative, GasDerivative, OperationDoc{
		Description: "Register a new IP asset as a derivative of one or more parents",
		Required:    []string{"userAddress", "parentIpIds", "licenseTermsIds", "ipMetadata"},
		Optional:    []string{"nftMetadata", "spgNftContract", "recipient", "maxMintingFee", "maxRts", "maxRevenueShare", "allowDuplicates", "files"},
		Contract:    config.ContractDerivativeWorkflows,
		Function:    contracts.MethodMintDerivative,
		Example: map[string]any{
			"userAddress":     exampleUser,
			"parentIpIds":     []string{exampleIP},
			"licenseTermsIds": []string{"1"},
			"ipMetadata":      exampleIPMetadata,
		},
	}, StageDerivative, AssembleDerivative),

	newOperation(models.OperationLicense, SchemaLicense, GasLicense, OperationDoc{
		Description: "Mint license tokens for an IP asset's attached terms",
		Required:    []string{"userAddress", "licensorIpId", "licenseTermsId", "amount"},
		Optional:    []string{"receiver", "licenseTemplate", "mintingFee", "maxMintingFee", "maxRevenueShare"},
		Contract:    config.ContractLicensingModule,
		Function:    contracts.MethodMintLicenseTokens,
		Example: map[string]any{
			"userAddress":    exampleUser,
			"licensorIpId":   exampleIP,
			"licenseTermsId": "1",
			"amount":         1,
		},
	}, nil, AssembleLicense),

	newOperation(models.OperationRoyalty, SchemaRoyalty, GasRoyalty, OperationDoc{
		Description: "Pay royalties, claim revenue or transfer royalty tokens",
		Required:    []string{"userAddress", "operation", "ipId"},
		Optional:    []string{"amount", "token", "payerIpId", "claimer", "currencyTokens", "childIpIds", "royaltyPolicies", "recipient", "vaultAddress"},
		Contract:    config.ContractRoyaltyModule,
		Function:    contracts.MethodPayRoyalty,
		Example: map[string]any{
			"userAddress": exampleUser,
			"operation":   "pay",
			"ipId":        exampleIP,
			"amount":      "1000000000000000000",
			"token":       exampleToken,
		},
	}, StageRoyalty, AssembleRoyalty),

	newOperation(models.OperationCollection, SchemaCollection, GasCollection, OperationDoc{
		Description: "Create an SPG NFT collection",
		Required:    []string{"userAddress", "name", "symbol", "isPublicMinting", "mintOpen"},
		Optional:    []string{"description", "image", "externalLink", "baseURI", "maxSupply", "mintFee", "mintFeeToken", "mintFeeRecipient", "owner"},
		Contract:    config.ContractRegistrationWorkflows,
		Function:    contracts.MethodCreateCollection,
		Example: map[string]any{
			"userAddress":     exampleUser,
			"name":            "Harbor Photos",
			"symbol":          "HARBOR",
			"isPublicMinting": false,
			"mintOpen":        true,
		},
	}, StageCollection, AssembleCollection),

	newOperation(models.OperationDispute, SchemaDispute, GasDispute, OperationDoc{
		Description: "Raise a dispute against an IP asset",
		Required:    []string{"userAddress", "targetIpId", "evidence", "targetTag", "bond", "liveness"},
		Optional:    []string{"evidenceUrls"},
		Contract:    config.ContractDisputeModule,
		Function:    contracts.MethodRaiseDispute,
		Example: map[string]any{
			"userAddress": exampleUser,
			"targetIpId":  exampleIP,
			"evidence":    "The registered image is a copy of my earlier work",
			"targetTag":   string(models.DisputeTagPlagiarism),
			"bond":        "100000000000000000",
			"liveness":    86400,
		},
	}, StageDispute, AssembleDispute),

	newOperation(models.OperationCLIMint, SchemaCLIMint, GasCLIMint, OperationDoc{
		Description: "Upload a single file and register it with metadata derived from the file",
		Required:    []string{"userAddress", "filePath", "fileData", "filename", "contentType"},
		Optional:    []string{"title", "description", "licenseTerms", "spgNftContract"},
		Contract:    config.ContractSPGNFT,
		Function:    contracts.MethodMintRegisterAttach,
		Example: map[string]any{
			"userAddress": exampleUser,
			"filePath":    "./art/sunset.png",
			"fileData":    "<base64>",
			"filename":    "sunset.png",
			"contentType": "image/png",
		},
	}, StageCLIMint, AssembleCLIMint),
}

// Operations lists every prepare operation in route order.
func Operations() []*Operation {
	return operations
}

func LookupOperation(kind models.OperationKind) (*Operation, bool) {
	for _, op := range operations {
		if op.Kind == kind {
			return op, true
		}
	}
	return nil, false
}
