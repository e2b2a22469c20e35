// internal/services/schema_validator.go
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/javajoker/story-txprep/internal/models"
	"github.com/javajoker/story-txprep/internal/utils"
)

type SchemaID string

const (
	SchemaIPMetadata   SchemaID = "ip-metadata"
	SchemaNFTMetadata  SchemaID = "nft-metadata"
	SchemaLicenseTerms SchemaID = "license-terms"
	SchemaRegister     SchemaID = "register"
	SchemaDerivative   SchemaID = "derivative"
	SchemaLicense      SchemaID = "license"
	SchemaRoyalty      SchemaID = "royalty"
	SchemaCollection   SchemaID = "collection"
	SchemaDispute      SchemaID = "dispute"
	SchemaCLIMint      SchemaID = "cli-mint"
)

var schemaTargets = map[SchemaID]func() any{
	SchemaIPMetadata:   func() any { return &models.IPMetadata{} },
	SchemaNFTMetadata:  func() any { return &models.NFTMetadata{} },
	SchemaLicenseTerms: func() any { return &models.LicenseTermsConfig{} },
	SchemaRegister:     func() any { return &models.RegisterRequest{} },
	SchemaDerivative:   func() any { return &models.DerivativeRequest{} },
	SchemaLicense:      func() any { return &models.LicenseRequest{} },
	SchemaRoyalty:      func() any { return &models.RoyaltyRequest{} },
	SchemaCollection:   func() any { return &models.CollectionRequest{} },
	SchemaDispute:      func() any { return &models.DisputeRequest{} },
	SchemaCLIMint:      func() any { return &models.CLIMintRequest{} },
}

// SchemaValidator decodes untrusted JSON into the typed shape registered for
// a schema and checks every field and cross-field rule. It holds no state
// between calls.
type SchemaValidator struct{}

func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// Validate returns a pointer to the decoded value on success. On failure the
// error is a validation AppError listing every violated constraint.
func (v *SchemaValidator) Validate(id SchemaID, raw []byte) (any, error) {
	factory, ok := schemaTargets[id]
	if !ok {
		return nil, NewInternalError(fmt.Errorf("unknown schema %q", id))
	}

	target := factory()
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(target); err != nil {
		return nil, decodeError(err)
	}

	if err := v.ValidateValue(target); err != nil {
		return nil, err
	}
	return target, nil
}

// ValidateValue runs the struct rules against an already decoded value.
func (v *SchemaValidator) ValidateValue(target any) error {
	err := utils.ValidateStruct(target)
	if err == nil {
		return nil
	}
	violations := utils.GetValidationErrors(err)
	if len(violations) == 0 {
		return NewInternalError(errors.Wrap(err, "validator"))
	}
	return violationsError(violations)
}

func violationsError(violations []utils.ValidationError) *AppError {
	messages := make([]string, len(violations))
	for i, v := range violations {
		messages[i] = v.Message
	}
	return NewValidationError(strings.Join(messages, "; "), map[string]any{
		"violations": violations,
	})
}

func decodeError(err error) *AppError {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		v         utils.ValidationError
	)
	switch {
	case errors.Is(err, io.EOF):
		v = utils.ValidationError{Field: "", Tag: "json", Message: "request body is empty"}
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		v = utils.ValidationError{Field: field, Tag: "type",
			Message: fmt.Sprintf("%s must be of type %s, got %s", field, typeErr.Type.String(), typeErr.Value)}
	case errors.As(err, &syntaxErr):
		v = utils.ValidationError{Field: "", Tag: "json",
			Message: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)}
	default:
		v = utils.ValidationError{Field: "", Tag: "json", Message: "invalid request body: " + err.Error()}
	}
	return violationsError([]utils.ValidationError{v})
}
