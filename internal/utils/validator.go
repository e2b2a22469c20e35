// internal/utils/validator.go
package utils

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/story-txprep/internal/models"
)

var (
	validate *validator.Validate

	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	digitsPattern  = regexp.MustCompile(`^[0-9]+$`)
	symbolPattern  = regexp.MustCompile(`^[A-Z0-9]+$`)
)

const maxSymbolLength = 10

func init() {
	validate = validator.New()

	// Report JSON names so clients can map errors to their own payload.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("address", validateAddress)
	validate.RegisterValidation("wei", validateWei)
	validate.RegisterValidation("positive_wei", validatePositiveWei)
	validate.RegisterValidation("symbol", validateSymbol)
	validate.RegisterValidation("hash32", validateHash32)

	validate.RegisterStructValidation(ipMetadataStructLevel, models.IPMetadata{})
	validate.RegisterStructValidation(derivativeStructLevel, models.DerivativeRequest{})
	validate.RegisterStructValidation(royaltyStructLevel, models.RoyaltyRequest{})
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// IsAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// IsWei reports whether s is a digit-only integer amount.
func IsWei(s string) bool {
	return digitsPattern.MatchString(s)
}

func validateAddress(fl validator.FieldLevel) bool {
	return IsAddress(fl.Field().String())
}

func validateWei(fl validator.FieldLevel) bool {
	return IsWei(fl.Field().String())
}

func validatePositiveWei(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return IsWei(s) && strings.Trim(s, "0") != ""
}

func validateSymbol(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return len(s) <= maxSymbolLength && symbolPattern.MatchString(s)
}

func validateHash32(fl validator.FieldLevel) bool {
	_, err := NormalizeHash32(fl.Field().String())
	return err == nil
}

func ipMetadataStructLevel(sl validator.StructLevel) {
	m := sl.Current().Interface().(models.IPMetadata)
	if len(m.Creators) == 0 {
		return
	}
	if !m.SharesBalanced() {
		sl.ReportError(m.Creators, "creators", "Creators", "creator_shares", fmt.Sprintf("%g", m.ContributionTotal()))
	}
}

func derivativeStructLevel(sl validator.StructLevel) {
	r := sl.Current().Interface().(models.DerivativeRequest)
	if len(r.ParentIPIDs) != len(r.LicenseTermsIDs) {
		sl.ReportError(r.LicenseTermsIDs, "licenseTermsIds", "LicenseTermsIDs", "len_match",
			fmt.Sprintf("parentIpIds:%d,licenseTermsIds:%d", len(r.ParentIPIDs), len(r.LicenseTermsIDs)))
	}
}

func royaltyStructLevel(sl validator.StructLevel) {
	r := sl.Current().Interface().(models.RoyaltyRequest)
	op := string(r.Operation)
	switch r.Operation {
	case models.RoyaltyPay:
		if r.Amount == "" {
			sl.ReportError(r.Amount, "amount", "Amount", "required_for", op)
		}
		if r.Token == "" {
			sl.ReportError(r.Token, "token", "Token", "required_for", op)
		}
	case models.RoyaltyClaim:
		if len(r.CurrencyTokens) == 0 {
			sl.ReportError(r.CurrencyTokens, "currencyTokens", "CurrencyTokens", "required_for", op)
		}
		if len(r.RoyaltyPolicies) > 0 && len(r.RoyaltyPolicies) != len(r.ChildIPIDs) {
			sl.ReportError(r.RoyaltyPolicies, "royaltyPolicies", "RoyaltyPolicies", "len_match",
				fmt.Sprintf("childIpIds:%d,royaltyPolicies:%d", len(r.ChildIPIDs), len(r.RoyaltyPolicies)))
		}
	case models.RoyaltyTransfer:
		if r.Amount == "" {
			sl.ReportError(r.Amount, "amount", "Amount", "required_for", op)
		}
		if r.Recipient == "" {
			sl.ReportError(r.Recipient, "recipient", "Recipient", "required_for", op)
		}
	}
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			field := fieldPath(e.Namespace())
			validationErrors = append(validationErrors, ValidationError{
				Field:   field,
				Tag:     e.Tag(),
				Message: getValidationMessage(field, e),
			})
		}
	}

	return validationErrors
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func getValidationMessage(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "required_for":
		return field + " is required for " + e.Param() + " operations"
	case "address":
		return field + " must be a 0x-prefixed 40 character hex address"
	case "wei":
		return field + " must be a non-negative integer amount in wei (digits only)"
	case "positive_wei":
		return field + " must be a positive integer amount in wei (digits only)"
	case "symbol":
		return field + " must contain only uppercase letters A-Z and digits 0-9, at most 10 characters"
	case "hash32":
		return field + " must be a 32-byte hex hash"
	case "url":
		return field + " must be a valid URL"
	case "base64":
		return field + " must be valid base64"
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "min", "gte":
		return field + " must be at least " + e.Param() + unitFor(e)
	case "max", "lte":
		return field + " must be at most " + e.Param() + unitFor(e)
	case "creator_shares":
		return field + " contributionPercent values must sum to 100 (got " + e.Param() + ")"
	case "len_match":
		return field + " length must match its paired array (" + e.Param() + ")"
	default:
		return field + " is invalid"
	}
}

func unitFor(e validator.FieldError) string {
	switch e.Kind() {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	default:
		return ""
	}
}
