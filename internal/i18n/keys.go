// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Errors, one per error code
	KeyErrValidation        = "error.validation"
	KeyErrParameter         = "error.parameter"
	KeyErrConfiguration     = "error.configuration"
	KeyErrInsufficientFunds = "error.insufficient_funds"
	KeyErrExternalService   = "error.external_service"
	KeyErrRateLimited       = "error.rate_limited"
	KeyErrPayloadRejected   = "error.payload_rejected"
	KeyErrInternal          = "error.internal"

	// Admission
	KeyAuthInvalidToken   = "auth.invalid_token"
	KeyPayloadTooLarge    = "payload.too_large"
	KeyPayloadContentType = "payload.content_type"
	KeyRouteNotFound      = "route.not_found"
	KeyMethodNotAllowed   = "route.method_not_allowed"
)
