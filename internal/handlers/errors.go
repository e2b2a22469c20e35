// internal/handlers/errors.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/story-txprep/internal/i18n"
	"github.com/javajoker/story-txprep/internal/services"
	"github.com/javajoker/story-txprep/internal/utils"
)

var errorKeys = map[string]string{
	services.CodeValidation:        i18n.KeyErrValidation,
	services.CodeParameter:         i18n.KeyErrParameter,
	services.CodeConfiguration:     i18n.KeyErrConfiguration,
	services.CodeInsufficientFunds: i18n.KeyErrInsufficientFunds,
	services.CodeExternalService:   i18n.KeyErrExternalService,
	services.CodeRateLimited:       i18n.KeyErrRateLimited,
	services.CodePayloadRejected:   i18n.KeyErrPayloadRejected,
	services.CodeInternal:          i18n.KeyErrInternal,
}

// ErrorWriter renders any error as the uniform error envelope. Outside
// development, details are redacted.
type ErrorWriter struct {
	development bool
}

func NewErrorWriter(development bool) *ErrorWriter {
	return &ErrorWriter{development: development}
}

func (w *ErrorWriter) Write(c *gin.Context, err error) {
	appErr := services.AsAppError(err)
	lang := utils.GetLangFromContext(c)

	entry := logrus.WithFields(logrus.Fields{
		"request_id": utils.GetRequestIDFromContext(c),
		"path":       c.Request.URL.Path,
		"error_code": appErr.Code,
		"retryable":  appErr.Retryable,
		"error":      utils.Redact(appErr.Error()),
	})
	if op := c.GetString(contextKeyOperation); op != "" {
		entry = entry.WithField("operation", op)
	}
	if clientCaused(appErr.Kind) {
		entry.Warn("Request rejected")
	} else {
		entry.Error("Request failed")
	}

	var details any
	if len(appErr.Details) > 0 {
		details = appErr.Details
		if !w.development {
			details = utils.Redact(appErr.Details)
		}
	}

	utils.AbortWithError(c, appErr.Status, appErr.Code, w.message(lang, appErr), details, appErr.Retryable)
}

// message keeps the specific text for errors the caller can fix and uses
// the localized generic text for everything else.
func (w *ErrorWriter) message(lang string, e *services.AppError) string {
	switch e.Kind {
	case services.KindValidation, services.KindParameter, services.KindInsufficientFunds,
		services.KindConfiguration, services.KindPayload:
		return e.Message
	case services.KindRateLimited:
		if secs, ok := e.Details["retryAfterSeconds"].(int); ok {
			return i18n.T(lang, i18n.KeyErrRateLimited, secs)
		}
	}
	if key, ok := errorKeys[e.Code]; ok && i18n.Has(lang, key) {
		return i18n.T(lang, key)
	}
	return e.Message
}

func clientCaused(kind services.ErrorKind) bool {
	switch kind {
	case services.KindValidation, services.KindParameter, services.KindInsufficientFunds,
		services.KindPayload, services.KindRateLimited:
		return true
	}
	return false
}
