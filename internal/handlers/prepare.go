// internal/handlers/prepare.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/story-txprep/internal/i18n"
	"github.com/javajoker/story-txprep/internal/services"
	"github.com/javajoker/story-txprep/internal/utils"
)

const contextKeyOperation = "operation"

type PrepareHandler struct {
	pipeline *services.Pipeline
	errors   *ErrorWriter
}

func NewPrepareHandler(pipeline *services.Pipeline, errors *ErrorWriter) *PrepareHandler {
	return &PrepareHandler{
		pipeline: pipeline,
		errors:   errors,
	}
}

// POST /api/v1/prepare/:operation
func (h *PrepareHandler) Prepare(op *services.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKeyOperation, string(op.Kind))

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				lang := utils.GetLangFromContext(c)
				h.errors.Write(c, services.NewPayloadError(http.StatusRequestEntityTooLarge,
					i18n.T(lang, i18n.KeyPayloadTooLarge, utils.FormatBytes(tooLarge.Limit))))
				return
			}
			h.errors.Write(c, services.NewValidationError("request body could not be read", nil))
			return
		}

		resp, err := h.pipeline.Execute(c.Request.Context(), op, body)
		if err != nil {
			h.errors.Write(c, err)
			return
		}
		utils.PreparedResponse(c, resp)
	}
}

// GET /api/v1/prepare/:operation
func (h *PrepareHandler) Docs(op *services.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"operation":     op.Doc,
			"network":       h.pipeline.Network().Name,
			"chainId":       h.pipeline.Network().ChainID,
			"defaultGas":    op.DefaultGas,
			"contentStore":  h.pipeline.StoreName(),
			"responseShape": []string{"transaction", "metadata", "uploadedFiles", "additionalData"},
		})
	}
}

// OPTIONS /api/v1/prepare/:operation
func (h *PrepareHandler) Options(c *gin.Context) {
	c.Header("Allow", "GET, POST, OPTIONS")
	c.Status(http.StatusNoContent)
}

// GET /api/v1/prepare
func (h *PrepareHandler) Index(c *gin.Context) {
	ops := services.Operations()
	docs := make([]services.OperationDoc, len(ops))
	for i, op := range ops {
		docs[i] = op.Doc
	}
	utils.SuccessResponse(c, docs)
}
