// internal/services/pipeline.go
package services

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/javajoker/story-txprep/internal/config"
	"github.com/javajoker/story-txprep/internal/models"
	"github.com/javajoker/story-txprep/internal/utils"
)

var tracer = otel.Tracer("github.com/javajoker/story-txprep/internal/services")

// Pipeline runs validate, stage, assemble and build for any operation.
type Pipeline struct {
	validator *SchemaValidator
	deps      *StageDeps
	builder   *TransactionBuilder
}

func NewPipeline(validator *SchemaValidator, deps *StageDeps, builder *TransactionBuilder) *Pipeline {
	return &Pipeline{
		validator: validator,
		deps:      deps,
		builder:   builder,
	}
}

func (p *Pipeline) Network() *config.Network {
	return p.deps.Network
}

func (p *Pipeline) StoreName() string {
	return p.deps.Store.Name()
}

// Execute prepares an unsigned transaction for op from the raw request body.
// Errors are always *AppError.
func (p *Pipeline) Execute(ctx context.Context, op *Operation, raw []byte) (*models.SuccessResponse, error) {
	ctx, span := tracer.Start(ctx, "pipeline."+string(op.Kind),
		trace.WithAttributes(attribute.String("operation", string(op.Kind))))
	defer span.End()

	log := utils.Logger(ctx).WithField("operation", op.Kind)
	started := time.Now()

	resp, err := p.execute(ctx, log, op, raw)
	if err != nil {
		appErr := AsAppError(err)
		span.RecordError(appErr)
		span.SetStatus(codes.Error, appErr.Code)
		return nil, appErr
	}

	log.WithField("duration_ms", time.Since(started).Milliseconds()).Debug("Transaction prepared")
	return resp, nil
}

func (p *Pipeline) execute(ctx context.Context, log *logrus.Entry, op *Operation, raw []byte) (*models.SuccessResponse, error) {
	var input any
	err := p.traced(ctx, "pipeline.validate", func(context.Context) (err error) {
		input, err = p.validator.Validate(op.Schema, raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Request validated")

	var staged *Staged
	err = p.traced(ctx, "pipeline.stage", func(ctx context.Context) (err error) {
		staged, err = op.Stage(ctx, p.deps, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.WithField("uploads", len(staged.UploadedFiles)).Debug("Content staged")

	var call *ProtocolCall
	err = p.traced(ctx, "pipeline.assemble", func(context.Context) (err error) {
		call, err = op.Assemble(p.deps.Network, input, staged)
		return err
	})
	if err != nil {
		return nil, err
	}

	from, err := signerOf(input)
	if err != nil {
		return nil, err
	}

	var built *Built
	err = p.traced(ctx, "pipeline.build", func(ctx context.Context) (err error) {
		built, err = p.builder.Build(ctx, call, from, op.DefaultGas)
		return err
	})
	if err != nil {
		return nil, err
	}

	additional := map[string]any{
		"operation": string(op.Kind),
		"network":   p.deps.Network.Name,
		"contract":  call.Contract,
		"method":    call.Method,
	}
	maps.Copy(additional, call.Additional)
	maps.Copy(additional, built.Additional)
	if p.deps.Store.Name() == config.StoreModeMock {
		additional["contentStore"] = config.StoreModeMock
	}

	return &models.SuccessResponse{
		Success:        true,
		Transaction:    built.Transaction,
		Metadata:       staged.Metadata,
		UploadedFiles:  staged.UploadedFiles,
		AdditionalData: additional,
	}, nil
}

func (p *Pipeline) traced(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name)
		return err
	}
	return nil
}

func signerOf(input any) (common.Address, error) {
	s, ok := input.(signer)
	if !ok {
		return common.Address{}, NewInternalError(fmt.Errorf("%T has no signer", input))
	}
	return common.HexToAddress(s.SignerAddress()), nil
}
