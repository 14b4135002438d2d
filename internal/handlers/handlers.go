package handlers

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/nahidhasan98/checklist-notifier/internal/errors"
	"github.com/nahidhasan98/checklist-notifier/internal/logger"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
	"github.com/nahidhasan98/checklist-notifier/internal/pipeline"
	"github.com/nahidhasan98/checklist-notifier/internal/validation"
)

// Processor runs the core over normalized events
type Processor interface {
	Process(ctx context.Context, event models.Event) (*pipeline.Outcome, error)
	Preview(ctx context.Context, event models.Event) (*pipeline.Outcome, error)
}

// StatusReporter reports delivery target readiness
type StatusReporter interface {
	Status() map[string]bool
}

// Options configures the handlers
type Options struct {
	GitHubSecret string
	GiteaSecret  string
	// FetchPushDiffs resolves push file lists through the GitHub API
	// instead of the paths listed in the payload
	FetchPushDiffs bool
	EventTimeout   time.Duration
	PolicyCount    int
	AIConfigured   bool
	Targets        StatusReporter
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	processor Processor
	opts      Options
	log       *logger.Logger
	validator *validation.Validator
}

// New creates a new handler instance
func New(processor Processor, opts Options, log *logger.Logger) *Handler {
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = 60 * time.Second
	}
	return &Handler{
		processor: processor,
		opts:      opts,
		log:       log,
		validator: validation.New(),
	}
}

// appErrorFor maps pipeline failures to application errors
func appErrorFor(err error, event models.Event) *errors.AppError {
	switch {
	case stderrors.Is(err, pipeline.ErrUnconfigured):
		return errors.UnconfiguredRepository(event.Repository)
	case stderrors.Is(err, pipeline.ErrBranchNotMonitored):
		return errors.BranchNotMonitored(event.Branch)
	case stderrors.Is(err, pipeline.ErrUpstreamFetch):
		return errors.UpstreamFetchFailed(err)
	case stderrors.Is(err, pipeline.ErrDelivery):
		return errors.DeliveryFailed(err)
	default:
		return errors.InternalError(err)
	}
}
