// Package pipeline runs one repository event through policy resolution,
// classification, checklist synthesis, payload building and delivery.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/nahidhasan98/checklist-notifier/internal/checklist"
	"github.com/nahidhasan98/checklist-notifier/internal/classify"
	"github.com/nahidhasan98/checklist-notifier/internal/delivery"
	"github.com/nahidhasan98/checklist-notifier/internal/logger"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
	"github.com/nahidhasan98/checklist-notifier/internal/notify"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
	"github.com/nahidhasan98/checklist-notifier/internal/scm"
	"github.com/nahidhasan98/checklist-notifier/internal/teams"
)

// Terminal outcomes of an event
var (
	ErrUnconfigured       = errors.New("repository has no policy")
	ErrBranchNotMonitored = errors.New("branch is not monitored")
	ErrUpstreamFetch      = errors.New("failed to fetch changes")
	ErrDelivery           = errors.New("failed to deliver notification")
)

// Outcome is everything computed for one event
type Outcome struct {
	Repository     string                  `json:"repository"`
	Branch         string                  `json:"branch"`
	Files          []models.ChangedFile    `json:"files"`
	Classification classify.Classification `json:"classification"`
	Checklist      checklist.Result        `json:"checklist"`
	Assignments    teams.Assignments       `json:"assignments"`
	Fragments      []notify.Fragment       `json:"fragments"`
}

// Deps are the collaborators of a pipeline. Source and Target may be nil:
// without a source events must carry their files, without a target
// nothing is delivered.
type Deps struct {
	Policies    *policy.Resolver
	Synthesizer *checklist.Synthesizer
	Source      scm.Source
	Target      delivery.Target
	Log         *logger.Logger
}

// Pipeline processes events. It holds no per-event state and is safe for
// concurrent use.
type Pipeline struct {
	policies    *policy.Resolver
	classifier  *classify.Classifier
	teams       *teams.Resolver
	synthesizer *checklist.Synthesizer
	builder     *notify.Builder
	source      scm.Source
	target      delivery.Target
	log         *logger.Logger
}

// New creates a pipeline
func New(deps Deps) *Pipeline {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	policies := deps.Policies
	if policies == nil {
		policies = policy.NewResolver(nil)
	}
	synth := deps.Synthesizer
	if synth == nil {
		synth = checklist.New(checklist.Disabled(), log)
	}

	return &Pipeline{
		policies:    policies,
		classifier:  classify.New(nil),
		teams:       teams.NewResolver(nil),
		synthesizer: synth,
		builder:     notify.NewBuilder(log),
		source:      deps.Source,
		target:      deps.Target,
		log:         log,
	}
}

// Process handles one event end to end and delivers the notification
func (p *Pipeline) Process(ctx context.Context, event models.Event) (*Outcome, error) {
	log := p.log.With("repository", event.Repository).With("branch", event.Branch)

	pol, err := p.admit(event)
	if err != nil {
		log.Info(err.Error())
		return nil, err
	}

	files, event, err := p.fetch(ctx, event)
	if err != nil {
		log.Error("Abandoning event", err)
		return nil, err
	}

	outcome := p.analyze(ctx, event, files, pol)
	log.With("risk", outcome.Classification.RiskLevel).
		With("scope", outcome.Classification.Scope).
		Infof("Classified %d files into %d fragments", len(files), len(outcome.Fragments))

	if p.target == nil {
		return outcome, nil
	}

	dest := delivery.Destination{WebhookURL: pol.WebhookURL, WhatsAppRecipient: pol.WhatsAppRecipient}
	if err := p.target.Deliver(ctx, dest, outcome.Fragments); err != nil {
		log.Error("Notification delivery failed", err)
		return outcome, fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	return outcome, nil
}

// Preview runs the core on an event without fetching or delivering
func (p *Pipeline) Preview(ctx context.Context, event models.Event) (*Outcome, error) {
	pol, ok := p.policies.Resolve(event.Repository)
	if !ok {
		return nil, ErrUnconfigured
	}
	return p.analyze(ctx, event, models.Coalesce(event.Files), pol), nil
}

func (p *Pipeline) admit(event models.Event) (*policy.Policy, error) {
	pol, ok := p.policies.Resolve(event.Repository)
	if !ok {
		return nil, ErrUnconfigured
	}
	if !pol.MonitorsBranch(event.Branch) {
		return nil, ErrBranchNotMonitored
	}
	return pol, nil
}

// fetch fills in files and commits from the source-control host when the
// event does not carry them
func (p *Pipeline) fetch(ctx context.Context, event models.Event) ([]models.ChangedFile, models.Event, error) {
	if len(event.Files) > 0 || event.FilesFromPayload || p.source == nil {
		return models.Coalesce(event.Files), event, nil
	}

	owner, repo, err := scm.SplitRepository(event.Repository)
	if err != nil {
		return nil, event, fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}

	var changes scm.Changes
	switch {
	case event.Number > 0:
		changes, err = p.source.PullRequestChanges(ctx, owner, repo, event.Number)
	case !models.IsZeroRevision(event.Before) && !models.IsZeroRevision(event.After):
		changes, err = p.source.CompareChanges(ctx, owner, repo, event.Before, event.After)
	default:
		return nil, event, nil
	}
	if err != nil {
		return nil, event, fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}

	if len(changes.Commits) > 0 {
		event.Commits = changes.Commits
	}
	if event.CommitURL == "" {
		event.CommitURL = changes.URL
	}
	return models.Coalesce(changes.Files), event, nil
}

// analyze is the pure core: classification and team assignment over the
// same files, then synthesis and payload building
func (p *Pipeline) analyze(ctx context.Context, event models.Event, files []models.ChangedFile, pol *policy.Policy) *Outcome {
	classification := p.classifier.Classify(files, pol)
	assignments := p.teams.Assign(files, pol)

	result := p.synthesizer.Synthesize(ctx, checklist.Input{
		Repository:     event.Repository,
		Branch:         event.Branch,
		Files:          files,
		Commits:        event.Commits,
		Policy:         pol,
		Classification: classification,
	})

	fragments := p.builder.Build(notify.Message{
		Project:        pol.DisplayName(),
		Repository:     event.Repository,
		Branch:         event.Branch,
		CommitURL:      event.CommitURL,
		Files:          files,
		Commits:        event.Commits,
		Classification: classification,
		Checklist:      result,
		Assignments:    assignments,
	})

	return &Outcome{
		Repository:     event.Repository,
		Branch:         event.Branch,
		Files:          files,
		Classification: classification,
		Checklist:      result,
		Assignments:    assignments,
		Fragments:      fragments,
	}
}
