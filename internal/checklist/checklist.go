// Package checklist synthesizes review checklists from policy rules and,
// when a generative-text collaborator is configured, model suggestions.
package checklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nahidhasan98/checklist-notifier/internal/ai"
	"github.com/nahidhasan98/checklist-notifier/internal/classify"
	"github.com/nahidhasan98/checklist-notifier/internal/logger"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
	"github.com/nahidhasan98/checklist-notifier/internal/pattern"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
)

// ErrorSummaryPrefix starts the summary when the collaborator call failed
const ErrorSummaryPrefix = "⚠️ Error generating checklist: "

// Limits applied when filtering rule items by scope
const (
	MinimalItemLimit  = 2
	ModerateItemLimit = 5
)

// minimalKeywords keep an item in a minimal, low-risk change
var minimalKeywords = []string{"verify", "check"}

// GenericTesterChecklist is used whenever no model-generated tester checklist exists
var GenericTesterChecklist = []string{
	"Verify the main user flows touched by this change still work end to end",
	"Check related features for regressions",
	"Confirm error states and edge cases behave as expected",
}

// Source records which path produced a result
type Source string

const (
	SourceRules    Source = "rules"
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Section is an ordered list of checklist items
type Section struct {
	Items []string `json:"items"`
}

// Result is the synthesized checklist for one change set
type Result struct {
	Summary   string   `json:"summary"`
	Primary   Section  `json:"primary"`
	Secondary *Section `json:"secondary,omitempty"` // nil when the policy suppresses it
	Source    Source   `json:"source"`
}

// IsError reports whether the summary describes a collaborator failure
func (r Result) IsError() bool {
	return strings.HasPrefix(r.Summary, ErrorSummaryPrefix)
}

// Augmentation selects whether model suggestions are requested
type Augmentation struct {
	client ai.Client
}

// Disabled returns an augmentation that only uses policy rules
func Disabled() Augmentation {
	return Augmentation{}
}

// Enabled returns an augmentation backed by client
func Enabled(client ai.Client) Augmentation {
	return Augmentation{client: client}
}

// Active reports whether a collaborator is attached
func (a Augmentation) Active() bool {
	return a.client != nil
}

// Input is everything the synthesizer needs for one event
type Input struct {
	Repository     string
	Branch         string
	Files          []models.ChangedFile
	Commits        []models.Commit
	Policy         *policy.Policy
	Classification classify.Classification
}

// Synthesizer builds checklists
type Synthesizer struct {
	matcher      pattern.Matcher
	augmentation Augmentation
	timeout      time.Duration
	maxTokens    int
	log          *logger.Logger
}

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithTimeout bounds the collaborator call
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) { s.timeout = d }
}

// WithMaxTokens sets the completion budget requested from the collaborator
func WithMaxTokens(n int) Option {
	return func(s *Synthesizer) { s.maxTokens = n }
}

// WithMatcher overrides the pattern matcher
func WithMatcher(m pattern.Matcher) Option {
	return func(s *Synthesizer) { s.matcher = m }
}

// New creates a synthesizer
func New(aug Augmentation, log *logger.Logger, opts ...Option) *Synthesizer {
	if log == nil {
		log = logger.Nop()
	}
	s := &Synthesizer{
		matcher:      pattern.Default,
		augmentation: aug,
		timeout:      30 * time.Second,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize produces the checklist for in. It never fails: collaborator
// problems are folded into the result.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) Result {
	p := in.Policy
	if p == nil {
		p = &policy.Policy{Repository: in.Repository}
	}

	items := FilterByScope(RuleItems(s.matcher, in.Files, p.ChecklistRules), in.Classification)

	if !s.augmentation.Active() {
		return Result{
			Summary:   fmt.Sprintf("Changes to %d files in %s", len(in.Files), repositoryName(in, p)),
			Primary:   Section{Items: items},
			Secondary: genericSecondary(p),
			Source:    SourceRules,
		}
	}

	resp, err := s.complete(ctx, in, p)
	if err != nil {
		s.log.With("repository", repositoryName(in, p)).
			With("provider", s.augmentation.client.Name()).
			With("error", err.Error()).
			Warn("Checklist generation failed, using rule-based fallback")
		return Result{
			Summary:   ErrorSummaryPrefix + err.Error(),
			Primary:   Section{Items: items},
			Secondary: genericSecondary(p),
			Source:    SourceFallback,
		}
	}

	parsed, ok := ParseResponse(resp.Content)
	if !ok {
		s.log.With("repository", repositoryName(in, p)).
			Warn("Checklist response was not valid JSON, continuing with normalized fields")
	}

	result := Result{
		Summary: parsed.ChangeSummary,
		Primary: Section{Items: appendUnique(items, parsed.DeveloperChecklist...)},
		Source:  SourceAI,
	}
	if !p.SuppressSecondaryChecklist {
		result.Secondary = &Section{Items: parsed.TesterChecklist}
	}

	return result
}

func (s *Synthesizer) complete(ctx context.Context, in Input, p *policy.Policy) (ai.Response, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return s.augmentation.client.Complete(ctx, ai.Request{
		SystemPrompt: SystemPrompt(p.SuppressSecondaryChecklist),
		UserPrompt:   BuildUserPrompt(in, p),
		MaxTokens:    s.maxTokens,
	})
}

// RuleItems collects the items of every rule matching at least one file,
// in declaration order, keeping the first occurrence of each item
func RuleItems(m pattern.Matcher, files []models.ChangedFile, rules []policy.ChecklistRule) []string {
	if m == nil {
		m = pattern.Default
	}

	items := []string{}
	for _, rule := range rules {
		for _, f := range files {
			if m.Match(f.Path, rule.Pattern) {
				items = appendUnique(items, rule.Items...)
				break
			}
		}
	}
	return items
}

// FilterByScope trims rule items to what the change's scope warrants
func FilterByScope(items []string, c classify.Classification) []string {
	switch {
	case c.Scope == classify.ScopeMinimal && c.RiskLevel == classify.RiskLow:
		kept := []string{}
		for _, item := range items {
			if len(kept) == MinimalItemLimit {
				break
			}
			if containsAny(strings.ToLower(item), minimalKeywords) {
				kept = append(kept, item)
			}
		}
		return kept
	case c.Scope == classify.ScopeModerate:
		if len(items) > ModerateItemLimit {
			return append([]string{}, items[:ModerateItemLimit]...)
		}
		return append([]string{}, items...)
	default:
		return append([]string{}, items...)
	}
}

func genericSecondary(p *policy.Policy) *Section {
	if p.SuppressSecondaryChecklist {
		return nil
	}
	return &Section{Items: append([]string{}, GenericTesterChecklist...)}
}

func repositoryName(in Input, p *policy.Policy) string {
	if in.Repository != "" {
		return in.Repository
	}
	return p.Repository
}

func appendUnique(dst []string, items ...string) []string {
	seen := make(map[string]struct{}, len(dst)+len(items))
	for _, item := range dst {
		seen[item] = struct{}{}
	}
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		dst = append(dst, item)
	}
	return dst
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
