// Package classify computes the risk level, scope and impacted teams of a
// change set against a repository policy.
package classify

import (
	"strings"

	"github.com/nahidhasan98/checklist-notifier/internal/models"
	"github.com/nahidhasan98/checklist-notifier/internal/pattern"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
)

// RiskLevel is the risk classification of a change set
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskCritical RiskLevel = "critical"
)

// Scope is the coarse severity bucket of a change set
type Scope string

const (
	ScopeMinimal     Scope = "minimal"
	ScopeModerate    Scope = "moderate"
	ScopeSignificant Scope = "significant"
)

// RuleTier is the risk tier derived from the items of matching checklist rules
type RuleTier string

const (
	TierLow      RuleTier = "low"
	TierModerate RuleTier = "moderate"
	TierHigh     RuleTier = "high"
)

// Thresholds used by scope and rule tier evaluation
const (
	SignificantFileCount = 10
	ModerateFileCount    = 3
	ModerateRuleItems    = 3
)

// RiskKeywords escalate the rule tier to high when found in a rule item
var RiskKeywords = []string{"security", "critical", "auth", "database", "migration"}

// Classification is the derived risk picture of one change set
type Classification struct {
	RiskLevel               RiskLevel `json:"risk_level"`
	Scope                   Scope     `json:"scope"`
	RuleTier                RuleTier  `json:"rule_tier"`
	LowRisk                 bool      `json:"low_risk"`
	FileCount               int       `json:"file_count"`
	MatchedCriticalPatterns []string  `json:"matched_critical_patterns"`
	MatchedLowRiskPatterns  []string  `json:"matched_low_risk_patterns"`
	MatchedRulePatterns     []string  `json:"matched_rule_patterns"`
	ImpactedTeams           []string  `json:"impacted_teams"`
}

// Classifier classifies change sets using a pattern matcher
type Classifier struct {
	matcher pattern.Matcher
}

// New creates a classifier. A nil matcher selects pattern.Default.
func New(m pattern.Matcher) *Classifier {
	if m == nil {
		m = pattern.Default
	}
	return &Classifier{matcher: m}
}

// Classify computes the classification of files under p.
// Files must already be coalesced to one record per path.
func (c *Classifier) Classify(files []models.ChangedFile, p *policy.Policy) Classification {
	if p == nil {
		p = &policy.Policy{}
	}

	result := Classification{
		FileCount:     len(files),
		ImpactedTeams: []string{},
	}

	critical := newOrderedSet()
	lowRisk := newOrderedSet()
	allLowRisk := true

	for _, f := range files {
		for _, cp := range p.CriticalPatterns {
			if c.matcher.Match(f.Path, cp) {
				critical.add(cp)
				break
			}
		}

		fileLowRisk := false
		for _, lp := range p.LowRiskPatterns {
			if c.matcher.Match(f.Path, lp) {
				lowRisk.add(lp)
				fileLowRisk = true
				break
			}
		}
		if !fileLowRisk {
			allLowRisk = false
		}
	}

	result.MatchedCriticalPatterns = critical.items
	result.MatchedLowRiskPatterns = lowRisk.items
	result.LowRisk = allLowRisk

	switch {
	case len(critical.items) > 0:
		result.RiskLevel = RiskCritical
	case allLowRisk:
		result.RiskLevel = RiskLow
	default:
		result.RiskLevel = RiskModerate
	}

	result.RuleTier, result.MatchedRulePatterns = c.ruleTier(files, p.ChecklistRules)
	result.Scope = scopeFor(len(files), result.RiskLevel, result.RuleTier)

	for _, id := range p.TeamIDs() {
		if c.anyFileMatches(files, p.Teams[id].Patterns) {
			result.ImpactedTeams = append(result.ImpactedTeams, id)
		}
	}

	return result
}

// ruleTier evaluates the checklist rules matching at least one file
func (c *Classifier) ruleTier(files []models.ChangedFile, rules []policy.ChecklistRule) (RuleTier, []string) {
	tier := TierLow
	matched := newOrderedSet()

	for _, rule := range rules {
		if !c.anyFileMatches(files, []string{rule.Pattern}) {
			continue
		}
		matched.add(rule.Pattern)

		if containsRiskKeyword(rule.Items) {
			tier = TierHigh
			continue
		}
		if len(rule.Items) > ModerateRuleItems && tier == TierLow {
			tier = TierModerate
		}
	}

	return tier, matched.items
}

func (c *Classifier) anyFileMatches(files []models.ChangedFile, patterns []string) bool {
	for _, f := range files {
		if pattern.MatchAny(c.matcher, f.Path, patterns) {
			return true
		}
	}
	return false
}

func scopeFor(fileCount int, risk RiskLevel, tier RuleTier) Scope {
	switch {
	case fileCount > SignificantFileCount || risk == RiskCritical || tier == TierHigh:
		return ScopeSignificant
	case fileCount > ModerateFileCount || risk != RiskLow || tier == TierModerate:
		return ScopeModerate
	default:
		return ScopeMinimal
	}
}

func containsRiskKeyword(items []string) bool {
	for _, item := range items {
		lower := strings.ToLower(item)
		for _, kw := range RiskKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}
