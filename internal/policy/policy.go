package policy

import (
	"slices"
	"sort"
)

// Policy governs how changes to one repository are classified and announced
type Policy struct {
	Repository                 string          `json:"repository" yaml:"repository"`
	Name                       string          `json:"name,omitempty" yaml:"name,omitempty"`
	Description                string          `json:"description,omitempty" yaml:"description,omitempty"`
	MonitoredBranches          []string        `json:"monitoredBranches" yaml:"monitoredBranches"`
	CriticalPatterns           []string        `json:"criticalPatterns,omitempty" yaml:"criticalPatterns,omitempty"`
	LowRiskPatterns            []string        `json:"lowRiskPatterns,omitempty" yaml:"lowRiskPatterns,omitempty"`
	ChecklistRules             []ChecklistRule `json:"checklistRules,omitempty" yaml:"checklistRules,omitempty"`
	Teams                      map[string]Team `json:"teams,omitempty" yaml:"teams,omitempty"`
	SuppressSecondaryChecklist bool            `json:"suppressSecondaryChecklist,omitempty" yaml:"suppressSecondaryChecklist,omitempty"`

	// Delivery overrides; empty values fall back to the global defaults
	WebhookURL        string `json:"webhookUrl,omitempty" yaml:"webhookUrl,omitempty"`
	WhatsAppRecipient string `json:"whatsappRecipient,omitempty" yaml:"whatsappRecipient,omitempty"`
}

// ChecklistRule attaches checklist items to files matching a pattern
type ChecklistRule struct {
	Pattern string   `json:"pattern" yaml:"pattern"`
	Items   []string `json:"items" yaml:"items"`
}

// Team owns files matching its patterns and is notified through its recipients
type Team struct {
	Patterns   []string `json:"patterns" yaml:"patterns"`
	Recipients []string `json:"recipients,omitempty" yaml:"recipients,omitempty"`
}

// DisplayName returns the project name, or the repository when unnamed
func (p *Policy) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Repository
}

// MonitorsBranch reports whether events on branch should be processed
func (p *Policy) MonitorsBranch(branch string) bool {
	return slices.Contains(p.MonitoredBranches, branch)
}

// TeamIDs returns the declared team identifiers in sorted order
func (p *Policy) TeamIDs() []string {
	ids := make([]string, 0, len(p.Teams))
	for id := range p.Teams {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
