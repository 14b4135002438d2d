package teams

import (
	"sort"

	"github.com/nahidhasan98/checklist-notifier/internal/models"
	"github.com/nahidhasan98/checklist-notifier/internal/pattern"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
)

// Assignment lists the files a team owns in a change set and who to notify
type Assignment struct {
	Recipients   []string `json:"recipients"`
	MatchedFiles []string `json:"matched_files"`
}

// Assignments maps team identifiers to their assignment
type Assignments map[string]Assignment

// Resolver maps changed files to owning teams
type Resolver struct {
	matcher pattern.Matcher
}

// NewResolver creates a resolver. A nil matcher selects pattern.Default.
func NewResolver(m pattern.Matcher) *Resolver {
	if m == nil {
		m = pattern.Default
	}
	return &Resolver{matcher: m}
}

// Assign returns the teams owning at least one of files.
// Recipients are copied verbatim from the policy.
func (r *Resolver) Assign(files []models.ChangedFile, p *policy.Policy) Assignments {
	result := make(Assignments)
	if p == nil {
		return result
	}

	for id, team := range p.Teams {
		var matched []string
		for _, f := range files {
			if pattern.MatchAny(r.matcher, f.Path, team.Patterns) {
				matched = append(matched, f.Path)
			}
		}
		if len(matched) == 0 {
			continue
		}
		result[id] = Assignment{
			Recipients:   append([]string(nil), team.Recipients...),
			MatchedFiles: matched,
		}
	}

	return result
}

// TeamIDs returns the assigned team identifiers in sorted order
func (a Assignments) TeamIDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Recipients returns every recipient token across teams, in team order,
// without duplicates
func (a Assignments) Recipients() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, id := range a.TeamIDs() {
		for _, r := range a[id].Recipients {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}
