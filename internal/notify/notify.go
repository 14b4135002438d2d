// Package notify turns a classified change set and its checklist into an
// ordered sequence of size-bounded message fragments.
package notify

import (
	"fmt"
	"strings"

	"github.com/nahidhasan98/checklist-notifier/internal/checklist"
	"github.com/nahidhasan98/checklist-notifier/internal/classify"
	"github.com/nahidhasan98/checklist-notifier/internal/logger"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
	"github.com/nahidhasan98/checklist-notifier/internal/teams"
)

// Platform limits
const (
	MaxBodyLength      = 4096
	MaxPlainTextLength = 2000
)

// List caps for the summary fragment. Headers keep the full count and the
// overflow becomes a single "...and N more" line.
const (
	MaxListedFiles   = 20
	MaxListedCommits = 10
)

// Section titles and placeholders
const (
	SummaryTitle   = "📋 Change Summary"
	PrimaryTitle   = "✅ Developer Checklist"
	SecondaryTitle = "🧪 Tester Checklist"

	NoSummary   = "No summary available"
	NoFiles     = "No files changed"
	NoCommits   = "No commits"
	NoChecklist = "No automated checklist available"
)

// ColorTag identifies how a delivery target should highlight a fragment
type ColorTag string

const (
	ColorInfo      ColorTag = "info"
	ColorError     ColorTag = "error"
	ColorPrimary   ColorTag = "primary"
	ColorSecondary ColorTag = "secondary"
)

// Fragment is one size-bounded unit of a notification
type Fragment struct {
	Title         string   `json:"title,omitempty"`
	Body          string   `json:"body"`
	ColorTag      ColorTag `json:"color_tag"`
	MentionPrefix string   `json:"mention_prefix,omitempty"`
}

// Message carries everything the builder renders
type Message struct {
	Project        string
	Repository     string
	Branch         string
	CommitURL      string
	Files          []models.ChangedFile
	Commits        []models.Commit
	Classification classify.Classification
	Checklist      checklist.Result
	Assignments    teams.Assignments
}

// Builder renders messages into fragments
type Builder struct {
	log *logger.Logger
}

// NewBuilder creates a builder
func NewBuilder(log *logger.Logger) *Builder {
	if log == nil {
		log = logger.Nop()
	}
	return &Builder{log: log}
}

// Build returns the fragments for msg in delivery order. The result is
// never empty.
func (b *Builder) Build(msg Message) []Fragment {
	summaryColor := ColorInfo
	if msg.Checklist.IsError() {
		summaryColor = ColorError
	}

	fragments := section(SummaryTitle, renderSummary(msg), summaryColor)
	fragments = append(fragments, section(PrimaryTitle, renderItems(msg.Checklist.Primary.Items), ColorPrimary)...)
	if msg.Checklist.Secondary != nil {
		fragments = append(fragments, section(SecondaryTitle, renderItems(msg.Checklist.Secondary.Items), ColorSecondary)...)
	}

	prefix, dropped := MentionPrefix(msg.Assignments.Recipients(), MaxPlainTextLength)
	if len(dropped) > 0 {
		b.log.With("repository", msg.Repository).
			With("dropped", len(dropped)).
			Warn("Mention prefix exceeds message limit, some recipients were dropped")
	}
	fragments[0].MentionPrefix = prefix

	return fragments
}

// section splits body into fragments; only the first carries the title
func section(title, body string, color ColorTag) []Fragment {
	chunks := Split(body, MaxBodyLength)
	fragments := make([]Fragment, 0, len(chunks))
	for i, chunk := range chunks {
		f := Fragment{Body: chunk, ColorTag: color}
		if i == 0 {
			f.Title = title
		}
		fragments = append(fragments, f)
	}
	return fragments
}

func renderSummary(msg Message) string {
	var b strings.Builder
	c := msg.Classification

	name := msg.Project
	if name == "" {
		name = msg.Repository
	}
	fmt.Fprintf(&b, "**Project:** %s\n", name)
	if msg.Project != "" && msg.Project != msg.Repository {
		fmt.Fprintf(&b, "**Repository:** %s\n", msg.Repository)
	}
	if msg.Branch != "" {
		fmt.Fprintf(&b, "**Branch:** %s\n", msg.Branch)
	}
	fmt.Fprintf(&b, "**Risk:** %s | **Scope:** %s\n", orUnknown(string(c.RiskLevel)), orUnknown(string(c.Scope)))
	if ids := msg.Assignments.TeamIDs(); len(ids) > 0 {
		fmt.Fprintf(&b, "**Teams:** %s\n", strings.Join(ids, ", "))
	}

	b.WriteString("\n")
	if summary := strings.TrimSpace(msg.Checklist.Summary); summary != "" {
		b.WriteString(summary)
	} else {
		b.WriteString(NoSummary)
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "**Files changed (%d):**\n", len(msg.Files))
	if len(msg.Files) == 0 {
		b.WriteString(NoFiles + "\n")
	}
	for i, f := range msg.Files {
		if i == MaxListedFiles {
			fmt.Fprintf(&b, "...and %d more\n", len(msg.Files)-MaxListedFiles)
			break
		}
		fmt.Fprintf(&b, "• `%s` (+%d/-%d)\n", f.Path, f.Additions, f.Deletions)
	}

	b.WriteString("\n**Commits:**\n")
	if len(msg.Commits) == 0 {
		b.WriteString(NoCommits + "\n")
	}
	for i, commit := range msg.Commits {
		if i == MaxListedCommits {
			fmt.Fprintf(&b, "...and %d more\n", len(msg.Commits)-MaxListedCommits)
			break
		}
		fmt.Fprintf(&b, "• %s\n", commit.Title())
	}

	if msg.CommitURL != "" {
		fmt.Fprintf(&b, "\n[View changes](%s)\n", msg.CommitURL)
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderItems(items []string) string {
	if len(items) == 0 {
		return NoChecklist
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "☐ " + item
	}
	return strings.Join(lines, "\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
