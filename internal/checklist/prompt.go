package checklist

import (
	"fmt"
	"strings"

	"github.com/nahidhasan98/checklist-notifier/internal/policy"
)

const systemPromptBase = `You are a senior engineer preparing a review checklist for a change that has just landed.

Rules:
1. Only consider the files and commits listed. Do not invent changes.
2. Checklist items must be short, concrete and actionable.
3. Do not repeat items already present in the project rules.
4. Keep the summary to two or three sentences.

You MUST respond with ONLY a JSON object. No markdown, no explanation, no preamble.`

const schemaWithTester = `
The object must have this exact structure:
{
  "changeSummary": "What changed and why it matters",
  "developerChecklist": ["item", "item"],
  "testerChecklist": ["item", "item"]
}`

const schemaWithoutTester = `
The object must have this exact structure:
{
  "changeSummary": "What changed and why it matters",
  "developerChecklist": ["item", "item"]
}`

// maxPromptFiles bounds the file list embedded in the prompt
const maxPromptFiles = 200

// SystemPrompt returns the system prompt. The tester checklist is only
// requested when it will be used.
func SystemPrompt(suppressSecondary bool) string {
	if suppressSecondary {
		return systemPromptBase + schemaWithoutTester
	}
	return systemPromptBase + schemaWithTester
}

// BuildUserPrompt embeds project metadata, the classification, the rule set,
// the changed files and the commit messages
func BuildUserPrompt(in Input, p *policy.Policy) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s\n", p.DisplayName())
	fmt.Fprintf(&b, "Repository: %s\n", repositoryName(in, p))
	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	if in.Branch != "" {
		fmt.Fprintf(&b, "Branch: %s\n", in.Branch)
	}

	c := in.Classification
	b.WriteString("\nClassification:\n")
	fmt.Fprintf(&b, "- Risk level: %s\n", c.RiskLevel)
	fmt.Fprintf(&b, "- Scope: %s\n", c.Scope)
	fmt.Fprintf(&b, "- Files changed: %d\n", len(in.Files))
	if len(c.MatchedCriticalPatterns) > 0 {
		fmt.Fprintf(&b, "- Critical paths touched: %s\n", strings.Join(c.MatchedCriticalPatterns, ", "))
	}
	if len(c.ImpactedTeams) > 0 {
		fmt.Fprintf(&b, "- Impacted teams: %s\n", strings.Join(c.ImpactedTeams, ", "))
	}

	if len(p.ChecklistRules) > 0 {
		b.WriteString("\nProject checklist rules:\n")
		for _, rule := range p.ChecklistRules {
			fmt.Fprintf(&b, "- %s\n", rule.Pattern)
			for _, item := range rule.Items {
				fmt.Fprintf(&b, "  - %s\n", item)
			}
		}
	}

	b.WriteString("\n--- BEGIN FILES ---\n")
	for i, f := range in.Files {
		if i == maxPromptFiles {
			fmt.Fprintf(&b, "...and %d more\n", len(in.Files)-maxPromptFiles)
			break
		}
		fmt.Fprintf(&b, "%s (+%d/-%d)\n", f.Path, f.Additions, f.Deletions)
	}
	b.WriteString("--- END FILES ---\n")

	b.WriteString("\n--- BEGIN COMMITS ---\n")
	for _, commit := range in.Commits {
		b.WriteString(strings.TrimSpace(commit.Message))
		b.WriteString("\n")
	}
	b.WriteString("--- END COMMITS ---\n")

	if p.SuppressSecondaryChecklist {
		b.WriteString("\nReturn changeSummary and developerChecklist only.\n")
	}

	return b.String()
}
