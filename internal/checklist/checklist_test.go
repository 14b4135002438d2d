package checklist

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/checklist-notifier/internal/ai"
	"github.com/nahidhasan98/checklist-notifier/internal/classify"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
)

type fakeClient struct {
	content string
	err     error
	block   bool
	last    ai.Request
	calls   int
}

func (f *fakeClient) Complete(ctx context.Context, req ai.Request) (ai.Response, error) {
	f.calls++
	f.last = req
	if f.block {
		<-ctx.Done()
		return ai.Response{}, ctx.Err()
	}
	if f.err != nil {
		return ai.Response{}, f.err
	}
	return ai.Response{Content: f.content}, nil
}

func (f *fakeClient) Name() string { return "fake" }

func files(paths ...string) []models.ChangedFile {
	out := make([]models.ChangedFile, 0, len(paths))
	for _, p := range paths {
		out = append(out, models.ChangedFile{Path: p, Additions: 1})
	}
	return out
}

func testPolicy() *policy.Policy {
	return &policy.Policy{
		Repository: "acme/api",
		ChecklistRules: []policy.ChecklistRule{
			{Pattern: "api/*", Items: []string{"Verify API contract", "Update docs", "Check error codes"}},
			{Pattern: "*.go", Items: []string{"Run go vet", "Verify API contract", "Check logging"}},
			{Pattern: "web/*", Items: []string{"Test in browser"}},
		},
	}
}

func significant() classify.Classification {
	return classify.Classification{RiskLevel: classify.RiskModerate, Scope: classify.ScopeSignificant}
}

func TestRuleItems_OrderAndDedup(t *testing.T) {
	items := RuleItems(nil, files("api/handler.go"), testPolicy().ChecklistRules)
	assert.Equal(t, []string{
		"Verify API contract", "Update docs", "Check error codes", "Run go vet", "Check logging",
	}, items)
}

func TestRuleItems_NoMatch(t *testing.T) {
	items := RuleItems(nil, files("README.md"), testPolicy().ChecklistRules)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFilterByScope(t *testing.T) {
	items := []string{"Run tests", "Verify output", "Update docs", "CHECK logs", "Verify again", "Six", "Seven"}

	minimal := FilterByScope(items, classify.Classification{RiskLevel: classify.RiskLow, Scope: classify.ScopeMinimal})
	assert.Equal(t, []string{"Verify output", "CHECK logs"}, minimal)

	moderate := FilterByScope(items, classify.Classification{RiskLevel: classify.RiskModerate, Scope: classify.ScopeModerate})
	assert.Equal(t, items[:5], moderate)

	all := FilterByScope(items, significant())
	assert.Equal(t, items, all)

	// minimal scope without low risk is left unfiltered
	other := FilterByScope(items, classify.Classification{RiskLevel: classify.RiskModerate, Scope: classify.ScopeMinimal})
	assert.Equal(t, items, other)
}

func TestSynthesize_NotConfigured(t *testing.T) {
	s := New(Disabled(), nil)
	in := Input{Repository: "acme/api", Files: files("api/a.go", "api/b.go"), Policy: testPolicy(), Classification: significant()}

	got := s.Synthesize(context.Background(), in)

	assert.Equal(t, "Changes to 2 files in acme/api", got.Summary)
	assert.Equal(t, SourceRules, got.Source)
	assert.Len(t, got.Primary.Items, 5)
	require.NotNil(t, got.Secondary)
	assert.Equal(t, GenericTesterChecklist, got.Secondary.Items)
}

func TestSynthesize_Success(t *testing.T) {
	client := &fakeClient{content: "```json\n" + `{"changeSummary":"Adds endpoint","developerChecklist":["Run go vet","Add tests"],"testerChecklist":["Hit the endpoint"]}` + "\n```"}
	s := New(Enabled(client), nil)
	in := Input{Repository: "acme/api", Files: files("api/a.go"), Policy: testPolicy(), Classification: significant()}

	got := s.Synthesize(context.Background(), in)

	assert.Equal(t, SourceAI, got.Source)
	assert.Equal(t, "Adds endpoint", got.Summary)
	assert.Equal(t, []string{
		"Verify API contract", "Update docs", "Check error codes", "Run go vet", "Check logging", "Add tests",
	}, got.Primary.Items)
	require.NotNil(t, got.Secondary)
	assert.Equal(t, []string{"Hit the endpoint"}, got.Secondary.Items)
	assert.Contains(t, client.last.SystemPrompt, "testerChecklist")
	assert.Contains(t, client.last.UserPrompt, "api/a.go (+1/-0)")
}

func TestSynthesize_MalformedOutput(t *testing.T) {
	client := &fakeClient{content: "Sorry, I cannot help with that."}
	s := New(Enabled(client), nil)
	in := Input{Repository: "acme/api", Files: files("api/a.go"), Policy: testPolicy(), Classification: significant()}

	got := s.Synthesize(context.Background(), in)

	assert.Equal(t, SourceAI, got.Source)
	assert.Equal(t, "", got.Summary)
	assert.Len(t, got.Primary.Items, 5)
	require.NotNil(t, got.Secondary)
	assert.Empty(t, got.Secondary.Items)
	assert.False(t, got.IsError())
}

func TestSynthesize_CollaboratorFailure(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	s := New(Enabled(client), nil)
	in := Input{Repository: "acme/api", Files: files("api/a.go"), Policy: testPolicy(), Classification: significant()}

	got := s.Synthesize(context.Background(), in)

	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, "⚠️ Error generating checklist: connection refused", got.Summary)
	assert.True(t, got.IsError())
	assert.Len(t, got.Primary.Items, 5)
	require.NotNil(t, got.Secondary)
	assert.Equal(t, GenericTesterChecklist, got.Secondary.Items)
	assert.Equal(t, 1, client.calls)
}

func TestSynthesize_TimeoutFallsBack(t *testing.T) {
	client := &fakeClient{block: true}
	s := New(Enabled(client), nil, WithTimeout(10*time.Millisecond))
	in := Input{Repository: "acme/api", Files: files("api/a.go"), Policy: testPolicy(), Classification: significant()}

	got := s.Synthesize(context.Background(), in)

	assert.Equal(t, SourceFallback, got.Source)
	assert.True(t, strings.HasPrefix(got.Summary, ErrorSummaryPrefix))
	assert.Contains(t, got.Summary, "deadline exceeded")
}

func TestSynthesize_SuppressedSecondaryIsAbsent(t *testing.T) {
	p := testPolicy()
	p.SuppressSecondaryChecklist = true
	in := Input{Repository: "acme/api", Files: files("api/a.go"), Policy: p, Classification: significant()}

	success := &fakeClient{content: `{"changeSummary":"x","developerChecklist":[],"testerChecklist":["ignored"]}`}

	tests := []struct {
		name string
		aug  Augmentation
	}{
		{"not configured", Disabled()},
		{"success", Enabled(success)},
		{"failure", Enabled(&fakeClient{err: errors.New("boom")})},
		{"malformed", Enabled(&fakeClient{content: "nope"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.aug, nil).Synthesize(context.Background(), in)
			assert.Nil(t, got.Secondary)
		})
	}

	assert.NotContains(t, success.last.SystemPrompt, "testerChecklist")
}

func TestSynthesize_LowRiskMinimal(t *testing.T) {
	p := &policy.Policy{Repository: "acme/docs", LowRiskPatterns: []string{"*.md"}}
	fs := files("README.md", "CHANGELOG.md")
	c := classify.New(nil).Classify(fs, p)
	require.Equal(t, classify.RiskLow, c.RiskLevel)
	require.Equal(t, classify.ScopeMinimal, c.Scope)

	got := New(Disabled(), nil).Synthesize(context.Background(), Input{Repository: "acme/docs", Files: fs, Policy: p, Classification: c})

	assert.Empty(t, got.Primary.Items)
	assert.Equal(t, "Changes to 2 files in acme/docs", got.Summary)
}

func TestSynthesize_NilPolicy(t *testing.T) {
	got := New(Disabled(), nil).Synthesize(context.Background(), Input{Repository: "acme/x"})
	assert.Equal(t, "Changes to 0 files in acme/x", got.Summary)
	assert.NotNil(t, got.Primary.Items)
	assert.NotNil(t, got.Secondary)
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ok      bool
		want    Suggestions
	}{
		{
			name:    "plain object",
			content: `{"changeSummary":" Summary ","developerChecklist":["a"],"testerChecklist":["b"]}`,
			ok:      true,
			want:    Suggestions{ChangeSummary: "Summary", DeveloperChecklist: []string{"a"}, TesterChecklist: []string{"b"}},
		},
		{
			name:    "prose around object",
			content: "Here you go:\n{\"changeSummary\":\"s\"}\nThanks",
			ok:      true,
			want:    Suggestions{ChangeSummary: "s", DeveloperChecklist: []string{}, TesterChecklist: []string{}},
		},
		{
			name:    "wrong field types",
			content: `{"changeSummary":42,"developerChecklist":"a","testerChecklist":[1,"ok",""]}`,
			ok:      true,
			want:    Suggestions{DeveloperChecklist: []string{}, TesterChecklist: []string{"ok", ""}},
		},
		{
			name:    "items kept verbatim",
			content: `{"developerChecklist":["  Run migrations "],"testerChecklist":[" Check **bold** flow  ","Check **bold** flow"]}`,
			ok:      true,
			want: Suggestions{
				DeveloperChecklist: []string{"  Run migrations "},
				TesterChecklist:    []string{" Check **bold** flow  ", "Check **bold** flow"},
			},
		},
		{
			name:    "not json",
			content: "nope",
			ok:      false,
			want:    Suggestions{DeveloperChecklist: []string{}, TesterChecklist: []string{}},
		},
		{
			name:    "empty",
			content: "",
			ok:      false,
			want:    Suggestions{DeveloperChecklist: []string{}, TesterChecklist: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseResponse(tt.content)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildUserPrompt(t *testing.T) {
	p := testPolicy()
	p.Name = "Acme API"
	p.Description = "Public REST API"
	in := Input{
		Repository:     "acme/api",
		Branch:         "main",
		Files:          files("api/a.go"),
		Commits:        []models.Commit{{Message: "Add endpoint\n\nLonger body"}},
		Policy:         p,
		Classification: significant(),
	}

	prompt := BuildUserPrompt(in, p)

	assert.Contains(t, prompt, "Project: Acme API")
	assert.Contains(t, prompt, "Description: Public REST API")
	assert.Contains(t, prompt, "Branch: main")
	assert.Contains(t, prompt, "- Scope: significant")
	assert.Contains(t, prompt, "  - Verify API contract")
	assert.Contains(t, prompt, "Add endpoint")
	assert.NotContains(t, prompt, "developerChecklist only")
}
