package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nahidhasan98/checklist-notifier/internal/models"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
)

func testPolicy() *policy.Policy {
	return &policy.Policy{
		Repository: "acme/api",
		Teams: map[string]policy.Team{
			"backend":  {Patterns: []string{"api/*", "db/"}, Recipients: []string{"111", "@backend"}},
			"frontend": {Patterns: []string{"web/*"}, Recipients: []string{"<@222>", "111"}},
			"infra":    {Patterns: []string{"deploy/*"}, Recipients: []string{"333"}},
		},
	}
}

func TestAssign(t *testing.T) {
	files := []models.ChangedFile{
		{Path: "api/users.go"},
		{Path: "web/app.tsx"},
		{Path: "db/migrations/001.sql"},
		{Path: "README.md"},
	}

	got := NewResolver(nil).Assign(files, testPolicy())

	assert.Equal(t, []string{"backend", "frontend"}, got.TeamIDs())
	assert.Equal(t, []string{"api/users.go", "db/migrations/001.sql"}, got["backend"].MatchedFiles)
	assert.Equal(t, []string{"111", "@backend"}, got["backend"].Recipients)
	assert.Equal(t, []string{"web/app.tsx"}, got["frontend"].MatchedFiles)
	assert.NotContains(t, got, "infra")
}

func TestAssign_RecipientsAreCopied(t *testing.T) {
	p := testPolicy()
	got := NewResolver(nil).Assign([]models.ChangedFile{{Path: "deploy/k8s.yaml"}}, p)

	a := got["infra"]
	a.Recipients[0] = "mutated"

	assert.Equal(t, "333", p.Teams["infra"].Recipients[0])
}

func TestAssign_Empty(t *testing.T) {
	r := NewResolver(nil)
	assert.Empty(t, r.Assign(nil, testPolicy()))
	assert.Empty(t, r.Assign([]models.ChangedFile{{Path: "x"}}, nil))
	assert.Empty(t, r.Assign([]models.ChangedFile{{Path: "x"}}, &policy.Policy{}))
}

func TestAssignments_Recipients(t *testing.T) {
	files := []models.ChangedFile{{Path: "api/a.go"}, {Path: "web/b.ts"}}
	got := NewResolver(nil).Assign(files, testPolicy())

	assert.Equal(t, []string{"111", "@backend", "<@222>"}, got.Recipients())
}
