package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/checklist-notifier/internal/classify"
	"github.com/nahidhasan98/checklist-notifier/internal/pipeline"
	"github.com/nahidhasan98/checklist-notifier/internal/policy"
)

const testPolicy = `repository: acme/api
name: Acme API
monitoredBranches: [main]
criticalPatterns:
  - app/auth/*
checklistRules:
  - pattern: app/auth/*
    items:
      - Verify login and logout flows
teams:
  backend:
    patterns: [app/*]
    recipients: ["@backend"]
whatsappRecipient: not-a-jid
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("AI_ENDPOINT", "")
	t.Setenv("AI_API_KEY", "")

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	policies := t.TempDir()
	writeFile(t, policies, "acme.yaml", testPolicy)
	event := writeFile(t, t.TempDir(), "push.json",
		`{"repository":"acme/api","branch":"main","files":[{"path":"app/auth/login.go","additions":10,"deletions":2}],"commits":[{"message":"Harden login"}]}`)

	out, err := run(t, "classify", "--event", event, "--policies", policies)
	require.NoError(t, err)

	var outcome pipeline.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, classify.RiskCritical, outcome.Classification.RiskLevel)
	assert.Contains(t, outcome.Checklist.Primary.Items, "Verify login and logout flows")
	assert.Contains(t, outcome.Assignments, "backend")
	assert.NotEmpty(t, outcome.Fragments)
}

func TestClassifyCommand_Text(t *testing.T) {
	policies := t.TempDir()
	writeFile(t, policies, "acme.yaml", testPolicy)
	event := writeFile(t, t.TempDir(), "push.yaml", "repository: acme/api\nbranch: main\nfiles:\n  - path: docs/readme.md\n")

	out, err := run(t, "classify", "--event", event, "--policies", policies, "--text")
	require.NoError(t, err)
	assert.Contains(t, out, "*📋 Change Summary*")
	assert.Contains(t, out, "docs/readme.md")
	assert.NotContains(t, out, "<@&backend>")
}

func TestClassifyCommand_Errors(t *testing.T) {
	policies := t.TempDir()
	writeFile(t, policies, "acme.yaml", testPolicy)
	dir := t.TempDir()

	_, err := run(t, "classify", "--policies", policies)
	assert.Error(t, err, "event flag is required")

	unknown := writeFile(t, dir, "other.json", `{"repository":"acme/web","branch":"main"}`)
	_, err = run(t, "classify", "--event", unknown, "--policies", policies)
	assert.ErrorIs(t, err, pipeline.ErrUnconfigured)

	invalid := writeFile(t, dir, "invalid.json", `{"repository":"acme","branch":"main"}`)
	_, err = run(t, "classify", "--event", invalid, "--policies", policies)
	assert.Error(t, err)
}

func TestPoliciesValidateCommand(t *testing.T) {
	policies := t.TempDir()
	writeFile(t, policies, "acme.yaml", testPolicy)
	writeFile(t, policies, "web.json", `{"repository":"acme/web","webhookUrl":"http://chat.example/hook"}`)

	out, err := run(t, "policies", "validate", "--policies", policies)
	require.NoError(t, err)
	assert.Contains(t, out, `acme/api: whatsappRecipient "not-a-jid" is not a valid JID`)
	assert.Contains(t, out, "acme/web: no monitored branches")
	assert.Contains(t, out, "acme/web: webhookUrl should use https")
	assert.Contains(t, out, "2 policies valid")
}

func TestPoliciesValidateCommand_Invalid(t *testing.T) {
	policies := t.TempDir()
	writeFile(t, policies, "bad.yaml", "repository: no-slash\n")

	_, err := run(t, "policies", "validate", "--policies", policies)
	assert.ErrorContains(t, err, "owner/name")
}

func TestPolicyWarnings_Duplicates(t *testing.T) {
	warnings := policyWarnings([]policy.Policy{
		{Repository: "acme/api", MonitoredBranches: []string{"main"}},
		{Repository: "acme/api", MonitoredBranches: []string{"main"}},
	})
	assert.Equal(t, []string{"acme/api: declared more than once, only the first policy is used"}, warnings)
}
