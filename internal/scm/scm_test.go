package scm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/checklist-notifier/internal/models"
)

func newTestSource(t *testing.T, mux *http.ServeMux) *GitHub {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	g, err := NewGitHub(Options{Token: "test-token", APIURL: server.URL, HTTPClient: server.Client()})
	require.NoError(t, err)
	return g
}

func TestPullRequestChanges(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"number":42,"html_url":"https://github.com/acme/api/pull/42","merged":true}`)
	})
	mux.HandleFunc("/repos/acme/api/pulls/42/files", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"filename":"api/a.go","additions":1,"deletions":1}]`)
			return
		}
		w.Header().Set("Link", `<`+"http://"+r.Host+r.URL.Path+`?page=2>; rel="next"`)
		fmt.Fprint(w, `[{"filename":"api/a.go","additions":10,"deletions":2},{"filename":"README.md","additions":1}]`)
	})
	mux.HandleFunc("/repos/acme/api/pulls/42/commits", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"sha":"abc","html_url":"https://github.com/acme/api/commit/abc","commit":{"message":"Add endpoint\n\nDetails"}}]`)
	})

	changes, err := newTestSource(t, mux).PullRequestChanges(context.Background(), "acme", "api", 42)
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/acme/api/pull/42", changes.URL)
	assert.Equal(t, []models.ChangedFile{
		{Path: "api/a.go", Additions: 11, Deletions: 3},
		{Path: "README.md", Additions: 1},
	}, changes.Files)
	require.Len(t, changes.Commits, 1)
	assert.Equal(t, "abc", changes.Commits[0].ID)
	assert.Equal(t, "Add endpoint", changes.Commits[0].Title())
}

func TestPullRequestChanges_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})

	_, err := newTestSource(t, mux).PullRequestChanges(context.Background(), "acme", "api", 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pull request #7")
}

func TestCompareChanges(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/compare/aaaaaaaaaa...bbbbbbbbbb", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"html_url": "https://github.com/acme/api/compare/aaaaaaa...bbbbbbb",
			"commits": [{"sha":"bbbbbbbbbb","commit":{"message":"Fix login"}}],
			"files": [{"filename":"app/auth/login.js","additions":4,"deletions":4}]
		}`)
	})

	changes, err := newTestSource(t, mux).CompareChanges(context.Background(), "acme", "api", "aaaaaaaaaa", "bbbbbbbbbb")
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/acme/api/compare/aaaaaaa...bbbbbbb", changes.URL)
	assert.Equal(t, []models.ChangedFile{{Path: "app/auth/login.js", Additions: 4, Deletions: 4}}, changes.Files)
	require.Len(t, changes.Commits, 1)
	assert.Equal(t, "Fix login", changes.Commits[0].Message)
}

func TestCompareChanges_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/compare/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := newTestSource(t, mux).CompareChanges(context.Background(), "acme", "api", "aaaaaaaaaa", "bbbbbbbbbb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comparing aaaaaaa...bbbbbbb")
}

func TestSplitRepository(t *testing.T) {
	owner, repo, err := SplitRepository("acme/api")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "api", repo)

	for _, bad := range []string{"", "acme", "acme/", "/api", "a/b/c"} {
		_, _, err := SplitRepository(bad)
		assert.Error(t, err, bad)
	}
}
