// Package scm fetches changed files and commits from the source-control host.
package scm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v71/github"

	"github.com/nahidhasan98/checklist-notifier/internal/models"
)

const (
	defaultAPIURL = "https://api.github.com/"
	perPage       = 100
	// maxPages bounds pagination; GitHub stops listing pull request files at 3000
	maxPages = 30
)

// Changes is the change set of a pull request or revision range
type Changes struct {
	Files   []models.ChangedFile
	Commits []models.Commit
	URL     string
}

// Source is the source-control collaborator
type Source interface {
	PullRequestChanges(ctx context.Context, owner, repo string, number int) (Changes, error)
	CompareChanges(ctx context.Context, owner, repo, base, head string) (Changes, error)
}

// Options configures the GitHub client
type Options struct {
	Token      string
	APIURL     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// GitHub implements Source over the GitHub REST API
type GitHub struct {
	client *github.Client
}

// NewGitHub creates a GitHub source. An empty token yields an
// unauthenticated client, which only works for public repositories.
func NewGitHub(opts Options) (*GitHub, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	client := github.NewClient(httpClient)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}

	if opts.APIURL != "" && opts.APIURL != defaultAPIURL {
		base, err := url.Parse(strings.TrimRight(opts.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL: %w", err)
		}
		client.BaseURL = base
	}

	return &GitHub{client: client}, nil
}

// PullRequestChanges returns the files and commits of a pull request
func (g *GitHub) PullRequestChanges(ctx context.Context, owner, repo string, number int) (Changes, error) {
	var changes Changes

	pr, _, err := g.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return changes, fmt.Errorf("fetching pull request #%d: %w", number, err)
	}
	changes.URL = pr.GetHTMLURL()

	opts := &github.ListOptions{PerPage: perPage}
	for page := 0; page < maxPages; page++ {
		files, resp, err := g.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return changes, fmt.Errorf("listing files of pull request #%d: %w", number, err)
		}
		changes.Files = append(changes.Files, convertFiles(files)...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	opts = &github.ListOptions{PerPage: perPage}
	for page := 0; page < maxPages; page++ {
		commits, resp, err := g.client.PullRequests.ListCommits(ctx, owner, repo, number, opts)
		if err != nil {
			return changes, fmt.Errorf("listing commits of pull request #%d: %w", number, err)
		}
		changes.Commits = append(changes.Commits, convertCommits(commits)...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	changes.Files = models.Coalesce(changes.Files)
	return changes, nil
}

// CompareChanges returns the files and commits between base and head
func (g *GitHub) CompareChanges(ctx context.Context, owner, repo, base, head string) (Changes, error) {
	var changes Changes

	opts := &github.ListOptions{PerPage: perPage}
	for page := 0; page < maxPages; page++ {
		cmp, resp, err := g.client.Repositories.CompareCommits(ctx, owner, repo, base, head, opts)
		if err != nil {
			return changes, fmt.Errorf("comparing %s...%s: %w", shortSHA(base), shortSHA(head), err)
		}
		if changes.URL == "" {
			changes.URL = cmp.GetHTMLURL()
		}
		changes.Files = append(changes.Files, convertFiles(cmp.Files)...)
		changes.Commits = append(changes.Commits, convertCommits(cmp.Commits)...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	changes.Files = models.Coalesce(changes.Files)
	return changes, nil
}

func convertFiles(files []*github.CommitFile) []models.ChangedFile {
	out := make([]models.ChangedFile, 0, len(files))
	for _, f := range files {
		out = append(out, models.ChangedFile{
			Path:      f.GetFilename(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
		})
	}
	return out
}

func convertCommits(commits []*github.RepositoryCommit) []models.Commit {
	out := make([]models.Commit, 0, len(commits))
	for _, c := range commits {
		out = append(out, models.Commit{
			ID:      c.GetSHA(),
			Message: c.GetCommit().GetMessage(),
			URL:     c.GetHTMLURL(),
		})
	}
	return out
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

// SplitRepository splits "owner/name" into its parts
func SplitRepository(fullName string) (owner, repo string, err error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name: %q", fullName)
	}
	return parts[0], parts[1], nil
}
