package models

import "strings"

// GiteaPushPayload represents the Gitea push webhook payload
type GiteaPushPayload struct {
	Ref        string          `json:"ref"`
	Before     string          `json:"before"`
	After      string          `json:"after"`
	CompareURL string          `json:"compare_url"`
	Commits    []GiteaCommit   `json:"commits"`
	Repository GiteaRepository `json:"repository"`
	Pusher     GiteaUser       `json:"pusher"`
}

// GiteaCommit represents a commit in the Gitea webhook
type GiteaCommit struct {
	ID       string   `json:"id"`
	Message  string   `json:"message"`
	URL      string   `json:"url"`
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// GiteaRepository represents a repository in the Gitea webhook
type GiteaRepository struct {
	ID       int64     `json:"id"`
	Owner    GiteaUser `json:"owner"`
	Name     string    `json:"name"`
	FullName string    `json:"full_name"`
	HTMLURL  string    `json:"html_url"`
}

// GiteaUser represents a user in the Gitea webhook
type GiteaUser struct {
	ID       int64  `json:"id"`
	Login    string `json:"login"`
	FullName string `json:"full_name"`
	Username string `json:"username"`
}

// GetRepositoryName returns the full repository name
func (p GiteaPushPayload) GetRepositoryName() string {
	return p.Repository.FullName
}

// GetBranch returns the branch name without refs/heads/ prefix
func (p GiteaPushPayload) GetBranch() string {
	return strings.TrimPrefix(p.Ref, "refs/heads/")
}

// GetCommits returns commits in a generic format
func (p GiteaPushPayload) GetCommits() []Commit {
	commits := make([]Commit, len(p.Commits))
	for i, c := range p.Commits {
		commits[i] = Commit{
			ID:      c.ID,
			Message: c.Message,
			URL:     c.URL,
		}
	}
	return commits
}

// GetCompareURL returns the compare URL
func (p GiteaPushPayload) GetCompareURL() string {
	return p.CompareURL
}

// GetChangedPaths lists every path touched by the pushed commits
func (p GiteaPushPayload) GetChangedPaths() []ChangedFile {
	var files []ChangedFile
	for _, c := range p.Commits {
		for _, group := range [][]string{c.Added, c.Modified, c.Removed} {
			for _, path := range group {
				files = append(files, ChangedFile{Path: path})
			}
		}
	}
	return Coalesce(files)
}

// GetRevisions returns the before and after revisions of the push
func (p GiteaPushPayload) GetRevisions() (string, string) {
	return p.Before, p.After
}

// IsDeletion reports whether the push deleted the ref
func (p GiteaPushPayload) IsDeletion() bool {
	return IsZeroRevision(p.After)
}
