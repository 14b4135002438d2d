package models

import "strings"

// GitHubPushPayload represents the GitHub push webhook payload
type GitHubPushPayload struct {
	Ref        string           `json:"ref"`
	Before     string           `json:"before"`
	After      string           `json:"after"`
	Compare    string           `json:"compare"`
	Commits    []GitHubCommit   `json:"commits"`
	HeadCommit *GitHubCommit    `json:"head_commit"`
	Repository GitHubRepository `json:"repository"`
	Pusher     GitHubPusher     `json:"pusher"`
	Sender     GitHubUser       `json:"sender"`
	Created    bool             `json:"created"`
	Deleted    bool             `json:"deleted"`
	Forced     bool             `json:"forced"`
}

// GitHubCommit represents a commit in the GitHub push webhook
type GitHubCommit struct {
	ID        string           `json:"id"`
	Message   string           `json:"message"`
	Timestamp string           `json:"timestamp"`
	URL       string           `json:"url"`
	Author    GitHubCommitUser `json:"author"`
	Committer GitHubCommitUser `json:"committer"`
	Added     []string         `json:"added"`
	Removed   []string         `json:"removed"`
	Modified  []string         `json:"modified"`
}

// GitHubCommitUser represents a user in a commit
type GitHubCommitUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// GitHubRepository represents a repository in GitHub webhooks
type GitHubRepository struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	Private       bool       `json:"private"`
	Owner         GitHubUser `json:"owner"`
	HTMLURL       string     `json:"html_url"`
	DefaultBranch string     `json:"default_branch"`
}

// GitHubUser represents a user in GitHub webhooks
type GitHubUser struct {
	Login   string `json:"login"`
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
	Type    string `json:"type"`
}

// GitHubPusher represents the pusher in the GitHub push webhook
type GitHubPusher struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GitHubPullRequestPayload represents the GitHub pull_request webhook payload
type GitHubPullRequestPayload struct {
	Action      string            `json:"action"`
	Number      int               `json:"number"`
	PullRequest GitHubPullRequest `json:"pull_request"`
	Repository  GitHubRepository  `json:"repository"`
	Sender      GitHubUser        `json:"sender"`
}

// GitHubPullRequest represents the pull request object of the pull_request webhook
type GitHubPullRequest struct {
	Number         int        `json:"number"`
	Title          string     `json:"title"`
	HTMLURL        string     `json:"html_url"`
	State          string     `json:"state"`
	Merged         bool       `json:"merged"`
	MergeCommitSHA string     `json:"merge_commit_sha"`
	User           GitHubUser `json:"user"`
	Base           GitHubRef  `json:"base"`
	Head           GitHubRef  `json:"head"`
}

// GitHubRef represents the base or head ref of a pull request
type GitHubRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// GetRepositoryName returns the full repository name
func (p GitHubPushPayload) GetRepositoryName() string {
	return p.Repository.FullName
}

// GetBranch returns the branch name without refs/heads/ prefix
func (p GitHubPushPayload) GetBranch() string {
	return strings.TrimPrefix(p.Ref, "refs/heads/")
}

// GetCommits returns commits in a generic format
func (p GitHubPushPayload) GetCommits() []Commit {
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

// GetCompareURL returns the compare URL, falling back to the head commit URL
func (p GitHubPushPayload) GetCompareURL() string {
	if p.Compare != "" {
		return p.Compare
	}
	if p.HeadCommit != nil {
		return p.HeadCommit.URL
	}
	return ""
}

// GetChangedPaths lists every path touched by the pushed commits.
// The payload carries no line counts, so every record has zero counts.
func (p GitHubPushPayload) GetChangedPaths() []ChangedFile {
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
func (p GitHubPushPayload) GetRevisions() (string, string) {
	return p.Before, p.After
}

// IsDeletion reports whether the push deleted the ref
func (p GitHubPushPayload) IsDeletion() bool {
	return p.Deleted
}

// IsMergedClose reports whether the event is a pull request being merged
func (p GitHubPullRequestPayload) IsMergedClose() bool {
	return p.Action == "closed" && p.PullRequest.Merged
}

// OwnerLogin returns the repository owner login
func (r GitHubRepository) OwnerLogin() string {
	if r.Owner.Login != "" {
		return r.Owner.Login
	}
	if i := strings.Index(r.FullName, "/"); i > 0 {
		return r.FullName[:i]
	}
	return ""
}
