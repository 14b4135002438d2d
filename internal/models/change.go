package models

import "strings"

// ChangedFile is one file touched by a change set
type ChangedFile struct {
	Path      string `json:"path" yaml:"path"`
	Additions int    `json:"additions" yaml:"additions"`
	Deletions int    `json:"deletions" yaml:"deletions"`
}

// Changes returns the total number of changed lines
func (f ChangedFile) Changes() int {
	return f.Additions + f.Deletions
}

// Commit holds the parts of a commit the notifier uses
type Commit struct {
	ID      string `json:"id,omitempty" yaml:"id,omitempty"`
	Message string `json:"message" yaml:"message"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Title returns the first line of the commit message
func (c Commit) Title() string {
	for i := 0; i < len(c.Message); i++ {
		if c.Message[i] == '\n' {
			return c.Message[:i]
		}
	}
	return c.Message
}

// Event is a normalized repository event ready for classification
type Event struct {
	Repository string        `json:"repository" yaml:"repository"`
	Branch     string        `json:"branch" yaml:"branch"`
	Files      []ChangedFile `json:"files" yaml:"files"`
	Commits    []Commit      `json:"commits" yaml:"commits"`
	Action     string        `json:"action,omitempty" yaml:"action,omitempty"`
	Number     int           `json:"number,omitempty" yaml:"number,omitempty"`
	Merged     bool          `json:"merged,omitempty" yaml:"merged,omitempty"`
	Before     string        `json:"before,omitempty" yaml:"before,omitempty"`
	After      string        `json:"after,omitempty" yaml:"after,omitempty"`
	CommitURL  string        `json:"commit_url,omitempty" yaml:"commit_url,omitempty"`

	// FilesFromPayload marks Files as complete even when empty, so the
	// source-control host is never asked for them
	FilesFromPayload bool `json:"files_from_payload,omitempty" yaml:"files_from_payload,omitempty"`
}

// IsZeroRevision reports whether rev is empty or the all-zero SHA used for
// created and deleted branches
func IsZeroRevision(rev string) bool {
	return strings.Trim(rev, "0") == ""
}

// Coalesce merges records that share a path, summing their line counts.
// The first occurrence of each path fixes its position in the result.
func Coalesce(files []ChangedFile) []ChangedFile {
	index := make(map[string]int, len(files))
	result := make([]ChangedFile, 0, len(files))

	for _, f := range files {
		if f.Path == "" {
			continue
		}
		if i, ok := index[f.Path]; ok {
			result[i].Additions += f.Additions
			result[i].Deletions += f.Deletions
			continue
		}
		index[f.Path] = len(result)
		result = append(result, f)
	}

	return result
}

// Paths returns the file paths in order
func Paths(files []ChangedFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}
