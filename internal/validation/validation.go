package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nahidhasan98/checklist-notifier/internal/errors"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
)

// MaxEventFiles bounds the files accepted in one normalized event
const MaxEventFiles = 10000

var (
	// owner/name as accepted by GitHub
	repositoryPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

	// Individual JID pattern: number@s.whatsapp.net
	individualJIDPattern = regexp.MustCompile(`^\d{10,15}@s\.whatsapp\.net$`)

	// Group JID pattern: groupid@g.us, including the newer dash-separated form
	groupJIDPattern = regexp.MustCompile(`^\d+(-\d+)?@g\.us$`)

	newlineRun = regexp.MustCompile(`\n{3,}`)
)

// Validator provides validation methods
type Validator struct{}

// New creates a new validator instance
func New() *Validator {
	return &Validator{}
}

// ValidateEvent validates a normalized event before it enters the core
func (v *Validator) ValidateEvent(event *models.Event) *errors.AppError {
	if event == nil {
		return errors.InvalidRequest("Request body is required")
	}

	if !v.IsValidRepository(event.Repository) {
		return errors.ValidationError(fmt.Sprintf("'repository' must be owner/name, got %q", event.Repository))
	}

	if strings.TrimSpace(event.Branch) == "" {
		return errors.ValidationError("'branch' field is required")
	}

	if len(event.Files) > MaxEventFiles {
		return errors.ValidationError(fmt.Sprintf("Too many files (maximum %d)", MaxEventFiles))
	}

	for i, f := range event.Files {
		if strings.TrimSpace(f.Path) == "" {
			return errors.ValidationError(fmt.Sprintf("files[%d]: 'path' is required", i))
		}
		if f.Additions < 0 || f.Deletions < 0 {
			return errors.ValidationError(fmt.Sprintf("files[%d]: line counts must not be negative", i))
		}
	}

	return nil
}

// IsValidRepository checks the owner/name format
func (v *Validator) IsValidRepository(name string) bool {
	return repositoryPattern.MatchString(name)
}

// IsValidJID checks if a JID is a valid WhatsApp user or group
func (v *Validator) IsValidJID(jid string) bool {
	jid = strings.TrimSpace(jid)
	return individualJIDPattern.MatchString(jid) || groupJIDPattern.MatchString(jid)
}

// SanitizeEvent strips null bytes and collapses blank-line runs in commit
// messages and paths
func (v *Validator) SanitizeEvent(event *models.Event) {
	for i := range event.Files {
		event.Files[i].Path = strings.ReplaceAll(strings.TrimSpace(event.Files[i].Path), "\x00", "")
	}
	for i := range event.Commits {
		event.Commits[i].Message = v.SanitizeMessage(event.Commits[i].Message)
	}
}

// SanitizeMessage sanitizes a message by removing potential harmful content
func (v *Validator) SanitizeMessage(message string) string {
	message = strings.TrimSpace(message)
	message = strings.ReplaceAll(message, "\x00", "")
	return newlineRun.ReplaceAllString(message, "\n\n")
}
