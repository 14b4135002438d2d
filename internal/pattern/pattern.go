package pattern

import (
	"regexp"
	"strings"
	"sync"
)

// Matcher decides whether a file path matches a policy pattern
type Matcher interface {
	Match(path, pattern string) bool
}

// Glob implements the policy pattern language:
//   - a pattern without '*' matches when it equals the path or is a substring of it
//   - a pattern with '*' is anchored to the whole path, each '*' matching any run
//     of characters including '/'; every other character is literal
type Glob struct {
	compiled sync.Map // pattern -> *regexp.Regexp
}

// NewGlob creates a new glob matcher
func NewGlob() *Glob {
	return &Glob{}
}

// Default is the process-wide matcher used by the core packages
var Default Matcher = NewGlob()

// Match reports whether path matches pattern. Empty inputs never match.
func (g *Glob) Match(path, pattern string) bool {
	if path == "" || pattern == "" {
		return false
	}

	if !strings.Contains(pattern, "*") {
		// Substring containment also covers exact equality
		return strings.Contains(path, pattern)
	}

	return g.regexpFor(pattern).MatchString(path)
}

// MatchAny reports whether path matches at least one of patterns
func MatchAny(m Matcher, path string, patterns []string) bool {
	for _, p := range patterns {
		if m.Match(path, p) {
			return true
		}
	}
	return false
}

func (g *Glob) regexpFor(pattern string) *regexp.Regexp {
	if re, ok := g.compiled.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}

	re := regexp.MustCompile(Translate(pattern))
	actual, _ := g.compiled.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp)
}

// Translate converts a wildcard pattern into an anchored regular expression
func Translate(pattern string) string {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return "^" + strings.Join(parts, ".*") + "$"
}
