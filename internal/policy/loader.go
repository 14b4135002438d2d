package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a single policy from a .json, .yaml or .yml file
func LoadFile(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}

	var p Policy
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &p); err != nil {
			return Policy{}, fmt.Errorf("failed to parse policy JSON %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Policy{}, fmt.Errorf("failed to parse policy YAML %s: %w", path, err)
		}
	default:
		return Policy{}, fmt.Errorf("unsupported policy file extension: %s", path)
	}

	if err := Validate(p); err != nil {
		return Policy{}, fmt.Errorf("invalid policy %s: %w", path, err)
	}

	return p, nil
}

// LoadDir reads every policy file in dir, in lexical file name order
func LoadDir(dir string) ([]Policy, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	policies := make([]Policy, 0, len(names))
	for _, name := range names {
		p, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}

	return policies, nil
}

// Validate checks the structural requirements of a policy
func Validate(p Policy) error {
	owner, name, ok := strings.Cut(p.Repository, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("repository must be in owner/name format, got %q", p.Repository)
	}

	for i, rule := range p.ChecklistRules {
		if strings.TrimSpace(rule.Pattern) == "" {
			return fmt.Errorf("checklist rule at index %d missing pattern", i)
		}
	}

	for id, team := range p.Teams {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("team with empty identifier")
		}
		if len(team.Patterns) == 0 {
			return fmt.Errorf("team %s has no patterns", id)
		}
	}

	return nil
}

// Duplicates returns repository identifiers declared by more than one policy
func Duplicates(policies []Policy) []string {
	seen := make(map[string]int, len(policies))
	var dups []string
	for _, p := range policies {
		seen[p.Repository]++
		if seen[p.Repository] == 2 {
			dups = append(dups, p.Repository)
		}
	}
	return dups
}
