package policy

// Store is the immutable set of policies loaded at startup
type Store struct {
	policies []Policy
}

// NewStore creates a store from policies. The slice is copied.
func NewStore(policies []Policy) *Store {
	return &Store{policies: append([]Policy(nil), policies...)}
}

// ListPolicies returns a copy of every loaded policy
func (s *Store) ListPolicies() []Policy {
	return append([]Policy(nil), s.policies...)
}

// Len returns the number of loaded policies
func (s *Store) Len() int {
	return len(s.policies)
}

// Resolver finds the policy for a repository
type Resolver struct {
	store *Store
}

// NewResolver creates a resolver over store
func NewResolver(store *Store) *Resolver {
	if store == nil {
		store = NewStore(nil)
	}
	return &Resolver{store: store}
}

// Resolve returns the first policy whose repository equals repositoryID.
// An unconfigured repository yields (nil, false).
func (r *Resolver) Resolve(repositoryID string) (*Policy, bool) {
	for i := range r.store.policies {
		if r.store.policies[i].Repository == repositoryID {
			p := r.store.policies[i]
			return &p, true
		}
	}
	return nil, false
}
