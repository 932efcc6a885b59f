package scoring

import (
	"fmt"
	"strings"
)

// Registry is an ordered, read-only catalogue of criteria. It is safe for
// concurrent use because it is never mutated after construction.
type Registry struct {
	ordered []Criterion
	index   map[string]int
}

var defaultRegistry = MustNewRegistry(
	Criterion{
		Key:         "clarity",
		Description: "How quickly a visitor understands what is offered: a short, front-loaded headline, scannable copy and concise sentences.",
	},
	Criterion{
		Key:         "credibility",
		Description: "Whether the page earns trust: testimonials, reviews, client logos, security and privacy indicators, reachable contact details and no broken links.",
	},
	Criterion{
		Key:         "cta",
		Description: "Strength of the call to action: visible, early, imperative buttons or links with a single consistent next step.",
	},
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// NewRegistry builds a registry preserving the given order.
func NewRegistry(criteria ...Criterion) (*Registry, error) {
	r := &Registry{
		ordered: make([]Criterion, 0, len(criteria)),
		index:   make(map[string]int, len(criteria)),
	}
	for _, c := range criteria {
		key := normalizeKey(c.Key)
		if key == "" {
			return nil, fmt.Errorf("criterion key is required")
		}
		if _, exists := r.index[key]; exists {
			return nil, fmt.Errorf("duplicate criterion %q", key)
		}
		c.Key = key
		r.index[key] = len(r.ordered)
		r.ordered = append(r.ordered, c)
	}
	return r, nil
}

// MustNewRegistry is NewRegistry for package-level initialisation.
func MustNewRegistry(criteria ...Criterion) *Registry {
	r, err := NewRegistry(criteria...)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns every registered criterion in registry order.
func (r *Registry) All() []Criterion {
	out := make([]Criterion, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Lookup returns the criterion registered under key.
func (r *Registry) Lookup(key string) (Criterion, bool) {
	idx, ok := r.index[normalizeKey(key)]
	if !ok {
		return Criterion{}, false
	}
	return r.ordered[idx], true
}

// Resolve maps keys to criteria in request order, dropping duplicates.
// An empty key list resolves to All. Any unknown key fails the whole call.
func (r *Registry) Resolve(keys []string) ([]Criterion, error) {
	if len(keys) == 0 {
		return r.All(), nil
	}

	seen := make(map[string]struct{}, len(keys))
	resolved := make([]Criterion, 0, len(keys))
	var unknown []string
	for _, raw := range keys {
		key := normalizeKey(raw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		c, ok := r.Lookup(key)
		if !ok {
			unknown = append(unknown, fmt.Sprintf("%q", strings.TrimSpace(raw)))
			continue
		}
		resolved = append(resolved, c)
	}

	if len(unknown) > 0 {
		return nil, NewError(KindUnknownCriterion, "unknown criterion "+strings.Join(unknown, ", "), nil)
	}
	return resolved, nil
}

// Keys returns the registered keys in order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.ordered))
	for i, c := range r.ordered {
		keys[i] = c.Key
	}
	return keys
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
