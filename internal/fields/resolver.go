package fields

import (
	"maps"
	"slices"
	"strings"

	"github.com/joseph-ayodele/doccollate/internal/common"
)

// Output targets.
const (
	TargetTestForms = "test_forms"
	TargetCopyright = "copyright"
	TargetProposal  = "proposal"
)

// Set is a set of field names. A nil Set means "no restriction" where
// callers accept one.
type Set map[string]struct{}

func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s Set) Has(name string) bool {
	if s == nil {
		return true
	}
	_, ok := s[name]
	return ok
}

func (s Set) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Resolver expands a target's direct fields through the dependency graph.
type Resolver struct {
	catalog *Catalog
}

// NewResolver validates the catalog's dependency graph. A cycle is a
// configuration error.
func NewResolver(c *Catalog) (*Resolver, error) {
	if err := checkAcyclic(c.Dependencies); err != nil {
		return nil, err
	}
	return &Resolver{catalog: c}, nil
}

func (r *Resolver) Catalog() *Catalog { return r.catalog }

// Required returns the direct fields of target closed under dependencies.
func (r *Resolver) Required(target string) (Set, error) {
	direct, ok := r.catalog.Targets[target]
	if !ok {
		return nil, common.NewConfigError("unknown target %q", target)
	}
	return r.Expand(NewSet(direct...)), nil
}

// Expand adds dependencies until nothing changes.
func (r *Resolver) Expand(fields Set) Set {
	out := make(Set, len(fields))
	for f := range fields {
		out[f] = struct{}{}
	}
	for changed := true; changed; {
		changed = false
		for f := range out {
			for _, dep := range r.catalog.Dependencies[f] {
				if _, ok := out[dep]; !ok {
					out[dep] = struct{}{}
					changed = true
				}
			}
		}
	}
	return out
}

const (
	white = iota
	grey
	black
)

func checkAcyclic(deps map[string][]string) error {
	color := map[string]int{}
	var path []string
	var visit func(string) error
	visit = func(n string) error {
		color[n] = grey
		path = append(path, n)
		for _, d := range deps[n] {
			switch color[d] {
			case grey:
				start := slices.Index(path, d)
				cycle := append(slices.Clone(path[start:]), d)
				return common.NewConfigError("field dependency cycle: %s", strings.Join(cycle, " -> "))
			case white:
				if err := visit(d); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		color[n] = black
		return nil
	}
	for _, n := range slices.Sorted(maps.Keys(deps)) {
		if color[n] == white {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
