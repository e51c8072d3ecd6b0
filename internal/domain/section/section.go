// Package section defines the catalog of labeled output sections produced by
// the planning agent and the classifier that segments its raw text stream.
package section

import (
	"fmt"
	"sort"
	"strings"
)

// Section is one named category of agent output, recognized by a literal
// markdown header that the agent emits at the start of a line.
type Section struct {
	Name        string
	Header      string
	Description string
	Order       int
}

// Registry is an immutable, ordered catalog of sections. It is constructed
// explicitly and injected wherever classification happens, so tests can
// substitute alternate catalogs without global state.
type Registry struct {
	sections  []Section
	byName    map[string]Section
	byHeader  map[string]Section
	maxHeader int
}

// NewRegistry builds a Registry from the given sections, sorted by Order.
// It fails fast on catalogs that would make classification ambiguous:
// duplicate names, duplicate headers, or one header containing another as a
// substring.
func NewRegistry(sections ...Section) (*Registry, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("section registry requires at least one section")
	}

	sorted := make([]Section, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	r := &Registry{
		sections: sorted,
		byName:   make(map[string]Section, len(sorted)),
		byHeader: make(map[string]Section, len(sorted)),
	}

	for _, s := range sorted {
		if s.Name == "" {
			return nil, fmt.Errorf("section with header %q has empty name", s.Header)
		}
		if s.Header == "" {
			return nil, fmt.Errorf("section %q has empty header", s.Name)
		}
		if _, dup := r.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate section name %q", s.Name)
		}
		if _, dup := r.byHeader[s.Header]; dup {
			return nil, fmt.Errorf("duplicate section header %q", s.Header)
		}
		r.byName[s.Name] = s
		r.byHeader[s.Header] = s
		if len(s.Header) > r.maxHeader {
			r.maxHeader = len(s.Header)
		}
	}

	// A header that contains another header as a substring makes the
	// earliest-match search ambiguous, so reject the catalog outright.
	for _, a := range sorted {
		for _, b := range sorted {
			if a.Name != b.Name && strings.Contains(a.Header, b.Header) {
				return nil, fmt.Errorf("section header %q contains header %q", a.Header, b.Header)
			}
		}
	}

	return r, nil
}

// MustRegistry is NewRegistry for statically known catalogs.
func MustRegistry(sections ...Section) *Registry {
	r, err := NewRegistry(sections...)
	if err != nil {
		panic(err)
	}
	return r
}

// All returns the sections ordered by Order. The order governs registry
// iteration and tie-breaking only; the agent's actual output order is not
// enforced at runtime.
func (r *Registry) All() []Section {
	out := make([]Section, len(r.sections))
	copy(out, r.sections)
	return out
}

// ByName looks up a section by its stable name.
func (r *Registry) ByName(name string) (Section, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// ByHeader looks up a section by its exact header text.
func (r *Registry) ByHeader(header string) (Section, bool) {
	s, ok := r.byHeader[header]
	return s, ok
}

// MaxHeaderLen returns the length of the longest header across all sections.
// The classifier sizes its retention buffer from this.
func (r *Registry) MaxHeaderLen() int {
	return r.maxHeader
}

// Bootstrap returns the lowest-Order section. The system prompt instructs the
// agent to begin its very first output line with this section's header.
func (r *Registry) Bootstrap() Section {
	return r.sections[0]
}

// Canonical section names used across the service.
const (
	NamePlanName         = "plan_name"
	NamePlan             = "plan"
	NameClarifyQuestions = "clarify_questions"
)

// Default returns the three-section catalog used for plan generation.
// Earlier deployments used only plan + clarify_questions; the catalog is an
// open list so sections can be added or removed without touching the
// classifier.
func Default() *Registry {
	return MustRegistry(
		Section{
			Name:        NamePlanName,
			Header:      "# Plan name",
			Description: "A concise, descriptive name for the implementation plan",
			Order:       1,
		},
		Section{
			Name:        NamePlan,
			Header:      "# Plan draft",
			Description: "The detailed implementation plan content",
			Order:       2,
		},
		Section{
			Name:        NameClarifyQuestions,
			Header:      "# Clarifying questions",
			Description: "Questions to clarify missing information",
			Order:       3,
		},
	)
}
