package stream

import (
	"encoding/json"
	"sort"
	"strings"
)

// AltSuffix marks alternate (fallback) variants of a primary name, e.g.
// "720p_alt" or "720p_alt2" for primary "720p".
const AltSuffix = "_alt"

// Variants is the set of named stream sources one resolve call produced.
// Synonym names (e.g. "best") alias a source that is also reachable under
// its real quality name; they are folded out of human-facing listings.
//
// A Variants value is built once by the resolver and read afterwards; it is
// not safe for concurrent mutation.
type Variants struct {
	sources  map[string]Source
	synonyms map[string]bool
}

// NewVariants returns an empty variant set.
func NewVariants() *Variants {
	return &Variants{
		sources:  make(map[string]Source),
		synonyms: make(map[string]bool),
	}
}

// Put registers src under name.
func (v *Variants) Put(name string, src Source) {
	v.sources[name] = src
}

// PutSynonym registers src under an alias name. The same src must also be
// registered under its real name via Put.
func (v *Variants) PutSynonym(name string, src Source) {
	v.sources[name] = src
	v.synonyms[name] = true
}

// Get returns the source registered under name.
func (v *Variants) Get(name string) (Source, bool) {
	src, ok := v.sources[name]
	return src, ok
}

// Len reports the number of registered names, synonyms included.
func (v *Variants) Len() int {
	return len(v.sources)
}

// Names returns all registered names in sorted order, synonyms included.
func (v *Variants) Names() []string {
	names := make([]string, 0, len(v.sources))
	for name := range v.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Canonical resolves a synonym to the real name of the source it points to.
// Non-synonym names are returned unchanged, as is a synonym whose source is
// not reachable under any real name.
func (v *Variants) Canonical(name string) string {
	if !v.synonyms[name] {
		return name
	}
	src, ok := v.sources[name]
	if !ok {
		return name
	}
	for _, other := range v.Names() {
		if !v.synonyms[other] && v.sources[other] == src {
			return other
		}
	}
	return name
}

// Alternates returns the alternate names for the given primary, in sorted
// order.
func (v *Variants) Alternates(name string) []string {
	var alts []string
	for other := range v.sources {
		if strings.Contains(other, name+AltSuffix) {
			alts = append(alts, other)
		}
	}
	sort.Strings(alts)
	return alts
}

// Candidates returns the try order for a requested name: the canonical name
// followed by its alternates.
func (v *Variants) Candidates(name string) []string {
	canonical := v.Canonical(name)
	return append([]string{canonical}, v.Alternates(canonical)...)
}

// Format renders the variant set for display. Synonyms are excluded as
// entries and shown in parentheses next to the name they alias.
func (v *Variants) Format() string {
	var entries []string
	for _, name := range v.Names() {
		if v.synonyms[name] {
			continue
		}
		var aliases []string
		for _, other := range v.Names() {
			if other != name && v.synonyms[other] && v.sources[other] == v.sources[name] {
				aliases = append(aliases, other)
			}
		}
		if len(aliases) > 0 {
			entries = append(entries, name+" ("+strings.Join(aliases, ", ")+")")
		} else {
			entries = append(entries, name)
		}
	}
	return strings.Join(entries, ", ")
}

// MarshalJSON renders the variant set for machine consumption: primary
// names in sorted order plus the synonym-to-primary mapping.
func (v *Variants) MarshalJSON() ([]byte, error) {
	primaries := make([]string, 0, len(v.sources))
	synonyms := make(map[string]string, len(v.synonyms))
	for _, name := range v.Names() {
		if v.synonyms[name] {
			synonyms[name] = v.Canonical(name)
			continue
		}
		primaries = append(primaries, name)
	}
	return json.Marshal(struct {
		Streams  []string          `json:"streams"`
		Synonyms map[string]string `json:"synonyms,omitempty"`
	}{Streams: primaries, Synonyms: synonyms})
}
