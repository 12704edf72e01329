package gallery

import (
	"sort"

	"github.com/VasiKumar/ClassAI/internal/recognize"
)

// Gallery maps a student name to the ordered signatures computed from that
// student's training photos. Built once before monitoring starts and
// immutable afterward; every present entry holds at least one signature.
type Gallery struct {
	entries map[string][]recognize.Signature
}

func New() *Gallery {
	return &Gallery{entries: make(map[string][]recognize.Signature)}
}

// Add appends a signature under name, creating the entry if absent.
func (g *Gallery) Add(name string, sig recognize.Signature) {
	g.entries[name] = append(g.entries[name], sig)
}

// Names returns all registered identities in sorted order. Sorted iteration
// keeps match tie-breaking deterministic for a fixed gallery.
func (g *Gallery) Names() []string {
	names := make([]string, 0, len(g.entries))
	for n := range g.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (g *Gallery) Signatures(name string) []recognize.Signature {
	return g.entries[name]
}

// Len is the number of registered identities.
func (g *Gallery) Len() int { return len(g.entries) }
