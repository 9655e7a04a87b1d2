// Package species holds the native species the classifier is trained on.
// The decision whitelist and the id/scientific-name lookup both derive from
// the single table below.
package species

import "strings"

// Unknown is the classifier label for a non-native or unrecognised tree.
const Unknown = "unknown"

// Species is one row of the native species table.
type Species struct {
	ID             string
	Name           string
	ScientificName string
}

var table = []Species{
	{ID: "1", Name: "narra", ScientificName: "Pterocarpus indicus"},
	{ID: "2", Name: "banaba", ScientificName: "Lagerstroemia speciosa"},
	{ID: "3", Name: "ipil", ScientificName: "Intsia bijuga"},
	{ID: "4", Name: "kamagong", ScientificName: "Diospyros philippinensis"},
	{ID: "5", Name: "talisay", ScientificName: "Terminalia catappa"},
}

var (
	byName = make(map[string]Species, len(table))
	byID   = make(map[string]Species, len(table))
)

func init() { //nolint:gochecknoinits // index the static table once
	for _, s := range table {
		if _, dup := byName[s.Name]; dup {
			panic("species: duplicate name " + s.Name)
		}
		if _, dup := byID[s.ID]; dup {
			panic("species: duplicate id " + s.ID)
		}
		byName[s.Name] = s
		byID[s.ID] = s
	}
}

// Lookup returns the species for a label, case-insensitively.
func Lookup(label string) (Species, bool) {
	s, ok := byName[normalize(label)]
	return s, ok
}

// ByID returns the species with the given id.
func ByID(id string) (Species, bool) {
	s, ok := byID[strings.TrimSpace(id)]
	return s, ok
}

// Accepted reports whether label is one the decision logic will act on:
// a known species or the unknown label.
func Accepted(label string) bool {
	l := normalize(label)
	if l == Unknown {
		return true
	}
	_, ok := byName[l]
	return ok
}

// All returns a copy of the table in id order.
func All() []Species {
	out := make([]Species, len(table))
	copy(out, table)
	return out
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
