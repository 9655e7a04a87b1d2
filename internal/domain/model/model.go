// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Sighting is one identified tree in the local history.
// The stored form uses camelCase keys; older installs wrote tree_name and
// sci_name, which UnmarshalJSON still accepts.
type Sighting struct {
	TreeID         string `json:"treeId"`
	TreeName       string `json:"treeName"`
	ScientificName string `json:"scientificName"`
}

// UnmarshalJSON accepts both the current and the legacy key set and tolerates
// numeric tree ids.
func (s *Sighting) UnmarshalJSON(data []byte) error {
	var raw struct {
		TreeID         FlexString `json:"treeId"`
		TreeName       string     `json:"treeName"`
		ScientificName string     `json:"scientificName"`
		LegacyName     string     `json:"tree_name"`
		LegacySci      string     `json:"sci_name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.TreeID = string(raw.TreeID)
	s.TreeName = firstNonEmpty(raw.TreeName, raw.LegacyName)
	s.ScientificName = firstNonEmpty(raw.ScientificName, raw.LegacySci)
	return nil
}

// Hidden reports whether the sighting is an "unknown" placeholder that
// occupies a history slot but is not displayed.
func (s Sighting) Hidden() bool {
	return strings.ToLower(strings.TrimSpace(s.TreeName)) == "unknown"
}

// Prediction is one label/confidence pair returned by the classifier.
type Prediction struct {
	Label      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

// LocationRecord is a server-persisted geolocation of a tree sighting.
// Address is resolved on the client and never stored server-side.
type LocationRecord struct {
	LocationID string  `json:"location_id"`
	TreeID     string  `json:"tree_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Address    string  `json:"address,omitempty"`
}

// UnmarshalJSON accepts ids and coordinates as numbers or strings. Postgres
// NUMERIC columns come back as strings from some drivers.
func (r *LocationRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		LocationID FlexString `json:"location_id"`
		TreeID     FlexString `json:"tree_id"`
		Latitude   FlexFloat  `json:"latitude"`
		Longitude  FlexFloat  `json:"longitude"`
		Address    string     `json:"address"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = LocationRecord{
		LocationID: string(raw.LocationID),
		TreeID:     string(raw.TreeID),
		Latitude:   float64(raw.Latitude),
		Longitude:  float64(raw.Longitude),
		Address:    raw.Address,
	}
	return nil
}

// Tree is the backend metadata row for a native species.
type Tree struct {
	TreeID         string `json:"tree_id"`
	TreeName       string `json:"tree_name"`
	ScientificName string `json:"sci_name"`
	Description    string `json:"description"`
	Lifespan       string `json:"lifespan"`
	GrowthNeeds    string `json:"growth_needs"`
	GrowthPeriod   string `json:"growth_period"`
	SourceLink     string `json:"source_link"`
}

// UnmarshalJSON tolerates a numeric tree_id.
func (t *Tree) UnmarshalJSON(data []byte) error {
	type plain Tree
	var raw struct {
		plain
		TreeID FlexString `json:"tree_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Tree(raw.plain)
	t.TreeID = string(raw.TreeID)
	return nil
}

// Matches reports whether q is a case-insensitive substring of the common or
// scientific name. An empty query matches everything.
func (t Tree) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.TreeName), q) ||
		strings.Contains(strings.ToLower(t.ScientificName), q)
}

// FlexString decodes a JSON string or number into a string.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*f = FlexString(n.String())
	}
	return nil
}

// FlexFloat decodes a JSON number or numeric string into a float64.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid numeric string %q: %w", s, err)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
