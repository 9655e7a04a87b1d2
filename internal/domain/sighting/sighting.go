// Package sighting turns classifier predictions into an identification
// decision.
package sighting

import (
	"strings"

	"github.com/okian/nativetree/internal/domain/model"
	"github.com/okian/nativetree/internal/domain/species"
)

// DefaultThreshold is the minimum confidence a prediction needs to count.
const DefaultThreshold = 0.90

// Kind distinguishes decision outcomes.
type Kind int

const (
	// KindUnknown means no species could be confirmed.
	KindUnknown Kind = iota
	// KindIdentified means a native species was confirmed.
	KindIdentified
)

func (k Kind) String() string {
	if k == KindIdentified {
		return "identified"
	}
	return "unknown"
}

// Outcome is the result of Decide.
type Outcome struct {
	Kind           Kind
	TreeID         string
	TreeName       string
	ScientificName string
	Confidence     float64
	// HasConfidence is false when no prediction qualified at all, and true
	// when the model itself answered "unknown" above the threshold.
	HasConfidence bool
}

// Identified reports whether a species was confirmed.
func (o Outcome) Identified() bool { return o.Kind == KindIdentified }

// Sighting returns the history entry for an identified outcome.
func (o Outcome) Sighting() (model.Sighting, bool) {
	if !o.Identified() {
		return model.Sighting{}, false
	}
	return model.Sighting{TreeID: o.TreeID, TreeName: o.TreeName, ScientificName: o.ScientificName}, true
}

// Option applies a configuration option to the Decider.
type Option func(*Decider)

// WithThreshold sets the minimum confidence. Values outside (0,1] are ignored.
func WithThreshold(t float64) Option {
	return func(d *Decider) {
		if t > 0 && t <= 1 {
			d.threshold = t
		}
	}
}

// Decider applies the threshold and whitelist to a prediction list.
// It holds no mutable state and is safe for concurrent use.
type Decider struct {
	threshold float64
}

// NewDecider creates a decider with configuration options.
func NewDecider(opts ...Option) *Decider {
	d := &Decider{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Threshold returns the configured minimum confidence.
func (d *Decider) Threshold() float64 { return d.threshold }

// Decide picks the first prediction, in upstream order, whose confidence
// meets the threshold and whose label is whitelisted.
func (d *Decider) Decide(predictions []model.Prediction) Outcome {
	for _, p := range predictions {
		if p.Confidence < d.threshold || !species.Accepted(p.Label) {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(p.Label))
		s, ok := species.Lookup(label)
		if !ok {
			return Outcome{Kind: KindUnknown, Confidence: p.Confidence, HasConfidence: true}
		}
		return Outcome{
			Kind:           KindIdentified,
			TreeID:         s.ID,
			TreeName:       s.Name,
			ScientificName: s.ScientificName,
			Confidence:     p.Confidence,
			HasConfidence:  true,
		}
	}
	return Outcome{Kind: KindUnknown}
}

// Decide runs the default decider.
func Decide(predictions []model.Prediction) Outcome {
	return defaultDecider.Decide(predictions)
}

var defaultDecider = NewDecider()
