package geo

// Region is a map viewport: a center and the span shown in each axis.
type Region struct {
	Center         Coordinate
	LatitudeDelta  float64
	LongitudeDelta float64
}

// Bounds is an axis-aligned latitude/longitude box.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// Contains reports whether c lies inside the box, edges included.
func (b Bounds) Contains(c Coordinate) bool {
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLon && c.Longitude <= b.MaxLon
}

// Defaults for the national viewport.
var (
	InitialRegion = Region{
		Center:         Coordinate{Latitude: 12.8797, Longitude: 121.774},
		LatitudeDelta:  12,
		LongitudeDelta: 12,
	}
	NationalBounds = Bounds{MinLat: 4.5, MaxLat: 21.5, MinLon: 116.0, MaxLon: 127.0}
)

const defaultMaxDelta = 20

// Viewport applies snap-back-on-release: a completed region change that
// zooms out too far or moves the center off the national box is replaced
// by the initial region.
type Viewport struct {
	initial  Region
	bounds   Bounds
	maxDelta float64
	current  Region
}

// ViewportOption configures a Viewport.
type ViewportOption func(*Viewport)

// WithInitialRegion overrides the region the viewport starts at and resets to.
func WithInitialRegion(r Region) ViewportOption {
	return func(v *Viewport) { v.initial = r }
}

// WithBounds overrides the allowed center box.
func WithBounds(b Bounds) ViewportOption {
	return func(v *Viewport) { v.bounds = b }
}

// WithMaxDelta overrides the largest allowed span in either axis.
func WithMaxDelta(d float64) ViewportOption {
	return func(v *Viewport) {
		if d > 0 {
			v.maxDelta = d
		}
	}
}

// NewViewport returns a viewport positioned at its initial region.
func NewViewport(opts ...ViewportOption) *Viewport {
	v := &Viewport{
		initial:  InitialRegion,
		bounds:   NationalBounds,
		maxDelta: defaultMaxDelta,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.current = v.initial
	return v
}

// Current returns the region currently shown.
func (v *Viewport) Current() Region { return v.current }

// Settle records a completed region change and returns the region to show,
// with reset true when the change was rejected.
func (v *Viewport) Settle(r Region) (Region, bool) {
	if r.LatitudeDelta > v.maxDelta || r.LongitudeDelta > v.maxDelta || !v.bounds.Contains(r.Center) {
		v.current = v.initial
		return v.current, true
	}
	v.current = r
	return r, false
}
