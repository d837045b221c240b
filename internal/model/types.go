// Package model defines shared data structures.
package model

// Range is an inclusive skill level interval.
type Range struct {
	Min int
	Max int
}

// Contains reports whether level lies inside the range.
func (r Range) Contains(level int) bool {
	return level >= r.Min && level <= r.Max
}

// Database holds observed AI lap times keyed by class id.
type Database struct {
	Classes map[string]*ClassEntry
}

// ClassEntry holds the tracks of one vehicle class. Bounds is nil when no
// track of the class has any level.
type ClassEntry struct {
	Bounds *Range
	Tracks map[string]*TrackEntry
}

// TrackEntry holds observed lap times per skill level for one class/track pair.
// Lap time lists keep arrival order. SampleCounts carries the count reported
// by the export for each level (last write wins).
type TrackEntry struct {
	Bounds       *Range
	AILevels     map[int][]float64
	SampleCounts map[int]int
}

// PlayerTimes holds human lap times keyed by class id.
type PlayerTimes struct {
	Classes map[string]*PlayerClass
}

// PlayerClass holds player lap times per track.
type PlayerClass struct {
	Tracks map[string]*PlayerTrack
}

// PlayerTrack stores every parsed player lap time and the best of them.
type PlayerTrack struct {
	AllTimes []float64
	BestTime *float64
}

// Provenance tells where a processed level's time came from.
type Provenance int

const (
	// Observed levels are reduced from raw samples.
	Observed Provenance = iota
	// Synthesized levels are evaluated on a fitted curve.
	Synthesized
)

// String returns the lowercase provenance name.
func (p Provenance) String() string {
	switch p {
	case Observed:
		return "observed"
	case Synthesized:
		return "synthesized"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Provenance) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ProcessedDatabase is the derived per-level view of a Database.
type ProcessedDatabase struct {
	Classes map[string]*ProcessedClass
}

// ProcessedClass groups processed tracks of one class.
type ProcessedClass struct {
	Tracks map[string]*ProcessedTrack
}

// ProcessedTrack carries the source track bounds and one aggregate per level.
type ProcessedTrack struct {
	Bounds   *Range
	AILevels map[int]ProcessedLevel
}

// ProcessedLevel is the reduced form of one skill level.
type ProcessedLevel struct {
	Count      int
	Time       float64
	Provenance Provenance
}

// ClassAsset is a vehicle class from the asset catalog.
type ClassAsset struct {
	ID   string
	Name string
}

// TrackAsset is a track layout from the asset catalog.
type TrackAsset struct {
	ID   string
	Name string
}

// Assets is the read-only catalog of classes and track layouts.
type Assets struct {
	Classes       map[string]ClassAsset
	ClassesSorted []ClassAsset
	Tracks        map[string]TrackAsset
	TracksSorted  []TrackAsset
	NumClasses    int
	NumTracks     int
}

// ClassName returns the display name for a class id, or the id itself.
func (a *Assets) ClassName(id string) string {
	if a != nil {
		if c, ok := a.Classes[id]; ok && c.Name != "" {
			return c.Name
		}
	}
	return id
}

// TrackName returns the display name for a layout id, or the id itself.
func (a *Assets) TrackName(id string) string {
	if a != nil {
		if t, ok := a.Tracks[id]; ok && t.Name != "" {
			return t.Name
		}
	}
	return id
}

// PrimerConfig holds the defaults used when applying level windows.
type PrimerConfig struct {
	NumLevels int
	Spacing   int
	MinLevel  int
	MaxLevel  int
	FitModel  string
}
