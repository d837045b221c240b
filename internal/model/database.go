package model

import "sort"

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{Classes: map[string]*ClassEntry{}}
}

// NewClassEntry returns an empty class entry.
func NewClassEntry() *ClassEntry {
	return &ClassEntry{Tracks: map[string]*TrackEntry{}}
}

// NewTrackEntry returns an empty track entry.
func NewTrackEntry() *TrackEntry {
	return &TrackEntry{
		AILevels:     map[int][]float64{},
		SampleCounts: map[int]int{},
	}
}

// Empty reports whether the database holds no classes.
func (db *Database) Empty() bool {
	return db == nil || len(db.Classes) == 0
}

// Track returns the entry for a class/track pair, or nil.
func (db *Database) Track(classID, trackID string) *TrackEntry {
	if db == nil {
		return nil
	}
	class, ok := db.Classes[classID]
	if !ok {
		return nil
	}
	return class.Tracks[trackID]
}

// EnsureTrack returns the entry for a class/track pair, creating the
// containers when missing.
func (db *Database) EnsureTrack(classID, trackID string) *TrackEntry {
	if db.Classes == nil {
		db.Classes = map[string]*ClassEntry{}
	}
	class, ok := db.Classes[classID]
	if !ok {
		class = NewClassEntry()
		db.Classes[classID] = class
	}
	track, ok := class.Tracks[trackID]
	if !ok {
		track = NewTrackEntry()
		class.Tracks[trackID] = track
	}
	return track
}

// ClassIDs returns the class ids in ascending order.
func (db *Database) ClassIDs() []string {
	if db == nil {
		return nil
	}
	return sortedKeys(db.Classes)
}

// Clone returns a deep copy of the database.
func (db *Database) Clone() *Database {
	out := NewDatabase()
	if db == nil {
		return out
	}
	for id, class := range db.Classes {
		out.Classes[id] = class.Clone()
	}
	return out
}

// RecomputeBounds refreshes the bounds of every track and class.
func (db *Database) RecomputeBounds() {
	if db == nil {
		return
	}
	for _, class := range db.Classes {
		class.RecomputeBounds()
	}
}

// TrackIDs returns the track ids in ascending order.
func (c *ClassEntry) TrackIDs() []string {
	return sortedKeys(c.Tracks)
}

// Clone returns a deep copy of the class entry.
func (c *ClassEntry) Clone() *ClassEntry {
	out := NewClassEntry()
	out.Bounds = cloneRange(c.Bounds)
	for id, track := range c.Tracks {
		out.Tracks[id] = track.Clone()
	}
	return out
}

// RecomputeBounds refreshes every track's bounds and derives the class
// bounds from them. A class whose tracks have no levels has nil bounds.
func (c *ClassEntry) RecomputeBounds() {
	var bounds *Range
	for _, track := range c.Tracks {
		track.RecomputeBounds()
		if track.Bounds == nil {
			continue
		}
		if bounds == nil {
			b := *track.Bounds
			bounds = &b
			continue
		}
		if track.Bounds.Min < bounds.Min {
			bounds.Min = track.Bounds.Min
		}
		if track.Bounds.Max > bounds.Max {
			bounds.Max = track.Bounds.Max
		}
	}
	c.Bounds = bounds
}

// Levels returns the skill levels present, ascending.
func (t *TrackEntry) Levels() []int {
	levels := make([]int, 0, len(t.AILevels))
	for level := range t.AILevels {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

// RecomputeBounds sets the bounds to the min/max level key, or nil when the
// track has no levels.
func (t *TrackEntry) RecomputeBounds() {
	if len(t.AILevels) == 0 {
		t.Bounds = nil
		return
	}
	levels := t.Levels()
	t.Bounds = &Range{Min: levels[0], Max: levels[len(levels)-1]}
}

// AddTime appends lapTime to level unless an equal value is already stored.
// Equality is exact. It returns true when the value was appended.
func (t *TrackEntry) AddTime(level int, lapTime float64) bool {
	for _, existing := range t.AILevels[level] {
		if existing == lapTime {
			return false
		}
	}
	t.AILevels[level] = append(t.AILevels[level], lapTime)
	return true
}

// IsLikelyGenerated reports whether a level holds exactly one lap time.
// Levels written back by Apply look like this, and so do single-sample
// levels from the simulator; the two cannot be told apart.
func (t *TrackEntry) IsLikelyGenerated(level int) bool {
	return len(t.AILevels[level]) == 1
}

// RemoveLevel deletes a level and its sample count.
func (t *TrackEntry) RemoveLevel(level int) {
	delete(t.AILevels, level)
	delete(t.SampleCounts, level)
}

// Clone returns a deep copy of the track entry.
func (t *TrackEntry) Clone() *TrackEntry {
	out := NewTrackEntry()
	out.Bounds = cloneRange(t.Bounds)
	for level, times := range t.AILevels {
		out.AILevels[level] = append([]float64(nil), times...)
	}
	for level, count := range t.SampleCounts {
		out.SampleCounts[level] = count
	}
	return out
}

func cloneRange(r *Range) *Range {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
