package model

import "sort"

// NewProcessedDatabase returns an empty processed view.
func NewProcessedDatabase() *ProcessedDatabase {
	return &ProcessedDatabase{Classes: map[string]*ProcessedClass{}}
}

// Track returns the processed track for a class/track pair, or nil.
func (p *ProcessedDatabase) Track(classID, trackID string) *ProcessedTrack {
	if p == nil {
		return nil
	}
	class, ok := p.Classes[classID]
	if !ok {
		return nil
	}
	return class.Tracks[trackID]
}

// Empty reports whether no processed classes exist.
func (p *ProcessedDatabase) Empty() bool {
	return p == nil || len(p.Classes) == 0
}

// ClassIDs returns the class ids in ascending order.
func (p *ProcessedDatabase) ClassIDs() []string {
	if p == nil {
		return nil
	}
	return sortedKeys(p.Classes)
}

// TrackIDs returns the track ids in ascending order.
func (c *ProcessedClass) TrackIDs() []string {
	return sortedKeys(c.Tracks)
}

// Levels returns the processed levels, ascending.
func (t *ProcessedTrack) Levels() []int {
	levels := make([]int, 0, len(t.AILevels))
	for level := range t.AILevels {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}
