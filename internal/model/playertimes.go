package model

// NewPlayerTimes returns an empty player time table.
func NewPlayerTimes() *PlayerTimes {
	return &PlayerTimes{Classes: map[string]*PlayerClass{}}
}

// Empty reports whether no player times are stored.
func (pt *PlayerTimes) Empty() bool {
	return pt == nil || len(pt.Classes) == 0
}

// Track returns the player times for a class/track pair, or nil.
func (pt *PlayerTimes) Track(classID, trackID string) *PlayerTrack {
	if pt == nil {
		return nil
	}
	class, ok := pt.Classes[classID]
	if !ok {
		return nil
	}
	return class.Tracks[trackID]
}

// Set replaces the times stored for a class/track pair and recomputes the
// best time. An empty slice leaves any prior state untouched.
func (pt *PlayerTimes) Set(classID, trackID string, times []float64) {
	if len(times) == 0 {
		return
	}
	if pt.Classes == nil {
		pt.Classes = map[string]*PlayerClass{}
	}
	class, ok := pt.Classes[classID]
	if !ok {
		class = &PlayerClass{Tracks: map[string]*PlayerTrack{}}
		pt.Classes[classID] = class
	}
	best := times[0]
	for _, v := range times[1:] {
		if v < best {
			best = v
		}
	}
	class.Tracks[trackID] = &PlayerTrack{
		AllTimes: append([]float64(nil), times...),
		BestTime: &best,
	}
}

// ClassIDs returns the class ids in ascending order.
func (pt *PlayerTimes) ClassIDs() []string {
	if pt == nil {
		return nil
	}
	return sortedKeys(pt.Classes)
}

// Clone returns a deep copy.
func (pt *PlayerTimes) Clone() *PlayerTimes {
	out := NewPlayerTimes()
	if pt == nil {
		return out
	}
	for classID, class := range pt.Classes {
		c := &PlayerClass{Tracks: make(map[string]*PlayerTrack, len(class.Tracks))}
		for trackID, track := range class.Tracks {
			t := &PlayerTrack{AllTimes: append([]float64(nil), track.AllTimes...)}
			if track.BestTime != nil {
				best := *track.BestTime
				t.BestTime = &best
			}
			c.Tracks[trackID] = t
		}
		out.Classes[classID] = c
	}
	return out
}
