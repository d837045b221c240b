// Package stats reduces AI lap time samples per skill level, fits curves
// through them and renders the results.
package stats

import (
	"fmt"
	"math"

	"github.com/verte-zerg/aiprimer/internal/fit"
	"github.com/verte-zerg/aiprimer/internal/model"
)

// Process reduces every level of every track to its sample count and mean
// lap time. Track bounds are carried over from db. The result shares no
// memory with db.
func Process(db *model.Database) *model.ProcessedDatabase {
	out := model.NewProcessedDatabase()
	if db == nil {
		return out
	}
	for classID, class := range db.Classes {
		pc := &model.ProcessedClass{Tracks: make(map[string]*model.ProcessedTrack, len(class.Tracks))}
		for trackID, track := range class.Tracks {
			ptrack := &model.ProcessedTrack{AILevels: make(map[int]model.ProcessedLevel, len(track.AILevels))}
			if track.Bounds != nil {
				b := *track.Bounds
				ptrack.Bounds = &b
			}
			for level, times := range track.AILevels {
				count, mean := ComputeTime(times)
				if count == 0 {
					continue
				}
				ptrack.AILevels[level] = model.ProcessedLevel{Count: count, Time: mean, Provenance: model.Observed}
			}
			pc.Tracks[trackID] = ptrack
		}
		out.Classes[classID] = pc
	}
	return out
}

// ComputeTime returns the number of samples and their arithmetic mean.
func ComputeTime(times []float64) (int, float64) {
	if len(times) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range times {
		sum += v
	}
	return len(times), sum / float64(len(times))
}

// SynthesisFailure records a track whose curve could not be fitted.
type SynthesisFailure struct {
	ClassID string
	TrackID string
	Err     error
}

// FitTrack fits m through the observed levels of a processed track.
func FitTrack(track *model.ProcessedTrack, m fit.Model) (fit.Curve, error) {
	var xs, ys []float64
	for _, level := range track.Levels() {
		agg := track.AILevels[level]
		if agg.Provenance != model.Observed || agg.Count == 0 {
			continue
		}
		xs = append(xs, float64(level))
		ys = append(ys, agg.Time)
	}
	if need := m.MinPoints(); len(xs) < need {
		return fit.Curve{}, fmt.Errorf("%w: %s fit needs %d observed levels, track has %d",
			fit.ErrSingularSystem, m, need, len(xs))
	}
	return fit.Fit(m, xs, ys)
}

// Synthesize returns a copy of p in which every track gains synthesized
// levels for the integer levels of r it has no observed data for. Values are
// evaluated on a curve of model m fitted to the track's observed levels.
// Tracks whose fit fails keep only their observed levels and are reported.
// Non-positive predictions are dropped.
func Synthesize(p *model.ProcessedDatabase, m fit.Model, r model.Range) (*model.ProcessedDatabase, []SynthesisFailure) {
	out := cloneProcessed(p)
	if m == fit.None || r.Min > r.Max {
		return out, nil
	}
	var failures []SynthesisFailure
	for _, classID := range out.ClassIDs() {
		class := out.Classes[classID]
		for _, trackID := range class.TrackIDs() {
			track := class.Tracks[trackID]
			if len(track.AILevels) == 0 {
				continue
			}
			curve, err := FitTrack(track, m)
			if err != nil {
				failures = append(failures, SynthesisFailure{ClassID: classID, TrackID: trackID, Err: err})
				continue
			}
			for level := r.Min; level <= r.Max; level++ {
				if _, ok := track.AILevels[level]; ok {
					continue
				}
				v := curve.Eval(float64(level))
				if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				track.AILevels[level] = model.ProcessedLevel{Time: v, Provenance: model.Synthesized}
			}
		}
	}
	return out, failures
}

func cloneProcessed(p *model.ProcessedDatabase) *model.ProcessedDatabase {
	out := model.NewProcessedDatabase()
	if p == nil {
		return out
	}
	for classID, class := range p.Classes {
		pc := &model.ProcessedClass{Tracks: make(map[string]*model.ProcessedTrack, len(class.Tracks))}
		for trackID, track := range class.Tracks {
			t := &model.ProcessedTrack{AILevels: make(map[int]model.ProcessedLevel, len(track.AILevels))}
			if track.Bounds != nil {
				b := *track.Bounds
				t.Bounds = &b
			}
			for level, agg := range track.AILevels {
				t.AILevels[level] = agg
			}
			pc.Tracks[trackID] = t
		}
		out.Classes[classID] = pc
	}
	return out
}

// Summary counts what a database holds.
type Summary struct {
	Classes         int `json:"classes" yaml:"classes"`
	Tracks          int `json:"tracks" yaml:"tracks"`
	Levels          int `json:"levels" yaml:"levels"`
	Samples         int `json:"samples" yaml:"samples"`
	LikelyGenerated int `json:"likelyGenerated" yaml:"likelyGenerated"`
	PlayerTracks    int `json:"playerTracks" yaml:"playerTracks"`
}

// Summarize counts classes, populated tracks, levels and samples.
func Summarize(db *model.Database, pt *model.PlayerTimes) Summary {
	var s Summary
	if db != nil {
		s.Classes = len(db.Classes)
		for _, class := range db.Classes {
			for _, track := range class.Tracks {
				if len(track.AILevels) > 0 {
					s.Tracks++
				}
				for level, times := range track.AILevels {
					s.Levels++
					s.Samples += len(times)
					if track.IsLikelyGenerated(level) {
						s.LikelyGenerated++
					}
				}
			}
		}
	}
	if pt != nil {
		for _, class := range pt.Classes {
			s.PlayerTracks += len(class.Tracks)
		}
	}
	return s
}
