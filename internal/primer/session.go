// Package primer owns the adaptation state and the operations that change it.
//
// A Session holds one immutable Snapshot. Every operation deep-copies the
// parts it changes, reprocesses the result and swaps the new snapshot in
// under a single lock, so readers never see a half-applied change.
package primer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/verte-zerg/aiprimer/internal/adaptation"
	"github.com/verte-zerg/aiprimer/internal/fit"
	"github.com/verte-zerg/aiprimer/internal/model"
	"github.com/verte-zerg/aiprimer/internal/stats"
	"github.com/verte-zerg/aiprimer/internal/xmltree"
)

var (
	// ErrNoData is returned by Apply when the class/track has no processed entry.
	ErrNoData = errors.New("no processed data for class/track")
	// ErrInvalidRange is returned by Apply for a non-positive step or from > to.
	ErrInvalidRange = errors.New("invalid level range")
)

// Snapshot is one consistent view of the session state. Its values must be
// treated as read-only.
type Snapshot struct {
	Database    *model.Database
	PlayerTimes *model.PlayerTimes
	Processed   *model.ProcessedDatabase
}

// Options configures a Session.
type Options struct {
	Logger *slog.Logger
	// FitModel enables curve synthesis of unobserved levels when not fit.None.
	FitModel fit.Model
	// Levels bounds the synthesized levels.
	Levels model.Range
}

// Session serializes ingestion and mutations over a Snapshot.
type Session struct {
	mu   sync.RWMutex
	opts Options
	snap Snapshot
}

// NewSession returns a session with empty state.
func NewSession(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{opts: opts}
	s.snap = s.build(model.NewDatabase(), model.NewPlayerTimes())
	return s
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Restore replaces the state with copies of db and pt.
func (s *Session) Restore(db *model.Database, pt *model.PlayerTimes) {
	db = db.Clone()
	db.RecomputeBounds()
	next := s.build(db, pt.Clone())
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
}

// Ingest merges a parsed export. It reports whether any new lap time was
// added. On error the state is unchanged.
func (s *Session) Ingest(tree xmltree.Node) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.snap.Database.Clone()
	pt := s.snap.PlayerTimes.Clone()
	added, err := adaptation.Ingestor{Logger: s.opts.Logger}.Ingest(tree, db, pt)
	if err != nil {
		return false, err
	}
	s.snap = s.build(db, pt)
	s.opts.Logger.Debug("ingested export", "added", added)
	return added, nil
}

// IngestFile reads, parses and ingests an export file.
func (s *Session) IngestFile(path string) (bool, error) {
	tree, err := adaptation.ParseFile(path)
	if err != nil {
		return false, err
	}
	added, err := s.Ingest(tree)
	if err != nil {
		return false, fmt.Errorf("failed to ingest %s: %w", path, err)
	}
	return added, nil
}

// Apply writes the processed time of every level from..to (stepping by step)
// back into the database as a new sample. Levels without processed data are
// skipped. Levels created this way get a sample count of 1. It returns the
// number of levels written.
func (s *Session) Apply(classID, trackID string, from, to, step int) (int, error) {
	if step <= 0 || from > to {
		return 0, fmt.Errorf("%w: %d..%d step %d", ErrInvalidRange, from, to, step)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	processed := s.snap.Processed.Track(classID, trackID)
	if processed == nil {
		return 0, fmt.Errorf("%w: class %s track %s", ErrNoData, classID, trackID)
	}

	db := s.snap.Database.Clone()
	added := 0
	for level := from; ; level += step {
		agg, ok := processed.AILevels[level]
		if ok && (agg.Count > 0 || agg.Provenance == model.Synthesized) {
			track := db.EnsureTrack(classID, trackID)
			if _, exists := track.AILevels[level]; !exists {
				track.SampleCounts[level] = 1
			}
			track.AILevels[level] = append(track.AILevels[level], agg.Time)
			added++
		}
		// Stop before level+step can pass to or overflow.
		if level > to-step {
			break
		}
	}
	if added == 0 {
		return 0, nil
	}
	db.Classes[classID].RecomputeBounds()
	s.snap = s.build(db, s.snap.PlayerTimes)
	s.opts.Logger.Debug("applied levels", "class", classID, "track", trackID, "from", from, "to", to, "step", step, "added", added)
	return added, nil
}

// RemoveGenerated deletes every level that looks generated, that is every
// level holding exactly one lap time. It returns the number of levels
// removed. Tracks and classes left without levels lose their bounds.
func (s *Session) RemoveGenerated() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.snap.Database.Clone()
	removed := 0
	for _, class := range db.Classes {
		for _, track := range class.Tracks {
			for _, level := range track.Levels() {
				if track.IsLikelyGenerated(level) {
					track.RemoveLevel(level)
					removed++
				}
			}
		}
	}
	if removed == 0 {
		return 0
	}
	db.RecomputeBounds()
	s.snap = s.build(db, s.snap.PlayerTimes)
	s.opts.Logger.Debug("removed generated levels", "removed", removed)
	return removed
}

// Reset discards all lap times and player times.
func (s *Session) Reset() {
	next := s.build(model.NewDatabase(), model.NewPlayerTimes())
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	s.opts.Logger.Debug("reset session")
}

func (s *Session) build(db *model.Database, pt *model.PlayerTimes) Snapshot {
	processed := stats.Process(db)
	if s.opts.FitModel != fit.None {
		var failures []stats.SynthesisFailure
		processed, failures = stats.Synthesize(processed, s.opts.FitModel, s.opts.Levels)
		for _, f := range failures {
			s.opts.Logger.Debug("curve synthesis skipped", "class", f.ClassID, "track", f.TrackID, "error", f.Err)
		}
	}
	return Snapshot{Database: db, PlayerTimes: pt, Processed: processed}
}
