package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/aiprimer/internal/fit"
	"github.com/verte-zerg/aiprimer/internal/model"
)

func sampleDatabase() *model.Database {
	db := model.NewDatabase()
	track := db.EnsureTrack("c1", "t1")
	track.AILevels[90] = []float64{100, 102}
	track.AILevels[95] = []float64{98}
	track.AILevels[100] = []float64{95, 96, 97}
	db.EnsureTrack("c1", "t2")
	db.RecomputeBounds()
	return db
}

func TestProcessReducesLevels(t *testing.T) {
	db := sampleDatabase()
	processed := Process(db)

	track := processed.Track("c1", "t1")
	require.NotNil(t, track)
	require.NotNil(t, track.Bounds)
	assert.Equal(t, model.Range{Min: 90, Max: 100}, *track.Bounds)
	assert.Equal(t, model.ProcessedLevel{Count: 2, Time: 101}, track.AILevels[90])
	assert.Equal(t, model.ProcessedLevel{Count: 1, Time: 98}, track.AILevels[95])
	assert.Equal(t, model.ProcessedLevel{Count: 3, Time: 96}, track.AILevels[100])

	empty := processed.Track("c1", "t2")
	require.NotNil(t, empty)
	assert.Nil(t, empty.Bounds)
	assert.Empty(t, empty.AILevels)
}

func TestProcessSkipsEmptyLevelsAndDetaches(t *testing.T) {
	db := sampleDatabase()
	db.Classes["c1"].Tracks["t1"].AILevels[110] = nil
	processed := Process(db)

	_, ok := processed.Track("c1", "t1").AILevels[110]
	assert.False(t, ok)

	processed.Track("c1", "t1").Bounds.Min = 1
	assert.Equal(t, 90, db.Track("c1", "t1").Bounds.Min)
}

func TestProcessNil(t *testing.T) {
	assert.True(t, Process(nil).Empty())
}

func TestComputeTime(t *testing.T) {
	count, mean := ComputeTime(nil)
	assert.Zero(t, count)
	assert.Zero(t, mean)

	count, mean = ComputeTime([]float64{1, 2, 3, 4})
	assert.Equal(t, 4, count)
	assert.InDelta(t, 2.5, mean, 1e-12)
}

func TestSynthesizeFillsMissingLevels(t *testing.T) {
	db := model.NewDatabase()
	track := db.EnsureTrack("c1", "t1")
	track.AILevels[90] = []float64{100}
	track.AILevels[100] = []float64{90}
	db.RecomputeBounds()
	processed := Process(db)

	out, failures := Synthesize(processed, fit.LinearModel, model.Range{Min: 88, Max: 92})
	require.Empty(t, failures)

	levels := out.Track("c1", "t1").AILevels
	assert.Equal(t, model.Observed, levels[90].Provenance)
	for _, level := range []int{88, 89, 91, 92} {
		agg, ok := levels[level]
		require.True(t, ok, "level %d", level)
		assert.Equal(t, model.Synthesized, agg.Provenance)
		assert.Zero(t, agg.Count)
		assert.InDelta(t, 190-float64(level), agg.Time, 1e-9)
	}
	assert.Len(t, processed.Track("c1", "t1").AILevels, 2, "input left untouched")
}

func TestSynthesizeReportsFailures(t *testing.T) {
	db := model.NewDatabase()
	db.EnsureTrack("c1", "t1").AILevels[90] = []float64{100}
	db.RecomputeBounds()

	out, failures := Synthesize(Process(db), fit.ParabolaModel, model.Range{Min: 80, Max: 120})
	require.Len(t, failures, 1)
	assert.Equal(t, "c1", failures[0].ClassID)
	assert.Equal(t, "t1", failures[0].TrackID)
	assert.ErrorIs(t, failures[0].Err, fit.ErrSingularSystem)
	assert.Len(t, out.Track("c1", "t1").AILevels, 1)
}

func TestFitTrackNeedsEnoughLevels(t *testing.T) {
	track := Process(sampleDatabase()).Track("c1", "t1")

	_, err := FitTrack(track, fit.ParabolaModel)
	require.NoError(t, err)

	delete(track.AILevels, 95)
	_, err = FitTrack(track, fit.ParabolaModel)
	require.ErrorIs(t, err, fit.ErrSingularSystem)
	assert.Contains(t, err.Error(), "parabola fit needs 3 observed levels, track has 2")

	_, err = FitTrack(track, fit.LinearModel)
	assert.NoError(t, err)
}

func TestSynthesizeNoneCopies(t *testing.T) {
	processed := Process(sampleDatabase())
	out, failures := Synthesize(processed, fit.None, model.Range{Min: 80, Max: 120})
	assert.Empty(t, failures)
	assert.Equal(t, processed, out)
	assert.NotSame(t, processed.Track("c1", "t1"), out.Track("c1", "t1"))
}

func TestSummarize(t *testing.T) {
	pt := model.NewPlayerTimes()
	pt.Set("c1", "t1", []float64{99})
	s := Summarize(sampleDatabase(), pt)
	assert.Equal(t, Summary{
		Classes:         1,
		Tracks:          1,
		Levels:          3,
		Samples:         6,
		LikelyGenerated: 1,
		PlayerTracks:    1,
	}, s)
}
