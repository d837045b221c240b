package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/aiprimer/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "aiprimer.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	db := model.NewDatabase()
	track := db.EnsureTrack("1234", "5678")
	track.AILevels[95] = []float64{101.5, 100.25}
	track.AILevels[100] = []float64{98}
	track.SampleCounts[95] = 4
	db.EnsureTrack("1234", "9999")
	db.RecomputeBounds()
	pt := model.NewPlayerTimes()
	pt.Set("1234", "5678", []float64{99.5, 97.75})

	require.NoError(t, st.Save(ctx, db, pt))

	gotDB, gotPT, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, db, gotDB)
	assert.Equal(t, pt, gotPT)
	assert.NotNil(t, gotDB.Track("1234", "9999"), "empty track kept")
}

func TestSaveReplaces(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	db := model.NewDatabase()
	db.EnsureTrack("a", "b").AILevels[90] = []float64{100}
	db.RecomputeBounds()
	require.NoError(t, st.Save(ctx, db, model.NewPlayerTimes()))
	require.NoError(t, st.Save(ctx, model.NewDatabase(), model.NewPlayerTimes()))

	gotDB, gotPT, err := st.Load(ctx)
	require.NoError(t, err)
	assert.True(t, gotDB.Empty())
	assert.True(t, gotPT.Empty())
}

func TestImports(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first, err := st.RecordImport(ctx, "/tmp/a.xml", true, base)
	require.NoError(t, err)
	_, err = uuid.Parse(first.ID)
	require.NoError(t, err)
	_, err = st.RecordImport(ctx, "/tmp/b.xml", false, base.Add(time.Minute))
	require.NoError(t, err)

	all, err := st.ListImports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/tmp/b.xml", all[0].Path)
	assert.False(t, all[0].Added)
	assert.Equal(t, first, all[1])

	last, err := st.ListImports(ctx, 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "/tmp/b.xml", last[0].Path)

	require.NoError(t, st.Save(ctx, model.NewDatabase(), model.NewPlayerTimes()))
	all, err = st.ListImports(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2, "history survives Save")
}

func TestListImportsOrdersSubsecondTimes(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC)
	for _, at := range []time.Time{base.Add(500 * time.Millisecond), base, base.Add(time.Second)} {
		_, err := st.RecordImport(ctx, at.Format(time.StampMilli), true, at)
		require.NoError(t, err)
	}

	all, err := st.ListImports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].ImportedAt.Equal(base.Add(time.Second)))
	assert.True(t, all[1].ImportedAt.Equal(base.Add(500*time.Millisecond)))
	assert.True(t, all[2].ImportedAt.Equal(base))
}
