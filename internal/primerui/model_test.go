package primerui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/aiprimer/internal/model"
	"github.com/verte-zerg/aiprimer/internal/primer"
)

func newTestModel(t *testing.T, onChange func(primer.Snapshot) error) (*Model, *primer.Session) {
	t.Helper()
	db := model.NewDatabase()
	track := db.EnsureTrack("c1", "t1")
	track.AILevels[98] = []float64{101, 102}
	track.AILevels[99] = []float64{100, 101}
	track.AILevels[100] = []float64{99}
	pt := model.NewPlayerTimes()
	pt.Set("c1", "t1", []float64{100})

	session := primer.NewSession(primer.Options{})
	session.Restore(db, pt)
	m := NewModel(Options{
		Session: session,
		Assets: &model.Assets{
			Classes: map[string]model.ClassAsset{"c1": {ID: "c1", Name: "GT3"}},
			Tracks:  map[string]model.TrackAsset{"t1": {ID: "t1", Name: "Spa - GP"}},
		},
		Config:   model.PrimerConfig{NumLevels: 3, Spacing: 1, MinLevel: 80, MaxLevel: 120},
		OnChange: onChange,
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, session
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestApplyFromLevelsTab(t *testing.T) {
	saved := 0
	m, session := newTestModel(t, func(primer.Snapshot) error {
		saved++
		return nil
	})

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, tabLevels, m.activeTab)
	require.NotNil(t, m.selected)
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(keys("a"))

	assert.Empty(t, m.errMsg)
	assert.Contains(t, m.status, "98-100")
	assert.Contains(t, m.status, "added 3 levels")
	assert.Equal(t, 1, saved)
	track := session.Snapshot().Database.Track("c1", "t1")
	assert.Len(t, track.AILevels[98], 3)
	assert.Len(t, track.AILevels[100], 2)
}

func TestSelectTrackHighlightsFirstLevel(t *testing.T) {
	m, session := newTestModel(t, nil)
	assert.Equal(t, 0, m.trackTable.Cursor())

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, 0, m.levelTable.Cursor())
	require.Equal(t, []int{98, 99, 100}, m.levels)

	m.Update(keys("a"))
	assert.Empty(t, m.errMsg)
	assert.Contains(t, m.status, "97-99")
	assert.Contains(t, m.status, "added 2 levels")
	track := session.Snapshot().Database.Track("c1", "t1")
	assert.Len(t, track.AILevels[98], 3)
	assert.Len(t, track.AILevels[99], 3)
}

func TestCommitKeepsLevelCursor(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 2, m.levelTable.Cursor())

	m.Update(keys("a"))
	require.Empty(t, m.errMsg)
	assert.Equal(t, 2, m.levelTable.Cursor())

	m.Update(keys("a"))
	assert.Empty(t, m.errMsg)
	assert.Contains(t, m.status, "99-101")
}

func TestRefreshFromEmptySession(t *testing.T) {
	session := primer.NewSession(primer.Options{})
	m := NewModel(Options{Session: session, Config: model.PrimerConfig{NumLevels: 3, Spacing: 1, MinLevel: 80, MaxLevel: 120}})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	db := model.NewDatabase()
	db.EnsureTrack("c1", "t1").AILevels[90] = []float64{100, 101}
	session.Restore(db, model.NewPlayerTimes())
	m.Update(RefreshMsg{})

	assert.Equal(t, 0, m.trackTable.Cursor())
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.selected)
	assert.Equal(t, 0, m.levelTable.Cursor())
}

func TestApplyWithoutSelection(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.Update(keys("a"))
	assert.Contains(t, m.errMsg, "Select a track")
}

func TestRemoveGeneratedNeedsConfirmation(t *testing.T) {
	m, session := newTestModel(t, nil)

	m.Update(keys("x"))
	assert.Contains(t, m.View(), "single lap time")
	m.Update(keys("n"))
	assert.Equal(t, "Cancelled.", m.status)
	assert.Len(t, session.Snapshot().Database.Track("c1", "t1").AILevels, 3)

	m.Update(keys("x"))
	m.Update(keys("y"))
	assert.Equal(t, "Removed 1 generated levels.", m.status)
	assert.Len(t, session.Snapshot().Database.Track("c1", "t1").AILevels, 2)
}

func TestResetClearsTables(t *testing.T) {
	m, session := newTestModel(t, func(primer.Snapshot) error { return errors.New("disk full") })
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.Update(keys("X"))
	m.Update(keys("y"))
	assert.True(t, session.Snapshot().Database.Empty())
	assert.Nil(t, m.selected)
	assert.Empty(t, m.tracks)
	assert.Contains(t, m.errMsg, "disk full")
}

func TestSettingsForm(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m.Update(keys("/"))
	require.True(t, m.settingsMode)
	m.settingInputs[0].SetValue("7")
	m.settingInputs[1].SetValue("0")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.settingsMode)
	assert.Contains(t, m.settingsError, "spacing")

	m.settingInputs[1].SetValue("2")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.settingsMode)
	assert.Equal(t, 7, m.cfg.NumLevels)
	assert.Equal(t, 2, m.cfg.Spacing)
}

func TestRefreshMsgReloadsSnapshot(t *testing.T) {
	m, session := newTestModel(t, nil)
	db := session.Snapshot().Database.Clone()
	db.EnsureTrack("c2", "t9").AILevels[90] = []float64{120, 121}
	session.Restore(db, nil)

	m.Update(RefreshMsg{})
	assert.Len(t, m.tracks, 2)
	assert.Equal(t, "Export reloaded.", m.status)
}

func TestViewShowsNames(t *testing.T) {
	m, _ := newTestModel(t, nil)
	view := m.View()
	assert.True(t, strings.Contains(view, "GT3"))
	assert.True(t, strings.Contains(view, "Spa - GP"))
	assert.True(t, strings.Contains(view, "1:40.000"))
}
