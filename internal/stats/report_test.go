package stats

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/aiprimer/internal/model"
)

func sampleReport(t *testing.T) Report {
	t.Helper()
	db := sampleDatabase()
	pt := model.NewPlayerTimes()
	pt.Set("c1", "t1", []float64{97.5, 99})
	assets := &model.Assets{
		Classes: map[string]model.ClassAsset{"c1": {ID: "c1", Name: "GT3"}},
		Tracks:  map[string]model.TrackAsset{"t1": {ID: "t1", Name: "Spa - GP"}},
	}
	return BuildReport(db, pt, Process(db), assets)
}

func TestBuildReport(t *testing.T) {
	r := sampleReport(t)
	require.Len(t, r.Classes, 1)
	class := r.Classes[0]
	assert.Equal(t, "GT3", class.Name)
	require.Len(t, class.Tracks, 1, "empty track omitted")
	track := class.Tracks[0]
	assert.Equal(t, "Spa - GP", track.Name)
	require.NotNil(t, track.MinAI)
	assert.Equal(t, 90, *track.MinAI)
	assert.Equal(t, 100, *track.MaxAI)
	require.NotNil(t, track.PlayerBest)
	assert.Equal(t, 97.5, *track.PlayerBest)
	require.Len(t, track.Levels, 3)
	assert.Equal(t, 90, track.Levels[0].Level)
	assert.Equal(t, 3, r.Summary.Levels)
}

func TestWriteReportTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(t), FormatTable))
	out := buf.String()
	assert.Contains(t, out, "GT3")
	assert.Contains(t, out, "Spa - GP")
	assert.Contains(t, out, "90-100")
	assert.Contains(t, out, "1:37.500")
}

func TestWriteReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(t), FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	classes := decoded["classes"].([]any)
	track := classes[0].(map[string]any)["tracks"].([]any)[0].(map[string]any)
	assert.Equal(t, "Spa - GP", track["name"])
	level := track["levels"].([]any)[0].(map[string]any)
	assert.Equal(t, "observed", level["provenance"])
}

func TestWriteReportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, sampleReport(t), FormatYAML))

	var decoded struct {
		Summary Summary `yaml:"summary"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded.Summary.Levels)
	assert.Contains(t, buf.String(), "provenance: observed")
}

func TestWriteReportUnknownFormat(t *testing.T) {
	err := WriteReport(&bytes.Buffer{}, Report{}, "csv")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "csv"))
}

func TestRenderLevelTable(t *testing.T) {
	db := sampleDatabase()
	pt := model.NewPlayerTimes()
	pt.Set("c1", "t1", []float64{97})
	lines := RenderLevelTable(Process(db).Track("c1", "t1"), pt.Track("c1", "t1"))
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Δ player")
	assert.Contains(t, lines[1], "1:41.000")
	assert.Contains(t, lines[1], "+4.000")
	assert.Contains(t, lines[3], "-1.000")
}
