package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/aiprimer/internal/model"
)

// Report formats accepted by WriteReport.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Report is a flattened, name-resolved view of a processed database.
type Report struct {
	Summary Summary       `json:"summary" yaml:"summary"`
	Classes []ReportClass `json:"classes" yaml:"classes"`
}

// ReportClass is one vehicle class in a Report.
type ReportClass struct {
	ID     string        `json:"id" yaml:"id"`
	Name   string        `json:"name" yaml:"name"`
	Tracks []ReportTrack `json:"tracks" yaml:"tracks"`
}

// ReportTrack is one class/track pair in a Report.
type ReportTrack struct {
	ID         string        `json:"id" yaml:"id"`
	Name       string        `json:"name" yaml:"name"`
	MinAI      *int          `json:"minAI,omitempty" yaml:"minAI,omitempty"`
	MaxAI      *int          `json:"maxAI,omitempty" yaml:"maxAI,omitempty"`
	PlayerBest *float64      `json:"playerBest,omitempty" yaml:"playerBest,omitempty"`
	Levels     []ReportLevel `json:"levels" yaml:"levels"`
}

// ReportLevel is one processed skill level.
type ReportLevel struct {
	Level      int              `json:"level" yaml:"level"`
	Time       float64          `json:"time" yaml:"time"`
	Samples    int              `json:"samples" yaml:"samples"`
	Provenance model.Provenance `json:"provenance" yaml:"provenance"`
}

// BuildReport resolves names from assets and orders classes and tracks by
// id. Tracks without processed levels are left out.
func BuildReport(db *model.Database, pt *model.PlayerTimes, processed *model.ProcessedDatabase, assets *model.Assets) Report {
	report := Report{Summary: Summarize(db, pt)}
	for _, classID := range processed.ClassIDs() {
		class := processed.Classes[classID]
		rc := ReportClass{ID: classID, Name: assets.ClassName(classID)}
		for _, trackID := range class.TrackIDs() {
			track := class.Tracks[trackID]
			if len(track.AILevels) == 0 {
				continue
			}
			rt := ReportTrack{ID: trackID, Name: assets.TrackName(trackID)}
			if track.Bounds != nil {
				lo, hi := track.Bounds.Min, track.Bounds.Max
				rt.MinAI, rt.MaxAI = &lo, &hi
			}
			if player := pt.Track(classID, trackID); player != nil && player.BestTime != nil {
				best := *player.BestTime
				rt.PlayerBest = &best
			}
			for _, level := range track.Levels() {
				agg := track.AILevels[level]
				rt.Levels = append(rt.Levels, ReportLevel{
					Level:      level,
					Time:       agg.Time,
					Samples:    agg.Count,
					Provenance: agg.Provenance,
				})
			}
			rc.Tracks = append(rc.Tracks, rt)
		}
		if len(rc.Tracks) > 0 {
			report.Classes = append(report.Classes, rc)
		}
	}
	return report
}

// WriteReport writes r in the requested format.
func WriteReport(w io.Writer, r Report, format string) error {
	switch strings.ToLower(format) {
	case "", FormatTable:
		for _, line := range RenderReport(r) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown report format %q (use table, json or yaml)", format)
	}
}

// RenderSummary formats a Summary as aligned key/value lines.
func RenderSummary(s Summary) []string {
	rows := [][]string{
		{"Classes", strconv.Itoa(s.Classes)},
		{"Tracks", strconv.Itoa(s.Tracks)},
		{"Levels", strconv.Itoa(s.Levels)},
		{"Samples", strconv.Itoa(s.Samples)},
		{"Likely generated", strconv.Itoa(s.LikelyGenerated)},
		{"Player tracks", strconv.Itoa(s.PlayerTracks)},
	}
	return formatTable([]column{{align: alignLeft}, {align: alignRight}}, rows)
}

var reportColumns = []column{
	{header: "Track", align: alignLeft},
	{header: "AI range", align: alignLeft},
	{header: "Levels", align: alignRight},
	{header: "Player best", align: alignPoint},
}

// RenderReport formats one table of tracks per class, preceded by the
// summary.
func RenderReport(r Report) []string {
	lines := RenderSummary(r.Summary)
	for _, class := range r.Classes {
		lines = append(lines, "", class.Name)
		rows := make([][]string, 0, len(class.Tracks))
		for _, track := range class.Tracks {
			rows = append(rows, []string{
				track.Name,
				formatBounds(track.MinAI, track.MaxAI),
				strconv.Itoa(len(track.Levels)),
				formatOptionalTime(track.PlayerBest),
			})
		}
		lines = append(lines, formatTable(reportColumns, rows)...)
	}
	return lines
}

// RenderLevelTable formats the levels of one track. When player is set a
// delta column compares each level with the player's best time.
func RenderLevelTable(track *model.ProcessedTrack, player *model.PlayerTrack) []string {
	if track == nil {
		return nil
	}
	cols := []column{
		{header: "Level", align: alignRight},
		{header: "Lap time", align: alignPoint},
		{header: "Samples", align: alignRight},
		{header: "Source", align: alignLeft},
	}
	var best *float64
	if player != nil && player.BestTime != nil {
		best = player.BestTime
		cols = append(cols, column{header: "Δ player", align: alignPoint})
	}
	rows := make([][]string, 0, len(track.AILevels))
	for _, level := range track.Levels() {
		agg := track.AILevels[level]
		row := []string{
			strconv.Itoa(level),
			model.FormatLapTime(agg.Time, ""),
			strconv.Itoa(agg.Count),
			agg.Provenance.String(),
		}
		if best != nil {
			row = append(row, fmt.Sprintf("%+.3f", agg.Time-*best))
		}
		rows = append(rows, row)
	}
	return formatTable(cols, rows)
}

func formatBounds(lo, hi *int) string {
	if lo == nil || hi == nil {
		return "-"
	}
	return fmt.Sprintf("%d-%d", *lo, *hi)
}

func formatOptionalTime(v *float64) string {
	if v == nil {
		return "-"
	}
	return model.FormatLapTime(*v, "")
}
