// Package adaptation reads and writes the simulator's AI adaptation export.
//
// The export is a serialized dictionary: aiAdaptationData holds parallel
// layoutId and value sequences, each value holds parallel carClassId and
// sampledData sequences, and aiSkillVsLapTimes holds parallel aiSkill and
// aiData sequences. Any of them collapses to a bare value when it has a
// single element.
package adaptation

import (
	"errors"
	"log/slog"

	"github.com/verte-zerg/aiprimer/internal/model"
	"github.com/verte-zerg/aiprimer/internal/xmltree"
)

const (
	rootElement = "AiAdaptation"
	dataElement = "aiAdaptationData"
)

// ErrMalformedExport is returned when the tree does not have the export's
// root shape. Nothing is merged in that case.
var ErrMalformedExport = errors.New("malformed AI adaptation export")

// Ingestor merges parsed exports into a database.
type Ingestor struct {
	Logger *slog.Logger
}

// Ingest merges tree into db and pt using a discarding logger.
func Ingest(tree xmltree.Node, db *model.Database, pt *model.PlayerTimes) (bool, error) {
	return Ingestor{}.Ingest(tree, db, pt)
}

// Ingest merges tree into db and, when pt is not nil, into pt. It returns
// true when at least one lap time not already stored was added. Elements
// with mismatched or unparsable fields are skipped.
func (in Ingestor) Ingest(tree xmltree.Node, db *model.Database, pt *model.PlayerTimes) (bool, error) {
	data, ok := tree[rootElement].(xmltree.Node)
	if !ok {
		return false, ErrMalformedExport
	}
	raw, ok := data[dataElement]
	if !ok {
		return false, ErrMalformedExport
	}

	added := false
	for _, v := range xmltree.List(raw) {
		// An empty aiAdaptationData element decodes to a bare string.
		block, ok := v.(xmltree.Node)
		if !ok {
			continue
		}
		if in.mergeBlock(block, db, pt) {
			added = true
		}
	}
	return added, nil
}

func (in Ingestor) mergeBlock(block xmltree.Node, db *model.Database, pt *model.PlayerTimes) bool {
	log := in.logger()
	layoutIDs := xmltree.List(block["layoutId"])
	values := xmltree.List(block["value"])
	if len(layoutIDs) != len(values) {
		log.Debug("skipping adaptation block: layout/value count mismatch", "layouts", len(layoutIDs), "values", len(values))
		return false
	}

	added := false
	for i := range layoutIDs {
		trackID, ok := xmltree.Text(layoutIDs[i])
		if !ok {
			log.Debug("skipping layout without id", "index", i)
			continue
		}
		trackValue, ok := values[i].(xmltree.Node)
		if !ok {
			log.Debug("skipping layout without value", "track", trackID)
			continue
		}
		classIDs := xmltree.List(trackValue["carClassId"])
		samples := xmltree.List(trackValue["sampledData"])
		if len(classIDs) != len(samples) {
			log.Debug("skipping layout: class/sample count mismatch", "track", trackID)
			continue
		}
		for j := range classIDs {
			classID, ok := xmltree.Text(classIDs[j])
			if !ok {
				continue
			}
			sampled, ok := samples[j].(xmltree.Node)
			if !ok {
				continue
			}
			if pt != nil {
				mergePlayerTimes(sampled["playerBestLapTimes"], classID, trackID, pt)
			}
			if in.mergeLevels(sampled["aiSkillVsLapTimes"], classID, trackID, db) {
				added = true
			}
		}
	}
	return added
}

func mergePlayerTimes(entries any, classID, trackID string, pt *model.PlayerTimes) {
	if entries == nil {
		return
	}
	var times []float64
	for _, entry := range xmltree.List(xmltree.Field(entries, "lapTime")) {
		if v, ok := xmltree.Float(entry); ok {
			times = append(times, v)
		}
	}
	pt.Set(classID, trackID, times)
}

// mergeLevels works on a copy of the track and only writes it back when
// at least one level was recorded, so empty pairs never reach db.
func (in Ingestor) mergeLevels(entries any, classID, trackID string, db *model.Database) bool {
	if entries == nil {
		return false
	}
	log := in.logger()
	skills := xmltree.List(xmltree.Field(entries, "aiSkill"))
	aiData := xmltree.List(xmltree.Field(entries, "aiData"))
	if len(skills) != len(aiData) {
		log.Debug("skipping skill table: skill/data count mismatch", "class", classID, "track", trackID)
		return false
	}

	track := model.NewTrackEntry()
	if existing := db.Track(classID, trackID); existing != nil {
		track = existing.Clone()
	}

	added := false
	recorded := 0
	for k := range skills {
		level, ok := xmltree.Int(skills[k])
		if !ok {
			log.Debug("skipping unparsable skill level", "class", classID, "track", trackID, "index", k)
			continue
		}
		lapTime, ok := xmltree.Float(xmltree.Field(aiData[k], "averagedLapTime"))
		if !ok {
			log.Debug("skipping unparsable lap time", "class", classID, "track", trackID, "level", level)
			continue
		}
		count, ok := xmltree.Int(xmltree.Field(aiData[k], "numberOfSampledRaces"))
		if !ok {
			count = 1
		}
		track.SampleCounts[level] = count
		if track.AddTime(level, lapTime) {
			added = true
		}
		recorded++
	}
	if recorded == 0 {
		return false
	}

	if db.Classes == nil {
		db.Classes = map[string]*model.ClassEntry{}
	}
	class, ok := db.Classes[classID]
	if !ok {
		class = model.NewClassEntry()
		db.Classes[classID] = class
	}
	class.Tracks[trackID] = track
	class.RecomputeBounds()
	return added
}

func (in Ingestor) logger() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.New(slog.DiscardHandler)
}
