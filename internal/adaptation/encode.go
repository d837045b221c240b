package adaptation

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/verte-zerg/aiprimer/internal/model"
)

// Encode writes db and pt in the export shape. Each level is written as the
// mean of its lap times together with its recorded sample count, or the
// number of lap times when no count was recorded. Tracks and classes are
// ordered by id.
func Encode(w io.Writer, db *model.Database, pt *model.PlayerTimes) error {
	byTrack := map[string]map[string]struct{}{}
	addPair := func(trackID, classID string) {
		if byTrack[trackID] == nil {
			byTrack[trackID] = map[string]struct{}{}
		}
		byTrack[trackID][classID] = struct{}{}
	}
	if db != nil {
		for classID, class := range db.Classes {
			for trackID, track := range class.Tracks {
				if len(track.AILevels) > 0 {
					addPair(trackID, classID)
				}
			}
		}
	}
	if pt != nil {
		for classID, class := range pt.Classes {
			for trackID, track := range class.Tracks {
				if len(track.AllTimes) > 0 {
					addPair(trackID, classID)
				}
			}
		}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	e := &encoder{enc: enc}

	e.start("AiAdaptation")
	e.start(dataElement)
	for _, trackID := range sortedIDs(byTrack) {
		e.leaf("layoutId", "int32", trackID)
		e.start("value")
		for _, classID := range sortedIDs(byTrack[trackID]) {
			e.leaf("carClassId", "int32", classID)
			e.start("sampledData")
			e.playerTimes(pt.Track(classID, trackID))
			e.levels(db.Track(classID, trackID))
			e.end("sampledData")
		}
		e.end("value")
	}
	e.end(dataElement)
	e.end("AiAdaptation")
	if e.err != nil {
		return fmt.Errorf("failed to encode adaptation export: %w", e.err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("failed to flush adaptation export: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

type encoder struct {
	enc *xml.Encoder
	err error
}

func (e *encoder) token(tok xml.Token) {
	if e.err != nil {
		return
	}
	e.err = e.enc.EncodeToken(tok)
}

func (e *encoder) start(name string) {
	e.token(xml.StartElement{Name: xml.Name{Local: name}})
}

func (e *encoder) end(name string) {
	e.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (e *encoder) leaf(name, typ, text string) {
	e.token(xml.StartElement{
		Name: xml.Name{Local: name},
		Attr: []xml.Attr{{Name: xml.Name{Local: "type"}, Value: typ}},
	})
	e.token(xml.CharData(text))
	e.end(name)
}

func (e *encoder) playerTimes(track *model.PlayerTrack) {
	if track == nil || len(track.AllTimes) == 0 {
		return
	}
	e.start("playerBestLapTimes")
	for _, v := range track.AllTimes {
		e.leaf("lapTime", "float32", formatFloat(v))
	}
	e.end("playerBestLapTimes")
}

func (e *encoder) levels(track *model.TrackEntry) {
	if track == nil || len(track.AILevels) == 0 {
		return
	}
	e.start("aiSkillVsLapTimes")
	for _, level := range track.Levels() {
		times := track.AILevels[level]
		if len(times) == 0 {
			continue
		}
		var sum float64
		for _, v := range times {
			sum += v
		}
		count := track.SampleCounts[level]
		if count <= 0 {
			count = len(times)
		}
		e.leaf("aiSkill", "uint32", strconv.Itoa(level))
		e.start("aiData")
		e.leaf("averagedLapTime", "float32", formatFloat(sum/float64(len(times))))
		e.leaf("numberOfSampledRaces", "uint32", strconv.Itoa(count))
		e.end("aiData")
	}
	e.end("aiSkillVsLapTimes")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
