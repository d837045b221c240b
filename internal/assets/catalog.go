// Package assets parses the simulator's JSON asset catalog.
package assets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/verte-zerg/aiprimer/internal/model"
)

type rawCatalog struct {
	Classes map[string]rawClass `json:"classes"`
	Tracks  map[string]rawTrack `json:"tracks"`
}

type rawClass struct {
	Name string `json:"Name"`
}

type rawTrack struct {
	Name    string      `json:"Name"`
	Layouts []rawLayout `json:"layouts"`
}

type rawLayout struct {
	ID   flexID `json:"Id"`
	Name string `json:"Name"`
}

// flexID accepts both numeric and string identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", string(b), err)
	}
	*f = flexID(n.String())
	return nil
}

// Parse decodes a catalog. Track entries are keyed by layout id and named
// "{track} - {layout}".
func Parse(r io.Reader) (*model.Assets, error) {
	var raw rawCatalog
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode asset catalog: %w", err)
	}

	out := &model.Assets{
		Classes: make(map[string]model.ClassAsset, len(raw.Classes)),
		Tracks:  map[string]model.TrackAsset{},
	}
	for id, class := range raw.Classes {
		asset := model.ClassAsset{ID: id, Name: class.Name}
		out.Classes[id] = asset
		out.ClassesSorted = append(out.ClassesSorted, asset)
	}
	for _, track := range raw.Tracks {
		for _, layout := range track.Layouts {
			id := string(layout.ID)
			if id == "" {
				continue
			}
			asset := model.TrackAsset{ID: id, Name: fmt.Sprintf("%s - %s", track.Name, layout.Name)}
			out.Tracks[id] = asset
			out.TracksSorted = append(out.TracksSorted, asset)
		}
	}
	out.NumClasses = len(out.Classes)
	out.NumTracks = len(out.TracksSorted)

	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(out.ClassesSorted, func(i, j int) bool {
		return less(col, out.ClassesSorted[i].Name, out.ClassesSorted[j].Name, out.ClassesSorted[i].ID, out.ClassesSorted[j].ID)
	})
	sort.SliceStable(out.TracksSorted, func(i, j int) bool {
		return less(col, out.TracksSorted[i].Name, out.TracksSorted[j].Name, out.TracksSorted[i].ID, out.TracksSorted[j].ID)
	})
	return out, nil
}

func less(col *collate.Collator, a, b, idA, idB string) bool {
	if c := col.CompareString(a, b); c != 0 {
		return c < 0
	}
	return idA < idB
}

// Load reads a catalog file.
func Load(path string) (*model.Assets, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only catalog.
			_ = cerr
		}
	}()
	return Parse(file)
}
