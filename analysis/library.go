package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/djmix/compat"
	"github.com/xeptore/djmix/errutil"
	"github.com/xeptore/djmix/track"
)

// Library is a track catalog read from a JSON file:
//
//	{"tracks": [{"id": "...", "title": "...", "duration": 312,
//	             "analysis": {"bpm": 124, "key": "Am", "energy": 0.7}}]}
//
// The analysis key may also be given as Spotify-style integers,
// "key": 9, "mode": 0.
type Library struct {
	tracks   []track.Track
	analyses Static
}

func LoadLibrary(filePath string) (*Library, error) {
	data, err := os.ReadFile(filePath)
	if nil != err {
		flawP := flaw.P{"path": filePath, "err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to read library file: %v", err)).Append(flawP)
	}

	lib, err := ParseLibrary(data)
	if nil != err {
		return nil, errutil.AsFlaw(err).Append(flaw.P{"path": filePath})
	}
	return lib, nil
}

func ParseLibrary(data []byte) (*Library, error) {
	if !gjson.ValidBytes(data) {
		return nil, flaw.From(errors.New("invalid library json")).Append(flaw.P{"size": len(data)})
	}

	tracksKey := gjson.GetBytes(data, "tracks")
	if !tracksKey.IsArray() {
		return nil, flaw.From(errors.New("library has no tracks array")).Append(flaw.P{"tracks_type": tracksKey.Type.String()})
	}

	var (
		items = tracksKey.Array()
		lib   = &Library{tracks: make([]track.Track, 0, len(items)), analyses: make(Static, len(items))}
	)
	for i, item := range items {
		t, a, err := parseTrack(item)
		if nil != err {
			return nil, flaw.From(fmt.Errorf("invalid track at index %d: %v", i, err)).Append(flaw.P{"index": i, "raw": item.Raw})
		}
		if _, ok := lib.Track(t.ID); ok {
			return nil, flaw.From(fmt.Errorf("duplicate track id %q", t.ID)).Append(flaw.P{"index": i})
		}
		lib.tracks = append(lib.tracks, t)
		if nil != a {
			lib.analyses[t.ID] = a
		}
	}

	return lib, nil
}

func parseTrack(item gjson.Result) (track.Track, *track.Analysis, error) {
	id := item.Get("id")
	if id.Type != gjson.String || id.Str == "" {
		return track.Track{}, nil, errors.New("missing track id") //nolint:exhaustruct
	}

	t := track.Track{
		ID:       id.Str,
		Title:    item.Get("title").String(),
		Artist:   item.Get("artist").String(),
		Album:    item.Get("album").String(),
		Genre:    item.Get("genre").String(),
		Duration: item.Get("duration").Float(),
	}

	raw := item.Get("analysis")
	if !raw.IsObject() {
		return t, nil, nil
	}

	key, err := parseKeyField(raw)
	if nil != err {
		return t, nil, err
	}

	a := &track.Analysis{
		BPM:              raw.Get("bpm").Float(),
		Key:              key,
		Energy:           raw.Get("energy").Float(),
		Danceability:     raw.Get("danceability").Float(),
		Valence:          raw.Get("valence").Float(),
		Acousticness:     raw.Get("acousticness").Float(),
		Instrumentalness: raw.Get("instrumentalness").Float(),
		Loudness:         raw.Get("loudness").Float(),
		TempoConfidence:  raw.Get("tempo_confidence").Float(),
		KeyConfidence:    raw.Get("key_confidence").Float(),
	}
	if !raw.Get("energy").Exists() {
		a.Energy = track.DefaultEnergy
	}
	return t, a, nil
}

func parseKeyField(raw gjson.Result) (string, error) {
	switch keyField := raw.Get("key"); keyField.Type { //nolint:exhaustive
	case gjson.String:
		k, err := compat.ParseKey(keyField.Str)
		if nil != err {
			return "", err
		}
		return k.String(), nil
	case gjson.Number:
		mode := raw.Get("mode")
		if !mode.Exists() {
			return "", errors.New("numeric key requires mode")
		}
		k, ok := compat.KeyFromPitchClass(int(keyField.Int()), int(mode.Int()))
		if !ok {
			return "", nil
		}
		return k.String(), nil
	case gjson.Null:
		return "", nil
	default:
		return "", fmt.Errorf("unexpected key type %s", keyField.Type)
	}
}

func (l *Library) Tracks() []track.Track {
	return l.tracks
}

func (l *Library) Track(id string) (track.Track, bool) {
	for _, t := range l.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return track.Track{}, false //nolint:exhaustruct
}

func (l *Library) Analysis(ctx context.Context, t track.Track) (*track.Analysis, error) {
	return l.analyses.Analysis(ctx, t)
}
