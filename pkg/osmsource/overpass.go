package osmsource

import (
	"encoding/json"
	"io"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
)

// overpassResponse mirrors the subset of the Overpass JSON output format
// the core accepts as input.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type    string            `json:"type"`
	ID      int64             `json:"id"`
	Lat     float64           `json:"lat"`
	Lon     float64           `json:"lon"`
	Nodes   []int64           `json:"nodes"`
	Tags    map[string]string `json:"tags"`
	Members []overpassMember  `json:"members"`
}

type overpassMember struct {
	Type string `json:"type"`
	Ref  int64  `json:"ref"`
	Role string `json:"role"`
}

// StreamOverpassJSON decodes an Overpass API `elements` array into the
// common Entity stream. Unlike StreamPBF this reads the whole document
// before emitting (Overpass JSON has no streaming-friendly framing), but
// the resulting channel shape is identical so callers don't care which
// source fed the builder.
func StreamOverpassJSON(r io.Reader) (<-chan Entity, <-chan error) {
	entities := make(chan Entity, 256)
	errs := make(chan error, 1)

	go func() {
		defer close(entities)
		defer close(errs)

		var resp overpassResponse
		dec := json.NewDecoder(r)
		if err := dec.Decode(&resp); err != nil {
			errs <- rerrors.Wrap(rerrors.InputMalformed, err, "failed decoding Overpass JSON")
			return
		}

		for _, el := range resp.Elements {
			switch el.Type {
			case "node":
				entities <- Entity{Type: EntityNode, Node: &Node{ID: el.ID, Lat: el.Lat, Lon: el.Lon}}
			case "way":
				entities <- Entity{Type: EntityWay, Way: &Way{ID: el.ID, NodeIDs: el.Nodes, Tags: el.Tags}}
			case "relation":
				members := make([]RelationMember, len(el.Members))
				for i, m := range el.Members {
					members[i] = RelationMember{Type: m.Type, Ref: m.Ref, Role: m.Role}
				}
				entities <- Entity{Type: EntityRelation, Relation: &Relation{ID: el.ID, Tags: el.Tags, Members: members}}
			}
		}
	}()

	return entities, errs
}
