package osmsource

import (
	"context"
	"io"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/ridi-bike/ridi-router/internal/rerrors"
)

// StreamPBF decodes a Geofabrik-style OSM PBF extract into the common
// Entity stream. Errors are delivered on the error channel; the entity
// channel is closed (with no further sends) once decoding finishes or
// fails. Uses paulmach/osm for PBF decoding, delivered as a push-channel
// shape instead of a slurp-into-slice one, since the builder wants to
// buffer only what it needs per phase.
func StreamPBF(ctx context.Context, r io.Reader) (<-chan Entity, <-chan error) {
	entities := make(chan Entity, 256)
	errs := make(chan error, 1)

	go func() {
		defer close(entities)
		defer close(errs)

		scanner := osmpbf.New(ctx, r, 4)
		defer scanner.Close()

		for scanner.Scan() {
			switch o := scanner.Object().(type) {
			case *osm.Node:
				entities <- Entity{Type: EntityNode, Node: &Node{
					ID:  int64(o.ID),
					Lat: o.Lat,
					Lon: o.Lon,
				}}
			case *osm.Way:
				nodeIDs := make([]int64, len(o.Nodes))
				for i, n := range o.Nodes {
					nodeIDs[i] = int64(n.ID)
				}
				entities <- Entity{Type: EntityWay, Way: &Way{
					ID:      int64(o.ID),
					NodeIDs: nodeIDs,
					Tags:    o.Tags.Map(),
				}}
			case *osm.Relation:
				members := make([]RelationMember, len(o.Members))
				for i, m := range o.Members {
					members[i] = RelationMember{Type: string(m.Type), Ref: m.Ref, Role: m.Role}
				}
				entities <- Entity{Type: EntityRelation, Relation: &Relation{
					ID:      int64(o.ID),
					Tags:    o.Tags.Map(),
					Members: members,
				}}
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- rerrors.Wrap(rerrors.InputMalformed, err, "failed decoding OSM PBF stream")
		}
	}()

	return entities, errs
}
