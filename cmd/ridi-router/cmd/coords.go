package cmd

import (
	"strconv"
	"strings"

	"github.com/ridi-bike/ridi-router/internal/rerrors"
)

// parseLatLon parses a "lat,lon" decimal pair, the coordinate shape every
// trip subcommand's flags use.
func parseLatLon(s string) (lat, lon float64, err error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, rerrors.New(rerrors.InputMalformed, "coordinate %q is not a lat,lon pair", s)
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, rerrors.Wrap(rerrors.InputMalformed, err, "invalid latitude in %q", s)
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, rerrors.Wrap(rerrors.InputMalformed, err, "invalid longitude in %q", s)
	}
	return lat, lon, nil
}
