package stations

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paasim/fmi-cli/pkg/fmi"
)

// Parse decodes a station catalog document. A facility missing its
// identifier or name indicates catalog drift and fails the parse rather
// than being dropped.
func Parse(doc []byte) (*Catalog, error) {
	var fc facilityCollection
	if err := xml.Unmarshal(doc, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode station XML: %w", err)
	}

	catalog := &Catalog{Stations: make([]Station, 0, len(fc.Members))}
	for _, member := range fc.Members {
		station, err := parseFacility(member.Facility)
		if err != nil {
			return nil, err
		}
		catalog.Stations = append(catalog.Stations, *station)
	}
	return catalog, nil
}

func parseFacility(f monitoringFacility) (*Station, error) {
	fmisid, err := strconv.Atoi(strings.TrimSpace(f.Identifier.Value))
	if err != nil {
		return nil, fmt.Errorf("facility %s has no numeric fmisid identifier", f.GmlID)
	}

	names := namesByCode(f.Names)
	name, ok := names["name"]
	if !ok {
		return nil, fmt.Errorf("facility %d has no name", fmisid)
	}

	lat, lon, err := parsePos(f.Point.Pos)
	if err != nil {
		return nil, fmt.Errorf("facility %d: %w", fmisid, err)
	}

	begin, err := parsePosition(f.Begin)
	if err != nil {
		return nil, fmt.Errorf("facility %d: invalid activity begin %q", fmisid, f.Begin)
	}
	var end *time.Time
	if f.End != "" {
		t, err := parsePosition(f.End)
		if err != nil {
			return nil, fmt.Errorf("facility %d: invalid activity end %q", fmisid, f.End)
		}
		end = &t
	}

	kinds := make([]string, 0, len(f.BelongsTo))
	for _, bt := range f.BelongsTo {
		kinds = append(kinds, bt.Title)
	}

	return &Station{
		FMISID: fmisid,
		Name:   name,
		GeoID:  names["geoid"],
		Region: names["region"],
		Point:  fmi.Point{Lat: lat, Lon: lon, SrsName: f.Point.SrsName},
		Begin:  begin,
		End:    end,
		Kinds:  kinds,
	}, nil
}

// namesByCode indexes the name elements by the last segment of their
// codeSpace, which distinguishes the plain name from geoid and region.
func namesByCode(names []gmlName) map[string]string {
	byCode := make(map[string]string, len(names))
	for _, n := range names {
		if n.CodeSpace == "" {
			continue
		}
		parts := strings.Split(n.CodeSpace, "/")
		byCode[parts[len(parts)-1]] = strings.TrimSpace(n.Value)
	}
	return byCode
}

func parsePos(pos string) (float64, float64, error) {
	parts := strings.Fields(pos)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("invalid representative point %q", pos)
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %w", err)
	}
	return lat, lon, nil
}

// parsePosition parses a gml time position, which may carry an offset or
// be a bare date.
func parsePosition(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
