package fmi

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// samplingFeatureID is the conventional id the service puts on the
// station-keyed sampling-feature collection. Anything else means the API
// contract has drifted and decoding must not continue.
const samplingFeatureID = "sampling-feature-1-1-fmisid"

// CoverageRecord is one decoded (coordinate, timestamp, parameter, value)
// tuple of a multipoint coverage.
type CoverageRecord struct {
	Lat       float64
	Lon       float64
	Timestamp time.Time
	Parameter string
	Value     float64
}

// Coverage is one decoded multipoint coverage document.
type Coverage struct {
	obs *GridSeriesObservation
}

// ParseCoverage decodes a coverage document. A document without a coverage
// member decodes to nil: a chunk may legitimately contain no observations,
// e.g. a forecast gap, and that is an empty result rather than an error.
func ParseCoverage(doc []byte) (*Coverage, error) {
	var fc FeatureCollection
	if err := xml.Unmarshal(doc, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode XML: %w", err)
	}
	for _, member := range fc.Members {
		if member.GridSeriesObservation != nil {
			return &Coverage{obs: member.GridSeriesObservation}, nil
		}
	}
	return nil, nil
}

// Parameters returns the declared parameter names in data-block column
// order. The order matters: records are zipped against it positionally.
func (c *Coverage) Parameters() []string {
	fields := c.obs.Result.MultiPointCoverage.RangeType.DataRecord.Fields
	params := make([]string, len(fields))
	for i, f := range fields {
		params[i] = f.Name
	}
	return params
}

// Records decodes the positions block and the data block into one tuple
// per (position record, parameter) pair. The two blocks must agree on
// record count and every data record must carry one value per declared
// parameter; a mismatch is a malformed coverage.
func (c *Coverage) Records() ([]CoverageRecord, error) {
	mp := c.obs.Result.MultiPointCoverage

	positions, err := parsePositions(mp.DomainSet.SimpleMultiPoint.Positions)
	if err != nil {
		return nil, err
	}

	params := c.Parameters()
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: range type declares no fields", ErrMalformedCoverage)
	}

	data, err := parseDataBlock(mp.RangeSet.DataBlock.DoubleOrNilReasonTupleList, len(params))
	if err != nil {
		return nil, err
	}

	if len(positions) != len(data) {
		return nil, fmt.Errorf("%w: %d positions but %d data records",
			ErrMalformedCoverage, len(positions), len(data))
	}

	records := make([]CoverageRecord, 0, len(positions)*len(params))
	for i, pos := range positions {
		for j, param := range params {
			records = append(records, CoverageRecord{
				Lat:       pos.lat,
				Lon:       pos.lon,
				Timestamp: pos.timestamp,
				Parameter: param,
				Value:     data[i][j],
			})
		}
	}
	return records, nil
}

// StationIndex maps coordinates back to station identifiers. It is built
// fresh per coverage document; station metadata can in principle change
// between documents, so the index is never reused across them.
type StationIndex map[string]int

// StationIndex builds a coordinate lookup from the sampling-feature
// metadata of the document.
func (c *Coverage) StationIndex() (StationIndex, error) {
	feature := c.obs.SpatialSamplingFeature
	if feature.GmlID != samplingFeatureID {
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedFeature, feature.GmlID)
	}

	index := make(StationIndex)
	for _, member := range feature.Shape.MultiPoint.PointMembers {
		pt := member.Point
		fmisid, err := fmisidFromPointID(pt.GmlID)
		if err != nil {
			return nil, err
		}
		lat, lon, err := parsePos(pt.Pos)
		if err != nil {
			return nil, fmt.Errorf("%w: point %s: %v", ErrMalformedCoverage, pt.GmlID, err)
		}
		index[coordinateKey(lat, lon)] = fmisid
	}
	return index, nil
}

// Apply replaces the coordinate of every record with its station
// identifier. A coordinate absent from the index signals an inconsistency
// between the positions and the station metadata, which must not be
// silently coerced.
func (ix StationIndex) Apply(records []CoverageRecord) ([]StationObservation, error) {
	obs := make([]StationObservation, 0, len(records))
	for _, rec := range records {
		fmisid, ok := ix[coordinateKey(rec.Lat, rec.Lon)]
		if !ok {
			return nil, fmt.Errorf("%w: (%v, %v)", ErrUnknownStation, rec.Lat, rec.Lon)
		}
		obs = append(obs, StationObservation{
			FMISID:    fmisid,
			Timestamp: rec.Timestamp,
			Parameter: rec.Parameter,
			Value:     rec.Value,
		})
	}
	return obs, nil
}

// Projection returns the spatial reference shared by all points of the
// document. Forecast grid points carry no station identity, so the
// projection is attached to each point instead; that only makes sense when
// there is exactly one choice.
func (c *Coverage) Projection() (string, error) {
	points := c.obs.SpatialSamplingFeature.Shape.MultiPoint.PointsBlock.Points
	projections := make(map[string]struct{}, 1)
	for _, pt := range points {
		projections[pt.SrsName] = struct{}{}
	}
	if len(projections) != 1 {
		return "", fmt.Errorf("%w: non-unique (%d) value for projection",
			ErrMalformedCoverage, len(projections))
	}
	for proj := range projections {
		return proj, nil
	}
	return "", nil
}

// PointRecords tags every record with the document projection, for
// forecast-style coverages without station identities.
func (c *Coverage) PointRecords() ([]PointObservation, error) {
	projection, err := c.Projection()
	if err != nil {
		return nil, err
	}
	records, err := c.Records()
	if err != nil {
		return nil, err
	}
	obs := make([]PointObservation, 0, len(records))
	for _, rec := range records {
		obs = append(obs, PointObservation{
			Point:     Point{Lat: rec.Lat, Lon: rec.Lon, SrsName: projection},
			Timestamp: rec.Timestamp,
			Parameter: rec.Parameter,
			Value:     rec.Value,
		})
	}
	return obs, nil
}

type positionEntry struct {
	lat       float64
	lon       float64
	timestamp time.Time
}

// parsePositions splits the positions block into (lat, lon, epoch) triples.
func parsePositions(positionsStr string) ([]positionEntry, error) {
	parts := strings.Fields(positionsStr)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no position data", ErrMalformedCoverage)
	}
	if len(parts)%3 != 0 {
		return nil, fmt.Errorf("%w: expected position triplets, got %d values",
			ErrMalformedCoverage, len(parts))
	}

	positions := make([]positionEntry, 0, len(parts)/3)
	for i := 0; i < len(parts); i += 3 {
		lat, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid latitude %q", ErrMalformedCoverage, parts[i])
		}
		lon, err := strconv.ParseFloat(parts[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid longitude %q", ErrMalformedCoverage, parts[i+1])
		}
		epoch, err := strconv.ParseInt(parts[i+2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timestamp %q", ErrMalformedCoverage, parts[i+2])
		}
		positions = append(positions, positionEntry{
			lat:       lat,
			lon:       lon,
			timestamp: time.Unix(epoch, 0).UTC(),
		})
	}
	return positions, nil
}

// parseDataBlock splits the data block into one value tuple per line. The
// "NaN" literal is how the service encodes missing data; it parses to NaN
// and is preserved in the output.
func parseDataBlock(dataStr string, paramCount int) ([][]float64, error) {
	var records [][]float64
	for _, line := range strings.Split(dataStr, "\n") {
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		if len(parts) != paramCount {
			return nil, fmt.Errorf("%w: data record has %d values for %d parameters",
				ErrMalformedCoverage, len(parts), paramCount)
		}
		values := make([]float64, len(parts))
		for i, part := range parts {
			val, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid data value %q", ErrMalformedCoverage, part)
			}
			values[i] = val
		}
		records = append(records, values)
	}
	if records == nil {
		return nil, fmt.Errorf("%w: no data block", ErrMalformedCoverage)
	}
	return records, nil
}

// parsePos splits a gml:pos text into latitude and longitude.
func parsePos(pos string) (float64, float64, error) {
	parts := strings.Fields(pos)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("invalid position format: %q", pos)
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

// fmisidFromPointID parses the numeric suffix of a sampling point id such
// as "point-100971".
func fmisidFromPointID(id string) (int, error) {
	idx := strings.LastIndex(id, "-")
	if idx < 0 || idx == len(id)-1 {
		return 0, fmt.Errorf("%w: point id %q carries no fmisid suffix", ErrMalformedCoverage, id)
	}
	fmisid, err := strconv.Atoi(id[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("%w: point id %q carries no fmisid suffix", ErrMalformedCoverage, id)
	}
	return fmisid, nil
}

// coordinateKey formats a coordinate for map lookups. Five decimals is the
// precision the service itself prints, so position records and sampling
// metadata produce identical keys.
func coordinateKey(lat, lon float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lon)
}
