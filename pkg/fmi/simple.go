package fmi

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

// ParseSimpleFeatures decodes a flat "::simple" feature document. Every
// feature is self-describing: its own point, one timestamp, one parameter
// name and one value. A feature missing a required field fails the whole
// batch; dropping it silently would misrepresent a time series as
// complete.
func ParseSimpleFeatures(doc []byte) ([]PointObservation, error) {
	var fc FeatureCollection
	if err := xml.Unmarshal(doc, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode XML: %w", err)
	}

	var obs []PointObservation
	for _, member := range fc.Members {
		if member.BsWfsElement == nil {
			continue
		}
		o, err := decodeSimpleFeature(member.BsWfsElement)
		if err != nil {
			return nil, err
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func decodeSimpleFeature(elem *BsWfsElement) (PointObservation, error) {
	pt := elem.Location.Point
	if pt.Pos == "" {
		return PointObservation{}, fmt.Errorf("%w: %s has no location", ErrMalformedFeature, elem.GmlID)
	}
	lat, lon, err := parsePos(pt.Pos)
	if err != nil {
		return PointObservation{}, fmt.Errorf("%w: %s: %v", ErrMalformedFeature, elem.GmlID, err)
	}

	if elem.Time == "" {
		return PointObservation{}, fmt.Errorf("%w: %s has no timestamp", ErrMalformedFeature, elem.GmlID)
	}
	ts, err := time.Parse(time.RFC3339, elem.Time)
	if err != nil {
		return PointObservation{}, fmt.Errorf("%w: %s: invalid timestamp %q", ErrMalformedFeature, elem.GmlID, elem.Time)
	}

	if elem.ParameterName == "" {
		return PointObservation{}, fmt.Errorf("%w: %s has no parameter name", ErrMalformedFeature, elem.GmlID)
	}
	if elem.ParameterValue == "" {
		return PointObservation{}, fmt.Errorf("%w: %s has no parameter value", ErrMalformedFeature, elem.GmlID)
	}
	val, err := strconv.ParseFloat(elem.ParameterValue, 64)
	if err != nil {
		return PointObservation{}, fmt.Errorf("%w: %s: invalid value %q", ErrMalformedFeature, elem.GmlID, elem.ParameterValue)
	}

	return PointObservation{
		Point:     Point{Lat: lat, Lon: lon, SrsName: pt.SrsName},
		Timestamp: ts.UTC(),
		Parameter: elem.ParameterName,
		Value:     val,
	}, nil
}
