package fmi

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseSimpleFeatures(t *testing.T) {
	doc, err := os.ReadFile(filepath.Join("testdata", "radiation_simple.xml"))
	if err != nil {
		t.Fatalf("Failed to read test XML file: %v", err)
	}

	obs, err := ParseSimpleFeatures(doc)
	if err != nil {
		t.Fatalf("ParseSimpleFeatures failed: %v", err)
	}
	if len(obs) != 4 {
		t.Fatalf("Expected 4 observations, got %d", len(obs))
	}

	first := obs[0]
	if first.Parameter != "GLOB_1MIN" || first.Value != 12.5 {
		t.Errorf("Unexpected first observation: %+v", first)
	}
	if first.Point.Lat != 60.20307 || first.Point.Lon != 24.96131 {
		t.Errorf("Unexpected coordinate: %+v", first.Point)
	}
	if first.Point.SrsName != "http://www.opengis.net/def/crs/EPSG/0/4258" {
		t.Errorf("Unexpected projection: %q", first.Point.SrsName)
	}
	wantTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !first.Timestamp.Equal(wantTime) {
		t.Errorf("Expected timestamp %v, got %v", wantTime, first.Timestamp)
	}

	if !math.IsNaN(obs[1].Value) {
		t.Errorf("Expected NaN for missing value, got %v", obs[1].Value)
	}

	last := obs[3]
	wantLast := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)
	if !last.Timestamp.Equal(wantLast) || last.Parameter != "DIFF_1MIN" || last.Value != 3.2 {
		t.Errorf("Unexpected last observation: %+v", last)
	}
}

func TestParseSimpleFeaturesMissingField(t *testing.T) {
	doc, err := os.ReadFile(filepath.Join("testdata", "radiation_simple.xml"))
	if err != nil {
		t.Fatalf("Failed to read test XML file: %v", err)
	}

	cases := map[string]struct {
		from string
		to   string
	}{
		"time":  {"<BsWfs:Time>2025-01-01T00:00:00Z</BsWfs:Time>", "<BsWfs:Time></BsWfs:Time>"},
		"name":  {"<BsWfs:ParameterName>GLOB_1MIN</BsWfs:ParameterName>", "<BsWfs:ParameterName></BsWfs:ParameterName>"},
		"value": {"<BsWfs:ParameterValue>12.5</BsWfs:ParameterValue>", "<BsWfs:ParameterValue></BsWfs:ParameterValue>"},
		"pos":   {"<gml:pos>60.20307 24.96131 </gml:pos>", "<gml:pos></gml:pos>"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			broken := bytes.Replace(doc, []byte(c.from), []byte(c.to), 1)
			_, err := ParseSimpleFeatures(broken)
			if !errors.Is(err, ErrMalformedFeature) {
				t.Errorf("Expected ErrMalformedFeature, got %v", err)
			}
		})
	}
}

func TestParseSimpleFeaturesEmptyCollection(t *testing.T) {
	doc := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<wfs:FeatureCollection xmlns:wfs="http://www.opengis.net/wfs/2.0"
    numberMatched="0" numberReturned="0" timeStamp="2025-01-01T12:00:00Z">
</wfs:FeatureCollection>`)

	obs, err := ParseSimpleFeatures(doc)
	if err != nil {
		t.Fatalf("ParseSimpleFeatures failed: %v", err)
	}
	if len(obs) != 0 {
		t.Errorf("Expected no observations, got %d", len(obs))
	}
}
