package fmi

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func serveFixture(t *testing.T, name string, requests *[]string) *httptest.Server {
	t.Helper()
	doc, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("Failed to read test XML file: %v", err)
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			*requests = append(*requests, r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Write(doc)
	}))
}

func TestStationSeries(t *testing.T) {
	var requests []string
	server := serveFixture(t, "weather_coverage.xml", &requests)
	defer server.Close()

	pipeline := NewPipeline(newTestClient(server.URL), &noDelayPacer{})

	obs, err := pipeline.StationSeries(context.Background(), "fmi::observations::weather", Request{
		FMISID:     100971,
		Start:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 1, 1, 0, 6, 0, 0, time.UTC),
		Resolution: 3 * time.Minute,
	})
	if err != nil {
		t.Fatalf("StationSeries failed: %v", err)
	}

	if len(requests) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(requests))
	}
	if !strings.Contains(requests[0], "storedquery_id=fmi%3A%3Aobservations%3A%3Aweather%3A%3Amultipointcoverage") {
		t.Errorf("Coverage suffix not applied: %s", requests[0])
	}

	if len(obs) != 6 {
		t.Fatalf("Expected 6 observations, got %d", len(obs))
	}
	for _, o := range obs {
		if o.FMISID != 100971 {
			t.Errorf("Expected fmisid 100971, got %d", o.FMISID)
		}
	}
	if obs[0].Parameter != "t2m" || obs[0].Value != 2.3 {
		t.Errorf("Unexpected first observation: %+v", obs[0])
	}
	if !math.IsNaN(obs[3].Value) {
		t.Errorf("NaN value not preserved: %+v", obs[3])
	}
}

func TestStationSeriesSpansChunks(t *testing.T) {
	var requests []string
	server := serveFixture(t, "weather_coverage.xml", &requests)
	defer server.Close()

	pipeline := NewPipeline(newTestClient(server.URL), &noDelayPacer{})

	// Two weeks of hourly data splits into two chunks; both documents are
	// decoded and concatenated.
	obs, err := pipeline.StationSeries(context.Background(), "fmi::observations::weather", Request{
		FMISID:     100971,
		Start:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Resolution: time.Hour,
	})
	if err != nil {
		t.Fatalf("StationSeries failed: %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(requests))
	}
	if len(obs) != 12 {
		t.Errorf("Expected 12 observations across 2 chunks, got %d", len(obs))
	}
}

func TestStationSeriesWarnsOnIncompleteSeries(t *testing.T) {
	server := serveFixture(t, "weather_coverage.xml", nil)
	defer server.Close()

	var logBuf bytes.Buffer
	client := NewClient(
		WithEndpoints(server.URL, server.URL),
		WithBackoff(BackoffConfig{MaxRetries: 0}),
		WithLogger(slog.New(slog.NewTextHandler(&logBuf, nil))),
	)
	pipeline := NewPipeline(client, &noDelayPacer{})

	// The fixture carries 3 distinct timestamps; an hour at 3 minutes
	// implies 20.
	_, err := pipeline.StationSeries(context.Background(), "fmi::observations::weather", Request{
		FMISID:     100971,
		Start:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC),
		Resolution: 3 * time.Minute,
	})
	if err != nil {
		t.Fatalf("StationSeries failed: %v", err)
	}
	if !strings.Contains(logBuf.String(), "queried for more timestamps than were returned") {
		t.Errorf("Expected completeness warning, log was: %s", logBuf.String())
	}
}

func TestPointSeries(t *testing.T) {
	server := serveFixture(t, "forecast_coverage.xml", nil)
	defer server.Close()

	pipeline := NewPipeline(newTestClient(server.URL), &noDelayPacer{})

	obs, err := pipeline.PointSeries(context.Background(), "fmi::forecast::meps::surface::point", Request{
		FMISID:     100971,
		Start:      time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC),
		Resolution: 30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("PointSeries failed: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("Expected 2 observations, got %d", len(obs))
	}
	if obs[0].Point.SrsName == "" {
		t.Error("Point observation missing projection")
	}
	if obs[0].Value != -1.4 || obs[1].Value != -1.7 {
		t.Errorf("Unexpected values: %v, %v", obs[0].Value, obs[1].Value)
	}
}

func TestSimpleSeries(t *testing.T) {
	var requests []string
	server := serveFixture(t, "radiation_simple.xml", &requests)
	defer server.Close()

	pipeline := NewPipeline(newTestClient(server.URL), &noDelayPacer{})

	obs, err := pipeline.SimpleSeries(context.Background(), "fmi::observations::radiation::simple", Request{
		FMISID:     101004,
		Start:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC),
		Resolution: time.Hour,
	})
	if err != nil {
		t.Fatalf("SimpleSeries failed: %v", err)
	}

	// The simple query id is used as given, no coverage suffix.
	if strings.Contains(requests[0], "multipointcoverage") {
		t.Errorf("Simple query id must not be suffixed: %s", requests[0])
	}
	if len(obs) != 4 {
		t.Fatalf("Expected 4 observations, got %d", len(obs))
	}
	if obs[0].Parameter != "GLOB_1MIN" {
		t.Errorf("Unexpected first observation: %+v", obs[0])
	}
}

func TestAllStationsStreams(t *testing.T) {
	var requests []string
	server := serveFixture(t, "weather_coverage.xml", &requests)
	defer server.Close()

	pipeline := NewPipeline(newTestClient(server.URL), &noDelayPacer{})

	var streamed []StationObservation
	err := pipeline.AllStations(context.Background(), "fmi::observations::weather", Request{
		Start:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 1, 1, 0, 6, 0, 0, time.UTC),
		Resolution: 3 * time.Minute,
	}, func(o StationObservation) error {
		streamed = append(streamed, o)
		return nil
	})
	if err != nil {
		t.Fatalf("AllStations failed: %v", err)
	}

	boxes := FinlandBBoxParts()
	if len(requests) != len(boxes) {
		t.Errorf("Expected one request per bounding box (%d), got %d", len(boxes), len(requests))
	}
	if len(streamed) != 6*len(boxes) {
		t.Errorf("Expected %d streamed observations, got %d", 6*len(boxes), len(streamed))
	}
	for _, q := range requests {
		if strings.Contains(q, "fmisid=") {
			t.Errorf("Sweep request must select by bbox, not fmisid: %s", q)
		}
	}
}

func TestAllStationsConsumerAborts(t *testing.T) {
	var requests []string
	server := serveFixture(t, "weather_coverage.xml", &requests)
	defer server.Close()

	pipeline := NewPipeline(newTestClient(server.URL), &noDelayPacer{})

	abort := errors.New("enough")
	err := pipeline.AllStations(context.Background(), "fmi::observations::weather", Request{
		Start:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 1, 1, 0, 6, 0, 0, time.UTC),
		Resolution: 3 * time.Minute,
	}, func(StationObservation) error {
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("Expected consumer error back, got %v", err)
	}
	if len(requests) != 1 {
		t.Errorf("Aborted sweep issued %d requests, want 1", len(requests))
	}
}

func TestStationOnce(t *testing.T) {
	var requests []string
	server := serveFixture(t, "weather_coverage.xml", &requests)
	defer server.Close()

	pipeline := NewPipeline(newTestClient(server.URL), &noDelayPacer{})

	obs, err := pipeline.StationOnce(context.Background(),
		"fmi::observations::weather::monthly::30year::multipointcoverage",
		Request{FMISID: 100971})
	if err != nil {
		t.Fatalf("StationOnce failed: %v", err)
	}
	if len(requests) != 1 {
		t.Fatalf("Expected exactly 1 request, got %d", len(requests))
	}
	if strings.Contains(requests[0], "timestep") {
		t.Errorf("Unchunked request should not carry a timestep: %s", requests[0])
	}
	if len(obs) != 6 {
		t.Errorf("Expected 6 observations, got %d", len(obs))
	}
}
