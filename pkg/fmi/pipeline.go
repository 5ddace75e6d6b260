package fmi

import (
	"context"
	"time"
)

// coverageSuffix selects the compact coverage encoding of a stored query.
const coverageSuffix = "::multipointcoverage"

// Pipeline orchestrates chunk planning, execution and decoding into the
// final observation list. All entities it builds are per-call; a failed
// retrieval cannot be resumed, only restarted.
type Pipeline struct {
	executor *Executor
	client   *Client
}

// NewPipeline creates a pipeline on top of the given transport.
func NewPipeline(client *Client, pacer Pacer) *Pipeline {
	return &Pipeline{executor: NewExecutor(client, pacer), client: client}
}

// StationSeries retrieves a station-keyed coverage series: queryID is
// suffixed with the coverage encoding, every chunk is decoded and its
// coordinates are resolved to station identifiers through the document's
// own sampling metadata.
func (p *Pipeline) StationSeries(ctx context.Context, queryID string, req Request) ([]StationObservation, error) {
	req.QueryID = queryID + coverageSuffix

	var result []StationObservation
	err := p.executor.Execute(ctx, req, func(_ TimeWindow, doc []byte) error {
		cov, err := ParseCoverage(doc)
		if err != nil || cov == nil {
			return err
		}
		records, err := cov.Records()
		if err != nil {
			return err
		}
		index, err := cov.StationIndex()
		if err != nil {
			return err
		}
		obs, err := index.Apply(records)
		if err != nil {
			return err
		}
		result = append(result, obs...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.checkCompleteness(req, len(distinctStationTimestamps(result)))
	return result, nil
}

// PointSeries retrieves a projection-tagged coverage series. Forecast
// queries return grid points with no station identity, so each point is
// tagged with the document projection instead of resolved to a station.
func (p *Pipeline) PointSeries(ctx context.Context, queryID string, req Request) ([]PointObservation, error) {
	req.QueryID = queryID + coverageSuffix

	var result []PointObservation
	err := p.executor.Execute(ctx, req, func(_ TimeWindow, doc []byte) error {
		cov, err := ParseCoverage(doc)
		if err != nil || cov == nil {
			return err
		}
		obs, err := cov.PointRecords()
		if err != nil {
			return err
		}
		result = append(result, obs...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.checkCompleteness(req, len(distinctPointTimestamps(result)))
	return result, nil
}

// SimpleSeries retrieves a series through the flat "::simple" encoding.
// The query id must already carry the simple suffix; simple features embed
// their own point, so no station resolution takes place.
func (p *Pipeline) SimpleSeries(ctx context.Context, queryID string, req Request) ([]PointObservation, error) {
	req.QueryID = queryID

	var result []PointObservation
	err := p.executor.Execute(ctx, req, func(_ TimeWindow, doc []byte) error {
		obs, err := ParseSimpleFeatures(doc)
		if err != nil {
			return err
		}
		result = append(result, obs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AllStations retrieves a station-keyed coverage series for the whole
// country by sweeping the Finland bounding boxes, streaming observations
// to fn as each document is decoded.
func (p *Pipeline) AllStations(ctx context.Context, queryID string, req Request, fn func(StationObservation) error) error {
	req.QueryID = queryID + coverageSuffix

	return p.executor.ExecuteSweep(ctx, req, FinlandBBoxParts(), func(_ TimeWindow, doc []byte) error {
		cov, err := ParseCoverage(doc)
		if err != nil || cov == nil {
			return err
		}
		records, err := cov.Records()
		if err != nil {
			return err
		}
		index, err := cov.StationIndex()
		if err != nil {
			return err
		}
		obs, err := index.Apply(records)
		if err != nil {
			return err
		}
		for _, o := range obs {
			if err := fn(o); err != nil {
				return err
			}
		}
		return nil
	})
}

// StationOnce retrieves a station-keyed coverage series with exactly one
// unchunked request. Meant for stored queries whose result never exceeds
// the request size limit, such as the 30-year monthly normals; queryID is
// used as given, suffix included.
func (p *Pipeline) StationOnce(ctx context.Context, queryID string, req Request) ([]StationObservation, error) {
	req.QueryID = queryID
	doc, err := p.client.QueryWFS(ctx, req.params())
	if err != nil {
		return nil, err
	}
	cov, err := ParseCoverage(doc)
	if err != nil || cov == nil {
		return nil, err
	}
	records, err := cov.Records()
	if err != nil {
		return nil, err
	}
	index, err := cov.StationIndex()
	if err != nil {
		return nil, err
	}
	return index.Apply(records)
}

// MEPSForecast retrieves the Harmonie (MEPS) surface point forecast. Both
// the weather and the radiation forecast getters delegate here, so with
// default parameter sets they return the same forecasted values.
func (p *Pipeline) MEPSForecast(ctx context.Context, req Request) ([]PointObservation, error) {
	return p.PointSeries(ctx, "fmi::forecast::meps::surface::point", req)
}

// checkCompleteness compares the number of distinct timestamps actually
// observed against what the requested window implies. Upstream observation
// and forecast gaps are expected, so a shortfall is a diagnostic, never an
// error: the caller still receives all decoded data.
func (p *Pipeline) checkCompleteness(req Request, distinct int) {
	if req.open() || req.Resolution == 0 {
		return
	}
	expected := int(req.End.Sub(req.Start) / req.Resolution)
	if distinct < expected {
		p.client.Logger().Warn("queried for more timestamps than were returned",
			"expected", expected, "distinct", distinct)
	}
}

func distinctStationTimestamps(obs []StationObservation) map[time.Time]struct{} {
	seen := make(map[time.Time]struct{}, len(obs))
	for _, o := range obs {
		seen[o.Timestamp] = struct{}{}
	}
	return seen
}

func distinctPointTimestamps(obs []PointObservation) map[time.Time]struct{} {
	seen := make(map[time.Time]struct{}, len(obs))
	for _, o := range obs {
		seen[o.Timestamp] = struct{}{}
	}
	return seen
}
