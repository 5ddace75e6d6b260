// Package weather provides weather observation and forecast retrieval
// with sensible defaults for the FMI stored queries.
package weather

import (
	"context"
	"time"

	"github.com/paasim/fmi-cli/pkg/fmi"
)

// DefaultStation is Helsinki Kaisaniemi.
const DefaultStation = 100971

// Options selects the station, window, resolution and parameter set of a
// retrieval. Zero values fall back to the package defaults: the Helsinki
// Kaisaniemi station and an hourly resolution. Sub-hourly resolutions must
// divide an hour evenly. An empty parameter list returns the API's default
// set.
type Options struct {
	FMISID     int
	Start      time.Time
	End        time.Time
	Resolution time.Duration
	Parameters []string
}

func (o Options) request() fmi.Request {
	if o.FMISID == 0 {
		o.FMISID = DefaultStation
	}
	if o.Resolution == 0 {
		o.Resolution = time.Hour
	}
	return fmi.Request{
		FMISID:     o.FMISID,
		Start:      o.Start,
		End:        o.End,
		Resolution: o.Resolution,
		Parameters: o.Parameters,
	}
}

// Get retrieves (hourly) weather observations for one station.
func Get(ctx context.Context, p *fmi.Pipeline, opt Options) ([]fmi.StationObservation, error) {
	return p.StationSeries(ctx, "fmi::observations::weather", opt.request())
}

// GetAll retrieves (hourly) weather observations for every station in
// Finland, streaming them to fn. The station selector of opt is ignored;
// the retrieval sweeps the country in bounding-box slices.
func GetAll(ctx context.Context, p *fmi.Pipeline, opt Options, fn func(fmi.StationObservation) error) error {
	req := opt.request()
	req.FMISID = 0
	req.Parameters = nil
	return p.AllStations(ctx, "fmi::observations::weather", req, fn)
}

// Get30Year retrieves the 30-year normal period monthly observations. The
// returned timestamps carry the first year of the period, e.g. 1991 with
// the default window. Sensible non-default bounds are the first year of
// the desired period. The result never exceeds the request size limit, so
// it is fetched in a single query without a timestep.
func Get30Year(ctx context.Context, p *fmi.Pipeline, opt Options) ([]fmi.StationObservation, error) {
	req := opt.request()
	req.Resolution = 0
	return p.StationOnce(ctx, "fmi::observations::weather::monthly::30year::multipointcoverage", req)
}

// GetForecast retrieves the weather forecast from the Harmonie (MEPS)
// model. It shares the stored query with the radiation forecast, so with
// default parameters both return the same values; a more focused set for
// weather might be
//
//	[]string{"Temperature", "Humidity", "WindSpeedMS", "PrecipitationAmount", "TotalCloudCover"}
func GetForecast(ctx context.Context, p *fmi.Pipeline, opt Options) ([]fmi.PointObservation, error) {
	return p.MEPSForecast(ctx, opt.request())
}
