// Package airquality provides air quality observation and forecast
// retrieval with sensible defaults for the FMI stored queries.
package airquality

import (
	"context"
	"time"

	"github.com/paasim/fmi-cli/pkg/fmi"
)

// DefaultStation is Helsinki Kallio 2.
const DefaultStation = 100662

// Options selects the station, window, resolution and parameter set of a
// retrieval. Zero values fall back to the package defaults: the Helsinki
// Kallio 2 station and an hourly resolution. An empty parameter list
// returns the API's default set.
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

// Get retrieves hourly air quality observations. The observations are
// published hourly, so the resolution must be at least an hour and divide
// 24 hours evenly.
func Get(ctx context.Context, p *fmi.Pipeline, opt Options) ([]fmi.PointObservation, error) {
	return p.SimpleSeries(ctx, "urban::observations::airquality::hourly::simple", opt.request())
}

// GetForecast retrieves the SILAM air quality forecast.
func GetForecast(ctx context.Context, p *fmi.Pipeline, opt Options) ([]fmi.PointObservation, error) {
	return p.SimpleSeries(ctx, "fmi::forecast::silam::airquality::surface::point::simple", opt.request())
}
