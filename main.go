package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/paasim/fmi-cli/internal/config"
	"github.com/paasim/fmi-cli/internal/logging"
	"github.com/paasim/fmi-cli/pkg/fmi"
	"github.com/paasim/fmi-cli/pkg/fmi/airquality"
	"github.com/paasim/fmi-cli/pkg/fmi/meta"
	"github.com/paasim/fmi-cli/pkg/fmi/radiation"
	"github.com/paasim/fmi-cli/pkg/fmi/stations"
	"github.com/paasim/fmi-cli/pkg/fmi/weather"
)

// Build metadata - injected at build time
var (
	BuildVersion = "dev"
)

var (
	domain       = flag.String("domain", "weather", "Data domain: weather, airquality or radiation")
	forecast     = flag.Bool("forecast", false, "Fetch a forecast instead of observations")
	station      = flag.Int("station", 0, "Station fmisid (defaults per domain)")
	start        = flag.String("start", "", "Window start (RFC3339, UTC assumed)")
	end          = flag.String("end", "", "Window end (RFC3339, UTC assumed)")
	resolution   = flag.Duration("resolution", 0, "Query resolution, e.g. 10m or 1h")
	parameters   = flag.String("parameters", "", "Comma-separated parameter names (API default set if empty)")
	all          = flag.Bool("all", false, "Sweep all Finnish stations (weather observations only)")
	normals      = flag.Bool("normals", false, "Fetch 30-year monthly normals (weather only)")
	listStations = flag.Bool("stations", false, "List the stations of the domain and exit")
	namePattern  = flag.String("name", "", "Name pattern for -stations")
	queries      = flag.String("queries", "", "Search stored queries by pattern and exit")
	properties   = flag.String("properties", "", "Search observable properties by pattern and exit")
	capabilities = flag.Bool("capabilities", false, "List API capabilities and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg)
	logger.Debug("fmi-cli starting", "version", BuildVersion)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := fmi.NewClient(
		fmi.WithEndpoints(cfg.BaseURL, cfg.MetaURL),
		fmi.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		fmi.WithLogger(logger),
	)

	if err := run(ctx, client, cfg, logger); err != nil {
		logger.Error("fmi-cli failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *fmi.Client, cfg *config.Config, logger *slog.Logger) error {
	switch {
	case *capabilities:
		names, err := client.Capabilities(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	case *queries != "":
		return searchQueries(ctx, client, *queries)
	case *properties != "":
		return searchProperties(ctx, client, *properties)
	case *listStations:
		return printStations(ctx, client, *domain, *namePattern)
	}

	opt, err := options(cfg)
	if err != nil {
		return err
	}
	return retrieve(ctx, client, logger, opt)
}

func retrieve(ctx context.Context, client *fmi.Client, logger *slog.Logger, opt weather.Options) error {
	pipeline := fmi.NewPipeline(client, nil)

	switch {
	case *all:
		if *domain != "weather" || *forecast {
			return fmt.Errorf("-all supports weather observations only")
		}
		return weather.GetAll(ctx, pipeline, opt, printStationObservation)
	case *normals:
		if *domain != "weather" || *forecast {
			return fmt.Errorf("-normals supports weather observations only")
		}
		obs, err := weather.Get30Year(ctx, pipeline, opt)
		if err != nil {
			return err
		}
		return printStationObservations(obs)
	}

	switch *domain {
	case "weather":
		if *forecast {
			obs, err := weather.GetForecast(ctx, pipeline, opt)
			if err != nil {
				return err
			}
			return printPointObservations(obs)
		}
		obs, err := weather.Get(ctx, pipeline, opt)
		if err != nil {
			return err
		}
		return printStationObservations(obs)
	case "airquality":
		get := airquality.Get
		if *forecast {
			get = airquality.GetForecast
		}
		obs, err := get(ctx, pipeline, airquality.Options(opt))
		if err != nil {
			return err
		}
		return printPointObservations(obs)
	case "radiation":
		get := radiation.Get
		if *forecast {
			get = radiation.GetForecast
		}
		obs, err := get(ctx, pipeline, radiation.Options(opt))
		if err != nil {
			return err
		}
		return printPointObservations(obs)
	default:
		return fmt.Errorf("unknown domain %q", *domain)
	}
}

// options merges flags over the profile defaults.
func options(cfg *config.Config) (weather.Options, error) {
	opt := weather.Options{
		FMISID:     *station,
		Resolution: *resolution,
	}
	if opt.FMISID == 0 {
		opt.FMISID = cfg.Profile.FMISID
	}
	if opt.Resolution == 0 {
		d, err := cfg.Profile.ResolutionDuration()
		if err != nil {
			return opt, err
		}
		opt.Resolution = d
	}
	if *parameters != "" {
		opt.Parameters = strings.Split(*parameters, ",")
	} else {
		opt.Parameters = cfg.Profile.Parameters
	}

	var err error
	if opt.Start, err = parseFlagTime(*start); err != nil {
		return opt, fmt.Errorf("invalid -start: %w", err)
	}
	if opt.End, err = parseFlagTime(*end); err != nil {
		return opt, fmt.Errorf("invalid -end: %w", err)
	}
	return opt, nil
}

func parseFlagTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func printStations(ctx context.Context, client *fmi.Client, domain, namePattern string) error {
	catalog, err := stations.Get(ctx, client)
	if err != nil {
		return err
	}
	var matched []stations.Station
	switch domain {
	case "weather":
		matched, err = catalog.Weather(namePattern)
	case "airquality":
		matched, err = catalog.AirQuality(namePattern)
	case "radiation":
		matched, err = catalog.Radiation(namePattern)
	default:
		return fmt.Errorf("unknown domain %q", domain)
	}
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(matched)
}

func searchQueries(ctx context.Context, client *fmi.Client, pattern string) error {
	sq, err := meta.GetStoredQueries(ctx, client)
	if err != nil {
		return err
	}
	matches, err := sq.FindMatches(pattern)
	if err != nil {
		return err
	}
	for _, q := range matches {
		fmt.Println(q)
	}
	return nil
}

func searchProperties(ctx context.Context, client *fmi.Client, pattern string) error {
	props, err := meta.GetObservableProperties(ctx, client)
	if err != nil {
		return err
	}
	matches, err := props.FindMatches(pattern, true, true)
	if err != nil {
		return err
	}
	for _, p := range matches {
		fmt.Println(p)
	}
	return nil
}

func printStationObservations(obs []fmi.StationObservation) error {
	for _, o := range obs {
		if err := printStationObservation(o); err != nil {
			return err
		}
	}
	return nil
}

func printStationObservation(o fmi.StationObservation) error {
	_, err := fmt.Printf("%d\t%s\t%s\t%g\n",
		o.FMISID, o.Timestamp.Format(time.RFC3339), o.Parameter, o.Value)
	return err
}

func printPointObservations(obs []fmi.PointObservation) error {
	for _, o := range obs {
		_, err := fmt.Printf("%.5f,%.5f\t%s\t%s\t%g\n",
			o.Point.Lat, o.Point.Lon, o.Timestamp.Format(time.RFC3339), o.Parameter, o.Value)
		if err != nil {
			return err
		}
	}
	return nil
}
