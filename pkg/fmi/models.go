package fmi

import (
	"errors"
	"fmt"
	"time"
)

// Decode and planning failures. All of these are fatal for the retrieval
// that produced them; partial silent data is considered worse than a hard
// failure.
var (
	// ErrInvalidResolution is returned before any request when the
	// resolution does not divide an hour (sub-hourly) or 24 hours
	// (super-hourly) evenly.
	ErrInvalidResolution = errors.New("invalid resolution")

	// ErrMalformedCoverage is returned when a multipoint coverage document
	// is structurally inconsistent, e.g. the positions block and the data
	// block disagree on record count.
	ErrMalformedCoverage = errors.New("malformed multipoint coverage")

	// ErrMalformedFeature is returned when a simple feature is missing a
	// required field.
	ErrMalformedFeature = errors.New("malformed simple feature")

	// ErrUnknownStation is returned when a decoded coordinate has no entry
	// in the sampling-feature station metadata.
	ErrUnknownStation = errors.New("station not found for coordinate")

	// ErrUnexpectedFeature is returned when the sampling-feature collection
	// does not carry the conventional fmisid feature id.
	ErrUnexpectedFeature = errors.New("unexpected sampling feature")
)

// TransportError is an HTTP-layer failure surfaced from the transport.
// Body carries the response content when the service returned a
// machine-readable error document.
type TransportError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *TransportError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("FMI API returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("FMI API returned status %d: %s", e.StatusCode, e.Status)
}

// TimeWindow is one closed [Start, End] interval, both bounds in UTC.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Chunk is one planned sub-request of a larger time range.
type Chunk struct {
	Window     TimeWindow
	Resolution time.Duration
}

// Point is a geographic coordinate with its spatial reference.
type Point struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	SrsName string  `json:"srs_name,omitempty"`
}

// StationObservation is a single value measured at a station. Value may be
// NaN, which is how the service encodes "no data" and is expected output,
// not an error.
type StationObservation struct {
	FMISID    int       `json:"fmisid"`
	Timestamp time.Time `json:"timestamp"`
	Parameter string    `json:"parameter"`
	Value     float64   `json:"value"`
}

// PointObservation is a single value at a projected coordinate. Forecast
// grid points are not necessarily tied to any station, so the identity is
// the point itself.
type PointObservation struct {
	Point     Point     `json:"point"`
	Timestamp time.Time `json:"timestamp"`
	Parameter string    `json:"parameter"`
	Value     float64   `json:"value"`
}

// BBox is a geographic bounding box.
type BBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// String returns the bounding box in the API's query format.
func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// FinlandBBoxParts returns a set of bounding boxes that together cover
// Finland in slices small enough for nationwide sweep queries.
func FinlandBBoxParts() []BBox {
	boxes := []BBox{{MinLon: 18, MinLat: 59, MaxLon: 21, MaxLat: 71}}
	for lon := 21.0; lon < 28; lon++ {
		boxes = append(boxes, BBox{MinLon: lon, MinLat: 59, MaxLon: lon + 1, MaxLat: 71})
	}
	return append(boxes, BBox{MinLon: 28, MinLat: 59, MaxLon: 32, MaxLat: 71})
}
