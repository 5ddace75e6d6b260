package fmi

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// chunkDelay keeps the aggregate request rate well under the service
	// ceiling of 600 requests in 5 minutes. The quota would allow pacing
	// down to half a second, so a full second leaves a comfortable margin.
	chunkDelay = time.Second
	// bboxDelay paces the bounding boxes within one chunk of a sweep
	// query; each box is a distinct query target.
	bboxDelay = 500 * time.Millisecond
)

// timestampFormat is the second-precision UTC layout the API expects for
// starttime and endtime.
const timestampFormat = "2006-01-02T15:04:05Z"

// Pacer introduces the delay between consecutive requests. It is injected
// rather than ambient so tests can substitute a zero-delay pacer.
type Pacer interface {
	Pause(ctx context.Context, d time.Duration) error
}

// SleepPacer blocks for the requested duration, honouring cancellation.
type SleepPacer struct{}

func (SleepPacer) Pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Request describes one stored-query retrieval before chunking.
type Request struct {
	// QueryID is the full stored query id, including any encoding suffix.
	QueryID string

	// FMISID selects a station. Zero means unset, in which case BBox is
	// used when present.
	FMISID int

	// BBox selects an area instead of a station.
	BBox *BBox

	// Start and End bound the window in time. A zero value leaves that
	// bound open.
	Start time.Time
	End   time.Time

	// Resolution is the requested timestep. Zero omits the timestep
	// parameter and disables chunking.
	Resolution time.Duration

	// Parameters restricts the parameter set. Empty requests the API
	// default set.
	Parameters []string
}

// open reports whether either bound of the window is missing. Open-ended
// queries cannot be chunked and are issued as a single request.
func (r Request) open() bool {
	return r.Start.IsZero() || r.End.IsZero()
}

// params encodes the request into the query-string contract of the
// feature endpoint.
func (r Request) params() url.Values {
	params := url.Values{
		"request":        {"getFeature"},
		"storedquery_id": {r.QueryID},
	}
	if r.FMISID != 0 {
		params.Set("fmisid", strconv.Itoa(r.FMISID))
	} else if r.BBox != nil {
		params.Set("bbox", r.BBox.String())
	}
	if !r.Start.IsZero() {
		params.Set("starttime", r.Start.UTC().Format(timestampFormat))
	}
	if !r.End.IsZero() {
		params.Set("endtime", r.End.UTC().Format(timestampFormat))
	}
	if r.Resolution != 0 {
		params.Set("timestep", strconv.Itoa(int(r.Resolution/time.Minute)))
	}
	if len(r.Parameters) > 0 {
		params.Set("parameters", strings.Join(r.Parameters, ","))
	}
	return params
}

// DocumentFunc consumes one raw XML document per executed request, in
// chunk order. Returning an error aborts the execution before the next
// request is issued.
type DocumentFunc func(window TimeWindow, doc []byte) error

// Executor issues planned chunks strictly in sequence. The service's rate
// ceiling is global across all requests, so chunks are never issued
// concurrently, and documents are handed to the consumer one at a time so
// an abandoned retrieval never spends rate budget on unconsumed chunks.
type Executor struct {
	client *Client
	pacer  Pacer
}

// NewExecutor creates an executor on top of the given transport.
func NewExecutor(client *Client, pacer Pacer) *Executor {
	if pacer == nil {
		pacer = SleepPacer{}
	}
	return &Executor{client: client, pacer: pacer}
}

// Execute runs the request chunk by chunk, passing each response document
// to fn. An open-ended request is issued as exactly one query regardless
// of the chunk cap. Any transport error aborts the remaining chunks; the
// executor itself never retries.
func (e *Executor) Execute(ctx context.Context, req Request, fn DocumentFunc) error {
	if req.open() {
		doc, err := e.client.QueryWFS(ctx, req.params())
		if err != nil {
			return err
		}
		return fn(TimeWindow{Start: req.Start, End: req.End}, doc)
	}

	chunks, err := PlanChunks(req.Start, req.End, req.Resolution)
	if err != nil {
		return err
	}

	for i, chunk := range chunks {
		if i > 0 {
			if err := e.pacer.Pause(ctx, chunkDelay); err != nil {
				return err
			}
		}
		chunkReq := req
		chunkReq.Start = chunk.Window.Start
		chunkReq.End = chunk.Window.End

		e.client.Logger().Info("querying", "start", chunkReq.Start, "end", chunkReq.End)
		doc, err := e.client.QueryWFS(ctx, chunkReq.params())
		if err != nil {
			return err
		}
		if err := fn(chunk.Window, doc); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteSweep runs the request as a cross product of chunks and bounding
// boxes, all boxes of a chunk before the next chunk. Pacing applies both
// between boxes and between chunks.
func (e *Executor) ExecuteSweep(ctx context.Context, req Request, boxes []BBox, fn DocumentFunc) error {
	sweepChunk := func(chunkReq Request) error {
		for i := range boxes {
			if i > 0 {
				if err := e.pacer.Pause(ctx, bboxDelay); err != nil {
					return err
				}
			}
			chunkReq.BBox = &boxes[i]
			chunkReq.FMISID = 0
			doc, err := e.client.QueryWFS(ctx, chunkReq.params())
			if err != nil {
				return err
			}
			if err := fn(TimeWindow{Start: chunkReq.Start, End: chunkReq.End}, doc); err != nil {
				return err
			}
		}
		return nil
	}

	if req.open() {
		return sweepChunk(req)
	}

	chunks, err := PlanChunks(req.Start, req.End, req.Resolution)
	if err != nil {
		return err
	}
	for i, chunk := range chunks {
		if i > 0 {
			if err := e.pacer.Pause(ctx, chunkDelay); err != nil {
				return err
			}
		}
		chunkReq := req
		chunkReq.Start = chunk.Window.Start
		chunkReq.End = chunk.Window.End
		e.client.Logger().Info("querying", "start", chunkReq.Start, "end", chunkReq.End)
		if err := sweepChunk(chunkReq); err != nil {
			return err
		}
	}
	return nil
}
