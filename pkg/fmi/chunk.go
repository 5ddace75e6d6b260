package fmi

import (
	"fmt"
	"time"
)

// maxChunkSteps caps how many resolution steps a single request may cover.
// The service rejects overly long ranges, so at most a week of hourly data
// is requested at a time. Daily data could be fetched in far larger chunks,
// but the cap is kept as is to keep request volume predictable.
const maxChunkSteps = 168

// ValidateResolution checks the divisibility invariant of a query
// resolution. Hourly is always valid; sub-hourly resolutions must divide an
// hour evenly and super-hourly resolutions must divide 24 hours evenly.
func ValidateResolution(resolution time.Duration) error {
	if resolution <= 0 {
		return fmt.Errorf("%w: %v is not positive", ErrInvalidResolution, resolution)
	}
	if resolution > time.Hour && 24*time.Hour%resolution != 0 {
		return fmt.Errorf("%w: %v does not divide 24 hours evenly", ErrInvalidResolution, resolution)
	}
	if resolution < time.Hour && time.Hour%resolution != 0 {
		return fmt.Errorf("%w: %v does not divide an hour evenly", ErrInvalidResolution, resolution)
	}
	return nil
}

// PlanChunks splits [start, end] into chronological sub-windows that all fit
// under the service's per-request size limit. Consecutive chunks are
// disjoint: each chunk starts one resolution step past the previous chunk's
// end, so no sample is requested twice at a boundary. A window shorter than
// the limit (including start == end) yields exactly one chunk.
func PlanChunks(start, end time.Time, resolution time.Duration) ([]Chunk, error) {
	if err := ValidateResolution(resolution); err != nil {
		return nil, err
	}
	start = start.UTC()
	end = end.UTC()

	steps := int64(7*24*time.Hour) / int64(resolution)
	if steps > maxChunkSteps {
		steps = maxChunkSteps
	}
	maxSpan := time.Duration(steps) * resolution

	var chunks []Chunk
	for cursor := start; !cursor.After(end); {
		chunkEnd := cursor.Add(maxSpan)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunks = append(chunks, Chunk{
			Window:     TimeWindow{Start: cursor, End: chunkEnd},
			Resolution: resolution,
		})
		cursor = chunkEnd.Add(resolution)
	}
	return chunks, nil
}
