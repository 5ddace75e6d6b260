package fmi

import (
	"errors"
	"testing"
	"time"
)

func TestValidateResolution(t *testing.T) {
	valid := []time.Duration{
		time.Minute,
		3 * time.Minute,
		10 * time.Minute,
		30 * time.Minute,
		time.Hour,
		2 * time.Hour,
		6 * time.Hour,
		24 * time.Hour,
	}
	for _, res := range valid {
		if err := ValidateResolution(res); err != nil {
			t.Errorf("ValidateResolution(%v) = %v, want nil", res, err)
		}
	}

	invalid := []time.Duration{
		0,
		-time.Hour,
		7 * time.Minute,
		25 * time.Minute,
		5 * time.Hour,
		7 * time.Hour,
		90 * time.Minute,
	}
	for _, res := range invalid {
		err := ValidateResolution(res)
		if !errors.Is(err, ErrInvalidResolution) {
			t.Errorf("ValidateResolution(%v) = %v, want ErrInvalidResolution", res, err)
		}
	}
}

func TestPlanChunksSingleChunk(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	chunks, err := PlanChunks(start, end, time.Hour)
	if err != nil {
		t.Fatalf("PlanChunks failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk for 24h hourly window, got %d", len(chunks))
	}
	if !chunks[0].Window.Start.Equal(start) || !chunks[0].Window.End.Equal(end) {
		t.Errorf("Unexpected chunk window: %v .. %v", chunks[0].Window.Start, chunks[0].Window.End)
	}
}

func TestPlanChunksInstant(t *testing.T) {
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	chunks, err := PlanChunks(at, at, 10*time.Minute)
	if err != nil {
		t.Fatalf("PlanChunks failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk for start == end, got %d", len(chunks))
	}
	if !chunks[0].Window.Start.Equal(at) || !chunks[0].Window.End.Equal(at) {
		t.Errorf("Unexpected chunk window: %+v", chunks[0].Window)
	}
}

func TestPlanChunksSplitsLongWindow(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(169 * time.Hour)

	chunks, err := PlanChunks(start, end, time.Hour)
	if err != nil {
		t.Fatalf("PlanChunks failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks for 169h hourly window, got %d", len(chunks))
	}
	if !chunks[0].Window.End.Equal(start.Add(168 * time.Hour)) {
		t.Errorf("First chunk should end at hour 168, got %v", chunks[0].Window.End)
	}
	if !chunks[1].Window.Start.Equal(start.Add(169 * time.Hour)) {
		t.Errorf("Second chunk should start one step past the first, got %v", chunks[1].Window.Start)
	}
	if !chunks[1].Window.End.Equal(end) {
		t.Errorf("Last chunk should end at the requested end, got %v", chunks[1].Window.End)
	}
}

// TestPlanChunksDenseResolution verifies the chunking of a two-day window at
// three-minute resolution: chunks are chronological, disjoint at boundaries,
// capped in size and together cover every requested instant exactly once.
func TestPlanChunksDenseResolution(t *testing.T) {
	resolution := 3 * time.Minute
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	chunks, err := PlanChunks(start, end, resolution)
	if err != nil {
		t.Fatalf("PlanChunks failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("Expected at least one chunk")
	}

	maxSpan := 168 * resolution
	instants := 0
	for i, chunk := range chunks {
		span := chunk.Window.End.Sub(chunk.Window.Start)
		if span < 0 || span > maxSpan {
			t.Errorf("Chunk %d span %v out of bounds", i, span)
		}
		if span%resolution != 0 {
			t.Errorf("Chunk %d span %v is not a whole number of steps", i, span)
		}
		if i > 0 {
			gap := chunk.Window.Start.Sub(chunks[i-1].Window.End)
			if gap != resolution {
				t.Errorf("Chunk %d starts %v after previous end, want %v", i, gap, resolution)
			}
		}
		instants += int(span/resolution) + 1
	}

	if !chunks[0].Window.Start.Equal(start) {
		t.Errorf("First chunk starts at %v, want %v", chunks[0].Window.Start, start)
	}
	if !chunks[len(chunks)-1].Window.End.Equal(end) {
		t.Errorf("Last chunk ends at %v, want %v", chunks[len(chunks)-1].Window.End, end)
	}

	expected := int(end.Sub(start)/resolution) + 1
	if instants != expected {
		t.Errorf("Chunks cover %d instants, want %d", instants, expected)
	}
}

func TestPlanChunksDailyResolution(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(6 * 24 * time.Hour)

	chunks, err := PlanChunks(start, end, 24*time.Hour)
	if err != nil {
		t.Fatalf("PlanChunks failed: %v", err)
	}
	// Seven steps of a day fit under the week limit, so no split.
	if len(chunks) != 1 {
		t.Errorf("Expected 1 chunk for a week of daily data, got %d", len(chunks))
	}
}

func TestPlanChunksNormalizesToUTC(t *testing.T) {
	helsinki := time.FixedZone("EET", 2*60*60)
	start := time.Date(2025, 1, 1, 2, 0, 0, 0, helsinki)
	end := time.Date(2025, 1, 2, 2, 0, 0, 0, helsinki)

	chunks, err := PlanChunks(start, end, time.Hour)
	if err != nil {
		t.Fatalf("PlanChunks failed: %v", err)
	}
	want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := chunks[0].Window.Start
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("Chunk start not normalized to UTC: %v", got)
	}
}

func TestPlanChunksRejectsInvalidResolution(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := PlanChunks(start, start.Add(time.Hour), 7*time.Minute)
	if !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("Expected ErrInvalidResolution, got %v", err)
	}
}
