package signal

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Sample is one parsed sensor record: the torque reading and, when the
// bridge reports it, the feed-axis velocity.
type Sample struct {
	Torque float64
	Feed   float64
	// HasFeed reports whether the record carried a feed column.
	HasFeed bool
}

// Source is a stream of newline-delimited sensor records. Implementations
// mirror the serial-bridge contract: Monitor pumps records onto the Samples
// channel until the context is cancelled or the underlying stream ends.
type Source interface {
	Samples() <-chan Sample
	Monitor(ctx context.Context) error
	Close() error
}

// ParseLine parses one "torque[,feed]" record.
func ParseLine(line string) (Sample, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) == 0 || fields[0] == "" {
		return Sample{}, fmt.Errorf("empty record")
	}
	torque, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return Sample{}, fmt.Errorf("failed to parse torque: %w", err)
	}
	s := Sample{Torque: torque}
	if len(fields) > 1 && strings.TrimSpace(fields[1]) != "" {
		feed, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("failed to parse feed: %w", err)
		}
		s.Feed = feed
		s.HasFeed = true
	}
	return s, nil
}

// MockSource replays fixture records from an io.Reader. Used in dev mode and
// tests in place of the live serial bridge.
type MockSource struct {
	Data    io.Reader
	samples chan Sample
}

// NewMockSource creates a mock source over the given fixture data.
func NewMockSource(data io.Reader) *MockSource {
	return &MockSource{Data: data, samples: make(chan Sample)}
}

// Samples returns the channel of parsed records.
func (m *MockSource) Samples() <-chan Sample { return m.samples }

// Monitor scans the fixture data line by line. Malformed lines are skipped.
// The samples channel is closed when the data is exhausted.
func (m *MockSource) Monitor(ctx context.Context) error {
	defer close(m.samples)
	scan := bufio.NewScanner(m.Data)
	for scan.Scan() {
		s, err := ParseLine(scan.Text())
		if err != nil {
			continue
		}
		select {
		case m.samples <- s:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scan.Err()
}

// Close implements Source. The mock holds no resources.
func (m *MockSource) Close() error { return nil }

// LoadCSV reads a recorded signal file with a header row and returns the
// parsed samples. Column 0 is torque; column 1, when present, is feed.
func LoadCSV(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open signal file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read signal file: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("signal file %s has no data rows", path)
	}

	// Skip the header row.
	samples := make([]Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		s, err := ParseLine(strings.Join(rec, ","))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}
