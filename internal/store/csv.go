package store

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"PriceSentinel/internal/logger"
	"PriceSentinel/internal/metrics"
	"PriceSentinel/internal/model"
)

// Header is the first line of every log file. Field order is part of the
// on-disk contract shared with spreadsheet tooling.
var Header = []string{"timestamp", "price"}

// legacyLayout is the pandas to_csv timestamp layout, accepted on read so
// logs written by older tooling remain usable.
const legacyLayout = "2006-01-02 15:04:05.999999999"

// maxLineSize bounds the bytes kept for one line. Longer lines are drained
// and counted as corrupt.
const maxLineSize = 1 << 20

// CSVStore persists observations as a flat CSV file, one record per line.
type CSVStore struct {
	path string

	mu      sync.Mutex
	seen    map[int64]struct{}
	indexed bool
}

// NewCSVStore returns a store backed by the file at path. The file is created
// on the first append.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Append writes obs to the log and syncs it to disk before returning.
func (s *CSVStore) Append(obs model.Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := obs.Timestamp.UTC()
	if err := s.indexLocked(); err != nil {
		return err
	}
	if _, ok := s.seen[ts.UnixNano()]; ok {
		metrics.DuplicatesSkipped.Inc()
		return fmt.Errorf("append %s: %w", ts.Format(time.RFC3339), ErrDuplicate)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return s.unavailable("append", err)
		}
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return s.unavailable("append", err)
	}
	defer f.Close()

	prefix, err := s.prefixFor(f)
	if err != nil {
		return s.unavailable("append", err)
	}
	created := s.isEmpty(f)

	var buf bytes.Buffer
	buf.WriteString(prefix)
	w := csv.NewWriter(&buf)
	if created {
		_ = w.Write(Header)
	}
	_ = w.Write([]string{ts.Format(time.RFC3339Nano), obs.Price.String()})
	w.Flush()
	if err := w.Error(); err != nil {
		return s.unavailable("append", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return s.unavailable("append", err)
	}
	if err := f.Sync(); err != nil {
		return s.unavailable("append", err)
	}
	// a new file's directory entry must reach disk too
	if created {
		if err := syncDir(filepath.Dir(s.path)); err != nil {
			return s.unavailable("append", err)
		}
	}

	s.seen[ts.UnixNano()] = struct{}{}
	metrics.ObservationsAppended.Inc()
	return nil
}

// ReadAll returns every valid observation in append order. A missing file
// yields an empty series.
func (s *CSVStore) ReadAll() (ReadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.readLocked()
	if err != nil {
		return ReadResult{}, err
	}
	if !s.indexed {
		s.rebuildIndex(res.Series)
	}
	metrics.CorruptRecords.Set(float64(res.Skipped))
	if res.Skipped > 0 {
		logger.WithComponent("store").WithFields(logger.Fields{
			"path":    s.path,
			"skipped": res.Skipped,
		}).Warn("corrupt records skipped")
	}
	return res, nil
}

func (s *CSVStore) readLocked() (ReadResult, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ReadResult{Series: model.Series{}}, nil
		}
		return ReadResult{}, s.unavailable("read", err)
	}
	defer f.Close()

	res := ReadResult{Series: model.Series{}}
	r := bufio.NewReaderSize(f, 64*1024)
	first := true
	for {
		raw, tooLong, err := readLine(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ReadResult{}, s.unavailable("read", err)
		}
		if tooLong {
			first = false
			res.Skipped++
			continue
		}
		line := strings.TrimRight(string(raw), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if first {
			first = false
			if isHeader(line) {
				continue
			}
		}
		obs, err := parseRecord(line)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Series = append(res.Series, obs)
	}
	return res, nil
}

// readLine returns the next line including its terminator. A line longer
// than maxLineSize is consumed up to its end and reported as tooLong without
// its bytes. io.EOF is returned only when no bytes remain.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	n := 0
	for {
		chunk, err := r.ReadSlice('\n')
		n += len(chunk)
		if n <= maxLineSize {
			line = append(line, chunk...)
		} else {
			line = nil
		}
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if n == 0 {
				return nil, false, io.EOF
			}
		case err != nil:
			return nil, false, err
		}
		return line, n > maxLineSize, nil
	}
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

func (s *CSVStore) indexLocked() error {
	if s.indexed {
		return nil
	}
	res, err := s.readLocked()
	if err != nil {
		return err
	}
	s.rebuildIndex(res.Series)
	return nil
}

func (s *CSVStore) rebuildIndex(series model.Series) {
	s.seen = make(map[int64]struct{}, len(series))
	for _, o := range series {
		s.seen[o.Timestamp.UnixNano()] = struct{}{}
	}
	s.indexed = true
}

// prefixFor returns a newline when the file ends mid-record, so a torn write
// from a previous crash stays confined to its own line.
func (s *CSVStore) prefixFor(f *os.File) (string, error) {
	info, err := f.Stat()
	if err != nil {
		return "", err
	}
	if info.Size() == 0 {
		return "", nil
	}
	r, err := os.Open(s.path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	last := make([]byte, 1)
	if _, err := r.ReadAt(last, info.Size()-1); err != nil && err != io.EOF {
		return "", err
	}
	if last[0] != '\n' {
		return "\n", nil
	}
	return "", nil
}

func (s *CSVStore) isEmpty(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Size() == 0
}

func (s *CSVStore) unavailable(op string, err error) error {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%w: %s %s: %w", ErrStoreUnavailable, op, s.path, err)
}

func isHeader(line string) bool {
	fields, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil || len(fields) != len(Header) {
		return false
	}
	for i, h := range Header {
		if strings.TrimSpace(fields[i]) != h {
			return false
		}
	}
	return true
}

func parseRecord(line string) (model.Observation, error) {
	fields, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return model.Observation{}, err
	}
	if len(fields) != 2 {
		return model.Observation{}, fmt.Errorf("expected 2 fields, got %d", len(fields))
	}
	ts, err := parseTimestamp(strings.TrimSpace(fields[0]))
	if err != nil {
		return model.Observation{}, err
	}
	price, err := model.ParsePrice(fields[1])
	if err != nil {
		return model.Observation{}, err
	}
	return model.Observation{Timestamp: ts, Price: price}, nil
}

func parseTimestamp(v string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.ParseInLocation(legacyLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", v, err)
	}
	return ts, nil
}
