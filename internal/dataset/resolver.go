// Package dataset resolves baseline learner attributes from the program's
// reference table. The table lives either in a remote SQL warehouse or in a
// local CSV export; the resolver loads it once per process and serves lookups
// from the cached copy.
package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Record is one read-only row of the reference table.
type Record struct {
	Name           string
	EducationLevel string
	Skills         []string
	Interests      []string
}

// Querier is the warehouse query step. Implemented by WarehouseClient; nil
// when no warehouse is configured.
type Querier interface {
	Query(ctx context.Context, statement string) ([]map[string]string, error)
}

// Resolver loads and caches the learner reference table.
type Resolver struct {
	warehouse Querier
	tablePath string // warehouse file path passed to read_files
	csvPath   string

	sf     singleflight.Group
	mu     sync.RWMutex
	cached []Record
	loaded bool
}

// NewResolver creates a Resolver. warehouse may be nil, in which case only the
// local CSV is consulted.
func NewResolver(warehouse Querier, tablePath, csvPath string) *Resolver {
	return &Resolver{
		warehouse: warehouse,
		tablePath: tablePath,
		csvPath:   csvPath,
	}
}

// Load returns the full reference table, loading and caching it on first use.
// The warehouse is tried first when configured; any query failure falls back
// to the local CSV; if that is also absent the result is empty. Load never
// fails: a missing dataset degrades to defaults downstream.
func (r *Resolver) Load(ctx context.Context) []Record {
	r.mu.RLock()
	if r.loaded {
		cached := r.cached
		r.mu.RUnlock()
		return cached
	}
	r.mu.RUnlock()

	// Collapse concurrent first loads into a single fetch.
	v, _, _ := r.sf.Do("load", func() (any, error) {
		records := r.fetch(ctx)
		r.mu.Lock()
		r.cached = records
		r.loaded = true
		r.mu.Unlock()
		return records, nil
	})
	return v.([]Record)
}

// FindByName returns the record whose name matches case-insensitively after
// trimming whitespace, or false when absent.
func (r *Resolver) FindByName(ctx context.Context, name string) (Record, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return Record{}, false
	}
	for _, rec := range r.Load(ctx) {
		if strings.ToLower(strings.TrimSpace(rec.Name)) == want {
			return rec, true
		}
	}
	return Record{}, false
}

// Names returns the distinct learner names in the table, in table order.
func (r *Resolver) Names(ctx context.Context) []string {
	seen := make(map[string]bool)
	var names []string
	for _, rec := range r.Load(ctx) {
		n := strings.TrimSpace(rec.Name)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names
}

func (r *Resolver) fetch(ctx context.Context) []Record {
	if r.warehouse != nil && r.tablePath != "" {
		statement := fmt.Sprintf(
			"SELECT * FROM read_files('%s', format => 'csv', header => true)", r.tablePath)
		rows, err := r.warehouse.Query(ctx, statement)
		if err == nil {
			return recordsFromRows(rows)
		}
		slog.Warn("warehouse dataset query failed, falling back to local file", "error", err)
	}

	if r.csvPath == "" {
		return nil
	}
	f, err := os.Open(r.csvPath)
	if err != nil {
		slog.Warn("reference dataset file unavailable", "path", r.csvPath, "error", err)
		return nil
	}
	defer f.Close()

	records, err := parseCSV(f)
	if err != nil {
		slog.Warn("reference dataset file unreadable", "path", r.csvPath, "error", err)
		return nil
	}
	return records
}

func recordsFromRows(rows []map[string]string) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			Name:           row["name"],
			EducationLevel: row["education_level"],
			Skills:         splitDelimited(row["skills"]),
			Interests:      splitDelimited(row["interests"]),
		})
	}
	return records
}

// parseCSV reads the reference table from a header-first CSV with columns
// name, skills, interests, education_level (in any order).
func parseCSV(rd io.Reader) ([]Record, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		records = append(records, Record{
			Name:           field(row, col, "name"),
			EducationLevel: field(row, col, "education_level"),
			Skills:         splitDelimited(field(row, col, "skills")),
			Interests:      splitDelimited(field(row, col, "interests")),
		})
	}
	return records, nil
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// splitDelimited splits a comma-joined cell, trimming whitespace and dropping
// empty segments.
func splitDelimited(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
