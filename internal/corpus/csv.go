// Package corpus loads the verified reference facts and indexes them into
// the fact store.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/factcheck/internal/model"
)

// Columns of the reference CSV; extra columns are ignored
var Columns = []string{"id", "statement", "source", "date", "category"}

// FactID is the store id of a CSV row id
func FactID(id string) string {
	return "fact_" + id
}

// LoadFile reads reference facts from a CSV file
func LoadFile(path string) ([]model.ReferenceFact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadCSV(f)
}

// LoadCSV reads reference facts from CSV with a header row. Rows with an
// empty statement are skipped; a missing id falls back to the row number.
func LoadCSV(r io.Reader) ([]model.ReferenceFact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("corpus is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := col[h]; !dup {
			col[h] = i
		}
	}
	if _, ok := col["statement"]; !ok {
		return nil, fmt.Errorf("corpus header has no statement column (want %s)", strings.Join(Columns, ","))
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var facts []model.ReferenceFact
	seen := make(map[string]bool)
	for row := 1; ; row++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		text := field(rec, "statement")
		if text == "" {
			continue
		}
		id := field(rec, "id")
		if id == "" {
			id = strconv.Itoa(row)
		}
		id = FactID(id)
		if seen[id] {
			continue
		}
		seen[id] = true

		facts = append(facts, model.ReferenceFact{
			ID:       id,
			Text:     text,
			Source:   field(rec, "source"),
			Date:     field(rec, "date"),
			Category: field(rec, "category"),
		})
	}

	return facts, nil
}
