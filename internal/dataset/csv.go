// Package dataset reads the beverage nutrition CSV into catalogue rows.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mcp-drink-rec/internal/logger"
	"mcp-drink-rec/internal/models"
)

var ErrMissingColumn = errors.New("missing required column")

type column int

const (
	colName column = iota
	colCategory
	colPrep
	colCalories
	colTotalFat
	colSugars
	colProtein
	colCaffeine
)

// headers are compared after trimming and lower-casing; the published
// dataset pads several names with spaces.
var headers = map[string]column{
	"beverage":          colName,
	"beverage_category": colCategory,
	"beverage_prep":     colPrep,
	"calories":          colCalories,
	"total fat (g)":     colTotalFat,
	"sugars (g)":        colSugars,
	"protein (g)":       colProtein,
	"caffeine (mg)":     colCaffeine,
}

var required = []column{colName, colCalories, colTotalFat, colSugars, colProtein, colCaffeine}

var columnNames = map[column]string{
	colName:     "Beverage",
	colCalories: "Calories",
	colTotalFat: "Total Fat (g)",
	colSugars:   "Sugars (g)",
	colProtein:  "Protein (g)",
	colCaffeine: "Caffeine (mg)",
}

// SkippedRow records a dropped line; Line is 1-based and counts the header.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type Report struct {
	Drinks  []models.Drink `json:"drinks"`
	Rows    int            `json:"rows"`
	Skipped []SkippedRow   `json:"skipped,omitempty"`
}

// LoadFile opens path and calls Load.
func LoadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load parses a catalogue CSV. Rows with an empty name or with a required
// numeric value that is empty, "Varies" or not a number are dropped; the rest
// keep file order.
func Load(r io.Reader) (*Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read header: empty catalog")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[column]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := headers[key]; ok {
			index[col] = i
		}
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, columnNames[col])
		}
	}

	report := &Report{Drinks: []models.Drink{}}
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		report.Rows++

		d, reason := parseRow(record, index)
		if reason != "" {
			report.Skipped = append(report.Skipped, SkippedRow{Line: line, Reason: reason})
			logger.Debugf("skipping catalog line %d: %s", line, reason)
			continue
		}
		report.Drinks = append(report.Drinks, d)
	}

	return report, nil
}

func parseRow(record []string, index map[column]int) (models.Drink, string) {
	field := func(col column) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	d := models.Drink{
		Name:     field(colName),
		Category: field(colCategory),
		Prep:     field(colPrep),
	}
	if d.Name == "" {
		return d, "empty beverage name"
	}

	targets := []struct {
		col column
		dst *float64
	}{
		{colCalories, &d.Calories},
		{colTotalFat, &d.TotalFatG},
		{colSugars, &d.SugarsG},
		{colProtein, &d.ProteinG},
		{colCaffeine, &d.CaffeineMg},
	}
	for _, t := range targets {
		v, err := parseNumber(field(t.col))
		if err != nil {
			return d, fmt.Sprintf("%s: %v", columnNames[t.col], err)
		}
		*t.dst = v
	}

	return d, ""
}

func parseNumber(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("missing value")
	}
	if strings.EqualFold(s, "varies") {
		return 0, errors.New("value varies")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number %q", s)
	}
	if models.IsMissing(v) {
		return 0, fmt.Errorf("not a number %q", s)
	}
	return v, nil
}
