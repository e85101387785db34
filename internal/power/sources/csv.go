package sources

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/power-fluctuation-advisory/internal/power"
)

const (
	ColTimestamp = "Timestamp"
	ColVoltage   = "Voltage"
	ColCurrent   = "Current"
	ColFrequency = "Frequency"
)

// timestampLayouts are tried in order for every Timestamp cell.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
}

// columns maps header names to their index; -1 means absent.
type columns struct {
	timestamp, voltage, current, frequency int
}

// ParseCSV decodes a dataset with a header row into readings.
// The whole parse fails on the first malformed row.
func ParseCSV(r io.Reader) ([]power.Reading, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &power.DataFormatError{Reason: "file is empty; expected a header row"}
	}
	if err != nil {
		return nil, csvError(err)
	}

	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	readings := make([]power.Reading, 0, 64)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := reader.FieldPos(0)

		reading, err := parseRow(row, cols, line)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}

	return readings, nil
}

func locateColumns(header []string) (columns, error) {
	cols := columns{timestamp: -1, voltage: -1, current: -1, frequency: -1}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch {
		case strings.EqualFold(name, ColTimestamp):
			cols.timestamp = i
		case strings.EqualFold(name, ColVoltage):
			cols.voltage = i
		case strings.EqualFold(name, ColCurrent):
			cols.current = i
		case strings.EqualFold(name, ColFrequency):
			cols.frequency = i
		}
	}

	if cols.timestamp < 0 {
		return cols, &power.DataFormatError{Column: ColTimestamp, Reason: "required column is missing"}
	}
	if cols.voltage < 0 {
		return cols, &power.DataFormatError{Column: ColVoltage, Reason: "required column is missing"}
	}
	return cols, nil
}

func parseRow(row []string, cols columns, line int) (power.Reading, error) {
	var reading power.Reading

	raw := cell(row, cols.timestamp)
	if raw == "" {
		return reading, &power.DataFormatError{Line: line, Column: ColTimestamp, Reason: "value is required"}
	}
	ts, err := parseTimestamp(raw)
	if err != nil {
		return reading, &power.DataFormatError{Line: line, Column: ColTimestamp, Value: raw, Reason: "not a recognised date-time"}
	}
	reading.Timestamp = ts

	raw = cell(row, cols.voltage)
	if raw == "" {
		return reading, &power.DataFormatError{Line: line, Column: ColVoltage, Reason: "value is required"}
	}
	v, err := parseNumber(raw)
	if err != nil {
		return reading, &power.DataFormatError{Line: line, Column: ColVoltage, Value: raw, Reason: "not a finite number"}
	}
	reading.Voltage = v

	if reading.Current, err = optionalNumber(row, cols.current, line, ColCurrent); err != nil {
		return reading, err
	}
	if reading.Frequency, err = optionalNumber(row, cols.frequency, line, ColFrequency); err != nil {
		return reading, err
	}

	return reading, nil
}

func optionalNumber(row []string, idx, line int, column string) (*float64, error) {
	raw := cell(row, idx)
	if raw == "" {
		return nil, nil
	}
	v, err := parseNumber(raw)
	if err != nil {
		return nil, &power.DataFormatError{Line: line, Column: column, Value: raw, Reason: "not a finite number"}
	}
	return &v, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("non-finite value")
	}
	return v, nil
}

// parseTimestamp tries the known layouts, then Unix seconds.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format")
}

func csvError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &power.DataFormatError{Line: perr.Line, Reason: perr.Err.Error()}
	}
	return &power.DataFormatError{Reason: err.Error()}
}
