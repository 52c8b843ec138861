package protocol

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/crucial707/searchsync/internal/models"
	"github.com/crucial707/searchsync/internal/records"
)

// FieldDebugLog carries a diagnostic line on an output row.
const FieldDebugLog = "debug_log"

// multivalue companion columns splunkd adds next to each field.
const mvPrefix = "__mv_"

// DecodeRows parses a chunk body: a CSV header row followed by records.
func DecodeRows(body []byte) ([]records.Row, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read body header: %w", err)
	}

	var rows []records.Row
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		row := make(records.Row, len(header))
		for i, name := range header {
			if strings.HasPrefix(name, mvPrefix) || i >= len(fields) {
				continue
			}
			row[name] = fields[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// OutputFields returns the columns written for each row.
func OutputFields(verbose bool) []string {
	fields := []string{records.FieldName, records.FieldCron, records.FieldSearch, records.FieldEnabled}
	if verbose {
		fields = append(fields, FieldDebugLog)
	}
	return fields
}

// EncodeRows writes rows as a CSV chunk body. Booleans are written as 1 or 0.
func EncodeRows(rows []models.OutputRow, verbose bool) ([]byte, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(OutputFields(verbose)); err != nil {
		return nil, err
	}
	for _, row := range rows {
		rec := []string{row.Name, row.Cron, row.Search, ""}
		if !row.LogOnly {
			rec[3] = boolField(row.Enabled)
		}
		if verbose {
			rec = append(rec, row.DebugLog)
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	return buf.Bytes(), nil
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
