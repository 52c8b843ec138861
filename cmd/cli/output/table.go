package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/crucial707/searchsync/internal/models"
	"github.com/crucial707/searchsync/internal/reconcile"
)

// Formats accepted by --output.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// CheckFormat rejects unknown --output values.
func CheckFormat(format string) error {
	switch format {
	case FormatTable, FormatCSV, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, csv or json)", format)
	}
}

// RenderTable prints a pretty table to w
func RenderTable(w io.Writer, headers []string, rows [][]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	headerRow := table.Row{}
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	t.Render()
}

// WriteCSV prints headers and rows as CSV.
func WriteCSV(w io.Writer, headers []string, rows [][]interface{}) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = fmt.Sprint(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRows prints the emitted rows in format. The debug_log column is
// included when withLog is set.
func WriteRows(w io.Writer, format string, rows []models.OutputRow, withLog bool) error {
	headers := []string{"name", "cron", "search", "enabled"}
	if withLog {
		headers = append(headers, "debug_log")
	}
	record := func(r models.OutputRow) []string {
		enabled := ""
		if !r.LogOnly {
			enabled = strconv.FormatBool(r.Enabled)
		}
		rec := []string{r.Name, r.Cron, r.Search, enabled}
		if withLog {
			rec = append(rec, r.DebugLog)
		}
		return rec
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if rows == nil {
			rows = []models.OutputRow{}
		}
		return enc.Encode(rows)
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(headers); err != nil {
			return err
		}
		for _, r := range rows {
			if err := cw.Write(record(r)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		out := make([][]interface{}, 0, len(rows))
		for _, r := range rows {
			rec := record(r)
			row := make([]interface{}, len(rec))
			for i, v := range rec {
				row[i] = v
			}
			out = append(out, row)
		}
		RenderTable(w, headers, out)
		return nil
	}
}

// WriteChanges prints the changes of a run or plan in format.
func WriteChanges(w io.Writer, format string, res *reconcile.Result) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatCSV:
		cw := csv.NewWriter(w)
		cw.Write([]string{"action", "name", "from", "to"})
		for _, ch := range res.Changes {
			cw.Write([]string{string(ch.Action), ch.Name, ch.From, ch.To})
		}
		cw.Flush()
		return cw.Error()
	default:
		rows := make([][]interface{}, 0, len(res.Changes))
		for _, ch := range res.Changes {
			rows = append(rows, []interface{}{ch.Action, ch.Name, ch.From, ch.To})
		}
		RenderTable(w, []string{"Action", "Name", "From", "To"}, rows)
		fmt.Fprintf(w, "%d to create, %d to update, %d to delete, %d unchanged\n",
			len(res.Created), len(res.Updated), len(res.Deleted), res.Unchanged)
		return nil
	}
}
