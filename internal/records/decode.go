package records

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for input files with an unsupported extension.
var ErrUnknownFormat = errors.New("unknown input format")

// ReadCSV reads rows from CSV with a header line naming the fields.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadJSON reads rows from a JSON array of objects.
func ReadJSON(r io.Reader) ([]Row, error) {
	var items []map[string]any
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return toRows(items), nil
}

// ReadYAML reads rows from a YAML list, or from the list under a top-level
// "searches" key.
func ReadYAML(r io.Reader) ([]Row, error) {
	var doc any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	var list []any
	switch v := doc.(type) {
	case []any:
		list = v
	case map[string]any:
		inner, ok := v["searches"].([]any)
		if !ok {
			return nil, errors.New("decode yaml: expected a list or a \"searches\" list")
		}
		list = inner
	default:
		return nil, errors.New("decode yaml: expected a list or a \"searches\" list")
	}

	items := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("decode yaml: item %d is not a mapping", i+1)
		}
		items = append(items, m)
	}
	return toRows(items), nil
}

// ReadFile reads rows from path, choosing the decoder by extension.
// "-" reads CSV from stdin.
func ReadFile(path string) ([]Row, error) {
	if path == "-" {
		return ReadCSV(os.Stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f)
	case ".json":
		return ReadJSON(f)
	case ".yaml", ".yml":
		return ReadYAML(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func toRows(items []map[string]any) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		row := make(Row, len(item))
		for k, v := range item {
			row[k] = stringify(k, v)
		}
		rows = append(rows, row)
	}
	return rows
}

func stringify(key string, v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if key == FieldEnabled {
			if t {
				return "yes"
			}
			return "no"
		}
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
