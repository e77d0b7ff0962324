package seed

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"reflect"
	"strconv"
	"strings"

	"go-portal/internal/shared/apperror"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// listSeparator splits string-list cells in CSV and XLSX inputs.
const listSeparator = ";"

func FormatFromPath(p string) (Format, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, p)
	}
}

// Decode reads every record of one kind from r. Unknown fields fail the
// whole input, field values are checked later by the runner.
func Decode(kind Kind, format Format, r io.Reader) ([]Record, error) {
	switch kind {
	case KindCompany:
		return decodeAs[Company](format, r)
	case KindCustomer:
		return decodeAs[Customer](format, r)
	case KindChat:
		return decodeAs[ChatSession](format, r)
	case KindAttendance:
		return decodeAs[AttendanceRecord](format, r)
	case KindWorkHours:
		return decodeAs[WorkHoursRecord](format, r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// DecodeJSON decodes a JSON array of records, as carried by seed events.
func DecodeJSON(kind Kind, data []byte) ([]Record, error) {
	return Decode(kind, FormatJSON, bytes.NewReader(data))
}

func decodeAs[T Record](format Format, r io.Reader) ([]Record, error) {
	var (
		items []T
		err   error
	)

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err = dec.Decode(&items); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err = dec.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatCSV:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		rows, rerr := cr.ReadAll()
		if rerr != nil {
			return nil, fmt.Errorf("decode csv: %w", rerr)
		}
		if items, err = decodeRows[T](rows); err != nil {
			return nil, fmt.Errorf("decode csv: %w", err)
		}
	case FormatXLSX:
		rows, rerr := readFirstSheet(r)
		if rerr != nil {
			return nil, fmt.Errorf("decode xlsx: %w", rerr)
		}
		if items, err = decodeRows[T](rows); err != nil {
			return nil, fmt.Errorf("decode xlsx: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	out := make([]Record, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out, nil
}

func readFirstSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// decodeRows maps a header row onto the json names of T and converts each
// following row into a T. Empty cells are left out, so a missing required
// value surfaces as a validation failure for that record.
func decodeRows[T any](rows [][]string) ([]T, error) {
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return nil, nil
	}

	var zero T
	fields := jsonFieldTypes(reflect.TypeOf(zero))

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, ok := fields[h]; !ok {
			return nil, fmt.Errorf("%w: column %q", ErrUnknownField, h)
		}
		header[i] = h
	}

	items := make([]T, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		obj := make(map[string]any, len(header))
		for c, name := range header {
			if c >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[c])
			if cell == "" {
				continue
			}
			v, err := convertCell(fields[name], cell)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", line, name, err)
			}
			obj[name] = v
		}

		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		var item T
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&item); err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func jsonFieldTypes(t reflect.Type) map[string]reflect.Type {
	out := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if name := apperror.JSONTagName(f); name != "" {
			out[name] = f.Type
		}
	}
	return out
}

// convertCell turns a cell into a value JSON can decode into t. Nested
// lists of objects are written as JSON inside the cell.
func convertCell(t reflect.Type, cell string) (any, error) {
	switch t.Kind() {
	case reflect.String:
		return cell, nil
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.Atoi(cell)
		if err != nil {
			return nil, fmt.Errorf("want an integer, got %q", cell)
		}
		return n, nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("want a number, got %q", cell)
		}
		return f, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.String {
			var parts []string
			for _, p := range strings.Split(cell, listSeparator) {
				if p = strings.TrimSpace(p); p != "" {
					parts = append(parts, p)
				}
			}
			return parts, nil
		}
		if !json.Valid([]byte(cell)) {
			return nil, fmt.Errorf("want a JSON list, got %q", cell)
		}
		return json.RawMessage(cell), nil
	default:
		// time.Time and other text-decoded values
		return cell, nil
	}
}
