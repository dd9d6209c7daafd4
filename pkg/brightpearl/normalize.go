package brightpearl

import (
	"fmt"
	"strconv"
	"strings"
)

// descriptorNameKeys are tried in order when a column is described by an object.
var descriptorNameKeys = []string{"name", "columnName", "code", "fieldName"}

// DefaultNormalizer implements SearchNormalizer with Normalize.
type DefaultNormalizer struct{}

// Normalize implements SearchNormalizer.Normalize.
func (DefaultNormalizer) Normalize(payload Payload) []Record {
	return Normalize(payload)
}

// Normalize converts a search payload ({"response": {...}}) into one Record
// per result row, in row order. It never panics: missing or malformed
// metadata degrades to positional "col_<i>" keys.
func Normalize(payload Payload) []Record {
	return NormalizeResponse(payload.Response())
}

// NormalizeResponse is Normalize for an already extracted "response" object.
//
// Keyed rows pass through unchanged, positional rows are zipped against the
// column names, and any other row becomes {"value": row}.
func NormalizeResponse(response Payload) []Record {
	names := ColumnNames(response)
	results := response.Results()
	records := make([]Record, 0, len(results))

	for _, row := range results {
		if obj, ok := asObject(row); ok {
			records = append(records, Record(obj))

			continue
		}

		cells, ok := asList(row)
		if !ok {
			records = append(records, Record{"value": row})

			continue
		}

		record := make(Record, len(cells))
		for i, cell := range cells {
			record[ColumnKey(names, i)] = cell
		}

		records = append(records, record)
	}

	return records
}

// ColumnKey returns names[i], or the placeholder "col_<i>" past the end.
func ColumnKey(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}

	return "col_" + strconv.Itoa(i)
}

// ColumnNames extracts the column names of a search response object from
// metaData.columns, falling back to a top-level "columns" field. Columns may
// be descriptor objects, plain values, or a comma-separated string.
func ColumnNames(response Payload) []string {
	var columns any

	if meta, ok := asObject(response["metaData"]); ok && present(meta["columns"]) {
		columns = meta["columns"]
	} else {
		columns = response["columns"]
	}

	switch cols := columns.(type) {
	case []string:
		return append([]string(nil), cols...)
	case string:
		var names []string

		for _, part := range strings.Split(cols, ",") {
			if name := strings.TrimSpace(part); name != "" {
				names = append(names, name)
			}
		}

		return names
	}

	list, ok := asList(columns)
	if !ok {
		return nil
	}

	names := make([]string, 0, len(list))

	for _, col := range list {
		if descriptor, ok := asObject(col); ok {
			names = append(names, descriptorName(descriptor))
		} else {
			names = append(names, stringify(col))
		}
	}

	return names
}

func descriptorName(descriptor Payload) string {
	for _, key := range descriptorNameKeys {
		if value := descriptor[key]; present(value) {
			return stringify(value)
		}
	}

	return ""
}

// present mirrors JSON truthiness: nil, false, zero, and empty values are absent.
func present(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	case []string:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	case Payload:
		return len(val) > 0
	default:
		if list, ok := asList(val); ok {
			return len(list) > 0
		}

		return true
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
