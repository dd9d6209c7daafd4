package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/brightpearl/internal/constants"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// outputFormat returns the --output value, rejecting unknown formats.
func outputFormat() (string, error) {
	output := strings.ToLower(viper.GetString("output"))

	switch output {
	case "", constants.FormatTable:
		return constants.FormatTable, nil
	case constants.FormatJSON, constants.FormatYAML:
		return output, nil
	default:
		return "", fmt.Errorf("%w: %q (expected table, json or yaml)", constants.ErrInvalidOutputFormat, output)
	}
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	defer func() { _ = encoder.Close() }()

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}

// writeOutput encodes v as JSON or YAML, or calls renderTable for table output.
func writeOutput(w io.Writer, v any, renderTable func(io.Writer) error) error {
	output, err := outputFormat()
	if err != nil {
		return err
	}

	switch output {
	case constants.FormatJSON:
		return writeJSON(w, v)
	case constants.FormatYAML:
		return writeYAML(w, v)
	default:
		return renderTable(w)
	}
}

// writeRecords prints normalized records. Columns listed in preferred come
// first; any other keys follow in sorted order.
func writeRecords(w io.Writer, preferred []string, records []brightpearl.Record) error {
	if records == nil {
		records = []brightpearl.Record{}
	}

	return writeOutput(w, records, func(w io.Writer) error {
		return renderRecordsTable(w, tableColumns(preferred, records), records)
	})
}

// writePayload prints a raw response payload.
func writePayload(w io.Writer, payload brightpearl.Payload) error {
	return writeOutput(w, payload, func(w io.Writer) error {
		return renderPayloadTable(w, payload)
	})
}

func tableColumns(preferred []string, records []brightpearl.Record) []string {
	columns := make([]string, 0, len(preferred))
	seen := make(map[string]bool, len(preferred))

	for _, name := range preferred {
		if name != "" && !seen[name] {
			seen[name] = true
			columns = append(columns, name)
		}
	}

	var extra []string

	for _, record := range records {
		for key := range record {
			if !seen[key] {
				seen[key] = true
				extra = append(extra, key)
			}
		}
	}

	slices.Sort(extra)

	return append(columns, extra...)
}

func renderRecordsTable(w io.Writer, columns []string, records []brightpearl.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found")

		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header(headerCells(columns)...)

	for _, record := range records {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = formatCell(record[column])
		}

		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderPayloadTable shows the payload's "response" member: a list of
// objects as rows, an object as property/value pairs.
func renderPayloadTable(w io.Writer, payload brightpearl.Payload) error {
	response, hasResponse := payload["response"]
	if !hasResponse {
		response = map[string]any(payload)
	}

	switch value := response.(type) {
	case []any:
		records := make([]brightpearl.Record, 0, len(value))

		for _, item := range value {
			object, ok := item.(map[string]any)
			if !ok {
				return renderPropertyTable(w, map[string]any{"response": value})
			}

			records = append(records, brightpearl.Record(object))
		}

		return renderRecordsTable(w, tableColumns(nil, records), records)
	case map[string]any:
		return renderPropertyTable(w, value)
	default:
		return renderPropertyTable(w, map[string]any{"response": value})
	}
}

func renderPropertyTable(w io.Writer, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	for _, key := range keys {
		err := table.Append([]string{key, formatCell(values[key])})
		if err != nil {
			return fmt.Errorf("failed to append %s to table: %w", key, err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func headerCells(columns []string) []any {
	cells := make([]any, len(columns))
	for i, column := range columns {
		cells[i] = column
	}

	return cells
}

// formatCell renders a JSON value for a table cell. Nested values are
// shown as compact JSON.
func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case map[string]any, []any:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}

		return string(data)
	default:
		return fmt.Sprint(value)
	}
}

// parseFilters turns repeated key=value flags into search filters.
func parseFilters(values []string) (brightpearl.Params, error) {
	if len(values) == 0 {
		return nil, nil
	}

	filters := make(brightpearl.Params, len(values))

	for _, value := range values {
		key, filter, ok := strings.Cut(value, "=")

		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", constants.ErrInvalidFilter, value)
		}

		filters[key] = filter
	}

	return filters, nil
}

// splitIDs flattens arguments that may each hold a comma-separated list.
func splitIDs(args []string) ([]string, error) {
	var ids []string

	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if id := strings.TrimSpace(part); id != "" {
				ids = append(ids, id)
			}
		}
	}

	if len(ids) == 0 {
		return nil, constants.ErrAtLeastOneIDRequired
	}

	return ids, nil
}
