package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"

	"github.com/bluelinky/bluelink/pkg/protocol"
)

const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

var ErrUnknownFormat = errors.New("unknown output format")

const tableColumnWidth = 80

// document converts v into generic JSON values. Results are re-encoded with their payload
// decoded, so that every format shows the vendor data rather than an escaped string.
func document(v interface{}) (interface{}, error) {
	if result, ok := v.(*protocol.Result); ok {
		doc := map[string]interface{}{
			"status":       result.Status,
			"errorMessage": result.ErrorMessage,
		}
		if result.IsRaw() {
			doc["raw"] = result.Raw
		} else {
			doc["result"] = result.Payload()
		}
		return doc, nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc interface{}
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// render writes v to w in the named format.
func render(w io.Writer, format string, v interface{}) error {
	doc, err := document(v)
	if err != nil {
		return err
	}
	switch format {
	case FormatJSON, "":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(doc)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(doc); err != nil {
			return err
		}
		return encoder.Close()
	case FormatTable:
		table := uitable.New()
		table.MaxColWidth = tableColumnWidth
		table.Wrap = true
		table.AddRow("FIELD", "VALUE")
		for _, row := range flatten("", doc, nil) {
			table.AddRow(row[0], row[1])
		}
		_, err := fmt.Fprintln(w, table)
		return err
	}
	return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
}

// flatten lists the leaves of doc as dotted key paths, sorted by path.
func flatten(prefix string, doc interface{}, rows [][2]string) [][2]string {
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}
	switch value := doc.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			rows = flatten(join(key), value[key], rows)
		}
	case []interface{}:
		for i, item := range value {
			rows = flatten(join(strconv.Itoa(i)), item, rows)
		}
	case nil:
		rows = append(rows, [2]string{prefix, ""})
	case string:
		rows = append(rows, [2]string{prefix, strings.TrimSpace(value)})
	default:
		rows = append(rows, [2]string{prefix, fmt.Sprint(value)})
	}
	return rows
}
