package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// writeStructured writes v as indented JSON or as YAML. GeoJSON values only
// know how to marshal themselves to JSON, so YAML goes through a JSON round
// trip first.
func writeStructured(out io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "output: encode json")
	}
	switch format {
	case formatJSON:
		_, err = fmt.Fprintln(out, string(data))
		return err
	case formatYAML:
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return eris.Wrap(err, "output: decode json")
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return eris.Wrap(err, "output: encode yaml")
		}
		return enc.Close()
	}
	return eris.Errorf("output: unknown format %q", format)
}

// writeTable writes a header and rows as aligned columns.
func writeTable(out io.Writer, header []string, rows [][]string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rule := make([]string, len(header))
	for i, h := range header {
		rule[i] = strings.Repeat("-", len(h))
	}
	writeRow(w, header)
	writeRow(w, rule)
	for _, r := range rows {
		writeRow(w, r)
	}
	_ = w.Flush()
}

func writeRow(w io.Writer, cols []string) {
	for i, c := range cols {
		if i > 0 {
			_, _ = fmt.Fprint(w, "\t")
		}
		_, _ = fmt.Fprint(w, c)
	}
	_, _ = fmt.Fprintln(w)
}

// emit writes v in the chosen structured format, or calls table for the
// default table format.
func emit(out io.Writer, v any, table func(io.Writer)) error {
	if outputFormat == "" || outputFormat == formatTable {
		table(out)
		return nil
	}
	return writeStructured(out, outputFormat, v)
}
