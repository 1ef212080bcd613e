package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hokaccha/go-prettyjson"

	"github.com/deepnoodle-ai/gscript/dis"
)

var outputFormats = []string{"json", "text"}

func (a *app) writeJSON(w io.Writer, v any) error {
	var data []byte
	var err error
	if a.useColor() {
		data, err = prettyjson.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// result is the printable outcome of a run.
type result struct {
	Hook    string             `json:"hook"`
	Outputs map[string]any     `json:"outputs"`
	Globals map[string]float64 `json:"globals,omitempty"`
}

func (a *app) writeResult(w io.Writer, r result, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return a.writeJSON(w, r)
	case "", "text":
		for _, name := range sortedKeys(r.Outputs) {
			fmt.Fprintf(w, "%s = %s\n", name, formatValue(r.Outputs[name]))
		}
		for _, key := range sortedKeys(r.Globals) {
			fmt.Fprintf(w, "G[%q] = %s\n", key, dis.FormatNumber(r.Globals[key]))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s (expected %s)", format, strings.Join(outputFormats, " or "))
	}
}

func formatValue(v any) string {
	switch v := v.(type) {
	case float64:
		return dis.FormatNumber(v)
	case string:
		return fmt.Sprintf("%q", v)
	}
	return fmt.Sprint(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
