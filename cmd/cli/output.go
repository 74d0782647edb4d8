package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iho/fundsbook/internal/adapter/http/dto"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"

	remarkWidth = 32
)

type tableWriter struct {
	*tabwriter.Writer
}

func (w *tableWriter) row(cols ...string) {
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

func render(out io.Writer, format string, v any, table func(w *tableWriter)) error {
	switch format {
	case outputJSON:
		return printJSON(out, v)
	case outputYAML:
		return printYAML(out, v)
	default:
		w := &tableWriter{tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
		table(w)
		return w.Flush()
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printYAML goes through JSON so field names and decimal strings match the
// API's own encoding.
func printYAML(out io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return err
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNumbers(generic)); err != nil {
		return err
	}
	return enc.Close()
}

// yamlNumbers replaces JSON numbers with plain YAML scalars of the same
// text. json.Number is a string type, so yaml.v3 would quote it.
func yamlNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = yamlNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = yamlNumbers(e)
		}
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(t.String(), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: t.String()}
	}
	return v
}

func printLedgerTable(w *tableWriter, l *dto.LedgerResponse) {
	printEntriesTable(w, l.Entries)
	w.row()
	w.row("TOTAL IN", l.Summary.TotalIn.String())
	w.row("TOTAL OUT", l.Summary.TotalOut.String())
	w.row("NET", l.Summary.Net.String())
	w.row("ENTRIES", strconv.Itoa(len(l.Entries))+" of "+strconv.Itoa(l.Count))
}

func printEntriesTable(w *tableWriter, entries []*dto.EntryResponse) {
	w.row("DATE", "TYPE", "AMOUNT", "RUNNING", "REMARK")
	for _, e := range entries {
		running := "-"
		if e.Running != nil {
			running = e.Running.String()
		}
		w.row(formatMillis(e.CreatedAt), e.Type, e.Amount.String(), running, truncate(e.Remark, remarkWidth))
	}
}

func printShelvesTable(w *tableWriter, shelves []*dto.BookshelfResponse) {
	w.row("ID", "NAME", "OWNER", "MEMBERS")
	for _, s := range shelves {
		w.row(s.ID, s.Name, s.OwnerID, strconv.Itoa(len(s.MemberIDs)))
	}
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
