package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/datalab-emploi/francetravail-stats/internal/francetravail/client"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

func validFormat(format string) bool {
	switch format {
	case formatTable, formatCSV, formatJSON:
		return true
	}
	return false
}

func render(w io.Writer, t client.Table, format string) error {
	switch format {
	case formatCSV:
		return t.WriteCSV(w)
	case formatJSON:
		return t.WriteJSON(w)
	case formatTable:
		renderTable(w, t)
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

func renderTable(w io.Writer, t client.Table) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	// keep XML tag names as they are
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	tw.SetOutputMirror(w)

	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	for _, row := range t.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		tw.AppendRow(r)
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d rows", t.Len())})
	tw.Render()
}
