package client

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// ParseXML converts a flat XML record list into a Table.
//
// Each child of the document root is a row. A row's attributes and its
// leaf child elements are columns, named by local name in first-seen order.
// A row with no children but non-blank text yields a column named after the
// row element. Blank values are missing. Rows with every value missing are
// dropped, then columns with every remaining value missing, and the rows
// left are contiguous from zero.
func ParseXML(text string) (Table, error) {
	table, _, err := ParseXMLWithDiagnostics(text)
	return table, err
}

// rowBuilder accumulates the cells of the record being decoded.
type rowBuilder struct {
	name        string
	cells       map[int]string
	text        strings.Builder
	hasChildren bool

	leafName string
	leafText strings.Builder
	isLeaf   bool
}

// ParseXMLWithDiagnostics is ParseXML that also reports what was dropped.
func ParseXMLWithDiagnostics(text string) (Table, *Diagnostics, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	dec.CharsetReader = charset.NewReaderLabel

	diag := NewDiagnostics()

	var (
		columns    []string
		index      = make(map[string]int)
		records    []map[int]string
		depth      int
		rootSeen   bool
		rootClosed bool
		row        *rowBuilder
	)

	column := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		index[name] = len(columns)
		columns = append(columns, name)
		return len(columns) - 1
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, nil, &ParseError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				if rootClosed {
					return Table{}, nil, &ParseError{Err: fmt.Errorf("unexpected second root element <%s>", t.Name.Local)}
				}
				rootSeen = true
				diag.RootElement = t.Name.Local
			case 2:
				row = &rowBuilder{name: t.Name.Local, cells: make(map[int]string)}
				for _, a := range t.Attr {
					if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
						continue
					}
					row.cells[column(a.Name.Local)] = strings.TrimSpace(a.Value)
				}
			case 3:
				row.hasChildren = true
				row.leafName = t.Name.Local
				row.leafText.Reset()
				row.isLeaf = true
			default:
				row.isLeaf = false
			}

		case xml.CharData:
			switch depth {
			case 0:
				if strings.Trim(string(t), " \t\r\n\ufeff") != "" {
					return Table{}, nil, &ParseError{Err: fmt.Errorf("character data outside the root element")}
				}
			case 2:
				row.text.Write(t)
			case 3:
				row.leafText.Write(t)
			}

		case xml.EndElement:
			switch depth {
			case 1:
				rootClosed = true
			case 2:
				if !row.hasChildren {
					if v := strings.TrimSpace(row.text.String()); v != "" {
						row.cells[column(row.name)] = v
					}
				}
				records = append(records, row.cells)
				row = nil
			case 3:
				idx := column(row.leafName)
				if row.isLeaf {
					row.cells[idx] = strings.TrimSpace(row.leafText.String())
				} else if _, ok := row.cells[idx]; !ok {
					row.cells[idx] = ""
					diag.AddWarning(fmt.Sprintf("nested element <%s> has no scalar value", row.leafName))
				}
			}
			depth--
		}
	}

	if !rootSeen {
		return Table{}, nil, &ParseError{Err: errors.New("document has no root element")}
	}
	if len(records) == 0 {
		diag.AddWarning(fmt.Sprintf("root element <%s> has no records", diag.RootElement))
	}

	return compact(columns, records, diag), diag, nil
}

// compact drops empty rows, then empty columns.
func compact(columns []string, records []map[int]string, diag *Diagnostics) Table {
	kept := make([]map[int]string, 0, len(records))
	for _, rec := range records {
		empty := true
		for _, v := range rec {
			if v != "" {
				empty = false
				break
			}
		}
		if empty {
			diag.DroppedRows++
			continue
		}
		kept = append(kept, rec)
	}

	var keepCols []int
	for i, name := range columns {
		used := false
		for _, rec := range kept {
			if rec[i] != "" {
				used = true
				break
			}
		}
		if used {
			keepCols = append(keepCols, i)
		} else {
			diag.AddDroppedColumn(name)
		}
	}

	table := Table{
		Columns: make([]string, len(keepCols)),
		Rows:    make([][]string, len(kept)),
	}
	for j, i := range keepCols {
		table.Columns[j] = columns[i]
	}
	for r, rec := range kept {
		cells := make([]string, len(keepCols))
		for j, i := range keepCols {
			cells[j] = rec[i]
		}
		table.Rows[r] = cells
	}
	return table
}
