package client

// Diagnostics describes what the XML conversion discarded.
type Diagnostics struct {
	// RootElement is the local name of the document root
	RootElement string `json:"root_element,omitempty"`

	// DroppedRows counts records whose every value was missing
	DroppedRows int `json:"dropped_rows,omitempty"`

	// DroppedColumns lists columns whose every remaining value was missing
	DroppedColumns []string `json:"dropped_columns,omitempty"`

	// Warnings lists non-critical oddities in the source document
	Warnings []string `json:"warnings,omitempty"`
}

// NewDiagnostics creates a new diagnostics instance.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		DroppedColumns: make([]string, 0),
		Warnings:       make([]string, 0),
	}
}

// AddDroppedColumn records a dropped column.
func (d *Diagnostics) AddDroppedColumn(name string) {
	d.DroppedColumns = append(d.DroppedColumns, name)
}

// AddWarning adds a warning to the diagnostics.
func (d *Diagnostics) AddWarning(warning string) {
	d.Warnings = append(d.Warnings, warning)
}

// HasIssues returns true if anything was dropped or flagged.
func (d *Diagnostics) HasIssues() bool {
	return d.DroppedRows > 0 || len(d.DroppedColumns) > 0 || len(d.Warnings) > 0
}
