// Package stats provides the France Travail labor-market statistics queries.
package stats

import (
	"fmt"

	"github.com/datalab-emploi/francetravail-stats/internal/francetravail/client"
)

// Request body keys of the classification codes.
const (
	KeyTerritoryType    = "codeTypeTerritoire"
	KeyTerritory        = "codeTerritoire"
	KeyActivityType     = "codeTypeActivite"
	KeyActivity         = "codeActivite"
	KeyPeriodType       = "codeTypePeriode"
	KeyNomenclatureType = "codeTypeNomenclature"
)

// Classification holds the codes that scope every statistical query.
type Classification struct {
	// TerritoryType is e.g. "REG", "DEP", "COM", "PAYS"
	TerritoryType string `yaml:"territory_type" json:"territory_type"`
	// Territory is e.g. "11", "75", "75056"
	Territory string `yaml:"territory" json:"territory"`
	// ActivityType is e.g. "NAF", "ROME"
	ActivityType string `yaml:"activity_type" json:"activity_type"`
	// Activity is e.g. "6201Z", "M1805"
	Activity string `yaml:"activity" json:"activity"`
	// PeriodType is e.g. "ANNEE", "TRIMESTRE"
	PeriodType       string `yaml:"period_type" json:"period_type"`
	NomenclatureType string `yaml:"nomenclature_type" json:"nomenclature_type"`
}

// DefaultClassification returns software developers (ROME M1805) in the
// Bouches-du-Rhone department, by quarter and candidate category.
func DefaultClassification() Classification {
	return Classification{
		TerritoryType:    "DEP",
		Territory:        "13",
		ActivityType:     "ROME",
		Activity:         "M1805",
		PeriodType:       "TRIMESTRE",
		NomenclatureType: "CATCAND",
	}
}

// Params renders the classification as request body fields.
func (c Classification) Params() client.Params {
	return client.Params{
		KeyTerritoryType:    c.TerritoryType,
		KeyTerritory:        c.Territory,
		KeyActivityType:     c.ActivityType,
		KeyActivity:         c.Activity,
		KeyPeriodType:       c.PeriodType,
		KeyNomenclatureType: c.NomenclatureType,
	}
}

// WithDefaults fills empty fields from DefaultClassification.
func (c Classification) WithDefaults() Classification {
	d := DefaultClassification()
	if c.TerritoryType == "" {
		c.TerritoryType = d.TerritoryType
	}
	if c.Territory == "" {
		c.Territory = d.Territory
	}
	if c.ActivityType == "" {
		c.ActivityType = d.ActivityType
	}
	if c.Activity == "" {
		c.Activity = d.Activity
	}
	if c.PeriodType == "" {
		c.PeriodType = d.PeriodType
	}
	if c.NomenclatureType == "" {
		c.NomenclatureType = d.NomenclatureType
	}
	return c
}

// Validate checks that every code is set.
func (c Classification) Validate() error {
	fields := []struct {
		key   string
		value string
	}{
		{KeyTerritoryType, c.TerritoryType},
		{KeyTerritory, c.Territory},
		{KeyActivityType, c.ActivityType},
		{KeyActivity, c.Activity},
		{KeyPeriodType, c.PeriodType},
		{KeyNomenclatureType, c.NomenclatureType},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("classification field %s is required", f.key)
		}
	}
	return nil
}
