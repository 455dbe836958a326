package stats

import (
	"github.com/datalab-emploi/francetravail-stats/internal/francetravail/client"
)

// Request body keys of the optional filters.
const (
	KeyLatestPeriodOnly  = "dernierePeriode"
	KeyPeriodCodes       = "listeCodePeriode"
	KeyNomenclatureCodes = "listeCodeNomenclature"
	KeyNoCharacteristics = "sansCaracteristiques"
	KeyCharacteristics   = "listeCaracteristiques"
)

// Options are per-call overrides merged on top of the classification.
// Zero values are left out of the request body.
type Options struct {
	// LatestPeriodOnly restricts results to the most recent period
	LatestPeriodOnly bool
	PeriodCodes      []string
	// NomenclatureCodes selects values of the configured nomenclature type
	NomenclatureCodes []string
	NoCharacteristics bool
	Characteristics   []map[string]any
	// Extra is merged last and may override any key, including
	// classification codes.
	Extra client.Params
}

// Params renders the options as request body fields.
func (o Options) Params() client.Params {
	p := client.Params{}
	if o.LatestPeriodOnly {
		p[KeyLatestPeriodOnly] = true
	}
	if len(o.PeriodCodes) > 0 {
		p[KeyPeriodCodes] = o.PeriodCodes
	}
	if len(o.NomenclatureCodes) > 0 {
		p[KeyNomenclatureCodes] = o.NomenclatureCodes
	}
	if o.NoCharacteristics {
		p[KeyNoCharacteristics] = true
	}
	if len(o.Characteristics) > 0 {
		p[KeyCharacteristics] = o.Characteristics
	}
	return p.Merge(o.Extra)
}
