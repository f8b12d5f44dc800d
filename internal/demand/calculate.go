package demand

import (
	"errors"
	"math"

	"github.com/nao1215/picase/internal/model"
)

// ErrNoSpecials is returned when a record has no medical specials to base a
// demand on.
var ErrNoSpecials = errors.New("no medical specials documented")

// roundingStep is the unit demands are rounded to.
const roundingStep = model.Money(500 * 100)

// Calculation is the breakdown of a demand.
type Calculation struct {
	Specials model.Money `json:"total_specials"`

	Severity       Severity `json:"-"`
	SeverityName   string   `json:"severity_classification"`
	MultiplierLow  float64  `json:"multiplier_low"`
	MultiplierHigh float64  `json:"multiplier_high"`
	Multiplier     float64  `json:"multiplier_used"`

	// LiabilityStrength is between 0 (weak) and 1 (very strong).
	LiabilityStrength float64 `json:"liability_strength"`

	PainAndSuffering model.Money `json:"pain_and_suffering"`

	// Demand is Specials + PainAndSuffering rounded to the nearest $500.
	Demand model.Money `json:"total_demand"`

	DefendantBI     model.Money `json:"defendant_bi_limit"`
	ExceedsCoverage bool        `json:"exceeds_coverage"`
}

// Calculate computes the demand for record.
func Calculate(record *model.CaseRecord) (*Calculation, error) {
	specials := record.Bills.TotalBilled
	if specials.IsZero() {
		specials = record.Value.SpecialDamages
	}
	if specials <= 0 {
		return nil, ErrNoSpecials
	}

	severity := ClassifySeverity(record)
	low, high := severity.MultiplierRange()
	points := liabilityPoints(record)

	var multiplier float64
	switch {
	case points >= 90:
		multiplier = high
	case points >= 75:
		multiplier = (low+high)/2 + (high-low)*0.25
	case points >= 50:
		multiplier = (low + high) / 2
	default:
		multiplier = low
	}

	painAndSuffering := specials.Scale(multiplier)
	c := &Calculation{
		Specials:          specials,
		Severity:          severity,
		SeverityName:      severity.String(),
		MultiplierLow:     low,
		MultiplierHigh:    high,
		Multiplier:        math.Round(multiplier*100) / 100,
		LiabilityStrength: float64(points) / 100,
		PainAndSuffering:  painAndSuffering,
		Demand:            (specials + painAndSuffering).RoundTo(roundingStep),
		DefendantBI:       record.Coverage.DefendantBI(),
	}
	c.ExceedsCoverage = c.DefendantBI > 0 && c.Demand > c.DefendantBI
	return c, nil
}
