package model

// CaseValue is the value summary of a case.
type CaseValue struct {
	// SpecialDamages is the total billed for medical treatment.
	SpecialDamages    Money `json:"special_damages_total"`
	Outstanding       Money `json:"outstanding"`
	AvailableCoverage Money `json:"available_coverage"`

	EstimatedLow  Money `json:"estimated_low"`
	EstimatedMid  Money `json:"estimated_mid"`
	EstimatedHigh Money `json:"estimated_high"`

	PositiveFactors  []string `json:"positive_factors"`
	NegativeFactors  []string `json:"negative_factors"`
	ValueMultipliers []string `json:"value_multipliers,omitempty"`
}

// Value range multipliers applied to the special damages.
var (
	PermanentRange = [3]float64{2, 3.5, 5}
	StandardRange  = [3]float64{1.5, 2.5, 3.5}
)

// SetRange fills the estimated range from the special damages.
func (v *CaseValue) SetRange(multipliers [3]float64) {
	v.EstimatedLow = v.SpecialDamages.Scale(multipliers[0])
	v.EstimatedMid = v.SpecialDamages.Scale(multipliers[1])
	v.EstimatedHigh = v.SpecialDamages.Scale(multipliers[2])
}
