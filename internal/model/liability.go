package model

// Comparative fault risk levels.
const (
	RiskLow     = "Low"
	RiskMedium  = "Medium"
	RiskHigh    = "High"
	RiskUnknown = "Unknown"
)

// LiabilityAnalysis summarizes fault indicators from the police report.
type LiabilityAnalysis struct {
	FaultDetermination  string    `json:"fault_determination"`
	AtFaultParty        string    `json:"at_fault_party"`
	ContributingFactors []string  `json:"contributing_factors"`
	Violations          []string  `json:"violations_cited"`
	Evidence            []string  `json:"evidence"`
	Witnesses           []Witness `json:"witness_statements,omitempty"`

	// ComparativeFaultRisk is one of RiskLow, RiskMedium, RiskHigh or RiskUnknown.
	ComparativeFaultRisk string `json:"comparative_fault_risk"`
	Assessment           string `json:"liability_assessment,omitempty"`
}

// Witness is an independent witness named in the police report.
type Witness struct {
	Name    string `json:"name"`
	Summary string `json:"summary,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// IsZero reports whether no liability information was found.
func (l LiabilityAnalysis) IsZero() bool {
	return l.FaultDetermination == "" && len(l.ContributingFactors) == 0 &&
		len(l.Evidence) == 0 && len(l.Violations) == 0
}
