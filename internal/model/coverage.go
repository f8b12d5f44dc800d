package model

// InsuranceCoverage describes the policies available to the plaintiff.
type InsuranceCoverage struct {
	PlaintiffPolicy *Policy `json:"plaintiff_policy,omitempty"`
	DefendantPolicy *Policy `json:"defendant_policy,omitempty"`

	PIPAvailable Money `json:"pip_available"`
	SUMAvailable Money `json:"sum_available"`
	UMAvailable  Money `json:"um_available"`

	// TotalAvailable is PIP + SUM + UM, counting populated amounts only.
	TotalAvailable Money `json:"total_available_coverage"`

	MeetsNYMinimum bool   `json:"meets_ny_minimum"`
	Analysis       string `json:"coverage_analysis,omitempty"`
}

// Policy is one insurance policy with its limits by coverage type.
type Policy struct {
	Carrier      string `json:"carrier"`
	PolicyNumber string `json:"policy_number"`
	ClaimNumber  string `json:"claim_number,omitempty"`
	NamedInsured string `json:"named_insured,omitempty"`
	Type         string `json:"policy_type,omitempty"`

	BIPerPerson   Money `json:"bi_per_person,omitempty"`
	BIPerAccident Money `json:"bi_per_accident,omitempty"`

	// PIP is basic plus additional personal injury protection.
	PIP  Money `json:"pip,omitempty"`
	OBEL Money `json:"obel,omitempty"`

	SUMPerPerson   Money `json:"sum_per_person,omitempty"`
	SUMPerAccident Money `json:"sum_per_accident,omitempty"`
	UMPerPerson    Money `json:"um_per_person,omitempty"`
}

// BILimits formats the bodily injury limits as "$100,000/$300,000".
func (p Policy) BILimits() string {
	return splitLimit(p.BIPerPerson, p.BIPerAccident)
}

// SUMLimits formats the SUM limits as "$100,000/$300,000".
func (p Policy) SUMLimits() string {
	return splitLimit(p.SUMPerPerson, p.SUMPerAccident)
}

// PIPLimit formats the PIP limit, or "" when unpopulated.
func (p Policy) PIPLimit() string {
	if p.PIP.IsZero() {
		return ""
	}
	return p.PIP.Whole()
}

func splitLimit(perPerson, perAccident Money) string {
	if perPerson.IsZero() {
		return ""
	}
	if perAccident.IsZero() {
		return perPerson.Whole()
	}
	return perPerson.Whole() + "/" + perAccident.Whole()
}

// ComputeTotal returns the sum of every populated available amount.
func (c InsuranceCoverage) ComputeTotal() Money {
	return Sum(c.PIPAvailable, c.SUMAvailable, c.UMAvailable)
}

// DefendantBI returns the defendant's bodily injury per-person limit.
func (c InsuranceCoverage) DefendantBI() Money {
	if c.DefendantPolicy == nil {
		return 0
	}
	return c.DefendantPolicy.BIPerPerson
}

// IsZero reports whether no policy was found.
func (c InsuranceCoverage) IsZero() bool {
	return c.PlaintiffPolicy == nil && c.DefendantPolicy == nil && c.TotalAvailable.IsZero()
}
