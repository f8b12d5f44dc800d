package model

import "strings"

// Plaintiff is the injured party.
type Plaintiff struct {
	Name          string `json:"name"`
	DateOfBirth   string `json:"dob"`
	AgeAtAccident int    `json:"age_at_accident,omitempty"`
	Address       string `json:"address"`
	Phone         string `json:"phone,omitempty"`
	MRN           string `json:"mrn,omitempty"`
	License       string `json:"license,omitempty"`
}

// Defendant is the at-fault driver and the registered owner of the vehicle.
type Defendant struct {
	Name                string       `json:"name"`
	Address             string       `json:"address,omitempty"`
	Phone               string       `json:"phone,omitempty"`
	License             string       `json:"license,omitempty"`
	Employer            string       `json:"employer,omitempty"`
	EmployerAddress     string       `json:"employer_address,omitempty"`
	Vehicle             Vehicle      `json:"vehicle"`
	Insurance           InsuranceRef `json:"insurance"`
	Violations          []string     `json:"violations"`
	ContributingFactors []string     `json:"contributing_factors"`
}

// Vehicle identifies a vehicle involved in the accident.
type Vehicle struct {
	Year  string `json:"year,omitempty"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
	Plate string `json:"plate,omitempty"`
}

// String returns "2019 Ford F-150", skipping empty parts.
func (v Vehicle) String() string {
	return joinNonEmpty(" ", v.Year, v.Make, v.Model)
}

// IsZero reports whether no vehicle field is populated.
func (v Vehicle) IsZero() bool {
	return v == Vehicle{}
}

// InsuranceRef identifies a policy without its limits.
type InsuranceRef struct {
	Carrier      string `json:"carrier,omitempty"`
	PolicyNumber string `json:"policy_number,omitempty"`
	ClaimNumber  string `json:"claim_number,omitempty"`
}

// String returns "Progressive Commercial Policy #PC-2024-45678".
func (r InsuranceRef) String() string {
	if r.PolicyNumber == "" {
		return r.Carrier
	}
	return strings.TrimSpace(r.Carrier + " Policy #" + r.PolicyNumber)
}

// IsZero reports whether no insurance field is populated.
func (r InsuranceRef) IsZero() bool {
	return r == InsuranceRef{}
}

// Accident holds the police report metadata.
type Accident struct {
	Date           string `json:"date"`
	Time           string `json:"time"`
	Location       string `json:"location"`
	Borough        string `json:"borough,omitempty"`
	Weather        string `json:"weather,omitempty"`
	RoadConditions string `json:"road_conditions,omitempty"`
	ReportNumber   string `json:"report_number"`
	Precinct       string `json:"precinct,omitempty"`
	Narrative      string `json:"description"`
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
