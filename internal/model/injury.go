package model

import (
	"sort"
	"strings"
)

// Injuries consolidates the diagnoses of every medical record in a case.
type Injuries struct {
	// BodyParts is the sorted set of affected body parts.
	BodyParts []string `json:"body_parts"`

	// Diagnoses lists diagnosis descriptions in first-seen order without duplicates.
	Diagnoses []string `json:"diagnoses"`

	// PrimaryDiagnoses lists the diagnoses flagged as primary.
	PrimaryDiagnoses []Diagnosis `json:"primary_diagnoses,omitempty"`

	// ICDCodes is the sorted set of ICD-10 codes.
	ICDCodes []string `json:"icd_codes"`

	// ImagingFindings is the sorted set of "study: finding" strings.
	ImagingFindings []string `json:"imaging_findings"`

	TreatmentPlan    []string `json:"treatment_plan,omitempty"`
	WorkRestrictions string   `json:"work_restrictions"`
	Prognosis        string   `json:"prognosis"`
}

// Diagnosis is a single coded diagnosis.
type Diagnosis struct {
	Description string `json:"description"`
	ICDCode     string `json:"icd_code,omitempty"`
	BodyPart    string `json:"body_part,omitempty"`
	Primary     bool   `json:"is_primary,omitempty"`
}

// Label returns "description (code)", or just the description when uncoded.
func (d Diagnosis) Label() string {
	if d.ICDCode == "" {
		return d.Description
	}
	return d.Description + " (" + d.ICDCode + ")"
}

// IsZero reports whether no injury information was found.
func (i Injuries) IsZero() bool {
	return len(i.BodyParts) == 0 && len(i.Diagnoses) == 0 && len(i.ICDCodes) == 0 &&
		len(i.ImagingFindings) == 0 && i.WorkRestrictions == "" && i.Prognosis == ""
}

// MentionsAny reports whether any diagnosis or imaging finding contains one of
// the given terms, compared case-insensitively.
func (i Injuries) MentionsAny(terms ...string) bool {
	for _, text := range append(append([]string{}, i.Diagnoses...), i.ImagingFindings...) {
		lower := strings.ToLower(text)
		for _, term := range terms {
			if strings.Contains(lower, strings.ToLower(term)) {
				return true
			}
		}
	}
	return false
}

// SortedSet returns the non-empty values of in, de-duplicated and sorted.
func SortedSet(in ...string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// OrderedSet returns the non-empty values of in without duplicates,
// keeping the order in which they first appear.
func OrderedSet(in ...string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
