package model

import (
	"fmt"
	"sort"
)

// ThresholdCategory is a serious injury category under NY Insurance Law §5102(d).
// The categories are supplied as pre-computed flags by the IDP output; this
// package only labels and orders them.
type ThresholdCategory int

const (
	// CategoryPermanentConsequential is a permanent consequential limitation
	// of use of a body organ or member.
	CategoryPermanentConsequential ThresholdCategory = iota

	// CategoryPermanentLoss is a permanent loss of use of a body organ,
	// member, function or system.
	CategoryPermanentLoss

	// CategorySignificantLimitation is a significant limitation of use of
	// a body function or system.
	CategorySignificantLimitation

	// CategoryFracture is any fracture.
	CategoryFracture

	// CategoryDisfigurement is a significant disfigurement.
	CategoryDisfigurement

	// CategoryNinetyOneEighty is a medically determined impairment that
	// prevented usual activities for 90 of the first 180 days.
	CategoryNinetyOneEighty
)

// String returns the label used in reports.
func (c ThresholdCategory) String() string {
	switch c {
	case CategoryPermanentConsequential:
		return "Permanent Consequential Limitation"
	case CategoryPermanentLoss:
		return "Permanent Loss of Use"
	case CategorySignificantLimitation:
		return "Significant Limitation of Use"
	case CategoryFracture:
		return "Fracture"
	case CategoryDisfigurement:
		return "Significant Disfigurement"
	case CategoryNinetyOneEighty:
		return "90/180 Day Disability"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the category as its label.
func (c ThresholdCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category label.
func (c *ThresholdCategory) UnmarshalText(text []byte) error {
	for _, candidate := range allCategories {
		if candidate.String() == string(text) {
			*c = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown serious injury category %q", string(text))
}

var allCategories = []ThresholdCategory{
	CategoryPermanentConsequential,
	CategoryPermanentLoss,
	CategorySignificantLimitation,
	CategoryFracture,
	CategoryDisfigurement,
	CategoryNinetyOneEighty,
}

// IsPermanent reports whether the category describes a permanent injury.
func (c ThresholdCategory) IsPermanent() bool {
	return c == CategoryPermanentConsequential || c == CategoryPermanentLoss
}

// Strength labels for the serious injury analysis.
const (
	StrengthStrong         = "Strong - Permanent limitation documented"
	StrengthModerateStrong = "Moderate-Strong - Significant limitation with objective findings"
	StrengthModerate       = "Moderate - Must document 90 days disability in first 180 days"
	StrengthWeak           = "Weak - May not meet serious injury threshold"
)

// Notes attached to the serious injury analysis.
const (
	ThresholdMetNote    = "Case likely meets NY serious injury threshold based on documented injuries and limitations."
	ThresholdReviewNote = "Additional documentation may be needed to establish serious injury threshold."
)

// SeriousInjury is the serious injury threshold analysis.
type SeriousInjury struct {
	MeetsThreshold bool `json:"meets_threshold"`

	// Categories is ordered by ThresholdCategory value.
	Categories []ThresholdCategory `json:"threshold_categories"`

	SupportingEvidence []string `json:"supporting_evidence"`
	Strength           string   `json:"strength_assessment"`
	RiskFactors        []string `json:"risk_factors,omitempty"`
	Notes              string   `json:"notes"`
}

// SetCategories stores the de-duplicated, ordered categories and derives
// MeetsThreshold, Strength, RiskFactors and Notes from them.
func (s *SeriousInjury) SetCategories(categories ...ThresholdCategory) {
	seen := make(map[ThresholdCategory]struct{}, len(categories))
	s.Categories = make([]ThresholdCategory, 0, len(categories))
	for _, c := range categories {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		s.Categories = append(s.Categories, c)
	}
	sort.Slice(s.Categories, func(i, j int) bool { return s.Categories[i] < s.Categories[j] })

	s.MeetsThreshold = len(s.Categories) > 0
	s.RiskFactors = nil
	switch {
	case s.Has(CategoryPermanentConsequential) || s.Has(CategoryPermanentLoss):
		s.Strength = StrengthStrong
	case s.Has(CategorySignificantLimitation):
		s.Strength = StrengthModerateStrong
	case s.Has(CategoryNinetyOneEighty):
		s.Strength = StrengthModerate
	default:
		s.Strength = StrengthWeak
		s.RiskFactors = []string{"Limited objective findings documented"}
	}

	if s.MeetsThreshold {
		s.Notes = ThresholdMetNote
	} else {
		s.Notes = ThresholdReviewNote
	}
}

// Has reports whether the category was found.
func (s SeriousInjury) Has(c ThresholdCategory) bool {
	for _, got := range s.Categories {
		if got == c {
			return true
		}
	}
	return false
}

// HasPermanent reports whether any permanent category was found.
func (s SeriousInjury) HasPermanent() bool {
	for _, c := range s.Categories {
		if c.IsPermanent() {
			return true
		}
	}
	return false
}

// Labels returns the category labels in order.
func (s SeriousInjury) Labels() []string {
	labels := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		labels = append(labels, c.String())
	}
	return labels
}
