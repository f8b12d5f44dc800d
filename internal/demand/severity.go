package demand

import (
	"strings"

	"github.com/nao1215/picase/internal/model"
)

// Severity classifies the injuries of a case for the demand calculation.
// Higher values are more severe.
type Severity int

const (
	// SeveritySoftTissue covers strains, sprains and contusions.
	SeveritySoftTissue Severity = iota

	// SeverityDiscBulging is a disc bulge or protrusion on imaging.
	SeverityDiscBulging

	// SeverityRadiculopathy is nerve root involvement.
	SeverityRadiculopathy

	// SeverityDiscHerniation is a herniated disc on imaging.
	SeverityDiscHerniation

	// SeverityPermanent is a permanent injury backed by a permanent
	// consequential limitation finding.
	SeverityPermanent
)

// String returns the severity identifier.
func (s Severity) String() string {
	switch s {
	case SeveritySoftTissue:
		return "soft_tissue"
	case SeverityDiscBulging:
		return "disc_bulging"
	case SeverityRadiculopathy:
		return "radiculopathy"
	case SeverityDiscHerniation:
		return "disc_herniation"
	case SeverityPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// MultiplierRange returns the low and high pain and suffering multipliers.
func (s Severity) MultiplierRange() (low, high float64) {
	switch s {
	case SeverityPermanent:
		return 3.0, 5.0
	case SeverityDiscHerniation:
		return 2.5, 4.0
	case SeverityRadiculopathy:
		return 2.5, 3.5
	case SeverityDiscBulging:
		return 2.0, 3.0
	default:
		return 1.5, 2.5
	}
}

var permanentKeywords = []string{"permanent", "chronic", "irreversible", "uncertain recovery"}

// ClassifySeverity returns the most severe classification the record supports.
func ClassifySeverity(record *model.CaseRecord) Severity {
	injuries := record.Injuries
	imaging := strings.ToLower(strings.Join(injuries.ImagingFindings, " "))
	all := strings.ToLower(strings.Join([]string{
		imaging,
		strings.Join(injuries.Diagnoses, " "),
		injuries.Prognosis,
	}, " "))

	if containsAny(all, permanentKeywords...) && record.Threshold.Has(model.CategoryPermanentConsequential) {
		return SeverityPermanent
	}
	if containsAny(imaging, "herniation", "herniated") {
		return SeverityDiscHerniation
	}
	if containsAny(all, "radiculopathy") {
		return SeverityRadiculopathy
	}
	if containsAny(imaging, "bulging", "bulge", "protrusion") {
		return SeverityDiscBulging
	}
	return SeveritySoftTissue
}

// liabilityPoints scores liability from 0 (weak) to 100 (very strong).
// Points start neutral at 50.
func liabilityPoints(record *model.CaseRecord) int {
	l := record.Liability
	points := 50

	fault := strings.ToLower(l.FaultDetermination)
	if containsAny(fault, "100%", "at fault", "driver 2") {
		points += 20
	}

	violations := l.Violations
	if len(violations) == 0 {
		violations = record.Defendant.Violations
	}
	points += 10 * min(len(violations), 2)

	evidence := strings.ToLower(strings.Join(l.Evidence, " "))
	if containsAny(evidence, "camera", "video") {
		points += 15
	}
	if containsAny(evidence, "witness") {
		points += 10
	}

	points += 5 * min(len(l.ContributingFactors), 2)

	return max(0, min(100, points))
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
