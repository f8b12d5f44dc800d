package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/picase/internal/idp"
	"github.com/nao1215/picase/internal/model"
)

// New York minimum bodily injury limits.
var (
	nyMinimumPerPerson   = model.Dollars(25000)
	nyMinimumPerAccident = model.Dollars(50000)
)

// CoverageStep assigns each policy to a party and computes the coverage
// available to the plaintiff.
type CoverageStep struct{}

// Name returns the step name.
func (s *CoverageStep) Name() string {
	return "coverage"
}

// Do executes the step.
func (s *CoverageStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	var coverage model.InsuranceCoverage

	for _, doc := range docs.Policies {
		policy := toPolicy(doc)
		if doc.Analysis.MeetsNYMinimum {
			coverage.MeetsNYMinimum = true
		}

		if belongsToPlaintiff(doc, record) {
			if coverage.PlaintiffPolicy == nil {
				coverage.PlaintiffPolicy = policy
				coverage.PIPAvailable = policy.PIP
				coverage.SUMAvailable = policy.SUMPerPerson
				coverage.UMAvailable = policy.UMPerPerson
			}
			continue
		}
		if coverage.DefendantPolicy == nil {
			coverage.DefendantPolicy = policy
		}
	}

	// Without a policy document, the police report still names the carrier.
	if coverage.DefendantPolicy == nil && !record.Defendant.Insurance.IsZero() {
		ref := record.Defendant.Insurance
		coverage.DefendantPolicy = &model.Policy{
			Carrier:      ref.Carrier,
			PolicyNumber: ref.PolicyNumber,
			ClaimNumber:  ref.ClaimNumber,
			NamedInsured: firstNonEmpty(record.Defendant.Employer, record.Defendant.Name),
		}
	}

	if p := coverage.DefendantPolicy; p != nil &&
		p.BIPerPerson >= nyMinimumPerPerson && p.BIPerAccident >= nyMinimumPerAccident {
		coverage.MeetsNYMinimum = true
	}

	coverage.TotalAvailable = coverage.ComputeTotal()
	coverage.Analysis = coverageAnalysis(coverage)
	record.Coverage = coverage
	return nil
}

func toPolicy(doc idp.InsurancePolicy) *model.Policy {
	c := doc.Coverages
	return &model.Policy{
		Carrier:        string(doc.PolicyInfo.InsuranceCompany),
		PolicyNumber:   string(doc.PolicyInfo.PolicyNumber),
		ClaimNumber:    string(doc.ClaimsInfo.ClaimNumber),
		NamedInsured:   string(doc.NamedInsured.Name),
		Type:           string(doc.PolicyInfo.PolicyType),
		BIPerPerson:    c.BodilyInjury.PerPerson,
		BIPerAccident:  c.BodilyInjury.PerAccident,
		PIP:            c.PIP.BasicPIP + c.PIP.AdditionalPIP,
		OBEL:           c.PIP.OBEL,
		SUMPerPerson:   c.Underinsured.PerPerson,
		SUMPerAccident: c.Underinsured.PerAccident,
		UMPerPerson:    c.Uninsured.BodilyInjuryPerPerson,
	}
}

// belongsToPlaintiff decides policy ownership: a named insured matching the
// plaintiff wins, one matching the defendant or the registered owner loses,
// and otherwise a personal policy is taken to be the plaintiff's.
func belongsToPlaintiff(doc idp.InsurancePolicy, record *model.CaseRecord) bool {
	insured := string(doc.NamedInsured.Name)
	switch {
	case sameName(insured, record.Plaintiff.Name):
		return true
	case sameName(insured, record.Defendant.Name), sameName(insured, record.Defendant.Employer):
		return false
	default:
		return strings.Contains(string(doc.PolicyInfo.PolicyType), "Personal")
	}
}

func coverageAnalysis(c model.InsuranceCoverage) string {
	bi := c.DefendantBI()
	sum := c.SUMAvailable
	switch {
	case bi.IsZero() && sum.IsZero():
		return ""
	case bi.IsZero():
		return fmt.Sprintf("Defendant's BI limits are not documented. Plaintiff's SUM coverage of %s may apply if the defendant is underinsured.", sum.Whole())
	case bi >= sum:
		return fmt.Sprintf("Defendant's BI limits (%s) meet or exceed plaintiff's SUM. No SUM claim available.", bi.Whole())
	default:
		return fmt.Sprintf("Potential SUM claim of %s if defendant's policy is exhausted.", (sum - bi).Whole())
	}
}

// LiabilityStep summarizes the police report's fault indicators.
type LiabilityStep struct{}

// Name returns the step name.
func (s *LiabilityStep) Name() string {
	return "liability"
}

// Do executes the step.
func (s *LiabilityStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	report := docs.PoliceReport()
	if report == nil {
		record.Liability.ComparativeFaultRisk = model.RiskUnknown
		return nil
	}
	fault := report.FaultIndicators

	l := model.LiabilityAnalysis{
		FaultDetermination:  string(fault.FaultDetermination),
		AtFaultParty:        string(fault.ApparentFault),
		ContributingFactors: model.OrderedSet(fault.ContributingFactors...),
		Violations:          record.Defendant.Violations,
	}

	for _, w := range report.Witnesses {
		if w.Name == "" && w.StatementSummary == "" {
			continue
		}
		l.Witnesses = append(l.Witnesses, model.Witness{
			Name:    string(w.Name),
			Summary: string(w.StatementSummary),
			Phone:   string(w.Phone),
		})
	}

	if report.DiagramPresent {
		l.Evidence = append(l.Evidence, "Accident diagram")
	}
	if report.PhotosTaken {
		l.Evidence = append(l.Evidence, "Photos taken at scene")
	}
	if n := len(l.Witnesses); n > 0 {
		l.Evidence = append(l.Evidence, fmt.Sprintf("%d witness statement(s)", n))
	}
	if narrative := string(report.Narrative); containsFold(narrative, "traffic camera") || containsFold(narrative, "camera footage") {
		l.Evidence = append(l.Evidence, "Traffic camera footage")
	}

	l.ComparativeFaultRisk = comparativeFaultRisk(l, record)
	l.Assessment = liabilityAssessment(report, l)
	record.Liability = l
	return nil
}

func comparativeFaultRisk(l model.LiabilityAnalysis, record *model.CaseRecord) string {
	determination := l.FaultDetermination + " " + l.AtFaultParty
	switch {
	case strings.TrimSpace(determination) == "":
		return model.RiskUnknown
	case containsFold(determination, "shared"), containsFold(determination, "both"):
		return model.RiskHigh
	case containsFold(determination, "driver 2"), containsFold(determination, "vehicle 2"),
		record.Defendant.Name != "" && containsFold(determination, record.Defendant.Name):
		return model.RiskLow
	case containsFold(determination, "driver 1"), containsFold(determination, "vehicle 1"):
		return model.RiskHigh
	default:
		return model.RiskMedium
	}
}

func liabilityAssessment(report *idp.PoliceReport, l model.LiabilityAnalysis) string {
	var parts []string
	if cited := report.FaultIndicators.ViolationsCited; len(cited) > 0 {
		descriptions := make([]string, 0, len(cited))
		for _, v := range cited {
			descriptions = append(descriptions, firstNonEmpty(string(v.Description), string(v.VTLSection)))
		}
		parts = append(parts, fmt.Sprintf("Strong liability case. Defendant cited for: %s.", strings.Join(descriptions, ", ")))
	}
	if n := len(l.Witnesses); n > 0 {
		parts = append(parts, fmt.Sprintf("%d independent witness(es) support plaintiff's version.", n))
	}
	return strings.Join(parts, " ")
}

// ThresholdStep labels the pre-computed serious injury flags of every
// medical record. It performs no medical or legal reasoning of its own.
type ThresholdStep struct{}

// Name returns the step name.
func (s *ThresholdStep) Name() string {
	return "threshold"
}

// Do executes the step.
func (s *ThresholdStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	var (
		categories []model.ThresholdCategory
		evidence   []string
	)
	for _, r := range docs.MedicalRecords {
		categories = append(categories, r.Indicators.Categories()...)
		evidence = append(evidence, r.Indicators.SupportingLanguage...)
	}

	var analysis model.SeriousInjury
	analysis.SetCategories(categories...)
	analysis.SupportingEvidence = model.OrderedSet(evidence...)
	record.Threshold = analysis
	return nil
}

// ValueStep summarizes the case value.
type ValueStep struct{}

// Name returns the step name.
func (s *ValueStep) Name() string {
	return "value"
}

// Do executes the step.
func (s *ValueStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	v := model.CaseValue{
		SpecialDamages:    record.Bills.TotalBilled,
		Outstanding:       record.Bills.TotalOutstanding,
		AvailableCoverage: record.Coverage.TotalAvailable,
		PositiveFactors:   make([]string, 0),
		NegativeFactors:   make([]string, 0),
	}

	liability := record.Liability
	if liability.ComparativeFaultRisk == model.RiskLow {
		v.PositiveFactors = append(v.PositiveFactors, "Clear liability - defendant 100% at fault")
	}
	if len(liability.Violations) > 0 {
		v.PositiveFactors = append(v.PositiveFactors, "Traffic violations cited against defendant")
	}
	if len(liability.Witnesses) >= 2 {
		v.PositiveFactors = append(v.PositiveFactors, "Multiple independent witnesses")
	}
	if record.Threshold.HasPermanent() {
		v.PositiveFactors = append(v.PositiveFactors, "Permanent injury documented")
		v.ValueMultipliers = append(v.ValueMultipliers, "Permanent injury multiplier: 3-5x specials")
	}
	if record.Injuries.MentionsAny("herniation") {
		v.PositiveFactors = append(v.PositiveFactors, "MRI-confirmed disc herniation")
		v.ValueMultipliers = append(v.ValueMultipliers, "Disc herniation multiplier: 2-4x specials")
	}

	if len(docs.Bills) > 0 && record.Bills.NoFaultRemaining.IsZero() {
		v.NegativeFactors = append(v.NegativeFactors, "No-fault benefits exhausted")
	}
	if record.Threshold.Strength == model.StrengthWeak {
		v.NegativeFactors = append(v.NegativeFactors, "Serious injury threshold may be challenged")
	}
	if liability.ComparativeFaultRisk == model.RiskHigh {
		v.NegativeFactors = append(v.NegativeFactors, "Comparative fault may reduce recovery")
	}

	if record.Threshold.HasPermanent() {
		v.SetRange(model.PermanentRange)
	} else {
		v.SetRange(model.StandardRange)
	}

	record.Value = v
	return nil
}
