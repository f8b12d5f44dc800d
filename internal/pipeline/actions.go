package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/nao1215/picase/internal/idp"
	"github.com/nao1215/picase/internal/model"
)

const (
	// limitationYears is the New York statute of limitations for negligence.
	limitationYears = 3

	// noFaultWarning is the remaining no-fault balance that triggers a warning.
	noFaultWarning = model.Money(10000 * 100)
)

// ActionsStep lists recommended next steps for the case.
type ActionsStep struct {
	now func() time.Time
}

// Name returns the step name.
func (s *ActionsStep) Name() string {
	return "actions"
}

// Do executes the step.
func (s *ActionsStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	now := time.Now
	if s.now != nil {
		now = s.now
	}

	var actions []string
	add := func(format string, args ...any) {
		actions = append(actions, fmt.Sprintf(format, args...))
	}

	bills := record.Bills
	if len(docs.Bills) > 0 && bills.NoFaultRemaining < noFaultWarning {
		add("URGENT: No-Fault benefits nearly exhausted (%s remaining). Consider filing NF-10 denial appeal or transition to health insurance.",
			bills.NoFaultRemaining)
	}

	if action := limitationAction(record.Accident.Date, now()); action != "" {
		actions = append(actions, action)
	}

	scheduledMRI := false
	for _, item := range record.Injuries.TreatmentPlan {
		if !scheduledMRI && containsFold(item, "mri") {
			add("Schedule MRI as recommended in treatment plan")
			scheduledMRI = true
		}
		if (containsFold(item, "follow up") || containsFold(item, "follow-up")) && containsFold(item, "orthopedic") {
			add("Schedule orthopedic follow-up appointment")
		}
	}

	threshold := record.Threshold
	if threshold.Has(model.CategoryNinetyOneEighty) && !threshold.HasPermanent() {
		add("Obtain narrative report documenting 90/180 day disability with specific activity limitations")
	}
	if strings.HasPrefix(threshold.Strength, "Moderate") {
		add("Request updated narrative report with permanency opinion from treating physician")
	}

	if record.Injuries.WorkRestrictions != "" {
		add("Obtain employment records for lost wage calculation")
	}

	if liens := bills.LienTotal(); liens > 0 {
		add("Negotiate medical liens totaling %s", liens)
	}

	if bi := record.Coverage.DefendantBI(); bi > 0 {
		add("Send policy limits demand to defendant's carrier (%s available)", bi.Whole())
	}
	if pip := record.Coverage.PIPAvailable; pip > 0 {
		add("File No-Fault claim (PIP available: %s)", pip)
	}

	actions = append(actions,
		"Request traffic camera footage via FOIL request",
		"Send preservation letter to defendant's insurance carrier",
		"Request certified copy of police report",
		"Request updated records from all treating providers",
		"Obtain final bills with No-Fault payments and balances due",
		"Consider demand letter after maximum medical improvement",
	)

	record.RecommendedActions = model.OrderedSet(actions...)
	return nil
}

// limitationAction returns a reminder when the three-year limitation period
// measured from the accident date ends within a year.
func limitationAction(accidentDate string, now time.Time) string {
	date, ok := parseDate(accidentDate)
	if !ok {
		return ""
	}
	deadline := date.AddDate(limitationYears, 0, 0)
	days := int(math.Floor(deadline.Sub(now).Hours() / 24))
	formatted := deadline.Format("01/02/2006")

	switch {
	case days < 0:
		return fmt.Sprintf("URGENT: Statute of limitations expired on %s. Confirm whether any tolling applies.", formatted)
	case days < 180:
		return fmt.Sprintf("URGENT: Statute of limitations expires in %d days (%s)", days, formatted)
	case days < 365:
		return fmt.Sprintf("NOTE: Statute of limitations expires in %d days (%s)", days, formatted)
	default:
		return ""
	}
}

// QualityStep records inconsistencies between documents.
type QualityStep struct {
	logger *slog.Logger
}

// Name returns the step name.
func (s *QualityStep) Name() string {
	return "quality"
}

// Do executes the step.
func (s *QualityStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	checkBills(record)
	checkPlaintiffIdentity(docs, record)
	checkDefendantIdentity(docs, record)
	checkNarrative(record)

	if s.logger != nil {
		for _, issue := range record.DataQuality {
			s.logger.Warn("data quality issue",
				"case", record.CaseID,
				"section", issue.Section,
				"message", issue.Message,
			)
		}
	}
	return nil
}

func checkBills(record *model.CaseRecord) {
	b := record.Bills
	if b.Reconciles() {
		return
	}
	record.AddIssue("medical_bills", fmt.Sprintf(
		"Total billed %s does not equal paid %s + adjustments %s + outstanding %s (difference %s)",
		b.TotalBilled, b.TotalPaid, b.TotalAdjustments, b.TotalOutstanding, b.Discrepancy()))
}

func checkPlaintiffIdentity(docs *idp.Documents, record *model.CaseRecord) {
	want := record.Plaintiff.Name
	if want == "" {
		return
	}

	var names []string
	for _, r := range docs.MedicalRecords {
		name, _, _ := r.Patient()
		names = append(names, name)
	}
	if report := docs.PoliceReport(); report != nil {
		if d := report.Driver(1); d != nil {
			names = append(names, string(d.Name))
		}
	}
	if p := record.Coverage.PlaintiffPolicy; p != nil {
		names = append(names, p.NamedInsured)
	}

	var mismatched []string
	for _, name := range model.OrderedSet(names...) {
		if !sameName(name, want) {
			mismatched = append(mismatched, name)
		}
	}
	if len(mismatched) > 0 {
		record.AddIssue("plaintiff", fmt.Sprintf(
			"Plaintiff is named %q but documents also name %s", want, quoteAll(mismatched)))
	}
}

func checkDefendantIdentity(docs *idp.Documents, record *model.CaseRecord) {
	d := record.Defendant
	if p := record.Coverage.DefendantPolicy; p != nil && p.NamedInsured != "" && d.Name != "" {
		if !sameName(p.NamedInsured, d.Name) && !sameName(p.NamedInsured, d.Employer) {
			record.AddIssue("defendant", fmt.Sprintf(
				"Defendant policy named insured %q matches neither driver %q nor registered owner %q",
				p.NamedInsured, d.Name, d.Employer))
		}
	}

	report := docs.PoliceReport()
	if report == nil {
		return
	}
	v := report.Vehicle(2)
	if v == nil {
		return
	}
	reported := string(v.Insurance.PolicyNumber)
	if reported != "" && d.Insurance.PolicyNumber != "" && reported != d.Insurance.PolicyNumber {
		record.AddIssue("defendant", fmt.Sprintf(
			"Police report lists defendant policy %s but the policy document is %s",
			reported, d.Insurance.PolicyNumber))
	}
}

func checkNarrative(record *model.CaseRecord) {
	vehicleMake := record.Defendant.Vehicle.Make
	narrative := record.Accident.Narrative
	if vehicleMake == "" || narrative == "" {
		return
	}
	if !containsFold(narrative, vehicleMake) {
		record.AddIssue("accident", fmt.Sprintf(
			"Police narrative does not mention the defendant vehicle (%s)", record.Defendant.Vehicle))
	}
}

func quoteAll(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, fmt.Sprintf("%q", v))
	}
	return strings.Join(quoted, ", ")
}
