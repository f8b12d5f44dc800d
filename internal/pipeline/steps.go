package pipeline

import (
	"context"
	"strings"

	"github.com/nao1215/picase/internal/idp"
	"github.com/nao1215/picase/internal/model"
)

// DocumentsStep stamps the record with its id and document counts.
type DocumentsStep struct {
	newID func() string
}

// Name returns the step name.
func (s *DocumentsStep) Name() string {
	return "documents"
}

// Do executes the step.
func (s *DocumentsStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	if s.newID != nil && record.ReportID == "" {
		record.ReportID = s.newID()
	}
	record.CaseID = docs.CaseID
	record.ExtractionType = model.ExtractionStructuredJSON
	record.DocumentCounts = model.DocumentCounts{
		MedicalRecords:    len(docs.MedicalRecords),
		PoliceReports:     len(docs.PoliceReports),
		InsurancePolicies: len(docs.Policies),
		MedicalBills:      len(docs.Bills),
	}
	return nil
}

// PlaintiffStep fills the plaintiff from the medical records and the
// police report's first driver.
type PlaintiffStep struct{}

// Name returns the step name.
func (s *PlaintiffStep) Name() string {
	return "plaintiff"
}

// Do executes the step.
func (s *PlaintiffStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	p := &record.Plaintiff

	for _, r := range docs.MedicalRecords {
		name, dob, mrn := r.Patient()
		p.Name = firstNonEmpty(p.Name, name)
		p.DateOfBirth = firstNonEmpty(p.DateOfBirth, dob)
		p.MRN = firstNonEmpty(p.MRN, mrn)
		if p.AgeAtAccident == 0 {
			p.AgeAtAccident = parseAge(string(r.PatientInfo.AgeAtVisit))
		}
	}

	if report := docs.PoliceReport(); report != nil {
		if d := report.Driver(1); d != nil {
			p.Name = firstNonEmpty(p.Name, string(d.Name))
			p.DateOfBirth = firstNonEmpty(p.DateOfBirth, string(d.DateOfBirth))
			p.Address = string(d.Address)
			p.Phone = string(d.Phone)
			p.License = string(d.LicenseNumber)
		}
	}
	return nil
}

// DefendantStep fills the defendant from the police report's second driver
// and vehicle.
type DefendantStep struct{}

// Name returns the step name.
func (s *DefendantStep) Name() string {
	return "defendant"
}

// Do executes the step.
func (s *DefendantStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	report := docs.PoliceReport()
	if report == nil {
		return nil
	}
	d := &record.Defendant

	if driver := report.Driver(2); driver != nil {
		d.Name = string(driver.Name)
		d.Address = string(driver.Address)
		d.Phone = string(driver.Phone)
		d.License = string(driver.LicenseNumber)
	}

	if v := report.Vehicle(2); v != nil {
		d.Vehicle = model.Vehicle{
			Year:  string(v.Year),
			Make:  string(v.Make),
			Model: string(v.Model),
			Plate: string(v.LicensePlate),
		}
		owner := string(v.RegisteredOwner.Name)
		if owner != "" && !sameName(owner, d.Name) {
			d.Employer = owner
			d.EmployerAddress = string(v.RegisteredOwner.Address)
		}
		d.Insurance = model.InsuranceRef{
			Carrier:      string(v.Insurance.Company),
			PolicyNumber: string(v.Insurance.PolicyNumber),
		}
	}

	// A commercial policy document is more complete than the police report.
	for _, policy := range docs.Policies {
		if !strings.Contains(string(policy.PolicyInfo.PolicyType), "Commercial") {
			continue
		}
		d.Insurance = model.InsuranceRef{
			Carrier:      firstNonEmpty(string(policy.PolicyInfo.InsuranceCompany), d.Insurance.Carrier),
			PolicyNumber: firstNonEmpty(string(policy.PolicyInfo.PolicyNumber), d.Insurance.PolicyNumber),
			ClaimNumber:  string(policy.ClaimsInfo.ClaimNumber),
		}
		break
	}

	violations := make([]string, 0, len(report.FaultIndicators.ViolationsCited))
	for _, v := range report.FaultIndicators.ViolationsCited {
		violations = append(violations, v.String())
	}
	d.Violations = model.OrderedSet(violations...)
	d.ContributingFactors = model.OrderedSet(report.FaultIndicators.ContributingFactors...)
	return nil
}

// AccidentStep fills the accident details from the first police report.
type AccidentStep struct{}

// Name returns the step name.
func (s *AccidentStep) Name() string {
	return "accident"
}

// Do executes the step.
func (s *AccidentStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	report := docs.PoliceReport()
	if report == nil {
		return nil
	}
	details := report.AccidentDetails
	loc := details.Location

	street := string(loc.StreetAddress)
	if cross := string(loc.CrossStreet); cross != "" {
		if street == "" {
			street = cross
		} else {
			street += " at " + cross
		}
	}

	location := street
	if borough := string(loc.Borough); borough != "" {
		if location == "" {
			location = borough
		} else {
			location += ", " + borough
		}
	}

	record.Accident = model.Accident{
		Date:           firstNonEmpty(string(details.Date), string(report.ReportInfo.DatePrepared)),
		Time:           string(details.Time),
		Location:       location,
		Borough:        string(loc.Borough),
		Weather:        string(details.WeatherConditions),
		RoadConditions: string(details.RoadConditions),
		ReportNumber:   string(report.ReportInfo.ReportNumber),
		Precinct:       string(report.ReportInfo.Precinct),
		Narrative:      string(report.Narrative),
	}
	return nil
}
