package model

import (
	"time"
)

// ExtractionStructuredJSON marks records built from structured IDP JSON.
const ExtractionStructuredJSON = "structured_json"

// CaseRecord is the aggregate rendered by the report writers.
// A record is owned by a single invocation; nothing mutates it after the
// aggregation pipeline has finished.
type CaseRecord struct {
	// CaseID is the case folder name.
	CaseID string `json:"case_id"`

	// ReportID uniquely identifies this generated record.
	// It links a rendered report to its JSON export and history snapshot.
	ReportID string `json:"report_id,omitempty"`

	// GeneratedAt is when the record was aggregated.
	// Writers format this value instead of reading the clock so that
	// rendering the same record twice yields identical output.
	GeneratedAt time.Time `json:"generated_date"`

	// ExtractionType describes the IDP output the record was built from.
	ExtractionType string `json:"extraction_type,omitempty"`

	DocumentCounts DocumentCounts `json:"document_counts"`

	Plaintiff Plaintiff `json:"plaintiff"`
	Defendant Defendant `json:"defendant"`
	Accident  Accident  `json:"accident"`
	Injuries  Injuries  `json:"injuries"`

	TreatmentTimeline []TreatmentEntry `json:"treatment_timeline,omitempty"`
	Providers         []Provider       `json:"medical_providers,omitempty"`

	Bills     MedicalBills      `json:"medical_bills"`
	Coverage  InsuranceCoverage `json:"insurance_coverage"`
	Liability LiabilityAnalysis `json:"liability_analysis"`
	Threshold SeriousInjury     `json:"ny_serious_injury_analysis"`
	Value     CaseValue         `json:"case_value"`

	RecommendedActions []string `json:"recommended_actions"`

	// DataQuality lists inconsistencies found while merging documents.
	DataQuality []DataIssue `json:"data_quality,omitempty"`
}

// NewCaseRecord creates an empty record for the given case id.
func NewCaseRecord(caseID string, generatedAt time.Time) *CaseRecord {
	return &CaseRecord{
		CaseID:             caseID,
		GeneratedAt:        generatedAt,
		ExtractionType:     ExtractionStructuredJSON,
		RecommendedActions: make([]string, 0),
	}
}

// AddIssue records a data-quality issue for a section.
func (c *CaseRecord) AddIssue(section, message string) {
	c.DataQuality = append(c.DataQuality, DataIssue{Section: section, Message: message})
}

// HasIssues reports whether any data-quality issues were recorded.
func (c *CaseRecord) HasIssues() bool {
	return len(c.DataQuality) > 0
}

// DocumentCounts holds the number of IDP documents of each type.
type DocumentCounts struct {
	MedicalRecords    int `json:"medical_records"`
	PoliceReports     int `json:"police_reports"`
	InsurancePolicies int `json:"insurance_policies"`
	MedicalBills      int `json:"medical_bills"`
}

// Total returns the number of documents of all types.
func (d DocumentCounts) Total() int {
	return d.MedicalRecords + d.PoliceReports + d.InsurancePolicies + d.MedicalBills
}

// DataIssue is an inconsistency between documents of the same case.
type DataIssue struct {
	Section string `json:"section"`
	Message string `json:"message"`
}

// TreatmentEntry is one visit in the treatment timeline.
type TreatmentEntry struct {
	Date           string   `json:"date"`
	Provider       string   `json:"provider"`
	Type           string   `json:"type,omitempty"`
	ChiefComplaint string   `json:"chief_complaint,omitempty"`
	Treatments     []string `json:"treatments,omitempty"`
	Referrals      []string `json:"referrals,omitempty"`
}

// Provider is a treating or billing medical provider.
type Provider struct {
	Name              string `json:"name"`
	Address           string `json:"address,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Type              string `json:"type,omitempty"`
	TreatingPhysician string `json:"treating_physician,omitempty"`
	NPI               string `json:"npi,omitempty"`
}
