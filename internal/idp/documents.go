package idp

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/nao1215/picase/internal/model"
)

// DocumentType is the IDP classification of a source document.
type DocumentType string

// Document types produced by the IDP pipeline.
const (
	TypeMedicalRecords  DocumentType = "MEDICAL_RECORDS"
	TypePoliceReport    DocumentType = "POLICE_REPORT"
	TypeInsurancePolicy DocumentType = "INSURANCE_POLICY"
	TypeMedicalBills    DocumentType = "MEDICAL_BILLS"
)

// ParseDocumentType returns the document type named by a directory, if any.
func ParseDocumentType(name string) (DocumentType, bool) {
	switch t := DocumentType(name); t {
	case TypeMedicalRecords, TypePoliceReport, TypeInsurancePolicy, TypeMedicalBills:
		return t, true
	default:
		return "", false
	}
}

// Documents holds every document loaded for one case.
type Documents struct {
	// CaseID is the case folder name.
	CaseID string
	// Dir is the case folder path.
	Dir string

	MedicalRecords []MedicalRecord
	PoliceReports  []PoliceReport
	Policies       []InsurancePolicy
	Bills          []MedicalBill

	// Sources lists the files read, in load order.
	Sources []string
}

// Count returns the number of loaded documents.
func (d *Documents) Count() int {
	return len(d.MedicalRecords) + len(d.PoliceReports) + len(d.Policies) + len(d.Bills)
}

// PoliceReport returns the first police report, or nil.
func (d *Documents) PoliceReport() *PoliceReport {
	if len(d.PoliceReports) == 0 {
		return nil
	}
	return &d.PoliceReports[0]
}

// ---------------------------------------------------------------------------
// Medical records

// MedicalRecord is an extracted medical record. Two schemas are in use: the
// snake_case schema (patient_info, diagnoses) and the camelCase structured
// schema (patientName, assessment, diagnosticImaging). Both decode into this
// type; accessors hide the difference.
type MedicalRecord struct {
	DocumentInfo      DocumentInfo          `json:"document_info"`
	PatientInfo       PatientInfo           `json:"patient_info"`
	ProviderInfo      ProviderInfo          `json:"provider_info"`
	ChiefComplaint    Text                  `json:"chief_complaint"`
	Diagnoses         []DiagnosisEntry      `json:"diagnoses"`
	TreatmentProvided []Described           `json:"treatment_provided"`
	Referrals         []Referral            `json:"referrals"`
	ImagingFindings   []ImagingFinding      `json:"imaging_findings"`
	Functional        FunctionalLimitations `json:"functional_limitations"`
	Prognosis         Text                  `json:"prognosis"`
	Plan              StringList            `json:"plan"`
	Indicators        InjuryIndicators      `json:"ny_serious_injury_indicators"`

	PatientName         Text            `json:"patientName"`
	DateOfBirth         Text            `json:"dateOfBirth"`
	MedicalRecordNumber Text            `json:"medicalRecordNumber"`
	Assessment          []Assessment    `json:"assessment"`
	DiagnosticImaging   map[string]Text `json:"diagnosticImaging"`
}

// DocumentInfo describes the visit a medical record belongs to.
type DocumentInfo struct {
	DateOfService   Text `json:"date_of_service"`
	FacilityName    Text `json:"facility_name"`
	FacilityAddress Text `json:"facility_address"`
	FacilityPhone   Text `json:"facility_phone"`
	RecordType      Text `json:"record_type"`
}

// PatientInfo identifies the patient in the snake_case schema.
type PatientInfo struct {
	Name                Text `json:"name"`
	DateOfBirth         Text `json:"date_of_birth"`
	AgeAtVisit          Text `json:"age_at_visit"`
	MedicalRecordNumber Text `json:"medical_record_number"`
}

// ProviderInfo names the treating physician.
type ProviderInfo struct {
	Name Text `json:"name"`
}

// DiagnosisEntry is a diagnosis in the snake_case schema.
type DiagnosisEntry struct {
	Description Text `json:"description"`
	ICDCode     Text `json:"icd_code"`
	BodyPart    Text `json:"body_part"`
	IsPrimary   Flag `json:"is_primary"`
}

// Assessment is a diagnosis in the camelCase schema.
type Assessment struct {
	Diagnosis Text `json:"diagnosis"`
	ICD10Code Text `json:"icd10Code"`
}

// Described is any entry carrying only a description.
type Described struct {
	Description Text `json:"description"`
}

// Referral is a referral to a specialist.
type Referral struct {
	Specialty Text `json:"specialty"`
}

// ImagingFinding is the result of one imaging study.
type ImagingFinding struct {
	Study    Text `json:"study"`
	Findings Text `json:"findings"`
}

// FunctionalLimitations holds work and activity restrictions.
type FunctionalLimitations struct {
	WorkRestrictions StringList `json:"work_restrictions"`
}

// InjuryIndicators are the pre-computed serious injury flags.
type InjuryIndicators struct {
	PermanentConsequentialLimitation Flag       `json:"permanent_consequential_limitation"`
	SignificantLimitationOfUse       Flag       `json:"significant_limitation_of_use"`
	PermanentLossOfUse               Flag       `json:"permanent_loss_of_use"`
	Fracture                         Flag       `json:"fracture"`
	SignificantDisfigurement         Flag       `json:"significant_disfigurement"`
	NinetyOneEightyDisability        Flag       `json:"ninety_one_eighty_disability"`
	SupportingLanguage               StringList `json:"supporting_language"`
}

// Categories returns the serious injury categories whose flag is set.
func (i InjuryIndicators) Categories() []model.ThresholdCategory {
	var out []model.ThresholdCategory
	if i.PermanentConsequentialLimitation {
		out = append(out, model.CategoryPermanentConsequential)
	}
	if i.PermanentLossOfUse {
		out = append(out, model.CategoryPermanentLoss)
	}
	if i.SignificantLimitationOfUse {
		out = append(out, model.CategorySignificantLimitation)
	}
	if i.Fracture {
		out = append(out, model.CategoryFracture)
	}
	if i.SignificantDisfigurement {
		out = append(out, model.CategoryDisfigurement)
	}
	if i.NinetyOneEightyDisability {
		out = append(out, model.CategoryNinetyOneEighty)
	}
	return out
}

// Structured reports whether the record uses the camelCase schema.
func (r MedicalRecord) Structured() bool {
	return r.PatientName != "" || len(r.Assessment) > 0 || len(r.DiagnosticImaging) > 0
}

// Patient returns the patient name, date of birth and medical record number
// from whichever schema the record uses.
func (r MedicalRecord) Patient() (name, dob, mrn string) {
	if r.PatientName != "" {
		return string(r.PatientName), string(r.DateOfBirth), string(r.MedicalRecordNumber)
	}
	p := r.PatientInfo
	return string(p.Name), string(p.DateOfBirth), string(p.MedicalRecordNumber)
}

// AllDiagnoses returns the record's diagnoses from whichever schema it uses.
func (r MedicalRecord) AllDiagnoses() []model.Diagnosis {
	out := make([]model.Diagnosis, 0, len(r.Diagnoses)+len(r.Assessment))
	for _, d := range r.Diagnoses {
		out = append(out, model.Diagnosis{
			Description: string(d.Description),
			ICDCode:     string(d.ICDCode),
			BodyPart:    string(d.BodyPart),
			Primary:     bool(d.IsPrimary),
		})
	}
	for _, a := range r.Assessment {
		out = append(out, model.Diagnosis{
			Description: string(a.Diagnosis),
			ICDCode:     string(a.ICD10Code),
		})
	}
	return out
}

// Imaging returns "study: finding" strings from either schema.
func (r MedicalRecord) Imaging() []string {
	out := make([]string, 0, len(r.ImagingFindings)+len(r.DiagnosticImaging))
	for _, f := range r.ImagingFindings {
		out = append(out, joinStudy(string(f.Study), string(f.Findings)))
	}
	studies := make([]string, 0, len(r.DiagnosticImaging))
	for study := range r.DiagnosticImaging {
		studies = append(studies, study)
	}
	sort.Strings(studies)
	for _, study := range studies {
		if finding := r.DiagnosticImaging[study]; finding != "" {
			out = append(out, joinStudy(study, string(finding)))
		}
	}
	return out
}

func joinStudy(study, finding string) string {
	switch {
	case finding == "":
		return ""
	case study == "":
		return finding
	default:
		return study + ": " + finding
	}
}

// ---------------------------------------------------------------------------
// Police reports

// PoliceReport is an extracted MV-104 police accident report.
type PoliceReport struct {
	ReportInfo      ReportInfo      `json:"report_info"`
	AccidentDetails AccidentDetails `json:"accident_details"`
	Drivers         []Driver        `json:"drivers"`
	Vehicles        []VehicleEntry  `json:"vehicles"`
	Narrative       Text            `json:"narrative"`
	FaultIndicators FaultIndicators `json:"fault_indicators"`
	Witnesses       []WitnessEntry  `json:"witnesses"`
	DiagramPresent  Flag            `json:"diagram_present"`
	PhotosTaken     Flag            `json:"photos_taken"`
}

// ReportInfo identifies the police report.
type ReportInfo struct {
	ReportNumber Text `json:"report_number"`
	Precinct     Text `json:"precinct"`
	DatePrepared Text `json:"date_prepared"`
}

// AccidentDetails describes when and where the accident happened.
type AccidentDetails struct {
	Date              Text     `json:"date"`
	Time              Text     `json:"time"`
	Location          Location `json:"location"`
	WeatherConditions Text     `json:"weather_conditions"`
	RoadConditions    Text     `json:"road_conditions"`
}

// Location is the accident location. Some reports give a plain string,
// which is kept in StreetAddress.
type Location struct {
	StreetAddress Text `json:"street_address"`
	CrossStreet   Text `json:"cross_street"`
	Borough       Text `json:"borough"`
	County        Text `json:"county"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type plain Location
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*l = Location(p)
		return nil
	}
	var t Text
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	*l = Location{StreetAddress: t}
	return nil
}

// Driver is a driver listed on the police report.
type Driver struct {
	VehicleNumber Text `json:"vehicle_number"`
	Name          Text `json:"name"`
	Address       Text `json:"address"`
	Phone         Text `json:"phone"`
	DateOfBirth   Text `json:"date_of_birth"`
	LicenseNumber Text `json:"license_number"`
}

// VehicleEntry is a vehicle listed on the police report.
type VehicleEntry struct {
	VehicleNumber   Text       `json:"vehicle_number"`
	Year            Text       `json:"year"`
	Make            Text       `json:"make"`
	Model           Text       `json:"model"`
	LicensePlate    Text       `json:"license_plate"`
	RegisteredOwner Owner      `json:"registered_owner"`
	Insurance       VehicleIns `json:"insurance"`
}

// Owner is the registered owner of a vehicle.
type Owner struct {
	Name    Text `json:"name"`
	Address Text `json:"address"`
}

// VehicleIns is the insurance listed for a vehicle.
type VehicleIns struct {
	Company      Text `json:"company"`
	PolicyNumber Text `json:"policy_number"`
}

// FaultIndicators are the officer's fault findings.
type FaultIndicators struct {
	FaultDetermination  Text        `json:"fault_determination"`
	ApparentFault       Text        `json:"apparent_fault"`
	ContributingFactors StringList  `json:"contributing_factors"`
	ViolationsCited     []Violation `json:"violations_cited"`
}

// Violation is a Vehicle and Traffic Law citation.
type Violation struct {
	VTLSection  Text `json:"vtl_section"`
	Description Text `json:"description"`
}

// String returns "VTL 1111(d)(1) - Failure to stop at red signal".
func (v Violation) String() string {
	switch {
	case v.VTLSection == "" && v.Description == "":
		return ""
	case v.VTLSection == "":
		return string(v.Description)
	case v.Description == "":
		return "VTL " + string(v.VTLSection)
	default:
		return "VTL " + string(v.VTLSection) + " - " + string(v.Description)
	}
}

// WitnessEntry is a witness listed on the police report.
type WitnessEntry struct {
	Name             Text `json:"name"`
	StatementSummary Text `json:"statement_summary"`
	Phone            Text `json:"phone"`
}

// Driver returns the driver of the given vehicle number, or nil.
func (p *PoliceReport) Driver(vehicle int) *Driver {
	for i := range p.Drivers {
		if vehicleIs(p.Drivers[i].VehicleNumber, vehicle) {
			return &p.Drivers[i]
		}
	}
	return nil
}

// Vehicle returns the vehicle with the given number, or nil.
func (p *PoliceReport) Vehicle(vehicle int) *VehicleEntry {
	for i := range p.Vehicles {
		if vehicleIs(p.Vehicles[i].VehicleNumber, vehicle) {
			return &p.Vehicles[i]
		}
	}
	return nil
}

func vehicleIs(t Text, n int) bool {
	v, err := strconv.ParseFloat(string(t), 64)
	return err == nil && int(v) == n
}

// ---------------------------------------------------------------------------
// Insurance policies

// InsurancePolicy is an extracted auto insurance declarations page.
type InsurancePolicy struct {
	PolicyInfo   PolicyInfo   `json:"policy_info"`
	NamedInsured Owner        `json:"named_insured"`
	Coverages    Coverages    `json:"coverages"`
	ClaimsInfo   ClaimsInfo   `json:"claims_info"`
	Analysis     PolicyReview `json:"liability_analysis"`
}

// PolicyInfo identifies the policy.
type PolicyInfo struct {
	PolicyNumber     Text `json:"policy_number"`
	PolicyType       Text `json:"policy_type"`
	InsuranceCompany Text `json:"insurance_company"`
}

// ClaimsInfo holds the claim opened under the policy.
type ClaimsInfo struct {
	ClaimNumber Text `json:"claim_number"`
}

// PolicyReview holds the IDP pipeline's own review of the policy.
type PolicyReview struct {
	MeetsNYMinimum Flag `json:"meets_ny_minimum"`
}

// Coverages lists the limits per coverage type.
type Coverages struct {
	BodilyInjury Limits      `json:"bodily_injury_liability"`
	PIP          PIPCoverage `json:"personal_injury_protection_no_fault"`
	Uninsured    UMCoverage  `json:"uninsured_motorist"`
	Underinsured Limits      `json:"underinsured_motorist_sum"`
}

// Limits is a per-person / per-accident pair.
type Limits struct {
	PerPerson   model.Money `json:"per_person"`
	PerAccident model.Money `json:"per_accident"`
}

// PIPCoverage is New York no-fault coverage.
type PIPCoverage struct {
	BasicPIP      model.Money `json:"basic_pip"`
	AdditionalPIP model.Money `json:"additional_pip"`
	OBEL          model.Money `json:"obel"`
}

// UMCoverage is uninsured motorist coverage.
type UMCoverage struct {
	BodilyInjuryPerPerson model.Money `json:"bodily_injury_per_person"`
}

// ---------------------------------------------------------------------------
// Medical bills

// MedicalBill is an extracted itemized bill.
type MedicalBill struct {
	BillingProvider  BillingProvider `json:"billing_provider"`
	BillingSummary   BillingSummary  `json:"billing_summary"`
	PaymentsReceived []Payment       `json:"payments_received"`
	LineItems        []BillLine      `json:"line_items"`
	LienInfo         LienInfo        `json:"lien_info"`
	TreatmentSummary Charges         `json:"treatment_summary"`
}

// BillingProvider is the provider issuing the bill.
type BillingProvider struct {
	Name         Text `json:"name"`
	Address      Text `json:"address"`
	Phone        Text `json:"phone"`
	ProviderType Text `json:"provider_type"`
	NPI          Text `json:"npi"`
}

// BillingSummary holds the bill totals.
type BillingSummary struct {
	TotalCharges     model.Money `json:"total_charges"`
	TotalPayments    model.Money `json:"total_payments"`
	TotalAdjustments model.Money `json:"total_adjustments"`
	BalanceDue       model.Money `json:"balance_due"`
}

// Payment is a payment received against the bill.
type Payment struct {
	PaymentType Text        `json:"payment_type"`
	Payer       Text        `json:"payer"`
	Amount      model.Money `json:"amount"`
}

// BillLine is one billed procedure.
type BillLine struct {
	DateOfService Text        `json:"date_of_service"`
	CPTCode       Text        `json:"cpt_code"`
	Description   Text        `json:"description"`
	TotalCharge   model.Money `json:"total_charge"`
}

// LienInfo describes a lien filed by the provider.
type LienInfo struct {
	LienFiled  Flag        `json:"lien_filed"`
	LienHolder Text        `json:"lien_holder"`
	LienAmount model.Money `json:"lien_amount"`
}
