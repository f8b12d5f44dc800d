package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/nao1215/picase/internal/idp"
	"github.com/nao1215/picase/internal/model"
)

// bodyPartKeywords maps diagnosis keywords to body parts for records that
// do not name the body part explicitly.
var bodyPartKeywords = []struct {
	keyword  string
	bodyPart string
}{
	{"cervical", "Cervical Spine (Neck)"},
	{"lumbar", "Lumbar Spine (Lower Back)"},
	{"thoracic", "Thoracic Spine (Mid Back)"},
	{"shoulder", "Shoulder"},
	{"ac joint", "Shoulder"},
	{"knee", "Knee"},
	{"head", "Head"},
}

// InjuriesStep consolidates diagnoses, imaging, restrictions and the
// treatment timeline from every medical record.
type InjuriesStep struct{}

// Name returns the step name.
func (s *InjuriesStep) Name() string {
	return "injuries"
}

// Do executes the step.
func (s *InjuriesStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	var (
		diagnoses    []string
		icdCodes     []string
		bodyParts    []string
		imaging      []string
		plan         []string
		restrictions []string
		primary      []model.Diagnosis
		prognosis    string
	)
	seenPrimary := make(map[string]struct{})

	for _, r := range docs.MedicalRecords {
		for _, d := range r.AllDiagnoses() {
			diagnoses = append(diagnoses, d.Description)
			icdCodes = append(icdCodes, d.ICDCode)
			if d.BodyPart != "" {
				bodyParts = append(bodyParts, d.BodyPart)
			} else {
				bodyParts = append(bodyParts, inferBodyParts(d.Description)...)
			}
			if d.Primary {
				key := d.Description + "|" + d.ICDCode
				if _, ok := seenPrimary[key]; !ok {
					seenPrimary[key] = struct{}{}
					primary = append(primary, d)
				}
			}
		}

		imaging = append(imaging, r.Imaging()...)
		plan = append(plan, r.Plan...)
		restrictions = append(restrictions, r.Functional.WorkRestrictions...)
		for _, item := range r.Plan {
			if containsFold(item, "no work") {
				restrictions = append(restrictions, item)
			}
		}
		// Records are read oldest first by file name; the latest prognosis wins.
		if p := strings.TrimSpace(string(r.Prognosis)); p != "" {
			prognosis = p
		}
	}

	record.Injuries = model.Injuries{
		BodyParts:        model.SortedSet(bodyParts...),
		Diagnoses:        model.OrderedSet(diagnoses...),
		PrimaryDiagnoses: primary,
		ICDCodes:         model.SortedSet(icdCodes...),
		ImagingFindings:  model.SortedSet(imaging...),
		TreatmentPlan:    model.OrderedSet(plan...),
		WorkRestrictions: strings.Join(model.OrderedSet(restrictions...), "; "),
		Prognosis:        prognosis,
	}

	record.TreatmentTimeline = buildTimeline(docs.MedicalRecords)
	record.Providers = collectProviders(docs)
	return nil
}

func inferBodyParts(diagnosis string) []string {
	var out []string
	for _, k := range bodyPartKeywords {
		if containsFold(diagnosis, k.keyword) {
			out = append(out, k.bodyPart)
		}
	}
	return out
}

// buildTimeline lists visits in date order. Undated visits go last.
func buildTimeline(records []idp.MedicalRecord) []model.TreatmentEntry {
	timeline := make([]model.TreatmentEntry, 0, len(records))
	for _, r := range records {
		info := r.DocumentInfo
		if info.DateOfService == "" && info.FacilityName == "" {
			continue
		}
		treatments := make([]string, 0, len(r.TreatmentProvided))
		for _, t := range r.TreatmentProvided {
			treatments = append(treatments, string(t.Description))
		}
		referrals := make([]string, 0, len(r.Referrals))
		for _, ref := range r.Referrals {
			referrals = append(referrals, string(ref.Specialty))
		}
		timeline = append(timeline, model.TreatmentEntry{
			Date:           string(info.DateOfService),
			Provider:       string(info.FacilityName),
			Type:           string(info.RecordType),
			ChiefComplaint: string(r.ChiefComplaint),
			Treatments:     model.OrderedSet(treatments...),
			Referrals:      model.OrderedSet(referrals...),
		})
	}

	sort.SliceStable(timeline, func(i, j int) bool {
		ti, okI := parseDate(timeline[i].Date)
		tj, okJ := parseDate(timeline[j].Date)
		switch {
		case okI && okJ:
			return ti.Before(tj)
		case okI != okJ:
			return okI
		default:
			return false
		}
	})
	return timeline
}

// collectProviders lists treating facilities followed by billing providers
// not already seen.
func collectProviders(docs *idp.Documents) []model.Provider {
	var providers []model.Provider
	seen := make(map[string]struct{})

	for _, r := range docs.MedicalRecords {
		info := r.DocumentInfo
		name := string(info.FacilityName)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		providers = append(providers, model.Provider{
			Name:              name,
			Address:           string(info.FacilityAddress),
			Phone:             string(info.FacilityPhone),
			Type:              string(info.RecordType),
			TreatingPhysician: string(r.ProviderInfo.Name),
		})
	}

	for _, b := range docs.Bills {
		bp := b.BillingProvider
		name := string(bp.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		providers = append(providers, model.Provider{
			Name:    name,
			Address: string(bp.Address),
			Phone:   string(bp.Phone),
			Type:    string(bp.ProviderType),
			NPI:     string(bp.NPI),
		})
	}
	return providers
}

// BillsStep totals the medical bills, liens and no-fault payments.
type BillsStep struct{}

// Name returns the step name.
func (s *BillsStep) Name() string {
	return "bills"
}

// Do executes the step.
func (s *BillsStep) Do(_ context.Context, docs *idp.Documents, record *model.CaseRecord) error {
	var (
		bills     model.MedicalBills
		providers []string
		cpt       []string
	)
	categories := make(map[string]model.Money)

	for _, b := range docs.Bills {
		provider := string(b.BillingProvider.Name)
		providers = append(providers, provider)

		summary := b.BillingSummary
		bills.TotalBilled += summary.TotalCharges
		bills.TotalPaid += summary.TotalPayments
		bills.TotalAdjustments += summary.TotalAdjustments
		bills.TotalOutstanding += summary.BalanceDue

		for _, item := range b.LineItems {
			cpt = append(cpt, string(item.CPTCode))
			bills.LineItems = append(bills.LineItems, model.LineItem{
				Date:        string(item.DateOfService),
				CPT:         string(item.CPTCode),
				Description: string(item.Description),
				Charge:      item.TotalCharge,
			})
		}

		for _, payment := range b.PaymentsReceived {
			if isNoFault(string(payment.PaymentType)) {
				bills.NoFaultPaid += payment.Amount
			}
		}

		// A filed lien is taken as stated; otherwise this bill's own balance
		// is a potential lien.
		switch lien := b.LienInfo; {
		case bool(lien.LienFiled):
			amount := lien.LienAmount
			if amount.IsZero() {
				amount = summary.BalanceDue
			}
			bills.Liens = append(bills.Liens, model.Lien{
				Provider: firstNonEmpty(string(lien.LienHolder), provider),
				Amount:   amount,
				Filed:    true,
			})
		case summary.BalanceDue > 0:
			bills.Liens = append(bills.Liens, model.Lien{
				Provider: provider,
				Amount:   summary.BalanceDue,
			})
		}

		for _, key := range b.TreatmentSummary.Keys() {
			categories[categoryLabel(key)] += b.TreatmentSummary[key]
		}
	}

	bills.Providers = model.SortedSet(providers...)
	bills.ProcedureCodes = model.SortedSet(cpt...)

	bills.NoFaultRemaining = model.NoFaultBasicLimit - bills.NoFaultPaid
	if bills.NoFaultRemaining < 0 {
		bills.NoFaultRemaining = 0
	}

	for category, amount := range categories {
		bills.CategoryBreakdown = append(bills.CategoryBreakdown, model.CategoryAmount{
			Category: category,
			Amount:   amount,
		})
	}
	model.SortCategories(bills.CategoryBreakdown)

	record.Bills = bills
	return nil
}

func isNoFault(paymentType string) bool {
	return containsFold(paymentType, "no-fault") || containsFold(paymentType, "no fault") ||
		containsFold(paymentType, "pip")
}
