package model

import "sort"

// NoFaultBasicLimit is the New York basic personal injury protection limit.
const NoFaultBasicLimit Money = 50000 * 100

// MedicalBills summarizes every medical bill in a case.
type MedicalBills struct {
	// Providers is the sorted set of billing provider names.
	Providers []string `json:"providers"`

	TotalBilled      Money `json:"total_charges"`
	TotalPaid        Money `json:"total_paid"`
	TotalAdjustments Money `json:"total_adjustments"`
	TotalOutstanding Money `json:"total_owed"`

	Liens []Lien `json:"liens"`

	// ProcedureCodes is the sorted set of CPT codes.
	ProcedureCodes []string `json:"cpt_codes"`

	LineItems []LineItem `json:"line_items,omitempty"`

	// NoFaultPaid is the sum of payments made under no-fault (PIP).
	NoFaultPaid Money `json:"total_paid_by_no_fault"`

	// NoFaultRemaining is what is left of NoFaultBasicLimit.
	NoFaultRemaining Money `json:"no_fault_remaining"`

	// CategoryBreakdown sums charges by treatment category.
	CategoryBreakdown []CategoryAmount `json:"breakdown_by_category,omitempty"`
}

// Lien is a medical lien, either filed or potential.
type Lien struct {
	Provider string `json:"provider"`
	Amount   Money  `json:"amount"`
	Filed    bool   `json:"filed"`
}

// LineItem is one billed procedure.
type LineItem struct {
	Date        string `json:"date"`
	CPT         string `json:"cpt"`
	Description string `json:"description"`
	Charge      Money  `json:"charge"`
}

// CategoryAmount is the total charged for one treatment category.
type CategoryAmount struct {
	Category string `json:"category"`
	Amount   Money  `json:"amount"`
}

// Populated reports whether all four totals are non-zero.
func (b MedicalBills) Populated() bool {
	return !b.TotalBilled.IsZero() && !b.TotalPaid.IsZero() &&
		!b.TotalAdjustments.IsZero() && !b.TotalOutstanding.IsZero()
}

// Reconciles reports whether billed = paid + adjustments + outstanding.
// Bills with an unpopulated total always reconcile.
func (b MedicalBills) Reconciles() bool {
	if !b.Populated() {
		return true
	}
	return b.TotalBilled == Sum(b.TotalPaid, b.TotalAdjustments, b.TotalOutstanding)
}

// Discrepancy returns billed - (paid + adjustments + outstanding).
func (b MedicalBills) Discrepancy() Money {
	return b.TotalBilled - Sum(b.TotalPaid, b.TotalAdjustments, b.TotalOutstanding)
}

// LienTotal sums the amounts of all liens.
func (b MedicalBills) LienTotal() Money {
	var total Money
	for _, l := range b.Liens {
		total += l.Amount
	}
	return total
}

// FiledLienTotal sums the amounts of filed liens only.
func (b MedicalBills) FiledLienTotal() Money {
	var total Money
	for _, l := range b.Liens {
		if l.Filed {
			total += l.Amount
		}
	}
	return total
}

// IsZero reports whether no bill was found.
func (b MedicalBills) IsZero() bool {
	return len(b.Providers) == 0 && b.TotalBilled.IsZero() && len(b.LineItems) == 0
}

// SortCategories orders a category breakdown by name.
func SortCategories(c []CategoryAmount) {
	sort.Slice(c, func(i, j int) bool { return c[i].Category < c[j].Category })
}
