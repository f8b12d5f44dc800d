package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/picase/internal/model"
)

// generatedLayout is how the generation time is printed.
const generatedLayout = "2006-01-02 15:04:05"

// MarkdownWriter outputs the case summary in Markdown format.
// Sections follow a fixed order; a section with no data renders a short
// "not documented" line, and empty fields inside a section are skipped.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the case summary in Markdown format.
func (w *MarkdownWriter) Write(record *model.CaseRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, record)
	w.writeDocuments(md, record)
	w.writeParties(md, record)
	w.writeAccident(md, record)
	w.writeInjuries(md, record)
	w.writeTreatment(md, record)
	w.writeBills(md, record)
	w.writeCoverage(md, record)
	w.writeLiability(md, record)
	w.writeThreshold(md, record)
	w.writeDataQuality(md, record)
	w.writeActions(md, record)
	w.writeValue(md, record)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and case identification.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, record *model.CaseRecord) {
	md.H1("NY Personal Injury Case Summary")
	md.H2("Case ID: " + Inline(record.CaseID))
	md.PlainText("")

	lines := []string{}
	if !record.GeneratedAt.IsZero() {
		lines = append(lines, "Generated: "+record.GeneratedAt.Format(generatedLayout))
	}
	if record.ReportID != "" {
		lines = append(lines, "Report ID: "+Inline(record.ReportID))
	}
	if record.ExtractionType != "" {
		lines = append(lines, "Extraction Type: "+Inline(record.ExtractionType))
	}
	if len(lines) > 0 {
		// Two trailing spaces keep each line on its own row.
		md.PlainText(strings.Join(lines, "  \n"))
		md.PlainText("")
	}
	section(md)
}

func (w *MarkdownWriter) writeDocuments(md *markdown.Markdown, record *model.CaseRecord) {
	counts := record.DocumentCounts
	if counts.Total() == 0 {
		return
	}

	md.H2("Document Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Document Type", "Count"},
		Rows: [][]string{
			{"Medical Records", strconv.Itoa(counts.MedicalRecords)},
			{"Police Reports", strconv.Itoa(counts.PoliceReports)},
			{"Insurance Policies", strconv.Itoa(counts.InsurancePolicies)},
			{"Medical Bills", strconv.Itoa(counts.MedicalBills)},
			{"**Total**", "**" + strconv.Itoa(counts.Total()) + "**"},
		},
	})
	md.PlainText("")
	section(md)
}

func (w *MarkdownWriter) writeParties(md *markdown.Markdown, record *model.CaseRecord) {
	p := record.Plaintiff
	md.H2("Plaintiff Information")
	md.PlainText("")
	age := ""
	if p.AgeAtAccident > 0 {
		age = strconv.Itoa(p.AgeAtAccident)
	}
	fieldList(md, "No plaintiff information documented.",
		field{"Name", p.Name},
		field{"Date of Birth", p.DateOfBirth},
		field{"Age at Accident", age},
		field{"Address", p.Address},
		field{"Phone", p.Phone},
		field{"Medical Record #", p.MRN},
		field{"License", p.License},
	)

	d := record.Defendant
	md.H2("Defendant (At-Fault Party)")
	md.PlainText("")
	insurance := ""
	if !d.Insurance.IsZero() {
		insurance = d.Insurance.String()
		if d.Insurance.ClaimNumber != "" {
			insurance += " (Claim #" + d.Insurance.ClaimNumber + ")"
		}
	}
	fieldList(md, "No defendant information documented.",
		field{"Name", d.Name},
		field{"Address", d.Address},
		field{"Phone", d.Phone},
		field{"License", d.License},
		field{"Employer / Registered Owner", d.Employer},
		field{"Employer Address", d.EmployerAddress},
		field{"Vehicle", d.Vehicle.String()},
		field{"Plate", d.Vehicle.Plate},
		field{"Insurance", insurance},
	)
	if len(d.Violations) > 0 {
		md.PlainText("**Violations Issued:**")
		md.PlainText("")
		md.BulletList(inlineAll(d.Violations)...)
		md.PlainText("")
	}
	if len(d.ContributingFactors) > 0 {
		md.PlainText("**Contributing Factors:**")
		md.PlainText("")
		md.BulletList(inlineAll(d.ContributingFactors)...)
		md.PlainText("")
	}
	section(md)
}

func (w *MarkdownWriter) writeAccident(md *markdown.Markdown, record *model.CaseRecord) {
	a := record.Accident
	md.H2("Accident Details")
	md.PlainText("")
	fieldList(md, "No accident details documented.",
		field{"Date", a.Date},
		field{"Time", a.Time},
		field{"Location", a.Location},
		field{"Weather", a.Weather},
		field{"Road Conditions", a.RoadConditions},
		field{"Report Number", a.ReportNumber},
		field{"Precinct", a.Precinct},
	)
	if a.Narrative != "" {
		md.PlainText("**Narrative:**")
		md.PlainText("")
		md.PlainText(Inline(a.Narrative))
		md.PlainText("")
	}
	section(md)
}

func (w *MarkdownWriter) writeInjuries(md *markdown.Markdown, record *model.CaseRecord) {
	i := record.Injuries
	md.H2("Injuries & Diagnoses")
	md.PlainText("")
	if i.IsZero() {
		md.PlainText("No injuries documented.")
		md.PlainText("")
		section(md)
		return
	}

	list(md, "Body Parts Affected", i.BodyParts)
	list(md, "Diagnoses", i.Diagnoses)
	if len(i.PrimaryDiagnoses) > 0 {
		labels := make([]string, 0, len(i.PrimaryDiagnoses))
		for _, d := range i.PrimaryDiagnoses {
			labels = append(labels, d.Label())
		}
		list(md, "Primary Diagnoses", labels)
	}
	if len(i.ICDCodes) > 0 {
		codes := make([]string, 0, len(i.ICDCodes))
		for _, c := range i.ICDCodes {
			codes = append(codes, "`"+Inline(c)+"`")
		}
		list(md, "ICD-10 Codes", codes)
	}
	list(md, "Imaging Findings", i.ImagingFindings)
	list(md, "Treatment Plan", i.TreatmentPlan)

	md.H3("Work Restrictions")
	md.PlainText("")
	md.PlainText(Inline(orDefault(i.WorkRestrictions, "None documented")))
	md.PlainText("")

	md.H3("Prognosis")
	md.PlainText("")
	md.PlainText(Inline(orDefault(i.Prognosis, "Not documented")))
	md.PlainText("")
	section(md)
}

// writeTreatment writes the treatment timeline and provider directory.
// Both are skipped when empty.
func (w *MarkdownWriter) writeTreatment(md *markdown.Markdown, record *model.CaseRecord) {
	if len(record.TreatmentTimeline) == 0 && len(record.Providers) == 0 {
		return
	}

	md.H2("Treatment")
	md.PlainText("")

	if len(record.TreatmentTimeline) > 0 {
		md.H3("Treatment Timeline")
		md.PlainText("")
		rows := make([][]string, 0, len(record.TreatmentTimeline))
		for _, e := range record.TreatmentTimeline {
			rows = append(rows, cells(e.Date, e.Provider, e.Type, e.ChiefComplaint))
		}
		md.Table(markdown.TableSet{
			Header: []string{"Date", "Provider", "Visit Type", "Chief Complaint"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(record.Providers) > 0 {
		md.H3("Medical Providers")
		md.PlainText("")
		rows := make([][]string, 0, len(record.Providers))
		for _, p := range record.Providers {
			rows = append(rows, cells(p.Name, p.Type, p.TreatingPhysician, p.Phone))
		}
		md.Table(markdown.TableSet{
			Header: []string{"Provider", "Type", "Treating Physician", "Phone"},
			Rows:   rows,
		})
		md.PlainText("")
	}
	section(md)
}

func (w *MarkdownWriter) writeBills(md *markdown.Markdown, record *model.CaseRecord) {
	b := record.Bills
	md.H2("Medical Bills & Special Damages")
	md.PlainText("")
	if b.IsZero() {
		md.PlainText("No medical bills documented.")
		md.PlainText("")
		section(md)
		return
	}

	amountTable(md, "Category",
		amountRow{label: "Total Billed", amount: b.TotalBilled},
		amountRow{label: "Paid by Insurance", amount: b.TotalPaid},
		amountRow{label: "Adjustments", amount: b.TotalAdjustments},
		amountRow{label: "Outstanding Balance", amount: b.TotalOutstanding},
		amountRow{label: "Paid by No-Fault", amount: b.NoFaultPaid},
		amountRow{label: "No-Fault Remaining", amount: b.NoFaultRemaining},
	)

	list(md, "Providers", b.Providers)

	if len(b.Liens) > 0 {
		liens := make([]string, 0, len(b.Liens))
		for _, l := range b.Liens {
			status := "potential"
			if l.Filed {
				status = "filed"
			}
			liens = append(liens, fmt.Sprintf("%s: %s (%s)", Inline(l.Provider), l.Amount, status))
		}
		list(md, "Medical Liens", liens)
	}

	if len(b.ProcedureCodes) > 0 {
		codes := make([]string, 0, len(b.ProcedureCodes))
		for _, c := range b.ProcedureCodes {
			codes = append(codes, "`"+Inline(c)+"`")
		}
		md.H3("CPT Codes")
		md.PlainText("")
		md.PlainText(strings.Join(codes, ", "))
		md.PlainText("")
	}

	if len(b.CategoryBreakdown) > 0 {
		md.H3("Charges by Category")
		md.PlainText("")
		rows := make([][]string, 0, len(b.CategoryBreakdown))
		for _, c := range b.CategoryBreakdown {
			rows = append(rows, cells(c.Category, c.Amount.String()))
		}
		md.Table(markdown.TableSet{Header: []string{"Category", "Amount"}, Rows: rows})
		md.PlainText("")
	}

	if len(b.LineItems) > 0 {
		md.H3("Itemized Charges")
		md.PlainText("")
		rows := make([][]string, 0, len(b.LineItems))
		for _, item := range b.LineItems {
			rows = append(rows, cells(item.Date, item.CPT, item.Description, item.Charge.String()))
		}
		md.Table(markdown.TableSet{
			Header: []string{"Date", "CPT", "Description", "Charge"},
			Rows:   rows,
		})
		md.PlainText("")
	}
	section(md)
}

func (w *MarkdownWriter) writeCoverage(md *markdown.Markdown, record *model.CaseRecord) {
	c := record.Coverage
	md.H2("Insurance Coverage")
	md.PlainText("")
	if c.IsZero() {
		md.PlainText("No insurance coverage documented.")
		md.PlainText("")
		section(md)
		return
	}

	w.writePolicy(md, "Plaintiff's Policy", c.PlaintiffPolicy)
	w.writePolicy(md, "Defendant's Policy", c.DefendantPolicy)

	if !c.TotalAvailable.IsZero() {
		md.H3("Available Coverage")
		md.PlainText("")
		amountTable(md, "Coverage Type",
			amountRow{label: "PIP Available", amount: c.PIPAvailable},
			amountRow{label: "SUM Available", amount: c.SUMAvailable},
			amountRow{label: "UM Available", amount: c.UMAvailable},
			amountRow{label: "Total Available", amount: c.TotalAvailable, bold: true},
		)
	}

	if c.MeetsNYMinimum {
		md.PlainText("**Meets NY Minimum Limits:** Yes")
	} else {
		md.PlainText("**Meets NY Minimum Limits:** Not established")
	}
	md.PlainText("")
	if c.Analysis != "" {
		md.PlainText("**Coverage Analysis:** " + Inline(c.Analysis))
		md.PlainText("")
	}
	section(md)
}

func (w *MarkdownWriter) writePolicy(md *markdown.Markdown, title string, p *model.Policy) {
	if p == nil {
		return
	}
	if p.Carrier != "" {
		title += " (" + Inline(p.Carrier) + ")"
	}
	md.H3(title)
	md.PlainText("")
	fieldList(md, "No policy details documented.",
		field{"Policy #", p.PolicyNumber},
		field{"Policy Type", p.Type},
		field{"Named Insured", p.NamedInsured},
		field{"Claim #", p.ClaimNumber},
		field{"BI Limits", p.BILimits()},
		field{"PIP", p.PIPLimit()},
		field{"OBEL", wholeOrEmpty(p.OBEL)},
		field{"SUM", p.SUMLimits()},
		field{"UM", wholeOrEmpty(p.UMPerPerson)},
	)
}

func (w *MarkdownWriter) writeLiability(md *markdown.Markdown, record *model.CaseRecord) {
	l := record.Liability
	md.H2("Liability Analysis")
	md.PlainText("")
	if l.IsZero() {
		md.PlainText("No liability information documented.")
		md.PlainText("")
		section(md)
		return
	}

	fieldList(md, "",
		field{"Fault Determination", l.FaultDetermination},
		field{"At-Fault Party", l.AtFaultParty},
		field{"Comparative Fault Risk", l.ComparativeFaultRisk},
	)
	list(md, "Contributing Factors", l.ContributingFactors)
	list(md, "Violations Cited", l.Violations)
	list(md, "Evidence", l.Evidence)

	if len(l.Witnesses) > 0 {
		witnesses := make([]string, 0, len(l.Witnesses))
		for _, wt := range l.Witnesses {
			entry := orDefault(Inline(wt.Name), "Unnamed witness")
			if wt.Summary != "" {
				entry += ": " + Inline(wt.Summary)
			}
			witnesses = append(witnesses, entry)
		}
		list(md, "Witnesses", witnesses)
	}

	if l.Assessment != "" {
		md.PlainText("**Assessment:** " + Inline(l.Assessment))
		md.PlainText("")
	}
	section(md)
}

func (w *MarkdownWriter) writeThreshold(md *markdown.Markdown, record *model.CaseRecord) {
	t := record.Threshold
	md.H2("NY Serious Injury Analysis (Insurance Law 5102(d))")
	md.PlainText("")

	if t.MeetsThreshold {
		md.PlainText("**Meets Threshold:** ✅ YES")
	} else {
		md.PlainText("**Meets Threshold:** ⚠️ NEEDS REVIEW")
	}
	md.PlainText("")
	if t.Strength != "" {
		md.PlainText("**Strength:** " + Inline(t.Strength))
		md.PlainText("")
	}

	md.H3("Threshold Categories Met")
	md.PlainText("")
	if labels := t.Labels(); len(labels) > 0 {
		md.BulletList(labels...)
	} else {
		md.BulletList("None identified")
	}
	md.PlainText("")

	list(md, "Supporting Evidence", t.SupportingEvidence)
	list(md, "Risk Factors", t.RiskFactors)

	if t.Notes != "" {
		md.PlainText("**Notes:** " + Inline(t.Notes))
		md.PlainText("")
	}
	section(md)
}

// writeDataQuality lists inconsistencies between source documents.
// The section is skipped when there are none.
func (w *MarkdownWriter) writeDataQuality(md *markdown.Markdown, record *model.CaseRecord) {
	if !record.HasIssues() {
		return
	}

	md.H2("Data Quality Notes")
	md.PlainText("")
	md.Warningf("%d inconsistencies were found between source documents. Verify before relying on this summary.",
		len(record.DataQuality))
	md.PlainText("")

	issues := make([]string, 0, len(record.DataQuality))
	for _, issue := range record.DataQuality {
		issues = append(issues, fmt.Sprintf("**%s:** %s", Inline(issue.Section), Inline(issue.Message)))
	}
	md.BulletList(issues...)
	md.PlainText("")
	section(md)
}

func (w *MarkdownWriter) writeActions(md *markdown.Markdown, record *model.CaseRecord) {
	md.H2("Recommended Actions")
	md.PlainText("")
	if len(record.RecommendedActions) == 0 {
		md.PlainText("No actions recommended.")
	} else {
		md.OrderedList(inlineAll(record.RecommendedActions)...)
	}
	md.PlainText("")
	section(md)
}

func (w *MarkdownWriter) writeValue(md *markdown.Markdown, record *model.CaseRecord) {
	v := record.Value
	md.H2("Case Value Summary")
	md.PlainText("")

	rows := []amountRow{
		{label: "Total Medical Specials", amount: v.SpecialDamages},
		{label: "Outstanding Medical Bills", amount: v.Outstanding},
		{label: "Available Coverage", amount: v.AvailableCoverage},
		{label: "Estimated Value (Low)", amount: v.EstimatedLow},
		{label: "Estimated Value (Mid)", amount: v.EstimatedMid},
		{label: "Estimated Value (High)", amount: v.EstimatedHigh},
	}
	// Net specials are computed, so a zero net is shown.
	if liens := record.Bills.LienTotal(); liens > 0 {
		rows = append(rows, amountRow{label: "Net Specials After Liens", amount: v.SpecialDamages - liens, keep: true})
	}
	if !amountTable(md, "Category", rows...) {
		md.PlainText("No case value figures documented.")
		md.PlainText("")
	}

	list(md, "Positive Factors", v.PositiveFactors)
	list(md, "Negative Factors", v.NegativeFactors)
	list(md, "Value Multipliers", v.ValueMultipliers)
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*This summary was generated by picase from structured IDP extraction. It is not legal advice.*")
}

// field is one "**Label:** value" bullet.
type field struct {
	label string
	value string
}

// fieldList writes the fields with a value as a bullet list. When none has
// a value, empty is written instead, unless it is blank.
func fieldList(md *markdown.Markdown, empty string, fields ...field) {
	items := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		items = append(items, fmt.Sprintf("**%s:** %s", f.label, Inline(f.value)))
	}
	switch {
	case len(items) > 0:
		md.BulletList(items...)
	case empty != "":
		md.PlainText(empty)
	default:
		return
	}
	md.PlainText("")
}

// list writes a titled bullet list, or nothing when items is empty.
func list(md *markdown.Markdown, title string, items []string) {
	if len(items) == 0 {
		return
	}
	md.H3(title)
	md.PlainText("")
	md.BulletList(inlineAll(items)...)
	md.PlainText("")
}

// amountRow is one row of an amount table.
type amountRow struct {
	label  string
	amount model.Money
	// bold emphasises totals.
	bold bool
	// keep shows the row even when the amount is zero.
	keep bool
}

// amountTable writes the rows that have an amount as a two-column table.
// Zero amounts are not populated and are left out. It reports whether a
// table was written.
func amountTable(md *markdown.Markdown, header string, rows ...amountRow) bool {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		if r.amount.IsZero() && !r.keep {
			continue
		}
		label, amount := r.label, r.amount.String()
		if r.bold {
			label, amount = "**"+label+"**", "**"+amount+"**"
		}
		out = append(out, []string{label, amount})
	}
	if len(out) == 0 {
		return false
	}
	md.Table(markdown.TableSet{Header: []string{header, "Amount"}, Rows: out})
	md.PlainText("")
	return true
}

// section closes a top-level section with a rule.
func section(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
}

// cells keeps each value on one line and escapes pipes so values cannot
// break a table row.
func cells(values ...string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ReplaceAll(orDefault(Inline(v), "-"), "|", `\|`)
	}
	return out
}

// lineBreaks turns line breaks into spaces.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Inline collapses a value onto a single line, so a value can never start a
// Markdown heading, list or table of its own.
func Inline(s string) string {
	return lineBreaks.Replace(s)
}

// inlineAll applies Inline to every item.
func inlineAll(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = Inline(item)
	}
	return out
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func wholeOrEmpty(m model.Money) string {
	if m.IsZero() {
		return ""
	}
	return m.Whole()
}
