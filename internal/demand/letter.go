package demand

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/markdown"

	"github.com/nao1215/picase/internal/model"
	"github.com/nao1215/picase/internal/report"
)

const (
	// DefaultResponseDays is how long the demand stays open.
	DefaultResponseDays = 30

	// maxTreatmentItems caps the treatment plan items quoted in the letter.
	maxTreatmentItems = 5

	letterDateLayout = "January 2, 2006"
)

// letterStyle is the print stylesheet of the HTML letter.
const letterStyle = `@page { margin: 1in; size: letter; }
@media print { body { font-size: 11pt; } }
body { font-family: 'Times New Roman', Times, serif; font-size: 12pt; line-height: 1.6; max-width: 8.5in; margin: 0 auto; padding: 0.5in; color: #000; }
h2 { font-size: 14pt; margin-top: 1.5em; margin-bottom: 0.5em; border-bottom: 1px solid #ccc; padding-bottom: 0.25em; }
h3 { font-size: 12pt; margin-top: 1em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
th, td { border: 1px solid #000; padding: 8px 12px; text-align: left; }
th { background-color: #f0f0f0; font-weight: bold; }
td:nth-child(n+2) { text-align: right; }
hr { border: none; border-top: 2px solid #000; margin: 1em 0; }
code { font-family: monospace; background: #f5f5f5; padding: 0.1em 0.3em; }`

// Generator renders demand letters.
type Generator struct {
	firm          Firm
	responseDays  int
	certifiedMail bool
	ccClient      bool
	now           func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithFirm sets the sending firm. Empty fields keep their placeholders.
func WithFirm(firm Firm) Option {
	return func(g *Generator) {
		g.firm = firm.withDefaults()
	}
}

// WithResponseDays sets how many days the demand stays open.
// Non-positive values are ignored.
func WithResponseDays(days int) Option {
	return func(g *Generator) {
		if days > 0 {
			g.responseDays = days
		}
	}
}

// WithCertifiedMail controls the "via certified mail" line.
func WithCertifiedMail(enabled bool) Option {
	return func(g *Generator) {
		g.certifiedMail = enabled
	}
}

// WithCCClient controls whether the client is copied.
func WithCCClient(enabled bool) Option {
	return func(g *Generator) {
		g.ccClient = enabled
	}
}

// WithClock sets the clock used for the letter date and response deadline.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		firm:          DefaultFirm(),
		responseDays:  DefaultResponseDays,
		certifiedMail: true,
		ccClient:      true,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WriteMarkdown calculates the demand and writes the letter as Markdown.
func (g *Generator) WriteMarkdown(w io.Writer, record *model.CaseRecord) (*Calculation, error) {
	calc, err := Calculate(record)
	if err != nil {
		return nil, err
	}

	md := markdown.NewMarkdown(w)
	l := letter{g: g, md: md, record: record, calc: calc, date: g.now()}
	l.letterhead()
	l.addressee()
	l.reBlock()
	l.introduction()
	l.facts()
	l.liability()
	l.injuries()
	l.specials()
	l.seriousInjury()
	l.damages()
	l.demand()
	l.enclosures()
	l.closing()

	if err := md.Build(); err != nil {
		return nil, fmt.Errorf("failed to write demand letter: %w", err)
	}
	return calc, nil
}

// WriteHTML calculates the demand and writes the letter as an HTML page.
func (g *Generator) WriteHTML(w io.Writer, record *model.CaseRecord) (*Calculation, error) {
	var src bytes.Buffer
	calc, err := g.WriteMarkdown(&src, record)
	if err != nil {
		return nil, err
	}

	title := "Demand Letter - " + firstNonEmpty(record.Plaintiff.Name, record.CaseID)
	page, err := report.RenderPage(report.NewConverter(), title, letterStyle, src.Bytes())
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(page); err != nil {
		return nil, err
	}
	return calc, nil
}

// Write renders the letter in format, which must be markdown or html.
func (g *Generator) Write(w io.Writer, format report.Format, record *model.CaseRecord) (*Calculation, error) {
	switch format {
	case report.FormatMarkdown:
		return g.WriteMarkdown(w, record)
	case report.FormatHTML:
		return g.WriteHTML(w, record)
	default:
		return nil, &report.FormatError{Value: string(format)}
	}
}

// letter holds the state of one rendering.
type letter struct {
	g      *Generator
	md     *markdown.Markdown
	record *model.CaseRecord
	calc   *Calculation
	date   time.Time
}

// text writes a paragraph. Line breaks in record values are collapsed so
// they cannot start Markdown blocks.
func (l *letter) text(s string) {
	l.md.PlainText(report.Inline(s))
}

func (l *letter) textf(format string, args ...any) {
	l.text(fmt.Sprintf(format, args...))
}

// lines writes consecutive lines as one paragraph with hard line breaks.
func (l *letter) lines(lines ...string) {
	for i, line := range lines {
		lines[i] = report.Inline(line)
	}
	l.md.PlainText(strings.Join(lines, "  \n"))
	l.text("")
}

func (l *letter) list(items ...string) {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = report.Inline(item)
	}
	l.md.BulletList(out...)
}

func (l *letter) bullets(title string, items []string) {
	if len(items) == 0 {
		return
	}
	l.text("**" + title + ":**")
	l.text("")
	l.list(items...)
	l.text("")
}

func (l *letter) letterhead() {
	f := l.g.firm
	l.lines(
		"**"+f.Name+"**",
		f.Address.Street,
		fmt.Sprintf("%s, %s %s", f.Address.City, f.Address.State, f.Address.Zip),
		fmt.Sprintf("Tel: %s | Fax: %s", f.Phone, f.Fax),
		f.Email,
	)
	l.md.HorizontalRule()
	l.text("")
}

func (l *letter) addressee() {
	l.text(l.date.Format(letterDateLayout))
	l.text("")
	if l.g.certifiedMail {
		l.text("**VIA CERTIFIED MAIL AND REGULAR MAIL**")
		l.text("")
	}
	l.lines("Claims Department", l.carrier(), "[Claims Address]")
}

func (l *letter) carrier() string {
	var policyCarrier string
	if p := l.record.Coverage.DefendantPolicy; p != nil {
		policyCarrier = p.Carrier
	}
	return firstNonEmpty(policyCarrier, l.record.Defendant.Insurance.Carrier, "[INSURANCE CARRIER]")
}

func (l *letter) reBlock() {
	r := l.record
	var claim, policy string
	if p := r.Coverage.DefendantPolicy; p != nil {
		claim, policy = p.ClaimNumber, p.PolicyNumber
	}
	l.lines(
		"**Re:** Claimant: "+firstNonEmpty(r.Plaintiff.Name, "[CLAIMANT NAME]"),
		"Date of Loss: "+firstNonEmpty(r.Accident.Date, "[DATE OF LOSS]"),
		"Claim Number: "+firstNonEmpty(claim, r.Defendant.Insurance.ClaimNumber, "[CLAIM NUMBER]"),
		"Insured: "+firstNonEmpty(r.Defendant.Name, "[INSURED NAME]"),
		"Policy Number: "+firstNonEmpty(policy, r.Defendant.Insurance.PolicyNumber, "[POLICY NUMBER]"),
	)
	l.text("Dear Claims Representative:")
	l.text("")
}

func (l *letter) introduction() {
	r := l.record
	l.md.H2("Introduction")
	l.text("")
	l.textf("This firm represents **%s** for injuries sustained in a motor vehicle collision that occurred on **%s** at **%s**. "+
		"This letter serves as a formal demand for settlement of our client's bodily injury claim.",
		firstNonEmpty(r.Plaintiff.Name, "[CLIENT NAME]"),
		firstNonEmpty(r.Accident.Date, "[DATE]"),
		firstNonEmpty(r.Accident.Location, "[LOCATION]"))
	l.text("")
}

func (l *letter) facts() {
	a := l.record.Accident
	l.md.H2("Facts of the Accident")
	l.text("")

	sentence := "On **" + firstNonEmpty(a.Date, "[DATE]") + "**"
	if a.Time != "" {
		sentence += " at approximately **" + a.Time + "**"
	}
	sentence += ", a motor vehicle collision occurred at **" + firstNonEmpty(a.Location, "[LOCATION]") + "**."
	l.text(sentence)
	l.text("")

	if a.ReportNumber != "" {
		l.text("*Police Report No. " + a.ReportNumber + "*")
		l.text("")
	}
	l.text(firstNonEmpty(a.Narrative, "[Accident narrative to be inserted]"))
	l.text("")
}

func (l *letter) liability() {
	r := l.record
	li := r.Liability
	l.md.H2("Liability")
	l.text("")
	l.text("Liability in this matter is clear and uncontested.")
	l.text("")

	if li.FaultDetermination != "" {
		l.text("**Fault Determination:** " + li.FaultDetermination)
		l.text("")
	}
	violations := r.Defendant.Violations
	if len(violations) == 0 {
		violations = li.Violations
	}
	l.bullets("Traffic Violations Cited", violations)
	l.bullets("Contributing Factors", li.ContributingFactors)
	l.bullets("Evidence Supporting Liability", li.Evidence)

	l.text("Based on the foregoing, your insured bears 100% liability for this collision.")
	l.text("")
}

func (l *letter) injuries() {
	i := l.record.Injuries
	l.md.H2("Injuries and Medical Treatment")
	l.text("")
	l.text("As a direct and proximate result of this collision, our client sustained the following injuries:")
	l.text("")

	l.bullets("Body Parts Affected", i.BodyParts)

	diagnoses := i.Diagnoses
	if len(i.PrimaryDiagnoses) > 0 {
		// Coded primary diagnoses first, then the rest by description.
		seen := make(map[string]struct{}, len(i.PrimaryDiagnoses))
		diagnoses = make([]string, 0, len(i.Diagnoses))
		for _, d := range i.PrimaryDiagnoses {
			seen[d.Description] = struct{}{}
			if d.ICDCode != "" {
				diagnoses = append(diagnoses, fmt.Sprintf("%s (ICD-10: `%s`)", d.Description, d.ICDCode))
			} else {
				diagnoses = append(diagnoses, d.Description)
			}
		}
		for _, d := range i.Diagnoses {
			if _, ok := seen[d]; !ok {
				diagnoses = append(diagnoses, d)
			}
		}
	}
	l.bullets("Diagnoses", diagnoses)

	l.bullets("Diagnostic Imaging Findings", i.ImagingFindings)

	treatment := i.TreatmentPlan
	if len(treatment) > maxTreatmentItems {
		treatment = treatment[:maxTreatmentItems]
	}
	l.bullets("Treatment", treatment)

	if i.Prognosis != "" {
		l.text("**Prognosis:**")
		l.text("")
		l.text(i.Prognosis)
		l.text("")
	}
}

func (l *letter) specials() {
	b := l.record.Bills
	l.md.H2("Medical Specials Itemization")
	l.text("")

	var rows [][]string
	for _, c := range b.CategoryBreakdown {
		if c.Amount.IsZero() {
			continue
		}
		rows = append(rows, []string{report.Inline(c.Category), c.Amount.String()})
	}
	rows = append(rows, []string{"**Total Charges**", "**" + l.calc.Specials.String() + "**"})
	// Zero amounts were not populated.
	if !b.TotalPaid.IsZero() {
		rows = append(rows, []string{"Paid", b.TotalPaid.String()})
	}
	if !b.TotalAdjustments.IsZero() {
		rows = append(rows, []string{"Adjustments", b.TotalAdjustments.String()})
	}
	if !b.TotalOutstanding.IsZero() {
		rows = append(rows, []string{"**Balance**", "**" + b.TotalOutstanding.String() + "**"})
	}
	l.md.Table(markdown.TableSet{Header: []string{"Item", "Amount"}, Rows: rows})
	l.text("")

	if len(b.Providers) > 0 {
		l.text("Treating providers: " + strings.Join(b.Providers, ", "))
		l.text("")
	}

	if len(b.Liens) > 0 {
		l.md.H3("Outstanding Medical Liens")
		l.text("")
		liens := make([]string, 0, len(b.Liens))
		for _, lien := range b.Liens {
			liens = append(liens, fmt.Sprintf("%s: %s", firstNonEmpty(lien.Provider, "Unknown"), lien.Amount))
		}
		l.list(liens...)
		l.text("")
	}

	if len(b.ProcedureCodes) > 0 {
		l.text("*CPT Codes: " + strings.Join(b.ProcedureCodes, ", ") + "*")
		l.text("")
	}
}

// seriousInjury is omitted when no threshold category was found.
func (l *letter) seriousInjury() {
	t := l.record.Threshold
	if !t.MeetsThreshold && len(t.Categories) == 0 {
		return
	}
	l.md.H2("NY Serious Injury Threshold (Insurance Law 5102(d))")
	l.text("")
	l.text("Our client's injuries meet the serious injury threshold under New York Insurance Law 5102(d).")
	l.text("")
	l.bullets("Threshold Categories Met", t.Labels())
	l.bullets("Supporting Evidence", t.SupportingEvidence)
}

func (l *letter) damages() {
	i := l.record.Injuries
	l.md.H2("Damages")
	l.text("")
	l.text("As a result of this collision, our client has endured significant pain and suffering, including but not limited to:")
	l.text("")

	items := []string{
		"Physical pain from injuries sustained",
		"Emotional distress and anxiety",
		"Interference with daily activities and quality of life",
		"Medical treatment and rehabilitation",
	}
	if i.WorkRestrictions != "" {
		items = append(items, "Lost time from work: "+i.WorkRestrictions)
	}
	l.list(items...)
	l.text("")

	if l.calc.Severity >= SeverityDiscHerniation {
		l.text("Given the permanent nature of our client's injuries and the documented structural damage, " +
			"the impact on our client's quality of life will continue indefinitely.")
		l.text("")
	}
	if i.Prognosis != "" {
		l.text("*Prognosis: " + i.Prognosis + "*")
		l.text("")
	}
}

func (l *letter) demand() {
	c := l.calc
	l.md.H2("Demand")
	l.text("")
	l.textf("Based on the foregoing facts, injuries, and damages, we hereby demand the sum of **%s** "+
		"to settle all claims arising from this incident.", c.Demand)
	l.text("")
	l.md.Table(markdown.TableSet{
		Header: []string{"Category", "Amount"},
		Rows: [][]string{
			{"Medical Specials", c.Specials.String()},
			{"Pain and Suffering", c.PainAndSuffering.String()},
			{"**TOTAL DEMAND**", "**" + c.Demand.String() + "**"},
		},
	})
	l.text("")

	if c.ExceedsCoverage {
		l.textf("*Note: This demand exceeds your insured's policy limits of %s. "+
			"We reserve the right to pursue the excess from your insured personally.*", c.DefendantBI.Whole())
		l.text("")
	}

	deadline := l.date.AddDate(0, 0, l.g.responseDays)
	l.textf("This demand will remain open for **%d days** from the date of this letter (until %s). "+
		"Please respond with your settlement position within this timeframe. "+
		"Failure to respond may result in the commencement of litigation without further notice.",
		l.g.responseDays, deadline.Format(letterDateLayout))
	l.text("")
}

func (l *letter) enclosures() {
	l.md.H2("Enclosures")
	l.text("")
	l.md.BulletList("Police Report", "Medical Records", "Medical Bills", "Photographs (if available)")
	l.text("")
}

func (l *letter) closing() {
	a := l.g.firm.Attorney
	l.text("Please do not hesitate to contact the undersigned with any questions.")
	l.text("")
	l.text("Very truly yours,")
	l.text("")
	l.lines(
		"**"+a.Name+"**",
		l.g.firm.Name,
		"Tel: "+a.DirectPhone,
		"Email: "+a.Email,
	)
	if l.g.ccClient && l.record.Plaintiff.Name != "" {
		l.text("cc: " + l.record.Plaintiff.Name + " (Client)")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
