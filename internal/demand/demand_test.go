package demand

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/nao1215/picase/internal/model"
	"github.com/nao1215/picase/internal/pipeline"
	"github.com/nao1215/picase/internal/report"
)

const sampleCase = "../idp/testdata/pi_case_001"

func fixedNow() time.Time {
	return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
}

func sampleRecord(t *testing.T) *model.CaseRecord {
	t.Helper()
	record, err := pipeline.Aggregate(context.Background(), sampleCase,
		pipeline.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		pipeline.WithClock(fixedNow),
		pipeline.WithIDGenerator(func() string { return "report-0001" }),
	)
	if err != nil {
		t.Fatalf("failed to aggregate sample case: %v", err)
	}
	return record
}

// softTissueRecord is a minimal case with $10,000 of specials and neutral liability.
func softTissueRecord() *model.CaseRecord {
	record := model.NewCaseRecord("case_soft", fixedNow())
	record.Plaintiff.Name = "John Smith"
	record.Accident.Date = "06/01/2024"
	record.Accident.Location = "Main St"
	record.Injuries.Diagnoses = []string{"Cervical strain"}
	record.Bills.TotalBilled = model.Dollars(10000)
	return record
}

func TestClassifySeverity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		diagnoses  []string
		imaging    []string
		prognosis  string
		categories []model.ThresholdCategory
		expected   Severity
	}{
		{name: "sprain", diagnoses: []string{"Lumbar sprain"}, expected: SeveritySoftTissue},
		{name: "bulge on imaging", imaging: []string{"MRI: L4-L5 disc bulge"}, expected: SeverityDiscBulging},
		{name: "bulge outside imaging", diagnoses: []string{"Disc bulge"}, expected: SeveritySoftTissue},
		{name: "radiculopathy", diagnoses: []string{"Lumbar radiculopathy"}, imaging: []string{"Disc protrusion"}, expected: SeverityRadiculopathy},
		{name: "herniation", imaging: []string{"Herniated disc at C5-C6"}, diagnoses: []string{"Radiculopathy"}, expected: SeverityDiscHerniation},
		{
			name:      "permanent without finding",
			imaging:   []string{"Disc herniation"},
			prognosis: "Permanent partial disability",
			expected:  SeverityDiscHerniation,
		},
		{
			name:       "permanent with finding",
			prognosis:  "Guarded, chronic pain expected",
			categories: []model.ThresholdCategory{model.CategoryPermanentConsequential},
			expected:   SeverityPermanent,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			record := model.NewCaseRecord("case", fixedNow())
			record.Injuries.Diagnoses = tc.diagnoses
			record.Injuries.ImagingFindings = tc.imaging
			record.Injuries.Prognosis = tc.prognosis
			record.Threshold.SetCategories(tc.categories...)

			if got := ClassifySeverity(record); got != tc.expected {
				t.Errorf("got %s, expected %s", got, tc.expected)
			}
		})
	}
}

func TestSeverityMultipliers(t *testing.T) {
	t.Parallel()

	previous := 0.0
	for s := SeveritySoftTissue; s <= SeverityPermanent; s++ {
		low, high := s.MultiplierRange()
		if low >= high {
			t.Errorf("%s: low %v is not below high %v", s, low, high)
		}
		if high < previous {
			t.Errorf("%s: high multiplier %v decreased", s, high)
		}
		previous = high
	}
	if Severity(99).String() != "unknown" {
		t.Error("expected unknown for an out of range severity")
	}
}

func TestLiabilityPoints(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		liability model.LiabilityAnalysis
		expected  int
	}{
		{name: "nothing documented", expected: 50},
		{name: "fault only", liability: model.LiabilityAnalysis{FaultDetermination: "Driver 2 ran the red light"}, expected: 70},
		{name: "violations capped at two", liability: model.LiabilityAnalysis{Violations: []string{"a", "b", "c"}}, expected: 70},
		{name: "camera and witness", liability: model.LiabilityAnalysis{Evidence: []string{"Traffic camera footage", "Independent witness"}}, expected: 75},
		{
			name: "capped at 100",
			liability: model.LiabilityAnalysis{
				FaultDetermination:  "Vehicle 2 100% at fault",
				Violations:          []string{"a", "b"},
				Evidence:            []string{"Video", "Witness"},
				ContributingFactors: []string{"x", "y"},
			},
			expected: 100,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			record := model.NewCaseRecord("case", fixedNow())
			record.Liability = tc.liability
			if got := liabilityPoints(record); got != tc.expected {
				t.Errorf("got %d, expected %d", got, tc.expected)
			}
		})
	}

	t.Run("defendant violations are used when liability has none", func(t *testing.T) {
		t.Parallel()
		record := model.NewCaseRecord("case", fixedNow())
		record.Defendant.Violations = []string{"VTL 1111(d)(1)"}
		if got := liabilityPoints(record); got != 60 {
			t.Errorf("got %d, expected 60", got)
		}
	})
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	t.Run("sample case", func(t *testing.T) {
		t.Parallel()
		calc, err := Calculate(sampleRecord(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := &Calculation{
			Specials:          model.Dollars(6290),
			Severity:          SeverityPermanent,
			SeverityName:      "permanent",
			MultiplierLow:     3,
			MultiplierHigh:    5,
			Multiplier:        5,
			LiabilityStrength: 1,
			PainAndSuffering:  model.Dollars(31450),
			Demand:            model.Dollars(37500),
		}
		if diff := cmp.Diff(want, calc); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("neutral liability uses the midpoint", func(t *testing.T) {
		t.Parallel()
		calc, err := Calculate(softTissueRecord())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calc.Multiplier != 2 {
			t.Errorf("expected multiplier 2, got %v", calc.Multiplier)
		}
		if calc.Demand != model.Dollars(30000) {
			t.Errorf("expected $30,000.00, got %s", calc.Demand)
		}
	})

	t.Run("rounds to the nearest $500", func(t *testing.T) {
		t.Parallel()
		record := softTissueRecord()
		record.Bills.TotalBilled = model.Dollars(1100)
		calc, err := Calculate(record)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// $1,100 + $2,200 = $3,300.
		if calc.Demand != model.Dollars(3500) {
			t.Errorf("expected $3,500.00, got %s", calc.Demand)
		}
		if calc.PainAndSuffering != model.Dollars(2200) {
			t.Errorf("expected $2,200.00, got %s", calc.PainAndSuffering)
		}
	})

	t.Run("case value is the fallback for specials", func(t *testing.T) {
		t.Parallel()
		record := softTissueRecord()
		record.Bills.TotalBilled = 0
		record.Value.SpecialDamages = model.Dollars(2000)
		calc, err := Calculate(record)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calc.Specials != model.Dollars(2000) {
			t.Errorf("expected $2,000.00, got %s", calc.Specials)
		}
	})

	t.Run("no specials", func(t *testing.T) {
		t.Parallel()
		record := softTissueRecord()
		record.Bills.TotalBilled = 0
		if _, err := Calculate(record); !errors.Is(err, ErrNoSpecials) {
			t.Errorf("expected ErrNoSpecials, got %v", err)
		}
	})

	t.Run("demand above the bodily injury limit", func(t *testing.T) {
		t.Parallel()
		record := softTissueRecord()
		record.Coverage.DefendantPolicy = &model.Policy{Carrier: "Progressive", BIPerPerson: model.Dollars(25000)}
		calc, err := Calculate(record)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !calc.ExceedsCoverage {
			t.Error("expected the demand to exceed coverage")
		}
	})
}

func render(t *testing.T, g *Generator, record *model.CaseRecord) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := g.WriteMarkdown(&buf, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return buf.String()
}

func TestWriteMarkdown(t *testing.T) {
	t.Parallel()

	t.Run("sample case", func(t *testing.T) {
		t.Parallel()
		got := render(t, NewGenerator(WithClock(fixedNow)), sampleRecord(t))

		for _, want := range []string{
			"**[LAW FIRM NAME]**",
			"March 1, 2024",
			"**VIA CERTIFIED MAIL AND REGULAR MAIL**",
			"Claimant: Maria Rodriguez",
			"Dear Claims Representative:",
			"## Introduction",
			"## Facts of the Accident",
			"## Liability",
			"your insured bears 100% liability",
			"## Injuries and Medical Treatment",
			"## Medical Specials Itemization",
			"### Outstanding Medical Liens",
			"## NY Serious Injury Threshold (Insurance Law 5102(d))",
			"Permanent Consequential Limitation",
			"the impact on our client's quality of life will continue indefinitely",
			"we hereby demand the sum of **$37,500.00**",
			"**TOTAL DEMAND**",
			"(until March 31, 2024)",
			"## Enclosures",
			"Very truly yours,",
			"cc: Maria Rodriguez (Client)",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("letter is missing %q", want)
			}
		}
		if strings.Contains(got, "exceeds your insured's policy limits") {
			t.Error("unexpected policy limit note")
		}
	})

	t.Run("sections are in order", func(t *testing.T) {
		t.Parallel()
		got := render(t, NewGenerator(WithClock(fixedNow)), sampleRecord(t))
		last := -1
		for _, heading := range []string{"## Introduction", "## Facts", "## Liability", "## Injuries", "## Medical Specials", "## NY Serious", "## Damages", "## Demand", "## Enclosures"} {
			idx := strings.Index(got, heading)
			if idx <= last {
				t.Errorf("%q is out of order", heading)
			}
			last = idx
		}
	})

	t.Run("deterministic with a fixed clock", func(t *testing.T) {
		t.Parallel()
		g := NewGenerator(WithClock(fixedNow))
		record := sampleRecord(t)
		if first, second := render(t, g, record), render(t, g, record); first != second {
			t.Error("expected identical letters")
		}
	})

	t.Run("options", func(t *testing.T) {
		t.Parallel()
		firm := Firm{Name: "Smith & Jones LLP", Attorney: Attorney{Name: "Ann Smith, Esq."}}
		g := NewGenerator(
			WithClock(fixedNow),
			WithFirm(firm),
			WithResponseDays(14),
			WithCertifiedMail(false),
			WithCCClient(false),
		)
		got := render(t, g, softTissueRecord())

		for _, want := range []string{"**Smith & Jones LLP**", "**Ann Smith, Esq.**", "[Street Address]", "**14 days**", "(until March 15, 2024)"} {
			if !strings.Contains(got, want) {
				t.Errorf("letter is missing %q", want)
			}
		}
		for _, unwanted := range []string{"CERTIFIED MAIL", "cc:", "[LAW FIRM NAME]"} {
			if strings.Contains(got, unwanted) {
				t.Errorf("letter should not contain %q", unwanted)
			}
		}
	})

	t.Run("non-positive response days are ignored", func(t *testing.T) {
		t.Parallel()
		got := render(t, NewGenerator(WithClock(fixedNow), WithResponseDays(0)), softTissueRecord())
		if !strings.Contains(got, "**30 days**") {
			t.Error("expected the default response period")
		}
	})

	t.Run("threshold section omitted when not met", func(t *testing.T) {
		t.Parallel()
		got := render(t, NewGenerator(WithClock(fixedNow)), softTissueRecord())
		if strings.Contains(got, "Serious Injury Threshold") {
			t.Error("unexpected serious injury section")
		}
		if strings.Contains(got, "continue indefinitely") {
			t.Error("unexpected permanence paragraph for soft tissue injuries")
		}
	})

	t.Run("placeholders for missing identifiers", func(t *testing.T) {
		t.Parallel()
		got := render(t, NewGenerator(WithClock(fixedNow)), softTissueRecord())
		for _, want := range []string{"[INSURANCE CARRIER]", "Claim Number: [CLAIM NUMBER]", "Insured: [INSURED NAME]", "[Accident narrative to be inserted]"} {
			if !strings.Contains(got, want) {
				t.Errorf("letter is missing %q", want)
			}
		}
	})

	t.Run("policy limit note", func(t *testing.T) {
		t.Parallel()
		record := softTissueRecord()
		record.Coverage.DefendantPolicy = &model.Policy{Carrier: "Progressive", BIPerPerson: model.Dollars(25000)}
		got := render(t, NewGenerator(WithClock(fixedNow)), record)
		if !strings.Contains(got, "exceeds your insured's policy limits of $25,000.") {
			t.Error("expected the policy limit note")
		}
		if !strings.Contains(got, "Claims Department  \nProgressive") {
			t.Error("expected the defendant carrier as addressee")
		}
	})

	t.Run("no specials writes nothing", func(t *testing.T) {
		t.Parallel()
		record := softTissueRecord()
		record.Bills.TotalBilled = 0
		var buf bytes.Buffer
		if _, err := NewGenerator().WriteMarkdown(&buf, record); !errors.Is(err, ErrNoSpecials) {
			t.Errorf("expected ErrNoSpecials, got %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %d bytes", buf.Len())
		}
	})

	t.Run("unpopulated bill amounts are omitted", func(t *testing.T) {
		t.Parallel()
		got := render(t, NewGenerator(WithClock(fixedNow)), softTissueRecord())

		if !strings.Contains(got, "| **Total Charges** | **$10,000.00** |") {
			t.Error("expected the total charges row")
		}
		for _, unwanted := range []string{"$0.00", "| Paid |", "| Adjustments |", "**Balance**"} {
			if strings.Contains(got, unwanted) {
				t.Errorf("letter should not contain %q", unwanted)
			}
		}
	})

	t.Run("line breaks in values stay inline", func(t *testing.T) {
		t.Parallel()
		record := softTissueRecord()
		record.Accident.Location = "Main St\n# Injected Title"
		record.Accident.Narrative = "Rear-ended at a light.\n## Injected Heading"
		record.Injuries.Diagnoses = []string{"Cervical strain\n- injected item"}
		got := render(t, NewGenerator(WithClock(fixedNow)), record)

		for _, line := range strings.Split(got, "\n") {
			if strings.HasPrefix(line, "# Injected") || strings.HasPrefix(line, "## Injected") ||
				strings.HasPrefix(line, "- injected") {
				t.Errorf("record value started its own block: %q", line)
			}
		}
		for _, want := range []string{
			"**Main St # Injected Title**",
			"Rear-ended at a light. ## Injected Heading",
			"- Cervical strain - injected item",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("letter is missing %q", want)
			}
		}
	})
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	calc, err := NewGenerator(WithClock(fixedNow)).Write(&buf, report.FormatHTML, sampleRecord(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calc.Demand != model.Dollars(37500) {
		t.Errorf("unexpected demand %s", calc.Demand)
	}

	doc, err := html.Parse(&buf)
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}

	var title string
	var tables, headings int
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil {
					title = n.FirstChild.Data
				}
			case "table":
				tables++
			case "h2":
				headings++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if title != "Demand Letter - Maria Rodriguez" {
		t.Errorf("unexpected title %q", title)
	}
	if tables != 2 {
		t.Errorf("expected 2 tables, got %d", tables)
	}
	if headings != 9 {
		t.Errorf("expected 9 section headings, got %d", headings)
	}
}

func TestWriteRejectsJSON(t *testing.T) {
	t.Parallel()

	_, err := NewGenerator().Write(io.Discard, report.FormatJSON, softTissueRecord())
	if !errors.Is(err, report.ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}
