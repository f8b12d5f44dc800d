package idp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/picase/internal/model"
)

const sampleCase = "testdata/pi_case_001"

func TestLoadSampleCase(t *testing.T) {
	t.Parallel()

	docs, err := Load(context.Background(), sampleCase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if docs.CaseID != "pi_case_001" {
		t.Errorf("expected case id pi_case_001, got %q", docs.CaseID)
	}
	if len(docs.MedicalRecords) != 2 {
		t.Errorf("expected 2 medical records, got %d", len(docs.MedicalRecords))
	}
	if len(docs.PoliceReports) != 1 {
		t.Errorf("expected 1 police report, got %d", len(docs.PoliceReports))
	}
	if len(docs.Policies) != 1 {
		t.Errorf("expected 1 insurance policy, got %d", len(docs.Policies))
	}
	if len(docs.Bills) != 1 {
		t.Errorf("expected 1 medical bill, got %d", len(docs.Bills))
	}
	if docs.Count() != 5 {
		t.Errorf("expected 5 documents, got %d", docs.Count())
	}

	t.Run("files are read in lexical order", func(t *testing.T) {
		t.Parallel()
		name, _, _ := docs.MedicalRecords[0].Patient()
		if name != "Maria Rodriguez" {
			t.Errorf("unexpected patient %q", name)
		}
		if got := docs.MedicalRecords[0].DocumentInfo.FacilityName; got != "Bellevue Hospital Center" {
			t.Errorf("expected the ER visit first, got %q", got)
		}
	})

	t.Run("numbers decode into text fields", func(t *testing.T) {
		t.Parallel()
		report := docs.PoliceReport()
		v := report.Vehicle(2)
		if v == nil {
			t.Fatal("vehicle 2 not found")
		}
		if v.Year != "2019" {
			t.Errorf("expected year 2019, got %q", v.Year)
		}
		if d := report.Driver(2); d == nil || d.Name != "James Thompson" {
			t.Errorf("unexpected driver 2: %+v", d)
		}
		if report.Driver(3) != nil {
			t.Error("expected no driver 3")
		}
	})

	t.Run("flags accept strings", func(t *testing.T) {
		t.Parallel()
		report := docs.PoliceReport()
		if !report.DiagramPresent || !report.PhotosTaken {
			t.Errorf("expected diagram and photos, got %v %v", report.DiagramPresent, report.PhotosTaken)
		}
	})

	t.Run("work restrictions accept a string or a list", func(t *testing.T) {
		t.Parallel()
		first := docs.MedicalRecords[0].Functional.WorkRestrictions
		second := docs.MedicalRecords[1].Functional.WorkRestrictions
		if diff := cmp.Diff(StringList{"No work for 2 weeks"}, first); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
		if len(second) != 2 {
			t.Errorf("expected 2 restrictions, got %v", second)
		}
	})

	t.Run("money amounts", func(t *testing.T) {
		t.Parallel()
		summary := docs.Bills[0].BillingSummary
		if summary.TotalCharges != model.Dollars(6290) {
			t.Errorf("expected $6,290.00, got %s", summary.TotalCharges)
		}
		limits := docs.Policies[0].Coverages
		if limits.PIP.AdditionalPIP != model.Dollars(100000) {
			t.Errorf("expected additional PIP $100,000, got %s", limits.PIP.AdditionalPIP)
		}
	})

	t.Run("treatment summary drops non-numeric values", func(t *testing.T) {
		t.Parallel()
		charges := docs.Bills[0].TreatmentSummary
		want := []string{"ambulance_charges", "emergency_room_charges", "other_charges", "radiology_charges"}
		if diff := cmp.Diff(want, charges.Keys()); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("indicator categories", func(t *testing.T) {
		t.Parallel()
		got := docs.MedicalRecords[0].Indicators.Categories()
		want := []model.ThresholdCategory{model.CategorySignificantLimitation, model.CategoryNinetyOneEighty}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestLoadResultBucketLayout(t *testing.T) {
	t.Parallel()

	docs, err := Load(context.Background(), "testdata/aws_case")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs.MedicalRecords) != 1 || len(docs.PoliceReports) != 1 {
		t.Fatalf("expected one medical record and one police report, got %d and %d",
			len(docs.MedicalRecords), len(docs.PoliceReports))
	}

	record := docs.MedicalRecords[0]
	if !record.Structured() {
		t.Error("expected the camelCase schema to be detected")
	}
	name, dob, mrn := record.Patient()
	if name != "Maria Rodriguez" || dob != "03/15/1985" || mrn != "BH-2024-001234" {
		t.Errorf("unexpected patient: %q %q %q", name, dob, mrn)
	}

	diagnoses := record.AllDiagnoses()
	if len(diagnoses) != 3 || diagnoses[1].ICDCode != "M54.16" {
		t.Errorf("unexpected diagnoses: %+v", diagnoses)
	}

	imaging := record.Imaging()
	want := []string{"ctCervical: Loss of lordosis", "xrayShoulder: No fracture"}
	var nonEmpty []string
	for _, s := range imaging {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if diff := cmp.Diff(want, nonEmpty); diff != "" {
		t.Errorf("imaging mismatch (-want +got):\n%s", diff)
	}

	loc := docs.PoliceReport().AccidentDetails.Location
	if loc.StreetAddress != "Broadway at W 42nd St" {
		t.Errorf("expected a plain string location, got %+v", loc)
	}
	if docs.PoliceReport().Driver(2) == nil {
		t.Error("expected a string vehicle number to match")
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing folder", func(t *testing.T) {
		t.Parallel()
		_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrCaseFolderNotFound) {
			t.Errorf("expected ErrCaseFolderNotFound, got %v", err)
		}
		if !IsInputError(err) {
			t.Errorf("expected an *InputError, got %T", err)
		}
	})

	t.Run("file instead of folder", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "case.json")
		if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := Load(context.Background(), path)
		if !errors.Is(err, ErrCaseFolderNotFound) {
			t.Errorf("expected ErrCaseFolderNotFound, got %v", err)
		}
	})

	t.Run("no documents", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(dir, "MEDICAL_RECORDS"), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "MEDICAL_RECORDS", "scan.pdf"), []byte("%PDF"), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := Load(context.Background(), dir)
		if !errors.Is(err, ErrNoDocuments) {
			t.Errorf("expected ErrNoDocuments, got %v", err)
		}
	})

	t.Run("malformed json names the file", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(dir, "POLICE_REPORT"), 0o750); err != nil {
			t.Fatal(err)
		}
		bad := filepath.Join(dir, "POLICE_REPORT", "mv104.json")
		if err := os.WriteFile(bad, []byte(`{"narrative": `), 0o600); err != nil {
			t.Fatal(err)
		}

		_, err := Load(context.Background(), dir)
		var inputErr *InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("expected *InputError, got %T: %v", err, err)
		}
		if inputErr.Path != bad {
			t.Errorf("expected path %q, got %q", bad, inputErr.Path)
		}
		if !strings.Contains(err.Error(), "mv104.json") {
			t.Errorf("error should name the file: %v", err)
		}
	})

	t.Run("wrong field type", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(dir, "MEDICAL_BILLS"), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "MEDICAL_BILLS", "bill.json"),
			[]byte(`{"billing_summary": {"total_charges": "a lot"}}`), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := Load(context.Background(), dir)
		if !IsInputError(err) {
			t.Errorf("expected an *InputError, got %v", err)
		}
	})

	t.Run("amount out of range", func(t *testing.T) {
		t.Parallel()
		for _, body := range []string{
			`{"billing_summary": {"total_charges": 1e17}}`,
			`{"billing_summary": {"balance_due": "-$100,000,000,000,000,000"}}`,
			`{"treatment_summary": {"emergency_room": 1e17}}`,
		} {
			dir := t.TempDir()
			if err := os.MkdirAll(filepath.Join(dir, "MEDICAL_BILLS"), 0o750); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, "MEDICAL_BILLS", "bill.json"), []byte(body), 0o600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(context.Background(), dir)
			if !IsInputError(err) {
				t.Errorf("%s: expected an *InputError, got %v", body, err)
			}
			if !errors.Is(err, model.ErrAmountOutOfRange) {
				t.Errorf("%s: expected ErrAmountOutOfRange, got %v", body, err)
			}
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Load(ctx, sampleCase)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestViolationString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		v        Violation
		expected string
	}{
		{Violation{VTLSection: "1111(d)(1)", Description: "Red light"}, "VTL 1111(d)(1) - Red light"},
		{Violation{VTLSection: "1225-c"}, "VTL 1225-c"},
		{Violation{Description: "Speeding"}, "Speeding"},
		{Violation{}, ""},
	}

	for _, tc := range testCases {
		if got := tc.v.String(); got != tc.expected {
			t.Errorf("got %q, expected %q", got, tc.expected)
		}
	}
}

func TestParseDocumentType(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"MEDICAL_RECORDS", "POLICE_REPORT", "INSURANCE_POLICY", "MEDICAL_BILLS"} {
		if _, ok := ParseDocumentType(name); !ok {
			t.Errorf("expected %s to be recognised", name)
		}
	}
	if _, ok := ParseDocumentType("medical_records"); ok {
		t.Error("document type names are case-sensitive")
	}
}
