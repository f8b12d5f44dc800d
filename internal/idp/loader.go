package idp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ReportFileName is the file the IDP result bucket writes per document.
const ReportFileName = "report.txt"

// Loader reads the IDP documents of a case folder.
type Loader struct {
	logger *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used to report each file read.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the documents of the case folder dir with a default Loader.
func Load(ctx context.Context, dir string) (*Documents, error) {
	return NewLoader().Load(ctx, dir)
}

// Load reads the documents of the case folder dir.
// Type directories are read directly under dir and one level below it;
// within a directory, files are read in lexical order.
func (l *Loader) Load(ctx context.Context, dir string) (*Documents, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, &InputError{Path: dir, Err: ErrCaseFolderNotFound}
	}

	docs := &Documents{
		CaseID: filepath.Base(filepath.Clean(dir)),
		Dir:    dir,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &InputError{Path: dir, Err: err}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		if docType, ok := ParseDocumentType(entry.Name()); ok {
			if err := l.loadTypeDir(ctx, docs, docType, path); err != nil {
				return nil, err
			}
			continue
		}

		// A per-document result directory such as <hash>/MEDICAL_RECORDS/report.txt.
		sub, err := os.ReadDir(path)
		if err != nil {
			return nil, &InputError{Path: path, Err: err}
		}
		for _, s := range sub {
			docType, ok := ParseDocumentType(s.Name())
			if !ok || !s.IsDir() {
				continue
			}
			if err := l.loadTypeDir(ctx, docs, docType, filepath.Join(path, s.Name())); err != nil {
				return nil, err
			}
		}
	}

	if docs.Count() == 0 {
		return nil, &InputError{Path: dir, Err: ErrNoDocuments}
	}

	l.logger.Debug("documents loaded",
		"case", docs.CaseID,
		"medical_records", len(docs.MedicalRecords),
		"police_reports", len(docs.PoliceReports),
		"insurance_policies", len(docs.Policies),
		"medical_bills", len(docs.Bills),
	)
	return docs, nil
}

// loadTypeDir reads report.txt and every *.json file in a type directory.
func (l *Loader) loadTypeDir(ctx context.Context, docs *Documents, docType DocumentType, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &InputError{Path: dir, Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() || !isDocumentFile(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, entry.Name())
		if err := l.loadFile(docs, docType, path); err != nil {
			return err
		}
	}
	return nil
}

func isDocumentFile(name string) bool {
	return name == ReportFileName || strings.EqualFold(filepath.Ext(name), ".json")
}

func (l *Loader) loadFile(docs *Documents, docType DocumentType, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // paths come from the case folder being processed
	if err != nil {
		return &InputError{Path: path, Err: err}
	}

	switch docType {
	case TypeMedicalRecords:
		var r MedicalRecord
		err = decode(data, &r)
		docs.MedicalRecords = append(docs.MedicalRecords, r)
	case TypePoliceReport:
		var r PoliceReport
		err = decode(data, &r)
		docs.PoliceReports = append(docs.PoliceReports, r)
	case TypeInsurancePolicy:
		var p InsurancePolicy
		err = decode(data, &p)
		docs.Policies = append(docs.Policies, p)
	case TypeMedicalBills:
		var b MedicalBill
		err = decode(data, &b)
		docs.Bills = append(docs.Bills, b)
	}
	if err != nil {
		return &InputError{Path: path, Err: err}
	}

	docs.Sources = append(docs.Sources, path)
	l.logger.Debug("document read", "type", string(docType), "path", path)
	return nil
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return fmt.Errorf("malformed JSON at offset %d: %w", syntaxErr.Offset, err)
		}
		return fmt.Errorf("unexpected document structure: %w", err)
	}
	return nil
}

// IsInputError reports whether err is an *InputError.
func IsInputError(err error) bool {
	var inputErr *InputError
	return errors.As(err, &inputErr)
}
