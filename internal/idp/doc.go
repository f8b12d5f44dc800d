// Package idp loads the structured JSON documents produced by the external
// Intelligent Document Processing pipeline for a personal-injury case.
//
// A case folder contains one directory per document type, either directly:
//
//	pi_case_001/
//	  MEDICAL_RECORDS/er_visit.json
//	  POLICE_REPORT/mv104.json
//
// or one level below a directory per source document, as written by the
// pipeline's result bucket:
//
//	pi_case_001/
//	  3f2a.../MEDICAL_RECORDS/report.txt
//	  9c1b.../POLICE_REPORT/report.txt
//
// The loader only decodes JSON; it never looks at images or PDFs.
package idp
