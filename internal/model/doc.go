// Package model defines the case data structures shared by the loader,
// the aggregation pipeline, the report writers and the history database.
//
// The central type is CaseRecord, a single aggregate describing one
// personal-injury matter:
//   - Plaintiff and Defendant: the parties and their identifiers
//   - Accident: police report metadata and narrative
//   - Injuries: diagnoses, ICD-10 codes, imaging, restrictions, prognosis
//   - Bills: billed/paid/adjusted/outstanding totals, liens, CPT codes
//   - Coverage: policy limits and the available coverage total
//   - Liability and Threshold: fault indicators and serious injury flags
//   - Value and RecommendedActions: the case value summary and next steps
//
// The models live in their own package so that internal/idp, internal/pipeline,
// internal/report and internal/database can share them without import cycles.
// Every type is JSON serializable; the JSON form is the structured-data report.
package model
