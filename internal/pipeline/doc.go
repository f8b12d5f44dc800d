// Package pipeline aggregates the IDP documents of a case into a CaseRecord.
//
// Aggregation runs as an ordered list of steps. Each Step reads the loaded
// documents and fills one part of the record: parties, accident, injuries,
// bills, coverage, liability, the serious injury analysis, the case value,
// recommended actions and finally data-quality checks. Later steps may read
// what earlier steps wrote, so the order set by Default matters.
//
// BatchProcessor runs Aggregate for several case folders concurrently using
// errgroup. A case is never shared between goroutines.
package pipeline
