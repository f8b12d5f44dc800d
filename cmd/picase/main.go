// Package main provides the entry point for the picase CLI.
//
// picase turns the extracted documents of a New York personal injury case
// folder into a case summary report, and drafts a settlement demand letter
// from the same record.
//
// Usage:
//
//	picase run <case_folder> [json|markdown|html]
//	picase batch <case_folder>...
//	picase demand <case_folder>
//
// See --help for all available options.
package main

// main is the entry point for picase.
func main() {
	Execute()
}
