// Package log provides logging that redacts personal information, built on
// top of the standard slog package.
//
// Case folders hold plaintiff and defendant identities, dates of birth,
// license numbers and insurance identifiers. The SecureHandler masks:
//   - attributes whose key names such a field (dob, mrn, phone, policy_number, ...)
//   - social security numbers, phone numbers and email addresses found in
//     any string value, including error messages
//
// Even in verbose mode, these values are masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("plaintiff resolved", "case", caseID, "dob", dob) // dob=***REDACTED***
//	slog.SetDefault(logger)
package log
