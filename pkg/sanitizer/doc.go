// Package sanitizer normalizes free-text marketplace input before validation
// and storage.
//
// All functions are idempotent. Invalid input yields empty strings or empty
// slices rather than errors.
//
// Normalization includes:
//   - Names and addresses: collapse whitespace, trim
//   - Service labels: collapse whitespace, trim, drop duplicates case-insensitively
//   - Chat text: strip control characters except newlines and tabs, trim
//   - Identifiers: trim only
package sanitizer
