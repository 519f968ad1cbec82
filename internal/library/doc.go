// Package library holds the records served by the library API and the values
// the console derives from them: due dates, overdue flags and dashboard totals.
//
// Issued dates older than SanitizeCutoff are legacy data. Sanitizer replaces
// them with the current time and logs each replacement so the derived due
// date stays meaningful.
package library
