// Package ui is the Bubble Tea console for the library API.
//
// The root Model owns one view at a time: login, the statistics dashboard,
// the book catalog, due and pending loans, the transaction history, the
// admin list and a tail of the console's own log file. Lists come from the
// state package's collections, which the model refreshes when a view opens
// and a background poller refreshes while it runs.
//
// Work that talks to the API runs in tea.Cmd functions and reports back
// with a message. Session changes and new notices arrive from outside the
// program through Program, which forwards them with Send.
//
// A barcode reader types its prefix, the code and Enter. On the Books and
// Pending views the scanner package collects those keys, so a scan selects
// or issues a book without opening a form first.
package ui
