// Package logtail reads the tail of the console's own log file and parses
// the lines slog's text handler wrote there.
//
// Read keeps a ring buffer of the last maxLines lines, so memory stays
// bounded no matter how large the file grows. A missing file is treated as
// empty because the log is only created on first write.
//
// Parse understands the key=value layout of slog.TextHandler:
//
//	time=2026-10-17T09:12:01.000+02:00 level=WARN msg="session expired" path=/books
//
// Lines in any other shape are returned unparsed, and Filter keeps them
// regardless of the requested level.
package logtail
