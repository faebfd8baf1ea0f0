// Package report renders pipeline reports as plain text, JSON or
// Markdown, for a single run or a batch.
//
// The text writer is the default terminal output. JSON is the format the
// run history stores and scripts consume. Markdown is meant for pasting
// into issues.
package report
