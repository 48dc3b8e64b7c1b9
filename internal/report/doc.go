// Package report resolves where verdict log lines belong and writes the
// console and report-log output for each checked file.
package report
