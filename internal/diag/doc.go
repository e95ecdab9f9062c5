// Package diag holds gomacros diagnostics and the reporter collecting them
// during a single expansion.
//
// A Diagnostic always carries a code from the macrules package, a severity
// derived from that code, a message and the span of the offending tokens in
// the original source. Reports are never deduplicated or dropped: the
// reporter keeps every diagnostic in the order it was produced, and Sort
// gives a deterministic presentation order.
package diag
