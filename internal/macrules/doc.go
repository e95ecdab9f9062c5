// Package macrules defines the canonical diagnostic codes (GM-series) emitted by gomacros.
//
// Every problem the expansion engine can report about an invocation site has a
// stable numeric and textual identity, so that diagnostics can be filtered,
// matched in tests and referenced from documentation regardless of how the
// message text evolves.
//
// # Structure
//
// Codes follow the format “GM<NNN>: <Name>” and are grouped by the pipeline
// stage that detects them:
//
//	000–099  Parse class: the directive or the annotated item cannot be read
//	100–899  Validation class: the site is readable but violates a macro precondition
//	900–999  Synthesis class: internal defects, never caused by user input
//
// Example:
//
//	macrules.GM100UnknownOption.String()      → "GM100: UnknownOption"
//	macrules.GM100UnknownOption.Description() → "Macro argument is not a recognized option."
//
// # Notes
//
//   - Codes are stable; never renumber existing ones.
//   - Parse class codes are fatal to the single expansion they occur in.
//   - Validation class codes are collected together per expansion.
//   - GM150 is the only warning-level code; it accompanies empty output.
package macrules
