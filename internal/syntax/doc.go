// Package syntax defines the structured syntax tree built for every gomacros
// invocation site.
//
// The entities in this package describe the annotated declaration (a struct,
// a named non-struct type, a function or a whole file's package clause) and
// the arguments of the directive attached to it. Every node keeps the span it
// was read from, so that diagnostics produced by later stages point at the
// user's source rather than at generated code.
//
// Trees are produced by the ingest package and consumed by the macros
// package. They are owned by a single expansion and never shared.
package syntax
