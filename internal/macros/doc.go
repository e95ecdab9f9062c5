// Package macros implements the macro expansion engine.
//
// Every invocation site goes through the same steps. The macro is looked up
// in a closed set and its arguments are decoded against the macro option
// schema. The annotated item is validated and a transformation plan is
// computed. The plan is rendered into Go declarations which are parsed back
// as a self-check.
//
// An expansion is a pure function of the site, the package scope and the
// configuration. It does no I/O and keeps no state between calls, so a single
// Engine can be shared by concurrent expansions.
package macros
