// Package ingest turns parsed Go files into gomacros invocation sites.
//
// Directives are comment lines of the form
//
//	//gomacros:<macro> <arguments>
//
// placed in the doc comment of a type declaration, a function declaration or
// the package clause. Arguments are tokenised with go/scanner, so values
// follow Go literal rules:
//
//	//gomacros:equal rename(Same), skip(cache, mu), mode(lenient)
//	//gomacros:sertest types(int, "string, time.Duration"), msgpack(true)
//
// The package also builds the package-level scope used for name hygiene.
package ingest
