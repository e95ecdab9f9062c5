/*
Package generate assembles companion files of Go packages.

For every package the generator reads the Go files through an afero.Fs,
ingests invocation sites, expands them with the macro engine in source order
and merges the fragments of all sites into up to three companion files:

  - the source companion for methods (zz_gomacros.go by default);
  - the test companion for tests of the package itself;
  - the external test companion for tests of the package_test package.

A package with any error diagnostic gets no files written. Companion files
that are no longer needed are removed as long as they carry the generated
header.

Packages are processed concurrently and in isolation: each one owns its file
set, scope and results. Results are ordered by directory.
*/
package generate
