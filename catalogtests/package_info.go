// Package catalogtests contains the book catalog contract tests and their supporting API.
//
// Infrastructure that is not specific to the catalog domain, such as running tests and
// collecting results, is in the lower-level framework package. Requests are built by the
// catalogapi package and responses are checked by the validation package.
package catalogtests
